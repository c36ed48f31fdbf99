package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"foodshare/internal/domain/entity"
	"foodshare/internal/domain/repository"
	"foodshare/pkg/errors"
	"foodshare/pkg/logger"
)

const messagesCollection = "messages"

type firestoreMessageRepository struct {
	client *firestore.Client
}

func NewFirestoreMessageRepository(client *firestore.Client) repository.MessageRepository {
	return &firestoreMessageRepository{
		client: client,
	}
}

func (r *firestoreMessageRepository) Create(ctx context.Context, message *entity.Message) error {
	if message.ID == "" {
		message.ID = uuid.New().String()
	}

	_, err := r.client.Collection(messagesCollection).Doc(message.ID).Set(ctx, message)
	if err != nil {
		return errors.Internal("Failed to create message", err)
	}

	return nil
}

func (r *firestoreMessageRepository) GetByID(ctx context.Context, id string) (*entity.Message, error) {
	doc, err := r.client.Collection(messagesCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Message", err)
		}
		return nil, errors.Internal("Failed to get message", err)
	}

	var message entity.Message
	if err := doc.DataTo(&message); err != nil {
		return nil, errors.Internal("Failed to parse message data", err)
	}
	return &message, nil
}

func (r *firestoreMessageRepository) MarkRead(ctx context.Context, id string) error {
	_, err := r.client.Collection(messagesCollection).Doc(id).Update(ctx, []firestore.Update{
		{Path: "isRead", Value: true},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Message", err)
		}
		return errors.Internal("Failed to update message read status", err)
	}
	return nil
}

// ListBetween merges the two directional queries of the pair.
func (r *firestoreMessageRepository) ListBetween(ctx context.Context, userA, userB string) ([]*entity.Message, error) {
	sent, err := r.collect(ctx, r.client.Collection(messagesCollection).
		Where("senderId", "==", userA).
		Where("recipientId", "==", userB).
		OrderBy("createdAt", firestore.Asc))
	if err != nil {
		return nil, err
	}

	received, err := r.collect(ctx, r.client.Collection(messagesCollection).
		Where("senderId", "==", userB).
		Where("recipientId", "==", userA).
		OrderBy("createdAt", firestore.Asc))
	if err != nil {
		return nil, err
	}

	return append(sent, received...), nil
}

func (r *firestoreMessageRepository) ListByUser(ctx context.Context, userID string) ([]*entity.Message, error) {
	sent, err := r.collect(ctx, r.client.Collection(messagesCollection).Where("senderId", "==", userID))
	if err != nil {
		return nil, err
	}

	received, err := r.collect(ctx, r.client.Collection(messagesCollection).Where("recipientId", "==", userID))
	if err != nil {
		return nil, err
	}

	return append(sent, received...), nil
}

func (r *firestoreMessageRepository) ListUnread(ctx context.Context, senderID, recipientID string) ([]*entity.Message, error) {
	return r.collect(ctx, r.client.Collection(messagesCollection).
		Where("senderId", "==", senderID).
		Where("recipientId", "==", recipientID).
		Where("isRead", "==", false))
}

func (r *firestoreMessageRepository) collect(ctx context.Context, query firestore.Query) ([]*entity.Message, error) {
	iter := query.Documents(ctx)
	defer iter.Stop()

	var messages []*entity.Message
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			logger.Error("Firestore error while iterating messages: %v", err)
			return nil, errors.Internal("Failed to iterate messages", err)
		}

		var message entity.Message
		if err := doc.DataTo(&message); err != nil {
			return nil, errors.Internal("Failed to parse message data", err)
		}
		messages = append(messages, &message)
	}

	return messages, nil
}
