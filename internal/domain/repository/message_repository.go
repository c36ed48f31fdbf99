package repository

import (
	"context"

	"foodshare/internal/domain/entity"
)

type MessageRepository interface {
	Create(ctx context.Context, message *entity.Message) error
	GetByID(ctx context.Context, id string) (*entity.Message, error)
	MarkRead(ctx context.Context, id string) error

	// ListBetween returns every message exchanged by the two users, in either direction.
	ListBetween(ctx context.Context, userA, userB string) ([]*entity.Message, error)
	// ListByUser returns every message the user sent or received.
	ListByUser(ctx context.Context, userID string) ([]*entity.Message, error)
	// ListUnread returns unread messages from senderID to recipientID.
	ListUnread(ctx context.Context, senderID, recipientID string) ([]*entity.Message, error)
}
