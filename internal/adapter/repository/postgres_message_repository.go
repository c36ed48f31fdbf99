package repository

import (
	"context"
	stderrors "errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"foodshare/internal/domain/entity"
	"foodshare/internal/domain/repository"
	"foodshare/pkg/errors"
)

type postgresMessageRepository struct {
	db *gorm.DB
}

func NewPostgresMessageRepository(db *gorm.DB) repository.MessageRepository {
	return &postgresMessageRepository{db: db}
}

func (r *postgresMessageRepository) Create(ctx context.Context, message *entity.Message) error {
	if message.ID == "" {
		message.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(message).Error; err != nil {
		return errors.Internal("Failed to create message", err)
	}
	return nil
}

func (r *postgresMessageRepository) GetByID(ctx context.Context, id string) (*entity.Message, error) {
	var message entity.Message
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&message).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("Message", err)
		}
		return nil, errors.Internal("Failed to get message", err)
	}
	return &message, nil
}

func (r *postgresMessageRepository) MarkRead(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Model(&entity.Message{}).Where("id = ?", id).Update("is_read", true)
	if result.Error != nil {
		return errors.Internal("Failed to update message read status", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.NotFound("Message", nil)
	}
	return nil
}

func (r *postgresMessageRepository) ListBetween(ctx context.Context, userA, userB string) ([]*entity.Message, error) {
	var messages []*entity.Message
	if err := r.db.WithContext(ctx).
		Where("(sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)", userA, userB, userB, userA).
		Order("created_at ASC").
		Order("sequence ASC").
		Find(&messages).Error; err != nil {
		return nil, errors.Internal("Failed to list messages", err)
	}
	return messages, nil
}

func (r *postgresMessageRepository) ListByUser(ctx context.Context, userID string) ([]*entity.Message, error) {
	var messages []*entity.Message
	if err := r.db.WithContext(ctx).
		Where("sender_id = ? OR recipient_id = ?", userID, userID).
		Order("created_at ASC").
		Order("sequence ASC").
		Find(&messages).Error; err != nil {
		return nil, errors.Internal("Failed to list messages", err)
	}
	return messages, nil
}

func (r *postgresMessageRepository) ListUnread(ctx context.Context, senderID, recipientID string) ([]*entity.Message, error) {
	var messages []*entity.Message
	if err := r.db.WithContext(ctx).
		Where("sender_id = ? AND recipient_id = ? AND is_read = ?", senderID, recipientID, false).
		Find(&messages).Error; err != nil {
		return nil, errors.Internal("Failed to list unread messages", err)
	}
	return messages, nil
}
