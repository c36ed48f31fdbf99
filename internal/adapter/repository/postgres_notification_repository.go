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

type postgresNotificationRepository struct {
	db *gorm.DB
}

func NewPostgresNotificationRepository(db *gorm.DB) repository.NotificationRepository {
	return &postgresNotificationRepository{db: db}
}

func (r *postgresNotificationRepository) Create(ctx context.Context, notification *entity.Notification) error {
	if notification.ID == "" {
		notification.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(notification).Error; err != nil {
		return errors.Internal("Failed to create notification", err)
	}
	return nil
}

func (r *postgresNotificationRepository) GetByID(ctx context.Context, id string) (*entity.Notification, error) {
	var notification entity.Notification
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&notification).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("Notification", err)
		}
		return nil, errors.Internal("Failed to get notification", err)
	}
	return &notification, nil
}

func (r *postgresNotificationRepository) ListByRecipient(ctx context.Context, recipientID string, limit, offset int) ([]*entity.Notification, int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&entity.Notification{}).
		Where("recipient_id = ?", recipientID).
		Count(&count).Error; err != nil {
		return nil, 0, errors.Internal("Failed to count notifications", err)
	}

	query := r.db.WithContext(ctx).
		Where("recipient_id = ?", recipientID).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	notifications := []*entity.Notification{}
	if err := query.Find(&notifications).Error; err != nil {
		return nil, 0, errors.Internal("Failed to list notifications", err)
	}
	return notifications, count, nil
}

func (r *postgresNotificationRepository) CountUnread(ctx context.Context, recipientID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&entity.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Count(&count).Error; err != nil {
		return 0, errors.Internal("Failed to count unread notifications", err)
	}
	return count, nil
}

func (r *postgresNotificationRepository) MarkRead(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Model(&entity.Notification{}).Where("id = ?", id).Update("is_read", true)
	if result.Error != nil {
		return errors.Internal("Failed to mark notification as read", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.NotFound("Notification", nil)
	}
	return nil
}

func (r *postgresNotificationRepository) MarkAllRead(ctx context.Context, recipientID string) (int, error) {
	result := r.db.WithContext(ctx).
		Model(&entity.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Update("is_read", true)
	if result.Error != nil {
		return 0, errors.Internal("Failed to mark notifications as read", result.Error)
	}
	return int(result.RowsAffected), nil
}

func (r *postgresNotificationRepository) Delete(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Delete(&entity.Notification{}, "id = ?", id).Error; err != nil {
		return errors.Internal("Failed to delete notification", err)
	}
	return nil
}
