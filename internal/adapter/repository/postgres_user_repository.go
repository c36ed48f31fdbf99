package repository

import (
	"context"
	stderrors "errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"foodshare/internal/domain/entity"
	"foodshare/internal/domain/repository"
	"foodshare/pkg/errors"
)

type postgresUserRepository struct {
	db *gorm.DB
}

func NewPostgresUserRepository(db *gorm.DB) repository.UserRepository {
	return &postgresUserRepository{db: db}
}

// profileColumns are overwritten on upsert; rating totals are left alone.
var profileColumns = []string{
	"email", "display_name", "photo_url", "phone_number", "user_type",
	"bio", "address", "latitude", "longitude", "updated_at",
}

func (r *postgresUserRepository) Upsert(ctx context.Context, user *entity.User) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns(profileColumns),
	}).Create(user).Error
	if err != nil {
		return errors.Internal("Failed to save user", err)
	}
	return nil
}

func (r *postgresUserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	var user entity.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("User", err)
		}
		return nil, errors.Internal("Failed to get user", err)
	}
	return &user, nil
}

func (r *postgresUserRepository) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&entity.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, errors.Internal("Failed to check user", err)
	}
	return count > 0, nil
}

func (r *postgresUserRepository) ListRecipientIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := r.db.WithContext(ctx).
		Model(&entity.User{}).
		Where("user_type IN ?", []entity.UserType{entity.UserTypeRecipient, entity.UserTypeBoth}).
		Order("id ASC").
		Pluck("id", &ids).Error; err != nil {
		return nil, errors.Internal("Failed to list recipients", err)
	}
	return ids, nil
}

func (r *postgresUserRepository) AddRating(ctx context.Context, rating *entity.Rating) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&entity.Rating{}).Where("id = ?", rating.ID).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return errors.Conflict("listing already rated")
		}

		if err := tx.Create(rating).Error; err != nil {
			if stderrors.Is(err, gorm.ErrDuplicatedKey) {
				return errors.Conflict("listing already rated")
			}
			return err
		}

		result := tx.Model(&entity.User{}).Where("id = ?", rating.TargetID).Updates(map[string]interface{}{
			"ratings_total": gorm.Expr("ratings_total + ?", rating.Score),
			"rating_count":  gorm.Expr("rating_count + ?", 1),
		})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return errors.NotFound("User", nil)
		}
		return nil
	})
	return asAppError(err, "Failed to add rating")
}
