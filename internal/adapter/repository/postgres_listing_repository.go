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

type postgresListingRepository struct {
	db *gorm.DB
}

func NewPostgresListingRepository(db *gorm.DB) repository.ListingRepository {
	return &postgresListingRepository{db: db}
}

func (r *postgresListingRepository) Create(ctx context.Context, listing *entity.Listing) error {
	if err := r.db.WithContext(ctx).Create(listing).Error; err != nil {
		if stderrors.Is(err, gorm.ErrDuplicatedKey) {
			return errors.Conflict("listing already exists")
		}
		return errors.Internal("Failed to create listing", err)
	}
	return nil
}

func (r *postgresListingRepository) GetByID(ctx context.Context, id string) (*entity.Listing, error) {
	var listing entity.Listing
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&listing).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("Listing", err)
		}
		return nil, errors.Internal("Failed to get listing", err)
	}
	return &listing, nil
}

// UpdateIf locks the row with SELECT ... FOR UPDATE for the duration of the mutation.
func (r *postgresListingRepository) UpdateIf(ctx context.Context, id string, mutate repository.ListingMutation) (*entity.Listing, error) {
	var updated entity.Listing
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&updated).Error; err != nil {
			if stderrors.Is(err, gorm.ErrRecordNotFound) {
				return errors.NotFound("Listing", err)
			}
			return err
		}

		if err := mutate(&updated); err != nil {
			return err
		}
		return tx.Save(&updated).Error
	})
	if err != nil {
		return nil, asAppError(err, "Failed to update listing")
	}
	return &updated, nil
}

func (r *postgresListingRepository) DeleteIf(ctx context.Context, id string, guard func(*entity.Listing) error) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var listing entity.Listing
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&listing).Error; err != nil {
			if stderrors.Is(err, gorm.ErrRecordNotFound) {
				return errors.NotFound("Listing", err)
			}
			return err
		}

		if err := guard(&listing); err != nil {
			return err
		}
		return tx.Delete(&entity.Listing{}, "id = ?", id).Error
	})
	return asAppError(err, "Failed to delete listing")
}

func (r *postgresListingRepository) List(ctx context.Context, filter entity.ListingFilter) ([]*entity.Listing, error) {
	query := r.db.WithContext(ctx).Model(&entity.Listing{})

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.DonorID != "" {
		query = query.Where("donor_id = ?", filter.DonorID)
	}
	if filter.ClaimedBy != "" {
		query = query.Where("claimed_by = ?", filter.ClaimedBy)
	}
	if !filter.ExpiringBefore.IsZero() {
		query = query.Where("expiry_date <= ?", filter.ExpiringBefore)
	}

	var listings []*entity.Listing
	if err := query.Order("created_at DESC").Order("id ASC").Find(&listings).Error; err != nil {
		return nil, errors.Internal("Failed to list listings", err)
	}
	return listings, nil
}

func (r *postgresListingRepository) ListClaimedBy(ctx context.Context, userID string) ([]*entity.Listing, error) {
	var listings []*entity.Listing
	if err := r.db.WithContext(ctx).
		Where("claimed_by = ?", userID).
		Order("claimed_at DESC").
		Find(&listings).Error; err != nil {
		return nil, errors.Internal("Failed to list claimed listings", err)
	}
	return listings, nil
}
