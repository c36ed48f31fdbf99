package repository

import (
	"context"

	"foodshare/internal/domain/entity"
)

type UserRepository interface {
	Upsert(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	Exists(ctx context.Context, id string) (bool, error)
	// ListRecipientIDs returns ids of users whose type is recipient or both.
	ListRecipientIDs(ctx context.Context) ([]string, error)

	// AddRating stores the rating and adds its score to the target's totals
	// atomically. A second rating with the same ID fails with CONFLICT.
	AddRating(ctx context.Context, rating *entity.Rating) error
}
