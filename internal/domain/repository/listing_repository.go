package repository

import (
	"context"

	"foodshare/internal/domain/entity"
)

// ListingMutation inspects a freshly read listing and mutates it in place.
// Returning an error aborts the write and the error is passed through unchanged.
type ListingMutation func(listing *entity.Listing) error

type ListingRepository interface {
	Create(ctx context.Context, listing *entity.Listing) error
	GetByID(ctx context.Context, id string) (*entity.Listing, error)

	// UpdateIf reads the listing, applies mutate and writes the result as one
	// atomic step. Concurrent UpdateIf calls on the same id are serialised, so a
	// guard inside mutate (e.g. status == available) behaves as compare-and-swap.
	UpdateIf(ctx context.Context, id string, mutate ListingMutation) (*entity.Listing, error)

	// DeleteIf removes the listing when guard accepts the current state.
	DeleteIf(ctx context.Context, id string, guard func(listing *entity.Listing) error) error

	// List returns matching listings ordered by createdAt descending.
	List(ctx context.Context, filter entity.ListingFilter) ([]*entity.Listing, error)
	// ListClaimedBy returns listings claimed by userID ordered by claimedAt descending.
	ListClaimedBy(ctx context.Context, userID string) ([]*entity.Listing, error)
}
