package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"foodshare/internal/domain/entity"
	"foodshare/internal/domain/repository"
	"foodshare/pkg/errors"
)

// memoryListingRepository keeps listings in a map guarded by one mutex; holding
// the write lock across read-mutate-write gives UpdateIf its atomicity.
type memoryListingRepository struct {
	mu       sync.RWMutex
	listings map[string]*entity.Listing
}

func NewMemoryListingRepository() repository.ListingRepository {
	return &memoryListingRepository{
		listings: make(map[string]*entity.Listing),
	}
}

func (r *memoryListingRepository) Create(_ context.Context, listing *entity.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if listing.ID == "" {
		listing.ID = uuid.New().String()
	}
	if _, exists := r.listings[listing.ID]; exists {
		return errors.Conflict("listing already exists")
	}
	r.listings[listing.ID] = listing.Clone()
	return nil
}

func (r *memoryListingRepository) GetByID(_ context.Context, id string) (*entity.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	listing, ok := r.listings[id]
	if !ok {
		return nil, errors.NotFound("Listing", nil)
	}
	return listing.Clone(), nil
}

func (r *memoryListingRepository) UpdateIf(_ context.Context, id string, mutate repository.ListingMutation) (*entity.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.listings[id]
	if !ok {
		return nil, errors.NotFound("Listing", nil)
	}

	next := current.Clone()
	if err := mutate(next); err != nil {
		return nil, err
	}
	r.listings[id] = next
	return next.Clone(), nil
}

func (r *memoryListingRepository) DeleteIf(_ context.Context, id string, guard func(*entity.Listing) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.listings[id]
	if !ok {
		return errors.NotFound("Listing", nil)
	}
	if err := guard(current.Clone()); err != nil {
		return err
	}
	delete(r.listings, id)
	return nil
}

func (r *memoryListingRepository) List(_ context.Context, filter entity.ListingFilter) ([]*entity.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*entity.Listing
	for _, l := range r.listings {
		if filter.Status != "" && l.Status != filter.Status {
			continue
		}
		if filter.Category != "" && l.Category != filter.Category {
			continue
		}
		if filter.DonorID != "" && l.DonorID != filter.DonorID {
			continue
		}
		if filter.ClaimedBy != "" && !l.ClaimedByUser(filter.ClaimedBy) {
			continue
		}
		if !filter.ExpiringBefore.IsZero() && l.ExpiryDate.After(filter.ExpiringBefore) {
			continue
		}
		out = append(out, l.Clone())
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *memoryListingRepository) ListClaimedBy(ctx context.Context, userID string) ([]*entity.Listing, error) {
	out, err := r.List(ctx, entity.ListingFilter{ClaimedBy: userID})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ClaimedAt.After(*out[j].ClaimedAt)
	})
	return out, nil
}
