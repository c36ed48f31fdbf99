package repository

import (
	"context"
	"sort"
	"sync"

	"foodshare/internal/domain/entity"
	"foodshare/internal/domain/repository"
	"foodshare/pkg/errors"
)

type memoryUserRepository struct {
	mu      sync.RWMutex
	users   map[string]*entity.User
	ratings map[string]*entity.Rating
}

func NewMemoryUserRepository() repository.UserRepository {
	return &memoryUserRepository{
		users:   make(map[string]*entity.User),
		ratings: make(map[string]*entity.Rating),
	}
}

func (r *memoryUserRepository) Upsert(_ context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *user
	copied.RatingsTotal, copied.RatingCount = 0, 0
	if existing, ok := r.users[user.ID]; ok {
		copied.RatingsTotal = existing.RatingsTotal
		copied.RatingCount = existing.RatingCount
		copied.CreatedAt = existing.CreatedAt
	}
	r.users[user.ID] = &copied
	return nil
}

func (r *memoryUserRepository) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, errors.NotFound("User", nil)
	}
	copied := *u
	return &copied, nil
}

func (r *memoryUserRepository) Exists(_ context.Context, id string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.users[id]
	return ok, nil
}

func (r *memoryUserRepository) ListRecipientIDs(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var ids []string
	for _, u := range r.users {
		if u.IsRecipient() {
			ids = append(ids, u.ID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *memoryUserRepository) AddRating(_ context.Context, rating *entity.Rating) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	target, ok := r.users[rating.TargetID]
	if !ok {
		return errors.NotFound("User", nil)
	}
	if _, dup := r.ratings[rating.ID]; dup {
		return errors.Conflict("listing already rated")
	}

	copied := *rating
	r.ratings[rating.ID] = &copied
	target.RatingsTotal += rating.Score
	target.RatingCount++
	return nil
}
