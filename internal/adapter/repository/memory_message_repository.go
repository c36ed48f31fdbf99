package repository

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"foodshare/internal/domain/entity"
	"foodshare/internal/domain/repository"
	"foodshare/pkg/errors"
)

type memoryMessageRepository struct {
	mu       sync.RWMutex
	messages map[string]*entity.Message
	// order keeps ids in insertion order so reads are stable.
	order []string
}

func NewMemoryMessageRepository() repository.MessageRepository {
	return &memoryMessageRepository{
		messages: make(map[string]*entity.Message),
	}
}

func (r *memoryMessageRepository) Create(_ context.Context, message *entity.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if message.ID == "" {
		message.ID = uuid.New().String()
	}
	copied := *message
	r.messages[message.ID] = &copied
	r.order = append(r.order, message.ID)
	return nil
}

func (r *memoryMessageRepository) GetByID(_ context.Context, id string) (*entity.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.messages[id]
	if !ok {
		return nil, errors.NotFound("Message", nil)
	}
	copied := *m
	return &copied, nil
}

func (r *memoryMessageRepository) MarkRead(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.messages[id]
	if !ok {
		return errors.NotFound("Message", nil)
	}
	m.IsRead = true
	return nil
}

func (r *memoryMessageRepository) ListBetween(_ context.Context, userA, userB string) ([]*entity.Message, error) {
	return r.collect(func(m *entity.Message) bool {
		return (m.SenderID == userA && m.RecipientID == userB) ||
			(m.SenderID == userB && m.RecipientID == userA)
	}), nil
}

func (r *memoryMessageRepository) ListByUser(_ context.Context, userID string) ([]*entity.Message, error) {
	return r.collect(func(m *entity.Message) bool {
		return m.Involves(userID)
	}), nil
}

func (r *memoryMessageRepository) ListUnread(_ context.Context, senderID, recipientID string) ([]*entity.Message, error) {
	return r.collect(func(m *entity.Message) bool {
		return m.SenderID == senderID && m.RecipientID == recipientID && !m.IsRead
	}), nil
}

func (r *memoryMessageRepository) collect(match func(*entity.Message) bool) []*entity.Message {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*entity.Message
	for _, id := range r.order {
		m := r.messages[id]
		if match(m) {
			copied := *m
			out = append(out, &copied)
		}
	}
	return out
}
