package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	memrepo "foodshare/internal/adapter/repository"
	"foodshare/internal/domain/entity"
	"foodshare/internal/domain/repository"
)

var baseTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	listings      repository.ListingRepository
	messages      repository.MessageRepository
	notifications repository.NotificationRepository
	users         repository.UserRepository

	notify  *NotificationUseCase
	listing *ListingUseCase
	message *MessageUseCase
	user    *UserUseCase

	clock time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		listings:      memrepo.NewMemoryListingRepository(),
		messages:      memrepo.NewMemoryMessageRepository(),
		notifications: memrepo.NewMemoryNotificationRepository(),
		users:         memrepo.NewMemoryUserRepository(),
		clock:         baseTime,
	}

	f.notify = NewNotificationUseCase(f.notifications, f.users, nil, 4)
	f.listing = NewListingUseCase(f.listings, f.notify, nil, nil, nil)
	f.message = NewMessageUseCase(f.messages, f.users, f.notify, nil, nil)
	f.user = NewUserUseCase(f.users, f.listings, nil)

	f.notify.now = f.now
	f.listing.now = f.now
	f.message.now = f.now
	f.user.now = f.now

	return f
}

func (f *fixture) now() time.Time { return f.clock }

func (f *fixture) advance(d time.Duration) { f.clock = f.clock.Add(d) }

func (f *fixture) addUser(t *testing.T, id, name string, userType entity.UserType) entity.Actor {
	t.Helper()
	u := &entity.User{
		ID:          id,
		DisplayName: name,
		UserType:    userType,
		CreatedAt:   f.clock,
		UpdatedAt:   f.clock,
	}
	require.NoError(t, f.users.Upsert(context.Background(), u))
	return entity.ActorFromUser(u)
}

func (f *fixture) createListing(t *testing.T, donor entity.Actor, title string, category entity.Category, lat, lng float64) *entity.Listing {
	t.Helper()
	l, err := f.listing.Create(context.Background(), donor, CreateListingInput{
		Title:       title,
		Description: title + " from the corner bakery",
		Category:    category,
		Quantity:    5,
		Unit:        "loaves",
		ExpiryDate:  f.clock.Add(72 * time.Hour),
		Latitude:    &lat,
		Longitude:   &lng,
	})
	require.NoError(t, err)
	return l
}

func (f *fixture) notificationsFor(t *testing.T, userID string) []*entity.Notification {
	t.Helper()
	items, _, err := f.notifications.ListByRecipient(context.Background(), userID, 0, 0)
	require.NoError(t, err)
	return items
}

func ptr[T any](v T) *T { return &v }
