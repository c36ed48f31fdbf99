package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"foodshare/internal/domain/entity"
	"foodshare/internal/domain/repository"
	"foodshare/internal/infrastructure/metrics"
	"foodshare/pkg/errors"
	"foodshare/pkg/logger"
)

type NotificationUseCase struct {
	notificationRepo repository.NotificationRepository
	userRepo         repository.UserRepository
	metrics          metrics.Recorder
	concurrency      int
	now              func() time.Time
}

func NewNotificationUseCase(
	notificationRepo repository.NotificationRepository,
	userRepo repository.UserRepository,
	recorder metrics.Recorder,
	concurrency int,
) *NotificationUseCase {
	if recorder == nil {
		recorder = metrics.Noop{}
	}
	if concurrency <= 0 {
		concurrency = 8
	}
	return &NotificationUseCase{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		metrics:          recorder,
		concurrency:      concurrency,
		now:              time.Now,
	}
}

type NotifyInput struct {
	RecipientID   string
	Title         string
	Message       string
	Type          entity.NotificationType
	RelatedItemID string
	SenderID      string
}

// FanOutFailure names one recipient whose notification could not be written.
type FanOutFailure struct {
	RecipientID string
	Err         error
}

type FanOutResult struct {
	Sent     int
	Failed   int
	Failures []FanOutFailure
}

// Notify writes one notification. The recipient must be a known user.
func (uc *NotificationUseCase) Notify(ctx context.Context, input NotifyInput) (*entity.Notification, error) {
	if strings.TrimSpace(input.RecipientID) == "" {
		return nil, errors.Validation("recipient is required")
	}
	if !input.Type.Valid() {
		return nil, errors.Validation(fmt.Sprintf("unknown notification type %q", input.Type))
	}

	exists, err := uc.userRepo.Exists(ctx, input.RecipientID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, errors.NotFound("Recipient", nil)
	}

	notification := uc.build(input)
	if err := uc.notificationRepo.Create(ctx, notification); err != nil {
		return nil, err
	}

	uc.metrics.RecordNotification(string(notification.Type))
	return notification, nil
}

// notifyBestEffort is used for side effects of other operations: a failed
// notification is logged and never fails the caller.
func (uc *NotificationUseCase) notifyBestEffort(ctx context.Context, input NotifyInput) {
	if _, err := uc.Notify(ctx, input); err != nil {
		logger.Warn("Failed to notify %s (%s): %v", input.RecipientID, input.Type, err)
	}
}

// FanOutNewListing writes a new-listing notification for each recipient in
// parallel. Every write is attempted; failures are collected, not returned.
func (uc *NotificationUseCase) FanOutNewListing(ctx context.Context, listing *entity.Listing, recipientIDs []string) FanOutResult {
	var (
		mu     sync.Mutex
		result FanOutResult
	)

	var g errgroup.Group
	g.SetLimit(uc.concurrency)

	for _, recipientID := range recipientIDs {
		recipientID := recipientID
		g.Go(func() error {
			notification := uc.build(newListingNotification(listing, recipientID))
			err := uc.notificationRepo.Create(ctx, notification)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Failed++
				result.Failures = append(result.Failures, FanOutFailure{RecipientID: recipientID, Err: err})
				return nil
			}
			result.Sent++
			return nil
		})
	}
	g.Wait()

	uc.metrics.RecordFanOut(result.Sent, result.Failed)
	if result.Failed > 0 {
		logger.With("listing_id", listing.ID, "sent", result.Sent, "failed", result.Failed).
			Warn("new listing fan-out finished with failures")
	}
	return result
}

// NotifyRecipientsOfNewListing fans out to every recipient except the donor.
func (uc *NotificationUseCase) NotifyRecipientsOfNewListing(ctx context.Context, listing *entity.Listing) (FanOutResult, error) {
	ids, err := uc.userRepo.ListRecipientIDs(ctx)
	if err != nil {
		return FanOutResult{}, err
	}

	recipients := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != listing.DonorID {
			recipients = append(recipients, id)
		}
	}

	return uc.FanOutNewListing(ctx, listing, recipients), nil
}

func (uc *NotificationUseCase) List(ctx context.Context, actor entity.Actor, limit, offset int) ([]*entity.Notification, int64, error) {
	return uc.notificationRepo.ListByRecipient(ctx, actor.ID, limit, offset)
}

func (uc *NotificationUseCase) UnreadCount(ctx context.Context, actor entity.Actor) (int64, error) {
	return uc.notificationRepo.CountUnread(ctx, actor.ID)
}

func (uc *NotificationUseCase) MarkRead(ctx context.Context, actor entity.Actor, id string) error {
	if _, err := uc.owned(ctx, actor, id); err != nil {
		return err
	}
	return uc.notificationRepo.MarkRead(ctx, id)
}

func (uc *NotificationUseCase) MarkAllRead(ctx context.Context, actor entity.Actor) (int, error) {
	return uc.notificationRepo.MarkAllRead(ctx, actor.ID)
}

func (uc *NotificationUseCase) Delete(ctx context.Context, actor entity.Actor, id string) error {
	if _, err := uc.owned(ctx, actor, id); err != nil {
		return err
	}
	return uc.notificationRepo.Delete(ctx, id)
}

func (uc *NotificationUseCase) owned(ctx context.Context, actor entity.Actor, id string) (*entity.Notification, error) {
	notification, err := uc.notificationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if notification.RecipientID != actor.ID {
		return nil, errors.Forbidden("You can only manage your own notifications", nil)
	}
	return notification, nil
}

func (uc *NotificationUseCase) build(input NotifyInput) *entity.Notification {
	return &entity.Notification{
		ID:            uuid.New().String(),
		RecipientID:   input.RecipientID,
		Title:         input.Title,
		Message:       input.Message,
		Type:          input.Type,
		RelatedItemID: input.RelatedItemID,
		SenderID:      input.SenderID,
		IsRead:        false,
		CreatedAt:     uc.now(),
	}
}

func newListingNotification(listing *entity.Listing, recipientID string) NotifyInput {
	return NotifyInput{
		RecipientID:   recipientID,
		Title:         "New Food Available",
		Message:       fmt.Sprintf("New %s listing: %s", listing.Category, listing.Title),
		Type:          entity.NotificationNewListing,
		RelatedItemID: listing.ID,
		SenderID:      listing.DonorID,
	}
}
