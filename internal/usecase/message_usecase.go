package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"foodshare/internal/domain/entity"
	"foodshare/internal/domain/repository"
	"foodshare/internal/infrastructure/metrics"
	"foodshare/internal/infrastructure/ratelimit"
	"foodshare/pkg/errors"
	"foodshare/pkg/logger"
)

const maxMessageLength = 2000

type MessageUseCase struct {
	messageRepo   repository.MessageRepository
	userRepo      repository.UserRepository
	notifications *NotificationUseCase
	limiter       *ratelimit.RateLimiter
	metrics       metrics.Recorder
	now           func() time.Time

	seqMu   sync.Mutex
	lastSeq int64
}

func NewMessageUseCase(
	messageRepo repository.MessageRepository,
	userRepo repository.UserRepository,
	notifications *NotificationUseCase,
	limiter *ratelimit.RateLimiter,
	recorder metrics.Recorder,
) *MessageUseCase {
	if recorder == nil {
		recorder = metrics.Noop{}
	}
	return &MessageUseCase{
		messageRepo:   messageRepo,
		userRepo:      userRepo,
		notifications: notifications,
		limiter:       limiter,
		metrics:       recorder,
		now:           time.Now,
	}
}

type SendMessageInput struct {
	RecipientID string `json:"recipient_id" validate:"required"`
	Content     string `json:"content" validate:"required"`
	ListingID   string `json:"listing_id,omitempty"`
}

func (uc *MessageUseCase) Send(ctx context.Context, actor entity.Actor, input SendMessageInput) (*entity.Message, error) {
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, errors.Validation("message content cannot be empty")
	}
	if utf8.RuneCountInString(content) > maxMessageLength {
		return nil, errors.Validation(fmt.Sprintf("message content exceeds %d characters", maxMessageLength))
	}
	if input.RecipientID == "" {
		return nil, errors.Validation("recipient is required")
	}
	if input.RecipientID == actor.ID {
		return nil, errors.Validation("you cannot message yourself")
	}

	if uc.limiter != nil {
		if ok, wait := uc.limiter.Allow(actor.ID, ratelimit.ActionSendMessage); !ok {
			uc.metrics.RecordRateLimited(ratelimit.ActionSendMessage)
			return nil, errors.TooManyRequests(fmt.Sprintf("Too many messages, try again in %s", wait.Round(time.Second)))
		}
	}

	exists, err := uc.userRepo.Exists(ctx, input.RecipientID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, errors.NotFound("Recipient", nil)
	}

	now := uc.now()
	message := &entity.Message{
		ID:          uuid.New().String(),
		SenderID:    actor.ID,
		RecipientID: input.RecipientID,
		Content:     content,
		CreatedAt:   now,
		Sequence:    uc.nextSequence(now),
		IsRead:      false,
		ListingID:   input.ListingID,
	}

	if err := uc.messageRepo.Create(ctx, message); err != nil {
		return nil, err
	}
	uc.metrics.RecordMessageSent()

	if uc.notifications != nil {
		uc.notifications.notifyBestEffort(ctx, NotifyInput{
			RecipientID:   message.RecipientID,
			Title:         "New Message",
			Message:       fmt.Sprintf("New message from %s", displayName(actor)),
			Type:          entity.NotificationMessage,
			RelatedItemID: message.ID,
			SenderID:      actor.ID,
		})
	}

	return message, nil
}

// MarkRead is idempotent; only the recipient may mark a message read.
func (uc *MessageUseCase) MarkRead(ctx context.Context, actor entity.Actor, messageID string) error {
	message, err := uc.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	if message.RecipientID != actor.ID {
		return errors.Forbidden("Only the recipient can mark a message as read", nil)
	}
	if message.IsRead {
		return nil
	}
	return uc.messageRepo.MarkRead(ctx, messageID)
}

// Thread returns the conversation between two users, oldest first.
func (uc *MessageUseCase) Thread(ctx context.Context, userA, userB string) ([]*entity.Message, error) {
	messages, err := uc.messageRepo.ListBetween(ctx, userA, userB)
	if err != nil {
		return nil, err
	}
	sortThread(messages)
	return messages, nil
}

func (uc *MessageUseCase) ForUser(ctx context.Context, userID string) ([]*entity.Message, error) {
	return uc.messageRepo.ListByUser(ctx, userID)
}

// Conversations summarises every partner the user has exchanged messages with.
// Public partner profiles are attached when they can be loaded.
func (uc *MessageUseCase) Conversations(ctx context.Context, userID string) ([]entity.ConversationSummary, error) {
	messages, err := uc.messageRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	summaries := AggregateConversations(userID, messages)
	for i := range summaries {
		partner, err := uc.userRepo.GetByID(ctx, summaries[i].PartnerID)
		if err != nil {
			if !errors.Is(err, errors.CodeNotFound) {
				logger.Warn("Failed to load conversation partner %s: %v", summaries[i].PartnerID, err)
			}
			continue
		}
		summaries[i].Partner = partner.Public()
	}

	return summaries, nil
}

// MarkConversationRead marks every unread message from partnerID to the actor
// as read and returns how many changed.
func (uc *MessageUseCase) MarkConversationRead(ctx context.Context, actor entity.Actor, partnerID string) (int, error) {
	unread, err := uc.messageRepo.ListUnread(ctx, partnerID, actor.ID)
	if err != nil {
		return 0, err
	}

	marked := 0
	for _, m := range unread {
		if err := uc.messageRepo.MarkRead(ctx, m.ID); err != nil {
			return marked, err
		}
		marked++
	}
	return marked, nil
}

// nextSequence is strictly increasing within the process and tracks wall time
// across restarts.
func (uc *MessageUseCase) nextSequence(now time.Time) int64 {
	uc.seqMu.Lock()
	defer uc.seqMu.Unlock()

	seq := now.UnixNano()
	if seq <= uc.lastSeq {
		seq = uc.lastSeq + 1
	}
	uc.lastSeq = seq
	return seq
}
