package usecase

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"foodshare/internal/domain/entity"
	"foodshare/internal/domain/repository"
	"foodshare/internal/domain/service"
	"foodshare/internal/infrastructure/metrics"
	"foodshare/internal/infrastructure/ratelimit"
	"foodshare/pkg/errors"
	"foodshare/pkg/geo"
	"foodshare/pkg/logger"
)

type ListingUseCase struct {
	listingRepo   repository.ListingRepository
	notifications *NotificationUseCase
	geocoder      service.Geocoder
	limiter       *ratelimit.RateLimiter
	metrics       metrics.Recorder
	now           func() time.Time
}

// NewListingUseCase wires the listing lifecycle. geocoder and limiter are optional.
func NewListingUseCase(
	listingRepo repository.ListingRepository,
	notifications *NotificationUseCase,
	geocoder service.Geocoder,
	limiter *ratelimit.RateLimiter,
	recorder metrics.Recorder,
) *ListingUseCase {
	if recorder == nil {
		recorder = metrics.Noop{}
	}
	return &ListingUseCase{
		listingRepo:   listingRepo,
		notifications: notifications,
		geocoder:      geocoder,
		limiter:       limiter,
		metrics:       recorder,
		now:           time.Now,
	}
}

type CreateListingInput struct {
	Title              string          `json:"title" validate:"required,max=120"`
	Description        string          `json:"description" validate:"required,max=2000"`
	Category           entity.Category `json:"category" validate:"required"`
	Quantity           float64         `json:"quantity" validate:"gt=0"`
	Unit               string          `json:"unit" validate:"max=32"`
	ExpiryDate         time.Time       `json:"expiry_date" validate:"required"`
	Images             []string        `json:"images" validate:"max=10,dive,url"`
	Address            string          `json:"address"`
	Latitude           *float64        `json:"latitude"`
	Longitude          *float64        `json:"longitude"`
	AllergensInfo      []string        `json:"allergens_info"`
	DietaryInfo        []string        `json:"dietary_info"`
	PickupInstructions string          `json:"pickup_instructions"`
}

// UpdateListingInput is a patch of donor-owned fields; nil means unchanged.
// Status and claim fields are deliberately absent.
type UpdateListingInput struct {
	Title              *string          `json:"title" validate:"omitempty,max=120"`
	Description        *string          `json:"description" validate:"omitempty,max=2000"`
	Category           *entity.Category `json:"category"`
	Quantity           *float64         `json:"quantity"`
	Unit               *string          `json:"unit" validate:"omitempty,max=32"`
	ExpiryDate         *time.Time       `json:"expiry_date"`
	Images             []string         `json:"images" validate:"omitempty,max=10,dive,url"`
	Address            *string          `json:"address"`
	Latitude           *float64         `json:"latitude"`
	Longitude          *float64         `json:"longitude"`
	AllergensInfo      []string         `json:"allergens_info"`
	DietaryInfo        []string         `json:"dietary_info"`
	PickupInstructions *string          `json:"pickup_instructions"`
}

func (uc *ListingUseCase) Create(ctx context.Context, actor entity.Actor, input CreateListingInput) (*entity.Listing, error) {
	if !actor.IsDonor() {
		return nil, errors.Forbidden("Only donors can create listings", nil)
	}
	if uc.limiter != nil {
		if ok, wait := uc.limiter.Allow(actor.ID, ratelimit.ActionCreateListing); !ok {
			uc.metrics.RecordRateLimited(ratelimit.ActionCreateListing)
			return nil, errors.TooManyRequests(fmt.Sprintf("Too many listings, try again in %s", wait.Round(time.Second)))
		}
	}

	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if title == "" {
		return nil, errors.Validation("title is required")
	}
	if description == "" {
		return nil, errors.Validation("description is required")
	}
	if !input.Category.Valid() {
		return nil, errors.Validation(fmt.Sprintf("unknown category %q", input.Category))
	}
	if err := validateQuantity(input.Quantity); err != nil {
		return nil, err
	}

	now := uc.now()
	if input.ExpiryDate.IsZero() || !input.ExpiryDate.After(now) {
		return nil, errors.Validation("expiry date must be in the future")
	}

	address := strings.TrimSpace(input.Address)
	lat, lng, address, err := uc.locate(ctx, address, input.Latitude, input.Longitude)
	if err != nil {
		return nil, err
	}

	listing := &entity.Listing{
		ID:                 uuid.New().String(),
		Title:              title,
		Description:        description,
		Category:           input.Category,
		Quantity:           input.Quantity,
		Unit:               strings.TrimSpace(input.Unit),
		Images:             append([]string{}, input.Images...),
		ExpiryDate:         input.ExpiryDate,
		CreatedAt:          now,
		UpdatedAt:          now,
		DonorID:            actor.ID,
		DonorName:          actor.DisplayName,
		DonorPhoto:         actor.PhotoURL,
		Status:             entity.ListingAvailable,
		Address:            address,
		Latitude:           lat,
		Longitude:          lng,
		AllergensInfo:      dedupeTags(input.AllergensInfo),
		DietaryInfo:        dedupeTags(input.DietaryInfo),
		PickupInstructions: strings.TrimSpace(input.PickupInstructions),
	}

	if err := uc.listingRepo.Create(ctx, listing); err != nil {
		return nil, err
	}

	logger.LogListingEvent(ctx, listing.ID, "create", actor.ID)
	uc.metrics.RecordListingTransition(string(entity.ListingAvailable))

	if uc.notifications != nil {
		if _, err := uc.notifications.NotifyRecipientsOfNewListing(ctx, listing); err != nil {
			logger.Warn("Failed to load recipients for listing %s: %v", listing.ID, err)
		}
	}

	return listing, nil
}

func (uc *ListingUseCase) Update(ctx context.Context, actor entity.Actor, id string, patch UpdateListingInput) (*entity.Listing, error) {
	if err := validatePatch(patch, uc.now()); err != nil {
		return nil, err
	}

	// Geocode before entering the conditional update.
	var located *geo.Point
	var address string
	if patch.Address != nil || patch.Latitude != nil || patch.Longitude != nil {
		if patch.Address != nil {
			address = strings.TrimSpace(*patch.Address)
		}
		if patch.Address != nil || (patch.Latitude != nil && patch.Longitude != nil) {
			lat, lng, resolved, err := uc.locate(ctx, address, patch.Latitude, patch.Longitude)
			if err != nil {
				return nil, err
			}
			located = &geo.Point{Latitude: lat, Longitude: lng}
			address = resolved
		} else {
			return nil, errors.Validation("latitude and longitude must be provided together")
		}
	}

	updated, err := uc.listingRepo.UpdateIf(ctx, id, func(l *entity.Listing) error {
		if l.DonorID != actor.ID {
			return errors.Forbidden("Only the donor can edit this listing", nil)
		}
		if l.Status.IsTerminal() {
			return errors.InvalidState(fmt.Sprintf("listing is %s and can no longer be edited", l.Status))
		}

		if patch.Title != nil {
			l.Title = strings.TrimSpace(*patch.Title)
		}
		if patch.Description != nil {
			l.Description = strings.TrimSpace(*patch.Description)
		}
		if patch.Category != nil {
			l.Category = *patch.Category
		}
		if patch.Quantity != nil {
			l.Quantity = *patch.Quantity
		}
		if patch.Unit != nil {
			l.Unit = strings.TrimSpace(*patch.Unit)
		}
		if patch.ExpiryDate != nil {
			l.ExpiryDate = *patch.ExpiryDate
			l.ExpiryReminderSent = false
		}
		if patch.Images != nil {
			l.Images = append([]string{}, patch.Images...)
		}
		if located != nil {
			// A moved pin without a new address drops the old one.
			l.Latitude = located.Latitude
			l.Longitude = located.Longitude
			l.Address = address
		}
		if patch.AllergensInfo != nil {
			l.AllergensInfo = dedupeTags(patch.AllergensInfo)
		}
		if patch.DietaryInfo != nil {
			l.DietaryInfo = dedupeTags(patch.DietaryInfo)
		}
		if patch.PickupInstructions != nil {
			l.PickupInstructions = strings.TrimSpace(*patch.PickupInstructions)
		}

		l.UpdatedAt = uc.now()
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.LogListingEvent(ctx, id, "update", actor.ID)
	return updated, nil
}

// Claim transitions an available listing to claimed. The status check and the
// write happen in one conditional update, so of several concurrent claimers
// exactly one wins and the rest get ALREADY_CLAIMED.
func (uc *ListingUseCase) Claim(ctx context.Context, actor entity.Actor, id string) (*entity.Listing, error) {
	if !actor.IsRecipient() {
		return nil, errors.Forbidden("Only recipients can claim listings", nil)
	}

	claimed, err := uc.listingRepo.UpdateIf(ctx, id, func(l *entity.Listing) error {
		now := uc.now()
		if l.Status == entity.ListingExpired || (l.Status == entity.ListingAvailable && l.HasPassedExpiry(now)) {
			return errors.InvalidState("listing has expired")
		}
		if l.DonorID == actor.ID {
			return errors.SelfClaim()
		}
		if l.Status != entity.ListingAvailable {
			return errors.AlreadyClaimed(l.ID)
		}

		claimer := actor.ID
		l.Status = entity.ListingClaimed
		l.ClaimedBy = &claimer
		l.ClaimedAt = &now
		l.UpdatedAt = now
		return nil
	})
	if err != nil {
		uc.metrics.RecordClaim(claimOutcome(err))
		return nil, err
	}

	uc.metrics.RecordClaim("won")
	uc.metrics.RecordListingTransition(string(entity.ListingClaimed))
	logger.LogListingEvent(ctx, id, "claim", actor.ID)

	if uc.notifications != nil {
		uc.notifications.notifyBestEffort(ctx, NotifyInput{
			RecipientID:   claimed.DonorID,
			Title:         "New Claim Request",
			Message:       fmt.Sprintf("%s wants to pick up %s", displayName(actor), claimed.Title),
			Type:          entity.NotificationClaimRequest,
			RelatedItemID: claimed.ID,
			SenderID:      actor.ID,
		})
	}

	return claimed, nil
}

// Unclaim lets the donor release a claim and put the listing back on offer.
func (uc *ListingUseCase) Unclaim(ctx context.Context, actor entity.Actor, id string) (*entity.Listing, error) {
	var formerClaimer string

	listing, err := uc.listingRepo.UpdateIf(ctx, id, func(l *entity.Listing) error {
		if l.DonorID != actor.ID {
			return errors.Forbidden("Only the donor can cancel a claim", nil)
		}
		if err := rejectExpired(l); err != nil {
			return err
		}
		if l.Status != entity.ListingClaimed {
			return errors.InvalidState(fmt.Sprintf("listing is %s, not claimed", l.Status))
		}

		formerClaimer = *l.ClaimedBy
		l.Status = entity.ListingAvailable
		l.ClaimedBy = nil
		l.ClaimedAt = nil
		l.UpdatedAt = uc.now()
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.metrics.RecordListingTransition(string(entity.ListingAvailable))
	logger.LogListingEvent(ctx, id, "unclaim", actor.ID)

	if uc.notifications != nil {
		uc.notifications.notifyBestEffort(ctx, NotifyInput{
			RecipientID:   formerClaimer,
			Title:         "Claim Cancelled",
			Message:       fmt.Sprintf("Your claim on %s was cancelled by the donor", listing.Title),
			Type:          entity.NotificationSystem,
			RelatedItemID: listing.ID,
			SenderID:      actor.ID,
		})
	}

	return listing, nil
}

// Complete marks a claimed listing as picked up. Either party may do it.
func (uc *ListingUseCase) Complete(ctx context.Context, actor entity.Actor, id string) (*entity.Listing, error) {
	listing, err := uc.listingRepo.UpdateIf(ctx, id, func(l *entity.Listing) error {
		if l.DonorID != actor.ID && !l.ClaimedByUser(actor.ID) {
			return errors.Forbidden("Only the donor or the claimer can complete this listing", nil)
		}
		if err := rejectExpired(l); err != nil {
			return err
		}
		if l.Status != entity.ListingClaimed {
			return errors.InvalidState(fmt.Sprintf("listing is %s, not claimed", l.Status))
		}

		l.Status = entity.ListingCompleted
		l.UpdatedAt = uc.now()
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.metrics.RecordListingTransition(string(entity.ListingCompleted))
	logger.LogListingEvent(ctx, id, "complete", actor.ID)

	counterparty := listing.DonorID
	if actor.ID == listing.DonorID {
		counterparty = *listing.ClaimedBy
	}
	if uc.notifications != nil {
		uc.notifications.notifyBestEffort(ctx, NotifyInput{
			RecipientID:   counterparty,
			Title:         "Pickup Completed",
			Message:       fmt.Sprintf("%s has been marked as completed", listing.Title),
			Type:          entity.NotificationClaimAccepted,
			RelatedItemID: listing.ID,
			SenderID:      actor.ID,
		})
	}

	return listing, nil
}

// Delete removes a listing. Completed and expired listings are kept as history.
func (uc *ListingUseCase) Delete(ctx context.Context, actor entity.Actor, id string) error {
	err := uc.listingRepo.DeleteIf(ctx, id, func(l *entity.Listing) error {
		if l.DonorID != actor.ID {
			return errors.Forbidden("Only the donor can delete this listing", nil)
		}
		if l.Status.IsTerminal() {
			return errors.InvalidState(fmt.Sprintf("listing is %s and cannot be deleted", l.Status))
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.LogListingEvent(ctx, id, "delete", actor.ID)
	return nil
}

func (uc *ListingUseCase) Get(ctx context.Context, id string) (*entity.Listing, error) {
	return uc.listingRepo.GetByID(ctx, id)
}

func (uc *ListingUseCase) ListByDonor(ctx context.Context, donorID string) ([]*entity.Listing, error) {
	return uc.listingRepo.List(ctx, entity.ListingFilter{DonorID: donorID})
}

func (uc *ListingUseCase) ListClaimedBy(ctx context.Context, userID string) ([]*entity.Listing, error) {
	return uc.listingRepo.ListClaimedBy(ctx, userID)
}

func (uc *ListingUseCase) ListAvailable(ctx context.Context, category *entity.Category) ([]*entity.Listing, error) {
	filter := entity.ListingFilter{Status: entity.ListingAvailable}
	if category != nil {
		filter.Category = *category
	}
	return uc.listingRepo.List(ctx, filter)
}

// Search ranks a snapshot of available listings. Listings past their expiry
// date are hidden even if the expiry job has not transitioned them yet.
func (uc *ListingUseCase) Search(ctx context.Context, query SearchQuery) ([]RankedListing, error) {
	if query.Origin != nil && !geo.ValidCoordinates(query.Origin.Latitude, query.Origin.Longitude) {
		return nil, errors.Validation("search origin is out of range")
	}
	if query.RadiusKm != nil && (*query.RadiusKm < 0 || math.IsNaN(*query.RadiusKm)) {
		return nil, errors.Validation("radius must not be negative")
	}
	if query.Category != nil && !query.Category.Valid() {
		return nil, errors.Validation(fmt.Sprintf("unknown category %q", *query.Category))
	}

	snapshot, err := uc.ListAvailable(ctx, query.Category)
	if err != nil {
		return nil, err
	}

	now := uc.now()
	live := snapshot[:0]
	for _, l := range snapshot {
		if !l.HasPassedExpiry(now) {
			live = append(live, l)
		}
	}

	return RankListings(live, query), nil
}

// ExpireDue moves available and claimed listings whose expiry date has passed
// to expired. It returns how many listings were transitioned.
func (uc *ListingUseCase) ExpireDue(ctx context.Context, now time.Time) (int, error) {
	due, err := uc.listingRepo.List(ctx, entity.ListingFilter{ExpiringBefore: now})
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, candidate := range due {
		if candidate.Status.IsTerminal() {
			continue
		}

		_, err := uc.listingRepo.UpdateIf(ctx, candidate.ID, func(l *entity.Listing) error {
			if l.Status.IsTerminal() || !l.HasPassedExpiry(now) {
				return errors.InvalidState("listing no longer due for expiry")
			}
			l.Status = entity.ListingExpired
			l.ClaimedBy = nil
			l.ClaimedAt = nil
			l.UpdatedAt = now
			return nil
		})
		if err != nil {
			if errors.Is(err, errors.CodeInvalidState) || errors.Is(err, errors.CodeNotFound) {
				continue
			}
			logger.Error("Failed to expire listing %s: %v", candidate.ID, err)
			continue
		}

		expired++
		uc.metrics.RecordListingTransition(string(entity.ListingExpired))
		logger.LogListingEvent(ctx, candidate.ID, "expire", "system")
	}

	return expired, nil
}

// RemindExpiring notifies donors once about available listings that expire
// within window. It returns how many reminders were sent.
func (uc *ListingUseCase) RemindExpiring(ctx context.Context, now time.Time, window time.Duration) (int, error) {
	soon, err := uc.listingRepo.List(ctx, entity.ListingFilter{
		Status:         entity.ListingAvailable,
		ExpiringBefore: now.Add(window),
	})
	if err != nil {
		return 0, err
	}

	reminded := 0
	for _, candidate := range soon {
		if candidate.ExpiryReminderSent || candidate.HasPassedExpiry(now) {
			continue
		}

		listing, err := uc.listingRepo.UpdateIf(ctx, candidate.ID, func(l *entity.Listing) error {
			if l.Status != entity.ListingAvailable || l.ExpiryReminderSent {
				return errors.InvalidState("reminder not applicable")
			}
			l.ExpiryReminderSent = true
			return nil
		})
		if err != nil {
			if !errors.Is(err, errors.CodeInvalidState) && !errors.Is(err, errors.CodeNotFound) {
				logger.Error("Failed to flag expiry reminder for listing %s: %v", candidate.ID, err)
			}
			continue
		}

		if uc.notifications != nil {
			uc.notifications.notifyBestEffort(ctx, NotifyInput{
				RecipientID:   listing.DonorID,
				Title:         "Listing Expiring Soon",
				Message:       fmt.Sprintf("%s expires in %s", listing.Title, humanizeDuration(listing.ExpiryDate.Sub(now))),
				Type:          entity.NotificationExpiryReminder,
				RelatedItemID: listing.ID,
			})
		}
		reminded++
	}

	return reminded, nil
}

// StartExpiryJob runs ExpireDue and RemindExpiring every interval until ctx is done.
func (uc *ListingUseCase) StartExpiryJob(ctx context.Context, interval, reminderWindow time.Duration) {
	ticker := time.NewTicker(interval)

	go func() {
		for {
			select {
			case <-ticker.C:
				now := uc.now()
				if n, err := uc.ExpireDue(ctx, now); err != nil {
					logger.Error("Expiry job error: %v", err)
				} else if n > 0 {
					logger.Info("Expiry job expired %d listings", n)
				}
				if _, err := uc.RemindExpiring(ctx, now, reminderWindow); err != nil {
					logger.Error("Expiry reminder error: %v", err)
				}
			case <-ctx.Done():
				ticker.Stop()
				return
			}
		}
	}()

	logger.Info("Expiry job started (checking every %s)", interval)
}

// locate resolves coordinates for a listing or profile. Explicit coordinates
// win; otherwise the address is geocoded when a geocoder is configured.
func (uc *ListingUseCase) locate(ctx context.Context, address string, lat, lng *float64) (float64, float64, string, error) {
	return resolveLocation(ctx, uc.geocoder, address, lat, lng)
}

func resolveLocation(ctx context.Context, geocoder service.Geocoder, address string, lat, lng *float64) (float64, float64, string, error) {
	if lat != nil && lng != nil {
		if !geo.ValidCoordinates(*lat, *lng) {
			return 0, 0, "", errors.Validation("coordinates are out of range")
		}
		return *lat, *lng, address, nil
	}
	if lat != nil || lng != nil {
		return 0, 0, "", errors.Validation("latitude and longitude must be provided together")
	}
	if address == "" {
		return 0, 0, "", errors.Validation("a location is required")
	}
	if geocoder == nil {
		return 0, 0, "", errors.Validation("coordinates are required")
	}

	result, err := geocoder.Geocode(ctx, address)
	if err != nil {
		return 0, 0, "", err
	}
	if !geo.ValidCoordinates(result.Latitude, result.Longitude) {
		return 0, 0, "", errors.Validation("address resolved to invalid coordinates")
	}
	if result.FormattedAddress != "" {
		address = result.FormattedAddress
	}
	return result.Latitude, result.Longitude, address, nil
}

func rejectExpired(l *entity.Listing) error {
	if l.Status == entity.ListingExpired {
		return errors.InvalidState("listing has expired")
	}
	return nil
}

func validatePatch(patch UpdateListingInput, now time.Time) error {
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return errors.Validation("title cannot be blank")
	}
	if patch.Description != nil && strings.TrimSpace(*patch.Description) == "" {
		return errors.Validation("description cannot be blank")
	}
	if patch.Category != nil && !patch.Category.Valid() {
		return errors.Validation(fmt.Sprintf("unknown category %q", *patch.Category))
	}
	if patch.Quantity != nil {
		if err := validateQuantity(*patch.Quantity); err != nil {
			return err
		}
	}
	if patch.ExpiryDate != nil {
		if patch.ExpiryDate.IsZero() {
			return errors.Validation("expiry date cannot be cleared")
		}
		if !patch.ExpiryDate.After(now) {
			return errors.Validation("expiry date must be in the future")
		}
	}
	return nil
}

func validateQuantity(q float64) error {
	if math.IsNaN(q) || math.IsInf(q, 0) || q <= 0 {
		return errors.Validation("quantity must be greater than zero")
	}
	return nil
}

// dedupeTags trims, drops blanks and removes repeats, keeping first occurrence order.
func dedupeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		key := strings.ToLower(tag)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, tag)
	}
	return out
}

func claimOutcome(err error) string {
	switch {
	case errors.Is(err, errors.CodeAlreadyClaimed):
		return "already_claimed"
	case errors.Is(err, errors.CodeSelfClaim):
		return "self_claim"
	case errors.Is(err, errors.CodeInvalidState):
		return "invalid_state"
	case errors.Is(err, errors.CodeNotFound):
		return "not_found"
	default:
		return "error"
	}
}

func displayName(actor entity.Actor) string {
	if actor.DisplayName != "" {
		return actor.DisplayName
	}
	return "Someone"
}

func humanizeDuration(d time.Duration) string {
	switch {
	case d < time.Hour:
		return fmt.Sprintf("%d minutes", int(d.Minutes()))
	case d < 48*time.Hour:
		return fmt.Sprintf("%d hours", int(d.Hours()))
	default:
		return fmt.Sprintf("%d days", int(d.Hours()/24))
	}
}
