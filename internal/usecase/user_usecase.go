package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"foodshare/internal/domain/entity"
	"foodshare/internal/domain/repository"
	"foodshare/internal/domain/service"
	"foodshare/pkg/errors"
)

type UserUseCase struct {
	userRepo    repository.UserRepository
	listingRepo repository.ListingRepository
	geocoder    service.Geocoder
	now         func() time.Time
}

func NewUserUseCase(userRepo repository.UserRepository, listingRepo repository.ListingRepository, geocoder service.Geocoder) *UserUseCase {
	return &UserUseCase{
		userRepo:    userRepo,
		listingRepo: listingRepo,
		geocoder:    geocoder,
		now:         time.Now,
	}
}

type UpdateProfileInput struct {
	DisplayName string          `json:"display_name" validate:"required,max=80"`
	UserType    entity.UserType `json:"user_type" validate:"required,oneof=donor recipient both"`
	PhotoURL    string          `json:"photo_url" validate:"omitempty,url"`
	PhoneNumber string          `json:"phone_number" validate:"omitempty,max=32"`
	Bio         string          `json:"bio" validate:"max=500"`
	Address     string          `json:"address"`
	Latitude    *float64        `json:"latitude"`
	Longitude   *float64        `json:"longitude"`
}

type RateUserInput struct {
	ListingID string `json:"listing_id" validate:"required"`
	Score     int    `json:"score" validate:"required,min=1,max=5"`
}

// UpsertProfile creates or replaces the profile of uid. Rating totals are
// never touched here.
func (uc *UserUseCase) UpsertProfile(ctx context.Context, uid, email string, input UpdateProfileInput) (*entity.User, error) {
	name := strings.TrimSpace(input.DisplayName)
	if name == "" {
		return nil, errors.Validation("display name is required")
	}
	if !input.UserType.Valid() {
		return nil, errors.Validation(fmt.Sprintf("unknown user type %q", input.UserType))
	}

	now := uc.now()
	user, err := uc.userRepo.GetByID(ctx, uid)
	if err != nil {
		if !errors.Is(err, errors.CodeNotFound) {
			return nil, err
		}
		user = &entity.User{ID: uid, CreatedAt: now}
	}

	if email != "" {
		user.Email = email
	}
	user.DisplayName = name
	user.UserType = input.UserType
	user.PhotoURL = strings.TrimSpace(input.PhotoURL)
	user.PhoneNumber = strings.TrimSpace(input.PhoneNumber)
	user.Bio = strings.TrimSpace(input.Bio)
	user.Address = strings.TrimSpace(input.Address)
	user.Latitude, user.Longitude = nil, nil

	if input.Latitude != nil || input.Longitude != nil || (user.Address != "" && uc.geocoder != nil) {
		lat, lng, address, err := resolveLocation(ctx, uc.geocoder, user.Address, input.Latitude, input.Longitude)
		if err != nil {
			return nil, err
		}
		user.Latitude, user.Longitude = &lat, &lng
		user.Address = address
	}
	user.UpdatedAt = now

	if err := uc.userRepo.Upsert(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (uc *UserUseCase) GetProfile(ctx context.Context, id string) (*entity.User, error) {
	return uc.userRepo.GetByID(ctx, id)
}

// ResolveActor loads the profile behind an authenticated uid. A user without a
// profile yet gets an actor with no user type, which can browse and message
// but neither donate nor claim.
func (uc *UserUseCase) ResolveActor(ctx context.Context, uid, fallbackName string) (entity.Actor, error) {
	user, err := uc.userRepo.GetByID(ctx, uid)
	if err != nil {
		if errors.Is(err, errors.CodeNotFound) {
			return entity.Actor{ID: uid, DisplayName: fallbackName}, nil
		}
		return entity.Actor{}, err
	}
	return entity.ActorFromUser(user), nil
}

// RateUser records a 1..5 score from one party of a completed listing for the other.
func (uc *UserUseCase) RateUser(ctx context.Context, actor entity.Actor, targetID string, input RateUserInput) (*entity.User, error) {
	if input.Score < 1 || input.Score > 5 {
		return nil, errors.Validation("score must be between 1 and 5")
	}
	if targetID == actor.ID {
		return nil, errors.Validation("you cannot rate yourself")
	}

	listing, err := uc.listingRepo.GetByID(ctx, input.ListingID)
	if err != nil {
		return nil, err
	}
	if listing.Status != entity.ListingCompleted {
		return nil, errors.InvalidState("only completed pickups can be rated")
	}

	isDonor := listing.DonorID == actor.ID
	isClaimer := listing.ClaimedByUser(actor.ID)
	if !isDonor && !isClaimer {
		return nil, errors.Forbidden("Only the donor or the claimer can rate this pickup", nil)
	}
	if (isDonor && !listing.ClaimedByUser(targetID)) || (isClaimer && listing.DonorID != targetID) {
		return nil, errors.Validation("you can only rate the other party of this pickup")
	}

	rating := &entity.Rating{
		ID:        entity.RatingID(listing.ID, actor.ID),
		RaterID:   actor.ID,
		TargetID:  targetID,
		ListingID: listing.ID,
		Score:     input.Score,
		CreatedAt: uc.now(),
	}
	if err := uc.userRepo.AddRating(ctx, rating); err != nil {
		return nil, err
	}

	return uc.userRepo.GetByID(ctx, targetID)
}
