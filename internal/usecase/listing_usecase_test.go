package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodshare/internal/domain/entity"
	"foodshare/internal/infrastructure/ratelimit"
	"foodshare/pkg/errors"
)

func TestCreateListing(t *testing.T) {
	f := newFixture(t)
	donor := f.addUser(t, "donor", "Dana", entity.UserTypeBoth)
	f.addUser(t, "r1", "Rae", entity.UserTypeRecipient)
	f.addUser(t, "r2", "Rob", entity.UserTypeBoth)
	f.addUser(t, "d2", "Dev", entity.UserTypeDonor)

	l, err := f.listing.Create(context.Background(), donor, CreateListingInput{
		Title:         "  Bread  ",
		Description:   "5 loaves of sourdough",
		Category:      entity.CategoryBakery,
		Quantity:      5,
		Unit:          "loaves",
		ExpiryDate:    baseTime.Add(48 * time.Hour),
		Latitude:      ptr(40.0),
		Longitude:     ptr(-73.0),
		AllergensInfo: []string{"gluten", "Gluten", " ", "sesame"},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, l.ID)
	assert.Equal(t, "Bread", l.Title)
	assert.Equal(t, entity.ListingAvailable, l.Status)
	assert.Equal(t, "donor", l.DonorID)
	assert.Equal(t, "Dana", l.DonorName)
	assert.Nil(t, l.ClaimedBy)
	assert.Nil(t, l.ClaimedAt)
	assert.Equal(t, baseTime, l.CreatedAt)
	assert.Equal(t, []string{"gluten", "sesame"}, l.AllergensInfo)

	// Recipients are told, the donor and donor-only users are not.
	for _, id := range []string{"r1", "r2"} {
		items := f.notificationsFor(t, id)
		require.Len(t, items, 1, id)
		assert.Equal(t, entity.NotificationNewListing, items[0].Type)
		assert.Equal(t, "New Food Available", items[0].Title)
		assert.Equal(t, "New bakery listing: Bread", items[0].Message)
		assert.Equal(t, l.ID, items[0].RelatedItemID)
	}
	assert.Empty(t, f.notificationsFor(t, "donor"))
	assert.Empty(t, f.notificationsFor(t, "d2"))
}

func TestCreateListing_Validation(t *testing.T) {
	f := newFixture(t)
	donor := f.addUser(t, "donor", "Dana", entity.UserTypeDonor)

	valid := func() CreateListingInput {
		return CreateListingInput{
			Title:       "Apples",
			Description: "A crate of apples",
			Category:    entity.CategoryProduce,
			Quantity:    1,
			ExpiryDate:  baseTime.Add(time.Hour),
			Latitude:    ptr(10.0),
			Longitude:   ptr(10.0),
		}
	}

	tests := []struct {
		name   string
		mutate func(*CreateListingInput)
	}{
		{"zero quantity", func(in *CreateListingInput) { in.Quantity = 0 }},
		{"negative quantity", func(in *CreateListingInput) { in.Quantity = -2 }},
		{"blank title", func(in *CreateListingInput) { in.Title = "   " }},
		{"blank description", func(in *CreateListingInput) { in.Description = "" }},
		{"unknown category", func(in *CreateListingInput) { in.Category = "furniture" }},
		{"latitude out of range", func(in *CreateListingInput) { in.Latitude = ptr(90.5) }},
		{"longitude out of range", func(in *CreateListingInput) { in.Longitude = ptr(-180.1) }},
		{"half a coordinate", func(in *CreateListingInput) { in.Longitude = nil }},
		{"no location", func(in *CreateListingInput) { in.Latitude, in.Longitude = nil, nil }},
		{"expiry in the past", func(in *CreateListingInput) { in.ExpiryDate = baseTime.Add(-time.Minute) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid()
			tt.mutate(&in)

			_, err := f.listing.Create(context.Background(), donor, in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.CodeValidation), "got %v", err)
		})
	}

	all, err := f.listings.List(context.Background(), entity.ListingFilter{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCreateListing_RecipientOnlyIsForbidden(t *testing.T) {
	f := newFixture(t)
	recipient := f.addUser(t, "r1", "Rae", entity.UserTypeRecipient)

	_, err := f.listing.Create(context.Background(), recipient, CreateListingInput{})
	assert.True(t, errors.Is(err, errors.CodeForbidden))
}

func TestCreateListing_RateLimited(t *testing.T) {
	f := newFixture(t)
	f.listing.limiter = ratelimit.NewRateLimiter(map[string]ratelimit.Limit{
		ratelimit.ActionCreateListing: {Burst: 1, Per: time.Hour},
	})
	donor := f.addUser(t, "donor", "Dana", entity.UserTypeDonor)

	f.createListing(t, donor, "Bread", entity.CategoryBakery, 1, 1)
	_, err := f.listing.Create(context.Background(), donor, CreateListingInput{
		Title: "More bread", Description: "x", Category: entity.CategoryBakery, Quantity: 1,
		ExpiryDate: baseTime.Add(time.Hour), Latitude: ptr(1.0), Longitude: ptr(1.0),
	})
	assert.True(t, errors.Is(err, errors.CodeTooManyRequest))
}

func TestClaim_ConcurrentCallersHaveExactlyOneWinner(t *testing.T) {
	f := newFixture(t)
	donor := f.addUser(t, "donor", "Dana", entity.UserTypeDonor)
	l := f.createListing(t, donor, "Bread", entity.CategoryBakery, 40.0, -73.0)

	const n = 32
	claimers := make([]entity.Actor, n)
	for i := range claimers {
		claimers[i] = f.addUser(t, fmt.Sprintf("r%02d", i), fmt.Sprintf("Recipient %d", i), entity.UserTypeRecipient)
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners []string
		lost    int
		other   []error
	)
	start := make(chan struct{})
	for _, c := range claimers {
		wg.Add(1)
		go func(actor entity.Actor) {
			defer wg.Done()
			<-start
			_, err := f.listing.Claim(context.Background(), actor, l.ID)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				winners = append(winners, actor.ID)
			case errors.Is(err, errors.CodeAlreadyClaimed):
				lost++
			default:
				other = append(other, err)
			}
		}(c)
	}
	close(start)
	wg.Wait()

	require.Empty(t, other)
	require.Len(t, winners, 1)
	assert.Equal(t, n-1, lost)

	final, err := f.listings.GetByID(context.Background(), l.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ListingClaimed, final.Status)
	require.NotNil(t, final.ClaimedBy)
	assert.Equal(t, winners[0], *final.ClaimedBy)
	assert.NotNil(t, final.ClaimedAt)
}

func TestClaim_BreadScenario(t *testing.T) {
	f := newFixture(t)
	donor := f.addUser(t, "D", "Dana", entity.UserTypeDonor)
	r1 := f.addUser(t, "R1", "Rae", entity.UserTypeRecipient)
	r2 := f.addUser(t, "R2", "Rob", entity.UserTypeRecipient)

	bread := f.createListing(t, donor, "Bread, 5 loaves", entity.CategoryBakery, 40.0, -73.0)

	results := make(chan error, 2)
	for _, r := range []entity.Actor{r1, r2} {
		go func(actor entity.Actor) {
			_, err := f.listing.Claim(context.Background(), actor, bread.ID)
			results <- err
		}(r)
	}
	errA, errB := <-results, <-results

	succeeded := 0
	for _, err := range []error{errA, errB} {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, errors.Is(err, errors.CodeAlreadyClaimed), "got %v", err)
	}
	assert.Equal(t, 1, succeeded)

	final, err := f.listing.Get(context.Background(), bread.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ListingClaimed, final.Status)
	assert.True(t, final.ClaimedByUser("R1") || final.ClaimedByUser("R2"))

	// The donor hears about the winning claim only.
	var claimRequests int
	for _, n := range f.notificationsFor(t, "D") {
		if n.Type == entity.NotificationClaimRequest {
			claimRequests++
		}
	}
	assert.Equal(t, 1, claimRequests)
}

func TestClaim_Guards(t *testing.T) {
	ctx := context.Background()

	t.Run("self claim", func(t *testing.T) {
		f := newFixture(t)
		donor := f.addUser(t, "D", "Dana", entity.UserTypeBoth)
		l := f.createListing(t, donor, "Soup", entity.CategoryPrepared, 1, 1)

		_, err := f.listing.Claim(ctx, donor, l.ID)
		assert.True(t, errors.Is(err, errors.CodeSelfClaim))
	})

	t.Run("unknown listing", func(t *testing.T) {
		f := newFixture(t)
		r := f.addUser(t, "R", "Rae", entity.UserTypeRecipient)

		_, err := f.listing.Claim(ctx, r, "missing")
		assert.True(t, errors.Is(err, errors.CodeNotFound))
	})

	t.Run("past expiry date", func(t *testing.T) {
		f := newFixture(t)
		donor := f.addUser(t, "D", "Dana", entity.UserTypeDonor)
		r := f.addUser(t, "R", "Rae", entity.UserTypeRecipient)
		l := f.createListing(t, donor, "Milk", entity.CategoryDairy, 1, 1)

		f.advance(73 * time.Hour)
		_, err := f.listing.Claim(ctx, r, l.ID)
		assert.True(t, errors.Is(err, errors.CodeInvalidState))
	})

	t.Run("second claim after win", func(t *testing.T) {
		f := newFixture(t)
		donor := f.addUser(t, "D", "Dana", entity.UserTypeDonor)
		r1 := f.addUser(t, "R1", "Rae", entity.UserTypeRecipient)
		r2 := f.addUser(t, "R2", "Rob", entity.UserTypeRecipient)
		l := f.createListing(t, donor, "Milk", entity.CategoryDairy, 1, 1)

		_, err := f.listing.Claim(ctx, r1, l.ID)
		require.NoError(t, err)
		_, err = f.listing.Claim(ctx, r2, l.ID)
		assert.True(t, errors.Is(err, errors.CodeAlreadyClaimed))
		_, err = f.listing.Claim(ctx, r1, l.ID)
		assert.True(t, errors.Is(err, errors.CodeAlreadyClaimed))
	})

	t.Run("donor-only user cannot claim", func(t *testing.T) {
		f := newFixture(t)
		donor := f.addUser(t, "D", "Dana", entity.UserTypeDonor)
		other := f.addUser(t, "D2", "Dev", entity.UserTypeDonor)
		l := f.createListing(t, donor, "Milk", entity.CategoryDairy, 1, 1)

		_, err := f.listing.Claim(ctx, other, l.ID)
		assert.True(t, errors.Is(err, errors.CodeForbidden))
	})
}

func TestUnclaimAndComplete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	donor := f.addUser(t, "D", "Dana", entity.UserTypeDonor)
	r1 := f.addUser(t, "R1", "Rae", entity.UserTypeRecipient)
	r2 := f.addUser(t, "R2", "Rob", entity.UserTypeRecipient)
	l := f.createListing(t, donor, "Rice", entity.CategoryPantry, 1, 1)

	_, err := f.listing.Claim(ctx, r1, l.ID)
	require.NoError(t, err)

	// Only the donor may cancel a claim.
	_, err = f.listing.Unclaim(ctx, r1, l.ID)
	assert.True(t, errors.Is(err, errors.CodeForbidden))

	f.advance(time.Minute)
	back, err := f.listing.Unclaim(ctx, donor, l.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ListingAvailable, back.Status)
	assert.Nil(t, back.ClaimedBy)
	assert.Nil(t, back.ClaimedAt)
	assert.Equal(t, f.clock, back.UpdatedAt)

	system := f.notificationsFor(t, "R1")
	require.NotEmpty(t, system)
	assert.Equal(t, entity.NotificationSystem, system[0].Type)

	_, err = f.listing.Unclaim(ctx, donor, l.ID)
	assert.True(t, errors.Is(err, errors.CodeInvalidState))

	// Completing needs a claim, and a party to it.
	_, err = f.listing.Complete(ctx, donor, l.ID)
	assert.True(t, errors.Is(err, errors.CodeInvalidState))

	_, err = f.listing.Claim(ctx, r2, l.ID)
	require.NoError(t, err)
	_, err = f.listing.Complete(ctx, r1, l.ID)
	assert.True(t, errors.Is(err, errors.CodeForbidden))

	f.advance(time.Minute)
	done, err := f.listing.Complete(ctx, r2, l.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ListingCompleted, done.Status)
	assert.True(t, done.ClaimedByUser("R2"), "completed keeps its claimer")

	accepted := f.notificationsFor(t, "D")
	require.NotEmpty(t, accepted)
	assert.Equal(t, entity.NotificationClaimAccepted, accepted[0].Type)

	// Terminal.
	_, err = f.listing.Unclaim(ctx, donor, l.ID)
	assert.True(t, errors.Is(err, errors.CodeInvalidState))
	_, err = f.listing.Claim(ctx, r1, l.ID)
	assert.True(t, errors.Is(err, errors.CodeAlreadyClaimed))
	err = f.listing.Delete(ctx, donor, l.ID)
	assert.True(t, errors.Is(err, errors.CodeInvalidState))
}

func TestUpdateListing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	donor := f.addUser(t, "D", "Dana", entity.UserTypeDonor)
	stranger := f.addUser(t, "S", "Sam", entity.UserTypeBoth)
	l := f.createListing(t, donor, "Rice", entity.CategoryPantry, 1, 1)

	_, err := f.listing.Update(ctx, stranger, l.ID, UpdateListingInput{Title: ptr("Mine now")})
	assert.True(t, errors.Is(err, errors.CodeForbidden))

	_, err = f.listing.Update(ctx, donor, "missing", UpdateListingInput{Title: ptr("x")})
	assert.True(t, errors.Is(err, errors.CodeNotFound))

	_, err = f.listing.Update(ctx, donor, l.ID, UpdateListingInput{Quantity: ptr(0.0)})
	assert.True(t, errors.Is(err, errors.CodeValidation))

	f.advance(time.Hour)
	updated, err := f.listing.Update(ctx, donor, l.ID, UpdateListingInput{
		Title:       ptr("Brown rice"),
		Quantity:    ptr(2.5),
		DietaryInfo: []string{"vegan", "vegan"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Brown rice", updated.Title)
	assert.Equal(t, 2.5, updated.Quantity)
	assert.Equal(t, []string{"vegan"}, updated.DietaryInfo)
	assert.Equal(t, entity.ListingAvailable, updated.Status)
	assert.Equal(t, f.clock, updated.UpdatedAt)
	assert.Equal(t, baseTime, updated.CreatedAt)

	_, err = f.listing.Update(ctx, donor, l.ID, UpdateListingInput{ExpiryDate: ptr(f.clock.Add(-time.Minute))})
	assert.True(t, errors.Is(err, errors.CodeValidation))
	_, err = f.listing.Update(ctx, donor, l.ID, UpdateListingInput{ExpiryDate: ptr(f.clock)})
	assert.True(t, errors.Is(err, errors.CodeValidation))
	got, err := f.listing.Get(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, baseTime.Add(72*time.Hour), got.ExpiryDate)

	updated, err = f.listing.Update(ctx, donor, l.ID, UpdateListingInput{
		Address: ptr("1 Market St"), Latitude: ptr(1.5), Longitude: ptr(1.5),
	})
	require.NoError(t, err)
	assert.Equal(t, "1 Market St", updated.Address)

	// Moving the pin without a new address drops the stale one.
	updated, err = f.listing.Update(ctx, donor, l.ID, UpdateListingInput{Latitude: ptr(2.0), Longitude: ptr(3.0)})
	require.NoError(t, err)
	assert.Equal(t, 2.0, updated.Latitude)
	assert.Equal(t, 3.0, updated.Longitude)
	assert.Empty(t, updated.Address)
}

func TestDeleteListing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	donor := f.addUser(t, "D", "Dana", entity.UserTypeDonor)
	r := f.addUser(t, "R", "Rae", entity.UserTypeRecipient)
	l := f.createListing(t, donor, "Rice", entity.CategoryPantry, 1, 1)

	assert.True(t, errors.Is(f.listing.Delete(ctx, r, l.ID), errors.CodeForbidden))
	require.NoError(t, f.listing.Delete(ctx, donor, l.ID))

	_, err := f.listing.Get(ctx, l.ID)
	assert.True(t, errors.Is(err, errors.CodeNotFound))
}

func TestExpireDue(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	donor := f.addUser(t, "D", "Dana", entity.UserTypeDonor)
	r := f.addUser(t, "R", "Rae", entity.UserTypeRecipient)

	soon, err := f.listing.Create(ctx, donor, CreateListingInput{
		Title: "Salad", Description: "Fresh", Category: entity.CategoryPrepared, Quantity: 1,
		ExpiryDate: baseTime.Add(2 * time.Hour), Latitude: ptr(1.0), Longitude: ptr(1.0),
	})
	require.NoError(t, err)
	claimedSoon, err := f.listing.Create(ctx, donor, CreateListingInput{
		Title: "Sandwich", Description: "Fresh", Category: entity.CategoryPrepared, Quantity: 1,
		ExpiryDate: baseTime.Add(3 * time.Hour), Latitude: ptr(1.0), Longitude: ptr(1.0),
	})
	require.NoError(t, err)
	_, err = f.listing.Claim(ctx, r, claimedSoon.ID)
	require.NoError(t, err)
	later := f.createListing(t, donor, "Cans", entity.CategoryPantry, 1, 1)

	n, err := f.listing.ExpireDue(ctx, baseTime.Add(4*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	for _, id := range []string{soon.ID, claimedSoon.ID} {
		l, err := f.listing.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, entity.ListingExpired, l.Status)
		assert.Nil(t, l.ClaimedBy, "expired listings carry no claimer")
	}
	still, err := f.listing.Get(ctx, later.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ListingAvailable, still.Status)

	// Running again changes nothing.
	n, err = f.listing.ExpireDue(ctx, baseTime.Add(4*time.Hour))
	require.NoError(t, err)
	assert.Zero(t, n)

	// Ownership is checked before state.
	_, err = f.listing.Update(ctx, r, soon.ID, UpdateListingInput{Title: ptr("x")})
	assert.True(t, errors.Is(err, errors.CodeForbidden))

	// Every mutation of an expired listing is refused.
	_, err = f.listing.Update(ctx, donor, soon.ID, UpdateListingInput{Title: ptr("x")})
	assert.True(t, errors.Is(err, errors.CodeInvalidState))
	_, err = f.listing.Claim(ctx, r, soon.ID)
	assert.True(t, errors.Is(err, errors.CodeInvalidState))
	_, err = f.listing.Unclaim(ctx, donor, claimedSoon.ID)
	assert.True(t, errors.Is(err, errors.CodeInvalidState))
	_, err = f.listing.Complete(ctx, donor, claimedSoon.ID)
	assert.True(t, errors.Is(err, errors.CodeInvalidState))
	assert.True(t, errors.Is(f.listing.Delete(ctx, donor, soon.ID), errors.CodeInvalidState))
}

func TestRemindExpiring_SendsOncePerListing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	donor := f.addUser(t, "D", "Dana", entity.UserTypeDonor)

	_, err := f.listing.Create(ctx, donor, CreateListingInput{
		Title: "Yogurt", Description: "Six pots", Category: entity.CategoryDairy, Quantity: 6,
		ExpiryDate: baseTime.Add(10 * time.Hour), Latitude: ptr(1.0), Longitude: ptr(1.0),
	})
	require.NoError(t, err)
	f.createListing(t, donor, "Cans", entity.CategoryPantry, 1, 1)

	n, err := f.listing.RemindExpiring(ctx, baseTime, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = f.listing.RemindExpiring(ctx, baseTime.Add(time.Hour), 24*time.Hour)
	require.NoError(t, err)
	assert.Zero(t, n)

	reminders := 0
	for _, item := range f.notificationsFor(t, "D") {
		if item.Type == entity.NotificationExpiryReminder {
			reminders++
			assert.Equal(t, "Yogurt expires in 10 hours", item.Message)
		}
	}
	assert.Equal(t, 1, reminders)
}

func TestListQueries(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	donor := f.addUser(t, "D", "Dana", entity.UserTypeDonor)
	r := f.addUser(t, "R", "Rae", entity.UserTypeRecipient)

	first := f.createListing(t, donor, "Bread", entity.CategoryBakery, 1, 1)
	f.advance(time.Minute)
	second := f.createListing(t, donor, "Apples", entity.CategoryProduce, 1, 1)
	f.advance(time.Minute)
	third := f.createListing(t, donor, "Buns", entity.CategoryBakery, 1, 1)

	mine, err := f.listing.ListByDonor(ctx, "D")
	require.NoError(t, err)
	require.Len(t, mine, 3)
	assert.Equal(t, []string{third.ID, second.ID, first.ID}, []string{mine[0].ID, mine[1].ID, mine[2].ID})

	_, err = f.listing.Claim(ctx, r, first.ID)
	require.NoError(t, err)
	f.advance(time.Minute)
	_, err = f.listing.Claim(ctx, r, second.ID)
	require.NoError(t, err)

	claims, err := f.listing.ListClaimedBy(ctx, "R")
	require.NoError(t, err)
	require.Len(t, claims, 2)
	assert.Equal(t, second.ID, claims[0].ID, "most recent claim first")

	bakery := entity.CategoryBakery
	available, err := f.listing.ListAvailable(ctx, &bakery)
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.Equal(t, third.ID, available[0].ID)
}
