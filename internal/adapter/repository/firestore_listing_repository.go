package repository

import (
	"context"
	"sort"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"foodshare/internal/domain/entity"
	"foodshare/internal/domain/repository"
	"foodshare/pkg/errors"
)

const listingsCollection = "foodListings"

type firestoreListingRepository struct {
	client *firestore.Client
}

func NewFirestoreListingRepository(client *firestore.Client) repository.ListingRepository {
	return &firestoreListingRepository{
		client: client,
	}
}

func (r *firestoreListingRepository) Create(ctx context.Context, listing *entity.Listing) error {
	if listing.ID == "" {
		doc := r.client.Collection(listingsCollection).NewDoc()
		listing.ID = doc.ID
	}

	_, err := r.client.Collection(listingsCollection).Doc(listing.ID).Create(ctx, listing)
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return errors.Conflict("listing already exists")
		}
		return errors.Internal("Failed to create listing", err)
	}

	return nil
}

func (r *firestoreListingRepository) GetByID(ctx context.Context, id string) (*entity.Listing, error) {
	doc, err := r.client.Collection(listingsCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Listing", err)
		}
		return nil, errors.Internal("Failed to get listing", err)
	}

	var listing entity.Listing
	if err := doc.DataTo(&listing); err != nil {
		return nil, errors.Internal("Failed to parse listing data", err)
	}

	return &listing, nil
}

// UpdateIf runs the mutation inside a Firestore transaction. Firestore retries
// the function on contention, so the guard always sees the committed state.
func (r *firestoreListingRepository) UpdateIf(ctx context.Context, id string, mutate repository.ListingMutation) (*entity.Listing, error) {
	docRef := r.client.Collection(listingsCollection).Doc(id)

	var updated *entity.Listing
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(docRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return errors.NotFound("Listing", err)
			}
			return errors.Internal("Failed to read listing", err)
		}

		var listing entity.Listing
		if err := doc.DataTo(&listing); err != nil {
			return errors.Internal("Failed to parse listing data", err)
		}

		if err := mutate(&listing); err != nil {
			return err
		}

		updated = &listing
		return tx.Set(docRef, &listing)
	})
	if err != nil {
		return nil, asAppError(err, "Failed to update listing")
	}

	return updated, nil
}

func (r *firestoreListingRepository) DeleteIf(ctx context.Context, id string, guard func(*entity.Listing) error) error {
	docRef := r.client.Collection(listingsCollection).Doc(id)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(docRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return errors.NotFound("Listing", err)
			}
			return errors.Internal("Failed to read listing", err)
		}

		var listing entity.Listing
		if err := doc.DataTo(&listing); err != nil {
			return errors.Internal("Failed to parse listing data", err)
		}

		if err := guard(&listing); err != nil {
			return err
		}
		return tx.Delete(docRef)
	})

	return asAppError(err, "Failed to delete listing")
}

func (r *firestoreListingRepository) List(ctx context.Context, filter entity.ListingFilter) ([]*entity.Listing, error) {
	query := r.client.Collection(listingsCollection).Query

	if filter.Status != "" {
		query = query.Where("status", "==", string(filter.Status))
	}
	if filter.Category != "" {
		query = query.Where("category", "==", string(filter.Category))
	}
	if filter.DonorID != "" {
		query = query.Where("donorId", "==", filter.DonorID)
	}
	if filter.ClaimedBy != "" {
		query = query.Where("claimedBy", "==", filter.ClaimedBy)
	}

	// A range filter forces the first OrderBy onto the same field, so ordering by
	// createdAt is done after the read in that case.
	if !filter.ExpiringBefore.IsZero() {
		query = query.Where("expiryDate", "<=", filter.ExpiringBefore)
	} else {
		query = query.OrderBy("createdAt", firestore.Desc)
	}

	listings, err := r.collect(ctx, query)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(listings, func(i, j int) bool {
		if !listings[i].CreatedAt.Equal(listings[j].CreatedAt) {
			return listings[i].CreatedAt.After(listings[j].CreatedAt)
		}
		return listings[i].ID < listings[j].ID
	})

	return listings, nil
}

func (r *firestoreListingRepository) ListClaimedBy(ctx context.Context, userID string) ([]*entity.Listing, error) {
	query := r.client.Collection(listingsCollection).
		Where("claimedBy", "==", userID).
		OrderBy("claimedAt", firestore.Desc)

	return r.collect(ctx, query)
}

func (r *firestoreListingRepository) collect(ctx context.Context, query firestore.Query) ([]*entity.Listing, error) {
	iter := query.Documents(ctx)
	defer iter.Stop()

	var listings []*entity.Listing
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Internal("Failed to iterate listings", err)
		}

		var listing entity.Listing
		if err := doc.DataTo(&listing); err != nil {
			return nil, errors.Internal("Failed to parse listing data", err)
		}
		listings = append(listings, &listing)
	}

	return listings, nil
}
