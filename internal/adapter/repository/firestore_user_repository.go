package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"foodshare/internal/domain/entity"
	"foodshare/internal/domain/repository"
	"foodshare/pkg/errors"
	"foodshare/pkg/logger"
)

const (
	usersCollection   = "users"
	ratingsCollection = "ratings"
)

type firestoreUserRepository struct {
	client *firestore.Client
}

func NewFirestoreUserRepository(client *firestore.Client) repository.UserRepository {
	return &firestoreUserRepository{
		client: client,
	}
}

// Upsert writes profile fields only. Rating totals are owned by AddRating and
// are never overwritten from a profile update.
func (r *firestoreUserRepository) Upsert(ctx context.Context, user *entity.User) error {
	logger.Debug("Upserting user in Firestore, ID: %s", user.ID)

	data := map[string]interface{}{
		"id":          user.ID,
		"email":       user.Email,
		"displayName": user.DisplayName,
		"photoURL":    user.PhotoURL,
		"phoneNumber": user.PhoneNumber,
		"userType":    string(user.UserType),
		"bio":         user.Bio,
		"address":     user.Address,
		"createdAt":   user.CreatedAt,
		"updatedAt":   user.UpdatedAt,
	}
	if user.Latitude != nil && user.Longitude != nil {
		data["latitude"] = *user.Latitude
		data["longitude"] = *user.Longitude
	}

	_, err := r.client.Collection(usersCollection).Doc(user.ID).Set(ctx, data, firestore.MergeAll)
	if err != nil {
		return errors.Internal("Failed to save user", err)
	}
	return nil
}

func (r *firestoreUserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	doc, err := r.client.Collection(usersCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("User", err)
		}
		return nil, errors.Internal("Failed to get user", err)
	}

	var user entity.User
	if err := doc.DataTo(&user); err != nil {
		return nil, errors.Internal("Failed to parse user data", err)
	}
	return &user, nil
}

func (r *firestoreUserRepository) Exists(ctx context.Context, id string) (bool, error) {
	_, err := r.client.Collection(usersCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return false, nil
		}
		return false, errors.Internal("Failed to check user", err)
	}
	return true, nil
}

func (r *firestoreUserRepository) ListRecipientIDs(ctx context.Context) ([]string, error) {
	iter := r.client.Collection(usersCollection).
		Where("userType", "in", []string{string(entity.UserTypeRecipient), string(entity.UserTypeBoth)}).
		Select().
		Documents(ctx)
	defer iter.Stop()

	var ids []string
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Internal("Failed to iterate users", err)
		}
		ids = append(ids, doc.Ref.ID)
	}
	return ids, nil
}

func (r *firestoreUserRepository) AddRating(ctx context.Context, rating *entity.Rating) error {
	userRef := r.client.Collection(usersCollection).Doc(rating.TargetID)
	ratingRef := r.client.Collection(ratingsCollection).Doc(rating.ID)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(ratingRef); err == nil {
			return errors.Conflict("listing already rated")
		} else if status.Code(err) != codes.NotFound {
			return errors.Internal("Failed to read rating", err)
		}

		if _, err := tx.Get(userRef); err != nil {
			if status.Code(err) == codes.NotFound {
				return errors.NotFound("User", err)
			}
			return errors.Internal("Failed to read user", err)
		}

		if err := tx.Create(ratingRef, rating); err != nil {
			return err
		}
		return tx.Update(userRef, []firestore.Update{
			{Path: "ratings", Value: firestore.Increment(rating.Score)},
			{Path: "ratingCount", Value: firestore.Increment(1)},
		})
	})

	return asAppError(err, "Failed to add rating")
}
