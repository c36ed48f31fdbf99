package entity

import (
	"time"
)

type UserType string

const (
	UserTypeDonor     UserType = "donor"
	UserTypeRecipient UserType = "recipient"
	UserTypeBoth      UserType = "both"
)

func (t UserType) Valid() bool {
	return t == UserTypeDonor || t == UserTypeRecipient || t == UserTypeBoth
}

type User struct {
	ID          string   `json:"id" firestore:"id" gorm:"primaryKey;type:varchar(128)"`
	Email       string   `json:"email,omitempty" firestore:"email"`
	DisplayName string   `json:"display_name" firestore:"displayName"`
	PhotoURL    string   `json:"photo_url,omitempty" firestore:"photoURL,omitempty"`
	PhoneNumber string   `json:"phone_number,omitempty" firestore:"phoneNumber,omitempty"`
	UserType    UserType `json:"user_type" firestore:"userType" gorm:"type:varchar(16);index"`
	Bio         string   `json:"bio,omitempty" firestore:"bio,omitempty"`

	Address   string   `json:"address,omitempty" firestore:"address,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty" firestore:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty" firestore:"longitude,omitempty"`

	// RatingsTotal is the sum of all scores received; RatingCount how many were given.
	RatingsTotal int `json:"ratings" firestore:"ratings"`
	RatingCount  int `json:"rating_count" firestore:"ratingCount"`

	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt time.Time `json:"updated_at" firestore:"updatedAt"`
}

func (u *User) AverageRating() float64 {
	if u.RatingCount == 0 {
		return 0
	}
	return float64(u.RatingsTotal) / float64(u.RatingCount)
}

// PublicProfile is the part of a user other users may see.
type PublicProfile struct {
	ID            string   `json:"id"`
	DisplayName   string   `json:"display_name"`
	PhotoURL      string   `json:"photo_url,omitempty"`
	UserType      UserType `json:"user_type"`
	Bio           string   `json:"bio,omitempty"`
	AverageRating float64  `json:"average_rating"`
	RatingCount   int      `json:"rating_count"`
}

// Public drops contact details and home location.
func (u *User) Public() *PublicProfile {
	return &PublicProfile{
		ID:            u.ID,
		DisplayName:   u.DisplayName,
		PhotoURL:      u.PhotoURL,
		UserType:      u.UserType,
		Bio:           u.Bio,
		AverageRating: u.AverageRating(),
		RatingCount:   u.RatingCount,
	}
}

func (u *User) IsRecipient() bool {
	return u.UserType == UserTypeRecipient || u.UserType == UserTypeBoth
}

// Actor is the identity behind a request. It is resolved once at the edge and
// passed explicitly into every operation that checks ownership.
type Actor struct {
	ID          string
	DisplayName string
	PhotoURL    string
	UserType    UserType
}

func (a Actor) IsDonor() bool {
	return a.UserType == UserTypeDonor || a.UserType == UserTypeBoth
}

func (a Actor) IsRecipient() bool {
	return a.UserType == UserTypeRecipient || a.UserType == UserTypeBoth
}

func ActorFromUser(u *User) Actor {
	return Actor{
		ID:          u.ID,
		DisplayName: u.DisplayName,
		PhotoURL:    u.PhotoURL,
		UserType:    u.UserType,
	}
}

// Rating records one score so a rater cannot rate the same listing twice.
type Rating struct {
	ID        string    `json:"id" firestore:"id" gorm:"primaryKey;type:varchar(255)"`
	RaterID   string    `json:"rater_id" firestore:"raterId" gorm:"type:varchar(128)"`
	TargetID  string    `json:"target_id" firestore:"targetId" gorm:"type:varchar(128);index"`
	ListingID string    `json:"listing_id" firestore:"listingId" gorm:"type:varchar(64)"`
	Score     int       `json:"score" firestore:"score"`
	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
}

// RatingID is deterministic per rater and listing.
func RatingID(listingID, raterID string) string {
	return listingID + "_" + raterID
}
