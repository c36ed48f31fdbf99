package entity

import (
	"time"
)

type ListingStatus string

const (
	ListingAvailable ListingStatus = "available"
	ListingClaimed   ListingStatus = "claimed"
	ListingCompleted ListingStatus = "completed"
	ListingExpired   ListingStatus = "expired"
)

type Category string

const (
	CategoryProduce   Category = "produce"
	CategoryBakery    Category = "bakery"
	CategoryDairy     Category = "dairy"
	CategoryMeat      Category = "meat"
	CategoryPrepared  Category = "prepared"
	CategoryPantry    Category = "pantry"
	CategoryBeverages Category = "beverages"
	CategoryOther     Category = "other"
)

var Categories = []Category{
	CategoryProduce,
	CategoryBakery,
	CategoryDairy,
	CategoryMeat,
	CategoryPrepared,
	CategoryPantry,
	CategoryBeverages,
	CategoryOther,
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

type Listing struct {
	ID          string   `json:"id" firestore:"id" gorm:"primaryKey;type:varchar(64)"`
	Title       string   `json:"title" firestore:"title" gorm:"not null"`
	Description string   `json:"description" firestore:"description" gorm:"not null"`
	Category    Category `json:"category" firestore:"category" gorm:"type:varchar(32);index:idx_listing_status_category"`
	Quantity    float64  `json:"quantity" firestore:"quantity"`
	Unit        string   `json:"unit" firestore:"unit"`
	Images      []string `json:"images" firestore:"images" gorm:"serializer:json"`

	ExpiryDate time.Time `json:"expiry_date" firestore:"expiryDate" gorm:"index"`
	CreatedAt  time.Time `json:"created_at" firestore:"createdAt" gorm:"index"`
	UpdatedAt  time.Time `json:"updated_at" firestore:"updatedAt"`

	DonorID    string `json:"donor_id" firestore:"donorId" gorm:"type:varchar(128);index"`
	DonorName  string `json:"donor_name" firestore:"donorName"`
	DonorPhoto string `json:"donor_photo,omitempty" firestore:"donorPhoto,omitempty"`

	Status    ListingStatus `json:"status" firestore:"status" gorm:"type:varchar(16);index:idx_listing_status_category"`
	Address   string        `json:"address" firestore:"address"`
	Latitude  float64       `json:"latitude" firestore:"latitude"`
	Longitude float64       `json:"longitude" firestore:"longitude"`

	ClaimedBy *string    `json:"claimed_by,omitempty" firestore:"claimedBy" gorm:"type:varchar(128);index"`
	ClaimedAt *time.Time `json:"claimed_at,omitempty" firestore:"claimedAt"`

	AllergensInfo      []string `json:"allergens_info,omitempty" firestore:"allergensInfo,omitempty" gorm:"serializer:json"`
	DietaryInfo        []string `json:"dietary_info,omitempty" firestore:"dietaryInfo,omitempty" gorm:"serializer:json"`
	PickupInstructions string   `json:"pickup_instructions,omitempty" firestore:"pickupInstructions,omitempty"`

	ExpiryReminderSent bool `json:"-" firestore:"expiryReminderSent"`
}

// IsClaimedState reports whether the status carries a claimer.
func (s ListingStatus) IsClaimedState() bool {
	return s == ListingClaimed || s == ListingCompleted
}

// IsTerminal reports whether no further transition is possible.
func (s ListingStatus) IsTerminal() bool {
	return s == ListingCompleted || s == ListingExpired
}

// HasPassedExpiry reports whether the expiry date is at or before now.
func (l *Listing) HasPassedExpiry(now time.Time) bool {
	return !l.ExpiryDate.IsZero() && !l.ExpiryDate.After(now)
}

// ClaimedByUser reports whether userID is the current claimer.
func (l *Listing) ClaimedByUser(userID string) bool {
	return l.ClaimedBy != nil && *l.ClaimedBy == userID
}

// Clone returns a deep copy so stores never share slices with callers.
func (l *Listing) Clone() *Listing {
	if l == nil {
		return nil
	}
	c := *l
	c.Images = append([]string(nil), l.Images...)
	c.AllergensInfo = append([]string(nil), l.AllergensInfo...)
	c.DietaryInfo = append([]string(nil), l.DietaryInfo...)
	if l.ClaimedBy != nil {
		v := *l.ClaimedBy
		c.ClaimedBy = &v
	}
	if l.ClaimedAt != nil {
		v := *l.ClaimedAt
		c.ClaimedAt = &v
	}
	return &c
}

// ListingFilter narrows listing reads. Zero values mean "any".
type ListingFilter struct {
	Status    ListingStatus
	Category  Category
	DonorID   string
	ClaimedBy string
	// ExpiringBefore matches listings whose ExpiryDate is at or before the given time.
	ExpiringBefore time.Time
}
