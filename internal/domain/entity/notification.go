package entity

import "time"

type NotificationType string

const (
	NotificationNewListing     NotificationType = "new-listing"
	NotificationClaimRequest   NotificationType = "claim-request"
	NotificationClaimAccepted  NotificationType = "claim-accepted"
	NotificationMessage        NotificationType = "message"
	NotificationExpiryReminder NotificationType = "expiry-reminder"
	NotificationSystem         NotificationType = "system"
)

func (t NotificationType) Valid() bool {
	switch t {
	case NotificationNewListing, NotificationClaimRequest, NotificationClaimAccepted,
		NotificationMessage, NotificationExpiryReminder, NotificationSystem:
		return true
	}
	return false
}

type Notification struct {
	ID            string           `json:"id" firestore:"id" gorm:"primaryKey;type:varchar(64)"`
	RecipientID   string           `json:"recipient_id" firestore:"recipientId" gorm:"type:varchar(128);index"`
	Title         string           `json:"title" firestore:"title"`
	Message       string           `json:"message" firestore:"message"`
	Type          NotificationType `json:"type" firestore:"type" gorm:"type:varchar(32)"`
	RelatedItemID string           `json:"related_item_id,omitempty" firestore:"relatedItemId,omitempty" gorm:"type:varchar(64)"`
	SenderID      string           `json:"sender_id,omitempty" firestore:"senderId,omitempty" gorm:"type:varchar(128)"`
	IsRead        bool             `json:"is_read" firestore:"isRead"`
	CreatedAt     time.Time        `json:"created_at" firestore:"createdAt" gorm:"index"`
}
