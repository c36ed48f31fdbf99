package entity

import "time"

type Message struct {
	ID          string    `json:"id" firestore:"id" gorm:"primaryKey;type:varchar(64)"`
	SenderID    string    `json:"sender_id" firestore:"senderId" gorm:"type:varchar(128);index:idx_message_pair"`
	RecipientID string    `json:"recipient_id" firestore:"recipientId" gorm:"type:varchar(128);index:idx_message_pair;index"`
	Content     string    `json:"content" firestore:"content" gorm:"not null"`
	CreatedAt   time.Time `json:"created_at" firestore:"createdAt" gorm:"index"`
	// Sequence orders messages that share a CreatedAt value.
	Sequence  int64  `json:"sequence" firestore:"sequence"`
	IsRead    bool   `json:"is_read" firestore:"isRead"`
	ListingID string `json:"listing_id,omitempty" firestore:"listingId,omitempty" gorm:"type:varchar(64)"`
}

// Involves reports whether userID is the sender or the recipient.
func (m *Message) Involves(userID string) bool {
	return m.SenderID == userID || m.RecipientID == userID
}

// PartnerOf returns the other party of the message from userID's point of view.
func (m *Message) PartnerOf(userID string) string {
	if m.SenderID == userID {
		return m.RecipientID
	}
	return m.SenderID
}

// Before orders messages by CreatedAt, then by insertion Sequence.
func (m *Message) Before(other *Message) bool {
	if !m.CreatedAt.Equal(other.CreatedAt) {
		return m.CreatedAt.Before(other.CreatedAt)
	}
	return m.Sequence < other.Sequence
}

type ConversationSummary struct {
	PartnerID     string         `json:"partner_id"`
	Partner       *PublicProfile `json:"partner,omitempty"`
	LatestMessage *Message       `json:"latest_message"`
	UnreadCount   int            `json:"unread_count"`
}
