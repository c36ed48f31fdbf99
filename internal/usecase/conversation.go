package usecase

import (
	"sort"

	"foodshare/internal/domain/entity"
)

// AggregateConversations groups the messages touching userID by partner.
// Messages not involving userID are ignored. The result is ordered by the
// latest message, newest first, ties by partner ID.
func AggregateConversations(userID string, messages []*entity.Message) []entity.ConversationSummary {
	byPartner := make(map[string]*entity.ConversationSummary)

	for _, m := range messages {
		if !m.Involves(userID) {
			continue
		}
		partnerID := m.PartnerOf(userID)

		summary, ok := byPartner[partnerID]
		if !ok {
			summary = &entity.ConversationSummary{PartnerID: partnerID}
			byPartner[partnerID] = summary
		}

		if summary.LatestMessage == nil || summary.LatestMessage.Before(m) {
			summary.LatestMessage = m
		}
		if m.SenderID == partnerID && m.RecipientID == userID && !m.IsRead {
			summary.UnreadCount++
		}
	}

	out := make([]entity.ConversationSummary, 0, len(byPartner))
	for _, s := range byPartner {
		out = append(out, *s)
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].LatestMessage, out[j].LatestMessage
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return out[i].PartnerID < out[j].PartnerID
	})

	return out
}

// sortThread orders a pair's messages oldest first, ties by insertion order.
func sortThread(messages []*entity.Message) {
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].Before(messages[j])
	})
}
