package models

import (
	"time"

	"github.com/google/uuid"
)

// DeliveryStatus tracks one message through its lifecycle. The order
// is sending, sent, delivered, read; failed may be entered from any
// status that is not already terminal.
type DeliveryStatus string

const (
	StatusSending   DeliveryStatus = "sending"
	StatusSent      DeliveryStatus = "sent"
	StatusDelivered DeliveryStatus = "delivered"
	StatusRead      DeliveryStatus = "read"
	StatusFailed    DeliveryStatus = "failed"
)

var deliveryRank = map[DeliveryStatus]int{
	StatusSending:   0,
	StatusSent:      1,
	StatusDelivered: 2,
	StatusRead:      3,
}

func (s DeliveryStatus) Valid() bool {
	_, ok := deliveryRank[s]
	return ok || s == StatusFailed
}

// Terminal statuses accept no further transition.
func (s DeliveryStatus) Terminal() bool {
	return s == StatusRead || s == StatusFailed
}

// CanTransition reports whether next is a legal move from s. Skipping
// forward is allowed, so read may follow sent directly, but the
// lifecycle never walks backwards.
func (s DeliveryStatus) CanTransition(next DeliveryStatus) bool {
	if !s.Valid() || !next.Valid() {
		return false
	}
	if s.Terminal() {
		return false
	}
	if next == StatusFailed {
		return true
	}
	return deliveryRank[next] > deliveryRank[s]
}

type Message struct {
	ID             uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4()" json:"id"`
	ConversationID uuid.UUID      `gorm:"type:uuid;not null;index" json:"conversation_id"`
	Conversation   Conversation   `gorm:"foreignKey:ConversationID" json:"-"`
	SenderID       uint           `gorm:"not null" json:"sender_id"`
	Sender         User           `gorm:"foreignKey:SenderID" json:"-"`
	Body           string         `json:"body"`
	Status         DeliveryStatus `gorm:"not null;default:sent" json:"status"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// UnreadFor reports whether this message still counts against
// viewerID's unread total. Own messages never count, and a failed
// message never reached anyone.
func (m *Message) UnreadFor(viewerID uint) bool {
	if m.SenderID == viewerID {
		return false
	}
	return m.Status != StatusRead && m.Status != StatusFailed
}

// SendMessageRequest is the body accepted when posting to a conversation.
type SendMessageRequest struct {
	Body string `json:"body" binding:"required" conform:"trim"`
}
