package models

import (
	"time"

	"github.com/google/uuid"
)

// Conversation opens once a pair connects. UserAID and UserBID follow
// the same ascending order the pair's interaction row uses.
type Conversation struct {
	ID            uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4()" json:"id"`
	UserAID       uint      `gorm:"not null;uniqueIndex:idx_conversation_pair" json:"user_a_id"`
	UserBID       uint      `gorm:"not null;uniqueIndex:idx_conversation_pair" json:"user_b_id"`
	UserA         User      `gorm:"foreignKey:UserAID" json:"-"`
	UserB         User      `gorm:"foreignKey:UserBID" json:"-"`
	LastMessage   string    `json:"last_message"`
	LastMessageAt time.Time `json:"last_message_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	CreatedAt     time.Time `json:"created_at"`
}

// HasParticipant reports whether userID belongs to this conversation.
func (c *Conversation) HasParticipant(userID uint) bool {
	return c.UserAID == userID || c.UserBID == userID
}

// CounterpartOf returns the other participant.
func (c *Conversation) CounterpartOf(userID uint) uint {
	if c.UserAID == userID {
		return c.UserBID
	}
	return c.UserAID
}

// ConversationResponse is one row of the inbox listing. Unread is
// counted from the messages at read time, never stored.
type ConversationResponse struct {
	ID            uuid.UUID    `json:"id"`
	Counterpart   UserResponse `json:"counterpart"`
	LastMessage   string       `json:"last_message"`
	LastMessageAt time.Time    `json:"last_message_at"`
	Unread        int64        `json:"unread"`
}
