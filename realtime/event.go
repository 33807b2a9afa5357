package realtime

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/icebreakerhq/icebreaker/models"
)

// Events pushed to clients.
const (
	EventNewMessage     = "new_message"
	EventDeliveryUpdate = "delivery_update"
	EventTyping         = "typing"
	EventRead           = "read"
	EventPresence       = "presence"
	EventError          = "error"
)

// Events accepted from clients.
const (
	EventSendMessage  = "send_message"
	EventTypingSignal = "typing_signal"
	EventMarkRead     = "mark_read"
)

// Event is the frame every websocket message uses in both directions.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func NewEvent(eventType string, payload interface{}) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{Type: eventType, Payload: raw}, nil
}

type TypingPayload struct {
	ConversationID uuid.UUID `json:"conversation_id"`
	UserID         uint      `json:"user_id"`
	Typing         bool      `json:"typing"`
}

type DeliveryPayload struct {
	ConversationID uuid.UUID             `json:"conversation_id"`
	MessageIDs     []uuid.UUID           `json:"message_ids"`
	Status         models.DeliveryStatus `json:"status"`
}

type PresencePayload struct {
	UserID uint `json:"user_id"`
	Online bool `json:"online"`
}

// SendMessagePayload is what a client submits over the socket; the
// same message shape can also arrive over REST.
type SendMessagePayload struct {
	ConversationID uuid.UUID `json:"conversation_id"`
	Body           string    `json:"body"`
}

// TypingSignalPayload carries one keystroke signal. Typing false is
// an explicit stop, otherwise the idle timer decides.
type TypingSignalPayload struct {
	ConversationID uuid.UUID `json:"conversation_id"`
	Typing         bool      `json:"typing"`
}

type MarkReadPayload struct {
	ConversationID uuid.UUID `json:"conversation_id"`
}

// ErrorPayload carries a line the client can show as is.
type ErrorPayload struct {
	Message string `json:"message"`
}
