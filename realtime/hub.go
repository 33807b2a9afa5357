package realtime

import (
	"context"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/icebreakerhq/icebreaker/models"
	"go.uber.org/zap"
)

// Hub tracks every live socket, keyed by user, and owns the typing
// registry. A member holds one connection at a time.
type Hub struct {
	mu      sync.RWMutex
	clients map[uint]*Client

	register   chan *Client
	unregister chan *Client

	typing *TypingRegistry
	log    *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	// OnPresence, when set, observes members connecting and
	// disconnecting. Reconnects that replace a live socket do not
	// fire it.
	OnPresence func(userID uint, online bool)
}

func NewHub(log *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		clients:    make(map[uint]*Client),
		register:   make(chan *Client, 64),
		unregister: make(chan *Client, 64),
		log:        log,
		ctx:        ctx,
		cancel:     cancel,
	}
	h.typing = NewTypingRegistry(TypingIdle, h.typingStopped)

	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case <-h.ctx.Done():
			return
		case c := <-h.register:
			h.addClient(c)
		case c := <-h.unregister:
			h.removeClient(c)
		}
	}
}

func (h *Hub) addClient(c *Client) {
	h.mu.Lock()
	old, replaced := h.clients[c.userID]
	h.clients[c.userID] = c
	h.mu.Unlock()

	if replaced {
		old.Close()
		h.log.Info("replaced live connection", zap.Uint("user_id", c.userID))
		return
	}

	h.log.Info("client connected", zap.Uint("user_id", c.userID))
	if h.OnPresence != nil {
		h.OnPresence(c.userID, true)
	}
	h.BroadcastPresence(c.userID, true)
}

func (h *Hub) removeClient(c *Client) {
	h.mu.Lock()
	current, ok := h.clients[c.userID]
	if !ok || current != c {
		// an older connection going away after being replaced
		h.mu.Unlock()
		c.Close()
		return
	}
	delete(h.clients, c.userID)
	h.mu.Unlock()

	c.Close()
	h.typing.StopAll(c.userID)
	h.log.Info("client disconnected", zap.Uint("user_id", c.userID))
	if h.OnPresence != nil {
		h.OnPresence(c.userID, false)
	}
	h.BroadcastPresence(c.userID, false)
}

func (h *Hub) client(userID uint) (*Client, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.clients[userID]
	return c, ok
}

// IsOnline reports whether the member has a live socket right now.
func (h *Hub) IsOnline(userID uint) bool {
	_, ok := h.client(userID)
	return ok
}

func (h *Hub) OnlineCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) send(userID uint, eventType string, payload interface{}) bool {
	c, ok := h.client(userID)
	if !ok {
		return false
	}
	ev, err := NewEvent(eventType, payload)
	if err != nil {
		h.log.Error("marshal event failed", zap.String("type", eventType), zap.Error(err))
		return false
	}
	return c.Send(ev)
}

// DeliverMessage pushes a new message to its recipient, reporting
// whether a live socket accepted it.
func (h *Hub) DeliverMessage(recipientID uint, message *models.Message) bool {
	return h.send(recipientID, EventNewMessage, message)
}

// SendError pushes a line the member's client can show as is.
func (h *Hub) SendError(userID uint, message string) {
	h.send(userID, EventError, ErrorPayload{Message: message})
}

// NotifyDelivery tells one member that messages moved to a new
// delivery status.
func (h *Hub) NotifyDelivery(userID uint, conversationID uuid.UUID, messageIDs []uuid.UUID, status models.DeliveryStatus) {
	eventType := EventDeliveryUpdate
	if status == models.StatusRead {
		eventType = EventRead
	}
	h.send(userID, eventType, DeliveryPayload{
		ConversationID: conversationID,
		MessageIDs:     messageIDs,
		Status:         status,
	})
}

// HandleTyping registers one keystroke. The started indicator goes
// out only on the first keystroke of a spell; the registry's idle
// timer sends the stop.
func (h *Hub) HandleTyping(conversationID uuid.UUID, userID, counterpartID uint) {
	if h.typing.Keystroke(conversationID, userID, counterpartID) {
		h.send(counterpartID, EventTyping, TypingPayload{
			ConversationID: conversationID,
			UserID:         userID,
			Typing:         true,
		})
	}
}

// StopTyping ends the member's spell ahead of the idle timer.
func (h *Hub) StopTyping(conversationID uuid.UUID, userID uint) {
	h.typing.Stop(conversationID, userID)
}

func (h *Hub) typingStopped(conversationID uuid.UUID, userID, counterpartID uint) {
	h.send(counterpartID, EventTyping, TypingPayload{
		ConversationID: conversationID,
		UserID:         userID,
		Typing:         false,
	})
}

// TypingUsers returns who currently has a spell open in the
// conversation.
func (h *Hub) TypingUsers(conversationID uuid.UUID) []uint {
	return h.typing.Typing(conversationID)
}

// BroadcastPresence tells everyone else online about the change.
func (h *Hub) BroadcastPresence(userID uint, online bool) {
	ev, err := NewEvent(EventPresence, PresencePayload{UserID: userID, Online: online})
	if err != nil {
		return
	}

	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for id, c := range h.clients {
		if id == userID {
			continue
		}
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.Send(ev)
	}
}

func (h *Hub) Stop() {
	h.cancel()

	h.mu.Lock()
	for _, c := range h.clients {
		c.Close()
	}
	h.clients = make(map[uint]*Client)
	h.mu.Unlock()
}

var websocketUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeWS upgrades the request and runs the client's loops until the
// socket dies.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, userID uint, handler InboundHandler) {
	conn, err := websocketUpgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := newClient(userID, conn, h)
	h.register <- c

	go c.WriteLoop()
	go c.ReadLoop(handler)
}
