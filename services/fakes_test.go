package services

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/icebreakerhq/icebreaker/db"
	"github.com/icebreakerhq/icebreaker/models"
)

// The fakes embed their repository interface so each test only
// implements what it touches; an unexpected call panics on the nil
// interface and points straight at the hole.

type fakeAuthRepo struct {
	db.AuthRepository
	users  map[uint]*models.User
	nextID uint
}

func newFakeAuthRepo(users ...*models.User) *fakeAuthRepo {
	r := &fakeAuthRepo{users: make(map[uint]*models.User)}
	for _, u := range users {
		r.put(u)
	}
	return r
}

func (r *fakeAuthRepo) put(u *models.User) *models.User {
	if u.ID == 0 {
		r.nextID++
		u.ID = r.nextID
	} else if u.ID > r.nextID {
		r.nextID = u.ID
	}
	r.users[u.ID] = u
	return u
}

func (r *fakeAuthRepo) CreateUser(user *models.User) (*models.User, error) {
	return r.put(user), nil
}

func (r *fakeAuthRepo) IsEmailExist(email string) error {
	for _, u := range r.users {
		if u.Email == email {
			return errors.New("email already in use")
		}
	}
	return nil
}

func (r *fakeAuthRepo) IsHandleExist(handle string) error {
	for _, u := range r.users {
		if u.Handle == handle {
			return errors.New("handle already in use")
		}
	}
	return nil
}

func (r *fakeAuthRepo) FindUserByEmail(email string) (*models.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, errors.New("user not found")
}

func (r *fakeAuthRepo) FindUserByHandle(handle string) (*models.User, error) {
	for _, u := range r.users {
		if u.Handle == handle {
			return u, nil
		}
	}
	return nil, errors.New("user not found")
}

func (r *fakeAuthRepo) FindUserByID(id uint) (*models.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, errors.New("user not found")
	}
	return u, nil
}

func (r *fakeAuthRepo) GetUserProfile(id uint) (*models.User, error) {
	return r.FindUserByID(id)
}

func (r *fakeAuthRepo) UpdateUserLocation(userID uint, latitude, longitude float64) error {
	u, ok := r.users[userID]
	if !ok {
		return errors.New("user not found")
	}
	u.Latitude = latitude
	u.Longitude = longitude
	return nil
}

func (r *fakeAuthRepo) ListDiscoverCandidates(userID uint, limit int) ([]models.User, error) {
	var out []models.User
	for _, u := range r.users {
		if u.ID == userID {
			continue
		}
		out = append(out, *u)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

type pairKey struct{ lo, hi uint }

type fakeInteractionRepo struct {
	db.InteractionRepository
	records map[pairKey]*models.Interaction
}

func newFakeInteractionRepo() *fakeInteractionRepo {
	return &fakeInteractionRepo{records: make(map[pairKey]*models.Interaction)}
}

func (r *fakeInteractionRepo) key(a, b uint) pairKey {
	lo, hi := models.NormalizePair(a, b)
	return pairKey{lo: lo, hi: hi}
}

func (r *fakeInteractionRepo) GetInteraction(userA, userB uint) (*models.Interaction, error) {
	in, ok := r.records[r.key(userA, userB)]
	if !ok {
		return nil, nil
	}
	found := *in
	return &found, nil
}

func (r *fakeInteractionRepo) UpsertInteraction(actorID, counterpartID uint, kind models.InteractionKind, message string) (*models.Interaction, error) {
	lo, hi := models.NormalizePair(actorID, counterpartID)
	in := &models.Interaction{UserAID: lo, UserBID: hi, ActorID: actorID, Kind: kind, Message: message}
	r.records[r.key(actorID, counterpartID)] = in
	saved := *in
	return &saved, nil
}

func (r *fakeInteractionRepo) ListReceived(userID uint) ([]models.Interaction, error) {
	var out []models.Interaction
	for _, in := range r.records {
		if in.UserAID != userID && in.UserBID != userID {
			continue
		}
		if in.ActorID == userID {
			continue
		}
		if in.Kind != models.KindWave && in.Kind != models.KindIntro {
			continue
		}
		out = append(out, *in)
	}
	return out, nil
}

func (r *fakeInteractionRepo) ListConnections(userID uint) ([]models.Interaction, error) {
	var out []models.Interaction
	for _, in := range r.records {
		if (in.UserAID == userID || in.UserBID == userID) && in.Kind == models.KindConversation {
			out = append(out, *in)
		}
	}
	return out, nil
}

type fakeChatRepo struct {
	db.ChatRepository
	conversations map[uuid.UUID]*models.Conversation
	messages      []*models.Message
}

func newFakeChatRepo() *fakeChatRepo {
	return &fakeChatRepo{conversations: make(map[uuid.UUID]*models.Conversation)}
}

func (r *fakeChatRepo) addConversation(userA, userB uint) *models.Conversation {
	lo, hi := models.NormalizePair(userA, userB)
	c := &models.Conversation{ID: uuid.New(), UserAID: lo, UserBID: hi}
	r.conversations[c.ID] = c
	return c
}

func (r *fakeChatRepo) FirstOrCreateConversation(userA, userB uint) (*models.Conversation, error) {
	lo, hi := models.NormalizePair(userA, userB)
	for _, c := range r.conversations {
		if c.UserAID == lo && c.UserBID == hi {
			return c, nil
		}
	}
	return r.addConversation(userA, userB), nil
}

func (r *fakeChatRepo) GetConversation(id uuid.UUID) (*models.Conversation, error) {
	c, ok := r.conversations[id]
	if !ok {
		return nil, errors.New("conversation not found")
	}
	return c, nil
}

func (r *fakeChatRepo) GetConversationByPair(userA, userB uint) (*models.Conversation, error) {
	lo, hi := models.NormalizePair(userA, userB)
	for _, c := range r.conversations {
		if c.UserAID == lo && c.UserBID == hi {
			return c, nil
		}
	}
	return nil, nil
}

func (r *fakeChatRepo) ListConversations(userID uint) ([]models.Conversation, error) {
	var out []models.Conversation
	for _, c := range r.conversations {
		if c.HasParticipant(userID) {
			out = append(out, *c)
		}
	}
	return out, nil
}

// CreateMessage stores a copy, the way a real row would detach from
// the caller's struct.
func (r *fakeChatRepo) CreateMessage(message *models.Message) error {
	if message.ID == uuid.Nil {
		message.ID = uuid.New()
	}
	message.CreatedAt = time.Now()
	stored := *message
	r.messages = append(r.messages, &stored)
	if c, ok := r.conversations[message.ConversationID]; ok {
		c.LastMessage = message.Body
		c.LastMessageAt = message.CreatedAt
	}
	return nil
}

func (r *fakeChatRepo) message(id uuid.UUID) *models.Message {
	for _, m := range r.messages {
		if m.ID == id {
			return m
		}
	}
	return nil
}

func (r *fakeChatRepo) ListMessages(conversationID uuid.UUID, limit int) ([]models.Message, error) {
	var out []models.Message
	for _, m := range r.messages {
		if m.ConversationID == conversationID {
			out = append(out, *m)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeChatRepo) ListRecentMessages(conversationID uuid.UUID, limit int) ([]models.Message, error) {
	all, _ := r.ListMessages(conversationID, 0)
	if limit > 0 && len(all) > limit {
		all = all[len(all)-limit:]
	}
	return all, nil
}

func (r *fakeChatRepo) UpdateMessageStatus(messageID uuid.UUID, status models.DeliveryStatus) error {
	m := r.message(messageID)
	if m == nil {
		return errors.New("no rows affected")
	}
	m.Status = status
	return nil
}

func (r *fakeChatRepo) MarkDelivered(conversationID uuid.UUID, recipientID uint) (int64, error) {
	var n int64
	for _, m := range r.messages {
		if m.ConversationID != conversationID || m.SenderID == recipientID {
			continue
		}
		if m.Status == models.StatusSending || m.Status == models.StatusSent {
			m.Status = models.StatusDelivered
			n++
		}
	}
	return n, nil
}

func (r *fakeChatRepo) MarkConversationRead(conversationID uuid.UUID, readerID uint) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, m := range r.messages {
		if m.ConversationID == conversationID && m.UnreadFor(readerID) {
			m.Status = models.StatusRead
			ids = append(ids, m.ID)
		}
	}
	return ids, nil
}

func (r *fakeChatRepo) CountUnread(conversationID uuid.UUID, viewerID uint) (int64, error) {
	var count int64
	for _, m := range r.messages {
		if m.ConversationID == conversationID && m.UnreadFor(viewerID) {
			count++
		}
	}
	return count, nil
}

type deliveryNote struct {
	userID         uint
	conversationID uuid.UUID
	messageIDs     []uuid.UUID
	status         models.DeliveryStatus
}

type typingNote struct {
	conversationID uuid.UUID
	userID         uint
	counterpartID  uint
}

type fakeBroadcaster struct {
	online     map[uint]bool
	delivered  map[uint][]*models.Message
	deliveries []deliveryNote
	keystrokes []typingNote
	stops      []typingNote
}

func newFakeBroadcaster(onlineUsers ...uint) *fakeBroadcaster {
	b := &fakeBroadcaster{
		online:    make(map[uint]bool),
		delivered: make(map[uint][]*models.Message),
	}
	for _, id := range onlineUsers {
		b.online[id] = true
	}
	return b
}

func (b *fakeBroadcaster) IsOnline(userID uint) bool { return b.online[userID] }

func (b *fakeBroadcaster) DeliverMessage(recipientID uint, message *models.Message) bool {
	if !b.online[recipientID] {
		return false
	}
	b.delivered[recipientID] = append(b.delivered[recipientID], message)
	return true
}

func (b *fakeBroadcaster) NotifyDelivery(userID uint, conversationID uuid.UUID, messageIDs []uuid.UUID, status models.DeliveryStatus) {
	b.deliveries = append(b.deliveries, deliveryNote{
		userID:         userID,
		conversationID: conversationID,
		messageIDs:     messageIDs,
		status:         status,
	})
}

func (b *fakeBroadcaster) HandleTyping(conversationID uuid.UUID, userID, counterpartID uint) {
	b.keystrokes = append(b.keystrokes, typingNote{conversationID: conversationID, userID: userID, counterpartID: counterpartID})
}

func (b *fakeBroadcaster) StopTyping(conversationID uuid.UUID, userID uint) {
	b.stops = append(b.stops, typingNote{conversationID: conversationID, userID: userID})
}

type pushNote struct {
	userID  uint
	message string
}

type fakeNotifier struct {
	NotificationService
	notes []pushNote
}

func (f *fakeNotifier) NotifyUser(userID uint, message string) {
	f.notes = append(f.notes, pushNote{userID: userID, message: message})
}
