package realtime

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// TypingIdle is how long a typing indicator survives without another
// keystroke before it reverts on its own.
const TypingIdle = time.Second

type typingKey struct {
	conversation uuid.UUID
	user         uint
}

type typingState struct {
	timer       *time.Timer
	gen         uint64
	counterpart uint
}

// TypingRegistry tracks who is typing in which conversation. Each
// keystroke restarts the user's idle timer; when it expires, onStop
// fires exactly once for that typing spell.
type TypingRegistry struct {
	mu     sync.Mutex
	idle   time.Duration
	states map[typingKey]*typingState
	onStop func(conversationID uuid.UUID, userID, counterpartID uint)
}

func NewTypingRegistry(idle time.Duration, onStop func(conversationID uuid.UUID, userID, counterpartID uint)) *TypingRegistry {
	if idle <= 0 {
		idle = TypingIdle
	}
	return &TypingRegistry{
		idle:   idle,
		states: make(map[typingKey]*typingState),
		onStop: onStop,
	}
}

// Keystroke registers activity and reports whether it started a new
// typing spell. The generation counter keeps a timer that already
// fired, but lost the race for the lock, from reverting a newer spell.
func (t *TypingRegistry) Keystroke(conversationID uuid.UUID, userID, counterpartID uint) bool {
	k := typingKey{conversation: conversationID, user: userID}

	t.mu.Lock()
	defer t.mu.Unlock()

	if st, ok := t.states[k]; ok {
		st.timer.Stop()
		st.gen++
		gen := st.gen
		st.counterpart = counterpartID
		st.timer = time.AfterFunc(t.idle, func() { t.expire(k, gen) })
		return false
	}

	st := &typingState{gen: 1, counterpart: counterpartID}
	st.timer = time.AfterFunc(t.idle, func() { t.expire(k, 1) })
	t.states[k] = st
	return true
}

func (t *TypingRegistry) expire(k typingKey, gen uint64) {
	t.mu.Lock()
	st, ok := t.states[k]
	if !ok || st.gen != gen {
		t.mu.Unlock()
		return
	}
	counterpart := st.counterpart
	delete(t.states, k)
	t.mu.Unlock()

	if t.onStop != nil {
		t.onStop(k.conversation, k.user, counterpart)
	}
}

// Stop ends the spell immediately, firing onStop if one was active.
func (t *TypingRegistry) Stop(conversationID uuid.UUID, userID uint) bool {
	k := typingKey{conversation: conversationID, user: userID}

	t.mu.Lock()
	st, ok := t.states[k]
	if !ok {
		t.mu.Unlock()
		return false
	}
	st.timer.Stop()
	counterpart := st.counterpart
	delete(t.states, k)
	t.mu.Unlock()

	if t.onStop != nil {
		t.onStop(conversationID, userID, counterpart)
	}
	return true
}

// StopAll ends every spell the user has open, typically on disconnect.
func (t *TypingRegistry) StopAll(userID uint) {
	type stopped struct {
		conversation uuid.UUID
		counterpart  uint
	}

	t.mu.Lock()
	var ended []stopped
	for k, st := range t.states {
		if k.user != userID {
			continue
		}
		st.timer.Stop()
		ended = append(ended, stopped{conversation: k.conversation, counterpart: st.counterpart})
		delete(t.states, k)
	}
	t.mu.Unlock()

	if t.onStop == nil {
		return
	}
	for _, s := range ended {
		t.onStop(s.conversation, userID, s.counterpart)
	}
}

// IsTyping reports whether the user currently has a spell open in the
// conversation.
func (t *TypingRegistry) IsTyping(conversationID uuid.UUID, userID uint) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.states[typingKey{conversation: conversationID, user: userID}]
	return ok
}

// Typing returns the users with an open spell in the conversation.
func (t *TypingRegistry) Typing(conversationID uuid.UUID) []uint {
	t.mu.Lock()
	defer t.mu.Unlock()

	var users []uint
	for k := range t.states {
		if k.conversation == conversationID {
			users = append(users, k.user)
		}
	}
	return users
}
