package realtime

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type stopRecorder struct {
	mu    sync.Mutex
	stops []stopEvent
}

type stopEvent struct {
	conversation uuid.UUID
	user         uint
	counterpart  uint
}

func (r *stopRecorder) record(conversationID uuid.UUID, userID, counterpartID uint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stops = append(r.stops, stopEvent{conversation: conversationID, user: userID, counterpart: counterpartID})
}

func (r *stopRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stops)
}

func TestTypingRegistryIdleRevert(t *testing.T) {
	t.Parallel()

	rec := &stopRecorder{}
	reg := NewTypingRegistry(30*time.Millisecond, rec.record)
	conv := uuid.New()

	require.True(t, reg.Keystroke(conv, 1, 2))
	require.True(t, reg.IsTyping(conv, 1))

	require.Eventually(t, func() bool { return rec.count() == 1 }, 2*time.Second, 5*time.Millisecond)
	require.False(t, reg.IsTyping(conv, 1))

	// The spell already ended, the timer must not fire again.
	time.Sleep(100 * time.Millisecond)
	require.Equal(t, 1, rec.count())
	require.Equal(t, stopEvent{conversation: conv, user: 1, counterpart: 2}, rec.stops[0])
}

func TestTypingRegistryKeystrokeExtends(t *testing.T) {
	t.Parallel()

	rec := &stopRecorder{}
	reg := NewTypingRegistry(60*time.Millisecond, rec.record)
	conv := uuid.New()

	require.True(t, reg.Keystroke(conv, 1, 2))
	for i := 0; i < 5; i++ {
		time.Sleep(20 * time.Millisecond)
		require.False(t, reg.Keystroke(conv, 1, 2))
	}

	// Keystrokes kept arriving inside the idle window, so no revert yet.
	require.Equal(t, 0, rec.count())
	require.True(t, reg.IsTyping(conv, 1))

	require.Eventually(t, func() bool { return rec.count() == 1 }, 2*time.Second, 5*time.Millisecond)
}

func TestTypingRegistryExplicitStop(t *testing.T) {
	t.Parallel()

	rec := &stopRecorder{}
	reg := NewTypingRegistry(30*time.Millisecond, rec.record)
	conv := uuid.New()

	require.True(t, reg.Keystroke(conv, 1, 2))
	require.True(t, reg.Stop(conv, 1))
	require.Equal(t, 1, rec.count())
	require.False(t, reg.IsTyping(conv, 1))

	// The idle timer was cancelled, nothing more fires.
	time.Sleep(100 * time.Millisecond)
	require.Equal(t, 1, rec.count())

	require.False(t, reg.Stop(conv, 1))
	require.Equal(t, 1, rec.count())
}

func TestTypingRegistryNewSpellAfterStop(t *testing.T) {
	t.Parallel()

	rec := &stopRecorder{}
	reg := NewTypingRegistry(time.Minute, rec.record)
	conv := uuid.New()

	require.True(t, reg.Keystroke(conv, 1, 2))
	require.True(t, reg.Stop(conv, 1))
	require.True(t, reg.Keystroke(conv, 1, 2))
	require.True(t, reg.IsTyping(conv, 1))
}

func TestTypingRegistryStopAll(t *testing.T) {
	t.Parallel()

	rec := &stopRecorder{}
	reg := NewTypingRegistry(time.Minute, rec.record)
	convA, convB := uuid.New(), uuid.New()

	require.True(t, reg.Keystroke(convA, 1, 2))
	require.True(t, reg.Keystroke(convB, 1, 3))
	require.True(t, reg.Keystroke(convA, 2, 1))

	reg.StopAll(1)

	require.Equal(t, 2, rec.count())
	require.False(t, reg.IsTyping(convA, 1))
	require.False(t, reg.IsTyping(convB, 1))
	require.True(t, reg.IsTyping(convA, 2))
	require.Equal(t, []uint{2}, reg.Typing(convA))
}
