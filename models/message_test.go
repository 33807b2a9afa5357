package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDeliveryStatusCanTransition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		from DeliveryStatus
		to   DeliveryStatus
		want bool
	}{
		{"sending to sent", StatusSending, StatusSent, true},
		{"sent to delivered", StatusSent, StatusDelivered, true},
		{"delivered to read", StatusDelivered, StatusRead, true},
		{"sent skips to read", StatusSent, StatusRead, true},
		{"sending skips to delivered", StatusSending, StatusDelivered, true},

		{"delivered back to sent", StatusDelivered, StatusSent, false},
		{"read back to delivered", StatusRead, StatusDelivered, false},
		{"sent to itself", StatusSent, StatusSent, false},

		{"sending to failed", StatusSending, StatusFailed, true},
		{"sent to failed", StatusSent, StatusFailed, true},
		{"delivered to failed", StatusDelivered, StatusFailed, true},
		{"read to failed", StatusRead, StatusFailed, false},
		{"failed to sent", StatusFailed, StatusSent, false},
		{"failed to failed", StatusFailed, StatusFailed, false},

		{"unknown source", DeliveryStatus("queued"), StatusSent, false},
		{"unknown target", StatusSent, DeliveryStatus("queued"), false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, tt.from.CanTransition(tt.to))
		})
	}
}

func TestDeliveryStatusTerminal(t *testing.T) {
	t.Parallel()

	require.False(t, StatusSending.Terminal())
	require.False(t, StatusSent.Terminal())
	require.False(t, StatusDelivered.Terminal())
	require.True(t, StatusRead.Terminal())
	require.True(t, StatusFailed.Terminal())
}

func TestDeliveryStatusValid(t *testing.T) {
	t.Parallel()

	for _, s := range []DeliveryStatus{StatusSending, StatusSent, StatusDelivered, StatusRead, StatusFailed} {
		require.True(t, s.Valid(), string(s))
	}
	require.False(t, DeliveryStatus("queued").Valid())
	require.False(t, DeliveryStatus("").Valid())
}

func TestMessageUnreadFor(t *testing.T) {
	t.Parallel()

	const viewer, sender = uint(1), uint(2)

	tests := []struct {
		name string
		msg  Message
		want bool
	}{
		{"counterpart sent, still sent", Message{SenderID: sender, Status: StatusSent}, true},
		{"counterpart sent, delivered", Message{SenderID: sender, Status: StatusDelivered}, true},
		{"counterpart sent, read", Message{SenderID: sender, Status: StatusRead}, false},
		{"counterpart sent, failed", Message{SenderID: sender, Status: StatusFailed}, false},
		{"own message never counts", Message{SenderID: viewer, Status: StatusSent}, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m := tt.msg
			require.Equal(t, tt.want, m.UnreadFor(viewer))
		})
	}
}
