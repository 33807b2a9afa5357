package errors

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Parallel()

	err := New("something went sideways", http.StatusTeapot)
	require.Equal(t, "something went sideways", err.Message)
	require.Equal(t, http.StatusTeapot, err.Status)
	require.Equal(t, "message: something went sideways, status: 418", err.Error())
}

func TestGetUniqueContraintError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		err         error
		wantMessage string
	}{
		{"email violation", errors.New(`duplicate key value violates unique constraint "idx_users_email"`), "user with this email already exists"},
		{"handle violation", errors.New("handle already in use"), "this handle is already taken"},
		{"anything else", errors.New("duplicate key value"), "duplicate record"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			apiErr := GetUniqueContraintError(tt.err)
			require.Equal(t, tt.wantMessage, apiErr.Message)
			require.Equal(t, http.StatusConflict, apiErr.Status)
		})
	}
}
