package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSession(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	s, err := NewSession(CreateSessionParams{Token: " tok ", UserID: "u-1", TTL: time.Hour, Now: now})
	require.NoError(t, err)
	assert.Equal(t, Token("tok"), s.Token)
	assert.False(t, s.Expired(now.Add(59*time.Minute)))
	assert.True(t, s.Expired(now.Add(time.Hour)))

	_, err = NewSession(CreateSessionParams{Token: "tok", UserID: "u-1", Now: now})
	assert.ErrorIs(t, err, ErrTTLInvalid)
	_, err = NewSession(CreateSessionParams{UserID: "u-1", TTL: time.Hour, Now: now})
	assert.ErrorIs(t, err, ErrTokenRequired)
}
