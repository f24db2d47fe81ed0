package types

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ierr "github.com/tutordesk/tutordesk/internal/errors"
)

func TestNewAccessToken(t *testing.T) {
	now := time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)

	tok, err := NewAccessToken(FormTokenTTL, now)
	require.NoError(t, err)

	raw, err := base64.RawURLEncoding.DecodeString(tok.Value)
	require.NoError(t, err)
	assert.Len(t, raw, TokenBytes)
	assert.Equal(t, now.Add(7*24*time.Hour), tok.ExpiresAt)

	other, err := NewAccessToken(FormTokenTTL, now)
	require.NoError(t, err)
	assert.NotEqual(t, tok.Value, other.Value)
}

func TestCheckExpiry(t *testing.T) {
	expiresAt := time.Date(2026, time.March, 8, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		expiresAt *time.Time
		now       time.Time
		expired   bool
	}{
		{name: "one second before expiry", expiresAt: &expiresAt, now: expiresAt.Add(-time.Second)},
		{name: "exactly at expiry", expiresAt: &expiresAt, now: expiresAt},
		{name: "one second after expiry", expiresAt: &expiresAt, now: expiresAt.Add(time.Second), expired: true},
		{name: "missing expiry", expiresAt: nil, now: expiresAt, expired: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckExpiry(tt.expiresAt, tt.now)
			if !tt.expired {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, ierr.IsTokenExpired(err))
			assert.Equal(t, "Ce lien a expiré", ierr.GetHint(err))
		})
	}
}
