// File: internal/auth/token_test.go
package auth

import (
	"testing"
	"time"

	"apt_briefing_backend/internal/config"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokenManager() *TokenManager {
	return NewTokenManager(&config.Config{
		AuthSecretKey:       "test-secret-key-for-signing",
		AuthJWTIssuer:       "apt-briefing",
		AuthAccessTokenTTL:  15 * time.Minute,
		AuthRefreshTokenTTL: 720 * time.Hour,
	})
}

func TestAccessTokenRoundTrip(t *testing.T) {
	tm := newTestTokenManager()
	userID := uuid.New()

	signed, tokenID, err := tm.IssueAccessToken(userID, "user@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, signed)
	require.NotEmpty(t, tokenID)

	parsed, err := tm.ParseAccessToken(signed)
	require.NoError(t, err)
	assert.Equal(t, userID, parsed.UserID)
	assert.Equal(t, "user@example.com", parsed.Email)
	assert.Equal(t, tokenID, parsed.TokenID)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), parsed.ExpiresAt, 5*time.Second)
}

func TestParseAccessTokenRejectsWrongSecret(t *testing.T) {
	tm := newTestTokenManager()
	signed, _, err := tm.IssueAccessToken(uuid.New(), "user@example.com")
	require.NoError(t, err)

	other := newTestTokenManager()
	other.secret = []byte("a-different-secret")
	_, err = other.ParseAccessToken(signed)
	assert.Error(t, err)
}

func TestParseAccessTokenRejectsWrongIssuer(t *testing.T) {
	tm := newTestTokenManager()
	tm.issuer = "someone-else"
	signed, _, err := tm.IssueAccessToken(uuid.New(), "user@example.com")
	require.NoError(t, err)

	_, err = newTestTokenManager().ParseAccessToken(signed)
	assert.Error(t, err)
}

func TestParseAccessTokenRejectsExpired(t *testing.T) {
	tm := newTestTokenManager()
	tm.now = func() time.Time { return time.Now().Add(-time.Hour) }
	signed, _, err := tm.IssueAccessToken(uuid.New(), "user@example.com")
	require.NoError(t, err)

	_, err = newTestTokenManager().ParseAccessToken(signed)
	assert.Error(t, err)
}

func TestNewRefreshTokenStoresOnlyHash(t *testing.T) {
	tm := newTestTokenManager()
	raw, hash, expiresAt, err := tm.NewRefreshToken()
	require.NoError(t, err)

	assert.Len(t, raw, 64)
	assert.NotEqual(t, raw, hash)
	assert.Equal(t, HashRefreshToken(raw), hash)
	assert.WithinDuration(t, time.Now().Add(720*time.Hour), expiresAt, 5*time.Second)

	raw2, hash2, _, err := tm.NewRefreshToken()
	require.NoError(t, err)
	assert.NotEqual(t, raw, raw2)
	assert.NotEqual(t, hash, hash2)
}
