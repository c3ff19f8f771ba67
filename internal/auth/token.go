// File: internal/auth/token.go
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"apt_briefing_backend/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// accessClaims is the JWT payload for access tokens.
type accessClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// TokenManager signs and parses access tokens and mints opaque refresh
// tokens.
type TokenManager struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenManager creates a token manager from the auth configuration.
func NewTokenManager(cfg *config.Config) *TokenManager {
	return &TokenManager{
		secret:     []byte(cfg.AuthSecretKey),
		issuer:     cfg.AuthJWTIssuer,
		accessTTL:  cfg.AuthAccessTokenTTL,
		refreshTTL: cfg.AuthRefreshTokenTTL,
		now:        time.Now,
	}
}

// IssueAccessToken signs a new HS256 access token for the user. The second
// return value is the token's JWT ID, used for revocation on logout.
func (m *TokenManager) IssueAccessToken(userID uuid.UUID, email string) (string, string, error) {
	tokenID := uuid.NewString()
	now := m.now()
	claims := accessClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tokenID,
			Issuer:    m.issuer,
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessTTL)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, tokenID, nil
}

// ParsedAccessToken is the verified content of an access token.
type ParsedAccessToken struct {
	UserID    uuid.UUID
	Email     string
	TokenID   string
	ExpiresAt time.Time
}

// ParseAccessToken verifies the signature, issuer and expiry of an access
// token and returns its parsed content.
func (m *TokenManager) ParseAccessToken(tokenString string) (*ParsedAccessToken, error) {
	var claims accessClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithIssuer(m.issuer))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenUnverifiable
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("invalid subject claim: %w", err)
	}
	parsed := &ParsedAccessToken{
		UserID:  userID,
		Email:   claims.Email,
		TokenID: claims.ID,
	}
	if claims.ExpiresAt != nil {
		parsed.ExpiresAt = claims.ExpiresAt.Time
	}
	return parsed, nil
}

// NewRefreshToken mints an opaque refresh token. The raw value goes to the
// client; only its hash is stored.
func (m *TokenManager) NewRefreshToken() (raw string, hash string, expiresAt time.Time, err error) {
	buf := make([]byte, 32)
	if _, err = rand.Read(buf); err != nil {
		return "", "", time.Time{}, fmt.Errorf("generate refresh token: %w", err)
	}
	raw = hex.EncodeToString(buf)
	return raw, HashRefreshToken(raw), m.now().Add(m.refreshTTL), nil
}

// HashRefreshToken returns the hex SHA-256 digest stored for a raw refresh
// token.
func HashRefreshToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
