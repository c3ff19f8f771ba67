// File: internal/middleware/auth.go
package middleware

import (
	"context"
	"strings"

	"apt_briefing_backend/internal/common"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// AuthorizationHeader is the header name for authorization token
	AuthorizationHeader = "Authorization"
	// AuthorizationTypeBearer is the prefix for Bearer tokens
	AuthorizationTypeBearer = "bearer"
	// UserIDKey is the context key for storing the authenticated user's ID
	UserIDKey = "userID"
	// UserEmailKey is the context key for storing the authenticated user's email
	UserEmailKey = "userEmail"
)

// TokenClaims is the validated identity extracted from an access token.
type TokenClaims struct {
	UserID  uuid.UUID
	Email   string
	TokenID string
}

// TokenVerifier validates bearer tokens. The auth service implements it;
// keeping the interface here avoids an import cycle with handlers that use
// this middleware.
type TokenVerifier interface {
	VerifyAccessToken(ctx context.Context, token string) (*TokenClaims, error)
}

// AuthMiddleware creates a Gin middleware for JWT authentication.
func AuthMiddleware(verifier TokenVerifier, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(AuthorizationHeader)
		if authHeader == "" {
			common.RespondWithError(c, common.ErrUnauthorized.WithDetails("Authorization header is required."))
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != AuthorizationTypeBearer {
			common.RespondWithError(c, common.ErrUnauthorized.WithDetails("Authorization header format must be 'Bearer <token>'."))
			return
		}

		claims, err := verifier.VerifyAccessToken(c.Request.Context(), parts[1])
		if err != nil {
			logger.Warn("Token validation failed", zap.Error(err))
			common.RespondWithError(c, common.ErrUnauthorized.WithDetails("Invalid or expired token."))
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(UserEmailKey, claims.Email)

		c.Next()
	}
}

// GetUserIDFromContext retrieves the authenticated user's ID from the Gin
// context. It errors when no authenticated user is present.
func GetUserIDFromContext(c *gin.Context) (uuid.UUID, error) {
	val, exists := c.Get(UserIDKey)
	if !exists {
		return uuid.Nil, common.ErrUnauthorized
	}
	userID, ok := val.(uuid.UUID)
	if !ok || userID == uuid.Nil {
		return uuid.Nil, common.ErrUnauthorized
	}
	return userID, nil
}
