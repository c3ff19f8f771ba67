// File: internal/auth/service.go
package auth

import (
	"context"
	"strings"
	"time"

	"apt_briefing_backend/internal/billing"
	"apt_briefing_backend/internal/common"
	"apt_briefing_backend/internal/config"
	"apt_briefing_backend/internal/middleware"
	"apt_briefing_backend/internal/notification"
	"apt_briefing_backend/internal/user"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// TokenPair is what a successful register, login or refresh hands back.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

// RegisterInput carries a registration request into the service.
type RegisterInput struct {
	Email       string
	Password    string
	DisplayName string
	InviteCode  string
	ClientKey   string
}

// Service defines the interface for authentication operations.
type Service interface {
	middleware.TokenVerifier
	Register(ctx context.Context, input RegisterInput) (*TokenPair, *user.User, error)
	Login(ctx context.Context, email, password string) (*TokenPair, *user.User, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	Logout(ctx context.Context, accessToken, refreshToken string) error
	CurrentUser(ctx context.Context, userID uuid.UUID) (*user.User, error)
	CleanupExpiredTokens(ctx context.Context) (int64, error)
}

// ServiceImplementation implements the auth Service interface.
type ServiceImplementation struct {
	repository    Repository
	users         user.Repository
	tokens        *TokenManager
	billing       billing.Service
	notifications notification.Service
	cfg           *config.Config
	logger        *zap.Logger
	registerLimit *registrationLimiter
	now           func() time.Time
}

// NewService creates a new auth service.
func NewService(
	repository Repository,
	users user.Repository,
	tokens *TokenManager,
	billingService billing.Service,
	notificationService notification.Service,
	cfg *config.Config,
	logger *zap.Logger,
) Service {
	return &ServiceImplementation{
		repository:    repository,
		users:         users,
		tokens:        tokens,
		billing:       billingService,
		notifications: notificationService,
		cfg:           cfg,
		logger:        logger,
		registerLimit: newRegistrationLimiter(cfg.AuthRegisterRateLimit, cfg.AuthRegisterRateWindow),
		now:           time.Now,
	}
}

func (s *ServiceImplementation) Register(ctx context.Context, input RegisterInput) (*TokenPair, *user.User, error) {
	if !s.registerLimit.Allow(input.ClientKey) {
		return nil, nil, common.ErrTooManyRequests.WithDetails("Too many registration attempts. Please try again later.")
	}
	if s.cfg.AuthRegisterInviteCode != "" && input.InviteCode != s.cfg.AuthRegisterInviteCode {
		return nil, nil, common.ErrForbidden.WithDetails("Invalid invite code.")
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, nil, common.ErrInternalServer.WithDetails("Failed to check existing accounts.")
	}
	if existing != nil {
		return nil, nil, common.ErrConflict.WithDetails("An account with this email already exists.")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, common.ErrInternalServer.WithDetails("Failed to hash password.")
	}

	u := &user.User{
		Email:        email,
		PasswordHash: string(hash),
		DisplayName:  strings.TrimSpace(input.DisplayName),
		IsActive:     true,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, nil, common.ErrInternalServer.WithDetails("Failed to create account.")
	}

	// New accounts get a free subscription and default notification
	// preferences up front so downstream reads never miss.
	if _, err := s.billing.EnsureSubscription(ctx, u.ID); err != nil {
		s.logger.Warn("Failed to provision subscription for new user",
			zap.String("user_id", u.ID.String()), zap.Error(err))
	}
	if _, err := s.notifications.EnsurePreference(ctx, u.ID); err != nil {
		s.logger.Warn("Failed to provision notification preference for new user",
			zap.String("user_id", u.ID.String()), zap.Error(err))
	}

	pair, err := s.issuePair(ctx, u)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("User registered", zap.String("user_id", u.ID.String()), zap.String("email", u.Email))
	return pair, u, nil
}

func (s *ServiceImplementation) Login(ctx context.Context, email, password string) (*TokenPair, *user.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, nil, common.ErrInternalServer.WithDetails("Failed to look up account.")
	}
	if u == nil || !u.IsActive {
		return nil, nil, common.ErrUnauthorized.WithDetails("Invalid email or password.")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, nil, common.ErrUnauthorized.WithDetails("Invalid email or password.")
	}

	pair, err := s.issuePair(ctx, u)
	if err != nil {
		return nil, nil, err
	}
	return pair, u, nil
}

func (s *ServiceImplementation) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	stored, err := s.repository.FindRefreshTokenByHash(ctx, HashRefreshToken(refreshToken))
	if err != nil {
		return nil, common.ErrInternalServer.WithDetails("Failed to look up refresh token.")
	}
	now := s.now()
	if stored == nil || stored.RevokedAt != nil || stored.ExpiresAt.Before(now) {
		return nil, common.ErrUnauthorized.WithDetails("Refresh token is invalid or expired.")
	}

	u, err := s.users.FindByID(ctx, stored.UserID)
	if err != nil {
		return nil, common.ErrInternalServer.WithDetails("Failed to look up account.")
	}
	if u == nil || !u.IsActive {
		return nil, common.ErrUnauthorized.WithDetails("Account is no longer active.")
	}

	// Rotation: the presented token is spent regardless of what happens
	// next.
	if err := s.repository.RevokeRefreshToken(ctx, stored, now); err != nil {
		return nil, common.ErrInternalServer.WithDetails("Failed to rotate refresh token.")
	}

	return s.issuePair(ctx, u)
}

func (s *ServiceImplementation) Logout(ctx context.Context, accessToken, refreshToken string) error {
	now := s.now()

	parsed, err := s.tokens.ParseAccessToken(accessToken)
	if err == nil {
		revocation := &AccessTokenRevocation{
			TokenID:   parsed.TokenID,
			UserID:    parsed.UserID,
			ExpiresAt: parsed.ExpiresAt,
		}
		if err := s.repository.CreateAccessTokenRevocation(ctx, revocation); err != nil {
			s.logger.Warn("Failed to record access token revocation", zap.Error(err))
		}
	}

	if refreshToken != "" {
		stored, err := s.repository.FindRefreshTokenByHash(ctx, HashRefreshToken(refreshToken))
		if err == nil && stored != nil && stored.RevokedAt == nil {
			if err := s.repository.RevokeRefreshToken(ctx, stored, now); err != nil {
				s.logger.Warn("Failed to revoke refresh token", zap.Error(err))
			}
		}
	}
	return nil
}

// VerifyAccessToken implements middleware.TokenVerifier. A token is valid
// when its signature checks out and its JWT ID has not been revoked.
func (s *ServiceImplementation) VerifyAccessToken(ctx context.Context, token string) (*middleware.TokenClaims, error) {
	parsed, err := s.tokens.ParseAccessToken(token)
	if err != nil {
		return nil, err
	}
	revoked, err := s.repository.IsAccessTokenRevoked(ctx, parsed.TokenID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, common.ErrUnauthorized.WithDetails("Token has been revoked.")
	}
	return &middleware.TokenClaims{
		UserID:  parsed.UserID,
		Email:   parsed.Email,
		TokenID: parsed.TokenID,
	}, nil
}

func (s *ServiceImplementation) CurrentUser(ctx context.Context, userID uuid.UUID) (*user.User, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, common.ErrInternalServer.WithDetails("Failed to look up account.")
	}
	if u == nil {
		return nil, common.ErrNotFound.WithDetails("User not found.")
	}
	return u, nil
}

// CleanupExpiredTokens removes refresh tokens and revocation rows whose
// expiry has passed. Run from the maintenance cron job.
func (s *ServiceImplementation) CleanupExpiredTokens(ctx context.Context) (int64, error) {
	return s.repository.DeleteExpiredTokens(ctx, s.now())
}

func (s *ServiceImplementation) issuePair(ctx context.Context, u *user.User) (*TokenPair, error) {
	access, _, err := s.tokens.IssueAccessToken(u.ID, u.Email)
	if err != nil {
		return nil, common.ErrInternalServer.WithDetails("Failed to issue access token.")
	}
	raw, hash, expiresAt, err := s.tokens.NewRefreshToken()
	if err != nil {
		return nil, common.ErrInternalServer.WithDetails("Failed to issue refresh token.")
	}
	if err := s.repository.CreateRefreshToken(ctx, &RefreshToken{
		UserID:    u.ID,
		TokenHash: hash,
		ExpiresAt: expiresAt,
	}); err != nil {
		return nil, common.ErrInternalServer.WithDetails("Failed to store refresh token.")
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: raw,
		TokenType:    "Bearer",
		ExpiresIn:    int(s.cfg.AuthAccessTokenTTL.Seconds()),
	}, nil
}
