// File: internal/auth/repository.go
package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines the interface for auth token persistence.
type Repository interface {
	CreateRefreshToken(ctx context.Context, token *RefreshToken) error
	FindRefreshTokenByHash(ctx context.Context, hash string) (*RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, token *RefreshToken, at time.Time) error
	RevokeAllRefreshTokens(ctx context.Context, userID uuid.UUID, at time.Time) error
	CreateAccessTokenRevocation(ctx context.Context, revocation *AccessTokenRevocation) error
	IsAccessTokenRevoked(ctx context.Context, tokenID string) (bool, error)
	DeleteExpiredTokens(ctx context.Context, before time.Time) (int64, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM auth repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) CreateRefreshToken(ctx context.Context, token *RefreshToken) error {
	return r.db.WithContext(ctx).Create(token).Error
}

func (r *gormRepository) FindRefreshTokenByHash(ctx context.Context, hash string) (*RefreshToken, error) {
	var token RefreshToken
	err := r.db.WithContext(ctx).Where("token_hash = ?", hash).First(&token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &token, nil
}

func (r *gormRepository) RevokeRefreshToken(ctx context.Context, token *RefreshToken, at time.Time) error {
	token.RevokedAt = &at
	return r.db.WithContext(ctx).Model(token).Update("revoked_at", at).Error
}

func (r *gormRepository) RevokeAllRefreshTokens(ctx context.Context, userID uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&RefreshToken{}).
		Where("user_id = ? AND revoked_at IS NULL", userID).
		Update("revoked_at", at).Error
}

func (r *gormRepository) CreateAccessTokenRevocation(ctx context.Context, revocation *AccessTokenRevocation) error {
	return r.db.WithContext(ctx).Create(revocation).Error
}

func (r *gormRepository) IsAccessTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&AccessTokenRevocation{}).
		Where("token_id = ?", tokenID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// DeleteExpiredTokens removes refresh tokens and access token revocations
// whose expiry has passed. Returns the number of rows removed.
func (r *gormRepository) DeleteExpiredTokens(ctx context.Context, before time.Time) (int64, error) {
	var total int64

	res := r.db.WithContext(ctx).
		Where("expires_at < ?", before).
		Delete(&RefreshToken{})
	if res.Error != nil {
		return total, res.Error
	}
	total += res.RowsAffected

	res = r.db.WithContext(ctx).
		Where("expires_at < ?", before).
		Delete(&AccessTokenRevocation{})
	if res.Error != nil {
		return total, res.Error
	}
	total += res.RowsAffected

	return total, nil
}
