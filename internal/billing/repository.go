// File: internal/billing/repository.go
package billing

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines the interface for billing data access.
type Repository interface {
	FindSubscriptionByUser(ctx context.Context, userID uuid.UUID) (*UserSubscription, error)
	CreateSubscription(ctx context.Context, sub *UserSubscription) error
	UpdateSubscription(ctx context.Context, sub *UserSubscription) error
	CreateCheckoutSession(ctx context.Context, session *CheckoutSession) error
	FindCheckoutSession(ctx context.Context, userID, sessionID uuid.UUID) (*CheckoutSession, error)
	UpdateCheckoutSession(ctx context.Context, session *CheckoutSession) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM billing repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) FindSubscriptionByUser(ctx context.Context, userID uuid.UUID) (*UserSubscription, error) {
	var sub UserSubscription
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

func (r *gormRepository) CreateSubscription(ctx context.Context, sub *UserSubscription) error {
	return r.db.WithContext(ctx).Create(sub).Error
}

func (r *gormRepository) UpdateSubscription(ctx context.Context, sub *UserSubscription) error {
	return r.db.WithContext(ctx).Save(sub).Error
}

func (r *gormRepository) CreateCheckoutSession(ctx context.Context, session *CheckoutSession) error {
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *gormRepository) FindCheckoutSession(ctx context.Context, userID, sessionID uuid.UUID) (*CheckoutSession, error) {
	var session CheckoutSession
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", sessionID, userID).
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

func (r *gormRepository) UpdateCheckoutSession(ctx context.Context, session *CheckoutSession) error {
	return r.db.WithContext(ctx).Save(session).Error
}
