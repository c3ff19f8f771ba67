// File: internal/billing/model.go
package billing

import (
	"time"

	"apt_briefing_backend/internal/common"

	"github.com/google/uuid"
)

// Subscription statuses.
const (
	SubscriptionStatusActive   = "ACTIVE"
	SubscriptionStatusCanceled = "CANCELED"
)

// Checkout session statuses.
const (
	CheckoutStatusPending   = "PENDING"
	CheckoutStatusCompleted = "COMPLETED"
	CheckoutStatusCanceled  = "CANCELED"
)

// UserSubscription records which plan a user is on. Every user has exactly
// one row; new users start on the free plan.
type UserSubscription struct {
	common.BaseModel
	UserID           uuid.UUID  `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	PlanCode         string     `gorm:"size:32;not null;default:FREE" json:"plan_code"`
	Status           string     `gorm:"size:32;not null;default:ACTIVE" json:"status"`
	CurrentPeriodEnd *time.Time `json:"current_period_end,omitempty"`
}

// TableName specifies the table name for the UserSubscription model.
func (UserSubscription) TableName() string {
	return "user_subscriptions"
}

// CheckoutSession is a pending plan purchase. Payment capture happens out of
// band; completing a session flips the user's subscription.
type CheckoutSession struct {
	common.BaseModel
	UserID      uuid.UUID  `gorm:"type:uuid;index;not null" json:"user_id"`
	PlanCode    string     `gorm:"size:32;not null" json:"plan_code"`
	AmountKRW   int        `gorm:"not null" json:"amount_krw"`
	Status      string     `gorm:"size:32;not null;default:PENDING" json:"status"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// TableName specifies the table name for the CheckoutSession model.
func (CheckoutSession) TableName() string {
	return "billing_checkout_sessions"
}
