// File: internal/billing/service.go
package billing

import (
	"context"
	"time"

	"apt_briefing_backend/internal/common"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Entitlements is the narrow, read-only view other packages use to enforce
// plan limits. A limit of zero means unlimited.
type Entitlements interface {
	PlanFor(ctx context.Context, userID uuid.UUID) (Plan, error)
	CompareLimit(ctx context.Context, userID uuid.UUID) (int, error)
	WatchLimit(ctx context.Context, userID uuid.UUID) (int, error)
	PresetLimit(ctx context.Context, userID uuid.UUID) (int, error)
	CanManualDispatch(ctx context.Context, userID uuid.UUID) (bool, error)
}

// Service defines the interface for billing operations.
type Service interface {
	Entitlements
	EnsureSubscription(ctx context.Context, userID uuid.UUID) (*UserSubscription, error)
	Overview(ctx context.Context, userID uuid.UUID) (*AccountOverview, error)
	CreateCheckout(ctx context.Context, userID uuid.UUID, planCode string) (*CheckoutSession, error)
	CompleteCheckout(ctx context.Context, userID, sessionID uuid.UUID) (*UserSubscription, error)
}

// AccountOverview is the /billing/me response shape.
type AccountOverview struct {
	Subscription *UserSubscription `json:"subscription"`
	Plan         Plan              `json:"plan"`
	Catalog      []Plan            `json:"catalog"`
}

// ServiceImplementation implements the billing Service interface.
type ServiceImplementation struct {
	repository Repository
	logger     *zap.Logger
	now        func() time.Time
}

// NewService creates a new billing service.
func NewService(repository Repository, logger *zap.Logger) Service {
	return &ServiceImplementation{
		repository: repository,
		logger:     logger,
		now:        time.Now,
	}
}

// EnsureSubscription returns the user's subscription, creating a free one
// if none exists yet.
func (s *ServiceImplementation) EnsureSubscription(ctx context.Context, userID uuid.UUID) (*UserSubscription, error) {
	sub, err := s.repository.FindSubscriptionByUser(ctx, userID)
	if err != nil {
		return nil, common.ErrInternalServer.WithDetails("Failed to load subscription.")
	}
	if sub != nil {
		return sub, nil
	}

	sub = &UserSubscription{
		UserID:   userID,
		PlanCode: PlanFree,
		Status:   SubscriptionStatusActive,
	}
	if err := s.repository.CreateSubscription(ctx, sub); err != nil {
		return nil, common.ErrInternalServer.WithDetails("Failed to create subscription.")
	}
	return sub, nil
}

func (s *ServiceImplementation) PlanFor(ctx context.Context, userID uuid.UUID) (Plan, error) {
	sub, err := s.EnsureSubscription(ctx, userID)
	if err != nil {
		return Plan{}, err
	}
	plan, ok := PlanByCode(sub.PlanCode)
	if !ok || sub.Status != SubscriptionStatusActive {
		return plans[PlanFree], nil
	}
	if sub.CurrentPeriodEnd != nil && sub.CurrentPeriodEnd.Before(s.now()) {
		return plans[PlanFree], nil
	}
	return plan, nil
}

func (s *ServiceImplementation) CompareLimit(ctx context.Context, userID uuid.UUID) (int, error) {
	plan, err := s.PlanFor(ctx, userID)
	if err != nil {
		return 0, err
	}
	return plan.MaxCompareComplexes, nil
}

func (s *ServiceImplementation) WatchLimit(ctx context.Context, userID uuid.UUID) (int, error) {
	plan, err := s.PlanFor(ctx, userID)
	if err != nil {
		return 0, err
	}
	return plan.MaxWatchedComplexes, nil
}

func (s *ServiceImplementation) PresetLimit(ctx context.Context, userID uuid.UUID) (int, error) {
	plan, err := s.PlanFor(ctx, userID)
	if err != nil {
		return 0, err
	}
	return plan.MaxPresets, nil
}

func (s *ServiceImplementation) CanManualDispatch(ctx context.Context, userID uuid.UUID) (bool, error) {
	plan, err := s.PlanFor(ctx, userID)
	if err != nil {
		return false, err
	}
	return plan.ManualAlertDispatch, nil
}

func (s *ServiceImplementation) Overview(ctx context.Context, userID uuid.UUID) (*AccountOverview, error) {
	sub, err := s.EnsureSubscription(ctx, userID)
	if err != nil {
		return nil, err
	}
	plan, err := s.PlanFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &AccountOverview{
		Subscription: sub,
		Plan:         plan,
		Catalog:      AllPlans(),
	}, nil
}

func (s *ServiceImplementation) CreateCheckout(ctx context.Context, userID uuid.UUID, planCode string) (*CheckoutSession, error) {
	plan, ok := PlanByCode(planCode)
	if !ok || plan.MonthlyPriceKRW == 0 {
		return nil, common.ErrBadRequest.WithDetails("Unknown or non-purchasable plan.")
	}

	session := &CheckoutSession{
		UserID:    userID,
		PlanCode:  plan.Code,
		AmountKRW: plan.MonthlyPriceKRW,
		Status:    CheckoutStatusPending,
	}
	if err := s.repository.CreateCheckoutSession(ctx, session); err != nil {
		return nil, common.ErrInternalServer.WithDetails("Failed to create checkout session.")
	}
	return session, nil
}

func (s *ServiceImplementation) CompleteCheckout(ctx context.Context, userID, sessionID uuid.UUID) (*UserSubscription, error) {
	session, err := s.repository.FindCheckoutSession(ctx, userID, sessionID)
	if err != nil {
		return nil, common.ErrInternalServer.WithDetails("Failed to load checkout session.")
	}
	if session == nil {
		return nil, common.ErrNotFound.WithDetails("Checkout session not found.")
	}
	if session.Status != CheckoutStatusPending {
		return nil, common.ErrConflict.WithDetails("Checkout session is already " + session.Status + ".")
	}

	now := s.now()
	session.Status = CheckoutStatusCompleted
	session.CompletedAt = &now
	if err := s.repository.UpdateCheckoutSession(ctx, session); err != nil {
		return nil, common.ErrInternalServer.WithDetails("Failed to update checkout session.")
	}

	sub, err := s.EnsureSubscription(ctx, userID)
	if err != nil {
		return nil, err
	}
	periodEnd := now.AddDate(0, 1, 0)
	sub.PlanCode = session.PlanCode
	sub.Status = SubscriptionStatusActive
	sub.CurrentPeriodEnd = &periodEnd
	if err := s.repository.UpdateSubscription(ctx, sub); err != nil {
		return nil, common.ErrInternalServer.WithDetails("Failed to update subscription.")
	}

	s.logger.Info("Subscription upgraded",
		zap.String("user_id", userID.String()),
		zap.String("plan", sub.PlanCode))
	return sub, nil
}
