// File: internal/billing/service_test.go
package billing

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestBillingService(t *testing.T) *ServiceImplementation {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&UserSubscription{}, &CheckoutSession{}))
	return &ServiceImplementation{
		repository: NewGORMRepository(db),
		logger:     zap.NewNop(),
		now:        time.Now,
	}
}

func TestEnsureSubscriptionDefaultsToFree(t *testing.T) {
	svc := newTestBillingService(t)
	userID := uuid.New()

	sub, err := svc.EnsureSubscription(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, PlanFree, sub.PlanCode)
	assert.Equal(t, SubscriptionStatusActive, sub.Status)

	// A second call returns the same row instead of creating another.
	again, err := svc.EnsureSubscription(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, sub.ID, again.ID)
}

func TestFreePlanLimits(t *testing.T) {
	svc := newTestBillingService(t)
	userID := uuid.New()
	ctx := context.Background()

	watchLimit, err := svc.WatchLimit(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 3, watchLimit)

	compareLimit, err := svc.CompareLimit(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 2, compareLimit)

	canDispatch, err := svc.CanManualDispatch(ctx, userID)
	require.NoError(t, err)
	assert.False(t, canDispatch)
}

func TestCheckoutUpgradesToPro(t *testing.T) {
	svc := newTestBillingService(t)
	userID := uuid.New()
	ctx := context.Background()

	session, err := svc.CreateCheckout(ctx, userID, PlanPro)
	require.NoError(t, err)
	assert.Equal(t, CheckoutStatusPending, session.Status)
	assert.Equal(t, 9900, session.AmountKRW)

	sub, err := svc.CompleteCheckout(ctx, userID, session.ID)
	require.NoError(t, err)
	assert.Equal(t, PlanPro, sub.PlanCode)
	require.NotNil(t, sub.CurrentPeriodEnd)
	assert.True(t, sub.CurrentPeriodEnd.After(time.Now()))

	// Pro lifts the limits and enables manual dispatch.
	watchLimit, err := svc.WatchLimit(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 0, watchLimit)

	canDispatch, err := svc.CanManualDispatch(ctx, userID)
	require.NoError(t, err)
	assert.True(t, canDispatch)

	// Completing the same session twice is a conflict.
	_, err = svc.CompleteCheckout(ctx, userID, session.ID)
	assert.Error(t, err)
}

func TestCreateCheckoutRejectsFreePlan(t *testing.T) {
	svc := newTestBillingService(t)

	_, err := svc.CreateCheckout(context.Background(), uuid.New(), PlanFree)
	assert.Error(t, err)

	_, err = svc.CreateCheckout(context.Background(), uuid.New(), "ENTERPRISE")
	assert.Error(t, err)
}

func TestExpiredProFallsBackToFree(t *testing.T) {
	svc := newTestBillingService(t)
	userID := uuid.New()
	ctx := context.Background()

	session, err := svc.CreateCheckout(ctx, userID, PlanPro)
	require.NoError(t, err)
	_, err = svc.CompleteCheckout(ctx, userID, session.ID)
	require.NoError(t, err)

	// Move past the paid period.
	svc.now = func() time.Time { return time.Now().AddDate(0, 2, 0) }

	plan, err := svc.PlanFor(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, PlanFree, plan.Code)
}
