// File: internal/alert/service_test.go
package alert

import (
	"context"
	"testing"

	"apt_briefing_backend/internal/analytics"
	"apt_briefing_backend/internal/notification"
	"apt_briefing_backend/internal/watch"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type mockWatchRepository struct {
	mock.Mock
}

func (m *mockWatchRepository) Create(ctx context.Context, w *watch.WatchedComplex) error {
	return m.Called(ctx, w).Error(0)
}

func (m *mockWatchRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]watch.WatchedComplex, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]watch.WatchedComplex), args.Error(1)
}

func (m *mockWatchRepository) FindByID(ctx context.Context, userID, id uuid.UUID) (*watch.WatchedComplex, error) {
	args := m.Called(ctx, userID, id)
	if w := args.Get(0); w != nil {
		return w.(*watch.WatchedComplex), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockWatchRepository) FindByUserAndComplex(ctx context.Context, userID uuid.UUID, complexNo int64) (*watch.WatchedComplex, error) {
	args := m.Called(ctx, userID, complexNo)
	if w := args.Get(0); w != nil {
		return w.(*watch.WatchedComplex), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockWatchRepository) Update(ctx context.Context, w *watch.WatchedComplex) error {
	return m.Called(ctx, w).Error(0)
}

func (m *mockWatchRepository) Delete(ctx context.Context, w *watch.WatchedComplex) error {
	return m.Called(ctx, w).Error(0)
}

func (m *mockWatchRepository) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockWatchRepository) DistinctEnabledComplexNos(ctx context.Context) ([]int64, error) {
	args := m.Called(ctx)
	return args.Get(0).([]int64), args.Error(1)
}

func (m *mockWatchRepository) FindEnabledByComplexNo(ctx context.Context, complexNo int64) ([]watch.WatchedComplex, error) {
	args := m.Called(ctx, complexNo)
	return args.Get(0).([]watch.WatchedComplex), args.Error(1)
}

type mockAnalyticsService struct {
	mock.Mock
}

func (m *mockAnalyticsService) ComplexTrend(ctx context.Context, complexNo int64, days int, tradeTypeName string) ([]analytics.TrendPoint, error) {
	args := m.Called(ctx, complexNo, days, tradeTypeName)
	return args.Get(0).([]analytics.TrendPoint), args.Error(1)
}

func (m *mockAnalyticsService) CompareTrend(ctx context.Context, complexNos []int64, days int, tradeTypeName string) ([]analytics.CompareSeries, error) {
	args := m.Called(ctx, complexNos, days, tradeTypeName)
	return args.Get(0).([]analytics.CompareSeries), args.Error(1)
}

func (m *mockAnalyticsService) DetectBargains(ctx context.Context, complexNo int64, params analytics.BargainParams) (*analytics.BargainReport, error) {
	args := m.Called(ctx, complexNo, params)
	if r := args.Get(0); r != nil {
		return r.(*analytics.BargainReport), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockNotificationService struct {
	mock.Mock
}

func (m *mockNotificationService) EnsurePreference(ctx context.Context, userID uuid.UUID) (*notification.Preference, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(*notification.Preference), args.Error(1)
}

func (m *mockNotificationService) UpdatePreference(ctx context.Context, userID uuid.UUID, update notification.PreferenceUpdate) (*notification.Preference, error) {
	args := m.Called(ctx, userID, update)
	return args.Get(0).(*notification.Preference), args.Error(1)
}

// fakeChannel records sends and answers with a scripted outcome.
type fakeChannel struct {
	name     string
	ok       bool
	reason   string
	sends    int
	lastDest string
	lastBody string
}

func (c *fakeChannel) Name() string { return c.name }

func (c *fakeChannel) Send(dest, subject, body string) (bool, string) {
	c.sends++
	c.lastDest = dest
	c.lastBody = body
	return c.ok, c.reason
}

func setupAlertDB(t *testing.T) Repository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&DispatchRecord{}))
	return NewGORMRepository(db)
}

func intPtr(v int) *int { return &v }

func emailPreference(userID uuid.UUID) *notification.Preference {
	return &notification.Preference{
		UserID:                   userID,
		EmailEnabled:             true,
		EmailAddress:             "user@example.com",
		BargainAlertEnabled:      true,
		BargainLookbackDays:      30,
		BargainDiscountThreshold: 0.08,
	}
}

func bargainReport(complexNo int64, items ...analytics.BargainItem) *analytics.BargainReport {
	return &analytics.BargainReport{
		ComplexNo:     complexNo,
		BaselineCount: 10,
		BaselinePrice: 50000,
		Items:         items,
	}
}

func bargainItem(complexNo, articleNo int64, dealPriceManwon int, discount float64) analytics.BargainItem {
	return analytics.BargainItem{
		ComplexNo:       complexNo,
		ArticleNo:       articleNo,
		ArticleName:     "테스트 매물",
		TradeTypeName:   "매매",
		DealPriceText:   "4억 5,000",
		DealPriceManwon: intPtr(dealPriceManwon),
		EffectivePrice:  float64(dealPriceManwon),
		BaselinePrice:   50000,
		DiscountRate:    discount,
	}
}

func TestDispatchDeduplicatesAcrossPasses(t *testing.T) {
	userID := uuid.New()
	watches := new(mockWatchRepository)
	analyticsSvc := new(mockAnalyticsService)
	notifications := new(mockNotificationService)
	channel := &fakeChannel{name: notification.ChannelEmail, ok: true}

	notifications.On("EnsurePreference", mock.Anything, userID).Return(emailPreference(userID), nil)
	watches.On("FindByUser", mock.Anything, userID).Return([]watch.WatchedComplex{
		{ComplexNo: 101, ComplexName: "한강타워", Enabled: true},
	}, nil)
	analyticsSvc.On("DetectBargains", mock.Anything, int64(101), mock.Anything).
		Return(bargainReport(101, bargainItem(101, 42, 45000, 0.10)), nil)

	svc := NewService(setupAlertDB(t), watches, analyticsSvc, notifications, []notification.Channel{channel}, zap.NewNop())

	first, err := svc.Dispatch(context.Background(), userID, 0)
	require.NoError(t, err)
	require.Len(t, first.Channels, 1)
	assert.Equal(t, 1, first.Channels[0].Sent)
	assert.True(t, first.Channels[0].Delivered)
	assert.Equal(t, "user@example.com", channel.lastDest)

	// Same item again: the dispatch log suppresses it.
	second, err := svc.Dispatch(context.Background(), userID, 0)
	require.NoError(t, err)
	require.Len(t, second.Channels, 1)
	assert.Equal(t, 0, second.Channels[0].Sent)
	assert.True(t, second.Channels[0].Delivered)
	assert.Equal(t, 1, channel.sends)
}

func TestDispatchResendsOnPriceChange(t *testing.T) {
	userID := uuid.New()
	watches := new(mockWatchRepository)
	analyticsSvc := new(mockAnalyticsService)
	notifications := new(mockNotificationService)
	channel := &fakeChannel{name: notification.ChannelEmail, ok: true}

	notifications.On("EnsurePreference", mock.Anything, userID).Return(emailPreference(userID), nil)
	watches.On("FindByUser", mock.Anything, userID).Return([]watch.WatchedComplex{
		{ComplexNo: 101, ComplexName: "한강타워", Enabled: true},
	}, nil)
	analyticsSvc.On("DetectBargains", mock.Anything, int64(101), mock.Anything).
		Return(bargainReport(101, bargainItem(101, 42, 45000, 0.10)), nil).Once()
	// Same article, lower price: new dedupe key, alert goes out again.
	analyticsSvc.On("DetectBargains", mock.Anything, int64(101), mock.Anything).
		Return(bargainReport(101, bargainItem(101, 42, 43000, 0.14)), nil).Once()

	svc := NewService(setupAlertDB(t), watches, analyticsSvc, notifications, []notification.Channel{channel}, zap.NewNop())

	first, err := svc.Dispatch(context.Background(), userID, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Channels[0].Sent)

	second, err := svc.Dispatch(context.Background(), userID, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, second.Channels[0].Sent)
	assert.Equal(t, 2, channel.sends)
}

func TestDispatchSendFailureLeavesNoLog(t *testing.T) {
	userID := uuid.New()
	watches := new(mockWatchRepository)
	analyticsSvc := new(mockAnalyticsService)
	notifications := new(mockNotificationService)
	channel := &fakeChannel{name: notification.ChannelEmail, ok: false, reason: "smtp connect refused"}

	notifications.On("EnsurePreference", mock.Anything, userID).Return(emailPreference(userID), nil)
	watches.On("FindByUser", mock.Anything, userID).Return([]watch.WatchedComplex{
		{ComplexNo: 101, ComplexName: "한강타워", Enabled: true},
	}, nil)
	analyticsSvc.On("DetectBargains", mock.Anything, int64(101), mock.Anything).
		Return(bargainReport(101, bargainItem(101, 42, 45000, 0.10)), nil)

	repo := setupAlertDB(t)
	svc := NewService(repo, watches, analyticsSvc, notifications, []notification.Channel{channel}, zap.NewNop())

	first, err := svc.Dispatch(context.Background(), userID, 0)
	require.NoError(t, err)
	require.Len(t, first.Channels, 1)
	assert.Equal(t, 0, first.Channels[0].Sent)
	assert.False(t, first.Channels[0].Delivered)
	assert.Equal(t, "smtp connect refused", first.Channels[0].Reason)

	// Nothing was logged, so the item retries on the next pass.
	channel.ok = true
	channel.reason = ""
	second, err := svc.Dispatch(context.Background(), userID, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, second.Channels[0].Sent)

	records, err := repo.RecentRecords(context.Background(), userID, 10)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestDispatchDisabledAlerts(t *testing.T) {
	userID := uuid.New()
	watches := new(mockWatchRepository)
	analyticsSvc := new(mockAnalyticsService)
	notifications := new(mockNotificationService)
	channel := &fakeChannel{name: notification.ChannelEmail, ok: true}

	pref := emailPreference(userID)
	pref.BargainAlertEnabled = false
	notifications.On("EnsurePreference", mock.Anything, userID).Return(pref, nil)

	svc := NewService(setupAlertDB(t), watches, analyticsSvc, notifications, []notification.Channel{channel}, zap.NewNop())

	result, err := svc.Dispatch(context.Background(), userID, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, result.ItemCount)
	assert.Empty(t, result.Channels)
	assert.Equal(t, 0, channel.sends)
	watches.AssertNotCalled(t, "FindByUser", mock.Anything, mock.Anything)
}

func TestCollectBargainsOrdersByDiscount(t *testing.T) {
	userID := uuid.New()
	watches := new(mockWatchRepository)
	analyticsSvc := new(mockAnalyticsService)
	notifications := new(mockNotificationService)

	notifications.On("EnsurePreference", mock.Anything, userID).Return(emailPreference(userID), nil)
	watches.On("FindByUser", mock.Anything, userID).Return([]watch.WatchedComplex{
		{ComplexNo: 101, ComplexName: "한강타워", Enabled: true},
		{ComplexNo: 202, ComplexName: "서초팰리스", Enabled: true},
		{ComplexNo: 303, ComplexName: "꺼진단지", Enabled: false},
	}, nil)
	analyticsSvc.On("DetectBargains", mock.Anything, int64(101), mock.Anything).
		Return(bargainReport(101, bargainItem(101, 1, 46000, 0.08)), nil)
	analyticsSvc.On("DetectBargains", mock.Anything, int64(202), mock.Anything).
		Return(bargainReport(202, bargainItem(202, 2, 40000, 0.20)), nil)

	svc := NewService(setupAlertDB(t), watches, analyticsSvc, notifications, nil, zap.NewNop())

	items, err := svc.CollectBargains(context.Background(), userID, 0)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, int64(202), items[0].ComplexNo)
	assert.Equal(t, "서초팰리스", items[0].ComplexName)
	assert.Equal(t, int64(101), items[1].ComplexNo)
	// The disabled watch never reaches the detector.
	analyticsSvc.AssertNotCalled(t, "DetectBargains", mock.Anything, int64(303), mock.Anything)
}

func TestBargainDedupeKey(t *testing.T) {
	assert.Equal(t, "bargain:101:42:45000", BargainDedupeKey(101, 42, intPtr(45000)))
	assert.Equal(t, "bargain:101:42:0", BargainDedupeKey(101, 42, nil))
	assert.NotEqual(t,
		BargainDedupeKey(101, 42, intPtr(45000)),
		BargainDedupeKey(101, 42, intPtr(43000)),
	)
}
