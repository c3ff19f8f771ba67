// File: internal/analytics/service_test.go
package analytics

import (
	"context"
	"testing"
	"time"

	"apt_briefing_backend/internal/config"
	"apt_briefing_backend/internal/ingest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockIngestRepository struct {
	mock.Mock
}

func (m *mockIngestRepository) CreateRunWithSnapshots(ctx context.Context, run *ingest.CrawlRun, snapshots []ingest.ListingSnapshot) error {
	args := m.Called(ctx, run, snapshots)
	return args.Error(0)
}

func (m *mockIngestRepository) RecordFailedRun(ctx context.Context, run *ingest.CrawlRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *mockIngestRepository) FindReusableRun(ctx context.Context, complexNo int64, bucketStart, bucketEnd time.Time) (*ingest.CrawlRun, error) {
	args := m.Called(ctx, complexNo, bucketStart, bucketEnd)
	if run := args.Get(0); run != nil {
		return run.(*ingest.CrawlRun), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockIngestRepository) CountSnapshotsByRun(ctx context.Context, runID uint64) (int64, error) {
	args := m.Called(ctx, runID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockIngestRepository) LatestSuccessfulRunID(ctx context.Context, complexNo int64) (uint64, error) {
	args := m.Called(ctx, complexNo)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *mockIngestRepository) SnapshotsByRun(ctx context.Context, runID uint64, tradeTypeName string) ([]ingest.ListingSnapshot, error) {
	args := m.Called(ctx, runID, tradeTypeName)
	return args.Get(0).([]ingest.ListingSnapshot), args.Error(1)
}

func (m *mockIngestRepository) SnapshotsSince(ctx context.Context, complexNos []int64, since time.Time, tradeTypeName string) ([]ingest.ListingSnapshot, error) {
	args := m.Called(ctx, complexNos, since, tradeTypeName)
	return args.Get(0).([]ingest.ListingSnapshot), args.Error(1)
}

func (m *mockIngestRepository) LatestRunSummaries(ctx context.Context, complexNos []int64) (map[int64]*ingest.RunSummary, error) {
	args := m.Called(ctx, complexNos)
	return args.Get(0).(map[int64]*ingest.RunSummary), args.Error(1)
}

func testConfig() *config.Config {
	return &config.Config{
		MonthlyConversionRatePct: 5.1,
		BargainLookbackDays:      30,
		BargainDiscountThreshold: 0.08,
	}
}

func newTestService(repo ingest.Repository) *ServiceImplementation {
	return &ServiceImplementation{
		ingestRepo: repo,
		cfg:        testConfig(),
		logger:     zap.NewNop(),
		now:        func() time.Time { return time.Date(2025, 7, 10, 12, 0, 0, 0, time.UTC) },
	}
}

func saleSnapshot(complexNo, articleNo int64, dealManwon int, observedAt time.Time) ingest.ListingSnapshot {
	price := dealManwon
	return ingest.ListingSnapshot{
		ComplexNo:       complexNo,
		ArticleNo:       articleNo,
		ArticleName:     "테스트 매물",
		TradeTypeName:   ingest.TradeTypeSale,
		DealPriceManwon: &price,
		ObservedAt:      observedAt,
	}
}

func baselineSnapshots(complexNo int64, prices []int, observedAt time.Time) []ingest.ListingSnapshot {
	snapshots := make([]ingest.ListingSnapshot, len(prices))
	for i, p := range prices {
		snapshots[i] = saleSnapshot(complexNo, int64(1000+i), p, observedAt)
	}
	return snapshots
}

func TestDetectBargainsTooFewObservations(t *testing.T) {
	repo := new(mockIngestRepository)
	svc := newTestService(repo)
	observed := time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC)

	repo.On("SnapshotsSince", mock.Anything, []int64{101}, mock.Anything, "").
		Return(baselineSnapshots(101, []int{50000, 51000, 49000, 48000}, observed), nil)

	report, err := svc.DetectBargains(context.Background(), 101, BargainParams{})
	require.NoError(t, err)
	assert.Equal(t, 4, report.BaselineCount)
	assert.Empty(t, report.Items)
	// No candidate lookup should happen without a baseline.
	repo.AssertNotCalled(t, "LatestSuccessfulRunID", mock.Anything, mock.Anything)
}

func TestDetectBargainsMedianBaseline(t *testing.T) {
	repo := new(mockIngestRepository)
	svc := newTestService(repo)
	observed := time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC)

	repo.On("SnapshotsSince", mock.Anything, []int64{101}, mock.Anything, "").
		Return(baselineSnapshots(101, []int{100, 100, 100, 100, 10000}, observed), nil)
	repo.On("LatestSuccessfulRunID", mock.Anything, int64(101)).Return(uint64(7), nil)
	repo.On("SnapshotsByRun", mock.Anything, uint64(7), "").
		Return([]ingest.ListingSnapshot{}, nil)

	report, err := svc.DetectBargains(context.Background(), 101, BargainParams{})
	require.NoError(t, err)
	assert.Equal(t, 100.0, report.BaselinePrice)
}

func TestDetectBargainsThresholdBoundary(t *testing.T) {
	repo := new(mockIngestRepository)
	svc := newTestService(repo)
	observed := time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC)

	repo.On("SnapshotsSince", mock.Anything, []int64{101}, mock.Anything, "").
		Return(baselineSnapshots(101, []int{50000, 50000, 50000, 50000, 50000}, observed), nil)
	repo.On("LatestSuccessfulRunID", mock.Anything, int64(101)).Return(uint64(7), nil)
	repo.On("SnapshotsByRun", mock.Anything, uint64(7), "").
		Return([]ingest.ListingSnapshot{
			// Exactly 8% under baseline: included.
			saleSnapshot(101, 1, 46000, observed),
			// Just above the boundary price: excluded.
			saleSnapshot(101, 2, 46001, observed),
		}, nil)

	report, err := svc.DetectBargains(context.Background(), 101, BargainParams{})
	require.NoError(t, err)
	require.Len(t, report.Items, 1)
	assert.Equal(t, int64(1), report.Items[0].ArticleNo)
	assert.InDelta(t, 0.08, report.Items[0].DiscountRate, 0.0001)
}

func TestDetectBargainsEndToEnd(t *testing.T) {
	repo := new(mockIngestRepository)
	svc := newTestService(repo)
	observed := time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC)

	repo.On("SnapshotsSince", mock.Anything, []int64{101}, mock.Anything, "").
		Return(baselineSnapshots(101, []int{50000, 51000, 49000, 52000, 48000}, observed), nil)
	repo.On("LatestSuccessfulRunID", mock.Anything, int64(101)).Return(uint64(9), nil)
	repo.On("SnapshotsByRun", mock.Anything, uint64(9), "").
		Return([]ingest.ListingSnapshot{
			saleSnapshot(101, 11, 49500, observed),
			saleSnapshot(101, 12, 45000, observed),
			saleSnapshot(101, 13, 40000, observed),
		}, nil)

	report, err := svc.DetectBargains(context.Background(), 101, BargainParams{})
	require.NoError(t, err)
	assert.Equal(t, 50000.0, report.BaselinePrice)
	require.Len(t, report.Items, 2)
	// Sorted by discount, deepest first.
	assert.Equal(t, int64(13), report.Items[0].ArticleNo)
	assert.Equal(t, int64(12), report.Items[1].ArticleNo)
	assert.InDelta(t, 0.2, report.Items[0].DiscountRate, 0.0001)
	assert.InDelta(t, 0.1, report.Items[1].DiscountRate, 0.0001)
}

func TestDetectBargainsAllFilterMatchesEveryTradeType(t *testing.T) {
	repo := new(mockIngestRepository)
	svc := newTestService(repo)
	observed := time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC)

	// "ALL" must reach the repository as the unfiltered sentinel for the
	// candidate query too, not only for the baseline.
	repo.On("SnapshotsSince", mock.Anything, []int64{101}, mock.Anything, "").
		Return(baselineSnapshots(101, []int{50000, 50000, 50000, 50000, 50000}, observed), nil)
	repo.On("LatestSuccessfulRunID", mock.Anything, int64(101)).Return(uint64(5), nil)
	repo.On("SnapshotsByRun", mock.Anything, uint64(5), "").
		Return([]ingest.ListingSnapshot{saleSnapshot(101, 31, 44000, observed)}, nil)

	report, err := svc.DetectBargains(context.Background(), 101, BargainParams{TradeTypeName: "ALL"})
	require.NoError(t, err)
	require.Len(t, report.Items, 1)
	assert.Equal(t, int64(31), report.Items[0].ArticleNo)
	repo.AssertExpectations(t)
}

func TestDetectBargainsSkipsUnpriceableCandidates(t *testing.T) {
	repo := new(mockIngestRepository)
	svc := newTestService(repo)
	observed := time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC)

	monthly := ingest.ListingSnapshot{
		ComplexNo:     101,
		ArticleNo:     21,
		TradeTypeName: ingest.TradeTypeMonthly,
		ObservedAt:    observed,
	}

	repo.On("SnapshotsSince", mock.Anything, []int64{101}, mock.Anything, "").
		Return(baselineSnapshots(101, []int{50000, 50000, 50000, 50000, 50000}, observed), nil)
	repo.On("LatestSuccessfulRunID", mock.Anything, int64(101)).Return(uint64(3), nil)
	repo.On("SnapshotsByRun", mock.Anything, uint64(3), "").
		Return([]ingest.ListingSnapshot{monthly}, nil)

	// A monthly listing with no amounts cannot be priced and must be
	// skipped, not flagged with a bogus discount.
	report, err := svc.DetectBargains(context.Background(), 101, BargainParams{})
	require.NoError(t, err)
	assert.Empty(t, report.Items)
}

func TestComplexTrendDailyBuckets(t *testing.T) {
	repo := new(mockIngestRepository)
	svc := newTestService(repo)

	day1 := time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC)
	day2 := time.Date(2025, 7, 2, 21, 0, 0, 0, time.UTC)
	snapshots := []ingest.ListingSnapshot{
		saleSnapshot(101, 1, 40000, day2),
		saleSnapshot(101, 2, 50000, day1),
		saleSnapshot(101, 3, 60000, day1),
	}
	repo.On("SnapshotsSince", mock.Anything, []int64{101}, mock.Anything, "").
		Return(snapshots, nil)

	points, err := svc.ComplexTrend(context.Background(), 101, 30, "")
	require.NoError(t, err)
	require.Len(t, points, 2)

	assert.Equal(t, "2025-07-01", points[0].Date)
	assert.Equal(t, 55000.0, points[0].AvgEffectivePrice)
	assert.Equal(t, 50000.0, points[0].MinEffectivePrice)
	assert.Equal(t, 60000.0, points[0].MaxEffectivePrice)
	assert.Equal(t, 2, points[0].Count)

	assert.Equal(t, "2025-07-02", points[1].Date)
	assert.Equal(t, 40000.0, points[1].AvgEffectivePrice)
	assert.Equal(t, 1, points[1].Count)
}

func TestCompareTrendKeepsRequestOrder(t *testing.T) {
	repo := new(mockIngestRepository)
	svc := newTestService(repo)
	observed := time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC)

	snapshots := []ingest.ListingSnapshot{
		saleSnapshot(202, 1, 30000, observed),
		saleSnapshot(101, 2, 50000, observed),
	}
	repo.On("SnapshotsSince", mock.Anything, []int64{202, 101}, mock.Anything, "").
		Return(snapshots, nil)

	series, err := svc.CompareTrend(context.Background(), []int64{202, 101}, 30, "")
	require.NoError(t, err)
	require.Len(t, series, 2)
	assert.Equal(t, int64(202), series[0].ComplexNo)
	assert.Equal(t, int64(101), series[1].ComplexNo)
	require.Len(t, series[0].Points, 1)
	assert.Equal(t, 30000.0, series[0].Points[0].AvgEffectivePrice)
}
