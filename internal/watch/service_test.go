// File: internal/watch/service_test.go
package watch

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"apt_briefing_backend/internal/billing"
	"apt_briefing_backend/internal/common"
	"apt_briefing_backend/internal/ingest"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// stubEntitlements answers plan-limit lookups with fixed values.
type stubEntitlements struct {
	watchLimit int
}

func (e *stubEntitlements) PlanFor(context.Context, uuid.UUID) (billing.Plan, error) {
	return billing.Plan{}, nil
}

func (e *stubEntitlements) CompareLimit(context.Context, uuid.UUID) (int, error) { return 0, nil }

func (e *stubEntitlements) WatchLimit(context.Context, uuid.UUID) (int, error) {
	return e.watchLimit, nil
}

func (e *stubEntitlements) PresetLimit(context.Context, uuid.UUID) (int, error) { return 0, nil }

func (e *stubEntitlements) CanManualDispatch(context.Context, uuid.UUID) (bool, error) {
	return false, nil
}

// stubIngestRepository serves canned run summaries; the other methods are
// never reached from the watch service.
type stubIngestRepository struct {
	summaries map[int64]*ingest.RunSummary
}

func (r *stubIngestRepository) CreateRunWithSnapshots(context.Context, *ingest.CrawlRun, []ingest.ListingSnapshot) error {
	return nil
}

func (r *stubIngestRepository) RecordFailedRun(context.Context, *ingest.CrawlRun) error { return nil }

func (r *stubIngestRepository) FindReusableRun(context.Context, int64, time.Time, time.Time) (*ingest.CrawlRun, error) {
	return nil, nil
}

func (r *stubIngestRepository) CountSnapshotsByRun(context.Context, uint64) (int64, error) {
	return 0, nil
}

func (r *stubIngestRepository) LatestSuccessfulRunID(context.Context, int64) (uint64, error) {
	return 0, nil
}

func (r *stubIngestRepository) SnapshotsByRun(context.Context, uint64, string) ([]ingest.ListingSnapshot, error) {
	return nil, nil
}

func (r *stubIngestRepository) SnapshotsSince(context.Context, []int64, time.Time, string) ([]ingest.ListingSnapshot, error) {
	return nil, nil
}

func (r *stubIngestRepository) LatestRunSummaries(context.Context, []int64) (map[int64]*ingest.RunSummary, error) {
	return r.summaries, nil
}

func newTestWatchService(t *testing.T, watchLimit int) Service {
	t.Helper()
	return newTestWatchServiceWithIngest(t, watchLimit, nil)
}

func newTestWatchServiceWithIngest(t *testing.T, watchLimit int, ingestRepo ingest.Repository) Service {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&WatchedComplex{}))
	return NewService(NewGORMRepository(db), ingestRepo, nil, &stubEntitlements{watchLimit: watchLimit}, zap.NewNop())
}

func apiStatus(t *testing.T, err error) int {
	t.Helper()
	var apiErr *common.APIError
	require.True(t, errors.As(err, &apiErr))
	return apiErr.StatusCode
}

func TestAddWatch(t *testing.T) {
	svc := newTestWatchService(t, 0)
	userID := uuid.New()

	w, err := svc.Add(context.Background(), userID, AddInput{
		ComplexNo:   101,
		ComplexName: "한강타워",
		Sido:        "서울시",
		Gugun:       "용산구",
	})
	require.NoError(t, err)
	assert.True(t, w.Enabled)
	assert.NotEqual(t, uuid.Nil, w.ID)

	watches, err := svc.List(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, watches, 1)
	assert.Equal(t, int64(101), watches[0].ComplexNo)
}

func TestAddWatchRejectsDuplicate(t *testing.T) {
	svc := newTestWatchService(t, 0)
	userID := uuid.New()

	_, err := svc.Add(context.Background(), userID, AddInput{ComplexNo: 101, ComplexName: "한강타워"})
	require.NoError(t, err)

	_, err = svc.Add(context.Background(), userID, AddInput{ComplexNo: 101, ComplexName: "한강타워"})
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, apiStatus(t, err))
}

func TestAddWatchEnforcesPlanLimit(t *testing.T) {
	svc := newTestWatchService(t, 2)
	userID := uuid.New()

	for _, complexNo := range []int64{101, 202} {
		_, err := svc.Add(context.Background(), userID, AddInput{ComplexNo: complexNo, ComplexName: "단지"})
		require.NoError(t, err)
	}

	_, err := svc.Add(context.Background(), userID, AddInput{ComplexNo: 303, ComplexName: "단지"})
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, apiStatus(t, err))

	// Another user is unaffected by this user's count.
	_, err = svc.Add(context.Background(), uuid.New(), AddInput{ComplexNo: 303, ComplexName: "단지"})
	assert.NoError(t, err)
}

func TestUpdateWatchTogglesEnabled(t *testing.T) {
	svc := newTestWatchService(t, 0)
	userID := uuid.New()

	w, err := svc.Add(context.Background(), userID, AddInput{ComplexNo: 101, ComplexName: "한강타워"})
	require.NoError(t, err)

	disabled := false
	updated, err := svc.Update(context.Background(), userID, w.ID, UpdateInput{Enabled: &disabled})
	require.NoError(t, err)
	assert.False(t, updated.Enabled)

	// Other users cannot touch this watch.
	_, err = svc.Update(context.Background(), uuid.New(), w.ID, UpdateInput{Enabled: &disabled})
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, apiStatus(t, err))
}

func TestRemoveWatch(t *testing.T) {
	svc := newTestWatchService(t, 0)
	userID := uuid.New()

	w, err := svc.Add(context.Background(), userID, AddInput{ComplexNo: 101, ComplexName: "한강타워"})
	require.NoError(t, err)
	require.NoError(t, svc.Remove(context.Background(), userID, w.ID))

	watches, err := svc.List(context.Background(), userID)
	require.NoError(t, err)
	assert.Empty(t, watches)

	err = svc.Remove(context.Background(), userID, w.ID)
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, apiStatus(t, err))
}

func TestCollectionStatuses(t *testing.T) {
	collected := time.Date(2025, 7, 10, 6, 0, 0, 0, time.UTC)
	runError := "upstream returned 429"
	ingestRepo := &stubIngestRepository{summaries: map[int64]*ingest.RunSummary{
		101: {
			ComplexNo:         101,
			LatestCollectedAt: &collected,
			LastRunStatus:     ingest.RunStatusSuccess,
		},
		202: {
			ComplexNo:     202,
			LastRunStatus: ingest.RunStatusFailure,
			LastRunError:  &runError,
		},
	}}
	svc := newTestWatchServiceWithIngest(t, 0, ingestRepo)
	userID := uuid.New()

	for _, complexNo := range []int64{101, 202, 303} {
		_, err := svc.Add(context.Background(), userID, AddInput{ComplexNo: complexNo, ComplexName: "단지"})
		require.NoError(t, err)
	}

	statuses, err := svc.CollectionStatuses(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, statuses, 3)

	byComplex := make(map[int64]CollectionStatus, len(statuses))
	for _, status := range statuses {
		byComplex[status.Watch.ComplexNo] = status
	}

	assert.Equal(t, "SUCCESS", byComplex[101].LastRunStatus)
	assert.Equal(t, &collected, byComplex[101].LatestCollectedAt)

	assert.Equal(t, "FAILURE", byComplex[202].LastRunStatus)
	require.NotNil(t, byComplex[202].LastRunError)
	assert.Equal(t, runError, *byComplex[202].LastRunError)

	// A watch the crawler has never visited carries no run state.
	assert.Empty(t, byComplex[303].LastRunStatus)
	assert.Nil(t, byComplex[303].LatestCollectedAt)
}
