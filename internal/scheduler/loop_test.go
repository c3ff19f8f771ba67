// File: internal/scheduler/loop_test.go
package scheduler

import (
	"context"
	"fmt"
	"testing"
	"time"

	"apt_briefing_backend/internal/alert"
	"apt_briefing_backend/internal/analytics"
	appconfig "apt_briefing_backend/internal/config"
	"apt_briefing_backend/internal/crawler"
	"apt_briefing_backend/internal/ingest"
	"apt_briefing_backend/internal/watch"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubConfigRepository struct {
	config *Config
	err    error
}

func (r *stubConfigRepository) LoadOrDefault(_ context.Context) (*Config, error) {
	return r.config, r.err
}

func (r *stubConfigRepository) Save(_ context.Context, config *Config) error {
	r.config = config
	return nil
}

type stubWatchRepository struct {
	complexNos []int64
	watchers   map[int64][]watch.WatchedComplex
}

func (r *stubWatchRepository) Create(context.Context, *watch.WatchedComplex) error { return nil }

func (r *stubWatchRepository) FindByUser(context.Context, uuid.UUID) ([]watch.WatchedComplex, error) {
	return nil, nil
}

func (r *stubWatchRepository) FindByID(context.Context, uuid.UUID, uuid.UUID) (*watch.WatchedComplex, error) {
	return nil, nil
}

func (r *stubWatchRepository) FindByUserAndComplex(context.Context, uuid.UUID, int64) (*watch.WatchedComplex, error) {
	return nil, nil
}

func (r *stubWatchRepository) Update(context.Context, *watch.WatchedComplex) error { return nil }

func (r *stubWatchRepository) Delete(context.Context, *watch.WatchedComplex) error { return nil }

func (r *stubWatchRepository) CountByUser(context.Context, uuid.UUID) (int64, error) { return 0, nil }

func (r *stubWatchRepository) DistinctEnabledComplexNos(context.Context) ([]int64, error) {
	return r.complexNos, nil
}

func (r *stubWatchRepository) FindEnabledByComplexNo(_ context.Context, complexNo int64) ([]watch.WatchedComplex, error) {
	return r.watchers[complexNo], nil
}

type stubIngestService struct {
	calls []int64
	err   error
}

func (s *stubIngestService) Ingest(_ context.Context, complexNo int64, _, _, _ int) (*ingest.Result, error) {
	s.calls = append(s.calls, complexNo)
	if s.err != nil {
		return nil, s.err
	}
	return &ingest.Result{RunID: uint64(len(s.calls)), ComplexNo: complexNo, ListingCount: 3}, nil
}

func (s *stubIngestService) PreviewArticles(context.Context, int64, int) ([]crawler.Article, error) {
	return nil, nil
}

func (s *stubIngestService) SearchComplexes(context.Context, string, int) ([]crawler.ComplexSummary, error) {
	return nil, nil
}

type stubAlertService struct {
	dispatched []uuid.UUID
}

func (s *stubAlertService) CollectBargains(context.Context, uuid.UUID, int64) ([]analytics.BargainItem, error) {
	return nil, nil
}

func (s *stubAlertService) Dispatch(_ context.Context, userID uuid.UUID, _ int64) (*alert.DispatchResult, error) {
	s.dispatched = append(s.dispatched, userID)
	return &alert.DispatchResult{UserID: userID, ItemCount: 1}, nil
}

func (s *stubAlertService) PruneDispatchLog(context.Context) (int64, error) { return 0, nil }

func enabledConfig(times string) *Config {
	return &Config{
		ID:               configRowID,
		Enabled:          true,
		Timezone:         "Asia/Seoul",
		TimesCSV:         times,
		PollSeconds:      20,
		ReuseBucketHours: 6,
		BatchMaxPages:    3,
	}
}

func newTestLoop(config *Config, watches watch.Repository, ingestSvc ingest.Service, alerts alert.Service, at time.Time) *Loop {
	l := NewLoop(&stubConfigRepository{config: config}, watches, ingestSvc, alerts, &appconfig.Config{SchedulerPollSeconds: 20}, zap.NewNop())
	l.now = func() time.Time { return at }
	return l
}

func seoulTime(hour, minute int) time.Time {
	loc, _ := time.LoadLocation("Asia/Seoul")
	return time.Date(2025, 7, 10, hour, minute, 30, 0, loc)
}

func TestTickFiresOncePerConfiguredMinute(t *testing.T) {
	userA := uuid.New()
	userB := uuid.New()
	watches := &stubWatchRepository{
		complexNos: []int64{101, 202},
		watchers: map[int64][]watch.WatchedComplex{
			101: {{UserID: userA, ComplexNo: 101, Enabled: true}},
			202: {{UserID: userA, ComplexNo: 202, Enabled: true}, {UserID: userB, ComplexNo: 202, Enabled: true}},
		},
	}
	ingestSvc := &stubIngestService{}
	alerts := &stubAlertService{}
	loop := newTestLoop(enabledConfig("09:00,21:00"), watches, ingestSvc, alerts, seoulTime(9, 0))

	require.True(t, loop.Tick(context.Background()))
	assert.Equal(t, []int64{101, 202}, ingestSvc.calls)
	// Each affected user is dispatched once, even when they watch both complexes.
	assert.Len(t, alerts.dispatched, 2)
	assert.ElementsMatch(t, []uuid.UUID{userA, userB}, alerts.dispatched)

	// A second poll tick inside the same minute must not fire again.
	assert.False(t, loop.Tick(context.Background()))
	assert.Len(t, ingestSvc.calls, 2)
}

func TestTickSkipsUnconfiguredMinute(t *testing.T) {
	ingestSvc := &stubIngestService{}
	loop := newTestLoop(enabledConfig("09:00"), &stubWatchRepository{}, ingestSvc, &stubAlertService{}, seoulTime(9, 1))

	assert.False(t, loop.Tick(context.Background()))
	assert.Empty(t, ingestSvc.calls)
}

func TestTickDisabledConfig(t *testing.T) {
	config := enabledConfig("09:00")
	config.Enabled = false
	ingestSvc := &stubIngestService{}
	loop := newTestLoop(config, &stubWatchRepository{}, ingestSvc, &stubAlertService{}, seoulTime(9, 0))

	assert.False(t, loop.Tick(context.Background()))
	assert.Empty(t, ingestSvc.calls)
}

func TestTickFallsBackToStaticComplexes(t *testing.T) {
	ingestSvc := &stubIngestService{}
	loop := newTestLoop(enabledConfig("09:00"), &stubWatchRepository{}, ingestSvc, &stubAlertService{}, seoulTime(9, 0))
	loop.cfg.SchedulerComplexesCSV = "111, 222,bad,-3"

	require.True(t, loop.Tick(context.Background()))
	assert.Equal(t, []int64{111, 222}, ingestSvc.calls)
}

func TestPruneFiredKeysKeepsCurrentDay(t *testing.T) {
	loop := newTestLoop(enabledConfig("09:00"), &stubWatchRepository{}, &stubIngestService{}, &stubAlertService{}, seoulTime(9, 0))
	for i := 0; i <= firedKeyPruneSize; i++ {
		loop.firedKeys[fmt.Sprintf("2025-07-09 %02d:%02d", i/60, i%60)] = struct{}{}
	}
	loop.firedKeys["2025-07-10 09:00"] = struct{}{}

	loop.pruneFiredKeys("2025-07-10")
	assert.Len(t, loop.firedKeys, 1)
	assert.Contains(t, loop.firedKeys, "2025-07-10 09:00")
}

func TestRunStopsOnCancel(t *testing.T) {
	loop := newTestLoop(enabledConfig(""), &stubWatchRepository{}, &stubIngestService{}, &stubAlertService{}, seoulTime(9, 0))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		loop.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop after cancellation")
	}
}

func TestConfigTimes(t *testing.T) {
	config := &Config{TimesCSV: "21:00, 09:00,09:00,bad,25:00"}
	assert.Equal(t, []string{"09:00", "21:00"}, config.Times())

	assert.Empty(t, (&Config{TimesCSV: ""}).Times())
}
