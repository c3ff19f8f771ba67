// File: internal/scheduler/loop.go
package scheduler

import (
	"context"
	"strconv"
	"strings"
	"time"

	"apt_briefing_backend/internal/alert"
	appconfig "apt_briefing_backend/internal/config"
	"apt_briefing_backend/internal/ingest"
	"apt_briefing_backend/internal/watch"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// firedKeyPruneSize caps the fired-key set; past it, keys from earlier days
// are dropped.
const firedKeyPruneSize = 1000

// Loop drives scheduled collection batches. It polls the stored scheduler
// configuration and, when a configured HH:MM comes up in the configured
// timezone, runs one batch over the distinct watched complexes. A fired-key
// set keyed by (date, HH:MM) guarantees one batch per configured time per
// day even when several poll ticks land inside the same minute.
type Loop struct {
	repository Repository
	watches    watch.Repository
	ingestSvc  ingest.Service
	alerts     alert.Service
	cfg        *appconfig.Config
	logger     *zap.Logger
	now        func() time.Time
	firedKeys  map[string]struct{}
}

// NewLoop creates a new scheduler loop.
func NewLoop(
	repository Repository,
	watches watch.Repository,
	ingestSvc ingest.Service,
	alerts alert.Service,
	cfg *appconfig.Config,
	logger *zap.Logger,
) *Loop {
	return &Loop{
		repository: repository,
		watches:    watches,
		ingestSvc:  ingestSvc,
		alerts:     alerts,
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
		firedKeys:  make(map[string]struct{}),
	}
}

// Run polls until the context is cancelled.
func (l *Loop) Run(ctx context.Context) {
	l.logger.Info("Scheduler loop started")
	for {
		poll := l.pollInterval(ctx)
		select {
		case <-ctx.Done():
			l.logger.Info("Scheduler loop stopped")
			return
		case <-time.After(poll):
			l.Tick(ctx)
		}
	}
}

func (l *Loop) pollInterval(ctx context.Context) time.Duration {
	config, err := l.repository.LoadOrDefault(ctx)
	if err != nil || config.PollSeconds < 5 {
		return time.Duration(l.cfg.SchedulerPollSeconds) * time.Second
	}
	return time.Duration(config.PollSeconds) * time.Second
}

// Tick runs one poll iteration. Exposed for tests; Run calls it on every
// poll interval.
func (l *Loop) Tick(ctx context.Context) bool {
	config, err := l.repository.LoadOrDefault(ctx)
	if err != nil {
		l.logger.Error("Failed to load scheduler config", zap.Error(err))
		return false
	}
	if !config.Enabled {
		return false
	}

	loc, err := time.LoadLocation(config.Timezone)
	if err != nil {
		l.logger.Error("Invalid scheduler timezone", zap.String("timezone", config.Timezone), zap.Error(err))
		return false
	}

	localNow := l.now().In(loc)
	currentHHMM := localNow.Format("15:04")
	currentDate := localNow.Format("2006-01-02")

	for _, scheduled := range config.Times() {
		if scheduled != currentHHMM {
			continue
		}
		key := currentDate + " " + scheduled
		if _, fired := l.firedKeys[key]; fired {
			return false
		}
		l.firedKeys[key] = struct{}{}
		l.pruneFiredKeys(currentDate)

		l.logger.Info("Scheduled batch triggered",
			zap.String("time", scheduled),
			zap.String("timezone", config.Timezone))
		l.runBatch(ctx, config)
		return true
	}
	return false
}

func (l *Loop) pruneFiredKeys(currentDate string) {
	if len(l.firedKeys) <= firedKeyPruneSize {
		return
	}
	for key := range l.firedKeys {
		if !strings.HasPrefix(key, currentDate) {
			delete(l.firedKeys, key)
		}
	}
}

// runBatch ingests each distinct watched complex, then dispatches bargain
// alerts once per affected user. Per-complex failures are logged and do not
// stop the batch.
func (l *Loop) runBatch(ctx context.Context, config *Config) {
	complexNos, err := l.watches.DistinctEnabledComplexNos(ctx)
	if err != nil {
		l.logger.Error("Failed to list watched complexes for batch", zap.Error(err))
		return
	}
	if len(complexNos) == 0 {
		complexNos = l.fallbackComplexNos()
	}
	if len(complexNos) == 0 {
		l.logger.Info("Scheduled batch has nothing to collect")
		return
	}

	maxPages := config.BatchMaxPages
	if maxPages < 1 {
		maxPages = 1
	}

	userIDs := make(map[uuid.UUID]struct{})
	for _, complexNo := range complexNos {
		result, err := l.ingestSvc.Ingest(ctx, complexNo, 1, maxPages, config.ReuseBucketHours)
		if err != nil {
			l.logger.Warn("Batch ingest failed for complex",
				zap.Int64("complex_no", complexNo),
				zap.Error(err))
			continue
		}
		l.logger.Info("Batch ingest completed",
			zap.Int64("complex_no", complexNo),
			zap.Uint64("run_id", result.RunID),
			zap.Int("listing_count", result.ListingCount),
			zap.Bool("reused", result.Reused))

		watchers, err := l.watches.FindEnabledByComplexNo(ctx, complexNo)
		if err != nil {
			l.logger.Warn("Failed to list watchers for complex",
				zap.Int64("complex_no", complexNo),
				zap.Error(err))
			continue
		}
		for _, w := range watchers {
			userIDs[w.UserID] = struct{}{}
		}
	}

	for userID := range userIDs {
		result, err := l.alerts.Dispatch(ctx, userID, 0)
		if err != nil {
			l.logger.Warn("Batch alert dispatch failed",
				zap.String("user_id", userID.String()),
				zap.Error(err))
			continue
		}
		if result.ItemCount > 0 {
			l.logger.Info("Batch alert dispatch completed",
				zap.String("user_id", userID.String()),
				zap.Int("item_count", result.ItemCount))
		}
	}
}

// fallbackComplexNos parses the statically configured complex list, used
// when no user has any watches yet.
func (l *Loop) fallbackComplexNos() []int64 {
	var complexNos []int64
	for _, part := range strings.Split(l.cfg.SchedulerComplexesCSV, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		no, err := strconv.ParseInt(part, 10, 64)
		if err != nil || no <= 0 {
			continue
		}
		complexNos = append(complexNos, no)
	}
	return complexNos
}
