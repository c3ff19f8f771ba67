// File: internal/ingest/repository.go
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Repository defines the interface for crawl run and snapshot persistence.
type Repository interface {
	// CreateRunWithSnapshots persists the run and all its snapshots in one
	// transaction. Readers never observe a partially-ingested run.
	CreateRunWithSnapshots(ctx context.Context, run *CrawlRun, snapshots []ListingSnapshot) error
	RecordFailedRun(ctx context.Context, run *CrawlRun) error
	FindReusableRun(ctx context.Context, complexNo int64, bucketStart, bucketEnd time.Time) (*CrawlRun, error)
	CountSnapshotsByRun(ctx context.Context, runID uint64) (int64, error)
	LatestSuccessfulRunID(ctx context.Context, complexNo int64) (uint64, error)
	SnapshotsByRun(ctx context.Context, runID uint64, tradeTypeName string) ([]ListingSnapshot, error)
	SnapshotsSince(ctx context.Context, complexNos []int64, since time.Time, tradeTypeName string) ([]ListingSnapshot, error)
	LatestRunSummaries(ctx context.Context, complexNos []int64) (map[int64]*RunSummary, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM ingest repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) CreateRunWithSnapshots(ctx context.Context, run *CrawlRun, snapshots []ListingSnapshot) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(run).Error; err != nil {
			return fmt.Errorf("failed to create crawl run: %w", err)
		}
		for i := range snapshots {
			snapshots[i].CrawlRunID = run.ID
		}
		if len(snapshots) > 0 {
			if err := tx.CreateInBatches(snapshots, 500).Error; err != nil {
				return fmt.Errorf("failed to create listing snapshots: %w", err)
			}
		}
		return nil
	})
}

func (r *gormRepository) RecordFailedRun(ctx context.Context, run *CrawlRun) error {
	if err := r.db.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("failed to record failed crawl run: %w", err)
	}
	return nil
}

func (r *gormRepository) FindReusableRun(ctx context.Context, complexNo int64, bucketStart, bucketEnd time.Time) (*CrawlRun, error) {
	var run CrawlRun
	err := r.db.WithContext(ctx).
		Where("complex_no = ? AND status = ?", complexNo, RunStatusSuccess).
		Where("completed_at IS NOT NULL AND completed_at >= ? AND completed_at < ?", bucketStart, bucketEnd).
		Order("completed_at DESC").
		First(&run).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &run, nil
}

func (r *gormRepository) CountSnapshotsByRun(ctx context.Context, runID uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&ListingSnapshot{}).
		Where("crawl_run_id = ?", runID).
		Count(&count).Error
	return count, err
}

// LatestSuccessfulRunID resolves by start time descending, so concurrent
// ingestions for the same complex are resolved by most-recently-started.
func (r *gormRepository) LatestSuccessfulRunID(ctx context.Context, complexNo int64) (uint64, error) {
	var run CrawlRun
	err := r.db.WithContext(ctx).
		Select("id").
		Where("complex_no = ? AND status = ?", complexNo, RunStatusSuccess).
		Order("started_at DESC").
		First(&run).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return run.ID, nil
}

func (r *gormRepository) SnapshotsByRun(ctx context.Context, runID uint64, tradeTypeName string) ([]ListingSnapshot, error) {
	query := r.db.WithContext(ctx).Where("crawl_run_id = ?", runID)
	if tradeTypeName != "" {
		query = query.Where("trade_type_name = ?", tradeTypeName)
	}
	var snapshots []ListingSnapshot
	if err := query.Find(&snapshots).Error; err != nil {
		return nil, fmt.Errorf("failed to load snapshots for run %d: %w", runID, err)
	}
	return snapshots, nil
}

func (r *gormRepository) SnapshotsSince(ctx context.Context, complexNos []int64, since time.Time, tradeTypeName string) ([]ListingSnapshot, error) {
	if len(complexNos) == 0 {
		return nil, nil
	}
	query := r.db.WithContext(ctx).
		Where("complex_no IN ?", complexNos).
		Where("observed_at >= ?", since)
	if tradeTypeName != "" {
		query = query.Where("trade_type_name = ?", tradeTypeName)
	}
	var snapshots []ListingSnapshot
	if err := query.Find(&snapshots).Error; err != nil {
		return nil, fmt.Errorf("failed to load snapshots since %s: %w", since.Format(time.RFC3339), err)
	}
	return snapshots, nil
}

func (r *gormRepository) LatestRunSummaries(ctx context.Context, complexNos []int64) (map[int64]*RunSummary, error) {
	summaries := make(map[int64]*RunSummary, len(complexNos))
	if len(complexNos) == 0 {
		return summaries, nil
	}

	var runs []CrawlRun
	err := r.db.WithContext(ctx).
		Where("complex_no IN ?", complexNos).
		Order("started_at DESC").
		Find(&runs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load run summaries: %w", err)
	}

	for i := range runs {
		run := &runs[i]
		summary, ok := summaries[run.ComplexNo]
		if !ok {
			summary = &RunSummary{ComplexNo: run.ComplexNo}
			summaries[run.ComplexNo] = summary
		}
		if summary.LastAttemptAt == nil {
			startedAt := run.StartedAt
			summary.LastAttemptAt = &startedAt
			summary.LastRunStatus = run.Status
			summary.LastRunError = run.ErrorMessage
		}
		if run.Status == RunStatusSuccess && summary.LatestSuccessRunID == 0 {
			summary.LatestSuccessRunID = run.ID
			summary.LatestCollectedAt = run.CompletedAt
		}
	}
	return summaries, nil
}
