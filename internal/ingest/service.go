// File: internal/ingest/service.go
package ingest

import (
	"context"
	"fmt"
	"time"

	"apt_briefing_backend/internal/common"
	"apt_briefing_backend/internal/config"
	"apt_briefing_backend/internal/crawler"

	"go.uber.org/zap"
)

// Service defines the interface for the ingestion coordinator.
type Service interface {
	// Ingest fetches and persists one snapshot batch for a complex, or
	// reuses a recent run when the reuse bucket already has one.
	// reuseWindowHours==0 always fetches fresh.
	Ingest(ctx context.Context, complexNo int64, page, maxPages, reuseWindowHours int) (*Result, error)
	// PreviewArticles fetches one page from the upstream without persisting.
	PreviewArticles(ctx context.Context, complexNo int64, page int) ([]crawler.Article, error)
	SearchComplexes(ctx context.Context, keyword string, limit int) ([]crawler.ComplexSummary, error)
}

type serviceImplementation struct {
	repo   Repository
	client crawler.Client
	cfg    *config.Config
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates a new ingestion coordinator.
func NewService(repo Repository, client crawler.Client, cfg *config.Config, logger *zap.Logger) Service {
	return &serviceImplementation{
		repo:   repo,
		client: client,
		cfg:    cfg,
		logger: logger.Named("ingest"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// ResolveTimeBucket partitions the UTC day into windowHours-wide buckets and
// returns the bucket containing now. windowHours must divide cleanly into a
// day for buckets to align with the day boundary, which the config-level
// choice set {6,12,24} guarantees.
func ResolveTimeBucket(now time.Time, windowHours int) (time.Time, time.Time) {
	now = now.UTC()
	hour := (now.Hour() / windowHours) * windowHours
	bucketStart := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, time.UTC)
	return bucketStart, bucketStart.Add(time.Duration(windowHours) * time.Hour)
}

func (s *serviceImplementation) Ingest(ctx context.Context, complexNo int64, page, maxPages, reuseWindowHours int) (*Result, error) {
	if page < 1 {
		return nil, common.ErrBadRequest.WithDetails("page must be >= 1")
	}
	if maxPages < 1 {
		return nil, common.ErrBadRequest.WithDetails("max_pages must be >= 1")
	}
	if reuseWindowHours < 0 {
		reuseWindowHours = 0
	}

	if reuseWindowHours > 0 {
		bucketStart, bucketEnd := ResolveTimeBucket(s.now(), reuseWindowHours)
		existing, err := s.repo.FindReusableRun(ctx, complexNo, bucketStart, bucketEnd)
		if err != nil {
			return nil, fmt.Errorf("reuse lookup failed: %w", err)
		}
		if existing != nil {
			count, err := s.repo.CountSnapshotsByRun(ctx, existing.ID)
			if err != nil {
				return nil, fmt.Errorf("reuse count failed: %w", err)
			}
			s.logger.Debug("Reusing crawl run within current bucket",
				zap.Int64("complex_no", complexNo),
				zap.Uint64("run_id", existing.ID),
				zap.Time("bucket_start", bucketStart),
			)
			return &Result{
				RunID:        existing.ID,
				ComplexNo:    complexNo,
				ListingCount: int(count),
				Reused:       true,
			}, nil
		}
	}

	return s.fetchFresh(ctx, complexNo, page, maxPages)
}

func (s *serviceImplementation) fetchFresh(ctx context.Context, complexNo int64, page, maxPages int) (*Result, error) {
	startedAt := s.now()

	firstPage, err := s.client.FetchComplexArticles(ctx, complexNo, page, "", "")
	if err != nil {
		s.recordFailure(ctx, complexNo, startedAt, common.JSONMap{}, err)
		return nil, err
	}

	run := &CrawlRun{
		ComplexNo:  complexNo,
		StartedAt:  startedAt,
		Status:     RunStatusSuccess,
		RawPayload: firstPage.Raw,
	}

	snapshots := make([]ListingSnapshot, 0, len(firstPage.Articles)*maxPages)
	seenArticleNos := make(map[int64]struct{})
	pagesFetched := 0

	for currentPage := page; currentPage < page+maxPages; currentPage++ {
		current := firstPage
		if currentPage != page {
			current, err = s.client.FetchComplexArticles(ctx, complexNo, currentPage, "", "")
			if err != nil {
				// No partial commit: a half-populated run would corrupt
				// latest-run semantics for the bargain detector.
				s.recordFailure(ctx, complexNo, startedAt, firstPage.Raw, err)
				return nil, err
			}
		}

		if len(current.Articles) == 0 {
			break
		}
		pagesFetched++

		for _, article := range current.Articles {
			if _, seen := seenArticleNos[article.ArticleNo]; seen {
				continue
			}
			seenArticleNos[article.ArticleNo] = struct{}{}
			snapshots = append(snapshots, s.toSnapshot(complexNo, article))
		}
	}

	completedAt := s.now()
	run.CompletedAt = &completedAt
	if err := s.repo.CreateRunWithSnapshots(ctx, run, snapshots); err != nil {
		return nil, err
	}

	s.logger.Info("Ingested complex snapshot",
		zap.Int64("complex_no", complexNo),
		zap.Uint64("run_id", run.ID),
		zap.Int("listing_count", len(snapshots)),
		zap.Int("pages_fetched", pagesFetched),
	)

	return &Result{
		RunID:        run.ID,
		ComplexNo:    complexNo,
		ListingCount: len(snapshots),
		PagesFetched: pagesFetched,
	}, nil
}

func (s *serviceImplementation) toSnapshot(complexNo int64, article crawler.Article) ListingSnapshot {
	return ListingSnapshot{
		ComplexNo:       complexNo,
		ArticleNo:       article.ArticleNo,
		ArticleName:     article.ArticleName,
		TradeTypeName:   article.TradeTypeName,
		DealPriceText:   article.DealPriceText,
		RentPriceText:   article.RentPriceText,
		DealPriceManwon: PriceToManwon(article.DealPriceText),
		RentPriceManwon: PriceToManwon(article.RentPriceText),
		AreaM2:          article.AreaM2,
		FloorInfo:       article.FloorInfo,
		Direction:       article.Direction,
		ConfirmedDate:   ParseConfirmedDate(article.ConfirmedDateText),
		Meta:            article.Extra,
		ObservedAt:      s.now(),
	}
}

// recordFailure leaves a FAILURE run behind so collection status can show
// the last attempt. A failed run carries no snapshots.
func (s *serviceImplementation) recordFailure(ctx context.Context, complexNo int64, startedAt time.Time, payload common.JSONMap, cause error) {
	completedAt := s.now()
	message := cause.Error()
	failed := &CrawlRun{
		ComplexNo:    complexNo,
		StartedAt:    startedAt,
		CompletedAt:  &completedAt,
		Status:       RunStatusFailure,
		ErrorMessage: &message,
		RawPayload:   payload,
	}
	if err := s.repo.RecordFailedRun(ctx, failed); err != nil {
		s.logger.Warn("Failed to record failed crawl run",
			zap.Int64("complex_no", complexNo),
			zap.Error(err),
		)
	}
}

func (s *serviceImplementation) PreviewArticles(ctx context.Context, complexNo int64, page int) ([]crawler.Article, error) {
	result, err := s.client.FetchComplexArticles(ctx, complexNo, page, "", "")
	if err != nil {
		return nil, err
	}
	return result.Articles, nil
}

func (s *serviceImplementation) SearchComplexes(ctx context.Context, keyword string, limit int) ([]crawler.ComplexSummary, error) {
	return s.client.SearchComplexes(ctx, keyword, limit)
}
