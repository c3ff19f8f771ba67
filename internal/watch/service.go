// File: internal/watch/service.go
package watch

import (
	"context"
	"strconv"
	"sync"
	"time"

	"apt_briefing_backend/internal/billing"
	"apt_briefing_backend/internal/common"
	"apt_briefing_backend/internal/crawler"
	"apt_briefing_backend/internal/ingest"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// AddInput are the fields for creating a watch.
type AddInput struct {
	ComplexNo   int64
	ComplexName string
	Sido        string
	Gugun       string
	Dong        string
}

// UpdateInput are the mutable watch fields. Nil pointers leave the stored
// value untouched.
type UpdateInput struct {
	ComplexName *string
	Sido        *string
	Gugun       *string
	Dong        *string
	Enabled     *bool
}

// CollectionStatus pairs a watch with the state of its most recent crawl.
type CollectionStatus struct {
	Watch             WatchedComplex `json:"watch"`
	LatestCollectedAt *time.Time     `json:"latest_collected_at,omitempty"`
	LastAttemptAt     *time.Time     `json:"last_attempt_at,omitempty"`
	LastRunStatus     string         `json:"last_run_status,omitempty"`
	LastRunError      *string        `json:"last_run_error,omitempty"`
}

// LiveSnapshot is one watched complex's current first page, fetched
// directly from the listing source.
type LiveSnapshot struct {
	ComplexNo   int64             `json:"complex_no"`
	ComplexName string            `json:"complex_name"`
	Articles    []crawler.Article `json:"articles,omitempty"`
	Error       string            `json:"error,omitempty"`
}

// Service defines the interface for watched complex operations.
type Service interface {
	List(ctx context.Context, userID uuid.UUID) ([]WatchedComplex, error)
	Add(ctx context.Context, userID uuid.UUID, input AddInput) (*WatchedComplex, error)
	Update(ctx context.Context, userID, watchID uuid.UUID, input UpdateInput) (*WatchedComplex, error)
	Remove(ctx context.Context, userID, watchID uuid.UUID) error
	CollectionStatuses(ctx context.Context, userID uuid.UUID) ([]CollectionStatus, error)
	LiveSnapshots(ctx context.Context, userID uuid.UUID) ([]LiveSnapshot, error)
}

// ServiceImplementation implements the watch Service interface.
type ServiceImplementation struct {
	repository   Repository
	ingestRepo   ingest.Repository
	client       crawler.Client
	entitlements billing.Entitlements
	logger       *zap.Logger
}

// NewService creates a new watch service.
func NewService(
	repository Repository,
	ingestRepo ingest.Repository,
	client crawler.Client,
	entitlements billing.Entitlements,
	logger *zap.Logger,
) Service {
	return &ServiceImplementation{
		repository:   repository,
		ingestRepo:   ingestRepo,
		client:       client,
		entitlements: entitlements,
		logger:       logger,
	}
}

// liveFetchConcurrency bounds parallel upstream calls in LiveSnapshots.
const liveFetchConcurrency = 4

func (s *ServiceImplementation) List(ctx context.Context, userID uuid.UUID) ([]WatchedComplex, error) {
	watches, err := s.repository.FindByUser(ctx, userID)
	if err != nil {
		return nil, common.ErrInternalServer.WithDetails("Failed to list watched complexes.")
	}
	return watches, nil
}

func (s *ServiceImplementation) Add(ctx context.Context, userID uuid.UUID, input AddInput) (*WatchedComplex, error) {
	existing, err := s.repository.FindByUserAndComplex(ctx, userID, input.ComplexNo)
	if err != nil {
		return nil, common.ErrInternalServer.WithDetails("Failed to check existing watches.")
	}
	if existing != nil {
		return nil, common.ErrConflict.WithDetails("This complex is already being watched.")
	}

	limit, err := s.entitlements.WatchLimit(ctx, userID)
	if err != nil {
		return nil, err
	}
	if limit > 0 {
		count, err := s.repository.CountByUser(ctx, userID)
		if err != nil {
			return nil, common.ErrInternalServer.WithDetails("Failed to count watches.")
		}
		if count >= int64(limit) {
			return nil, common.ErrForbidden.WithDetails(
				"Your plan allows watching up to " + strconv.Itoa(limit) + " complexes.")
		}
	}

	w := &WatchedComplex{
		UserID:      userID,
		ComplexNo:   input.ComplexNo,
		ComplexName: input.ComplexName,
		Sido:        input.Sido,
		Gugun:       input.Gugun,
		Dong:        input.Dong,
		Enabled:     true,
	}
	if err := s.repository.Create(ctx, w); err != nil {
		return nil, common.ErrInternalServer.WithDetails("Failed to create watch.")
	}
	return w, nil
}

func (s *ServiceImplementation) Update(ctx context.Context, userID, watchID uuid.UUID, input UpdateInput) (*WatchedComplex, error) {
	w, err := s.repository.FindByID(ctx, userID, watchID)
	if err != nil {
		return nil, common.ErrInternalServer.WithDetails("Failed to load watch.")
	}
	if w == nil {
		return nil, common.ErrNotFound.WithDetails("Watch not found.")
	}

	if input.ComplexName != nil {
		w.ComplexName = *input.ComplexName
	}
	if input.Sido != nil {
		w.Sido = *input.Sido
	}
	if input.Gugun != nil {
		w.Gugun = *input.Gugun
	}
	if input.Dong != nil {
		w.Dong = *input.Dong
	}
	if input.Enabled != nil {
		w.Enabled = *input.Enabled
	}

	if err := s.repository.Update(ctx, w); err != nil {
		return nil, common.ErrInternalServer.WithDetails("Failed to update watch.")
	}
	return w, nil
}

func (s *ServiceImplementation) Remove(ctx context.Context, userID, watchID uuid.UUID) error {
	w, err := s.repository.FindByID(ctx, userID, watchID)
	if err != nil {
		return common.ErrInternalServer.WithDetails("Failed to load watch.")
	}
	if w == nil {
		return common.ErrNotFound.WithDetails("Watch not found.")
	}
	if err := s.repository.Delete(ctx, w); err != nil {
		return common.ErrInternalServer.WithDetails("Failed to delete watch.")
	}
	return nil
}

func (s *ServiceImplementation) CollectionStatuses(ctx context.Context, userID uuid.UUID) ([]CollectionStatus, error) {
	watches, err := s.repository.FindByUser(ctx, userID)
	if err != nil {
		return nil, common.ErrInternalServer.WithDetails("Failed to list watched complexes.")
	}

	complexNos := make([]int64, len(watches))
	for i, w := range watches {
		complexNos[i] = w.ComplexNo
	}
	summaries, err := s.ingestRepo.LatestRunSummaries(ctx, complexNos)
	if err != nil {
		return nil, common.ErrInternalServer.WithDetails("Failed to load collection summaries.")
	}

	statuses := make([]CollectionStatus, len(watches))
	for i, w := range watches {
		status := CollectionStatus{Watch: w}
		if summary := summaries[w.ComplexNo]; summary != nil {
			status.LatestCollectedAt = summary.LatestCollectedAt
			status.LastAttemptAt = summary.LastAttemptAt
			status.LastRunStatus = string(summary.LastRunStatus)
			status.LastRunError = summary.LastRunError
		}
		statuses[i] = status
	}
	return statuses, nil
}

// LiveSnapshots fetches the first listing page for each enabled watch
// concurrently. Per-complex failures land in the item's Error field rather
// than failing the whole call.
func (s *ServiceImplementation) LiveSnapshots(ctx context.Context, userID uuid.UUID) ([]LiveSnapshot, error) {
	watches, err := s.repository.FindByUser(ctx, userID)
	if err != nil {
		return nil, common.ErrInternalServer.WithDetails("Failed to list watched complexes.")
	}

	var enabled []WatchedComplex
	for _, w := range watches {
		if w.Enabled {
			enabled = append(enabled, w)
		}
	}

	snapshots := make([]LiveSnapshot, len(enabled))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(liveFetchConcurrency)
	for i, w := range enabled {
		i, w := i, w
		g.Go(func() error {
			snap := LiveSnapshot{ComplexNo: w.ComplexNo, ComplexName: w.ComplexName}
			page, err := s.client.FetchComplexArticles(gctx, w.ComplexNo, 1, crawler.DefaultRealEstateType, crawler.DefaultTradeType)
			if err != nil {
				snap.Error = err.Error()
			} else {
				snap.Articles = page.Articles
			}
			mu.Lock()
			snapshots[i] = snap
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, common.ErrInternalServer.WithDetails("Failed to fetch live snapshots.")
	}
	return snapshots, nil
}
