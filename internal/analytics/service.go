// File: internal/analytics/service.go
package analytics

import (
	"context"
	"sort"
	"time"

	"apt_briefing_backend/internal/config"
	"apt_briefing_backend/internal/ingest"

	"go.uber.org/zap"
)

// TrendPoint is one calendar day of price statistics for a complex.
type TrendPoint struct {
	Date              string  `json:"date"`
	AvgEffectivePrice float64 `json:"avg_effective_price"`
	MinEffectivePrice float64 `json:"min_effective_price"`
	MaxEffectivePrice float64 `json:"max_effective_price"`
	Count             int     `json:"count"`
}

// ComparePoint is the slimmer per-day shape used when charting several
// complexes side by side.
type ComparePoint struct {
	Date              string  `json:"date"`
	AvgEffectivePrice float64 `json:"avg_effective_price"`
	Count             int     `json:"count"`
}

// CompareSeries is one complex's series in a comparison response.
type CompareSeries struct {
	ComplexNo int64          `json:"complex_no"`
	Points    []ComparePoint `json:"points"`
}

// BargainItem is a currently listed article priced materially below the
// complex's recent baseline.
type BargainItem struct {
	ComplexNo       int64    `json:"complex_no"`
	ComplexName     string   `json:"complex_name,omitempty"`
	ArticleNo       int64    `json:"article_no"`
	ArticleName     string   `json:"article_name"`
	TradeTypeName   string   `json:"trade_type"`
	DealPriceText   string   `json:"deal_price_text"`
	RentPriceText   string   `json:"rent_price_text,omitempty"`
	DealPriceManwon *int     `json:"deal_price_manwon"`
	AreaM2          *float64 `json:"area_m2,omitempty"`
	FloorInfo       string   `json:"floor_info,omitempty"`
	EffectivePrice  float64  `json:"effective_price"`
	BaselinePrice   float64  `json:"baseline_price"`
	DiscountRate    float64  `json:"discount_rate"`
}

// BargainReport carries the flagged items plus the baseline context they
// were judged against.
type BargainReport struct {
	ComplexNo         int64         `json:"complex_no"`
	TradeTypeName     string        `json:"trade_type,omitempty"`
	BaselineCount     int           `json:"baseline_count"`
	BaselinePrice     float64       `json:"baseline_price"`
	DiscountThreshold float64       `json:"discount_threshold"`
	ConversionRatePct float64       `json:"conversion_rate_pct"`
	Items             []BargainItem `json:"items"`
}

// BargainParams tunes one detection pass. Zero values fall back to the
// configured defaults.
type BargainParams struct {
	TradeTypeName     string
	LookbackDays      int
	DiscountThreshold float64
	ConversionRatePct float64
}

// Service defines the interface for price analytics.
type Service interface {
	ComplexTrend(ctx context.Context, complexNo int64, days int, tradeTypeName string) ([]TrendPoint, error)
	CompareTrend(ctx context.Context, complexNos []int64, days int, tradeTypeName string) ([]CompareSeries, error)
	DetectBargains(ctx context.Context, complexNo int64, params BargainParams) (*BargainReport, error)
}

// ServiceImplementation implements the analytics Service interface.
type ServiceImplementation struct {
	ingestRepo ingest.Repository
	cfg        *config.Config
	logger     *zap.Logger
	now        func() time.Time
}

// NewService creates a new analytics service.
func NewService(ingestRepo ingest.Repository, cfg *config.Config, logger *zap.Logger) Service {
	return &ServiceImplementation{
		ingestRepo: ingestRepo,
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
	}
}

// minBaselineObservations gates baseline computation: fewer recent
// observations than this and a complex has no trustworthy baseline, so no
// bargains are reported for it.
const minBaselineObservations = 5

func (s *ServiceImplementation) ComplexTrend(ctx context.Context, complexNo int64, days int, tradeTypeName string) ([]TrendPoint, error) {
	snapshots, err := s.lookback(ctx, []int64{complexNo}, days, tradeTypeName)
	if err != nil {
		return nil, err
	}

	buckets := bucketByDay(snapshots, s.cfg.MonthlyConversionRatePct)
	points := make([]TrendPoint, 0, len(buckets))
	for _, day := range sortedDays(buckets) {
		prices := buckets[day]
		points = append(points, TrendPoint{
			Date:              day,
			AvgEffectivePrice: round2(mean(prices)),
			MinEffectivePrice: round2(minOf(prices)),
			MaxEffectivePrice: round2(maxOf(prices)),
			Count:             len(prices),
		})
	}
	return points, nil
}

func (s *ServiceImplementation) CompareTrend(ctx context.Context, complexNos []int64, days int, tradeTypeName string) ([]CompareSeries, error) {
	snapshots, err := s.lookback(ctx, complexNos, days, tradeTypeName)
	if err != nil {
		return nil, err
	}

	byComplex := make(map[int64][]ingest.ListingSnapshot)
	for _, snap := range snapshots {
		byComplex[snap.ComplexNo] = append(byComplex[snap.ComplexNo], snap)
	}

	series := make([]CompareSeries, 0, len(complexNos))
	for _, complexNo := range complexNos {
		buckets := bucketByDay(byComplex[complexNo], s.cfg.MonthlyConversionRatePct)
		points := make([]ComparePoint, 0, len(buckets))
		for _, day := range sortedDays(buckets) {
			prices := buckets[day]
			points = append(points, ComparePoint{
				Date:              day,
				AvgEffectivePrice: round2(mean(prices)),
				Count:             len(prices),
			})
		}
		series = append(series, CompareSeries{ComplexNo: complexNo, Points: points})
	}
	return series, nil
}

func (s *ServiceImplementation) DetectBargains(ctx context.Context, complexNo int64, params BargainParams) (*BargainReport, error) {
	if params.LookbackDays <= 0 {
		params.LookbackDays = s.cfg.BargainLookbackDays
	}
	if params.DiscountThreshold <= 0 {
		params.DiscountThreshold = s.cfg.BargainDiscountThreshold
	}
	if params.ConversionRatePct == 0 {
		params.ConversionRatePct = s.cfg.MonthlyConversionRatePct
	}
	params.TradeTypeName = NormalizeTradeType(params.TradeTypeName)

	report := &BargainReport{
		ComplexNo:         complexNo,
		TradeTypeName:     params.TradeTypeName,
		DiscountThreshold: params.DiscountThreshold,
		ConversionRatePct: params.ConversionRatePct,
		Items:             []BargainItem{},
	}

	baseline, err := s.lookback(ctx, []int64{complexNo}, params.LookbackDays, params.TradeTypeName)
	if err != nil {
		return nil, err
	}
	baselinePrices := effectivePrices(baseline, params.ConversionRatePct)
	report.BaselineCount = len(baselinePrices)
	if len(baselinePrices) < minBaselineObservations {
		return report, nil
	}
	report.BaselinePrice = round2(Median(baselinePrices))

	runID, err := s.ingestRepo.LatestSuccessfulRunID(ctx, complexNo)
	if err != nil {
		return nil, err
	}
	if runID == 0 {
		return report, nil
	}
	candidates, err := s.ingestRepo.SnapshotsByRun(ctx, runID, params.TradeTypeName)
	if err != nil {
		return nil, err
	}

	for _, snap := range candidates {
		price, ok := EffectivePrice(snap.TradeTypeName, snap.DealPriceManwon, snap.RentPriceManwon, params.ConversionRatePct)
		if !ok {
			continue
		}
		discount := (report.BaselinePrice - price) / report.BaselinePrice
		if discount < params.DiscountThreshold {
			continue
		}
		report.Items = append(report.Items, BargainItem{
			ComplexNo:       snap.ComplexNo,
			ArticleNo:       snap.ArticleNo,
			ArticleName:     snap.ArticleName,
			TradeTypeName:   snap.TradeTypeName,
			DealPriceText:   snap.DealPriceText,
			RentPriceText:   snap.RentPriceText,
			DealPriceManwon: snap.DealPriceManwon,
			AreaM2:          snap.AreaM2,
			FloorInfo:       snap.FloorInfo,
			EffectivePrice:  round2(price),
			BaselinePrice:   report.BaselinePrice,
			DiscountRate:    round4(discount),
		})
	}

	sort.SliceStable(report.Items, func(i, j int) bool {
		return report.Items[i].DiscountRate > report.Items[j].DiscountRate
	})
	return report, nil
}

func (s *ServiceImplementation) lookback(ctx context.Context, complexNos []int64, days int, tradeTypeName string) ([]ingest.ListingSnapshot, error) {
	since := s.now().UTC().AddDate(0, 0, -days)
	return s.ingestRepo.SnapshotsSince(ctx, complexNos, since, NormalizeTradeType(tradeTypeName))
}

func effectivePrices(snapshots []ingest.ListingSnapshot, ratePct float64) []float64 {
	prices := make([]float64, 0, len(snapshots))
	for _, snap := range snapshots {
		if price, ok := EffectivePrice(snap.TradeTypeName, snap.DealPriceManwon, snap.RentPriceManwon, ratePct); ok {
			prices = append(prices, price)
		}
	}
	return prices
}

func bucketByDay(snapshots []ingest.ListingSnapshot, ratePct float64) map[string][]float64 {
	buckets := make(map[string][]float64)
	for _, snap := range snapshots {
		price, ok := EffectivePrice(snap.TradeTypeName, snap.DealPriceManwon, snap.RentPriceManwon, ratePct)
		if !ok {
			continue
		}
		day := snap.ObservedAt.UTC().Format("2006-01-02")
		buckets[day] = append(buckets[day], price)
	}
	return buckets
}

func sortedDays(buckets map[string][]float64) []string {
	days := make([]string, 0, len(buckets))
	for day := range buckets {
		days = append(days, day)
	}
	sort.Strings(days)
	return days
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func minOf(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

func maxOf(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

func round2(v float64) float64 {
	return float64(int64(v*100+sign(v)*0.5)) / 100
}

func round4(v float64) float64 {
	return float64(int64(v*10000+sign(v)*0.5)) / 10000
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}
