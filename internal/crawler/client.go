// File: internal/crawler/client.go
package crawler

import (
	"context"

	"apt_briefing_backend/internal/common"
)

// Default filter codes sent to the listing source. APT:ABYG:JGC covers
// apartments and reconstruction targets; A1:B1:B2 covers sale, deposit
// lease and monthly rent.
const (
	DefaultRealEstateType = "APT:ABYG:JGC"
	DefaultTradeType      = "A1:B1:B2"
)

// Article is one listing record as returned by the listing source. Known
// fields are typed; the full upstream object is preserved in Extra so schema
// drift on their side never loses data on ours.
type Article struct {
	ArticleNo         int64
	ArticleName       string
	TradeTypeName     string
	DealPriceText     string
	RentPriceText     string
	FloorInfo         string
	Direction         string
	AreaM2            *float64
	ConfirmedDateText string
	Extra             common.JSONMap
}

// Page is one page of articles plus the raw payload it was decoded from.
type Page struct {
	Articles []Article
	Raw      common.JSONMap
}

// ComplexSummary is one hit from the complex keyword search.
type ComplexSummary struct {
	ComplexNo       int64  `json:"complex_no"`
	ComplexName     string `json:"complex_name"`
	RealEstateType  string `json:"real_estate_type,omitempty"`
	Address         string `json:"address,omitempty"`
	TotalHouseholds int    `json:"total_households,omitempty"`
}

// Client is the upstream listing source. Implementations must return a
// *crawler.Error for every failure so callers can branch on its kind.
type Client interface {
	FetchComplexArticles(ctx context.Context, complexNo int64, page int, realEstateType, tradeType string) (*Page, error)
	SearchComplexes(ctx context.Context, keyword string, limit int) ([]ComplexSummary, error)
}
