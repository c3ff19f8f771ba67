// File: internal/ingest/model.go
package ingest

import (
	"time"

	"apt_briefing_backend/internal/common"
)

// Trade type tags as the upstream reports them.
const (
	TradeTypeSale    = "매매" // outright sale
	TradeTypeLease   = "전세" // lump-sum deposit lease
	TradeTypeMonthly = "월세" // deposit plus monthly rent
)

// RunStatus is the terminal state of a crawl run.
type RunStatus string

const (
	RunStatusSuccess RunStatus = "SUCCESS"
	RunStatusFailure RunStatus = "FAILURE"
)

// CrawlRun is one ingestion attempt for one complex. Created when a fetch
// starts, stamped complete when it ends, never mutated afterward.
type CrawlRun struct {
	ID           uint64         `gorm:"primaryKey;autoIncrement" json:"id"`
	ComplexNo    int64          `gorm:"not null;index" json:"complex_no"`
	StartedAt    time.Time      `gorm:"not null" json:"started_at"`
	CompletedAt  *time.Time     `json:"completed_at,omitempty"`
	Status       RunStatus      `gorm:"type:varchar(30);not null;default:'SUCCESS'" json:"status"`
	ErrorMessage *string        `gorm:"type:text" json:"error_message,omitempty"`
	RawPayload   common.JSONMap `gorm:"not null" json:"-"`

	Listings []ListingSnapshot `gorm:"foreignKey:CrawlRunID;constraint:OnDelete:CASCADE;" json:"-"`
}

func (CrawlRun) TableName() string {
	return "crawl_runs"
}

// ListingSnapshot is one observed listing at one point in time. Immutable
// once written; superseded only by a later run's rows. The (crawl_run_id,
// article_no) unique index is the storage-level backstop against concurrent
// double-inserts.
type ListingSnapshot struct {
	ID              uint64         `gorm:"primaryKey;autoIncrement" json:"id"`
	CrawlRunID      uint64         `gorm:"not null;index;uniqueIndex:uq_run_article" json:"crawl_run_id"`
	ComplexNo       int64          `gorm:"not null;index" json:"complex_no"`
	ArticleNo       int64          `gorm:"not null;index;uniqueIndex:uq_run_article" json:"article_no"`
	ArticleName     string         `gorm:"type:varchar(255)" json:"article_name"`
	TradeTypeName   string         `gorm:"type:varchar(30);index" json:"trade_type_name"`
	DealPriceText   string         `gorm:"type:varchar(50)" json:"deal_price_text"`
	RentPriceText   string         `gorm:"type:varchar(50)" json:"rent_price_text"`
	DealPriceManwon *int           `gorm:"index" json:"deal_price_manwon,omitempty"`
	RentPriceManwon *int           `json:"rent_price_manwon,omitempty"`
	AreaM2          *float64       `json:"area_m2,omitempty"`
	FloorInfo       string         `gorm:"type:varchar(50)" json:"floor_info"`
	Direction       string         `gorm:"type:varchar(30)" json:"direction"`
	ConfirmedDate   *time.Time     `gorm:"type:date" json:"confirmed_date,omitempty"`
	Meta            common.JSONMap `gorm:"not null" json:"-"`
	ObservedAt      time.Time      `gorm:"not null;index" json:"observed_at"`
}

func (ListingSnapshot) TableName() string {
	return "listing_snapshots"
}

// Result is what one Ingest call reports back.
type Result struct {
	RunID        uint64 `json:"crawl_run_id"`
	ComplexNo    int64  `json:"complex_no"`
	ListingCount int    `json:"listing_count"`
	PagesFetched int    `json:"pages_fetched"`
	Reused       bool   `json:"reused"`
}

// RunSummary is the latest-run view used by the collection status endpoint.
type RunSummary struct {
	ComplexNo          int64      `json:"complex_no"`
	LatestCollectedAt  *time.Time `json:"latest_collected_at,omitempty"`
	LatestSuccessRunID uint64     `json:"latest_success_run_id,omitempty"`
	LastAttemptAt      *time.Time `json:"last_attempt_at,omitempty"`
	LastRunStatus      RunStatus  `json:"last_run_status,omitempty"`
	LastRunError       *string    `json:"last_run_error,omitempty"`
}
