// File: internal/alert/model.go
package alert

import (
	"fmt"

	"apt_briefing_backend/internal/common"

	"github.com/google/uuid"
)

// Alert types recorded in the dispatch log.
const AlertTypeBargain = "bargain"

// DispatchRecord is one delivered alert item. The unique index over
// (user, channel, alert type, dedupe key) is what makes dispatch
// idempotent: a key already present is never sent again on that channel.
type DispatchRecord struct {
	common.BaseModel
	UserID    uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:uq_alert_dedupe" json:"user_id"`
	Channel   string         `gorm:"size:32;not null;uniqueIndex:uq_alert_dedupe" json:"channel"`
	AlertType string         `gorm:"size:32;not null;uniqueIndex:uq_alert_dedupe" json:"alert_type"`
	DedupeKey string         `gorm:"size:128;not null;uniqueIndex:uq_alert_dedupe" json:"dedupe_key"`
	Payload   common.JSONMap `gorm:"type:jsonb" json:"payload"`
}

// TableName specifies the table name for the DispatchRecord model.
func (DispatchRecord) TableName() string {
	return "alert_dispatch_records"
}

// BargainDedupeKey builds the dedupe key for a bargain item. The deal
// price is part of the key so a re-priced article alerts again.
func BargainDedupeKey(complexNo, articleNo int64, dealPriceManwon *int) string {
	price := 0
	if dealPriceManwon != nil {
		price = *dealPriceManwon
	}
	return fmt.Sprintf("bargain:%d:%d:%d", complexNo, articleNo, price)
}
