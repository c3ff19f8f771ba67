// File: internal/notification/model.go
package notification

import (
	"time"

	"github.com/google/uuid"
)

// Channel names used in dispatch records and preference lookups.
const (
	ChannelEmail    = "email"
	ChannelTelegram = "telegram"
)

// Preference holds a user's alerting settings. One row per user, created
// lazily with defaults on first read.
type Preference struct {
	UserID                       uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	EmailEnabled                 bool      `gorm:"not null;default:false" json:"email_enabled"`
	EmailAddress                 string    `gorm:"size:255" json:"email_address,omitempty"`
	TelegramEnabled              bool      `gorm:"not null;default:false" json:"telegram_enabled"`
	TelegramChatID               string    `gorm:"size:64" json:"telegram_chat_id,omitempty"`
	BargainAlertEnabled          bool      `gorm:"not null;default:true" json:"bargain_alert_enabled"`
	BargainLookbackDays          int       `gorm:"not null;default:30" json:"bargain_lookback_days"`
	BargainDiscountThreshold     float64   `gorm:"not null;default:0.08" json:"bargain_discount_threshold"`
	InterestTradeType            string    `gorm:"size:16" json:"interest_trade_type,omitempty"`
	MonthlyRentConversionRatePct *float64  `json:"monthly_rent_conversion_rate_pct,omitempty"`
	CreatedAt                    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt                    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name for the Preference model.
func (Preference) TableName() string {
	return "notification_preferences"
}

// EnabledChannels lists the channels this preference can deliver to, in
// dispatch order.
func (p *Preference) EnabledChannels() []string {
	var channels []string
	if p.EmailEnabled && p.EmailAddress != "" {
		channels = append(channels, ChannelEmail)
	}
	if p.TelegramEnabled && p.TelegramChatID != "" {
		channels = append(channels, ChannelTelegram)
	}
	return channels
}

// DestinationFor returns the delivery address for a channel name.
func (p *Preference) DestinationFor(channel string) string {
	switch channel {
	case ChannelEmail:
		return p.EmailAddress
	case ChannelTelegram:
		return p.TelegramChatID
	default:
		return ""
	}
}
