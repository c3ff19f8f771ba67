// File: internal/app/migrate.go
package app

import (
	"apt_briefing_backend/internal/alert"
	"apt_briefing_backend/internal/auth"
	"apt_briefing_backend/internal/billing"
	"apt_briefing_backend/internal/ingest"
	"apt_briefing_backend/internal/notification"
	"apt_briefing_backend/internal/preset"
	"apt_briefing_backend/internal/scheduler"
	"apt_briefing_backend/internal/user"
	"apt_briefing_backend/internal/watch"

	"gorm.io/gorm"
)

// AutoMigrate creates or updates the schema for every model the server
// persists.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&user.User{},
		&auth.RefreshToken{},
		&auth.AccessTokenRevocation{},
		&billing.UserSubscription{},
		&billing.CheckoutSession{},
		&notification.Preference{},
		&watch.WatchedComplex{},
		&preset.UserPreset{},
		&ingest.CrawlRun{},
		&ingest.ListingSnapshot{},
		&alert.DispatchRecord{},
		&scheduler.Config{},
	)
}
