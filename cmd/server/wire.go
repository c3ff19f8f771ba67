// File: cmd/server/wire.go
//go:build wireinject
// +build wireinject

package main

import (
	"apt_briefing_backend/internal/alert"
	"apt_briefing_backend/internal/analytics"
	"apt_briefing_backend/internal/app"
	"apt_briefing_backend/internal/auth"
	"apt_briefing_backend/internal/billing"
	"apt_briefing_backend/internal/config"
	"apt_briefing_backend/internal/crawler"
	"apt_briefing_backend/internal/ingest"
	"apt_briefing_backend/internal/jobs"
	"apt_briefing_backend/internal/notification"
	"apt_briefing_backend/internal/platform/database"
	"apt_briefing_backend/internal/platform/logger"
	"apt_briefing_backend/internal/preset"
	"apt_briefing_backend/internal/scheduler"
	"apt_briefing_backend/internal/user"
	"apt_briefing_backend/internal/watch"

	"github.com/google/wire"
)

// initializeServer is the main Wire injector.
func initializeServer(cfg *config.Config) (*app.Server, func(), error) {
	wire.Build(
		// Platform Layer
		logger.New,
		database.NewGORM,
		provideCleanup,

		// Upstream client
		crawler.NewHTTPClient,
		wire.Bind(new(crawler.Client), new(*crawler.HTTPClient)),

		// Ingest
		ingest.NewGORMRepository,
		ingest.NewService,
		ingest.NewHandler,

		// Billing
		billing.NewGORMRepository,
		billing.NewService,
		billing.NewHandler,
		wire.Bind(new(billing.Entitlements), new(billing.Service)),

		// Analytics
		analytics.NewService,
		analytics.NewHandler,

		// Users and auth
		user.NewGORMRepository,
		auth.NewGORMRepository,
		auth.NewTokenManager,
		auth.NewService,
		auth.NewHandler,

		// Notification preferences and channels
		notification.NewGORMRepository,
		notification.NewService,
		notification.NewHandler,
		provideChannels,

		// Watches
		watch.NewGORMRepository,
		watch.NewService,
		watch.NewHandler,

		// Presets
		preset.NewGORMRepository,
		preset.NewService,
		preset.NewHandler,

		// Alerts
		alert.NewGORMRepository,
		alert.NewService,
		alert.NewHandler,

		// Scheduler
		scheduler.NewGORMRepository,
		scheduler.NewHandler,
		scheduler.NewLoop,

		// Jobs
		jobs.NewCleanupJob,

		// Application Layer
		app.NewServer,
	)
	return nil, nil, nil
}
