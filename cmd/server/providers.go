// File: cmd/server/providers.go
package main

import (
	"log"

	"apt_briefing_backend/internal/config"
	"apt_briefing_backend/internal/notification"
	"apt_briefing_backend/internal/platform/database"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

func provideChannels(cfg *config.Config, appLogger *zap.Logger) []notification.Channel {
	return []notification.Channel{
		notification.NewEmailChannel(cfg, appLogger.Named("EmailChannel")),
		notification.NewTelegramChannel(cfg, appLogger.Named("TelegramChannel")),
	}
}

func provideCleanup(appLogger *zap.Logger, db *gorm.DB) func() {
	return func() {
		appLogger.Info("Executing cleanup tasks...")
		database.CloseGORMDB(db)
		if err := appLogger.Sync(); err != nil {
			log.Printf("ERROR: Failed to sync logger during cleanup: %v", err)
		}
		log.Println("Cleanup finished.")
	}
}
