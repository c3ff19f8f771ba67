// File: cmd/server/main.go
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"apt_briefing_backend/internal/config"
	"apt_briefing_backend/internal/crawler"
	"apt_briefing_backend/internal/ingest"
	"apt_briefing_backend/internal/platform/database"
	"apt_briefing_backend/internal/platform/logger"

	"go.uber.org/zap"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "crawl" {
		runCrawlCommand(os.Args[2:])
		return
	}

	startServer()
}

func startServer() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	server, cleanup, err := initializeServer(cfg)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize server: %v", err)
	}
	defer cleanup()

	go func() {
		if err := server.Start(); err != nil && err.Error() != "http: Server closed" {
			log.Fatalf("FATAL: Server failed to start or crashed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Printf("INFO: Received signal '%s'. Shutting down server...", sig)

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.ServerTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("ERROR: Server forced to shutdown due to error: %v", err)
	} else {
		log.Println("INFO: Server shutdown complete.")
	}
	log.Println("INFO: Application exiting.")
}

// runCrawlCommand does a one-shot ingest for a single complex, bypassing
// the HTTP server. Useful for backfills and smoke tests.
func runCrawlCommand(args []string) {
	crawlCmd := flag.NewFlagSet("crawl", flag.ExitOnError)
	complexNo := crawlCmd.Int64("complex-no", 0, "Complex number to collect")
	maxPages := crawlCmd.Int("max-pages", 3, "Maximum pages to fetch")
	force := crawlCmd.Bool("force", false, "Skip the reuse window and always fetch fresh")
	crawlCmd.Parse(args)

	if *complexNo <= 0 {
		log.Fatal("FATAL: --complex-no is required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration for crawl: %v", err)
	}
	appLogger, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize logger for crawl: %v", err)
	}
	db, err := database.NewGORM(cfg)
	if err != nil {
		appLogger.Fatal("FATAL: Failed to initialize database for crawl", zap.Error(err))
	}
	defer database.CloseGORMDB(db)

	if err := db.AutoMigrate(&ingest.CrawlRun{}, &ingest.ListingSnapshot{}); err != nil {
		appLogger.Fatal("FATAL: Failed to run migrations for crawl", zap.Error(err))
	}

	client := crawler.NewHTTPClient(cfg, appLogger)
	repo := ingest.NewGORMRepository(db)
	service := ingest.NewService(repo, client, cfg, appLogger)

	reuseWindow := cfg.CrawlerReuseWindow
	if *force {
		reuseWindow = 0
	}

	result, err := service.Ingest(context.Background(), *complexNo, 1, *maxPages, reuseWindow)
	if err != nil {
		appLogger.Fatal("Crawl failed", zap.Int64("complex_no", *complexNo), zap.Error(err))
	}
	appLogger.Info("Crawl completed",
		zap.Int64("complex_no", result.ComplexNo),
		zap.Uint64("run_id", result.RunID),
		zap.Int("listing_count", result.ListingCount),
		zap.Int("pages_fetched", result.PagesFetched),
		zap.Bool("reused", result.Reused),
	)
}
