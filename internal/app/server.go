// File: internal/app/server.go
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"apt_briefing_backend/internal/alert"
	"apt_briefing_backend/internal/analytics"
	"apt_briefing_backend/internal/auth"
	"apt_briefing_backend/internal/billing"
	"apt_briefing_backend/internal/config"
	"apt_briefing_backend/internal/ingest"
	"apt_briefing_backend/internal/jobs"
	"apt_briefing_backend/internal/middleware"
	"apt_briefing_backend/internal/notification"
	"apt_briefing_backend/internal/preset"
	"apt_briefing_backend/internal/scheduler"
	"apt_briefing_backend/internal/watch"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Server struct holds the dependencies for the HTTP server.
type Server struct {
	httpServer *http.Server
	router     *gin.Engine
	cfg        *config.Config
	logger     *zap.Logger

	schedulerLoop *scheduler.Loop
	cleanupJob    *jobs.CleanupJob

	loopCancel context.CancelFunc
}

// NewServer creates a new instance of our application server.
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	authService auth.Service,
	authHandler *auth.Handler,
	ingestHandler *ingest.Handler,
	analyticsHandler *analytics.Handler,
	watchHandler *watch.Handler,
	presetHandler *preset.Handler,
	notificationHandler *notification.Handler,
	alertHandler *alert.Handler,
	billingHandler *billing.Handler,
	schedulerHandler *scheduler.Handler,
	schedulerLoop *scheduler.Loop,
	cleanupJob *jobs.CleanupJob,
) (*Server, error) {
	if err := AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	gin.SetMode(cfg.GinMode)
	router := gin.New()

	router.Use(middleware.ZapLogger(logger))
	router.Use(middleware.ErrorHandler(logger))
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader}
	corsConfig.AllowCredentials = true
	corsConfig.ExposeHeaders = []string{"Content-Length", middleware.RequestIDHeader}
	router.Use(cors.New(corsConfig))

	authMW := middleware.AuthMiddleware(authService, logger.Named("AuthMiddleware"))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP", "message": "Apt Briefing API is healthy!"})
	})
	router.GET("/meta", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service":              "apt-briefing-backend",
			"reuse_window_choices": config.ReuseWindowChoices,
		})
	})

	v1 := router.Group("/api/v1")
	authHandler.RegisterRoutes(v1, authMW)
	ingestHandler.RegisterRoutes(v1)
	analyticsHandler.RegisterRoutes(v1, authMW)
	watchHandler.RegisterRoutes(v1, authMW)
	presetHandler.RegisterRoutes(v1, authMW)
	notificationHandler.RegisterRoutes(v1, authMW)
	alertHandler.RegisterRoutes(v1, authMW)
	billingHandler.RegisterRoutes(v1, authMW)
	schedulerHandler.RegisterRoutes(v1, authMW)

	addr := fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		httpServer:    httpServer,
		router:        router,
		cfg:           cfg,
		logger:        logger,
		schedulerLoop: schedulerLoop,
		cleanupJob:    cleanupJob,
	}, nil
}

// Start launches the scheduler loop, the maintenance cron and the HTTP
// server. It blocks until the HTTP server stops.
func (s *Server) Start() error {
	if s.cleanupJob != nil {
		if err := s.cleanupJob.SetupAndStart(); err != nil {
			s.logger.Error("Failed to setup and start token cleanup job", zap.Error(err))
		}
	}

	if s.schedulerLoop != nil {
		loopCtx, cancel := context.WithCancel(context.Background())
		s.loopCancel = cancel
		go s.schedulerLoop.Run(loopCtx)
	}

	s.logger.Info("HTTP Server starting",
		zap.String("address", s.httpServer.Addr),
		zap.String("gin_mode", s.cfg.GinMode),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.logger.Error("Failed to start HTTP server", zap.Error(err))
		return err
	}
	s.logger.Info("HTTP Server stopped gracefully or an error occurred")
	return nil
}

// Shutdown stops the background workers, then drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Attempting graceful server shutdown...")
	if s.loopCancel != nil {
		s.loopCancel()
	}
	if s.cleanupJob != nil {
		s.cleanupJob.Stop()
	}
	return s.httpServer.Shutdown(ctx)
}
