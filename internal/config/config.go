// File: internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ReuseWindowChoices are the accepted crawl reuse bucket widths in hours.
// Zero disables reuse entirely (every ingest call fetches fresh).
var ReuseWindowChoices = []int{0, 6, 12, 24}

// Config holds all configuration for the application.
type Config struct {
	// Server Configuration
	GinMode       string        `mapstructure:"GIN_MODE"`
	ServerHost    string        `mapstructure:"SERVER_HOST"`
	ServerPort    string        `mapstructure:"SERVER_PORT"`
	ServerTimeout time.Duration `mapstructure:"SERVER_TIMEOUT_SECONDS"`

	// Database Configuration
	DBHost            string        `mapstructure:"DB_HOST"`
	DBPort            string        `mapstructure:"DB_PORT"`
	DBUser            string        `mapstructure:"DB_USER"`
	DBPassword        string        `mapstructure:"DB_PASSWORD"`
	DBName            string        `mapstructure:"DB_NAME"`
	DBSSLMode         string        `mapstructure:"DB_SSL_MODE"`
	DBTimezone        string        `mapstructure:"DB_TIMEZONE"`
	DBMaxIdleConns    int           `mapstructure:"DB_MAX_IDLE_CONNS"`
	DBMaxOpenConns    int           `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBConnMaxLifetime time.Duration `mapstructure:"DB_CONN_MAX_LIFETIME_MINUTES"`

	// Logging Configuration
	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	// Auth Configuration
	AuthSecretKey            string        `mapstructure:"AUTH_SECRET_KEY"`
	AuthJWTIssuer            string        `mapstructure:"AUTH_JWT_ISSUER"`
	AuthAccessTokenTTL       time.Duration `mapstructure:"AUTH_ACCESS_TOKEN_TTL_MINUTES"`
	AuthRefreshTokenTTL      time.Duration `mapstructure:"AUTH_REFRESH_TOKEN_TTL_DAYS"`
	AuthRegisterInviteCode   string        `mapstructure:"AUTH_REGISTER_INVITE_CODE"`
	AuthRegisterRateLimit    int           `mapstructure:"AUTH_REGISTER_RATE_LIMIT_PER_WINDOW"`
	AuthRegisterRateWindow   time.Duration `mapstructure:"AUTH_REGISTER_RATE_LIMIT_WINDOW_MINUTES"`
	AuthTokenCleanupSchedule string        `mapstructure:"AUTH_TOKEN_CLEANUP_JOB_SCHEDULE"`

	// Upstream crawler (Naver Land)
	NaverLandBaseURL       string        `mapstructure:"NAVER_LAND_BASE_URL"`
	NaverLandAuthorization string        `mapstructure:"NAVER_LAND_AUTHORIZATION"`
	CrawlerTimeout         time.Duration `mapstructure:"CRAWLER_TIMEOUT_SECONDS"`
	CrawlerRatePerSecond   float64       `mapstructure:"CRAWLER_RATE_PER_SECOND"`
	CrawlerReuseWindow     int           `mapstructure:"CRAWLER_REUSE_WINDOW_HOURS"`
	CrawlerMaxPages        int           `mapstructure:"CRAWLER_MAX_PAGES"`

	// Scheduler fallback defaults. Live values come from the scheduler_configs
	// row and are re-read on every tick.
	SchedulerEnabled       bool   `mapstructure:"SCHEDULER_ENABLED"`
	SchedulerTimezone      string `mapstructure:"SCHEDULER_TIMEZONE"`
	SchedulerTimesCSV      string `mapstructure:"SCHEDULER_TIMES_CSV"`
	SchedulerPollSeconds   int    `mapstructure:"SCHEDULER_POLL_SECONDS"`
	SchedulerComplexesCSV  string `mapstructure:"SCHEDULER_COMPLEX_NOS_CSV"`
	SchedulerBatchMaxPages int    `mapstructure:"SCHEDULER_BATCH_MAX_PAGES"`

	// Analytics defaults
	MonthlyConversionRatePct float64 `mapstructure:"MONTHLY_CONVERSION_RATE_PCT"`
	BargainLookbackDays      int     `mapstructure:"BARGAIN_LOOKBACK_DAYS"`
	BargainDiscountThreshold float64 `mapstructure:"BARGAIN_DISCOUNT_THRESHOLD"`

	// SMTP (email alerts)
	SMTPEnabled     bool   `mapstructure:"SMTP_ENABLED"`
	SMTPHost        string `mapstructure:"SMTP_HOST"`
	SMTPPort        int    `mapstructure:"SMTP_PORT"`
	SMTPUsername    string `mapstructure:"SMTP_USERNAME"`
	SMTPPassword    string `mapstructure:"SMTP_PASSWORD"`
	SMTPSenderEmail string `mapstructure:"SMTP_SENDER_EMAIL"`
	SMTPUseTLS      bool   `mapstructure:"SMTP_USE_TLS"`

	// Telegram (chat alerts)
	TelegramEnabled    bool   `mapstructure:"TELEGRAM_ENABLED"`
	TelegramBotToken   string `mapstructure:"TELEGRAM_BOT_TOKEN"`
	TelegramAPIBaseURL string `mapstructure:"TELEGRAM_API_BASE_URL"`
}

// GORMDSN builds the postgres DSN from the individual DB_* parameters.
func (c *Config) GORMDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode, c.DBTimezone)
}

// IsValidReuseWindow reports whether hours is one of the accepted bucket widths.
func IsValidReuseWindow(hours int) bool {
	for _, choice := range ReuseWindowChoices {
		if hours == choice {
			return true
		}
	}
	return false
}

// Load attempts to load configuration from a .env file (if present) and environment variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	v := viper.New()

	// Set default values
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_TIMEOUT_SECONDS", 30)

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "apt_briefing_db")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_TIMEZONE", "UTC")
	v.SetDefault("DB_MAX_IDLE_CONNS", 10)
	v.SetDefault("DB_MAX_OPEN_CONNS", 100)
	v.SetDefault("DB_CONN_MAX_LIFETIME_MINUTES", 60)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")

	v.SetDefault("AUTH_SECRET_KEY", "change-me-in-prod")
	v.SetDefault("AUTH_JWT_ISSUER", "apt-briefing")
	v.SetDefault("AUTH_ACCESS_TOKEN_TTL_MINUTES", 15)
	v.SetDefault("AUTH_REFRESH_TOKEN_TTL_DAYS", 30)
	v.SetDefault("AUTH_REGISTER_INVITE_CODE", "")
	v.SetDefault("AUTH_REGISTER_RATE_LIMIT_PER_WINDOW", 5)
	v.SetDefault("AUTH_REGISTER_RATE_LIMIT_WINDOW_MINUTES", 10)
	v.SetDefault("AUTH_TOKEN_CLEANUP_JOB_SCHEDULE", "@daily")

	v.SetDefault("NAVER_LAND_BASE_URL", "https://new.land.naver.com")
	v.SetDefault("NAVER_LAND_AUTHORIZATION", "")
	v.SetDefault("CRAWLER_TIMEOUT_SECONDS", 10)
	v.SetDefault("CRAWLER_RATE_PER_SECOND", 2.0)
	v.SetDefault("CRAWLER_REUSE_WINDOW_HOURS", 12)
	v.SetDefault("CRAWLER_MAX_PAGES", 20)

	v.SetDefault("SCHEDULER_ENABLED", false)
	v.SetDefault("SCHEDULER_TIMEZONE", "Asia/Seoul")
	v.SetDefault("SCHEDULER_TIMES_CSV", "09:00,18:00")
	v.SetDefault("SCHEDULER_POLL_SECONDS", 20)
	v.SetDefault("SCHEDULER_COMPLEX_NOS_CSV", "")
	v.SetDefault("SCHEDULER_BATCH_MAX_PAGES", 10)

	v.SetDefault("MONTHLY_CONVERSION_RATE_PCT", 5.1)
	v.SetDefault("BARGAIN_LOOKBACK_DAYS", 30)
	v.SetDefault("BARGAIN_DISCOUNT_THRESHOLD", 0.08)

	v.SetDefault("SMTP_ENABLED", false)
	v.SetDefault("SMTP_HOST", "")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USERNAME", "")
	v.SetDefault("SMTP_PASSWORD", "")
	v.SetDefault("SMTP_SENDER_EMAIL", "")
	v.SetDefault("SMTP_USE_TLS", true)

	v.SetDefault("TELEGRAM_ENABLED", false)
	v.SetDefault("TELEGRAM_BOT_TOKEN", "")
	v.SetDefault("TELEGRAM_API_BASE_URL", "https://api.telegram.org")

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling configuration: %w", err)
	}

	// Convert duration fields
	cfg.ServerTimeout = time.Duration(v.GetInt("SERVER_TIMEOUT_SECONDS")) * time.Second
	cfg.DBConnMaxLifetime = time.Duration(v.GetInt("DB_CONN_MAX_LIFETIME_MINUTES")) * time.Minute
	cfg.AuthAccessTokenTTL = time.Duration(v.GetInt("AUTH_ACCESS_TOKEN_TTL_MINUTES")) * time.Minute
	cfg.AuthRefreshTokenTTL = time.Duration(v.GetInt("AUTH_REFRESH_TOKEN_TTL_DAYS")) * 24 * time.Hour
	cfg.AuthRegisterRateWindow = time.Duration(v.GetInt("AUTH_REGISTER_RATE_LIMIT_WINDOW_MINUTES")) * time.Minute
	cfg.CrawlerTimeout = time.Duration(v.GetInt("CRAWLER_TIMEOUT_SECONDS")) * time.Second

	// Basic validation for critical configs
	if !IsValidReuseWindow(cfg.CrawlerReuseWindow) {
		return nil, fmt.Errorf("CRAWLER_REUSE_WINDOW_HOURS must be one of %v, got %d",
			ReuseWindowChoices, cfg.CrawlerReuseWindow)
	}
	if strings.TrimSpace(cfg.AuthSecretKey) == "" {
		return nil, fmt.Errorf("AUTH_SECRET_KEY must not be empty")
	}
	if cfg.SchedulerPollSeconds < 5 {
		cfg.SchedulerPollSeconds = 5
	}

	return &cfg, nil
}
