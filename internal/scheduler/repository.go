// File: internal/scheduler/repository.go
package scheduler

import (
	"context"
	"errors"

	appconfig "apt_briefing_backend/internal/config"

	"gorm.io/gorm"
)

// Repository defines the interface for scheduler configuration access.
type Repository interface {
	LoadOrDefault(ctx context.Context) (*Config, error)
	Save(ctx context.Context, config *Config) error
}

type gormRepository struct {
	db  *gorm.DB
	cfg *appconfig.Config
}

// NewGORMRepository creates a new GORM scheduler repository. The app config
// seeds the row when none exists yet.
func NewGORMRepository(db *gorm.DB, cfg *appconfig.Config) Repository {
	return &gormRepository{db: db, cfg: cfg}
}

func (r *gormRepository) LoadOrDefault(ctx context.Context) (*Config, error) {
	var config Config
	err := r.db.WithContext(ctx).First(&config, "id = ?", configRowID).Error
	if err == nil {
		return &config, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	config = Config{
		ID:               configRowID,
		Enabled:          r.cfg.SchedulerEnabled,
		Timezone:         r.cfg.SchedulerTimezone,
		TimesCSV:         r.cfg.SchedulerTimesCSV,
		PollSeconds:      r.cfg.SchedulerPollSeconds,
		ReuseBucketHours: r.cfg.CrawlerReuseWindow,
		BatchMaxPages:    r.cfg.SchedulerBatchMaxPages,
	}
	if err := r.db.WithContext(ctx).Create(&config).Error; err != nil {
		return nil, err
	}
	return &config, nil
}

func (r *gormRepository) Save(ctx context.Context, config *Config) error {
	config.ID = configRowID
	return r.db.WithContext(ctx).Save(config).Error
}
