// File: internal/alert/repository.go
package alert

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines the interface for alert dispatch log access.
type Repository interface {
	ExistingKeys(ctx context.Context, userID uuid.UUID, channel, alertType string, keys []string) (map[string]struct{}, error)
	CreateRecords(ctx context.Context, records []DispatchRecord) error
	RecentRecords(ctx context.Context, userID uuid.UUID, limit int) ([]DispatchRecord, error)
	DeleteRecordsBefore(ctx context.Context, before time.Time) (int64, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM alert repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) ExistingKeys(ctx context.Context, userID uuid.UUID, channel, alertType string, keys []string) (map[string]struct{}, error) {
	existing := make(map[string]struct{})
	if len(keys) == 0 {
		return existing, nil
	}

	var found []string
	err := r.db.WithContext(ctx).
		Model(&DispatchRecord{}).
		Where("user_id = ? AND channel = ? AND alert_type = ? AND dedupe_key IN ?", userID, channel, alertType, keys).
		Pluck("dedupe_key", &found).Error
	if err != nil {
		return nil, err
	}
	for _, key := range found {
		existing[key] = struct{}{}
	}
	return existing, nil
}

func (r *gormRepository) CreateRecords(ctx context.Context, records []DispatchRecord) error {
	if len(records) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(records, 200).Error
}

func (r *gormRepository) RecentRecords(ctx context.Context, userID uuid.UUID, limit int) ([]DispatchRecord, error) {
	var records []DispatchRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error
	return records, err
}

func (r *gormRepository) DeleteRecordsBefore(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("created_at < ?", before).
		Delete(&DispatchRecord{})
	return result.RowsAffected, result.Error
}
