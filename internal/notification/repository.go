// File: internal/notification/repository.go
package notification

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines the interface for notification preference data access.
type Repository interface {
	FindByUser(ctx context.Context, userID uuid.UUID) (*Preference, error)
	Create(ctx context.Context, pref *Preference) error
	Update(ctx context.Context, pref *Preference) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM notification repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) FindByUser(ctx context.Context, userID uuid.UUID) (*Preference, error) {
	var pref Preference
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&pref).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &pref, nil
}

func (r *gormRepository) Create(ctx context.Context, pref *Preference) error {
	return r.db.WithContext(ctx).Create(pref).Error
}

func (r *gormRepository) Update(ctx context.Context, pref *Preference) error {
	return r.db.WithContext(ctx).Save(pref).Error
}
