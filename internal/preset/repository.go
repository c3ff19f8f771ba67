// File: internal/preset/repository.go
package preset

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines the interface for preset data access.
type Repository interface {
	Create(ctx context.Context, p *UserPreset) error
	FindByUser(ctx context.Context, userID uuid.UUID) ([]UserPreset, error)
	FindByID(ctx context.Context, userID, id uuid.UUID) (*UserPreset, error)
	FindByName(ctx context.Context, userID uuid.UUID, name string) (*UserPreset, error)
	Update(ctx context.Context, p *UserPreset) error
	Delete(ctx context.Context, p *UserPreset) error
	CountByUser(ctx context.Context, userID uuid.UUID) (int64, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM preset repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Create(ctx context.Context, p *UserPreset) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *gormRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]UserPreset, error) {
	var presets []UserPreset
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("name ASC").
		Find(&presets).Error
	return presets, err
}

func (r *gormRepository) FindByID(ctx context.Context, userID, id uuid.UUID) (*UserPreset, error) {
	var p UserPreset
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *gormRepository) FindByName(ctx context.Context, userID uuid.UUID, name string) (*UserPreset, error) {
	var p UserPreset
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND name = ?", userID, name).
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *gormRepository) Update(ctx context.Context, p *UserPreset) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *gormRepository) Delete(ctx context.Context, p *UserPreset) error {
	return r.db.WithContext(ctx).Delete(p).Error
}

func (r *gormRepository) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&UserPreset{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}
