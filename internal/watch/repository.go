// File: internal/watch/repository.go
package watch

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines the interface for watched complex data access.
type Repository interface {
	Create(ctx context.Context, w *WatchedComplex) error
	FindByUser(ctx context.Context, userID uuid.UUID) ([]WatchedComplex, error)
	FindByID(ctx context.Context, userID, id uuid.UUID) (*WatchedComplex, error)
	FindByUserAndComplex(ctx context.Context, userID uuid.UUID, complexNo int64) (*WatchedComplex, error)
	Update(ctx context.Context, w *WatchedComplex) error
	Delete(ctx context.Context, w *WatchedComplex) error
	CountByUser(ctx context.Context, userID uuid.UUID) (int64, error)
	DistinctEnabledComplexNos(ctx context.Context) ([]int64, error)
	FindEnabledByComplexNo(ctx context.Context, complexNo int64) ([]WatchedComplex, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM watch repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Create(ctx context.Context, w *WatchedComplex) error {
	return r.db.WithContext(ctx).Create(w).Error
}

func (r *gormRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]WatchedComplex, error) {
	var watches []WatchedComplex
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&watches).Error
	return watches, err
}

func (r *gormRepository) FindByID(ctx context.Context, userID, id uuid.UUID) (*WatchedComplex, error) {
	var w WatchedComplex
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&w).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &w, nil
}

func (r *gormRepository) FindByUserAndComplex(ctx context.Context, userID uuid.UUID, complexNo int64) (*WatchedComplex, error) {
	var w WatchedComplex
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND complex_no = ?", userID, complexNo).
		First(&w).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &w, nil
}

func (r *gormRepository) Update(ctx context.Context, w *WatchedComplex) error {
	return r.db.WithContext(ctx).Save(w).Error
}

func (r *gormRepository) Delete(ctx context.Context, w *WatchedComplex) error {
	return r.db.WithContext(ctx).Delete(w).Error
}

func (r *gormRepository) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&WatchedComplex{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}

// DistinctEnabledComplexNos returns every complex at least one user has an
// enabled watch on. The scheduler crawls this set once per batch no matter
// how many users watch the same complex.
func (r *gormRepository) DistinctEnabledComplexNos(ctx context.Context) ([]int64, error) {
	var complexNos []int64
	err := r.db.WithContext(ctx).
		Model(&WatchedComplex{}).
		Where("enabled = ?", true).
		Distinct("complex_no").
		Order("complex_no ASC").
		Pluck("complex_no", &complexNos).Error
	return complexNos, err
}

func (r *gormRepository) FindEnabledByComplexNo(ctx context.Context, complexNo int64) ([]WatchedComplex, error) {
	var watches []WatchedComplex
	err := r.db.WithContext(ctx).
		Where("complex_no = ? AND enabled = ?", complexNo, true).
		Find(&watches).Error
	return watches, err
}
