// File: internal/watch/model.go
package watch

import (
	"apt_briefing_backend/internal/common"

	"github.com/google/uuid"
)

// WatchedComplex is one apartment complex a user follows. The scheduler
// collects listings for the distinct set of enabled watches, and alerts are
// fanned out per watcher.
type WatchedComplex struct {
	common.BaseModel
	UserID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_user_complex" json:"user_id"`
	ComplexNo   int64     `gorm:"not null;uniqueIndex:uq_user_complex;index" json:"complex_no"`
	ComplexName string    `gorm:"size:255;not null" json:"complex_name"`
	Sido        string    `gorm:"size:64" json:"sido,omitempty"`
	Gugun       string    `gorm:"size:64" json:"gugun,omitempty"`
	Dong        string    `gorm:"size:64" json:"dong,omitempty"`
	Enabled     bool      `gorm:"not null;default:true" json:"enabled"`
}

// TableName specifies the table name for the WatchedComplex model.
func (WatchedComplex) TableName() string {
	return "watched_complexes"
}
