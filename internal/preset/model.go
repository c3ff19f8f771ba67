// File: internal/preset/model.go
package preset

import (
	"apt_briefing_backend/internal/common"

	"github.com/google/uuid"
)

// UserPreset is a saved filter and chart configuration. Names are unique
// per user.
type UserPreset struct {
	common.BaseModel
	UserID      uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:uq_user_preset_name" json:"user_id"`
	Name        string         `gorm:"size:100;not null;uniqueIndex:uq_user_preset_name" json:"name"`
	Filters     common.JSONMap `gorm:"type:jsonb" json:"filters"`
	ChartConfig common.JSONMap `gorm:"type:jsonb" json:"chart_config"`
}

// TableName specifies the table name for the UserPreset model.
func (UserPreset) TableName() string {
	return "user_presets"
}
