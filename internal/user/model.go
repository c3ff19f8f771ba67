// File: internal/user/model.go
package user

import (
	"apt_briefing_backend/internal/common"
)

// User represents an account holder.
type User struct {
	common.BaseModel
	Email        string `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"size:255;not null" json:"-"`
	DisplayName  string `gorm:"size:100" json:"display_name,omitempty"`
	IsActive     bool   `gorm:"not null;default:true" json:"is_active"`
}

// TableName specifies the table name for the User model.
func (User) TableName() string {
	return "users"
}
