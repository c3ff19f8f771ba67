// File: internal/auth/model.go
package auth

import (
	"time"

	"apt_briefing_backend/internal/common"

	"github.com/google/uuid"
)

// RefreshToken is a stored refresh credential. Only a SHA-256 hash of the
// opaque token is persisted; the raw value lives with the client.
type RefreshToken struct {
	common.BaseModel
	UserID    uuid.UUID  `gorm:"type:uuid;index;not null" json:"user_id"`
	TokenHash string     `gorm:"size:64;uniqueIndex;not null" json:"-"`
	ExpiresAt time.Time  `gorm:"not null;index" json:"expires_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
}

// TableName specifies the table name for the RefreshToken model.
func (RefreshToken) TableName() string {
	return "auth_refresh_tokens"
}

// AccessTokenRevocation denylists an access token by its JWT ID until the
// token would have expired anyway.
type AccessTokenRevocation struct {
	TokenID   string    `gorm:"size:36;primaryKey" json:"token_id"`
	UserID    uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expires_at"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName specifies the table name for the AccessTokenRevocation model.
func (AccessTokenRevocation) TableName() string {
	return "auth_access_token_revocations"
}
