// File: internal/scheduler/model.go
package scheduler

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// configRowID pins the configuration to a single row.
const configRowID = 1

// Config is the scheduler's runtime configuration. A single row (id = 1)
// holds it; the loop re-reads the row every tick so edits apply without a
// restart.
type Config struct {
	ID               uint       `gorm:"primaryKey" json:"-"`
	Enabled          bool       `gorm:"not null;default:false" json:"enabled"`
	Timezone         string     `gorm:"size:64;not null;default:Asia/Seoul" json:"timezone"`
	TimesCSV         string     `gorm:"size:255;not null" json:"times_csv"`
	PollSeconds      int        `gorm:"not null;default:20" json:"poll_seconds"`
	ReuseBucketHours int        `gorm:"not null;default:6" json:"reuse_bucket_hours"`
	BatchMaxPages    int        `gorm:"not null;default:3" json:"batch_max_pages"`
	UpdatedByUserID  *uuid.UUID `gorm:"type:uuid" json:"updated_by_user_id,omitempty"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name for the scheduler Config model.
func (Config) TableName() string {
	return "scheduler_configs"
}

// Times parses the configured HH:MM values, deduplicated and sorted.
// Malformed entries are dropped.
func (c *Config) Times() []string {
	seen := make(map[string]struct{})
	var times []string
	for _, part := range strings.Split(c.TimesCSV, ",") {
		part = strings.TrimSpace(part)
		if !validHHMM(part) {
			continue
		}
		if _, dup := seen[part]; dup {
			continue
		}
		seen[part] = struct{}{}
		times = append(times, part)
	}
	sort.Strings(times)
	return times
}

func validHHMM(v string) bool {
	if len(v) != 5 || v[2] != ':' {
		return false
	}
	_, err := time.Parse("15:04", v)
	return err == nil
}
