// Package domain contains the append-only snapshot ledger models.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Entry is one captured counter snapshot. Rows are only ever appended;
// corrections happen by appending newer snapshots, never by rewriting
// history.
type Entry struct {
	ID             snowflake.ID      `json:"id" gorm:"primaryKey;autoIncrement:false"`
	DeviceID       int64             `json:"device_id" gorm:"not null;index:idx_ledger_device_captured,priority:1"`
	CapturedAt     time.Time         `json:"captured_at" gorm:"not null;index:idx_ledger_device_captured,priority:2"`
	Model          string            `json:"model" gorm:"type:text"`
	AdvertisedName string            `json:"advertised_name" gorm:"type:text"`
	DeviceKey      string            `json:"device_key" gorm:"type:text;not null;index"`
	Counters       datatypes.JSONMap `json:"counters"`
	CreatedAt      time.Time         `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Entry) TableName() string { return "ledger_entries" }

// Counter returns the named channel value when present and parseable.
// JSON round-trips hand back float64 or string depending on the driver, so
// both are accepted.
func (e Entry) Counter(channel string) (int64, bool) {
	raw, ok := e.Counters[channel]
	if !ok {
		return 0, false
	}
	switch v := raw.(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		return int64(v), true
	case string:
		n, err := parseInt(v)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}
