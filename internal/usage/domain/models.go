// Package domain contains the derived usage models.
package domain

import "time"

// Period is the page delta for one device and channel between two consecutive
// snapshots. The table is a pure derivation of the ledger and is rebuilt in
// full on every reconciliation run.
type Period struct {
	DeviceID  int64     `json:"device_id" gorm:"primaryKey;autoIncrement:false"`
	PeriodEnd time.Time `json:"period_end" gorm:"primaryKey"`
	Channel   string    `json:"channel" gorm:"primaryKey;type:text"`
	DeviceKey string    `json:"device_key" gorm:"type:text;not null;index"`
	Delta     int64     `json:"delta" gorm:"not null"`
}

// TableName sets the database table name.
func (Period) TableName() string { return "usage_periods" }
