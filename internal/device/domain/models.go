// Package domain contains the device registry models.
package domain

import "time"

// Device is one physical printer with a stable identity. IDs are dense
// positive integers assigned in first-seen order, so historical reports keep
// the same numbering run after run.
type Device struct {
	ID             int64     `json:"id" gorm:"primaryKey;autoIncrement:false"`
	DeviceKey      string    `json:"device_key" gorm:"type:text;not null;uniqueIndex"`
	Model          string    `json:"model" gorm:"type:text"`
	AdvertisedName string    `json:"advertised_name" gorm:"type:text"`
	FirstSeenAt    time.Time `json:"first_seen_at" gorm:"not null"`
	LastSeenAt     time.Time `json:"last_seen_at" gorm:"not null"`
	CreatedAt      time.Time `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt      time.Time `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Device) TableName() string { return "devices" }

// Alias records an explicit, auditable unification of a second observed key
// with an existing device. Aliases are only ever created by the merge
// operation; resolution never unifies keys on its own.
type Alias struct {
	AliasKey  string    `json:"alias_key" gorm:"primaryKey;type:text"`
	DeviceID  int64     `json:"device_id" gorm:"not null;index"`
	Note      string    `json:"note" gorm:"type:text"`
	MergedAt  time.Time `json:"merged_at" gorm:"not null"`
	CreatedAt time.Time `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Alias) TableName() string { return "device_aliases" }
