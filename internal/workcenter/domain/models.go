// Package domain contains the work-center dimension models.
package domain

import "time"

// WorkCenter maps a device key to the shop-floor location that owns the
// printer. The table mirrors the inventory file and is replaced wholesale on
// every reload.
type WorkCenter struct {
	DeviceKey    string    `json:"device_key" yaml:"device_key" gorm:"primaryKey;type:text"`
	WorkCenterID string    `json:"work_center_id" yaml:"work_center_id" gorm:"type:text;not null"`
	Name         string    `json:"name" yaml:"name" gorm:"type:text"`
	Site         string    `json:"site" yaml:"site" gorm:"type:text"`
	LineID       string    `json:"line_id" yaml:"line_id" gorm:"type:text"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (WorkCenter) TableName() string { return "work_centers" }

// ReportRow is one usage period enriched with its work center. Dimension
// fields are pointers so a printer missing from the inventory keeps its usage
// row with the attribution left null.
type ReportRow struct {
	DeviceID     int64     `json:"device_id" gorm:"primaryKey;autoIncrement:false"`
	PeriodEnd    time.Time `json:"period_end" gorm:"primaryKey"`
	Channel      string    `json:"channel" gorm:"primaryKey;type:text"`
	DeviceKey    string    `json:"device_key" gorm:"type:text;not null"`
	Delta        int64     `json:"delta" gorm:"not null"`
	WorkCenterID *string   `json:"work_center_id" gorm:"type:text"`
	WorkCenter   *string   `json:"work_center" gorm:"type:text"`
	Site         *string   `json:"site" gorm:"type:text"`
	LineID       *string   `json:"line_id" gorm:"type:text"`
}

func (ReportRow) TableName() string { return "work_center_usage" }
