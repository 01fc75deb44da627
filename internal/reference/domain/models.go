// Package domain contains static reference data.
package domain

import "context"

// PageCost prices one counter channel. The table is seeded reference data
// used when turning page deltas into spend.
type PageCost struct {
	Channel string  `json:"channel" gorm:"primaryKey;type:text"`
	PageID  int     `json:"page_id" gorm:"not null;uniqueIndex"`
	Cost    float64 `json:"cost" gorm:"not null"`
}

// TableName sets the database table name.
func (PageCost) TableName() string { return "page_costs" }

type Service interface {
	ListPageCosts(ctx context.Context) ([]PageCost, error)
}
