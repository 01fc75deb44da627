// Package seed installs reference rows the pipeline expects to exist.
package seed

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fleetmetrics/printledger/internal/reference/domain"
)

var pageCosts = []domain.PageCost{
	{Channel: "A4", PageID: 1, Cost: 0.07},
	{Channel: "A5", PageID: 2, Cost: 0.07},
}

// EnsurePageCosts inserts the per-channel page prices, leaving existing rows
// untouched so operators can override them.
func EnsurePageCosts(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&pageCosts).Error
}
