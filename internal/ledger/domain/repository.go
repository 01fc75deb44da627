package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	// LoadAll returns every entry in append order. A database without a
	// ledger table yet reads as an empty history, not an error.
	LoadAll(ctx context.Context, db *gorm.DB) ([]Entry, error)

	ListByDevice(ctx context.Context, db *gorm.DB, deviceID int64) ([]Entry, error)
	Append(ctx context.Context, db *gorm.DB, entry *Entry) error
}
