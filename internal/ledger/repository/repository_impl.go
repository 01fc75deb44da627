// Package repository implements the ledger store on gorm.
package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/fleetmetrics/printledger/internal/ledger/domain"
)

type repositoryImpl struct{}

// New returns the gorm-backed ledger repository.
func New() domain.Repository {
	return &repositoryImpl{}
}

func (r *repositoryImpl) LoadAll(ctx context.Context, db *gorm.DB) ([]domain.Entry, error) {
	var entries []domain.Entry
	err := db.WithContext(ctx).Order("id ASC").Find(&entries).Error
	if err != nil {
		if isMissingTable(err) {
			return nil, nil
		}
		return nil, err
	}
	return entries, nil
}

func (r *repositoryImpl) ListByDevice(ctx context.Context, db *gorm.DB, deviceID int64) ([]domain.Entry, error) {
	var entries []domain.Entry
	if err := db.WithContext(ctx).
		Where("device_id = ?", deviceID).
		Order("id ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repositoryImpl) Append(ctx context.Context, db *gorm.DB, entry *domain.Entry) error {
	return db.WithContext(ctx).Create(entry).Error
}

// isMissingTable detects a ledger table that has not been created yet, across
// the supported dialects.
func isMissingTable(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "no such table") || // sqlite
		strings.Contains(msg, "does not exist") || // postgres
		strings.Contains(msg, "doesn't exist") // mysql
}
