// Package repository implements the device registry store on gorm.
package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/fleetmetrics/printledger/internal/device/domain"
)

type repositoryImpl struct{}

// New returns the gorm-backed device repository.
func New() domain.Repository {
	return &repositoryImpl{}
}

func (r *repositoryImpl) ListAll(ctx context.Context, db *gorm.DB) ([]domain.Device, error) {
	var devices []domain.Device
	if err := db.WithContext(ctx).Order("id ASC").Find(&devices).Error; err != nil {
		return nil, err
	}
	return devices, nil
}

func (r *repositoryImpl) FindByID(ctx context.Context, db *gorm.DB, id int64) (*domain.Device, error) {
	var device domain.Device
	err := db.WithContext(ctx).Where("id = ?", id).First(&device).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &device, nil
}

func (r *repositoryImpl) Insert(ctx context.Context, db *gorm.DB, device *domain.Device) error {
	return db.WithContext(ctx).Create(device).Error
}

func (r *repositoryImpl) TouchSeen(ctx context.Context, db *gorm.DB, id int64, obs domain.Observation) error {
	updates := map[string]any{
		"last_seen_at": obs.SeenAt.UTC(),
	}
	if obs.Model != "" {
		updates["model"] = obs.Model
	}
	if obs.AdvertisedName != "" {
		updates["advertised_name"] = obs.AdvertisedName
	}
	return db.WithContext(ctx).
		Model(&domain.Device{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repositoryImpl) ListAliases(ctx context.Context, db *gorm.DB) ([]domain.Alias, error) {
	var aliases []domain.Alias
	if err := db.WithContext(ctx).Find(&aliases).Error; err != nil {
		return nil, err
	}
	return aliases, nil
}

func (r *repositoryImpl) InsertAlias(ctx context.Context, db *gorm.DB, alias *domain.Alias) error {
	return db.WithContext(ctx).Create(alias).Error
}
