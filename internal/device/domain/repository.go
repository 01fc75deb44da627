package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	ListAll(ctx context.Context, db *gorm.DB) ([]Device, error)
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*Device, error)
	Insert(ctx context.Context, db *gorm.DB, device *Device) error
	TouchSeen(ctx context.Context, db *gorm.DB, id int64, obs Observation) error
	ListAliases(ctx context.Context, db *gorm.DB) ([]Alias, error)
	InsertAlias(ctx context.Context, db *gorm.DB, alias *Alias) error
}
