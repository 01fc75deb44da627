// Package service exposes reference data lookups.
package service

import (
	"context"

	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/fleetmetrics/printledger/internal/reference/domain"
)

type Params struct {
	fx.In

	DB *gorm.DB
}

type serviceImpl struct {
	db *gorm.DB
}

func New(p Params) domain.Service {
	return &serviceImpl{db: p.DB}
}

func (s *serviceImpl) ListPageCosts(ctx context.Context) ([]domain.PageCost, error) {
	var costs []domain.PageCost
	if err := s.db.WithContext(ctx).
		Order("page_id ASC").
		Find(&costs).Error; err != nil {
		return nil, err
	}
	return costs, nil
}
