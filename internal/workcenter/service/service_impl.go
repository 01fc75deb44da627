package service

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fleetmetrics/printledger/internal/config"
	usagedomain "github.com/fleetmetrics/printledger/internal/usage/domain"
	"github.com/fleetmetrics/printledger/internal/workcenter/domain"
)

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	Config config.Config
	Usage  usagedomain.Service
}

type serviceImpl struct {
	db            *gorm.DB
	log           *zap.Logger
	inventoryPath string
	usage         usagedomain.Service
}

func New(p Params) domain.Service {
	return &serviceImpl{
		db:            p.DB,
		log:           p.Log.Named("workcenter.service"),
		inventoryPath: p.Config.InventoryFile,
		usage:         p.Usage,
	}
}

func (s *serviceImpl) ReloadInventory(ctx context.Context) (int, error) {
	dims, err := loadInventory(s.inventoryPath)
	if err != nil {
		return 0, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&domain.WorkCenter{}).Error; err != nil {
			return err
		}
		if len(dims) == 0 {
			return nil
		}
		return tx.CreateInBatches(dims, 500).Error
	})
	if err != nil {
		return 0, err
	}

	s.log.Info("work-center inventory reloaded",
		zap.String("path", s.inventoryPath),
		zap.Int("printers", len(dims)),
	)
	return len(dims), nil
}

func (s *serviceImpl) RebuildReport(ctx context.Context) (int, error) {
	periods, err := s.usage.List(ctx, usagedomain.Filter{})
	if err != nil {
		return 0, err
	}
	dims, err := s.List(ctx)
	if err != nil {
		return 0, err
	}

	rows := Enrich(periods, dims)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&domain.ReportRow{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.CreateInBatches(rows, 500).Error
	})
	if err != nil {
		return 0, err
	}

	s.log.Info("work-center report rebuilt", zap.Int("rows", len(rows)))
	return len(rows), nil
}

func (s *serviceImpl) List(ctx context.Context) ([]domain.WorkCenter, error) {
	var dims []domain.WorkCenter
	if err := s.db.WithContext(ctx).
		Order("device_key ASC").
		Find(&dims).Error; err != nil {
		return nil, err
	}
	return dims, nil
}

func (s *serviceImpl) Report(ctx context.Context) ([]domain.ReportRow, error) {
	var rows []domain.ReportRow
	if err := s.db.WithContext(ctx).
		Order("device_id ASC, period_end ASC, channel ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
