package service

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	ledgerdomain "github.com/fleetmetrics/printledger/internal/ledger/domain"
	obsmetrics "github.com/fleetmetrics/printledger/internal/observability/metrics"
	"github.com/fleetmetrics/printledger/internal/usage/domain"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	LedgerRepo ledgerdomain.Repository
	Metrics    *obsmetrics.Metrics `optional:"true"`
}

type serviceImpl struct {
	db         *gorm.DB
	log        *zap.Logger
	ledgerRepo ledgerdomain.Repository
	metrics    *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	return &serviceImpl{
		db:         p.DB,
		log:        p.Log.Named("usage.service"),
		ledgerRepo: p.LedgerRepo,
		metrics:    p.Metrics,
	}
}

func (s *serviceImpl) Rebuild(ctx context.Context) (int, error) {
	entries, err := s.ledgerRepo.LoadAll(ctx, s.db)
	if err != nil {
		return 0, err
	}
	periods := ComputePeriods(entries)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&domain.Period{}).Error; err != nil {
			return err
		}
		if len(periods) == 0 {
			return nil
		}
		return tx.CreateInBatches(periods, 500).Error
	})
	if err != nil {
		return 0, err
	}

	s.metrics.RecordUsagePeriods(ctx, len(periods))
	s.log.Info("usage periods rebuilt",
		zap.Int("ledger_entries", len(entries)),
		zap.Int("periods", len(periods)),
	)
	return len(periods), nil
}

func (s *serviceImpl) List(ctx context.Context, filter domain.Filter) ([]domain.Period, error) {
	query := s.db.WithContext(ctx).Model(&domain.Period{})
	if filter.DeviceID > 0 {
		query = query.Where("device_id = ?", filter.DeviceID)
	}
	if filter.Channel != "" {
		query = query.Where("channel = ?", filter.Channel)
	}
	if !filter.Since.IsZero() {
		query = query.Where("period_end >= ?", filter.Since)
	}
	if !filter.Until.IsZero() {
		query = query.Where("period_end <= ?", filter.Until)
	}

	var periods []domain.Period
	if err := query.
		Order("device_id ASC, period_end ASC, channel ASC").
		Find(&periods).Error; err != nil {
		return nil, err
	}
	return periods, nil
}
