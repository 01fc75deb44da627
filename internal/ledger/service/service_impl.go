// Package service implements the ledger operations.
package service

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/fleetmetrics/printledger/internal/ledger/domain"
	obsmetrics "github.com/fleetmetrics/printledger/internal/observability/metrics"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Node    *snowflake.Node
	Repo    domain.Repository
	Metrics *obsmetrics.Metrics `optional:"true"`
}

type serviceImpl struct {
	db      *gorm.DB
	log     *zap.Logger
	node    *snowflake.Node
	repo    domain.Repository
	metrics *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	return &serviceImpl{
		db:      p.DB,
		log:     p.Log.Named("ledger.service"),
		node:    p.Node,
		repo:    p.Repo,
		metrics: p.Metrics,
	}
}

func (s *serviceImpl) Load(ctx context.Context) ([]domain.Entry, error) {
	return s.repo.LoadAll(ctx, s.db)
}

func (s *serviceImpl) ListByDevice(ctx context.Context, deviceID int64) ([]domain.Entry, error) {
	return s.repo.ListByDevice(ctx, s.db, deviceID)
}

func (s *serviceImpl) Append(ctx context.Context, req domain.AppendRequest) (*domain.Entry, error) {
	if req.DeviceID <= 0 {
		return nil, fmt.Errorf("%w: device id must be positive", domain.ErrInvalidEntry)
	}
	if req.CapturedAt.IsZero() {
		return nil, fmt.Errorf("%w: captured_at is required", domain.ErrInvalidEntry)
	}

	counters := datatypes.JSONMap{}
	for channel, count := range req.Counters {
		counters[channel] = count
	}

	entry := &domain.Entry{
		ID:             s.node.Generate(),
		DeviceID:       req.DeviceID,
		CapturedAt:     req.CapturedAt.UTC(),
		Model:          req.Model,
		AdvertisedName: req.AdvertisedName,
		DeviceKey:      req.DeviceKey,
		Counters:       counters,
	}
	if err := s.repo.Append(ctx, s.db, entry); err != nil {
		return nil, err
	}

	s.metrics.RecordLedgerAppend(ctx, 1)
	s.log.Debug("ledger entry appended",
		zap.Int64("device_id", entry.DeviceID),
		zap.Time("captured_at", entry.CapturedAt),
	)
	return entry, nil
}
