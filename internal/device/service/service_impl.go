// Package service implements device identity resolution.
package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/gosimple/slug"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fleetmetrics/printledger/internal/clock"
	"github.com/fleetmetrics/printledger/internal/device/domain"
	"github.com/fleetmetrics/printledger/pkg/db"
	ledgerdomain "github.com/fleetmetrics/printledger/internal/ledger/domain"
	obsmetrics "github.com/fleetmetrics/printledger/internal/observability/metrics"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	Clock      clock.Clock
	Repo       domain.Repository
	LedgerRepo ledgerdomain.Repository
	Metrics    *obsmetrics.Metrics `optional:"true"`
}

type serviceImpl struct {
	db         *gorm.DB
	log        *zap.Logger
	clock      clock.Clock
	repo       domain.Repository
	ledgerRepo ledgerdomain.Repository
	metrics    *obsmetrics.Metrics

	mu        sync.Mutex
	seeded    bool
	keyToID   map[string]int64
	aliasToID map[string]int64
	maxID     int64
}

func New(p Params) domain.Service {
	return &serviceImpl{
		db:         p.DB,
		log:        p.Log.Named("device.service"),
		clock:      p.Clock,
		repo:       p.Repo,
		ledgerRepo: p.LedgerRepo,
		metrics:    p.Metrics,
		keyToID:    map[string]int64{},
		aliasToID:  map[string]int64{},
	}
}

func (s *serviceImpl) EnsureSeeded(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seeded {
		return nil
	}

	devices, err := s.repo.ListAll(ctx, s.db)
	if err != nil {
		return err
	}

	if len(devices) == 0 {
		devices, err = s.rebuildFromLedger(ctx)
		if err != nil {
			return err
		}
	}

	for _, d := range devices {
		s.keyToID[d.DeviceKey] = d.ID
		if d.ID > s.maxID {
			s.maxID = d.ID
		}
	}

	aliases, err := s.repo.ListAliases(ctx, s.db)
	if err != nil {
		return err
	}
	for _, a := range aliases {
		s.aliasToID[a.AliasKey] = a.DeviceID
	}

	s.seeded = true
	s.log.Info("device registry seeded",
		zap.Int("devices", len(devices)),
		zap.Int("aliases", len(aliases)),
	)
	return nil
}

// rebuildFromLedger reconstructs the registry from ledger history, keeping
// first-seen order so every device comes back with the id it always had.
func (s *serviceImpl) rebuildFromLedger(ctx context.Context) ([]domain.Device, error) {
	entries, err := s.ledgerRepo.LoadAll(ctx, s.db)
	if err != nil {
		return nil, err
	}

	byID := map[int64]*domain.Device{}
	var order []int64
	for _, e := range entries {
		if e.DeviceID <= 0 {
			continue
		}
		if d, ok := byID[e.DeviceID]; ok {
			d.LastSeenAt = e.CapturedAt
			if e.Model != "" {
				d.Model = e.Model
			}
			if e.AdvertisedName != "" {
				d.AdvertisedName = e.AdvertisedName
			}
			continue
		}
		byID[e.DeviceID] = &domain.Device{
			ID:             e.DeviceID,
			DeviceKey:      e.DeviceKey,
			Model:          e.Model,
			AdvertisedName: e.AdvertisedName,
			FirstSeenAt:    e.CapturedAt,
			LastSeenAt:     e.CapturedAt,
		}
		order = append(order, e.DeviceID)
	}

	devices := make([]domain.Device, 0, len(order))
	for _, id := range order {
		d := byID[id]
		if err := s.repo.Insert(ctx, s.db, d); err != nil {
			return nil, err
		}
		devices = append(devices, *d)
	}
	if len(devices) > 0 {
		s.log.Info("device registry rebuilt from ledger history", zap.Int("devices", len(devices)))
	}
	return devices, nil
}

func (s *serviceImpl) Resolve(ctx context.Context, obs domain.Observation) (int64, error) {
	if err := s.EnsureSeeded(ctx); err != nil {
		return 0, err
	}
	key := normalizeKey(obs)

	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.aliasToID[key]; ok {
		if err := s.repo.TouchSeen(ctx, s.db, id, obs); err != nil {
			return 0, err
		}
		return id, nil
	}
	if id, ok := s.keyToID[key]; ok {
		if err := s.repo.TouchSeen(ctx, s.db, id, obs); err != nil {
			return 0, err
		}
		return id, nil
	}

	id := s.maxID + 1
	device := &domain.Device{
		ID:             id,
		DeviceKey:      key,
		Model:          obs.Model,
		AdvertisedName: obs.AdvertisedName,
		FirstSeenAt:    obs.SeenAt.UTC(),
		LastSeenAt:     obs.SeenAt.UTC(),
	}
	if err := s.repo.Insert(ctx, s.db, device); err != nil {
		return 0, err
	}
	s.keyToID[key] = id
	s.maxID = id
	s.metrics.RecordNewDevice(ctx)
	s.log.Info("new device registered",
		zap.Int64("device_id", id),
		zap.String("device_key", key),
		zap.String("model", obs.Model),
	)
	return id, nil
}

func (s *serviceImpl) Merge(ctx context.Context, req domain.MergeRequest) (*domain.Alias, error) {
	if req.AliasKey == "" {
		return nil, fmt.Errorf("%w: alias_key is required", domain.ErrInvalidMerge)
	}
	if err := s.EnsureSeeded(ctx); err != nil {
		return nil, err
	}
	if _, err := s.repo.FindByID(ctx, s.db, req.DeviceID); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.keyToID[req.AliasKey]; ok && id != req.DeviceID {
		return nil, fmt.Errorf("%w: key %q already belongs to device %d", domain.ErrInvalidMerge, req.AliasKey, id)
	}
	if id, ok := s.aliasToID[req.AliasKey]; ok {
		return nil, fmt.Errorf("%w: key %q already merged into device %d", domain.ErrInvalidMerge, req.AliasKey, id)
	}

	alias := &domain.Alias{
		AliasKey: req.AliasKey,
		DeviceID: req.DeviceID,
		Note:     req.Note,
		MergedAt: s.clock.Now(),
	}
	if err := s.repo.InsertAlias(ctx, s.db, alias); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, fmt.Errorf("%w: key %q already merged", domain.ErrInvalidMerge, req.AliasKey)
		}
		return nil, err
	}
	s.aliasToID[alias.AliasKey] = alias.DeviceID
	s.log.Info("device keys merged",
		zap.String("alias_key", alias.AliasKey),
		zap.Int64("device_id", alias.DeviceID),
	)
	return alias, nil
}

func (s *serviceImpl) List(ctx context.Context) ([]domain.Device, error) {
	return s.repo.ListAll(ctx, s.db)
}

func (s *serviceImpl) GetByID(ctx context.Context, id int64) (*domain.Device, error) {
	return s.repo.FindByID(ctx, s.db, id)
}

// normalizeKey picks the identity key for an observation. Devices that report
// no address fall back to a slug of their advertised name; a fully anonymous
// observation keys on the empty string, which is a valid degenerate key.
func normalizeKey(obs domain.Observation) string {
	if obs.DeviceKey != "" {
		return obs.DeviceKey
	}
	if obs.AdvertisedName != "" {
		return slug.Make(obs.AdvertisedName)
	}
	return ""
}
