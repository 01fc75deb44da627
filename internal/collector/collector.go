// Package collector runs the reconciliation pipeline against the fleet.
package collector

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fleetmetrics/printledger/internal/clock"
	"github.com/fleetmetrics/printledger/internal/config"
	devicedomain "github.com/fleetmetrics/printledger/internal/device/domain"
	ledgerdomain "github.com/fleetmetrics/printledger/internal/ledger/domain"
	obsmetrics "github.com/fleetmetrics/printledger/internal/observability/metrics"
	"github.com/fleetmetrics/printledger/internal/probe"
	usagedomain "github.com/fleetmetrics/printledger/internal/usage/domain"
	workcenterdomain "github.com/fleetmetrics/printledger/internal/workcenter/domain"
)

// ErrRunInProgress is returned when a reconciliation run is requested while
// another one holds the ledger. Runs are single-writer; overlapping them
// would interleave appends and race the derived-table rebuilds.
var ErrRunInProgress = errors.New("run_in_progress")

// FleetSource yields the current probe targets.
type FleetSource interface {
	Get() config.FleetConfig
}

type Params struct {
	fx.In

	Log         *zap.Logger
	Clock       clock.Clock
	Config      config.Config
	Fleet       FleetSource
	Registry    *probe.Registry
	Devices     devicedomain.Service
	Ledger      ledgerdomain.Service
	Usage       usagedomain.Service
	WorkCenters workcenterdomain.Service
	Metrics     *obsmetrics.Metrics `optional:"true"`
}

type Collector struct {
	runMu       sync.Mutex
	log         *zap.Logger
	clock       clock.Clock
	interval    time.Duration
	fleet       FleetSource
	registry    *probe.Registry
	devices     devicedomain.Service
	ledger      ledgerdomain.Service
	usage       usagedomain.Service
	workCenters workcenterdomain.Service
	metrics     *obsmetrics.Metrics
}

func New(p Params) *Collector {
	interval := p.Config.PollInterval
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &Collector{
		log:         p.Log.Named("collector"),
		clock:       p.Clock,
		interval:    interval,
		fleet:       p.Fleet,
		registry:    p.Registry,
		devices:     p.Devices,
		ledger:      p.Ledger,
		usage:       p.Usage,
		workCenters: p.WorkCenters,
		metrics:     p.Metrics,
	}
}

// Run executes one full reconciliation: probe the fleet, append snapshots,
// rederive usage and rebuild the work-center report. At most one run holds
// the ledger at a time; a run requested while another is active returns
// ErrRunInProgress instead of queueing.
func (c *Collector) Run(ctx context.Context) error {
	if !c.runMu.TryLock() {
		c.log.Warn("reconciliation already in progress")
		return ErrRunInProgress
	}
	defer c.runMu.Unlock()

	start := time.Now()
	log := c.log.With(zap.String("run_id", uuid.NewString()))

	err := c.run(ctx, log)
	c.metrics.RecordRun(ctx, err, time.Since(start))
	if err != nil {
		log.Error("reconciliation run failed", zap.Error(err))
		return err
	}
	log.Info("reconciliation run complete", zap.Duration("elapsed", time.Since(start)))
	return nil
}

func (c *Collector) run(ctx context.Context, log *zap.Logger) error {
	if err := c.devices.EnsureSeeded(ctx); err != nil {
		return err
	}

	fleet := c.fleet.Get()
	capturedAt := c.clock.Now()
	appended := 0

	for _, printer := range fleet.Printers {
		adapter, err := c.registry.ForKind(printer.Adapter)
		if err != nil {
			c.metrics.RecordProbe(ctx, printer.Adapter, err)
			log.Warn("skipping printer",
				zap.String("address", printer.Address),
				zap.Error(err),
			)
			continue
		}

		snap, err := adapter.Probe(ctx, printer.Address)
		c.metrics.RecordProbe(ctx, adapter.Kind(), err)
		if err != nil {
			// one dark printer must not sink the rest of the fleet
			log.Warn("probe failed, skipping printer",
				zap.String("address", printer.Address),
				zap.String("adapter", adapter.Kind()),
				zap.Error(err),
			)
			continue
		}
		if snap.DeviceKey == "" {
			snap.DeviceKey = printer.Address
		}

		deviceID, err := c.devices.Resolve(ctx, devicedomain.Observation{
			DeviceKey:      snap.DeviceKey,
			Model:          snap.Model,
			AdvertisedName: snap.AdvertisedName,
			SeenAt:         capturedAt,
		})
		if err != nil {
			return err
		}

		if _, err := c.ledger.Append(ctx, ledgerdomain.AppendRequest{
			DeviceID:       deviceID,
			CapturedAt:     capturedAt,
			Model:          snap.Model,
			AdvertisedName: snap.AdvertisedName,
			DeviceKey:      snap.DeviceKey,
			Counters:       snap.Counters,
		}); err != nil {
			return err
		}
		appended++
	}

	periods, err := c.usage.Rebuild(ctx)
	if err != nil {
		return err
	}

	if _, err := c.workCenters.ReloadInventory(ctx); err != nil {
		// a broken inventory file keeps the previous dimension rows
		log.Warn("inventory reload failed, keeping previous dimension", zap.Error(err))
	}
	rows, err := c.workCenters.RebuildReport(ctx)
	if err != nil {
		return err
	}

	log.Info("fleet reconciled",
		zap.Int("printers", len(fleet.Printers)),
		zap.Int("snapshots", appended),
		zap.Int("usage_periods", periods),
		zap.Int("report_rows", rows),
	)
	return nil
}

// RunForever runs immediately, then on every poll tick until ctx is
// cancelled. Run errors are logged and do not stop the loop.
func (c *Collector) RunForever(ctx context.Context) {
	_ = c.Run(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			c.log.Info("collector stopped")
			return
		case <-ticker.C:
			_ = c.Run(ctx)
		}
	}
}
