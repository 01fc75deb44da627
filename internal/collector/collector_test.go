package collector

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fleetmetrics/printledger/internal/clock"
	"github.com/fleetmetrics/printledger/internal/config"
	devicedomain "github.com/fleetmetrics/printledger/internal/device/domain"
	devicerepo "github.com/fleetmetrics/printledger/internal/device/repository"
	deviceservice "github.com/fleetmetrics/printledger/internal/device/service"
	ledgerdomain "github.com/fleetmetrics/printledger/internal/ledger/domain"
	ledgerrepo "github.com/fleetmetrics/printledger/internal/ledger/repository"
	ledgerservice "github.com/fleetmetrics/printledger/internal/ledger/service"
	"github.com/fleetmetrics/printledger/internal/probe"
	usagedomain "github.com/fleetmetrics/printledger/internal/usage/domain"
	usageservice "github.com/fleetmetrics/printledger/internal/usage/service"
	workcenterdomain "github.com/fleetmetrics/printledger/internal/workcenter/domain"
	workcenterservice "github.com/fleetmetrics/printledger/internal/workcenter/service"
)

type fakeAdapter struct {
	counters map[string]map[string]int64
	down     map[string]bool
}

func (f *fakeAdapter) Kind() string { return "fake" }

func (f *fakeAdapter) Probe(ctx context.Context, address string) (*probe.Snapshot, error) {
	if f.down[address] {
		return nil, probe.ErrProbeFailed
	}
	counters := make(map[string]int64, len(f.counters[address]))
	for channel, count := range f.counters[address] {
		counters[channel] = count
	}
	return &probe.Snapshot{
		DeviceKey: address,
		Model:     "FakeJet 9000",
		Counters:  counters,
	}, nil
}

type staticFleet struct {
	cfg config.FleetConfig
}

func (s *staticFleet) Get() config.FleetConfig { return s.cfg }

type fixture struct {
	collector *Collector
	adapter   *fakeAdapter
	clock     *clock.FakeClock
	db        *gorm.DB
	usage     usagedomain.Service
	centers   workcenterdomain.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	adapter := &fakeAdapter{
		counters: map[string]map[string]int64{},
		down:     map[string]bool{},
	}
	f := newFixtureWith(t, adapter)
	f.adapter = adapter
	return f
}

func newFixtureWith(t *testing.T, adapter probe.Adapter) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&devicedomain.Device{}, &devicedomain.Alias{},
		&ledgerdomain.Entry{},
		&usagedomain.Period{},
		&workcenterdomain.WorkCenter{}, &workcenterdomain.ReportRow{},
	))

	inventory := filepath.Join(t.TempDir(), "workcenters.yml")
	require.NoError(t, os.WriteFile(inventory, []byte(`printers:
  - device_key: 10.1.1.1
    work_center_id: WC-104
    name: Assembly
`), 0o644))

	fake := clock.NewFakeClock(time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC))
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	log := zap.NewNop()
	cfg := config.Config{InventoryFile: inventory, PollInterval: time.Hour}

	ledgerRepository := ledgerrepo.New()
	devices := deviceservice.New(deviceservice.Params{
		DB: db, Log: log, Clock: fake, Repo: devicerepo.New(), LedgerRepo: ledgerRepository,
	})
	ledger := ledgerservice.New(ledgerservice.Params{
		DB: db, Log: log, Node: node, Repo: ledgerRepository,
	})
	usage := usageservice.New(usageservice.Params{
		DB: db, Log: log, LedgerRepo: ledgerRepository,
	})
	centers := workcenterservice.New(workcenterservice.Params{
		DB: db, Log: log, Config: cfg, Usage: usage,
	})

	fleet := &staticFleet{cfg: config.FleetConfig{Printers: []config.FleetPrinter{
		{Address: "10.1.1.1", Adapter: "fake"},
		{Address: "10.1.1.2", Adapter: "fake"},
	}}}

	c := New(Params{
		Log:         log,
		Clock:       fake,
		Config:      cfg,
		Fleet:       fleet,
		Registry:    probe.NewRegistry(adapter),
		Devices:     devices,
		Ledger:      ledger,
		Usage:       usage,
		WorkCenters: centers,
	})
	return &fixture{collector: c, clock: fake, db: db, usage: usage, centers: centers}
}

func TestRunEndToEnd(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.adapter.counters["10.1.1.1"] = map[string]int64{"A4": 100, "A5": 10}
	f.adapter.counters["10.1.1.2"] = map[string]int64{"A4": 50, "A5": 0}
	require.NoError(t, f.collector.Run(ctx))

	// first run records snapshots but has nothing to diff yet
	periods, err := f.usage.List(ctx, usagedomain.Filter{})
	require.NoError(t, err)
	assert.Empty(t, periods)

	f.clock.Advance(24 * time.Hour)
	f.adapter.counters["10.1.1.1"] = map[string]int64{"A4": 140, "A5": 10}
	f.adapter.counters["10.1.1.2"] = map[string]int64{"A4": 62, "A5": 3}
	require.NoError(t, f.collector.Run(ctx))

	periods, err = f.usage.List(ctx, usagedomain.Filter{})
	require.NoError(t, err)
	require.Len(t, periods, 4)
	assert.Equal(t, int64(40), periods[0].Delta) // device 1, A4
	assert.Equal(t, int64(0), periods[1].Delta)  // device 1, A5
	assert.Equal(t, int64(12), periods[2].Delta) // device 2, A4
	assert.Equal(t, int64(3), periods[3].Delta)  // device 2, A5

	rows, err := f.centers.Report(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	require.NotNil(t, rows[0].WorkCenterID)
	assert.Equal(t, "WC-104", *rows[0].WorkCenterID)
	assert.Nil(t, rows[2].WorkCenterID) // 10.1.1.2 is not in the inventory
}

func TestRunSkipsUnreachablePrinter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.adapter.counters["10.1.1.1"] = map[string]int64{"A4": 100}
	f.adapter.down["10.1.1.2"] = true
	require.NoError(t, f.collector.Run(ctx))

	var count int64
	require.NoError(t, f.db.Model(&ledgerdomain.Entry{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	f.clock.Advance(24 * time.Hour)
	f.adapter.down["10.1.1.2"] = false
	f.adapter.counters["10.1.1.2"] = map[string]int64{"A4": 7}
	require.NoError(t, f.collector.Run(ctx))

	require.NoError(t, f.db.Model(&ledgerdomain.Entry{}).Count(&count).Error)
	assert.Equal(t, int64(3), count)

	// the late printer gets the next id, not a recycled one
	var devices []devicedomain.Device
	require.NoError(t, f.db.Order("id ASC").Find(&devices).Error)
	require.Len(t, devices, 2)
	assert.Equal(t, "10.1.1.1", devices[0].DeviceKey)
	assert.Equal(t, "10.1.1.2", devices[1].DeviceKey)
}

func TestRunIdentityStableAcrossRestart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.adapter.counters["10.1.1.1"] = map[string]int64{"A4": 100}
	f.adapter.counters["10.1.1.2"] = map[string]int64{"A4": 50}
	require.NoError(t, f.collector.Run(ctx))

	// a wiped registry reseeds from ledger history with the same ids
	require.NoError(t, f.db.Where("1 = 1").Delete(&devicedomain.Device{}).Error)

	f2 := newFixtureSharingDB(t, f)
	f2.clock.Advance(48 * time.Hour)
	f2.adapter.counters["10.1.1.1"] = map[string]int64{"A4": 130}
	f2.adapter.counters["10.1.1.2"] = map[string]int64{"A4": 55}
	require.NoError(t, f2.collector.Run(ctx))

	var entries []ledgerdomain.Entry
	require.NoError(t, f2.db.Order("id ASC").Find(&entries).Error)
	require.Len(t, entries, 4)
	assert.Equal(t, entries[0].DeviceID, entries[2].DeviceID)
	assert.Equal(t, entries[1].DeviceID, entries[3].DeviceID)
}

// stallingAdapter blocks every probe until released and records whether two
// probes were ever in flight at once.
type stallingAdapter struct {
	mu         sync.Mutex
	inFlight   int
	overlapped bool
	once       sync.Once
	started    chan struct{}
	release    chan struct{}
}

func newStallingAdapter() *stallingAdapter {
	return &stallingAdapter{started: make(chan struct{}), release: make(chan struct{})}
}

func (s *stallingAdapter) Kind() string { return "fake" }

func (s *stallingAdapter) Probe(ctx context.Context, address string) (*probe.Snapshot, error) {
	s.mu.Lock()
	s.inFlight++
	if s.inFlight > 1 {
		s.overlapped = true
	}
	s.mu.Unlock()

	s.once.Do(func() { close(s.started) })
	<-s.release

	s.mu.Lock()
	s.inFlight--
	s.mu.Unlock()
	return &probe.Snapshot{DeviceKey: address, Counters: map[string]int64{"A4": 10}}, nil
}

func TestRunRejectsConcurrentRun(t *testing.T) {
	adapter := newStallingAdapter()
	f := newFixtureWith(t, adapter)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- f.collector.Run(ctx) }()
	<-adapter.started

	// the scheduled run holds the ledger, a manual trigger must bounce
	require.ErrorIs(t, f.collector.Run(ctx), ErrRunInProgress)

	close(adapter.release)
	require.NoError(t, <-done)
	assert.False(t, adapter.overlapped)

	// once the first run finishes the trigger goes through again
	require.NoError(t, f.collector.Run(ctx))
}

// newFixtureSharingDB rebuilds the whole service stack over an existing
// database, mimicking a process restart.
func newFixtureSharingDB(t *testing.T, prev *fixture) *fixture {
	t.Helper()

	inventory := filepath.Join(t.TempDir(), "workcenters.yml")
	require.NoError(t, os.WriteFile(inventory, []byte("printers: []\n"), 0o644))

	node, err := snowflake.NewNode(2)
	require.NoError(t, err)
	log := zap.NewNop()
	cfg := config.Config{InventoryFile: inventory, PollInterval: time.Hour}
	fake := clock.NewFakeClock(prev.clock.Now())

	ledgerRepository := ledgerrepo.New()
	devices := deviceservice.New(deviceservice.Params{
		DB: prev.db, Log: log, Clock: fake, Repo: devicerepo.New(), LedgerRepo: ledgerRepository,
	})
	ledger := ledgerservice.New(ledgerservice.Params{
		DB: prev.db, Log: log, Node: node, Repo: ledgerRepository,
	})
	usage := usageservice.New(usageservice.Params{
		DB: prev.db, Log: log, LedgerRepo: ledgerRepository,
	})
	centers := workcenterservice.New(workcenterservice.Params{
		DB: prev.db, Log: log, Config: cfg, Usage: usage,
	})

	adapter := &fakeAdapter{counters: map[string]map[string]int64{}, down: map[string]bool{}}
	fleet := &staticFleet{cfg: config.FleetConfig{Printers: []config.FleetPrinter{
		{Address: "10.1.1.1", Adapter: "fake"},
		{Address: "10.1.1.2", Adapter: "fake"},
	}}}

	c := New(Params{
		Log:         log,
		Clock:       fake,
		Config:      cfg,
		Fleet:       fleet,
		Registry:    probe.NewRegistry(adapter),
		Devices:     devices,
		Ledger:      ledger,
		Usage:       usage,
		WorkCenters: centers,
	})
	return &fixture{collector: c, adapter: adapter, clock: fake, db: prev.db, usage: usage, centers: centers}
}
