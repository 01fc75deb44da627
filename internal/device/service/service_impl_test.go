package service

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/fleetmetrics/printledger/internal/clock"
	"github.com/fleetmetrics/printledger/internal/device/domain"
	devicerepo "github.com/fleetmetrics/printledger/internal/device/repository"
	ledgerdomain "github.com/fleetmetrics/printledger/internal/ledger/domain"
	ledgerrepo "github.com/fleetmetrics/printledger/internal/ledger/repository"
)

func newTestService(t *testing.T) (domain.Service, *gorm.DB, *clock.FakeClock) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Device{}, &domain.Alias{}, &ledgerdomain.Entry{}))

	fake := clock.NewFakeClock(time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC))
	svc := New(Params{
		DB:         db,
		Log:        zap.NewNop(),
		Clock:      fake,
		Repo:       devicerepo.New(),
		LedgerRepo: ledgerrepo.New(),
	})
	return svc, db, fake
}

func TestResolveAllocatesDenseIDs(t *testing.T) {
	svc, _, fake := newTestService(t)
	ctx := context.Background()
	require.NoError(t, svc.EnsureSeeded(ctx))

	id1, err := svc.Resolve(ctx, domain.Observation{DeviceKey: "10.1.1.1", Model: "M528", SeenAt: fake.Now()})
	require.NoError(t, err)
	id2, err := svc.Resolve(ctx, domain.Observation{DeviceKey: "10.1.1.2", SeenAt: fake.Now()})
	require.NoError(t, err)

	assert.Equal(t, int64(1), id1)
	assert.Equal(t, int64(2), id2)

	// the same key always resolves to the same id
	again, err := svc.Resolve(ctx, domain.Observation{DeviceKey: "10.1.1.1", SeenAt: fake.Now()})
	require.NoError(t, err)
	assert.Equal(t, id1, again)
}

func TestResolveEmptyKeyIsValid(t *testing.T) {
	svc, _, fake := newTestService(t)
	ctx := context.Background()
	require.NoError(t, svc.EnsureSeeded(ctx))

	id, err := svc.Resolve(ctx, domain.Observation{SeenAt: fake.Now()})
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	again, err := svc.Resolve(ctx, domain.Observation{SeenAt: fake.Now()})
	require.NoError(t, err)
	assert.Equal(t, id, again)
}

func TestResolveFallsBackToAdvertisedName(t *testing.T) {
	svc, db, fake := newTestService(t)
	ctx := context.Background()
	require.NoError(t, svc.EnsureSeeded(ctx))

	id, err := svc.Resolve(ctx, domain.Observation{AdvertisedName: "LJM501 Atelier", SeenAt: fake.Now()})
	require.NoError(t, err)

	var device domain.Device
	require.NoError(t, db.First(&device, "id = ?", id).Error)
	assert.Equal(t, "ljm501-atelier", device.DeviceKey)
}

func TestSeedRebuildsRegistryFromLedger(t *testing.T) {
	svc, db, fake := newTestService(t)
	ctx := context.Background()

	day1 := time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC)
	day2 := day1.Add(24 * time.Hour)
	entries := []ledgerdomain.Entry{
		{ID: 1, DeviceID: 1, CapturedAt: day1, DeviceKey: "10.1.1.1", Model: "M528", Counters: datatypes.JSONMap{"A4": int64(100)}},
		{ID: 2, DeviceID: 2, CapturedAt: day1, DeviceKey: "10.1.1.2", Counters: datatypes.JSONMap{"A4": int64(10)}},
		{ID: 3, DeviceID: 1, CapturedAt: day2, DeviceKey: "10.1.1.1", Counters: datatypes.JSONMap{"A4": int64(140)}},
	}
	for i := range entries {
		require.NoError(t, db.Create(&entries[i]).Error)
	}

	require.NoError(t, svc.EnsureSeeded(ctx))

	// known keys keep their historical ids
	id, err := svc.Resolve(ctx, domain.Observation{DeviceKey: "10.1.1.2", SeenAt: fake.Now()})
	require.NoError(t, err)
	assert.Equal(t, int64(2), id)

	// a new key continues after the historical maximum
	id, err = svc.Resolve(ctx, domain.Observation{DeviceKey: "10.1.1.3", SeenAt: fake.Now()})
	require.NoError(t, err)
	assert.Equal(t, int64(3), id)

	device, err := svc.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "10.1.1.1", device.DeviceKey)
	assert.Equal(t, "M528", device.Model)
	assert.True(t, device.FirstSeenAt.Equal(day1))
	assert.True(t, device.LastSeenAt.Equal(day2))
}

func TestMergeRoutesAliasToExistingDevice(t *testing.T) {
	svc, _, fake := newTestService(t)
	ctx := context.Background()
	require.NoError(t, svc.EnsureSeeded(ctx))

	id, err := svc.Resolve(ctx, domain.Observation{DeviceKey: "10.1.1.1", SeenAt: fake.Now()})
	require.NoError(t, err)

	alias, err := svc.Merge(ctx, domain.MergeRequest{AliasKey: "10.9.9.9", DeviceID: id, Note: "readdressed after subnet move"})
	require.NoError(t, err)
	assert.Equal(t, id, alias.DeviceID)

	resolved, err := svc.Resolve(ctx, domain.Observation{DeviceKey: "10.9.9.9", SeenAt: fake.Now()})
	require.NoError(t, err)
	assert.Equal(t, id, resolved)
}

func TestMergeRejectsConflicts(t *testing.T) {
	svc, _, fake := newTestService(t)
	ctx := context.Background()
	require.NoError(t, svc.EnsureSeeded(ctx))

	id1, err := svc.Resolve(ctx, domain.Observation{DeviceKey: "10.1.1.1", SeenAt: fake.Now()})
	require.NoError(t, err)
	id2, err := svc.Resolve(ctx, domain.Observation{DeviceKey: "10.1.1.2", SeenAt: fake.Now()})
	require.NoError(t, err)

	_, err = svc.Merge(ctx, domain.MergeRequest{AliasKey: "", DeviceID: id1})
	assert.ErrorIs(t, err, domain.ErrInvalidMerge)

	_, err = svc.Merge(ctx, domain.MergeRequest{AliasKey: "10.1.1.2", DeviceID: id1})
	assert.ErrorIs(t, err, domain.ErrInvalidMerge)

	_, err = svc.Merge(ctx, domain.MergeRequest{AliasKey: "10.9.9.9", DeviceID: 999})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Merge(ctx, domain.MergeRequest{AliasKey: "10.9.9.9", DeviceID: id2})
	require.NoError(t, err)
	_, err = svc.Merge(ctx, domain.MergeRequest{AliasKey: "10.9.9.9", DeviceID: id1})
	assert.ErrorIs(t, err, domain.ErrInvalidMerge)
}
