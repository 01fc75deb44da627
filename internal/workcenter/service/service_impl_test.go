package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fleetmetrics/printledger/internal/config"
	usagedomain "github.com/fleetmetrics/printledger/internal/usage/domain"
	"github.com/fleetmetrics/printledger/internal/workcenter/domain"
)

const inventoryYAML = `printers:
  - device_key: 10.1.1.1
    work_center_id: WC-104
    name: Assembly
    site: Lyon
    line_id: L2
  - device_key: 10.1.1.2
    work_center_id: WC-201
    name: Paint
    site: Lyon
    line_id: L5
`

type stubUsage struct {
	periods []usagedomain.Period
}

func (s *stubUsage) Rebuild(ctx context.Context) (int, error) { return len(s.periods), nil }

func (s *stubUsage) List(ctx context.Context, filter usagedomain.Filter) ([]usagedomain.Period, error) {
	return s.periods, nil
}

func newTestService(t *testing.T, usage usagedomain.Service) (domain.Service, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.WorkCenter{}, &domain.ReportRow{}))

	path := filepath.Join(t.TempDir(), "workcenters.yml")
	require.NoError(t, os.WriteFile(path, []byte(inventoryYAML), 0o644))

	svc := New(Params{
		DB:     db,
		Log:    zap.NewNop(),
		Config: config.Config{InventoryFile: path},
		Usage:  usage,
	})
	return svc, db
}

func TestReloadInventoryReplacesTable(t *testing.T) {
	svc, db := newTestService(t, &stubUsage{})
	ctx := context.Background()

	require.NoError(t, db.Create(&domain.WorkCenter{DeviceKey: "10.9.9.9", WorkCenterID: "WC-OLD"}).Error)

	count, err := svc.ReloadInventory(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	dims, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, dims, 2)
	assert.Equal(t, "WC-104", dims[0].WorkCenterID)
	assert.Equal(t, "Paint", dims[1].Name)
}

func TestRebuildReportIsLeftJoin(t *testing.T) {
	periodEnd := time.Date(2024, 3, 2, 8, 0, 0, 0, time.UTC)
	usage := &stubUsage{periods: []usagedomain.Period{
		{DeviceID: 1, PeriodEnd: periodEnd, Channel: "A4", DeviceKey: "10.1.1.1", Delta: 40},
		{DeviceID: 2, PeriodEnd: periodEnd, Channel: "A4", DeviceKey: "10.7.7.7", Delta: 12},
	}}
	svc, _ := newTestService(t, usage)
	ctx := context.Background()

	_, err := svc.ReloadInventory(ctx)
	require.NoError(t, err)

	count, err := svc.RebuildReport(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	rows, err := svc.Report(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	matched := rows[0]
	require.NotNil(t, matched.WorkCenterID)
	assert.Equal(t, "WC-104", *matched.WorkCenterID)
	assert.Equal(t, int64(40), matched.Delta)

	// the unmatched printer keeps its usage with null attribution
	unmatched := rows[1]
	assert.Equal(t, "10.7.7.7", unmatched.DeviceKey)
	assert.Equal(t, int64(12), unmatched.Delta)
	assert.Nil(t, unmatched.WorkCenterID)
	assert.Nil(t, unmatched.Site)
}

func TestLoadInventoryRejectsBadFiles(t *testing.T) {
	dir := t.TempDir()

	missing := filepath.Join(dir, "absent.yml")
	_, err := loadInventory(missing)
	assert.ErrorIs(t, err, domain.ErrInvalidInventory)

	dup := filepath.Join(dir, "dup.yml")
	require.NoError(t, os.WriteFile(dup, []byte(`printers:
  - device_key: 10.1.1.1
    work_center_id: WC-1
  - device_key: 10.1.1.1
    work_center_id: WC-2
`), 0o644))
	_, err = loadInventory(dup)
	assert.ErrorIs(t, err, domain.ErrInvalidInventory)

	nokey := filepath.Join(dir, "nokey.yml")
	require.NoError(t, os.WriteFile(nokey, []byte(`printers:
  - work_center_id: WC-1
`), 0o644))
	_, err = loadInventory(nokey)
	assert.ErrorIs(t, err, domain.ErrInvalidInventory)
}

func TestEnrichUsageSideWins(t *testing.T) {
	periodEnd := time.Date(2024, 3, 2, 8, 0, 0, 0, time.UTC)
	periods := []usagedomain.Period{
		{DeviceID: 1, PeriodEnd: periodEnd, Channel: "A4", DeviceKey: "10.1.1.1", Delta: 5},
	}
	dims := []domain.WorkCenter{
		{DeviceKey: "10.1.1.1", WorkCenterID: "WC-104", Name: "Assembly"},
		{DeviceKey: "10.5.5.5", WorkCenterID: "WC-999", Name: "Unseen"},
	}

	rows := Enrich(periods, dims)
	require.Len(t, rows, 1)
	assert.Equal(t, "10.1.1.1", rows[0].DeviceKey)
}
