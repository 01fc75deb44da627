// Package migration brings the schema up to date on boot.
package migration

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fleetmetrics/printledger/internal/config"
	devicedomain "github.com/fleetmetrics/printledger/internal/device/domain"
	ledgerdomain "github.com/fleetmetrics/printledger/internal/ledger/domain"
	referencedomain "github.com/fleetmetrics/printledger/internal/reference/domain"
	"github.com/fleetmetrics/printledger/internal/seed"
	usagedomain "github.com/fleetmetrics/printledger/internal/usage/domain"
	workcenterdomain "github.com/fleetmetrics/printledger/internal/workcenter/domain"
)

//go:embed sql/*.sql
var migrations embed.FS

// Run migrates the schema and installs reference rows. Postgres goes through
// versioned SQL migrations; the embedded dialects auto-migrate.
func Run(ctx context.Context, cfg config.Config, conn *gorm.DB, log *zap.Logger) error {
	log = log.Named("migration")

	var err error
	if cfg.DBType == "postgres" {
		err = runVersioned(conn, log)
	} else {
		err = conn.WithContext(ctx).AutoMigrate(
			&devicedomain.Device{},
			&devicedomain.Alias{},
			&ledgerdomain.Entry{},
			&usagedomain.Period{},
			&workcenterdomain.WorkCenter{},
			&workcenterdomain.ReportRow{},
			&referencedomain.PageCost{},
		)
	}
	if err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}

	if err := seed.EnsurePageCosts(ctx, conn); err != nil {
		return fmt.Errorf("seed page costs: %w", err)
	}

	log.Info("schema up to date", zap.String("db_type", cfg.DBType))
	return nil
}

func runVersioned(conn *gorm.DB, log *zap.Logger) error {
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}

	driver, err := migratepg.WithInstance(sqlDB, &migratepg.Config{})
	if err != nil {
		return err
	}
	source, err := iofs.New(migrations, "sql")
	if err != nil {
		return err
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}
