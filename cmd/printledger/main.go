package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"

	"github.com/fleetmetrics/printledger/internal/clock"
	"github.com/fleetmetrics/printledger/internal/collector"
	"github.com/fleetmetrics/printledger/internal/config"
	"github.com/fleetmetrics/printledger/internal/device"
	"github.com/fleetmetrics/printledger/internal/ledger"
	"github.com/fleetmetrics/printledger/internal/migration"
	"github.com/fleetmetrics/printledger/internal/observability"
	"github.com/fleetmetrics/printledger/internal/probe"
	"github.com/fleetmetrics/printledger/internal/providers/pdf"
	"github.com/fleetmetrics/printledger/internal/reference"
	"github.com/fleetmetrics/printledger/internal/server"
	"github.com/fleetmetrics/printledger/internal/usage"
	"github.com/fleetmetrics/printledger/internal/workcenter"
	"github.com/fleetmetrics/printledger/pkg/db"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		observability.Module,
		fx.Provide(registerSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		// Functional domains
		probe.Module,
		device.Module,
		ledger.Module,
		usage.Module,
		workcenter.Module,
		reference.Module,
		pdf.Module,
		collector.Module,

		server.Module,
	)
	app.Run()
}

func registerSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
