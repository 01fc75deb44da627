package workcenter

import (
	"go.uber.org/fx"

	"github.com/fleetmetrics/printledger/internal/workcenter/service"
)

var Module = fx.Module("workcenter",
	fx.Provide(service.New),
)
