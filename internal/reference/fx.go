package reference

import (
	"go.uber.org/fx"

	"github.com/fleetmetrics/printledger/internal/reference/service"
)

var Module = fx.Module("reference",
	fx.Provide(service.New),
)
