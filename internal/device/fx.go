package device

import (
	"go.uber.org/fx"

	"github.com/fleetmetrics/printledger/internal/device/repository"
	"github.com/fleetmetrics/printledger/internal/device/service"
)

var Module = fx.Module("device",
	fx.Provide(
		repository.New,
		service.New,
	),
)
