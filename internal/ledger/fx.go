package ledger

import (
	"go.uber.org/fx"

	"github.com/fleetmetrics/printledger/internal/ledger/repository"
	"github.com/fleetmetrics/printledger/internal/ledger/service"
)

var Module = fx.Module("ledger",
	fx.Provide(
		repository.New,
		service.New,
	),
)
