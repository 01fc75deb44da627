package collector

import (
	"context"

	"go.uber.org/fx"

	"github.com/fleetmetrics/printledger/internal/config"
)

var Module = fx.Module("collector",
	fx.Provide(
		New,
		func(h *config.FleetConfigHolder) FleetSource { return h },
	),
	fx.Invoke(registerHooks),
)

func registerHooks(lc fx.Lifecycle, c *Collector) {
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go c.RunForever(ctx)
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}
