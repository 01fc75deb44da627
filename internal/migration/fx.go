package migration

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fleetmetrics/printledger/internal/config"
)

var Module = fx.Module("migration",
	fx.Invoke(func(lc fx.Lifecycle, cfg config.Config, conn *gorm.DB, log *zap.Logger) {
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				return Run(ctx, cfg, conn, log)
			},
		})
	}),
)
