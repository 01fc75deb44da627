package config

import "go.uber.org/fx"

// Module wires application and fleet configuration.
var Module = fx.Module("config",
	fx.Provide(
		Load,
		NewFleetConfigHolder,
	),
)
