package metrics

import "go.uber.org/fx"

// Module wires the run's metrics set for fx.
var Module = fx.Module("metrics",
	fx.Provide(New),
)
