package store

import "go.uber.org/fx"

// Module provides the tabular store boundary.
var Module = fx.Module("store",
	fx.Provide(New),
)
