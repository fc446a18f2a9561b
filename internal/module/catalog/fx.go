package catalog

import "go.uber.org/fx"

func provide() (*Catalog, error) {
	return New(Builtin())
}

// Module provides the validated manifest catalog. A manifest validation
// failure aborts application startup.
var Module = fx.Module("module.catalog",
	fx.Provide(provide),
)
