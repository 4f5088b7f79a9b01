// Package importjsd talks to the import-js daemon over its standard streams.
package importjsd

import "go.uber.org/fx"

// Module provides the daemon session Factory.
var Module = fx.Options(
	fx.Provide(NewFactory),
)
