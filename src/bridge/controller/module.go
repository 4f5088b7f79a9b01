// Package controller provides the business logic of the bridge.
package controller

import (
	"github.com/importjs/importjs-bridge/src/bridge/controller/bridge"
	"github.com/importjs/importjs-bridge/src/bridge/controller/importjs"
	"go.uber.org/fx"
)

// Module provides every controller of the bridge.
var Module = fx.Options(
	fx.Provide(bridge.New),
	fx.Provide(importjs.New),
)
