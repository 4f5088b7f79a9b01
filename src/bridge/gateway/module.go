// Package gateway provides the outbound clients of the bridge.
package gateway

import (
	ideclient "github.com/importjs/importjs-bridge/src/bridge/gateway/ide-client"
	importjsd "github.com/importjs/importjs-bridge/src/bridge/gateway/importjs-daemon"
	"go.uber.org/fx"
)

// Module provides the IDE client gateway and the importjs daemon factory.
var Module = fx.Options(
	fx.Provide(ideclient.New),
	importjsd.Module,
)
