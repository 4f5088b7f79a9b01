// Package app assembles the importjs bridge application.
package app

import (
	"context"
	"time"

	"github.com/importjs/importjs-bridge/src/bridge/gateway"
	"github.com/importjs/importjs-bridge/src/bridge/handler"
	"github.com/importjs/importjs-bridge/src/bridge/internal/core"
	"github.com/importjs/importjs-bridge/src/bridge/internal/environment"
	"github.com/importjs/importjs-bridge/src/bridge/internal/executor"
	"github.com/importjs/importjs-bridge/src/bridge/internal/fs"
	"github.com/importjs/importjs-bridge/src/bridge/internal/jsonrpcfx"
	"github.com/importjs/importjs-bridge/src/bridge/internal/serverinfofile"
	"github.com/importjs/importjs-bridge/src/bridge/internal/settings"
	workspaceutils "github.com/importjs/importjs-bridge/src/bridge/internal/workspace-utils"
	tally "github.com/uber-go/tally/v4"
	"go.uber.org/fx"
)

// Module defines the importjs bridge application module.
var Module = fx.Options(
	gateway.Module, // outbounds
	handler.Module, // inbounds
	jsonrpcfx.Module,
	fs.Module,
	executor.Module,
	environment.Module,
	settings.Module,
	serverinfofile.Module,
	workspaceutils.Module,
	core.ConfigModule,
	core.LoggerModule,
	fx.Provide(func(lc fx.Lifecycle) tally.Scope {
		rs, closer := tally.NewRootScope(tally.ScopeOptions{
			Tags: map[string]string{
				"service": "importjs-bridge",
			},
		}, 1*time.Second)

		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return closer.Close()
			},
		})

		return rs
	}),
	fx.Decorate(decorateEnvContext),
	fx.Decorate(decorateConfigProvider),
	fx.Provide(func() Context {
		return Context{
			Environment:        EnvLocal,
			RuntimeEnvironment: EnvLocal,
		}
	}),
)
