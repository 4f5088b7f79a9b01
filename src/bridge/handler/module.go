package handler

import (
	"github.com/importjs/importjs-bridge/src/bridge/controller"
	bridge "github.com/importjs/importjs-bridge/src/bridge/controller/bridge"
	handler "github.com/importjs/importjs-bridge/src/bridge/handler/bridge"
	"github.com/importjs/importjs-bridge/src/bridge/repository/daemon"
	"github.com/importjs/importjs-bridge/src/bridge/repository/document"
	"github.com/importjs/importjs-bridge/src/bridge/repository/session"
	"go.uber.org/fx"
)

// Module provides the bridge server into an Fx application.
var Module = fx.Options(
	controller.Module,
	fx.Provide(session.New),
	fx.Provide(document.New),
	daemon.Module,
	fx.Provide(handler.New),
	fx.Invoke(outputProcessInfo),
	fx.Invoke(func(m handler.Handler) {}),
	fx.Invoke(func(m bridge.Controller) {}),
)
