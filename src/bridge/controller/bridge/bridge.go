// Package bridge implements the editor-facing lifecycle of the importjs bridge.
package bridge

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/uuid"
	"github.com/importjs/importjs-bridge/src/bridge/controller/importjs"
	ideclient "github.com/importjs/importjs-bridge/src/bridge/gateway/ide-client"
	"github.com/importjs/importjs-bridge/src/bridge/repository/document"
	"github.com/importjs/importjs-bridge/src/bridge/repository/session"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.uber.org/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	_idleTimeoutMinutesKey = "idleTimeoutMinutes"

	// ServerName is reported to editors in the initialize result.
	ServerName = "importjs-bridge"
)

// Controller orchestrates the business logic for each request.
type Controller interface {
	// LSP Methods defined per protocol.
	Initialize(ctx context.Context, params *protocol.InitializeParams) (*protocol.InitializeResult, error)
	Initialized(ctx context.Context, params *protocol.InitializedParams) error
	Shutdown(ctx context.Context) error
	Exit(ctx context.Context) error

	// Document related methods.
	DidOpen(ctx context.Context, params *protocol.DidOpenTextDocumentParams) error
	DidChange(ctx context.Context, params *protocol.DidChangeTextDocumentParams) error
	DidClose(ctx context.Context, params *protocol.DidCloseTextDocumentParams) error

	// Workspace related methods.
	ExecuteCommand(ctx context.Context, params *protocol.ExecuteCommandParams) (interface{}, error)

	// Custom methods for use within this service.
	RequestFullShutdown(ctx context.Context) error
	InitSession(ctx context.Context, conn *jsonrpc2.Conn) (uuid.UUID, error)
	EndSession(ctx context.Context, uuid uuid.UUID) error
}

// Params are inbound parameters to initialize a new controller.
type Params struct {
	fx.In

	Shutdowner fx.Shutdowner
	Lifecycle  fx.Lifecycle
	Sessions   session.Repository
	Documents  document.Repository
	IdeGateway ideclient.Gateway
	Importjs   importjs.Controller
	Logger     *zap.SugaredLogger
	Config     config.Provider
}

type controller struct {
	sessions     session.Repository
	documents    document.Repository
	ideGateway   ideclient.Gateway
	importjs     importjs.Controller
	shutdowner   fx.Shutdowner
	logger       *zap.SugaredLogger
	fullShutdown atomic.Bool

	idleTimer   *time.Timer
	idleTimerMu sync.Mutex
	idleTimeout time.Duration
	stopIdle    chan struct{}
	stopOnce    sync.Once
}

// New constructs a new top-level controller for the service.
// An idleTimeoutMinutes of zero keeps the bridge running with no editor connected.
func New(p Params) (Controller, error) {
	var timeoutMinutes int64
	if err := p.Config.Get(_idleTimeoutMinutesKey).Populate(&timeoutMinutes); err != nil {
		return nil, fmt.Errorf("getting config field %q: %w", _idleTimeoutMinutesKey, err)
	}
	if timeoutMinutes < 0 {
		return nil, fmt.Errorf("config field %q must not be negative, got %d", _idleTimeoutMinutesKey, timeoutMinutes)
	}

	c := &controller{
		sessions:    p.Sessions,
		documents:   p.Documents,
		ideGateway:  p.IdeGateway,
		importjs:    p.Importjs,
		shutdowner:  p.Shutdowner,
		logger:      p.Logger.Named("bridge"),
		idleTimeout: time.Duration(timeoutMinutes) * time.Minute,
		stopIdle:    make(chan struct{}),
	}

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return c.refreshIdleTimer(ctx)
		},
		OnStop: func(ctx context.Context) error {
			c.stopIdleTimer()
			return nil
		},
	})

	return c, nil
}
