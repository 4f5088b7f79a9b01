// Package bridge implements the JSON-RPC handlers of the importjs bridge.
package bridge

import (
	"context"
	"fmt"

	"github.com/gofrs/uuid"
	controller "github.com/importjs/importjs-bridge/src/bridge/controller/bridge"
	"github.com/importjs/importjs-bridge/src/bridge/internal/jsonrpcfx"
	"github.com/importjs/importjs-bridge/src/bridge/mapper"
	tally "github.com/uber-go/tally/v4"
	"go.lsp.dev/jsonrpc2"
	"go.uber.org/zap"
)

// Handler accepts editor connections and routes their requests to the bridge controller.
type Handler interface {
	jsonrpcfx.ConnectionManager
}

// New constructs a new bridge Handler and registers it with the JSON-RPC module.
func New(ctrl controller.Controller, jsonrpcmod jsonrpcfx.JSONRPCModule, stats tally.Scope, logger *zap.SugaredLogger) (Handler, error) {
	c := &jsonRPCConnectionManager{
		ctrl:   ctrl,
		stats:  stats.SubScope("json_rpc"),
		logger: logger.Named("handler"),
	}
	if err := jsonrpcmod.RegisterConnectionManager(c); err != nil {
		return nil, fmt.Errorf("registering connection manager: %w", err)
	}
	return c, nil
}

type jsonRPCConnectionManager struct {
	ctrl   controller.Controller
	stats  tally.Scope
	logger *zap.SugaredLogger
}

// NewConnection will store a new connection and return a router that includes its UUID.
func (c *jsonRPCConnectionManager) NewConnection(ctx context.Context, conn *jsonrpc2.Conn) (router jsonrpcfx.Router, err error) {
	id, err := c.ctrl.InitSession(ctx, conn)
	if err != nil {
		c.stats.Counter("connection_errors").Inc(1)
		return nil, fmt.Errorf("error while creating new connection: %w", err)
	}
	c.stats.Counter("connections").Inc(1)

	r := jsonRPCRouter{
		bridge: c.ctrl,
		uuid:   id,
		stats:  c.stats,
	}

	return &r, nil
}

// RemoveConnection cleans up a closed connection.
func (c *jsonRPCConnectionManager) RemoveConnection(ctx context.Context, id uuid.UUID) {
	// Ensure session is removed even if no Exit call has been received.
	ctx = mapper.SessionUUIDToContext(ctx, id)
	if err := c.ctrl.EndSession(ctx, id); err != nil {
		c.logger.Warnw("ending session of closed connection", "session", id.String(), "error", err)
	}
	c.stats.Counter("disconnections").Inc(1)
}
