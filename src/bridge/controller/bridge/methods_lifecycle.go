package bridge

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"github.com/importjs/importjs-bridge/src/bridge/entity"
	"github.com/importjs/importjs-bridge/src/bridge/mapper"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
)

// Initialize records the workspace of a new connection and announces the importjs commands.
func (c *controller) Initialize(ctx context.Context, params *protocol.InitializeParams) (*protocol.InitializeResult, error) {
	s, err := c.sessions.GetFromContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting session from context: %w", err)
	}

	s.InitializeParams = params
	s.WorkspaceFolders = mapper.InitializeParamsToWorkspaceFolders(params)
	if params != nil && params.ClientInfo != nil {
		s.ClientName = params.ClientInfo.Name
	}

	if err := c.sessions.Set(ctx, s); err != nil {
		return nil, fmt.Errorf("setting updated session state: %w", err)
	}
	c.logger.Infow("session initialized", "uuid", s.UUID, "client", s.ClientName, "workspaceFolders", s.WorkspaceFolders)

	return &protocol.InitializeResult{
		ServerInfo: &protocol.ServerInfo{
			Name: ServerName,
		},
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: protocol.TextDocumentSyncOptions{
				OpenClose: true,
				Change:    protocol.TextDocumentSyncKindFull,
			},
			ExecuteCommandProvider: &protocol.ExecuteCommandOptions{
				Commands: append([]string(nil), entity.CommandIDs...),
			},
		},
	}, nil
}

// Initialized confirms the connection in the editor's log.
func (c *controller) Initialized(ctx context.Context, params *protocol.InitializedParams) error {
	s, err := c.sessions.GetFromContext(ctx)
	if err != nil {
		return fmt.Errorf("getting session from context: %w", err)
	}

	message := "Connected to the ImportJS bridge."
	if len(s.WorkspaceFolders) > 0 {
		message = fmt.Sprintf("Connected to the ImportJS bridge for %s.", strings.Join(s.WorkspaceFolders, ", "))
	}
	if err := c.ideGateway.LogMessage(ctx, &protocol.LogMessageParams{
		Type:    protocol.MessageTypeInfo,
		Message: message,
	}); err != nil {
		c.logger.Warnw("logging connection message", "error", err)
	}
	return nil
}

// Shutdown is sent just before Exit to indicate that the session will exit.
func (c *controller) Shutdown(ctx context.Context) error {
	id, err := mapper.ContextToSessionUUID(ctx)
	if err != nil {
		return fmt.Errorf("getting session from context: %w", err)
	}
	c.logger.Infow("session shutting down", "uuid", id, "fullShutdown", c.fullShutdown.Load())
	return nil
}

// Exit will be used to either clean up from an individual connection, or shutdown the whole server.
func (c *controller) Exit(ctx context.Context) error {
	if c.fullShutdown.Load() {
		c.stopIdleTimer()
		c.logger.Info("full shutdown requested")
		return c.shutdowner.Shutdown()
	}

	s, err := c.sessions.GetFromContext(ctx)
	if err != nil {
		return fmt.Errorf("error during session exit: %w", err)
	}
	return c.EndSession(ctx, s.UUID)
}

// RequestFullShutdown will set the controller to treat subsequent Shutdown and Exit requests as requests to exit the entire process.
func (c *controller) RequestFullShutdown(ctx context.Context) error {
	c.fullShutdown.Store(true)
	return nil
}

// InitSession creates a new empty session and returns its UUID.
func (c *controller) InitSession(ctx context.Context, conn *jsonrpc2.Conn) (uuid.UUID, error) {
	defer c.refreshIdleTimer(ctx)

	id, err := uuid.NewV4()
	if err != nil {
		return uuid.Nil, err
	}

	if err := c.ideGateway.RegisterClient(ctx, id, conn); err != nil {
		return uuid.Nil, err
	}

	if err := c.sessions.Set(ctx, mapper.UUIDToSession(id, conn)); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// EndSession includes any cleanup at the end of the session, during or after the last JSON-RPC request.
func (c *controller) EndSession(ctx context.Context, uuid uuid.UUID) error {
	defer c.refreshIdleTimer(ctx)

	if err := c.ideGateway.DeregisterClient(ctx, uuid); err != nil {
		c.logger.Warnw("deregistering client", "uuid", uuid, "error", err)
	}
	return c.sessions.Delete(ctx, uuid)
}

// refreshIdleTimer ensures that the service shuts down after a defined inactivity period with no connections.
func (c *controller) refreshIdleTimer(ctx context.Context) error {
	if c.idleTimeout <= 0 {
		return nil
	}

	c.idleTimerMu.Lock()
	defer c.idleTimerMu.Unlock()

	// First call starts the timer, running until the first connection.
	if c.idleTimer == nil {
		c.idleTimer = time.NewTimer(c.idleTimeout)
		go c.awaitIdle(c.idleTimer)
		return nil
	}

	// Later calls stop the timer and restart it only if no connections are active.
	currentSessions, err := c.sessions.SessionCount(ctx)
	if err != nil {
		return fmt.Errorf("error resetting timeout: %w", err)
	}

	c.idleTimer.Stop()
	if currentSessions == 0 {
		c.idleTimer.Reset(c.idleTimeout)
	}
	return nil
}

func (c *controller) awaitIdle(timer *time.Timer) {
	select {
	case <-timer.C:
		c.logger.Infow("no editor connected, shutting down", "idleTimeout", c.idleTimeout)
		if err := c.shutdowner.Shutdown(); err != nil {
			c.logger.Errorw("requesting shutdown", "error", err)
			os.Exit(1)
		}
	case <-c.stopIdle:
	}
}

func (c *controller) stopIdleTimer() {
	c.stopOnce.Do(func() {
		close(c.stopIdle)
	})
}
