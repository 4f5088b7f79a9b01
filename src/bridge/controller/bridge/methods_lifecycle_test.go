package bridge

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/importjs/importjs-bridge/mock/fxmock"
	"github.com/importjs/importjs-bridge/mock/jsonrpc2mock"
	"github.com/importjs/importjs-bridge/src/bridge/entity"
	"github.com/importjs/importjs-bridge/src/bridge/factory"
	"github.com/importjs/importjs-bridge/src/bridge/gateway/ide-client/ideclientmock"
	bridgeerrors "github.com/importjs/importjs-bridge/src/bridge/internal/errors"
	"github.com/importjs/importjs-bridge/src/bridge/repository/session/repositorymock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.uber.org/fx"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newTestController(sessions *repositorymock.MockRepository, ideGateway *ideclientmock.MockGateway) *controller {
	return &controller{
		sessions:   sessions,
		ideGateway: ideGateway,
		logger:     zap.NewNop().Sugar(),
		stopIdle:   make(chan struct{}),
	}
}

func TestInitialize(t *testing.T) {
	s := &entity.Session{UUID: factory.UUID()}
	ctx := context.WithValue(context.Background(), entity.SessionContextKey, s.UUID)

	t.Run("initialize success", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		sessionRepository := repositorymock.NewMockRepository(ctrl)
		sessionRepository.EXPECT().GetFromContext(gomock.Any()).Return(s, nil)
		sessionRepository.EXPECT().Set(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, updated *entity.Session) error {
			assert.Equal(t, []string{"/work/app", "/work/lib"}, updated.WorkspaceFolders)
			assert.Equal(t, "Neovim", updated.ClientName)
			assert.NotNil(t, updated.InitializeParams)
			return nil
		})

		c := newTestController(sessionRepository, ideclientmock.NewMockGateway(ctrl))
		result, err := c.Initialize(ctx, &protocol.InitializeParams{
			ClientInfo: &protocol.ClientInfo{Name: "Neovim"},
			WorkspaceFolders: []protocol.WorkspaceFolder{
				{URI: "file:///work/app", Name: "app"},
				{URI: "file:///work/lib", Name: "lib"},
			},
		})
		require.NoError(t, err)

		assert.Equal(t, ServerName, result.ServerInfo.Name)
		assert.Equal(t, protocol.TextDocumentSyncOptions{
			OpenClose: true,
			Change:    protocol.TextDocumentSyncKindFull,
		}, result.Capabilities.TextDocumentSync)
		require.NotNil(t, result.Capabilities.ExecuteCommandProvider)
		assert.Equal(t, entity.CommandIDs, result.Capabilities.ExecuteCommandProvider.Commands)
	})

	t.Run("root uri fallback", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		sessionRepository := repositorymock.NewMockRepository(ctrl)
		sessionRepository.EXPECT().GetFromContext(gomock.Any()).Return(&entity.Session{UUID: s.UUID}, nil)
		sessionRepository.EXPECT().Set(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, updated *entity.Session) error {
			assert.Equal(t, []string{"/work/app"}, updated.WorkspaceFolders)
			assert.Empty(t, updated.ClientName)
			return nil
		})

		c := newTestController(sessionRepository, ideclientmock.NewMockGateway(ctrl))
		_, err := c.Initialize(ctx, &protocol.InitializeParams{RootURI: "file:///work/app"})
		assert.NoError(t, err)
	})

	t.Run("missing session", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		sessionRepository := repositorymock.NewMockRepository(ctrl)
		sessionRepository.EXPECT().GetFromContext(gomock.Any()).Return(nil, &bridgeerrors.NoSessionFoundError{})

		c := newTestController(sessionRepository, ideclientmock.NewMockGateway(ctrl))
		_, err := c.Initialize(ctx, &protocol.InitializeParams{})
		assert.ErrorContains(t, err, "getting session from context")
	})

	t.Run("error saving session", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		sessionRepository := repositorymock.NewMockRepository(ctrl)
		sessionRepository.EXPECT().GetFromContext(gomock.Any()).Return(&entity.Session{UUID: s.UUID}, nil)
		sessionRepository.EXPECT().Set(gomock.Any(), gomock.Any()).Return(errors.New("sample"))

		c := newTestController(sessionRepository, ideclientmock.NewMockGateway(ctrl))
		_, err := c.Initialize(ctx, &protocol.InitializeParams{})
		assert.ErrorContains(t, err, "setting updated session state")
	})
}

func TestInitialized(t *testing.T) {
	s := &entity.Session{UUID: factory.UUID(), WorkspaceFolders: []string{"/work/app"}}
	ctx := context.WithValue(context.Background(), entity.SessionContextKey, s.UUID)

	t.Run("logs connection", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		sessionRepository := repositorymock.NewMockRepository(ctrl)
		sessionRepository.EXPECT().GetFromContext(gomock.Any()).Return(s, nil)
		ideGateway := ideclientmock.NewMockGateway(ctrl)
		ideGateway.EXPECT().LogMessage(gomock.Any(), &protocol.LogMessageParams{
			Type:    protocol.MessageTypeInfo,
			Message: "Connected to the ImportJS bridge for /work/app.",
		}).Return(nil)

		c := newTestController(sessionRepository, ideGateway)
		assert.NoError(t, c.Initialized(ctx, &protocol.InitializedParams{}))
	})

	t.Run("gateway failure is only logged", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		sessionRepository := repositorymock.NewMockRepository(ctrl)
		sessionRepository.EXPECT().GetFromContext(gomock.Any()).Return(&entity.Session{UUID: s.UUID}, nil)
		ideGateway := ideclientmock.NewMockGateway(ctrl)
		ideGateway.EXPECT().LogMessage(gomock.Any(), gomock.Any()).Return(errors.New("closed"))

		core, recorded := observer.New(zap.WarnLevel)
		c := newTestController(sessionRepository, ideGateway)
		c.logger = zap.New(core).Sugar()

		assert.NoError(t, c.Initialized(ctx, &protocol.InitializedParams{}))
		assert.Equal(t, 1, recorded.Len())
	})

	t.Run("missing session", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		sessionRepository := repositorymock.NewMockRepository(ctrl)
		sessionRepository.EXPECT().GetFromContext(gomock.Any()).Return(nil, &bridgeerrors.NoSessionFoundError{})

		c := newTestController(sessionRepository, ideclientmock.NewMockGateway(ctrl))
		assert.Error(t, c.Initialized(ctx, &protocol.InitializedParams{}))
	})
}

func TestShutdown(t *testing.T) {
	c := newTestController(nil, nil)

	ctx := context.WithValue(context.Background(), entity.SessionContextKey, factory.UUID())
	assert.NoError(t, c.Shutdown(ctx))
	assert.Error(t, c.Shutdown(context.Background()))
}

func TestExit(t *testing.T) {
	s := &entity.Session{UUID: factory.UUID()}
	ctx := context.WithValue(context.Background(), entity.SessionContextKey, s.UUID)

	t.Run("full shutdown enabled", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockShutdowner := fxmock.NewMockShutdowner(ctrl)
		mockShutdowner.EXPECT().Shutdown().Return(nil)

		c := newTestController(repositorymock.NewMockRepository(ctrl), ideclientmock.NewMockGateway(ctrl))
		c.shutdowner = mockShutdowner
		c.idleTimeout = time.Hour
		require.NoError(t, c.refreshIdleTimer(ctx))
		require.NoError(t, c.RequestFullShutdown(ctx))

		assert.NoError(t, c.Exit(ctx))
	})

	t.Run("full shutdown disabled", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		sessionRepository := repositorymock.NewMockRepository(ctrl)
		sessionRepository.EXPECT().GetFromContext(gomock.Any()).Return(s, nil)
		sessionRepository.EXPECT().Delete(gomock.Any(), s.UUID).Return(nil)
		ideGateway := ideclientmock.NewMockGateway(ctrl)
		ideGateway.EXPECT().DeregisterClient(gomock.Any(), s.UUID).Return(nil)

		c := newTestController(sessionRepository, ideGateway)
		assert.NoError(t, c.Exit(ctx))
	})

	t.Run("missing session", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		sessionRepository := repositorymock.NewMockRepository(ctrl)
		sessionRepository.EXPECT().GetFromContext(gomock.Any()).Return(nil, &bridgeerrors.NoSessionFoundError{})

		c := newTestController(sessionRepository, ideclientmock.NewMockGateway(ctrl))
		assert.ErrorContains(t, c.Exit(ctx), "error during session exit")
	})
}

func TestRequestFullShutdown(t *testing.T) {
	c := controller{}

	assert.False(t, c.fullShutdown.Load())
	assert.NoError(t, c.RequestFullShutdown(context.Background()))
	assert.True(t, c.fullShutdown.Load())

	// Duplicate calls have no effect
	assert.NoError(t, c.RequestFullShutdown(context.Background()))
	assert.True(t, c.fullShutdown.Load())
}

func TestInitSession(t *testing.T) {
	ctx := context.Background()

	newController := func(t *testing.T) (*controller, *repositorymock.MockRepository, *ideclientmock.MockGateway) {
		ctrl := gomock.NewController(t)
		sessionRepository := repositorymock.NewMockRepository(ctrl)
		ideGateway := ideclientmock.NewMockGateway(ctrl)
		c := newTestController(sessionRepository, ideGateway)
		c.idleTimer = time.NewTimer(time.Hour)
		c.idleTimeout = time.Hour
		return c, sessionRepository, ideGateway
	}

	ctrl := gomock.NewController(t)
	var conn jsonrpc2.Conn = jsonrpc2mock.NewMockConn(ctrl)

	t.Run("value set successfully", func(t *testing.T) {
		c, sessionRepository, ideGateway := newController(t)
		ideGateway.EXPECT().RegisterClient(gomock.Any(), gomock.Any(), &conn).Return(nil)
		sessionRepository.EXPECT().Set(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, s *entity.Session) error {
			assert.Equal(t, &conn, s.Conn)
			return nil
		})
		sessionRepository.EXPECT().SessionCount(gomock.Any()).Return(1, nil)

		id, err := c.InitSession(ctx, &conn)
		assert.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, id)

		// Timer should be stopped while a connection is active.
		assert.False(t, c.idleTimer.Stop())
	})

	t.Run("error registering client", func(t *testing.T) {
		c, sessionRepository, ideGateway := newController(t)
		ideGateway.EXPECT().RegisterClient(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("duplicate"))
		sessionRepository.EXPECT().SessionCount(gomock.Any()).Return(0, nil)

		_, err := c.InitSession(ctx, &conn)
		assert.Error(t, err)
	})

	t.Run("error setting value", func(t *testing.T) {
		c, sessionRepository, ideGateway := newController(t)
		ideGateway.EXPECT().RegisterClient(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
		sessionRepository.EXPECT().Set(gomock.Any(), gomock.Any()).Return(errors.New("error"))
		sessionRepository.EXPECT().SessionCount(gomock.Any()).Return(0, nil)

		_, err := c.InitSession(ctx, &conn)
		assert.Error(t, err)

		// Timer should be running when no sessions are active.
		assert.True(t, c.idleTimer.Stop())
	})
}

func TestEndSession(t *testing.T) {
	id := factory.UUID()
	ctx := context.Background()

	t.Run("last session restarts the idle timer", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		sessionRepository := repositorymock.NewMockRepository(ctrl)
		sessionRepository.EXPECT().Delete(gomock.Any(), id).Return(nil)
		sessionRepository.EXPECT().SessionCount(gomock.Any()).Return(0, nil)
		ideGateway := ideclientmock.NewMockGateway(ctrl)
		ideGateway.EXPECT().DeregisterClient(gomock.Any(), id).Return(nil)

		c := newTestController(sessionRepository, ideGateway)
		c.idleTimer = time.NewTimer(time.Hour)
		c.idleTimer.Stop()
		c.idleTimeout = time.Hour

		assert.NoError(t, c.EndSession(ctx, id))
		assert.True(t, c.idleTimer.Stop())
	})

	t.Run("deregister failure is only logged", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		sessionRepository := repositorymock.NewMockRepository(ctrl)
		sessionRepository.EXPECT().Delete(gomock.Any(), id).Return(nil)
		ideGateway := ideclientmock.NewMockGateway(ctrl)
		ideGateway.EXPECT().DeregisterClient(gomock.Any(), id).Return(&bridgeerrors.UUIDNotFoundError{})

		core, recorded := observer.New(zap.WarnLevel)
		c := newTestController(sessionRepository, ideGateway)
		c.logger = zap.New(core).Sugar()

		assert.NoError(t, c.EndSession(ctx, id))
		assert.Equal(t, 1, recorded.Len())
	})
}

func TestRefreshIdleTimer(t *testing.T) {
	ctx := context.Background()

	t.Run("disabled", func(t *testing.T) {
		c := newTestController(nil, nil)
		assert.NoError(t, c.refreshIdleTimer(ctx))
		assert.Nil(t, c.idleTimer)
	})

	t.Run("timeout shuts down", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		done := make(chan struct{})
		mockShutdowner := fxmock.NewMockShutdowner(ctrl)
		mockShutdowner.EXPECT().Shutdown().DoAndReturn(func(...fx.ShutdownOption) error {
			close(done)
			return nil
		})

		c := newTestController(nil, nil)
		c.shutdowner = mockShutdowner
		c.idleTimeout = time.Millisecond
		require.NoError(t, c.refreshIdleTimer(ctx))

		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("idle timeout did not shut down")
		}
	})

	t.Run("session count failure", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		sessionRepository := repositorymock.NewMockRepository(ctrl)
		sessionRepository.EXPECT().SessionCount(gomock.Any()).Return(0, errors.New("sample"))

		c := newTestController(sessionRepository, nil)
		c.idleTimer = time.NewTimer(time.Hour)
		c.idleTimeout = time.Hour
		defer c.idleTimer.Stop()

		assert.Error(t, c.refreshIdleTimer(ctx))
	})

	t.Run("stop ends the wait", func(t *testing.T) {
		c := newTestController(nil, nil)
		c.idleTimeout = time.Hour
		require.NoError(t, c.refreshIdleTimer(ctx))
		c.stopIdleTimer()
		c.stopIdleTimer()
	})
}
