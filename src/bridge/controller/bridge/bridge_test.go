package bridge

import (
	"testing"

	"github.com/importjs/importjs-bridge/mock/fxmock"
	"github.com/importjs/importjs-bridge/src/bridge/controller/importjs/importjsmock"
	"github.com/importjs/importjs-bridge/src/bridge/gateway/ide-client/ideclientmock"
	"github.com/importjs/importjs-bridge/src/bridge/repository/document/documentmock"
	"github.com/importjs/importjs-bridge/src/bridge/repository/session/repositorymock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/config"
	"go.uber.org/fx/fxtest"
	"go.uber.org/goleak"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestNew(t *testing.T) {
	tests := []struct {
		name        string
		cfg         map[string]interface{}
		wantTimeout string
		errContains string
	}{
		{
			name:        "idle timeout",
			cfg:         map[string]interface{}{"idleTimeoutMinutes": 60},
			wantTimeout: "1h0m0s",
		},
		{
			name:        "idle timeout disabled",
			cfg:         map[string]interface{}{"idleTimeoutMinutes": 0},
			wantTimeout: "0s",
		},
		{
			name:        "missing idle timeout",
			cfg:         map[string]interface{}{},
			wantTimeout: "0s",
		},
		{
			name:        "negative idle timeout",
			cfg:         map[string]interface{}{"idleTimeoutMinutes": -5},
			errContains: "must not be negative",
		},
		{
			name:        "malformed idle timeout",
			cfg:         map[string]interface{}{"idleTimeoutMinutes": "forever"},
			errContains: `"idleTimeoutMinutes"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			provider, err := config.NewStaticProvider(tt.cfg)
			require.NoError(t, err)

			lc := fxtest.NewLifecycle(t)
			c, err := New(Params{
				Shutdowner: fxmock.NewMockShutdowner(ctrl),
				Lifecycle:  lc,
				Sessions:   repositorymock.NewMockRepository(ctrl),
				Documents:  documentmock.NewMockRepository(ctrl),
				IdeGateway: ideclientmock.NewMockGateway(ctrl),
				Importjs:   importjsmock.NewMockController(ctrl),
				Logger:     zap.NewNop().Sugar(),
				Config:     provider,
			})

			if tt.errContains != "" {
				assert.ErrorContains(t, err, tt.errContains)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantTimeout, c.(*controller).idleTimeout.String())

			lc.RequireStart()
			lc.RequireStop()
		})
	}
}
