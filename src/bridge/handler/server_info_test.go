package handler

import (
	"errors"
	"os"
	"strconv"
	"testing"

	"github.com/importjs/importjs-bridge/src/bridge/internal/serverinfofile/serverinfofilemock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/config"
	"go.uber.org/mock/gomock"
)

func TestOutputProcessInfo(t *testing.T) {
	pid := strconv.Itoa(os.Getpid())

	tests := []struct {
		name       string
		cfg        map[string]interface{}
		setupMocks func(m *serverinfofilemock.MockServerInfoFile)
		wantErr    bool
	}{
		{
			name: "valid config",
			cfg: map[string]interface{}{
				"service": map[string]interface{}{"name": "importjs-bridge"},
			},
			setupMocks: func(m *serverinfofilemock.MockServerInfoFile) {
				gomock.InOrder(
					m.EXPECT().UpdateField(_infoFileKeyService, "importjs-bridge").Return(nil),
					m.EXPECT().UpdateField(_infoFileKeyPID, pid).Return(nil),
				)
			},
		},
		{
			name: "no service name",
			cfg:  map[string]interface{}{},
			setupMocks: func(m *serverinfofilemock.MockServerInfoFile) {
				m.EXPECT().UpdateField(_infoFileKeyPID, pid).Return(nil)
			},
		},
		{
			name: "invalid service name",
			cfg: map[string]interface{}{
				"service": map[string]interface{}{"name": []string{"a", "b"}},
			},
			setupMocks: func(m *serverinfofilemock.MockServerInfoFile) {},
			wantErr:    true,
		},
		{
			name: "file update error",
			cfg: map[string]interface{}{
				"service": map[string]interface{}{"name": "importjs-bridge"},
			},
			setupMocks: func(m *serverinfofilemock.MockServerInfoFile) {
				m.EXPECT().UpdateField(_infoFileKeyService, "importjs-bridge").Return(errors.New("sample"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			serverInfoFile := serverinfofilemock.NewMockServerInfoFile(ctrl)
			tt.setupMocks(serverInfoFile)

			cfg, err := config.NewStaticProvider(tt.cfg)
			require.NoError(t, err)

			err = outputProcessInfo(cfg, serverInfoFile)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
