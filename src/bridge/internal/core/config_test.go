package core

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigDir(t *testing.T, files map[string]string) string {
	dir := t.TempDir()
	for name, contents := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(contents), 0644))
	}
	return dir
}

// isolateUserConfig points the user config file at a path that does not exist.
func isolateUserConfig(t *testing.T) {
	t.Setenv(_envUserConfig, filepath.Join(t.TempDir(), "absent.yaml"))
}

func TestNewConfig(t *testing.T) {
	tests := []struct {
		name        string
		files       map[string]string
		errContains string
	}{
		{
			name: "single file",
			files: map[string]string{
				"meta.yaml": "files: [base.yaml]",
				"base.yaml": "service:\n  name: importjs-bridge",
			},
		},
		{
			name:        "missing meta.yaml",
			files:       map[string]string{"base.yaml": "service:\n  name: importjs-bridge"},
			errContains: "failed to load meta configuration",
		},
		{
			name: "malformed files list",
			files: map[string]string{
				"meta.yaml": "files:\n  base: base.yaml",
			},
			errContains: "failed to read files list",
		},
		{
			name: "no listed file exists",
			files: map[string]string{
				"meta.yaml": "files: [base.yaml]",
			},
			errContains: "no configuration files found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolateUserConfig(t)
			t.Setenv(_envConfigDir, writeConfigDir(t, tt.files))

			provider, err := NewConfig()
			if tt.errContains != "" {
				assert.ErrorContains(t, err, tt.errContains)
				assert.Nil(t, provider)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, "importjs-bridge", provider.Get("service.name").String())
			assert.Equal(t, "config", provider.Name())
		})
	}
}

func TestConfigFilePriority(t *testing.T) {
	isolateUserConfig(t)
	t.Setenv(_envConfigDir, writeConfigDir(t, map[string]string{
		"meta.yaml": "files: [base.yaml, development.yaml, local.yaml]",
		"base.yaml": `service:
  name: base-service
logging:
  level: info
daemon:
  executable: importjsd`,
		"development.yaml": `service:
  name: dev-service
logging:
  level: debug`,
		"local.yaml": `logging:
  level: warn`,
	}))

	provider, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "dev-service", provider.Get("service.name").String())
	assert.Equal(t, "warn", provider.Get("logging.level").String())
	assert.Equal(t, "importjsd", provider.Get("daemon.executable").String())
}

func TestConfigSkipsMissingFiles(t *testing.T) {
	isolateUserConfig(t)
	t.Setenv(_envConfigDir, writeConfigDir(t, map[string]string{
		"meta.yaml": "files: [base.yaml, local.yaml]",
		"base.yaml": "logging:\n  level: info",
	}))

	provider, err := NewConfig()
	require.NoError(t, err)
	assert.Equal(t, "info", provider.Get("logging.level").String())
}

func TestConfigWithEnvironmentVariables(t *testing.T) {
	isolateUserConfig(t)
	t.Setenv(_envConfigDir, writeConfigDir(t, map[string]string{
		"meta.yaml": "files: [base.yaml]",
		"base.yaml": `jsonrpc:
  address: "127.0.0.1:${BRIDGE_PORT:5860}"
serverInfoFilePath: ${HOME}/.importjs-bridge`,
	}))
	t.Setenv("HOME", "/test/home")

	t.Run("defaults", func(t *testing.T) {
		provider, err := NewConfig()
		require.NoError(t, err)
		assert.Equal(t, "127.0.0.1:5860", provider.Get("jsonrpc.address").String())
		assert.Equal(t, "/test/home/.importjs-bridge", provider.Get("serverInfoFilePath").String())
	})

	t.Run("override", func(t *testing.T) {
		t.Setenv("BRIDGE_PORT", "9090")
		provider, err := NewConfig()
		require.NoError(t, err)
		assert.Equal(t, "127.0.0.1:9090", provider.Get("jsonrpc.address").String())
	})
}

func TestUserConfigOverrides(t *testing.T) {
	t.Setenv(_envConfigDir, writeConfigDir(t, map[string]string{
		"meta.yaml": "files: [base.yaml]",
		"base.yaml": `daemon:
  executable: importjsd
  loginShell: true`,
	}))

	user := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(user, []byte("daemon:\n  loginShell: false\n"), 0644))
	t.Setenv(_envUserConfig, user)

	provider, err := NewConfig()
	require.NoError(t, err)

	var loginShell bool
	require.NoError(t, provider.Get("daemon.loginShell").Populate(&loginShell))
	assert.False(t, loginShell)
	assert.Equal(t, "importjsd", provider.Get("daemon.executable").String())
}

func TestUserConfigPath(t *testing.T) {
	t.Run("environment variable", func(t *testing.T) {
		t.Setenv(_envUserConfig, "/home/u/bridge.yaml")
		assert.Equal(t, "/home/u/bridge.yaml", userConfigPath())
	})

	t.Run("user config directory", func(t *testing.T) {
		t.Setenv(_envUserConfig, "")
		t.Setenv("XDG_CONFIG_HOME", "/home/u/.config")
		t.Setenv("HOME", "/home/u")
		path := userConfigPath()
		assert.Equal(t, "config.yaml", filepath.Base(path))
		assert.Equal(t, "importjs-bridge", filepath.Base(filepath.Dir(path)))
	})
}

func TestGetConfigDir(t *testing.T) {
	t.Run("returns environment variable when set", func(t *testing.T) {
		t.Setenv(_envConfigDir, "/custom/config/path")
		assert.Equal(t, "/custom/config/path", getConfigDir())
	})

	t.Run("returns default path when environment variable not set", func(t *testing.T) {
		t.Setenv(_envConfigDir, "")
		assert.Equal(t, "src/bridge/config", getConfigDir())
	})
}

func TestRepositoryConfig(t *testing.T) {
	isolateUserConfig(t)
	t.Setenv(_envConfigDir, filepath.Join("..", "..", "config"))

	provider, err := NewConfig()
	require.NoError(t, err)
	assert.Equal(t, "importjs-bridge", provider.Get("service.name").String())
	assert.Equal(t, "importjsd", provider.Get("daemon.executable").String())
	assert.True(t, provider.Get("jsonrpc.address").HasValue())
	assert.True(t, provider.Get("serverInfoFilePath").HasValue())
}
