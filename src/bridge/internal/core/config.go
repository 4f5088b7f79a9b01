package core

import (
	"fmt"
	"os"
	"path/filepath"

	uber_config "go.uber.org/config"
	"go.uber.org/fx"
)

const (
	_envConfigDir     = "BRIDGE_CONFIG_DIR"
	_envUserConfig    = "BRIDGE_USER_CONFIG"
	_defaultConfigDir = "src/bridge/config"
	_metaFile         = "meta.yaml"
	_userConfigFile   = "importjs-bridge/config.yaml"
)

// ConfigModule provides the merged configuration of the bridge.
var ConfigModule = fx.Options(
	fx.Provide(NewConfig),
)

// Config is a config.Provider over the merged configuration files.
type Config struct {
	provider uber_config.Provider
}

func (c Config) Get(path string) uber_config.Value {
	return c.provider.Get(path)
}

func (c Config) Name() string {
	return "config"
}

// NewConfig merges, in order, the files listed under "files" in meta.yaml and then the user's
// own config file. ${VAR} and ${VAR:default} are expanded from the process environment.
// Missing files are skipped, but at least one listed file must exist.
func NewConfig() (uber_config.Provider, error) {
	configDir := getConfigDir()

	files, err := listedFiles(configDir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no configuration files found in %s", configDir)
	}
	if user := userConfigPath(); user != "" && fileExists(user) {
		files = append(files, user)
	}

	options := make([]uber_config.YAMLOption, 0, len(files)+1)
	for _, file := range files {
		options = append(options, uber_config.File(file))
	}
	options = append(options, uber_config.Expand(os.LookupEnv))

	provider, err := uber_config.NewYAML(options...)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return Config{provider: provider}, nil
}

// listedFiles returns the existing files named by meta.yaml in configDir.
func listedFiles(configDir string) ([]string, error) {
	meta, err := uber_config.NewYAML(
		uber_config.File(filepath.Join(configDir, _metaFile)),
		uber_config.Expand(os.LookupEnv),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load meta configuration: %w", err)
	}

	var names []string
	if err := meta.Get("files").Populate(&names); err != nil {
		return nil, fmt.Errorf("failed to read files list from %s: %w", _metaFile, err)
	}

	var files []string
	for _, name := range names {
		if path := filepath.Join(configDir, name); fileExists(path) {
			files = append(files, path)
		}
	}
	return files, nil
}

// userConfigPath is BRIDGE_USER_CONFIG, or importjs-bridge/config.yaml under the user config directory.
func userConfigPath() string {
	if path := os.Getenv(_envUserConfig); path != "" {
		return path
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, _userConfigFile)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// getConfigDir returns the configuration directory. The default is relative to the repository root.
func getConfigDir() string {
	if configDir := os.Getenv(_envConfigDir); configDir != "" {
		return configDir
	}
	return _defaultConfigDir
}
