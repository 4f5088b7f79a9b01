package core

import (
	"fmt"
	"os"

	"go.uber.org/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	_configKeyLogging = "logging"
	_fieldBridgePID   = "bridge_pid"
)

// LoggingConfig represents the logging configuration from the config files
type LoggingConfig struct {
	Level         string                 `yaml:"level"`
	Development   bool                   `yaml:"development"`
	Encoding      string                 `yaml:"encoding"`
	OutputPaths   []string               `yaml:"outputPaths"`
	InitialFields map[string]interface{} `yaml:"initialFields"`
}

// LoggerModule provides the logger dependencies
var LoggerModule = fx.Options(
	fx.Provide(NewSugaredLogger),
	fx.Provide(NewLogger),
)

func NewLogger(sugar *zap.SugaredLogger) *zap.Logger {
	return sugar.Desugar()
}

// NewSugaredLogger builds the logger described by the "logging" config section.
// Several editors may share one log file, so every entry carries the bridge process id.
func NewSugaredLogger(provider config.Provider) (*zap.SugaredLogger, error) {
	var cfg LoggingConfig
	if err := provider.Get(_configKeyLogging).Populate(&cfg); err != nil {
		return nil, fmt.Errorf("getting config field %q: %w", _configKeyLogging, err)
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parsing log level: %w", err)
	}

	outputPaths := cfg.OutputPaths
	if len(outputPaths) == 0 {
		outputPaths = []string{"stdout"}
	}
	sink, _, err := zap.Open(outputPaths...)
	if err != nil {
		return nil, fmt.Errorf("opening log outputs: %w", err)
	}

	opts := []zap.Option{zap.Fields(initialFields(cfg)...)}
	if cfg.Development {
		opts = append(opts, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	}
	return zap.New(zapcore.NewCore(newEncoder(cfg), sink, level), opts...).Sugar(), nil
}

func newEncoder(cfg LoggingConfig) zapcore.Encoder {
	encoderConfig := zap.NewProductionEncoderConfig()
	if cfg.Development {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
	}
	if cfg.Encoding == "console" {
		return zapcore.NewConsoleEncoder(encoderConfig)
	}
	return zapcore.NewJSONEncoder(encoderConfig)
}

func initialFields(cfg LoggingConfig) []zap.Field {
	fields := []zap.Field{zap.Int(_fieldBridgePID, os.Getpid())}
	for k, v := range cfg.InitialFields {
		fields = append(fields, zap.Any(k, v))
	}
	return fields
}
