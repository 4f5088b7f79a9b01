// Package logfilewriter keeps human readable process output in a file that editors can tail.
package logfilewriter

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/importjs/importjs-bridge/src/bridge/internal/fs"
	"github.com/importjs/importjs-bridge/src/bridge/internal/serverinfofile"
	"go.uber.org/fx"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const _fmtOutputKey = "output:%s"

// Params define the dependencies for SetupOutputWriter.
type Params struct {
	FS        fs.BridgeFS
	Lifecycle fx.Lifecycle
	// ServerInfoFile is optional. When set, the path of the output file is advertised under "output:<name>".
	ServerInfoFile serverinfofile.ServerInfoFile
}

// SetupOutputWriter returns a writer whose lines are timestamped into a temporary file under <tmp>/<name>.
// The file is removed when the application stops.
func SetupOutputWriter(p Params, name string) (io.Writer, error) {
	logsDirPath := filepath.Join(os.TempDir(), name)
	if err := p.FS.MkdirAll(logsDirPath); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	logFile, err := p.FS.TempFile(logsDirPath, name+"-*.log")
	if err != nil {
		return nil, fmt.Errorf("creating output file: %w", err)
	}

	infoKey := fmt.Sprintf(_fmtOutputKey, name)
	if p.ServerInfoFile != nil {
		if err := p.ServerInfoFile.UpdateField(infoKey, logFile.Name()); err != nil {
			logFile.Close()
			p.FS.Remove(logFile.Name())
			return nil, fmt.Errorf("advertising output file: %w", err)
		}
	}

	// Write via a logger for formatting, timestamp, and buffering.
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.AddSync(logFile),
		zap.InfoLevel,
	)
	outputLogger := zap.New(core).Sugar()

	p.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			// Sync fails on some platforms for regular files that were already flushed.
			_ = outputLogger.Sync()
			var err error
			if p.ServerInfoFile != nil {
				err = p.ServerInfoFile.RemoveField(infoKey)
			}
			return multierr.Combine(err, logFile.Close(), p.FS.Remove(logFile.Name()))
		},
	})

	return &loggerWriter{logger: outputLogger}, nil
}

type loggerWriter struct {
	logger *zap.SugaredLogger
}

// Write implements the io.Writer interface by sending data to the given logger.
func (o *loggerWriter) Write(p []byte) (n int, err error) {
	// Incoming data may contain multiple lines, including blank ones.
	for _, line := range strings.Split(string(p), "\n") {
		if len(line) > 0 {
			o.logger.Info(line)
		}
	}
	return len(p), nil
}
