// Package serverinfofile publishes how to reach the running bridge.
// Editor plugins poll the file for the JSON-RPC address, the process id and the daemon output files.
package serverinfofile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/importjs/importjs-bridge/src/bridge/internal/fs"
	"go.uber.org/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const _configKeyInfoFile = "serverInfoFilePath"

// Module provides the ServerInfoFile of the bridge process.
var Module = fx.Provide(New)

// ServerInfoFile is a flat JSON object of string fields kept in sync with a file on disk.
type ServerInfoFile interface {
	// UpdateField sets key and rewrites the file.
	UpdateField(key string, value string) error
	// RemoveField drops key and rewrites the file, or removes it once no field is left.
	RemoveField(key string) error
}

// Params define values to be used by ServerInfoFile.
type Params struct {
	fx.In

	Config    config.Provider
	FS        fs.BridgeFS
	Lifecycle fx.Lifecycle
	Logger    *zap.SugaredLogger
}

type infoFile struct {
	path   string
	fs     fs.BridgeFS
	logger *zap.SugaredLogger

	mu      sync.Mutex
	fields  map[string]string
	written bool
}

// New reads the file location from config. Whatever was written is removed when the application stops.
func New(p Params) (ServerInfoFile, error) {
	path, err := infoFilePath(p.Config)
	if err != nil {
		return nil, err
	}

	f := &infoFile{
		path:   path,
		fs:     p.FS,
		logger: p.Logger,
		fields: make(map[string]string),
	}
	p.Lifecycle.Append(fx.Hook{OnStop: f.OnStop})
	return f, nil
}

func (f *infoFile) OnStop(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.removeLocked()
}

func (f *infoFile) UpdateField(key string, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.fields[key] = value
	if err := f.persistLocked(); err != nil {
		return err
	}
	f.logger.Infow("server info updated", "file", f.path, key, value)
	return nil
}

func (f *infoFile) RemoveField(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.fields[key]; !ok {
		return nil
	}
	delete(f.fields, key)
	if len(f.fields) == 0 {
		return f.removeLocked()
	}
	return f.persistLocked()
}

func (f *infoFile) persistLocked() error {
	// Map keys are sorted by encoding/json, so rewrites are stable.
	data, err := json.Marshal(f.fields)
	if err != nil {
		return fmt.Errorf("encoding server info: %w", err)
	}
	if err := f.fs.WriteFile(f.path, data); err != nil {
		return fmt.Errorf("writing server info file %s: %w", f.path, err)
	}
	f.written = true
	return nil
}

func (f *infoFile) removeLocked() error {
	if !f.written {
		return nil
	}
	if err := f.fs.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing server info file %s: %w", f.path, err)
	}
	f.written = false
	return nil
}

func infoFilePath(cfg config.Provider) (string, error) {
	var path string
	if err := cfg.Get(_configKeyInfoFile).Populate(&path); err != nil {
		return "", fmt.Errorf("getting config field %q: %w", _configKeyInfoFile, err)
	}
	if path == "" {
		return "", fmt.Errorf("missing field %q in config", _configKeyInfoFile)
	}
	return path, nil
}
