// Package settings loads the user's ImportJS settings file and watches it for changes.
package settings

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const (
	_configKeyFile = "settings.file"

	// Editors often save a file in several events; they are handled as one change once this long has passed quietly.
	_debounce = 200 * time.Millisecond
)

// Module provides Settings.
var Module = fx.Provide(New)

// Values are the user overrides read from the settings file.
type Values struct {
	// Paths are prepended to PATH when launching the daemon.
	Paths []string `yaml:"paths"`
	// Executable replaces daemon.executable when set.
	Executable string `yaml:"executable"`
}

// Equal reports whether both values hold the same settings.
func (v Values) Equal(o Values) bool {
	return v.Executable == o.Executable && slices.Equal(v.Paths, o.Paths)
}

// Settings exposes the current user settings.
type Settings interface {
	Current() Values
	// Subscribe registers fn to be called with the new values every time the file changes them.
	Subscribe(fn func(ctx context.Context, v Values))
}

// Params are the dependencies of Settings.
type Params struct {
	fx.In

	Config    config.Provider
	Lifecycle fx.Lifecycle
	Logger    *zap.SugaredLogger
}

type settingsImpl struct {
	mu          sync.RWMutex
	file        string
	current     Values
	subscribers []func(ctx context.Context, v Values)
	logger      *zap.SugaredLogger
	debounce    time.Duration

	watcher *fsnotify.Watcher
	stop    chan struct{}
	done    chan struct{}
}

// New reads settings.file, if configured, and watches it while the application runs.
func New(p Params) (Settings, error) {
	s := &settingsImpl{
		logger:   p.Logger.Named("settings"),
		debounce: _debounce,
	}
	if v := p.Config.Get(_configKeyFile); v.HasValue() {
		if err := v.Populate(&s.file); err != nil {
			return nil, fmt.Errorf("getting config field %q: %w", _configKeyFile, err)
		}
	}
	if s.file == "" {
		return s, nil
	}

	if values, err := load(s.file); err != nil {
		s.logger.Warnw("loading settings", "file", s.file, "error", err)
	} else {
		s.current = values
	}

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error {
			return s.watch()
		},
		OnStop: func(context.Context) error {
			return s.close()
		},
	})
	return s, nil
}

func (s *settingsImpl) Current() Values {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Values{
		Paths:      append([]string(nil), s.current.Paths...),
		Executable: s.current.Executable,
	}
}

func (s *settingsImpl) Subscribe(fn func(ctx context.Context, v Values)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

// load reads the settings file. A missing file yields empty settings.
func load(file string) (Values, error) {
	var values Values
	data, err := os.ReadFile(file)
	if errors.Is(err, fs.ErrNotExist) {
		return values, nil
	}
	if err != nil {
		return values, err
	}
	if err := yaml.Unmarshal(data, &values); err != nil {
		return Values{}, fmt.Errorf("decoding %s: %w", file, err)
	}
	return values, nil
}

// watch follows the parent directory since editors often save by replacing the file.
func (s *settingsImpl) watch() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating settings watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(s.file)); err != nil {
		w.Close()
		s.logger.Warnw("settings directory cannot be watched, changes will be ignored", "file", s.file, "error", err)
		return nil
	}

	s.watcher = w
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.run()
	return nil
}

func (s *settingsImpl) run() {
	defer close(s.done)

	timer := time.NewTimer(s.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-s.stop:
			return
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(s.file) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			timer.Reset(s.debounce)
		case <-timer.C:
			s.reload(context.Background())
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.logger.Warnw("settings watcher", "error", err)
		}
	}
}

// reload re-reads the file and notifies subscribers when the values changed. Decode failures keep the previous values.
func (s *settingsImpl) reload(ctx context.Context) {
	values, err := load(s.file)
	if err != nil {
		s.logger.Warnw("reloading settings, keeping previous values", "file", s.file, "error", err)
		return
	}

	s.mu.Lock()
	if values.Equal(s.current) {
		s.mu.Unlock()
		return
	}
	s.current = values
	subscribers := append([]func(context.Context, Values){}, s.subscribers...)
	s.mu.Unlock()

	s.logger.Infow("settings changed", "file", s.file, "paths", values.Paths, "executable", values.Executable)
	for _, fn := range subscribers {
		fn(ctx, values)
	}
}

func (s *settingsImpl) close() error {
	if s.watcher == nil {
		return nil
	}
	close(s.stop)
	err := s.watcher.Close()
	<-s.done
	return err
}
