// Package environment computes the process environment used to launch the importjs daemon.
package environment

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/importjs/importjs-bridge/src/bridge/entity"
	"github.com/importjs/importjs-bridge/src/bridge/internal/executor"
	"github.com/importjs/importjs-bridge/src/bridge/internal/settings"
	"go.uber.org/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	// PathMarker delimits PATH in the login shell output, since shells may print banners on startup.
	PathMarker = "__IMPORTJS_PATH__"

	_configKeyPaths      = "daemon.paths"
	_configKeyLoginShell = "daemon.loginShell"

	_shellTimeout = 10 * time.Second
)

// Locale is forced into every daemon environment so its I/O is always UTF-8.
var Locale = map[string]string{
	"LC_ALL":   "en_US.UTF-8",
	"LC_CTYPE": "UTF-8",
	"LANG":     "en_US.UTF-8",
}

// Module provides the environment Resolver and Store.
var Module = fx.Options(
	fx.Provide(NewResolver),
	fx.Provide(NewStore),
)

// Resolver computes a daemon environment from a base environment and the configured extra paths.
type Resolver interface {
	Resolve(ctx context.Context, base entity.Environment, configuredPaths []string) entity.Environment
}

// ResolverParams are the dependencies of a Resolver.
type ResolverParams struct {
	fx.In

	Executor executor.Executor
	Logger   *zap.SugaredLogger
	Config   config.Provider
}

type resolver struct {
	executor   executor.Executor
	logger     *zap.SugaredLogger
	loginShell bool
}

// NewResolver creates a Resolver. Reading PATH from the login shell can be disabled with daemon.loginShell.
func NewResolver(p ResolverParams) (Resolver, error) {
	loginShell := true
	if v := p.Config.Get(_configKeyLoginShell); v.HasValue() {
		if err := v.Populate(&loginShell); err != nil {
			return nil, fmt.Errorf("getting config field %q: %w", _configKeyLoginShell, err)
		}
	}

	return &resolver{
		executor:   p.Executor,
		logger:     p.Logger,
		loginShell: loginShell,
	}, nil
}

// Resolve never fails: a shell that cannot be run or whose output cannot be parsed contributes an empty PATH.
func (r *resolver) Resolve(ctx context.Context, base entity.Environment, configuredPaths []string) entity.Environment {
	path := base["PATH"]
	if shell := base["SHELL"]; r.loginShell && shell != "" {
		path = r.shellPath(ctx, shell, base)
	}

	env := Assemble(base, path, configuredPaths, string(os.PathListSeparator))
	r.logger.Debugw("resolved importjs environment", "PATH", env["PATH"])
	return env
}

func (r *resolver) shellPath(ctx context.Context, shell string, base entity.Environment) string {
	ctx, cancel := context.WithTimeout(ctx, _shellTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, shell, "-l", "-c", fmt.Sprintf(`echo "%s${PATH}%s"`, PathMarker, PathMarker))
	cmd.Env = base.Environ()
	stdout, stderr, _, err := r.executor.Run(cmd)
	if err != nil {
		r.logger.Warnw("running login shell to extract PATH", "shell", shell, "error", err, "stderr", stderr)
	}

	path, ok := ExtractPath(stdout)
	if !ok {
		r.logger.Warnw("login shell output did not contain PATH markers", "shell", shell)
	}
	return path
}

// ExtractPath returns the text between the first two PathMarker tokens of a login shell's output.
func ExtractPath(output string) (string, bool) {
	parts := strings.SplitN(output, PathMarker, 3)
	if len(parts) < 2 {
		return "", false
	}
	return parts[1], true
}

// Assemble copies base, forces the locale and sets PATH to the configured paths followed by path.
func Assemble(base entity.Environment, path string, configuredPaths []string, separator string) entity.Environment {
	env := base.Clone()
	for k, v := range Locale {
		env[k] = v
	}

	parts := make([]string, 0, len(configuredPaths)+1)
	for _, p := range configuredPaths {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if path != "" {
		parts = append(parts, path)
	}
	env["PATH"] = strings.Join(parts, separator)
	return env
}

// FromOS returns the environment inherited by this process.
func FromOS() entity.Environment {
	env := make(entity.Environment)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return env
}

// Store holds the current daemon environment. It is computed once and only recomputed on Reload.
type Store interface {
	Environment(ctx context.Context) entity.Environment
	Reload(ctx context.Context, configuredPaths []string) entity.Environment
	ConfiguredPaths() []string
}

// StoreParams are the dependencies of a Store.
type StoreParams struct {
	fx.In

	Resolver  Resolver
	Config    config.Provider
	Settings  settings.Settings `optional:"true"`
	Lifecycle fx.Lifecycle
	Logger    *zap.SugaredLogger
}

type store struct {
	mu       sync.Mutex
	resolver Resolver
	base     func() entity.Environment
	defaults []string
	paths    []string
	env      entity.Environment
	logger   *zap.SugaredLogger
}

// NewStore creates a Store which resolves the environment when the application starts.
func NewStore(p StoreParams) (Store, error) {
	var paths []string
	if v := p.Config.Get(_configKeyPaths); v.HasValue() {
		if err := v.Populate(&paths); err != nil {
			return nil, fmt.Errorf("getting config field %q: %w", _configKeyPaths, err)
		}
	}

	s := &store{
		resolver: p.Resolver,
		base:     FromOS,
		defaults: paths,
		paths:    paths,
		logger:   p.Logger,
	}
	if p.Settings != nil {
		if override := p.Settings.Current().Paths; len(override) > 0 {
			s.paths = override
		}
	}

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			s.Environment(ctx)
			return nil
		},
	})
	return s, nil
}

// Environment returns the current environment, resolving it first if that has not happened yet.
func (s *store) Environment(ctx context.Context) entity.Environment {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.env == nil {
		s.env = s.resolver.Resolve(ctx, s.base(), s.paths)
		s.logger.Infow("importjs environment loaded", "PATH", s.env["PATH"])
	}
	return s.env.Clone()
}

// Reload replaces the configured paths and recomputes the environment. An empty list restores daemon.paths.
func (s *store) Reload(ctx context.Context, configuredPaths []string) entity.Environment {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(configuredPaths) == 0 {
		configuredPaths = s.defaults
	}
	s.paths = append([]string(nil), configuredPaths...)
	s.env = s.resolver.Resolve(ctx, s.base(), s.paths)
	s.logger.Infow("importjs environment reloaded", "PATH", s.env["PATH"])
	return s.env.Clone()
}

// ConfiguredPaths returns the extra PATH directories currently in effect.
func (s *store) ConfiguredPaths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]string(nil), s.paths...)
}
