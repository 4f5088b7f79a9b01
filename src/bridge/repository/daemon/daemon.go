// Package daemon keeps track of the running import-js daemons.
package daemon

import (
	"context"
	"fmt"
	"sort"
	"sync"

	importjsd "github.com/importjs/importjs-bridge/src/bridge/gateway/importjs-daemon"
	"github.com/importjs/importjs-bridge/src/bridge/internal/errors"
	tally "github.com/uber-go/tally/v4"
	"go.uber.org/config"
	"go.uber.org/fx"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	_configKeyPerScope = "daemon.perScope"
	_globalKey         = ""
)

// Module provides the daemon Registry.
var Module = fx.Provide(New)

// Registry owns the daemon sessions of this process. By default a single session serves every scope;
// with daemon.perScope one session is kept per working directory.
type Registry interface {
	// GetOrCreate returns the session for scope, spawning it if needed. Nothing is stored when spawning fails.
	GetOrCreate(ctx context.Context, scope string) (importjsd.Session, error)
	// ExecuteQueued sends payload to the session for scope and registers cb for its response.
	// A broken pipe replaces the session and the request is sent once more.
	ExecuteQueued(ctx context.Context, scope string, payload []byte, cb importjsd.Callback) error
	// Execute sends payload to the session for scope and waits for the response, retrying once like ExecuteQueued.
	Execute(ctx context.Context, scope string, payload []byte) (string, error)
	// Sessions returns the running sessions ordered by scope.
	Sessions(ctx context.Context) []importjsd.Session
	// Shutdown terminates every session. Calling it again, or with nothing running, does nothing.
	Shutdown(ctx context.Context) error
}

// Params are the dependencies of a Registry.
type Params struct {
	fx.In

	Config    config.Provider
	Factory   importjsd.Factory
	Lifecycle fx.Lifecycle
	Logger    *zap.SugaredLogger
	Stats     tally.Scope
}

type registry struct {
	mu       sync.Mutex
	factory  importjsd.Factory
	perScope bool
	sessions map[string]importjsd.Session
	logger   *zap.SugaredLogger
	stats    tally.Scope
}

// New returns a Registry whose sessions are terminated when the application stops.
func New(p Params) (Registry, error) {
	r := &registry{
		factory:  p.Factory,
		sessions: make(map[string]importjsd.Session),
		logger:   p.Logger.Named("registry"),
		stats:    p.Stats.SubScope("registry"),
	}
	if v := p.Config.Get(_configKeyPerScope); v.HasValue() {
		if err := v.Populate(&r.perScope); err != nil {
			return nil, fmt.Errorf("getting config field %q: %w", _configKeyPerScope, err)
		}
	}

	p.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return r.Shutdown(ctx)
		},
	})
	return r, nil
}

func (r *registry) key(scope string) string {
	if r.perScope {
		return scope
	}
	return _globalKey
}

func (r *registry) GetOrCreate(ctx context.Context, scope string) (importjsd.Session, error) {
	s, stale, err := r.getOrCreate(ctx, scope)
	// A stopped session may take up to its kill grace period to exit, so it is stopped without holding mu.
	if stale != nil {
		if stopErr := stale.Shutdown(ctx); stopErr != nil {
			r.logger.Warnw("stopping importjs daemon", "scope", stale.Scope(), "error", stopErr)
		}
	}
	return s, err
}

// getOrCreate returns the live session for scope, spawning one if needed, and the stopped session it replaced.
func (r *registry) getOrCreate(ctx context.Context, scope string) (s, stale importjsd.Session, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := r.key(scope)
	if existing, ok := r.sessions[key]; ok {
		switch status := existing.Status(); status {
		case importjsd.StatusCrashed, importjsd.StatusTerminated:
			r.logger.Infow("replacing stopped importjs daemon", "scope", existing.Scope(), "status", status.String())
			delete(r.sessions, key)
			r.updateGauge()
			stale = existing
		default:
			if existing.Scope() != scope {
				r.logger.Debugw("reusing importjs daemon of another scope", "scope", scope, "daemonScope", existing.Scope())
			}
			return existing, nil, nil
		}
	}

	s, err = r.factory.New(ctx, scope)
	if err != nil {
		return nil, stale, err
	}
	r.sessions[key] = s
	r.updateGauge()
	return s, stale, nil
}

func (r *registry) ExecuteQueued(ctx context.Context, scope string, payload []byte, cb importjsd.Callback) error {
	return r.withRetry(ctx, scope, func(s importjsd.Session) error {
		return s.ExecuteQueued(payload, cb)
	})
}

func (r *registry) Execute(ctx context.Context, scope string, payload []byte) (string, error) {
	var line string
	err := r.withRetry(ctx, scope, func(s importjsd.Session) error {
		var err error
		line, err = s.Execute(ctx, payload)
		return err
	})
	return line, err
}

// withRetry runs fn against the session for scope. A pipe failure shuts that session down and fn runs once more
// against a fresh one; a second failure is returned as is.
func (r *registry) withRetry(ctx context.Context, scope string, fn func(importjsd.Session) error) error {
	s, err := r.GetOrCreate(ctx, scope)
	if err != nil {
		return err
	}

	err = fn(s)
	if !errors.IsRetryable(err) {
		return err
	}

	r.logger.Warnw("importjs daemon pipe failed, restarting it", "scope", s.Scope(), "pid", s.Pid(), "error", err)
	r.stats.Counter("daemon_restarts").Inc(1)
	r.discard(ctx, s)

	s, err = r.GetOrCreate(ctx, scope)
	if err != nil {
		return err
	}
	return fn(s)
}

// discard removes s from the registry and terminates it.
func (r *registry) discard(ctx context.Context, s importjsd.Session) {
	r.mu.Lock()
	for k, v := range r.sessions {
		if v == s {
			delete(r.sessions, k)
		}
	}
	r.updateGauge()
	r.mu.Unlock()

	if err := s.Shutdown(ctx); err != nil {
		r.logger.Warnw("stopping importjs daemon", "scope", s.Scope(), "error", err)
	}
}

func (r *registry) Sessions(ctx context.Context) []importjsd.Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	sessions := make([]importjsd.Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].Scope() < sessions[j].Scope()
	})
	return sessions
}

func (r *registry) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]importjsd.Session)
	r.updateGauge()
	r.mu.Unlock()

	var err error
	for _, s := range sessions {
		r.logger.Infow("shutting down importjs daemon", "scope", s.Scope())
		err = multierr.Append(err, s.Shutdown(ctx))
	}
	return err
}

// updateGauge must be called with mu held.
func (r *registry) updateGauge() {
	r.stats.Gauge("active_daemons").Update(float64(len(r.sessions)))
}
