package importjsd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/importjs/importjs-bridge/src/bridge/internal/clock"
	"github.com/importjs/importjs-bridge/src/bridge/internal/environment"
	bridgeerrors "github.com/importjs/importjs-bridge/src/bridge/internal/errors"
	"github.com/importjs/importjs-bridge/src/bridge/internal/executor"
	bridgefs "github.com/importjs/importjs-bridge/src/bridge/internal/fs"
	"github.com/importjs/importjs-bridge/src/bridge/internal/logfilewriter"
	"github.com/importjs/importjs-bridge/src/bridge/internal/serverinfofile"
	"github.com/importjs/importjs-bridge/src/bridge/internal/settings"
	tally "github.com/uber-go/tally/v4"
	"go.uber.org/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	// DefaultExecutable is the name of the import-js daemon binary.
	DefaultExecutable = "importjsd"

	_configKeyExecutable     = "daemon.executable"
	_configKeyArgs           = "daemon.args"
	_configKeyRequestTimeout = "daemon.requestTimeoutSeconds"
	_configKeyStopTimeout    = "daemon.stopTimeoutSeconds"
	_configKeyOutputLog      = "daemon.outputLog"

	_defaultStopTimeout = 5 * time.Second
)

// Factory spawns daemon sessions.
type Factory interface {
	// New starts a daemon in scope using the current environment.
	New(ctx context.Context, scope string) (Session, error)
}

// Params are the dependencies of a Factory.
type Params struct {
	fx.In

	Config      config.Provider
	Environment environment.Store
	Executor    executor.Executor
	Settings    settings.Settings
	Logger      *zap.SugaredLogger
	Stats       tally.Scope

	// Used only with daemon.outputLog.
	FS             bridgefs.BridgeFS             `optional:"true"`
	Lifecycle      fx.Lifecycle                  `optional:"true"`
	ServerInfoFile serverinfofile.ServerInfoFile `optional:"true"`
}

type factory struct {
	environment    environment.Store
	settings       settings.Settings
	logger         *zap.SugaredLogger
	stats          tally.Scope
	clock          clock.Clock
	executable     string
	args           []string
	requestTimeout time.Duration
	stopTimeout    time.Duration
	parentPid      int
	output         io.Writer

	start func(cmd *exec.Cmd) (process, error)
}

// NewFactory reads the daemon configuration and returns a Factory.
func NewFactory(p Params) (Factory, error) {
	f := &factory{
		environment: p.Environment,
		settings:    p.Settings,
		logger:      p.Logger.Named("importjsd"),
		stats:       p.Stats.SubScope("daemon"),
		clock:       clock.New(),
		executable:  DefaultExecutable,
		stopTimeout: _defaultStopTimeout,
		parentPid:   os.Getpid(),
	}
	f.start = func(cmd *exec.Cmd) (process, error) {
		return startProcess(p.Executor, cmd)
	}

	if err := populate(p.Config, _configKeyExecutable, &f.executable); err != nil {
		return nil, err
	}
	if err := populate(p.Config, _configKeyArgs, &f.args); err != nil {
		return nil, err
	}

	var requestTimeoutSeconds, stopTimeoutSeconds int
	if err := populate(p.Config, _configKeyRequestTimeout, &requestTimeoutSeconds); err != nil {
		return nil, err
	}
	if err := populate(p.Config, _configKeyStopTimeout, &stopTimeoutSeconds); err != nil {
		return nil, err
	}
	f.requestTimeout = time.Duration(requestTimeoutSeconds) * time.Second
	if stopTimeoutSeconds > 0 {
		f.stopTimeout = time.Duration(stopTimeoutSeconds) * time.Second
	}

	var outputLog bool
	if err := populate(p.Config, _configKeyOutputLog, &outputLog); err != nil {
		return nil, err
	}
	if outputLog {
		if p.FS == nil || p.Lifecycle == nil {
			return nil, fmt.Errorf("%s requires a file system and a lifecycle", _configKeyOutputLog)
		}
		w, err := logfilewriter.SetupOutputWriter(logfilewriter.Params{
			FS:             p.FS,
			Lifecycle:      p.Lifecycle,
			ServerInfoFile: p.ServerInfoFile,
		}, DefaultExecutable)
		if err != nil {
			return nil, fmt.Errorf("setting up daemon output log: %w", err)
		}
		f.output = w
	}

	return f, nil
}

func populate(p config.Provider, key string, target interface{}) error {
	v := p.Get(key)
	if !v.HasValue() {
		return nil
	}
	if err := v.Populate(target); err != nil {
		return fmt.Errorf("getting config field %q: %w", key, err)
	}
	return nil
}

// New runs "<executable> [args...] start --parent-pid <pid>" with the scope as working directory.
// The executable is looked up on the PATH of the daemon environment rather than the PATH of this process.
func (f *factory) New(ctx context.Context, scope string) (Session, error) {
	env := f.environment.Environment(ctx)
	executable := f.currentExecutable()

	path, err := lookPath(executable, env["PATH"], scope)
	if err != nil {
		f.stats.Counter("spawn_failures").Inc(1)
		f.logger.Warnw("importjs executable not found", "executable", executable, "PATH", env["PATH"])
		return nil, &bridgeerrors.ExecutableNotFoundError{Executable: executable, Err: err}
	}

	args := make([]string, 0, len(f.args)+3)
	args = append(args, f.args...)
	args = append(args, "start", "--parent-pid", strconv.Itoa(f.parentPid))

	cmd := exec.Command(path, args...)
	cmd.Dir = scope
	cmd.Env = env.Environ()

	proc, err := f.start(cmd)
	if err != nil {
		f.stats.Counter("spawn_failures").Inc(1)
		return nil, spawnError(executable, path, err)
	}
	f.stats.Counter("spawns").Inc(1)
	f.logger.Infow("started importjs daemon", "scope", scope, "pid", proc.Pid(), "executable", path)

	return newSession(scope, proc, sessionOptions{
		logger:         f.logger,
		stats:          f.stats,
		clock:          f.clock,
		requestTimeout: f.requestTimeout,
		stopTimeout:    f.stopTimeout,
		output:         f.output,
	}), nil
}

func (f *factory) currentExecutable() string {
	if f.settings != nil {
		if e := f.settings.Current().Executable; e != "" {
			return e
		}
	}
	return f.executable
}

// spawnError classifies a start failure: a missing executable gets remediation text, anything else is reported as is.
func spawnError(executable, path string, err error) error {
	var pathErr *fs.PathError
	if errors.Is(err, exec.ErrNotFound) || (errors.As(err, &pathErr) && pathErr.Path == path && errors.Is(err, fs.ErrNotExist)) {
		return &bridgeerrors.ExecutableNotFoundError{Executable: executable, Err: err}
	}
	return &bridgeerrors.SpawnError{Executable: executable, Err: err}
}

// lookPath searches pathEnv for name. Names containing a separator are resolved against dir.
func lookPath(name, pathEnv, dir string) (string, error) {
	if strings.ContainsRune(name, '/') || strings.ContainsRune(name, os.PathSeparator) {
		if !filepath.IsAbs(name) {
			name = filepath.Join(dir, name)
		}
		if err := findExecutable(name); err != nil {
			return "", err
		}
		return name, nil
	}

	for _, d := range filepath.SplitList(pathEnv) {
		if d == "" {
			continue
		}
		candidate := filepath.Join(d, name)
		if findExecutable(candidate) == nil {
			return candidate, nil
		}
	}
	if runtime.GOOS == "windows" {
		// PATHEXT handling.
		return exec.LookPath(name)
	}
	return "", &exec.Error{Name: name, Err: exec.ErrNotFound}
}

func findExecutable(file string) error {
	info, err := os.Stat(file)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return &fs.PathError{Op: "exec", Path: file, Err: errors.New("is a directory")}
	}
	if runtime.GOOS != "windows" && info.Mode()&0o111 == 0 {
		return &fs.PathError{Op: "exec", Path: file, Err: fs.ErrPermission}
	}
	return nil
}
