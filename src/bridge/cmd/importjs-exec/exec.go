package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/importjs/importjs-bridge/src/bridge/entity"
	importjsd "github.com/importjs/importjs-bridge/src/bridge/gateway/importjs-daemon"
	"github.com/importjs/importjs-bridge/src/bridge/internal/core"
	"github.com/importjs/importjs-bridge/src/bridge/internal/environment"
	"github.com/importjs/importjs-bridge/src/bridge/internal/executor"
	"github.com/importjs/importjs-bridge/src/bridge/internal/fs"
	"github.com/importjs/importjs-bridge/src/bridge/internal/settings"
	workspaceutils "github.com/importjs/importjs-bridge/src/bridge/internal/workspace-utils"
	"github.com/importjs/importjs-bridge/src/bridge/mapper"
	"github.com/importjs/importjs-bridge/src/bridge/repository/daemon"
	tally "github.com/uber-go/tally/v4"
	"go.uber.org/config"
	"go.uber.org/fx"
)

const (
	_defaultTimeout = 30 * time.Second
	_stopTimeout    = 5 * time.Second
)

type options struct {
	word    string
	imports string
	scope   string
	timeout time.Duration
	verbose bool
}

// buildCommand reads file and returns the daemon command for it.
func buildCommand(opts *options, command string, file string) (entity.Command, error) {
	path, err := filepath.Abs(file)
	if err != nil {
		return entity.Command{}, fmt.Errorf("resolving %s: %w", file, err)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return entity.Command{}, fmt.Errorf("reading %s: %w", file, err)
	}

	cmd := entity.Command{
		Command:     command,
		PathToFile:  path,
		FileContent: string(content),
	}

	switch command {
	case entity.CommandWord, entity.CommandGoto:
		if opts.word == "" {
			return entity.Command{}, fmt.Errorf("%s needs --word", command)
		}
		cmd.CommandArg = opts.word
	case entity.CommandAdd:
		if opts.imports == "" {
			return entity.Command{}, fmt.Errorf("%s needs --imports", command)
		}
		var imports map[string]json.RawMessage
		if err := json.Unmarshal([]byte(opts.imports), &imports); err != nil {
			return entity.Command{}, fmt.Errorf("decoding --imports: %w", err)
		}
		if len(imports) == 0 {
			return entity.Command{}, fmt.Errorf("%s needs at least one import", command)
		}
		cmd.CommandArg = imports
	}
	return cmd, nil
}

// configOverride sends logs to stderr so stdout only carries the response line.
// The daemon's own stderr is not kept in an output file for a single command.
func configOverride(verbose bool) func(cfg config.Provider) (config.Provider, error) {
	level := "warn"
	if verbose {
		level = "debug"
	}
	return func(cfg config.Provider) (config.Provider, error) {
		return config.NewYAML(
			config.Static(cfg.Get(config.Root).Value()),
			config.Static(map[string]interface{}{
				"logging": map[string]interface{}{
					"level":       level,
					"encoding":    "console",
					"outputPaths": []string{"stderr"},
				},
				"daemon": map[string]interface{}{
					"outputLog": false,
				},
			}),
		)
	}
}

func run(ctx context.Context, opts *options, command string, file string, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cmd, err := buildCommand(opts, command, file)
	if err != nil {
		return err
	}
	payload, err := mapper.CommandToPayload(cmd)
	if err != nil {
		return err
	}

	var (
		registry  daemon.Registry
		workspace workspaceutils.WorkspaceUtils
	)
	app := fx.New(
		core.ConfigModule,
		core.LoggerModule,
		executor.Module,
		environment.Module,
		settings.Module,
		importjsd.Module,
		daemon.Module,
		fs.Module,
		workspaceutils.Module,
		fx.Provide(func() tally.Scope { return tally.NoopScope }),
		fx.Decorate(configOverride(opts.verbose)),
		fx.Populate(&registry, &workspace),
		fx.NopLogger,
	)
	if err := app.Err(); err != nil {
		return err
	}

	startCtx, cancel := context.WithTimeout(ctx, app.StartTimeout())
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), _stopTimeout)
		defer cancel()
		_ = app.Stop(stopCtx)
	}()

	scope := opts.scope
	if scope == "" {
		scope = workspace.ProjectRoot(ctx, nil, cmd.PathToFile)
	}

	execCtx, cancelExec := context.WithTimeout(ctx, opts.timeout)
	defer cancelExec()
	line, err := registry.Execute(execCtx, scope, payload)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintln(out, line); err != nil {
		return err
	}
	if resp, err := mapper.LineToResponse(line); err == nil && resp.Error != "" {
		return fmt.Errorf("importjs: %s", resp.Error)
	}
	return nil
}
