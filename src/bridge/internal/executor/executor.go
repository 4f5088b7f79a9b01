// Package executor runs child processes on behalf of the bridge with uniform logging.
package executor

import (
	"bytes"
	"os/exec"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module provides an Executor logging to the application logger.
var Module = fx.Options(
	fx.Provide(func(logger *zap.SugaredLogger) Executor {
		return NewExecutor(WithLogger(logger.Named("exec")))
	}),
)

// Executor runs *exec.Cmd values. Tests swap the run and start functions to avoid real processes.
type Executor interface {
	// Run executes cmd to completion and returns its captured output. cmd.Stdout and cmd.Stderr are replaced.
	Run(cmd *exec.Cmd) (stdout string, stderr string, exitCode int, err error)
	// Start launches cmd without waiting for it. The caller owns the pipes of cmd and must Wait on it.
	Start(cmd *exec.Cmd) error
}

type executor struct {
	logger *zap.SugaredLogger
	run    func(*exec.Cmd) error
	start  func(*exec.Cmd) error
}

// Option customizes an Executor.
type Option func(*executor)

// WithLogger replaces the default no-op logger.
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(e *executor) {
		e.logger = logger
	}
}

// WithRunFunc replaces (*exec.Cmd).Run. A nil func makes Run a logged no-op.
func WithRunFunc(run func(*exec.Cmd) error) Option {
	return func(e *executor) {
		e.run = run
	}
}

// WithStartFunc replaces (*exec.Cmd).Start. A nil func makes Start a logged no-op.
func WithStartFunc(start func(*exec.Cmd) error) Option {
	return func(e *executor) {
		e.start = start
	}
}

// NewExecutor returns an Executor backed by os/exec.
func NewExecutor(opts ...Option) Executor {
	e := &executor{
		logger: zap.NewNop().Sugar(),
		run:    (*exec.Cmd).Run,
		start:  (*exec.Cmd).Start,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *executor) Run(cmd *exec.Cmd) (string, string, int, error) {
	e.logger.Infow("running", commandFields(cmd)...)
	if e.run == nil {
		e.logger.Warn("no run func, command skipped")
		return "", "", 0, nil
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	began := time.Now()
	err := e.run(cmd)
	exitCode := cmd.ProcessState.ExitCode()
	e.logger.Debugw("finished", "path", cmd.Path, "exit_code", exitCode, "duration", time.Since(began), "error", err)
	return stdout.String(), stderr.String(), exitCode, err
}

func (e *executor) Start(cmd *exec.Cmd) error {
	e.logger.Infow("starting", commandFields(cmd)...)
	if e.start == nil {
		e.logger.Warn("no start func, command skipped")
		return nil
	}

	if err := e.start(cmd); err != nil {
		return err
	}
	if cmd.Process != nil {
		e.logger.Infow("started", "path", cmd.Path, "pid", cmd.Process.Pid)
	}
	return nil
}

func commandFields(cmd *exec.Cmd) []interface{} {
	var args []string
	if len(cmd.Args) > 1 {
		// Args[0] repeats the command name.
		args = cmd.Args[1:]
	}
	return []interface{}{"path", cmd.Path, "dir", cmd.Dir, "args", args}
}
