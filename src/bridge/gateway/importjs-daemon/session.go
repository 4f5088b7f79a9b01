package importjsd

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"time"

	"github.com/importjs/importjs-bridge/src/bridge/internal/clock"
	bridgeerrors "github.com/importjs/importjs-bridge/src/bridge/internal/errors"
	tally "github.com/uber-go/tally/v4"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Status is the lifecycle state of a daemon session.
type Status int32

const (
	// StatusUnstarted means the process has not been spawned yet.
	StatusUnstarted Status = iota
	// StatusStarting means the process is running and its startup banner has not been consumed.
	StatusStarting
	// StatusReady means the banner has been consumed and responses map one to one onto requests.
	StatusReady
	// StatusTerminated means the session was shut down on request.
	StatusTerminated
	// StatusCrashed means a stream failed or the daemon exited on its own.
	StatusCrashed
)

func (s Status) String() string {
	switch s {
	case StatusUnstarted:
		return "unstarted"
	case StatusStarting:
		return "starting"
	case StatusReady:
		return "ready"
	case StatusTerminated:
		return "terminated"
	case StatusCrashed:
		return "crashed"
	default:
		return "unknown"
	}
}

// Session is one running import-js daemon serving a single scope.
type Session interface {
	// ExecuteQueued writes one request line and registers cb for its response. It does not block on the response.
	// A nil payload registers cb without writing anything. cb may be nil to discard the response.
	ExecuteQueued(payload []byte, cb Callback) error
	// Execute writes one request line and waits for its response.
	Execute(ctx context.Context, payload []byte) (string, error)
	// Scope is the directory the daemon was started in.
	Scope() string
	// Pid is the process id of the daemon.
	Pid() int
	Status() Status
	// Shutdown terminates the daemon and abandons pending callbacks. It is safe to call more than once.
	Shutdown(ctx context.Context) error
	// Done is closed once the session is terminated.
	Done() <-chan struct{}
}

type sessionOptions struct {
	logger         *zap.SugaredLogger
	stats          tally.Scope
	clock          clock.Clock
	requestTimeout time.Duration
	stopTimeout    time.Duration
	// output receives the daemon's stderr lines, when set.
	output io.Writer
}

type session struct {
	scope string
	proc  process
	opts  sessionOptions

	// writeMu is held from a stdin write until its callback is queued, so write order equals callback order.
	// It is never taken by Shutdown, which closes stdin to unblock a stuck write.
	writeMu sync.Mutex

	// mu guards status, commands and polling. It is never held across I/O.
	mu       sync.Mutex
	status   Status
	commands commandQueue
	polling  bool

	lines        *lineQueue
	outputClosed chan struct{}
	exited       chan struct{}
	done         chan struct{}
	wg           sync.WaitGroup
}

// newSession wraps a started process and queues the discard of its startup banner.
func newSession(scope string, proc process, opts sessionOptions) *session {
	s := &session{
		scope:        scope,
		proc:         proc,
		opts:         opts,
		status:       StatusStarting,
		lines:        newLineQueue(),
		outputClosed: make(chan struct{}),
		exited:       make(chan struct{}),
		done:         make(chan struct{}),
	}
	s.opts.logger = opts.logger.With("scope", scope, "pid", proc.Pid())

	s.wg.Add(3)
	go s.readOutput()
	go s.drainStderr()
	go s.monitor()

	// The daemon prints one line when it starts which does not answer any request.
	s.ExecuteQueued(nil, nil)
	return s
}

func (s *session) Scope() string { return s.scope }

func (s *session) Pid() int { return s.proc.Pid() }

func (s *session) Done() <-chan struct{} { return s.done }

func (s *session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *session) ExecuteQueued(payload []byte, cb Callback) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	err := s.closedErrLocked()
	s.mu.Unlock()
	if err != nil {
		return err
	}

	if payload != nil {
		if _, err := s.proc.Stdin().Write(payload); err != nil {
			s.mu.Lock()
			terminated := s.status == StatusTerminated
			if !terminated {
				s.status = StatusCrashed
			}
			s.mu.Unlock()
			if terminated {
				return bridgeerrors.ErrSessionTerminated
			}

			s.opts.stats.Counter("write_errors").Inc(1)
			s.opts.logger.Warnw("writing to importjs daemon", "error", err)
			return &bridgeerrors.PipeError{Op: "write", Err: err}
		}
		s.opts.stats.Counter("commands_written").Inc(1)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// The daemon may have gone away while the write was in flight.
	if err := s.closedErrLocked(); err != nil {
		return err
	}
	s.commands.push(cb)
	if !s.polling {
		s.polling = true
		s.wg.Add(1)
		go s.dispatch()
	}
	return nil
}

// closedErrLocked returns why no more requests are accepted, if so. It must be called with mu held.
func (s *session) closedErrLocked() error {
	switch s.status {
	case StatusTerminated:
		return bridgeerrors.ErrSessionTerminated
	case StatusCrashed:
		return &bridgeerrors.PipeError{Op: "write", Err: bridgeerrors.ErrDaemonExited}
	}
	return nil
}

type reply struct {
	line string
	err  error
}

// Execute gives up on ctx even while the request is still being written, so a daemon that stopped reading
// its input cannot block the caller. The write itself is released by Shutdown.
func (s *session) Execute(ctx context.Context, payload []byte) (string, error) {
	if _, ok := ctx.Deadline(); !ok && s.opts.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.requestTimeout)
		defer cancel()
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	// Both buffered so that a late write or response after a timeout does not block anyone.
	result := make(chan reply, 1)
	written := make(chan error, 1)
	go func() {
		written <- s.ExecuteQueued(payload, func(line string, err error) {
			result <- reply{line: line, err: err}
		})
	}()

	for {
		select {
		case err := <-written:
			if err != nil {
				return "", err
			}
			written = nil
		case r := <-result:
			return r.line, r.err
		case <-ctx.Done():
			s.opts.stats.Counter("timeouts").Inc(1)
			return "", ctx.Err()
		case <-s.done:
			return "", bridgeerrors.ErrSessionTerminated
		}
	}
}

// dispatch hands queued output lines to queued callbacks in order. It runs while callbacks are pending and
// exits as soon as the command queue is empty.
func (s *session) dispatch() {
	defer s.wg.Done()

	for {
		s.mu.Lock()
		if s.commands.len() == 0 || s.status == StatusTerminated {
			s.polling = false
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		l, ok := s.lines.tryPop()
		if !ok {
			select {
			case <-s.lines.ready:
			case <-s.outputClosed:
				if s.lines.len() == 0 {
					s.failPending(bridgeerrors.ErrDaemonExited)
				}
			case <-s.done:
			}
			continue
		}

		s.mu.Lock()
		cb, ok := s.commands.pop()
		s.mu.Unlock()
		if ok {
			s.deliver(cb, l)
		}
	}
}

func (s *session) deliver(cb Callback, l outputLine) {
	if cb == nil {
		s.mu.Lock()
		if s.status == StatusStarting {
			s.status = StatusReady
		}
		s.mu.Unlock()
		s.opts.logger.Debugw("discarded importjs daemon output", "line", l.text)
		return
	}
	if l.err != nil {
		s.opts.stats.Counter("decode_errors").Inc(1)
	}
	s.opts.stats.Counter("responses_delivered").Inc(1)
	cb(l.text, l.err)
}

// failPending marks the session crashed and fails every callback still waiting for a response.
func (s *session) failPending(err error) {
	s.mu.Lock()
	if s.status != StatusTerminated {
		s.status = StatusCrashed
	}
	pending := s.commands.drain()
	s.mu.Unlock()

	if len(pending) > 0 {
		s.opts.logger.Warnw("importjs daemon exited with requests pending", "pending", len(pending))
	}
	for _, cb := range pending {
		if cb != nil {
			cb("", err)
		}
	}
}

func (s *session) readOutput() {
	defer s.wg.Done()
	defer close(s.outputClosed)

	if err := pump(s.proc.Stdout(), s.lines, s.opts.logger); err != nil {
		s.opts.stats.Counter("read_errors").Inc(1)
	}

	s.mu.Lock()
	if s.status != StatusTerminated {
		s.status = StatusCrashed
	}
	s.mu.Unlock()
}

func (s *session) drainStderr() {
	defer s.wg.Done()

	r := s.proc.Stderr()
	defer r.Close()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), _pumpBufferSize)
	for scanner.Scan() {
		s.opts.logger.Debugw("importjs daemon stderr", "line", scanner.Text())
		if s.opts.output != nil {
			io.WriteString(s.opts.output, scanner.Text()+"\n")
		}
	}
	// The remaining stderr is discarded once a line exceeds the buffer.
	if scanner.Err() != nil {
		io.Copy(io.Discard, r)
	}
}

// monitor reaps the process once its output is exhausted.
func (s *session) monitor() {
	defer s.wg.Done()
	defer close(s.exited)

	<-s.outputClosed
	err := s.proc.Wait()

	select {
	case <-s.done:
		s.opts.logger.Debugw("importjs daemon exited", "error", err)
	default:
		s.opts.stats.Counter("crashes").Inc(1)
		s.opts.logger.Warnw("importjs daemon exited unexpectedly", "error", err)
	}
}

func (s *session) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if s.status == StatusTerminated {
		s.mu.Unlock()
		return nil
	}
	s.status = StatusTerminated
	abandoned := s.commands.drain()
	close(s.done)
	s.mu.Unlock()

	s.opts.logger.Infow("stopping importjs daemon", "abandoned", len(abandoned))

	// Closing stdin without writeMu fails a write that is blocked on a daemon no longer reading its input.
	var err error
	if closeErr := s.proc.Stdin().Close(); closeErr != nil && !errors.Is(closeErr, os.ErrClosed) {
		err = multierr.Append(err, closeErr)
	}
	err = multierr.Append(err, s.proc.Terminate())

	select {
	case <-s.exited:
	case <-s.opts.clock.After(s.opts.stopTimeout):
		s.opts.logger.Warnw("importjs daemon did not exit in time, killing it", "timeout", s.opts.stopTimeout)
		err = multierr.Append(err, s.proc.Kill())
	case <-ctx.Done():
		err = multierr.Append(err, s.proc.Kill())
	}

	select {
	case <-s.exited:
		s.wg.Wait()
	case <-ctx.Done():
		err = multierr.Append(err, ctx.Err())
	}
	return err
}
