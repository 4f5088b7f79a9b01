package importjsd

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/importjs/importjs-bridge/src/bridge/internal/clock"
	bridgeerrors "github.com/importjs/importjs-bridge/src/bridge/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tally "github.com/uber-go/tally/v4"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const _banner = "ImportJS (v5.1.0) DAEMON active. Logs will go to: /tmp/importjs.log"

func testOptions() sessionOptions {
	return sessionOptions{
		logger:      zap.NewNop().Sugar(),
		stats:       tally.NoopScope,
		clock:       clock.New(),
		stopTimeout: time.Second,
	}
}

// recorder collects callback invocations in order.
type recorder struct {
	mu    sync.Mutex
	calls []reply
}

func (r *recorder) callback(tag string) Callback {
	return func(line string, err error) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.calls = append(r.calls, reply{line: tag + ":" + line, err: err})
	}
}

func (r *recorder) get() []reply {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]reply(nil), r.calls...)
}

func (r *recorder) waitFor(t *testing.T, n int) []reply {
	t.Helper()
	require.Eventually(t, func() bool { return len(r.get()) >= n }, 5*time.Second, time.Millisecond)
	return r.get()
}

func shutdown(t *testing.T, s Session) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, s.Shutdown(ctx))
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "unstarted", StatusUnstarted.String())
	assert.Equal(t, "starting", StatusStarting.String())
	assert.Equal(t, "ready", StatusReady.String())
	assert.Equal(t, "terminated", StatusTerminated.String())
	assert.Equal(t, "crashed", StatusCrashed.String())
	assert.Equal(t, "unknown", Status(42).String())
}

func TestSessionBanner(t *testing.T) {
	t.Run("banner before any request", func(t *testing.T) {
		p := newFakeProcess()
		s := newSession("/project", p, testOptions())
		defer shutdown(t, s)

		assert.Equal(t, StatusStarting, s.Status())
		p.emit(t, _banner)
		assert.Eventually(t, func() bool { return s.Status() == StatusReady }, 5*time.Second, time.Millisecond)

		rec := &recorder{}
		require.NoError(t, s.ExecuteQueued([]byte(`{"command":"fix"}`+"\n"), rec.callback("fix")))
		assert.Equal(t, `{"command":"fix"}`, p.nextRequest(t))
		p.emit(t, `{"fileContent":"x"}`)

		calls := rec.waitFor(t, 1)
		assert.Equal(t, []reply{{line: `fix:{"fileContent":"x"}`}}, calls)
	})

	t.Run("banner arriving after the first request", func(t *testing.T) {
		p := newFakeProcess()
		s := newSession("/project", p, testOptions())
		defer shutdown(t, s)

		rec := &recorder{}
		require.NoError(t, s.ExecuteQueued([]byte("{}\n"), rec.callback("first")))
		p.nextRequest(t)

		p.emit(t, _banner)
		p.emit(t, `{"messages":["ok"]}`)

		calls := rec.waitFor(t, 1)
		assert.Equal(t, `first:{"messages":["ok"]}`, calls[0].line, "the banner is never delivered to a caller")
		assert.Equal(t, StatusReady, s.Status())
	})
}

func TestSessionFIFO(t *testing.T) {
	p := newFakeProcess()
	s := newSession("/project", p, testOptions())
	defer shutdown(t, s)
	p.emit(t, _banner)

	rec := &recorder{}
	for _, tag := range []string{"a", "b", "c"} {
		require.NoError(t, s.ExecuteQueued([]byte(tag+"\n"), rec.callback(tag)))
	}
	assert.Equal(t, "a", p.nextRequest(t))
	assert.Equal(t, "b", p.nextRequest(t))
	assert.Equal(t, "c", p.nextRequest(t))

	p.emit(t, "1")
	p.emit(t, "2")
	p.emit(t, "3")

	calls := rec.waitFor(t, 3)
	assert.Equal(t, []reply{{line: "a:1"}, {line: "b:2"}, {line: "c:3"}}, calls)

	// The dispatcher stops once nothing is pending.
	assert.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return !s.polling
	}, 5*time.Second, time.Millisecond)
}

func TestSessionConcurrentCallers(t *testing.T) {
	p := newFakeProcess()
	s := newSession("/project", p, testOptions())
	defer shutdown(t, s)
	p.emit(t, _banner)

	// Echo every request back so each caller must receive its own payload.
	go func() {
		for {
			select {
			case r := <-p.requests:
				if _, err := p.stdoutW.Write([]byte(r + "\n")); err != nil {
					return
				}
			case <-p.readerDone:
				return
			}
		}
	}()

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			payload := string(rune('A' + i))
			line, err := s.Execute(context.Background(), []byte(payload+"\n"))
			if err != nil {
				errs <- err
				return
			}
			if line != payload {
				errs <- errors.New("got " + line + " for " + payload)
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
}

func TestSessionDecodeError(t *testing.T) {
	p := newFakeProcess()
	s := newSession("/project", p, testOptions())
	defer shutdown(t, s)
	p.emit(t, _banner)

	rec := &recorder{}
	require.NoError(t, s.ExecuteQueued([]byte("1\n"), rec.callback("bad")))
	require.NoError(t, s.ExecuteQueued([]byte("2\n"), rec.callback("good")))

	p.emit(t, "\xff\xfe")
	p.emit(t, "fine")

	calls := rec.waitFor(t, 2)
	var decodeErr *bridgeerrors.DecodeError
	assert.ErrorAs(t, calls[0].err, &decodeErr)
	assert.Equal(t, reply{line: "good:fine"}, calls[1])
}

func TestSessionCrash(t *testing.T) {
	stats := tally.NewTestScope("", nil)
	opts := testOptions()
	opts.stats = stats

	p := newFakeProcess()
	s := newSession("/project", p, opts)
	defer shutdown(t, s)
	p.emit(t, _banner)

	rec := &recorder{}
	require.NoError(t, s.ExecuteQueued([]byte("1\n"), rec.callback("answered")))
	require.NoError(t, s.ExecuteQueued([]byte("2\n"), rec.callback("lost")))
	p.emit(t, "one")
	p.exit()

	calls := rec.waitFor(t, 2)
	assert.Equal(t, reply{line: "answered:one"}, calls[0])
	assert.Equal(t, "lost:", calls[1].line)
	assert.ErrorIs(t, calls[1].err, bridgeerrors.ErrDaemonExited)

	assert.Eventually(t, func() bool { return s.Status() == StatusCrashed }, 5*time.Second, time.Millisecond)
	err := s.ExecuteQueued([]byte("3\n"), rec.callback("after"))
	assert.True(t, bridgeerrors.IsRetryable(err))

	assert.Eventually(t, func() bool { return counter(stats, "crashes") == 1 }, 5*time.Second, time.Millisecond)
	assert.Equal(t, int64(2), counter(stats, "commands_written"))
}

func TestSessionWriteFailure(t *testing.T) {
	p := newFakeProcess()
	s := newSession("/project", p, testOptions())
	defer shutdown(t, s)

	p.stdinR.Close()
	err := s.ExecuteQueued([]byte("1\n"), func(string, error) {
		assert.Fail(t, "callback of a failed write must not be registered")
	})

	var pipeErr *bridgeerrors.PipeError
	require.ErrorAs(t, err, &pipeErr)
	assert.Equal(t, "write", pipeErr.Op)
	assert.Equal(t, StatusCrashed, s.Status())
}

func TestSessionShutdown(t *testing.T) {
	p := newFakeProcess()
	s := newSession("/project", p, testOptions())
	p.emit(t, _banner)

	abandoned := &recorder{}
	require.NoError(t, s.ExecuteQueued([]byte("1\n"), abandoned.callback("abandoned")))
	p.nextRequest(t)

	blocked := make(chan error, 1)
	go func() {
		_, err := s.Execute(context.Background(), []byte("2\n"))
		blocked <- err
	}()
	p.nextRequest(t)

	shutdown(t, s)

	select {
	case err := <-blocked:
		assert.ErrorIs(t, err, bridgeerrors.ErrSessionTerminated)
	case <-time.After(5 * time.Second):
		require.FailNow(t, "blocked caller was not released")
	}
	assert.Empty(t, abandoned.get(), "shutdown abandons callbacks without invoking them")
	assert.Equal(t, StatusTerminated, s.Status())

	select {
	case <-s.Done():
	default:
		assert.Fail(t, "Done must be closed")
	}

	assert.NoError(t, s.Shutdown(context.Background()), "shutdown is idempotent")
	assert.ErrorIs(t, s.ExecuteQueued([]byte("3\n"), nil), bridgeerrors.ErrSessionTerminated)
	assert.False(t, p.wasKilled())
}

func TestSessionShutdownKillsAfterTimeout(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	opts := testOptions()
	opts.logger = zap.New(core).Sugar()
	opts.stopTimeout = 10 * time.Millisecond

	p := newFakeProcess()
	p.ignoreTerminate = true
	s := newSession("/project", p, opts)

	shutdown(t, s)
	assert.True(t, p.wasKilled())
	assert.Equal(t, 1, logs.FilterMessage("importjs daemon did not exit in time, killing it").Len())
}

func TestSessionExecuteTimeout(t *testing.T) {
	opts := testOptions()
	opts.requestTimeout = 20 * time.Millisecond

	p := newFakeProcess()
	s := newSession("/project", p, opts)
	defer shutdown(t, s)
	p.emit(t, _banner)

	_, err := s.Execute(context.Background(), []byte("slow\n"))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	p.nextRequest(t)

	// An explicit deadline takes precedence over the configured request timeout.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	result := make(chan string, 1)
	go func() {
		line, _ := s.Execute(ctx, []byte("fast\n"))
		result <- line
	}()
	p.nextRequest(t)

	// The late response still occupies the slot of the request that timed out.
	p.emit(t, "late")
	p.emit(t, "fresh")

	select {
	case line := <-result:
		assert.Equal(t, "fresh", line)
	case <-time.After(5 * time.Second):
		require.FailNow(t, "no response")
	}
}

func TestSessionHungDaemon(t *testing.T) {
	p := newHungProcess()
	s := newSession("/project", p, testOptions())

	executed := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()
		_, err := s.Execute(ctx, []byte(`{"command":"fix","fileContent":"..."}`+"\n"))
		executed <- err
	}()

	select {
	case err := <-executed:
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	case <-time.After(5 * time.Second):
		require.FailNow(t, "Execute ignored its deadline while the write was blocked")
	}

	stopped := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		stopped <- s.Shutdown(ctx)
	}()

	select {
	case err := <-stopped:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		require.FailNow(t, "Shutdown blocked behind a stuck write")
	}
	assert.Equal(t, StatusTerminated, s.Status())
	assert.ErrorIs(t, s.ExecuteQueued([]byte("{}\n"), nil), bridgeerrors.ErrSessionTerminated)
}

func TestSessionStatusWhileWriteBlocked(t *testing.T) {
	p := newHungProcess()
	s := newSession("/project", p, testOptions())
	defer shutdown(t, s)

	go s.ExecuteQueued([]byte("{}\n"), nil)

	// Status and Done only need the short lock, never the one held by the stuck write.
	status := make(chan Status, 1)
	go func() {
		time.Sleep(20 * time.Millisecond)
		status <- s.Status()
	}()
	select {
	case got := <-status:
		assert.Equal(t, StatusStarting, got)
	case <-time.After(5 * time.Second):
		require.FailNow(t, "Status blocked behind a stuck write")
	}
}

func TestSessionExecuteContextCancelled(t *testing.T) {
	p := newFakeProcess()
	s := newSession("/project", p, testOptions())
	defer shutdown(t, s)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Execute(ctx, []byte("x\n"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSessionStderrIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	opts := testOptions()
	opts.logger = zap.New(core).Sugar()

	p := newFakeProcess()
	s := newSession("/project", p, opts)
	defer shutdown(t, s)

	_, err := p.stderrW.Write([]byte("warning: deprecated config\n"))
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return logs.FilterMessage("importjs daemon stderr").FilterField(zap.String("line", "warning: deprecated config")).Len() == 1
	}, 5*time.Second, time.Millisecond)
}

// syncBuffer is a bytes.Buffer safe for the stderr goroutine and the test to share.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestSessionStderrOutput(t *testing.T) {
	out := &syncBuffer{}
	opts := testOptions()
	opts.output = out

	p := newFakeProcess()
	s := newSession("/project", p, opts)
	defer shutdown(t, s)

	_, err := p.stderrW.Write([]byte("first\nsecond\n"))
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return out.String() == "first\nsecond\n"
	}, 5*time.Second, time.Millisecond)
}

func counter(scope tally.TestScope, name string) int64 {
	var total int64
	for _, c := range scope.Snapshot().Counters() {
		if c.Name() == name {
			total += c.Value()
		}
	}
	return total
}
