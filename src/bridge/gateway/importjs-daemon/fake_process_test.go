package importjsd

import (
	"bufio"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeProcess is an in-memory daemon. Requests written to its stdin are collected on requests,
// responses are produced with emit.
type fakeProcess struct {
	stdinR, stdoutR, stderrR *io.PipeReader
	stdinW, stdoutW, stderrW *io.PipeWriter

	requests chan string

	// ignoreTerminate keeps the process running after Terminate, so only Kill stops it.
	ignoreTerminate bool

	mu         sync.Mutex
	terminated bool
	killed     bool
	exitOnce   sync.Once
	exited     chan struct{}
	readerDone chan struct{}
}

func newPipes() *fakeProcess {
	p := &fakeProcess{
		requests:   make(chan string, 100),
		exited:     make(chan struct{}),
		readerDone: make(chan struct{}),
	}
	p.stdinR, p.stdinW = io.Pipe()
	p.stdoutR, p.stdoutW = io.Pipe()
	p.stderrR, p.stderrW = io.Pipe()
	return p
}

// newHungProcess returns a daemon that never reads its stdin, so every write to it blocks.
func newHungProcess() *fakeProcess {
	p := newPipes()
	go func() {
		<-p.exited
		close(p.readerDone)
	}()
	return p
}

func newFakeProcess() *fakeProcess {
	p := newPipes()
	go func() {
		defer close(p.readerDone)
		scanner := bufio.NewScanner(p.stdinR)
		for scanner.Scan() {
			p.requests <- scanner.Text()
		}
	}()
	return p
}

func (p *fakeProcess) Stdin() io.WriteCloser { return p.stdinW }
func (p *fakeProcess) Stdout() io.ReadCloser { return p.stdoutR }
func (p *fakeProcess) Stderr() io.ReadCloser { return p.stderrR }
func (p *fakeProcess) Pid() int { return 4242 }

func (p *fakeProcess) Terminate() error {
	p.mu.Lock()
	p.terminated = true
	ignore := p.ignoreTerminate
	p.mu.Unlock()

	if !ignore {
		p.exit()
	}
	return nil
}

func (p *fakeProcess) Kill() error {
	p.mu.Lock()
	p.killed = true
	p.mu.Unlock()

	p.exit()
	return nil
}

func (p *fakeProcess) Wait() error {
	<-p.readerDone
	return nil
}

// exit simulates the daemon going away: its output ends and its input is no longer read.
func (p *fakeProcess) exit() {
	p.exitOnce.Do(func() {
		p.stdoutW.Close()
		p.stderrW.Close()
		p.stdinR.Close()
		close(p.exited)
	})
}

func (p *fakeProcess) wasKilled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.killed
}

func (p *fakeProcess) emit(t *testing.T, line string) {
	t.Helper()
	_, err := p.stdoutW.Write([]byte(line + "\n"))
	require.NoError(t, err)
}

func (p *fakeProcess) nextRequest(t *testing.T) string {
	t.Helper()
	select {
	case r := <-p.requests:
		return r
	case <-time.After(5 * time.Second):
		require.FailNow(t, "no request written to the daemon")
		return ""
	}
}
