package importjsd

import "sync"

// Callback receives the daemon's response line for one request, or the error that prevented one.
type Callback func(line string, err error)

// outputLine is one line read from the daemon. err is set when the line could not be decoded as text.
type outputLine struct {
	text string
	err  error
}

// lineQueue is the read queue between the output pump (producer) and the dispatcher (consumer).
// push never blocks; ready is signalled after every push so the consumer can wait without polling.
type lineQueue struct {
	mu    sync.Mutex
	items []outputLine
	ready chan struct{}
}

func newLineQueue() *lineQueue {
	return &lineQueue{ready: make(chan struct{}, 1)}
}

func (q *lineQueue) push(l outputLine) {
	q.mu.Lock()
	q.items = append(q.items, l)
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// tryPop removes the oldest line without blocking.
func (q *lineQueue) tryPop() (outputLine, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return outputLine{}, false
	}
	l := q.items[0]
	q.items[0] = outputLine{}
	q.items = q.items[1:]
	return l, true
}

func (q *lineQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// commandQueue holds one callback per request written to the daemon, in write order.
// It is not synchronized on its own; the session guards it together with the input stream.
type commandQueue struct {
	items []Callback
}

func (q *commandQueue) push(cb Callback) {
	q.items = append(q.items, cb)
}

func (q *commandQueue) pop() (Callback, bool) {
	if len(q.items) == 0 {
		return nil, false
	}
	cb := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	return cb, true
}

func (q *commandQueue) len() int {
	return len(q.items)
}

// drain removes and returns every pending callback.
func (q *commandQueue) drain() []Callback {
	items := q.items
	q.items = nil
	return items
}
