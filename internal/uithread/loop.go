// Package uithread provides the single UI-affine executor that owns all
// surface state. Work from other goroutines is marshaled onto it with Post;
// tasks run one at a time in submission order.
package uithread

import (
	"sync"
	"time"

	. "github.com/roelfdiedericks/inappbrowser/internal/logging"
)

type loopError string

func (e loopError) Error() string { return string(e) }

const (
	ErrStopped loopError = "ui loop stopped"
	ErrTimeout loopError = "ui loop call timed out"
)

// DefaultCallTimeout bounds Call when the loop is wedged.
const DefaultCallTimeout = 30 * time.Second

type task struct {
	name string
	fn   func()
}

// Loop is a single goroutine draining an unbounded FIFO of tasks.
type Loop struct {
	mu      sync.Mutex
	queue   []task
	wake    chan struct{}
	stopped bool
	done    chan struct{}
	once    sync.Once

	callTimeout time.Duration
}

// New creates a loop. Start must be called before tasks run.
func New() *Loop {
	return &Loop{
		wake:        make(chan struct{}, 1),
		done:        make(chan struct{}),
		callTimeout: DefaultCallTimeout,
	}
}

// Start launches the dispatcher goroutine. Safe to call more than once.
func (l *Loop) Start() *Loop {
	l.once.Do(func() {
		go l.run()
		L_debug("uithread: loop started")
	})
	return l
}

// Post queues fn and returns immediately. Returns ErrStopped once the loop
// has been stopped.
func (l *Loop) Post(name string, fn func()) error {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		L_warn("uithread: task dropped (loop stopped)", "task", name)
		return ErrStopped
	}
	l.queue = append(l.queue, task{name: name, fn: fn})
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return nil
}

// Call queues fn and waits for it to finish. It must not be called from a
// task running on the loop itself.
func (l *Loop) Call(name string, fn func()) error {
	done := make(chan struct{})
	if err := l.Post(name, func() {
		defer close(done)
		fn()
	}); err != nil {
		return err
	}

	select {
	case <-done:
		return nil
	case <-l.done:
		return ErrStopped
	case <-time.After(l.callTimeout):
		L_warn("uithread: call timed out", "task", name)
		return ErrTimeout
	}
}

// Sync waits until every task queued before it has run.
func (l *Loop) Sync() error {
	return l.Call("sync", func() {})
}

// Stop drains already queued tasks and then ends the loop.
func (l *Loop) Stop() {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return
	}
	l.stopped = true
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Done is closed when the loop goroutine exits.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

func (l *Loop) run() {
	defer close(l.done)
	for {
		l.mu.Lock()
		batch := l.queue
		l.queue = nil
		stopped := l.stopped
		l.mu.Unlock()

		for _, t := range batch {
			l.execute(t)
		}

		if len(batch) == 0 {
			if stopped {
				L_debug("uithread: loop stopped")
				return
			}
			<-l.wake
		}
	}
}

// execute runs a single task, containing any panic so the loop survives.
func (l *Loop) execute(t task) {
	defer func() {
		if r := recover(); r != nil {
			L_error("uithread: task panic", "task", t.name, "panic", r)
		}
	}()
	L_trace("uithread: run", "task", t.name)
	t.fn()
}
