package uithread

import (
	"sync"

	. "github.com/roelfdiedericks/inappbrowser/internal/logging"
)

// Background runs slow work (process launches, browser startup) off the
// loop. Work reports back by posting to the loop before it returns.
type Background struct {
	mu      sync.Mutex
	idle    *sync.Cond
	running int
	started uint64
}

// Go runs fn on its own goroutine. A panic in fn is logged and contained.
func (b *Background) Go(name string, fn func()) {
	b.mu.Lock()
	b.running++
	b.started++
	b.mu.Unlock()

	go func() {
		defer b.finish()
		defer func() {
			if r := recover(); r != nil {
				L_error("uithread: background panic", "task", name, "panic", r)
			}
		}()
		L_trace("uithread: background", "task", name)
		fn()
	}()
}

func (b *Background) finish() {
	b.mu.Lock()
	b.running--
	if b.running == 0 && b.idle != nil {
		b.idle.Broadcast()
	}
	b.mu.Unlock()
}

// Wait blocks until no background work is running.
func (b *Background) Wait() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.idle == nil {
		b.idle = sync.NewCond(&b.mu)
	}
	for b.running > 0 {
		b.idle.Wait()
	}
}

// Started returns how many tasks Go has started so far.
func (b *Background) Started() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.started
}

// Settle waits until the loop and the background work are both quiet: every
// task queued on l has run, no background work is running, and everything
// the background work posted has run too.
func Settle(l *Loop, b *Background) error {
	if err := l.Sync(); err != nil {
		return err
	}
	for {
		before := b.Started()
		b.Wait()
		if err := l.Sync(); err != nil {
			return err
		}
		if b.Started() == before {
			return nil
		}
	}
}
