package surface

import (
	"sync/atomic"
	"time"

	"github.com/roelfdiedericks/inappbrowser/internal/features"
	"github.com/roelfdiedericks/inappbrowser/internal/inject"
)

// State is the controller state machine position.
type State int32

const (
	StateOpening State = iota
	StateLoading
	StateLoaded
	StateError
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateOpening:
		return "OPENING"
	case StateLoading:
		return "LOADING"
	case StateLoaded:
		return "LOADED"
	case StateError:
		return "ERROR"
	case StateClosing:
		return "CLOSING"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

var sessionSeq atomic.Uint64

// Session is the runtime state of one open managed surface. Options are
// fixed at open; everything else changes with navigation.
type Session struct {
	ID      uint64
	Options features.Options

	surface  Surface
	injector *inject.Injector
	state    atomic.Int32

	CurrentURL   string
	CanGoBack    bool
	CanGoForward bool
	// CheckedVars flips once, on the first loadstop with the redirect
	// interface enabled.
	CheckedVars bool

	loadStarted time.Time
}

func newSession(opts features.Options) *Session {
	return &Session{
		ID:       sessionSeq.Add(1),
		Options:  opts,
		injector: inject.NewInjector(),
	}
}

// State returns the current state. Safe from any goroutine.
func (s *Session) State() State {
	return State(s.state.Load())
}

func (s *Session) setState(st State) {
	s.state.Store(int32(st))
}

// Closed reports whether the session is closing or closed.
func (s *Session) Closed() bool {
	st := s.State()
	return st == StateClosing || st == StateClosed
}

// Snapshot is a copy of session fields for callers off the loop.
type Snapshot struct {
	ID           uint64
	State        State
	Options      features.Options
	CurrentURL   string
	CanGoBack    bool
	CanGoForward bool
	CheckedVars  bool
}

func (s *Session) snapshot() Snapshot {
	return Snapshot{
		ID:           s.ID,
		State:        s.State(),
		Options:      s.Options,
		CurrentURL:   s.CurrentURL,
		CanGoBack:    s.CanGoBack,
		CanGoForward: s.CanGoForward,
		CheckedVars:  s.CheckedVars,
	}
}
