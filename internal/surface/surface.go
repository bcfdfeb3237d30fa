// Package surface owns the lifecycle of the managed browsing surface:
// it intercepts every navigation, classifies it, emits lifecycle events and
// runs deferred script and style injection.
//
// All Controller methods must run on the UI loop. Render surfaces report
// back through Events, which marshal onto the loop themselves.
package surface

import (
	"encoding/json"

	"github.com/roelfdiedericks/inappbrowser/internal/features"
	"github.com/roelfdiedericks/inappbrowser/internal/relay"
)

// BlankURL is the neutral page loaded before a surface is dismissed.
const BlankURL = "about:blank"

// Surface is the render surface a controller drives. Every navigation it
// attempts, including those started by Load, must be reported through
// Events.InterceptNavigation before it renders.
type Surface interface {
	Load(url string)
	// Evaluate runs a script without waiting for it.
	Evaluate(script string)
	// Query runs a script and reports its JSON result from any goroutine.
	Query(script string, done func(result json.RawMessage, err error))
	CanGoBack() bool
	CanGoForward() bool
	GoBack()
	GoForward()
	ClearHistory()
	ClearCookies(mode features.CacheMode)
	SetVisible(visible bool)
	Dismiss()
}

// Events is the callback side of a surface. Implementations may call it
// from any goroutine.
type Events interface {
	// InterceptNavigation reports that the surface is about to navigate
	// to url and returns whether it may proceed.
	InterceptNavigation(url string) bool
	NavigationFinished(url string)
	NavigationFailed(url string, code int, message string)
	// HandlePrompt offers a page prompt to native code. It returns true
	// when the prompt was an injection completion signal.
	HandlePrompt(message, defaultValue string) bool
	// SurfaceGone reports that the surface was closed from outside, e.g.
	// the user closed its window.
	SurfaceGone()
}

// Factory creates a surface for a new session.
type Factory interface {
	NewSurface(opts features.Options, events Events) (Surface, error)
}

// FactoryFunc adapts a function to Factory.
type FactoryFunc func(opts features.Options, events Events) (Surface, error)

func (f FactoryFunc) NewSurface(opts features.Options, events Events) (Surface, error) {
	return f(opts, events)
}

// Executor marshals work onto the UI loop.
type Executor interface {
	Post(name string, fn func()) error
}

// Spawner runs slow work (surface creation, OS handoffs) off the UI loop.
// The work posts its outcome back through the Executor.
type Spawner interface {
	Go(name string, fn func())
}

// Inline runs posted and spawned work immediately on the calling goroutine.
// It suits hosts that already call everything from one goroutine, and tests.
type Inline struct{}

func (Inline) Post(_ string, fn func()) error {
	fn()
	return nil
}

func (Inline) Go(_ string, fn func()) { fn() }

// EventSender is the outbound event channel, normally *relay.Relay.
type EventSender interface {
	Send(ev relay.Event, keepAlive bool, status relay.Status)
}
