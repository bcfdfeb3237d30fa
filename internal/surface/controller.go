package surface

import (
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/roelfdiedericks/inappbrowser/internal/features"
	"github.com/roelfdiedericks/inappbrowser/internal/inject"
	"github.com/roelfdiedericks/inappbrowser/internal/intent"
	. "github.com/roelfdiedericks/inappbrowser/internal/logging"
	. "github.com/roelfdiedericks/inappbrowser/internal/metrics"
	"github.com/roelfdiedericks/inappbrowser/internal/relay"
	"github.com/roelfdiedericks/inappbrowser/internal/urlclass"
)

// ErrNoSession is returned by operations that need an open surface.
var ErrNoSession = errors.New("no managed surface is open")

// ErrNotReady is returned while the surface of a new session is still
// being created.
var ErrNotReady = errors.New("managed surface is still opening")

// ErrorPolicy decides what happens after a load error.
type ErrorPolicy string

const (
	// PolicyPrompt asks the user through Chrome.PromptLoadError.
	PolicyPrompt ErrorPolicy = "prompt"
	// PolicyRetry reloads the failing URL up to MaxRetries times, then closes.
	PolicyRetry ErrorPolicy = "retry"
	// PolicyClose closes the surface.
	PolicyClose ErrorPolicy = "close"
)

// MaxRetries bounds consecutive automatic reloads under PolicyRetry.
const MaxRetries = 3

const (
	titleScript    = `document.title`
	metadataScript = `(function () {
  var m = window.meliuz || {};
  var s = function (v) { return v === undefined || v === null ? "" : String(v); };
  return {
    storeTitle: s(m.storeTitle),
    cashbackString: s(m.cashbackString),
    couponCode: s(m.couponCode),
    mobileFriendly: s(m.mobileFriendly)
  };
})()`
)

// Config wires a Controller to its collaborators.
type Config struct {
	Executor    Executor
	Background  Spawner
	Factory     Factory
	Chrome      Chrome
	Events      EventSender
	Launcher    intent.Launcher
	ErrorPolicy ErrorPolicy
}

// Controller runs at most one managed surface at a time.
type Controller struct {
	exec     Executor
	bg       Spawner
	factory  Factory
	chrome   Chrome
	events   EventSender
	launcher intent.Launcher
	policy   ErrorPolicy

	session  *Session
	failures int
}

// New creates a controller. Missing Executor and Background default to
// Inline, a missing Chrome to NopChrome.
func New(cfg Config) *Controller {
	c := &Controller{
		exec:     cfg.Executor,
		bg:       cfg.Background,
		factory:  cfg.Factory,
		chrome:   cfg.Chrome,
		events:   cfg.Events,
		launcher: cfg.Launcher,
		policy:   cfg.ErrorPolicy,
	}
	if c.exec == nil {
		c.exec = Inline{}
	}
	if c.bg == nil {
		c.bg = Inline{}
	}
	if c.chrome == nil {
		c.chrome = NopChrome{}
	}
	if c.policy == "" {
		c.policy = PolicyPrompt
	}
	return c
}

// Active reports whether a session is open and not closing.
func (c *Controller) Active() bool {
	return c.session != nil && !c.session.Closed()
}

// ready reports whether the open session has its surface.
func (c *Controller) ready() bool {
	return c.Active() && c.session.surface != nil
}

// Session returns a copy of the current session state.
func (c *Controller) Session() (Snapshot, bool) {
	if c.session == nil {
		return Snapshot{}, false
	}
	return c.session.snapshot(), true
}

// Open starts a new session on rawURL. A session that is still open is
// dismissed first and its events stop being routed. The surface is created
// in the background; the first navigation is issued once it is ready. Open
// never fails from the caller's point of view; problems arrive as loaderror
// events.
func (c *Controller) Open(rawURL string, opts features.Options) {
	if prev := c.session; prev != nil {
		L_info("surface: replacing open session", "session", prev.ID)
		c.discard(prev)
	}

	s := newSession(opts)
	c.session = s
	c.failures = 0

	c.chrome.SetZoomControls(opts.ZoomControls)
	if opts.RedirectInterface {
		c.chrome.SetTitle(LoadingTitle)
	} else {
		c.chrome.SetTitle("")
	}
	c.chrome.SetNavigation(false, false)

	events := &sink{c: c, s: s}
	c.bg.Go("new-surface", func() {
		srf, err := c.factory.NewSurface(opts, events)
		if perr := c.exec.Post("surface-ready", func() {
			c.surfaceReady(s, rawURL, srf, err)
		}); perr != nil && srf != nil {
			srf.Dismiss()
		}
	})
}

// surfaceReady attaches a freshly created surface to s and issues the first
// navigation. A surface arriving for a session that was closed or replaced
// meanwhile is dismissed.
func (c *Controller) surfaceReady(s *Session, rawURL string, srf Surface, err error) {
	current := c.session == s && !s.Closed()
	if err != nil {
		if !current {
			c.release(s)
			return
		}
		L_error("surface: failed to create surface", "url", rawURL, "error", err)
		s.setState(StateClosed)
		c.session = nil
		c.events.Send(relay.LoadErrorEvent(rawURL, ErrorUnknown, err.Error()), true, relay.StatusError)
		return
	}
	if !current {
		L_debug("surface: session ended before its surface was ready", "session", s.ID)
		srf.Dismiss()
		c.release(s)
		return
	}

	s.surface = srf
	opts := s.Options
	L_info("surface: session opened", "session", s.ID, "url", rawURL,
		"hidden", opts.Hidden, "cache", opts.Cache, "redirect", opts.RedirectInterface)

	if opts.Cache != features.CacheKeep {
		srf.ClearCookies(opts.Cache)
	}
	srf.SetVisible(!opts.Hidden)
	c.navigate(s, rawURL)
}

// release finishes a session that never got a surface.
func (c *Controller) release(s *Session) {
	s.setState(StateClosed)
	if c.session == s {
		c.session = nil
	}
}

// navigate loads rawURL in the session surface. Handoff URLs never reach
// the surface.
func (c *Controller) navigate(s *Session, rawURL string) {
	class := urlclass.Classify(rawURL)
	if class.Handoff() {
		c.interceptNavigation(s, class)
		return
	}
	s.surface.Load(class.URL)
}

func (c *Controller) interceptNavigation(s *Session, class urlclass.Result) {
	if class.Handoff() {
		c.handoff(class)
		c.events.Send(relay.LoadStartEvent(""), true, relay.StatusOK)
		return
	}

	s.CurrentURL = class.URL
	s.loadStarted = time.Now()
	s.setState(StateLoading)
	c.chrome.SetLoading(true)
	c.events.Send(relay.LoadStartEvent(class.URL), true, relay.StatusOK)
}

// handoff launches the OS handler in the background. The outcome is only
// logged; the surface has already been told not to navigate.
func (c *Controller) handoff(class urlclass.Result) {
	in, ok := intent.ForResult(class)
	if !ok || c.launcher == nil {
		L_warn("surface: no handler for handoff", "url", class.URL, "category", class.Category)
		return
	}
	launcher := c.launcher
	c.bg.Go("handoff", func() {
		if err := launcher.Launch(in); err != nil {
			L_error("surface: handoff failed", "url", class.URL, "category", class.Category, "error", err)
			MetricOutcome("surface", "handoff", "failed")
			return
		}
		MetricOutcome("surface", "handoff", string(in.Action))
		L_debug("surface: handed off", "intent", in.String())
	})
}

func (c *Controller) navigationFinished(s *Session, url string) {
	switch s.State() {
	case StateClosing:
		c.dismiss(s)
		return
	case StateClosed:
		return
	}
	if s.surface == nil {
		return
	}

	s.CurrentURL = url
	s.setState(StateLoaded)
	if !s.loadStarted.IsZero() {
		MetricSince("surface", "load", s.loadStarted)
		s.loadStarted = time.Time{}
	}
	c.failures = 0
	c.refreshNavigation(s)
	c.chrome.SetLoading(false)
	c.events.Send(relay.LoadStopEvent(url), true, relay.StatusOK)

	if s.Options.RedirectInterface {
		if !s.CheckedVars {
			s.CheckedVars = true
			c.readMetadata(s)
			s.surface.ClearHistory()
			c.refreshNavigation(s)
		}
		return
	}
	c.syncTitle(s)
}

func (c *Controller) refreshNavigation(s *Session) {
	s.CanGoBack = s.surface.CanGoBack()
	s.CanGoForward = s.surface.CanGoForward()
	c.chrome.SetNavigation(s.CanGoBack, s.CanGoForward)
}

func (c *Controller) readMetadata(s *Session) {
	s.surface.Query(metadataScript, func(raw json.RawMessage, err error) {
		c.post("metadata", s, func() {
			if err != nil {
				L_warn("surface: metadata read failed", "session", s.ID, "error", err)
				return
			}
			var meta Metadata
			if err := json.Unmarshal(raw, &meta); err != nil {
				L_warn("surface: metadata is not an object", "session", s.ID, "error", err)
				return
			}
			L_object("surface: page metadata", meta)
			c.chrome.UpdateInterface(meta)
		})
	})
}

func (c *Controller) syncTitle(s *Session) {
	s.surface.Query(titleScript, func(raw json.RawMessage, err error) {
		c.post("title", s, func() {
			if err != nil {
				L_debug("surface: title read failed", "session", s.ID, "error", err)
				return
			}
			var title string
			if err := json.Unmarshal(raw, &title); err != nil {
				return
			}
			c.chrome.SetTitle(title)
		})
	})
}

func (c *Controller) navigationFailed(s *Session, url string, code int, message string) {
	switch s.State() {
	case StateClosing:
		c.dismiss(s)
		return
	case StateClosed:
		return
	}
	if s.surface == nil {
		return
	}

	L_warn("surface: load failed", "session", s.ID, "url", url, "code", code, "message", message)
	MetricOutcome("surface", "loaderror", strconv.Itoa(code))
	s.loadStarted = time.Time{}
	s.setState(StateError)
	c.chrome.SetLoading(false)
	c.events.Send(relay.LoadErrorEvent(url, code, message), true, relay.StatusError)

	switch c.policy {
	case PolicyClose:
		c.Close()
	case PolicyRetry:
		c.failures++
		if c.failures > MaxRetries {
			L_warn("surface: giving up after retries", "url", url, "retries", MaxRetries)
			c.Close()
			return
		}
		s.surface.Load(url)
	default:
		c.chrome.PromptLoadError(url, code, message, func(retry bool) {
			c.post("load-error-decision", s, func() {
				if s.Closed() {
					return
				}
				if retry {
					L_debug("surface: retrying", "url", url)
					s.surface.Load(url)
					return
				}
				c.Close()
			})
		})
	}
}

// Close starts teardown: the surface loads a blank page and is dismissed
// once that finishes. exit is emitted immediately with keep-alive off.
// Calling Close again, or with no session, does nothing.
func (c *Controller) Close() {
	s := c.session
	if s == nil || s.Closed() {
		L_debug("surface: close ignored, nothing open")
		return
	}
	L_info("surface: closing", "session", s.ID)
	s.setState(StateClosing)
	s.injector.Reset()
	c.events.Send(relay.ExitEvent(), false, relay.StatusOK)
	if s.surface == nil {
		// surfaceReady dismisses it on arrival
		return
	}
	s.surface.Load(BlankURL)
}

// surfaceGone ends a session whose surface disappeared. A session not
// already closing gets its exit event here.
func (c *Controller) surfaceGone(s *Session) {
	switch s.State() {
	case StateClosed:
		return
	case StateClosing:
	default:
		L_info("surface: closed by user", "session", s.ID)
		s.injector.Reset()
		c.events.Send(relay.ExitEvent(), false, relay.StatusOK)
	}
	c.dismiss(s)
}

func (c *Controller) dismiss(s *Session) {
	s.setState(StateClosed)
	if s.surface != nil {
		s.surface.Dismiss()
	}
	if c.session == s {
		c.session = nil
	}
	c.chrome.SetLoading(false)
	L_info("surface: dismissed", "session", s.ID)
}

// discard drops a session without the blank-page handshake or an exit
// event.
func (c *Controller) discard(s *Session) {
	s.injector.Reset()
	if s.surface != nil && s.State() != StateClosed {
		s.surface.Dismiss()
	}
	s.setState(StateClosed)
	if c.session == s {
		c.session = nil
	}
}

// GoBack navigates the surface back if it has history.
func (c *Controller) GoBack() bool {
	if !c.ready() || !c.session.surface.CanGoBack() {
		return false
	}
	c.session.surface.GoBack()
	return true
}

// GoForward navigates the surface forward if it has history.
func (c *Controller) GoForward() bool {
	if !c.ready() || !c.session.surface.CanGoForward() {
		return false
	}
	c.session.surface.GoForward()
	return true
}

// Navigate loads rawURL in the open surface, as the chrome's address bar
// does.
func (c *Controller) Navigate(rawURL string) error {
	if !c.Active() {
		return ErrNoSession
	}
	if !c.ready() {
		return ErrNotReady
	}
	c.navigate(c.session, rawURL)
	return nil
}

// Show reveals a surface opened hidden. It reports whether a session was
// open.
func (c *Controller) Show() bool {
	if !c.Active() {
		return false
	}
	if !c.session.Options.Hidden {
		return true
	}
	if c.session.surface == nil {
		// surfaceReady applies it
		c.session.Options.Hidden = false
		return true
	}
	c.session.surface.SetVisible(true)
	return true
}

// BackPressed handles the host's back button. With hardware back enabled
// and history available the surface goes back; otherwise it closes. It
// returns false when no session is open.
func (c *Controller) BackPressed() bool {
	if !c.Active() {
		return false
	}
	if c.session.Options.HardwareBack && c.GoBack() {
		return true
	}
	c.Close()
	return true
}

// Inject runs a script or style injection in the open surface.
func (c *Controller) Inject(req inject.Request) error {
	if !c.Active() {
		return ErrNoSession
	}
	if !c.ready() {
		return ErrNotReady
	}
	_, err := c.session.injector.Inject(c.session.surface, req)
	return err
}

// post runs fn on the loop if s is still the current session.
func (c *Controller) post(name string, s *Session, fn func()) {
	err := c.exec.Post(name, func() {
		if c.session != s {
			L_trace("surface: stale callback dropped", "name", name, "session", s.ID)
			return
		}
		fn()
	})
	if err != nil {
		L_warn("surface: post failed", "name", name, "error", err)
	}
}
