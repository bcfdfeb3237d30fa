// Package iab is the caller-facing in-app browser: it routes open requests,
// owns the managed surface controller and the event relay, and marshals
// every call onto the UI loop.
package iab

import (
	"encoding/json"
	"sync/atomic"

	"github.com/roelfdiedericks/inappbrowser/internal/allowlist"
	"github.com/roelfdiedericks/inappbrowser/internal/features"
	"github.com/roelfdiedericks/inappbrowser/internal/inject"
	"github.com/roelfdiedericks/inappbrowser/internal/intent"
	. "github.com/roelfdiedericks/inappbrowser/internal/logging"
	. "github.com/roelfdiedericks/inappbrowser/internal/metrics"
	"github.com/roelfdiedericks/inappbrowser/internal/relay"
	"github.com/roelfdiedericks/inappbrowser/internal/router"
	"github.com/roelfdiedericks/inappbrowser/internal/surface"
	"github.com/roelfdiedericks/inappbrowser/internal/uithread"
)

// PrimaryView is the host's own browsing view.
type PrimaryView interface {
	Navigate(url string)
}

// Options wires a Plugin to its collaborators. Only Surfaces is required.
type Options struct {
	Surfaces      surface.Factory
	Chrome        surface.Chrome
	Allowlist     allowlist.Checker
	Launcher      intent.Launcher
	Mimes         intent.MimeResolver
	PrimaryView   PrimaryView
	ApplicationID string
	ErrorPolicy   surface.ErrorPolicy
}

// Plugin is safe for concurrent use. Results and events reach callers
// asynchronously through callbacks, never through return values.
type Plugin struct {
	loop     *uithread.Loop
	bg       *uithread.Background
	relay    *relay.Relay
	router   *router.Router
	ctrl     *surface.Controller
	launcher intent.Launcher
	mimes    intent.MimeResolver
	primary  PrimaryView
	appID    string

	hardwareBack atomic.Bool
}

// New creates a plugin and starts its UI loop.
func New(opts Options) *Plugin {
	p := &Plugin{
		loop:     uithread.New(),
		bg:       &uithread.Background{},
		relay:    relay.New(),
		router:   router.New(opts.Allowlist),
		launcher: opts.Launcher,
		mimes:    opts.Mimes,
		primary:  opts.PrimaryView,
		appID:    opts.ApplicationID,
	}
	p.hardwareBack.Store(true)
	p.ctrl = surface.New(surface.Config{
		Executor:    p.loop,
		Background:  p.bg,
		Factory:     opts.Surfaces,
		Chrome:      opts.Chrome,
		Events:      p.relay,
		Launcher:    opts.Launcher,
		ErrorPolicy: opts.ErrorPolicy,
	})
	p.loop.Start()
	return p
}

// Open routes url to the primary view, the OS, an external application or
// the managed surface. cb becomes the event channel and first receives the
// open result: "" on success or a handoff error message, always keep-alive.
// OS handoffs run in the background; their result follows once the opener
// has started.
func (p *Plugin) Open(url, target, featureString string, cb relay.Callback) error {
	req := router.NewRequest(url, target, featureString)
	return p.loop.Post("open", func() {
		channel := p.relay.Register(cb)
		p.open(req, func(result string) {
			if p.relay.ChannelID() != channel {
				// a later open took over the relay
				msg, _ := json.Marshal(result)
				relay.Invoke(cb, relay.Result{Status: relay.StatusOK, KeepCallback: true, Message: msg})
				return
			}
			p.relay.SendString(result, true, relay.StatusOK)
		})
	})
}

// open runs on the loop and calls reply, on the loop, with the open result.
func (p *Plugin) open(req router.Request, reply func(string)) {
	route := p.router.Route(req)
	L_info("iab: open", "url", req.URL, "target", req.Target, "decision", route.Decision)
	MetricOutcome("router", "route", route.Decision.String())

	switch route.Decision {
	case router.NavigatePrimaryView:
		if p.primary == nil {
			L_warn("iab: no primary view, navigation dropped", "url", req.URL)
		} else {
			p.primary.Navigate(req.URL)
		}

	case router.DelegateToOS:
		p.launch("dial", req.URL, reply, func() intent.Intent {
			return intent.Dial(req.URL)
		})
		return

	case router.OpenExternalApplication:
		p.launch("external", req.URL, reply, func() intent.Intent {
			return intent.External(req.URL, p.appID, p.mimes)
		})
		return

	case router.OpenManagedSurface:
		opts := features.Resolve(req.Features, p.hardwareBack.Load())
		p.hardwareBack.Store(opts.HardwareBack)
		p.ctrl.Open(req.URL, opts)
	}
	reply("")
}

// launch builds and launches an intent in the background, then posts the
// result back to the loop. Building runs in the background too, since MIME
// resolution may read the file.
func (p *Plugin) launch(name, url string, reply func(string), build func() intent.Intent) {
	launcher := p.launcher
	p.bg.Go("handoff-"+name, func() {
		in := build()
		var err error
		if launcher == nil {
			err = &intent.ActivityNotFoundError{URL: in.Data, Intent: in}
		} else {
			err = launcher.Launch(in)
		}
		result := ""
		if err != nil {
			L_error("iab: handoff failed", "kind", name, "url", url, "error", err)
			result = err.Error()
		}
		if perr := p.loop.Post("handoff-result", func() { reply(result) }); perr != nil {
			L_debug("iab: handoff result dropped", "url", url, "error", perr)
		}
	})
}

// Close starts closing the managed surface. exit is delivered on the open
// channel.
func (p *Plugin) Close() error {
	return p.loop.Post("close", p.ctrl.Close)
}

// Show reveals a surface opened hidden and acknowledges on the open
// channel.
func (p *Plugin) Show() error {
	return p.loop.Post("show", func() {
		p.ctrl.Show()
		p.relay.SendEmpty(true, relay.StatusOK)
	})
}

// Inject runs source in the managed surface. When wantsResult is set, cb
// receives one OK result once the page signals completion; for script code
// its message is a JSON array holding the value.
func (p *Plugin) Inject(kind inject.Kind, source string, wantsResult bool, cb relay.Callback) error {
	return p.loop.Post(kind.String(), func() {
		err := p.ctrl.Inject(inject.Request{
			Kind:        kind,
			Source:      source,
			WantsResult: wantsResult,
			Done: func(result json.RawMessage) {
				relay.Invoke(cb, relay.Result{Status: relay.StatusOK, Message: result})
			},
		})
		if err != nil {
			L_warn("iab: injection failed", "kind", kind, "error", err)
			if wantsResult {
				msg, _ := json.Marshal(err.Error())
				relay.Invoke(cb, relay.Result{Status: relay.StatusError, Message: msg})
			}
		}
	})
}

// Navigate loads url in the open managed surface.
func (p *Plugin) Navigate(url string) error {
	return p.loop.Post("navigate", func() {
		if err := p.ctrl.Navigate(url); err != nil {
			L_debug("iab: navigate", "url", url, "error", err)
		}
	})
}

// GoBack moves the managed surface back one entry if possible.
func (p *Plugin) GoBack() error {
	return p.loop.Post("back", func() { p.ctrl.GoBack() })
}

// GoForward moves the managed surface forward one entry if possible.
func (p *Plugin) GoForward() error {
	return p.loop.Post("forward", func() { p.ctrl.GoForward() })
}

// HardwareBack reports whether the back key navigates history. The value
// carries over between opens until a feature string changes it.
func (p *Plugin) HardwareBack() bool {
	return p.hardwareBack.Load()
}

// BackPressed handles the host back key and reports whether the managed
// surface consumed it. Must not be called from the UI loop.
func (p *Plugin) BackPressed() (bool, error) {
	var handled bool
	err := p.loop.Call("back-pressed", func() {
		handled = p.ctrl.BackPressed()
	})
	return handled, err
}

// Session returns the state of the open managed surface. Must not be
// called from the UI loop.
func (p *Plugin) Session() (surface.Snapshot, bool) {
	var snap surface.Snapshot
	var ok bool
	if err := p.loop.Call("session", func() {
		snap, ok = p.ctrl.Session()
	}); err != nil {
		return surface.Snapshot{}, false
	}
	return snap, ok
}

// Sync waits for every call made so far to be processed, including the
// background work (surface creation, OS handoffs) they started.
func (p *Plugin) Sync() error {
	return uithread.Settle(p.loop, p.bg)
}

// Reset closes the managed surface when the host view navigates.
func (p *Plugin) Reset() error {
	return p.Close()
}

// Destroy closes the managed surface and stops the UI loop. Must not be
// called from the UI loop.
func (p *Plugin) Destroy() {
	if err := p.loop.Call("destroy", p.ctrl.Close); err != nil {
		L_debug("iab: destroy", "error", err)
	}
	// surfaces still being created are dismissed by the tasks they post
	p.bg.Wait()
	p.loop.Stop()
	<-p.loop.Done()
	L_info("iab: destroyed")
}
