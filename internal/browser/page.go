package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/roelfdiedericks/inappbrowser/internal/features"
	. "github.com/roelfdiedericks/inappbrowser/internal/logging"
	"github.com/roelfdiedericks/inappbrowser/internal/surface"
)

// Schemes Chromium loads itself. Anything else requested by the page is
// reported for handoff.
var renderedSchemes = []string{"http:", "https:", "about:", "data:", "blob:", "file:", "javascript:", "chrome-error:"}

// Page is a Chromium tab driven as a managed surface. Methods are called
// on the UI loop and never block on page loads; CDP events are read on a
// separate goroutine and reported through surface.Events.
type Page struct {
	raw     *rod.Page
	page    *rod.Page // bound to ctx
	events  surface.Events
	timeout time.Duration
	release func()

	ctx    context.Context
	cancel context.CancelFunc

	dismissOnce sync.Once
	dismissed   atomic.Bool
	blankLoad   atomic.Bool

	docs docRequests
}

func newPage(raw *rod.Page, events surface.Events, timeout time.Duration, release func()) *Page {
	ctx, cancel := context.WithCancel(context.Background())
	return &Page{
		raw:     raw,
		page:    raw.Context(ctx),
		events:  events,
		timeout: timeout,
		release: release,
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (p *Page) mainFrame() proto.PageFrameID {
	return proto.PageFrameID(p.raw.TargetID)
}

// call runs fn against the page with the call timeout applied
func (p *Page) call(fn func(pg *rod.Page) error) error {
	ctx, cancel := context.WithTimeout(p.ctx, p.timeout)
	defer cancel()
	return fn(p.page.Context(ctx))
}

// start subscribes to page events and turns on document interception.
func (p *Page) start() error {
	wait := p.page.EachEvent(
		p.onRequestPaused,
		p.onRequestWillBeSent,
		p.onLoadingFinished,
		p.onLoadingFailed,
		p.onLoadEvent,
		p.onFrameRequestedNavigation,
		p.onDialog,
	)
	go wait()

	waitTarget := p.raw.Browser().Context(p.ctx).EachEvent(p.onTargetDestroyed)
	go waitTarget()

	return p.call(func(pg *rod.Page) error {
		err := proto.FetchEnable{
			Patterns: []*proto.FetchRequestPattern{{
				URLPattern:   "*",
				ResourceType: proto.NetworkResourceTypeDocument,
				RequestStage: proto.FetchRequestStageRequest,
			}},
		}.Call(pg)
		if err != nil {
			return fmt.Errorf("failed to enable request interception: %w", err)
		}
		return nil
	})
}

func (p *Page) onRequestPaused(e *proto.FetchRequestPaused) {
	allow := true
	if isMainDocument(e.ResourceType, e.FrameID, p.mainFrame()) {
		allow = p.events.InterceptNavigation(e.Request.URL)
	}

	var err error
	if allow {
		err = proto.FetchContinueRequest{RequestID: e.RequestID}.Call(p.page)
	} else {
		L_debug("browser: navigation suppressed", "url", e.Request.URL)
		err = proto.FetchFailRequest{RequestID: e.RequestID, ErrorReason: proto.NetworkErrorReasonAborted}.Call(p.page)
	}
	if err != nil {
		L_debug("browser: resolve paused request", "url", e.Request.URL, "error", err)
	}
}

func (p *Page) onRequestWillBeSent(e *proto.NetworkRequestWillBeSent) {
	if isMainDocument(e.Type, e.FrameID, p.mainFrame()) {
		p.docs.track(e.RequestID, e.Request.URL)
	}
}

func (p *Page) onLoadingFinished(e *proto.NetworkLoadingFinished) {
	p.docs.take(e.RequestID)
}

func (p *Page) onLoadingFailed(e *proto.NetworkLoadingFailed) {
	url, ok := p.docs.take(e.RequestID)
	if !ok || ignoredError(e.ErrorText, e.Canceled) {
		return
	}
	p.events.NavigationFailed(url, ErrorCode(e.ErrorText), e.ErrorText)
}

func (p *Page) onLoadEvent(*proto.PageLoadEventFired) {
	info, err := p.page.Info()
	if err != nil {
		L_debug("browser: page info", "error", err)
		return
	}
	if reportsLoad(info.URL, p.blankLoad.Load()) {
		p.events.NavigationFinished(info.URL)
	}
}

func (p *Page) onFrameRequestedNavigation(e *proto.PageFrameRequestedNavigation) {
	if e.FrameID == p.mainFrame() && !rendersScheme(e.URL) {
		p.events.InterceptNavigation(e.URL)
	}
}

func (p *Page) onDialog(e *proto.PageJavascriptDialogOpening) {
	if e.Type == proto.PageDialogTypePrompt && p.events.HandlePrompt(e.Message, e.DefaultPrompt) {
		err := proto.PageHandleJavaScriptDialog{Accept: true}.Call(p.page)
		if err != nil {
			L_warn("browser: failed to close completion prompt", "error", err)
		}
		return
	}
	if e.HasBrowserHandler {
		return // the user answers it
	}
	err := proto.PageHandleJavaScriptDialog{Accept: true, PromptText: e.DefaultPrompt}.Call(p.page)
	if err != nil {
		L_warn("browser: failed to handle dialog", "type", e.Type, "error", err)
	}
}

func (p *Page) onTargetDestroyed(e *proto.TargetTargetDestroyed) bool {
	if e.TargetID != p.raw.TargetID {
		return false
	}
	if !p.dismissed.Load() {
		L_debug("browser: page closed outside the plugin", "target", e.TargetID)
		p.events.SurfaceGone()
	}
	return true
}

// Load starts navigating to url.
func (p *Page) Load(url string) {
	p.blankLoad.Store(url == surface.BlankURL)
	go func() {
		err := p.page.Navigate(url)
		if err == nil {
			return
		}
		var navErr *rod.NavigationError
		switch {
		case errors.As(err, &navErr):
			// the network events carry the failure
			L_debug("browser: navigate", "url", url, "reason", navErr.Reason)
		case p.ctx.Err() != nil:
		default:
			p.events.NavigationFailed(url, surface.ErrorUnknown, err.Error())
		}
	}()
}

func (p *Page) evaluate(script string, byValue bool) (json.RawMessage, error) {
	var res *proto.RuntimeEvaluateResult
	err := p.call(func(pg *rod.Page) error {
		var err error
		res, err = proto.RuntimeEvaluate{
			Expression:    script,
			ReturnByValue: byValue,
			UserGesture:   true,
		}.Call(pg)
		return err
	})
	if err != nil {
		return nil, err
	}
	if res.ExceptionDetails != nil {
		return nil, fmt.Errorf("script exception: %s", res.ExceptionDetails.Text)
	}
	if !byValue || res.Result == nil {
		return nil, nil
	}
	return json.Marshal(res.Result.Value)
}

// Evaluate runs script without waiting for it.
func (p *Page) Evaluate(script string) {
	go func() {
		if _, err := p.evaluate(script, false); err != nil {
			L_debug("browser: evaluate", "error", err)
		}
	}()
}

// Query runs script and reports its value.
func (p *Page) Query(script string, done func(json.RawMessage, error)) {
	go func() {
		done(p.evaluate(script, true))
	}()
}

func (p *Page) history() (*proto.PageGetNavigationHistoryResult, error) {
	var h *proto.PageGetNavigationHistoryResult
	err := p.call(func(pg *rod.Page) error {
		var err error
		h, err = proto.PageGetNavigationHistory{}.Call(pg)
		return err
	})
	return h, err
}

func (p *Page) CanGoBack() bool {
	h, err := p.history()
	return err == nil && h.CurrentIndex > 0
}

func (p *Page) CanGoForward() bool {
	h, err := p.history()
	return err == nil && h.CurrentIndex < len(h.Entries)-1
}

func (p *Page) GoBack() {
	go func() {
		if err := p.page.NavigateBack(); err != nil {
			L_debug("browser: back", "error", err)
		}
	}()
}

func (p *Page) GoForward() {
	go func() {
		if err := p.page.NavigateForward(); err != nil {
			L_debug("browser: forward", "error", err)
		}
	}()
}

func (p *Page) ClearHistory() {
	err := p.call(func(pg *rod.Page) error {
		return proto.PageResetNavigationHistory{}.Call(pg)
	})
	if err != nil {
		L_warn("browser: reset history", "error", err)
	}
}

// ClearCookies removes every cookie, or only session cookies.
func (p *Page) ClearCookies(mode features.CacheMode) {
	err := p.call(func(pg *rod.Page) error {
		switch mode {
		case features.CacheClearAll:
			return proto.NetworkClearBrowserCookies{}.Call(pg)
		case features.CacheClearSession:
			cookies, err := pg.Browser().GetCookies()
			if err != nil {
				return err
			}
			removed := 0
			for _, c := range cookies {
				if !c.Session {
					continue
				}
				err := proto.NetworkDeleteCookies{Name: c.Name, Domain: c.Domain, Path: c.Path}.Call(pg)
				if err != nil {
					return err
				}
				removed++
			}
			L_debug("browser: removed session cookies", "count", removed)
		}
		return nil
	})
	if err != nil {
		L_warn("browser: clear cookies", "mode", mode, "error", err)
	}
}

// SetVisible minimizes or restores the window holding the page.
func (p *Page) SetVisible(visible bool) {
	state := proto.BrowserWindowStateMinimized
	if visible {
		state = proto.BrowserWindowStateNormal
	}
	err := p.call(func(pg *rod.Page) error {
		return pg.SetWindow(&proto.BrowserBounds{WindowState: state})
	})
	if err != nil {
		L_debug("browser: set window state", "state", state, "error", err)
	}
}

// Dismiss closes the tab and releases its browser. Safe to call twice.
func (p *Page) Dismiss() {
	p.dismissOnce.Do(func() {
		p.dismissed.Store(true)
		p.cancel()
		go func() {
			if err := p.raw.Close(); err != nil {
				L_debug("browser: close page", "error", err)
			}
			p.release()
		}()
	})
}

// isMainDocument reports whether a request loads the top-level document.
// Subframe and subresource requests never reach navigation interception.
func isMainDocument(typ proto.NetworkResourceType, frame, main proto.PageFrameID) bool {
	return typ == proto.NetworkResourceTypeDocument && frame == main
}

// reportsLoad reports whether a finished load of url is passed on as a
// loadstop. Chrome's own error pages are not, and neither is a blank page
// nobody asked for.
func reportsLoad(url string, blankRequested bool) bool {
	switch {
	case strings.HasPrefix(url, "chrome-error:"):
		return false
	case url == surface.BlankURL && !blankRequested:
		return false
	}
	return true
}

// rendersScheme reports whether Chromium loads url itself.
func rendersScheme(url string) bool {
	lower := strings.ToLower(url)
	for _, scheme := range renderedSchemes {
		if strings.HasPrefix(lower, scheme) {
			return true
		}
	}
	return false
}

// docRequests maps in-flight main document requests to their URLs, so a
// network failure can be reported against the page that failed.
type docRequests struct {
	mu   sync.Mutex
	urls map[proto.NetworkRequestID]string
}

func (d *docRequests) track(id proto.NetworkRequestID, url string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.urls == nil {
		d.urls = make(map[proto.NetworkRequestID]string)
	}
	d.urls[id] = url
}

func (d *docRequests) take(id proto.NetworkRequestID) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	url, ok := d.urls[id]
	delete(d.urls, id)
	return url, ok
}
