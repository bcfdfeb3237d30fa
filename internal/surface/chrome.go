package surface

import (
	. "github.com/roelfdiedericks/inappbrowser/internal/logging"
)

// LoadingTitle is shown while the redirect interface waits for page
// metadata.
const LoadingTitle = "LOADING..."

// Metadata is what a partner redirect page exposes for the chrome.
type Metadata struct {
	StoreTitle     string `json:"storeTitle"`
	Cashback       string `json:"cashbackString"`
	CouponCode     string `json:"couponCode"`
	MobileFriendly string `json:"mobileFriendly"`
}

// Chrome is the UI around the surface (title bar, back/forward buttons,
// progress indicator, error dialog). Calls arrive on the UI loop.
type Chrome interface {
	SetLoading(loading bool)
	SetNavigation(canGoBack, canGoForward bool)
	SetTitle(title string)
	UpdateInterface(meta Metadata)
	SetZoomControls(enabled bool)
	// PromptLoadError asks the user to retry or close after a failed
	// load. decide may be called from any goroutine, at most once.
	PromptLoadError(url string, code int, message string, decide func(retry bool))
}

// NopChrome logs chrome updates and closes on load errors.
type NopChrome struct{}

func (NopChrome) SetLoading(bool) {}
func (NopChrome) SetNavigation(bool, bool) {}
func (NopChrome) SetZoomControls(bool) {}
func (NopChrome) SetTitle(title string) { L_debug("chrome: title", "title", title) }
func (NopChrome) UpdateInterface(meta Metadata) { L_debug("chrome: interface", "store", meta.StoreTitle) }
func (NopChrome) PromptLoadError(url string, code int, message string, decide func(bool)) {
	L_debug("chrome: load error, closing", "url", url, "code", code, "message", message)
	decide(false)
}
