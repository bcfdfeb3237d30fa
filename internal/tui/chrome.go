// Package tui renders the managed surface's chrome in the terminal: a
// title bar with navigation and loading state, the partner redirect panel
// and the retry-or-close dialog for failed loads.
package tui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	. "github.com/roelfdiedericks/inappbrowser/internal/logging"
	"github.com/roelfdiedericks/inappbrowser/internal/surface"
)

// ConfirmFunc asks a yes/no question. It blocks until answered.
type ConfirmFunc func(title, description string) (bool, error)

// Options configures a Chrome.
type Options struct {
	Out         io.Writer   // defaults to os.Stderr
	Width       int         // frame width, defaults to 72
	Interactive bool        // ask on load errors instead of closing
	Confirm     ConfirmFunc // defaults to a huh confirm form
}

// Chrome implements surface.Chrome by redrawing a frame whenever its
// state changes.
type Chrome struct {
	out         io.Writer
	width       int
	interactive bool
	confirm     ConfirmFunc

	mu         sync.Mutex
	title      string
	loading    bool
	canBack    bool
	canForward bool
	zoom       bool
	meta       *surface.Metadata
	lastError  string
}

var _ surface.Chrome = (*Chrome)(nil)

// New creates a terminal chrome.
func New(opts Options) *Chrome {
	c := &Chrome{
		out:         opts.Out,
		width:       opts.Width,
		interactive: opts.Interactive,
		confirm:     opts.Confirm,
	}
	if c.out == nil {
		c.out = os.Stderr
	}
	if c.width <= 0 {
		c.width = 72
	}
	if c.confirm == nil {
		c.confirm = huhConfirm
	}
	return c
}

func huhConfirm(title, description string) (bool, error) {
	retry := true
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description(description).
				Affirmative("Retry").
				Negative("Close").
				Value(&retry),
		),
	)
	if err := form.Run(); err != nil {
		return false, err
	}
	return retry, nil
}

func (c *Chrome) SetLoading(loading bool) {
	c.update(func() { c.loading = loading })
}

func (c *Chrome) SetNavigation(canGoBack, canGoForward bool) {
	c.update(func() {
		c.canBack = canGoBack
		c.canForward = canGoForward
	})
}

func (c *Chrome) SetTitle(title string) {
	c.update(func() { c.title = title })
}

// UpdateInterface switches the frame to the partner redirect layout.
func (c *Chrome) UpdateInterface(meta surface.Metadata) {
	c.update(func() {
		c.title = meta.StoreTitle
		c.meta = &meta
	})
}

func (c *Chrome) SetZoomControls(enabled bool) {
	c.update(func() { c.zoom = enabled })
}

// Coupon returns the coupon code offered by the redirect page, if any.
func (c *Chrome) Coupon() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.meta == nil {
		return ""
	}
	return c.meta.CouponCode
}

// PromptLoadError asks the user whether to retry. The question runs on its
// own goroutine so the UI loop keeps going while it is open.
func (c *Chrome) PromptLoadError(url string, code int, message string, decide func(retry bool)) {
	c.update(func() {
		c.loading = false
		c.lastError = fmt.Sprintf("%s (%d)", message, code)
	})

	if !c.interactive {
		L_info("tui: load error, closing", "url", url, "code", code, "message", message)
		decide(false)
		return
	}

	go func() {
		retry, err := c.confirm(
			"Page failed to load",
			fmt.Sprintf("%s\n%s\n\nRetry or close?", url, message),
		)
		if err != nil {
			L_debug("tui: load error prompt", "error", err)
			retry = false
		}
		if retry {
			c.update(func() { c.lastError = "" })
		}
		decide(retry)
	}()
}

func (c *Chrome) update(fn func()) {
	c.mu.Lock()
	fn()
	view := c.render()
	c.mu.Unlock()

	if _, err := fmt.Fprintln(c.out, view); err != nil {
		L_trace("tui: write", "error", err)
	}
}

// View returns the current frame.
func (c *Chrome) View() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.render()
}

func (c *Chrome) render() string {
	inner := c.width - 4

	back := navDisabledStyle.Render("◀")
	if c.canBack {
		back = navEnabledStyle.Render("◀")
	}
	forward := navDisabledStyle.Render("▶")
	if c.canForward {
		forward = navEnabledStyle.Render("▶")
	}

	title := c.title
	if c.meta != nil {
		title = strings.ToUpper(title)
	}
	bar := back + " " + forward + "  " + titleStyle.Render(truncate(title, inner-8))
	if c.loading {
		bar += "  " + loadingStyle.Render("loading…")
	}

	lines := []string{bar}

	if c.meta != nil {
		store := storeStyle.Render(c.meta.StoreTitle)
		cashback := cashbackStyle
		if c.meta.MobileFriendly == "false" {
			cashback = cashback.Foreground(secondaryColor).Strikethrough(true)
		}
		row := store
		if c.meta.Cashback != "" {
			row += "  " + cashback.Render(c.meta.Cashback)
		}
		lines = append(lines, row)
		if c.meta.CouponCode != "" {
			lines = append(lines, couponStyle.Render("coupon: "+c.meta.CouponCode))
		}
	}

	if c.lastError != "" {
		lines = append(lines, errorStyle.Render(c.lastError))
	}

	if c.zoom {
		lines = append(lines, helpStyle.Render("zoom: ctrl +/-"))
	}

	return frameStyle.Width(c.width).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func truncate(s string, max int) string {
	if max <= 0 || lipgloss.Width(s) <= max {
		return s
	}
	r := []rune(s)
	if len(r) > max-1 {
		r = r[:max-1]
	}
	return string(r) + "…"
}
