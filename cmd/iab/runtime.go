package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/mattn/go-isatty"

	"github.com/roelfdiedericks/inappbrowser/internal/allowlist"
	"github.com/roelfdiedericks/inappbrowser/internal/browser"
	"github.com/roelfdiedericks/inappbrowser/internal/config"
	"github.com/roelfdiedericks/inappbrowser/internal/iab"
	"github.com/roelfdiedericks/inappbrowser/internal/intent"
	. "github.com/roelfdiedericks/inappbrowser/internal/logging"
	"github.com/roelfdiedericks/inappbrowser/internal/surface"
)

// app is a plugin wired to Chromium, the allowlist and the OS opener,
// with the config file watched for allowlist and log level changes.
type app struct {
	manager *browser.Manager
	allow   *allowlist.Matcher
	plugin  *iab.Plugin
	watcher *config.Watcher
}

func newApp(cfg *config.Config, path string, chrome surface.Chrome, primary iab.PrimaryView) (*app, error) {
	mgr, err := browser.NewManager(cfg.Browser)
	if err != nil {
		return nil, err
	}
	if err := mgr.EnsureReady(); err != nil {
		return nil, fmt.Errorf("browser not ready: %w", err)
	}

	rt := &app{
		manager: mgr,
		allow:   allowlist.New(cfg.Allowlist),
	}
	rt.plugin = iab.New(iab.Options{
		Surfaces:      mgr,
		Chrome:        chrome,
		Allowlist:     allowlist.OrAllowAll{Matcher: rt.allow},
		Launcher:      cfg.Launcher(),
		Mimes:         intent.FileMimeResolver{},
		PrimaryView:   primary,
		ApplicationID: cfg.ApplicationID,
		ErrorPolicy:   cfg.ErrorPolicy,
	})

	if path != "" {
		w, err := config.Watch(path, rt.apply)
		if err != nil {
			L_warn("iab: config watch unavailable", "path", path, "error", err)
		} else {
			rt.watcher = w
		}
	}
	return rt, nil
}

// apply takes the settings that can change while running.
func (rt *app) apply(cfg *config.Config) {
	rt.allow.Update(cfg.Allowlist)
	SetLevel(cfg.LogLevel())
}

func (rt *app) Close() {
	if rt.watcher != nil {
		rt.watcher.Stop()
	}
	rt.plugin.Destroy()
	rt.manager.Close()
}

// interactive reports whether a user can answer prompts.
func interactive() bool {
	return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
}

// lineWriter writes JSON values one per line.
type lineWriter struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func newLineWriter(w io.Writer) *lineWriter {
	return &lineWriter{enc: json.NewEncoder(w)}
}

func (l *lineWriter) write(v any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.enc.Encode(v); err != nil {
		L_debug("iab: write output", "error", err)
	}
}

// primaryView stands in for the host's own view by reporting the URL.
type primaryView struct {
	out *lineWriter
}

func (p primaryView) Navigate(url string) {
	p.out.write(map[string]string{"type": "primaryview", "url": url})
}
