package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	. "github.com/roelfdiedericks/inappbrowser/internal/logging"
	"github.com/roelfdiedericks/inappbrowser/internal/relay"
	"github.com/roelfdiedericks/inappbrowser/internal/surface"
	"github.com/roelfdiedericks/inappbrowser/internal/tui"
)

const closeWait = 5 * time.Second

// OpenCmd opens one URL and prints every delivery on its channel until the
// surface exits or the command is interrupted.
type OpenCmd struct {
	URL      string `arg:"" help:"URL to open."`
	Target   string `short:"t" default:"_blank" help:"Target: _self, _blank or _system."`
	Features string `short:"f" help:"Feature string, e.g. location=yes,zoom=no,clearcache=yes."`
	Headless bool   `help:"Run Chromium without a window."`
	Profile  string `short:"p" help:"Persistent profile name."`
}

type delivery struct {
	Status       string          `json:"status"`
	KeepCallback bool            `json:"keepCallback"`
	Message      json.RawMessage `json:"message,omitempty"`
}

func (c *OpenCmd) Run(cli *CLI) error {
	cfg, path, err := cli.load()
	if err != nil {
		return err
	}
	if err := cfg.Merge(configOverrides(c.Headless, c.Profile)); err != nil {
		return err
	}

	out := newLineWriter(os.Stdout)
	chrome := tui.New(tui.Options{
		Interactive: cfg.ErrorPolicy == surface.PolicyPrompt && interactive(),
	})
	rt, err := newApp(cfg, path, chrome, primaryView{out: out})
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	done := make(chan struct{})
	var doneOnce sync.Once
	first := make(chan struct{}, 1)
	cb := func(res relay.Result) {
		out.write(delivery{
			Status:       res.Status.String(),
			KeepCallback: res.KeepCallback,
			Message:      res.Message,
		})
		select {
		case first <- struct{}{}:
		default:
		}
		if !res.KeepCallback {
			doneOnce.Do(func() { close(done) })
		}
	}

	if err := rt.plugin.Open(c.URL, c.Target, c.Features, cb); err != nil {
		return err
	}

	// handoffs and primary view navigations answer once and open nothing
	select {
	case <-first:
	case <-ctx.Done():
		return nil
	}
	if _, ok := rt.plugin.Session(); !ok {
		return nil
	}

	select {
	case <-done:
		L_debug("iab: surface exited")
	case <-ctx.Done():
		L_info("iab: interrupted, closing")
		if err := rt.plugin.Close(); err != nil {
			return err
		}
		select {
		case <-done:
		case <-time.After(closeWait):
			L_warn("iab: no exit event, giving up")
		}
	}
	return nil
}
