package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/roelfdiedericks/inappbrowser/internal/bridge"
	"github.com/roelfdiedericks/inappbrowser/internal/browser"
	"github.com/roelfdiedericks/inappbrowser/internal/config"
	. "github.com/roelfdiedericks/inappbrowser/internal/logging"
	"github.com/roelfdiedericks/inappbrowser/internal/surface"
	"github.com/roelfdiedericks/inappbrowser/internal/tui"
)

// ServeCmd runs the websocket bridge until interrupted.
type ServeCmd struct {
	Listen   string `short:"l" help:"Listen address (default from config, 127.0.0.1:7690)."`
	Headless bool   `help:"Run Chromium without a window."`
	Profile  string `short:"p" help:"Persistent profile name."`
	Chrome   bool   `help:"Draw the surface chrome on stderr."`
}

func (c *ServeCmd) Run(cli *CLI) error {
	cfg, path, err := cli.load()
	if err != nil {
		return err
	}
	overrides := configOverrides(c.Headless, c.Profile)
	overrides.Bridge.Listen = c.Listen
	if err := cfg.Merge(overrides); err != nil {
		return err
	}

	var chrome surface.Chrome = surface.NopChrome{}
	if c.Chrome {
		chrome = tui.New(tui.Options{})
	}

	out := newLineWriter(os.Stdout)
	rt, err := newApp(cfg, path, chrome, primaryView{out: out})
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := bridge.New(rt.plugin, bridge.Config{
		Listen:         cfg.Bridge.Listen,
		AllowedOrigins: cfg.Bridge.AllowedOrigins,
	})
	L_info("iab: bridge ready", "listen", cfg.Bridge.Listen)
	return srv.ListenAndServe(ctx)
}

// configOverrides turns browser flags into a config to merge. Zero values
// leave the file settings alone.
func configOverrides(headless bool, profile string) config.Config {
	return config.Config{
		Browser: browser.Config{
			Headless: headless,
			Profile:  profile,
		},
	}
}
