package main

import (
	"fmt"

	"github.com/alecthomas/kong"

	"github.com/roelfdiedericks/inappbrowser/internal/config"
	. "github.com/roelfdiedericks/inappbrowser/internal/logging"
)

var version = "0.1.0"

// CLI is the iab command line.
type CLI struct {
	Debug      bool   `short:"d" help:"Enable debug logging."`
	ConfigFile string `name:"config" short:"c" type:"path" help:"Config file (default ./iab.json, then ~/.iab/iab.json)."`

	Open     OpenCmd     `cmd:"" help:"Open a URL and print its events as JSON lines."`
	Serve    ServeCmd    `cmd:"" help:"Serve the websocket bridge for remote hosts."`
	Config   ConfigCmd   `cmd:"" help:"Manage iab.json."`
	Profiles ProfilesCmd `cmd:"" help:"Manage persistent browser profiles."`
	Version  VersionCmd  `cmd:"" help:"Print the version."`
}

// load reads the config named by --config, or the default lookup, and
// applies its log level unless --debug is set.
func (c *CLI) load() (*config.Config, string, error) {
	var (
		cfg  *config.Config
		path = c.ConfigFile
		err  error
	)
	if path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, path, err = config.Load()
	}
	if err != nil {
		return nil, "", err
	}
	if !c.Debug {
		SetLevel(cfg.LogLevel())
	}
	L_object("config", cfg)
	return cfg, path, nil
}

type VersionCmd struct{}

func (VersionCmd) Run() error {
	fmt.Printf("iab %s\n", version)
	return nil
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("iab"),
		kong.Description("In-app browser: routes URLs, drives a managed Chromium surface and relays its events."),
		kong.UsageOnError(),
	)

	level := LevelInfo
	if cli.Debug {
		level = LevelDebug
	}
	Init(&LogConfig{
		Level:      level,
		TimeFormat: "15:04:05",
		ShowCaller: cli.Debug,
	})

	ctx.FatalIfErrorf(ctx.Run(&cli))
}
