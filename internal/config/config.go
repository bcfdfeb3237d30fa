// Package config loads and saves iab.json.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"dario.cat/mergo"

	"github.com/roelfdiedericks/inappbrowser/internal/browser"
	"github.com/roelfdiedericks/inappbrowser/internal/intent"
	. "github.com/roelfdiedericks/inappbrowser/internal/logging"
	"github.com/roelfdiedericks/inappbrowser/internal/paths"
	"github.com/roelfdiedericks/inappbrowser/internal/surface"
)

// Config represents iab.json
type Config struct {
	Logging       LoggingConfig       `json:"logging"`
	Browser       browser.Config      `json:"browser"`
	Allowlist     []string            `json:"allowlist"` // empty allows every URL
	Opener        OpenerConfig        `json:"opener"`
	Bridge        BridgeConfig        `json:"bridge"`
	ErrorPolicy   surface.ErrorPolicy `json:"errorPolicy"`
	ApplicationID string              `json:"applicationId"`
}

type LoggingConfig struct {
	Level string `json:"level"` // trace, debug, info, warn, error
}

// OpenerConfig selects the programs that receive OS handoffs.
type OpenerConfig struct {
	Command string `json:"command"` // empty = platform default (xdg-open, open)
	Dial    string `json:"dial"`    // tel: handler
	SMS     string `json:"sms"`     // sms: handler
}

type BridgeConfig struct {
	Listen         string   `json:"listen"`
	AllowedOrigins []string `json:"allowedOrigins"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Logging: LoggingConfig{Level: "info"},
		Browser: browser.DefaultConfig(),
		Bridge: BridgeConfig{
			Listen: "127.0.0.1:7690",
		},
		ErrorPolicy:   surface.PolicyPrompt,
		ApplicationID: "iab",
	}
}

// Load reads the active iab.json (./iab.json, then ~/.iab/iab.json) over
// the defaults. A missing file yields the defaults and an empty path.
func Load() (*Config, string, error) {
	path, err := paths.ConfigPath()
	if err != nil {
		return nil, "", err
	}
	if path == "" {
		L_debug("config: no iab.json found, using defaults")
		cfg := Default()
		return &cfg, "", nil
	}
	cfg, err := LoadFile(path)
	if err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}

// LoadFile reads path over the defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	cfg := Default()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	L_debug("config: loaded", "path", path, "allowlist", len(cfg.Allowlist))
	return &cfg, nil
}

// Merge applies the non-zero fields of overrides, typically command line
// flags, on top of c.
func (c *Config) Merge(overrides Config) error {
	if err := mergo.Merge(c, overrides, mergo.WithOverride); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return c.Validate()
}

// Validate checks enumerated values.
func (c *Config) Validate() error {
	switch c.ErrorPolicy {
	case "", surface.PolicyPrompt, surface.PolicyRetry, surface.PolicyClose:
	default:
		return fmt.Errorf("unknown errorPolicy %q", c.ErrorPolicy)
	}
	return nil
}

// Save writes c to path, keeping backups of the previous versions.
func (c *Config) Save(path string) error {
	return BackupAndWriteJSON(path, c, DefaultBackupCount)
}

// LogLevel returns the logging level constant.
func (c *Config) LogLevel() int {
	return ParseLevel(c.Logging.Level)
}

// Launcher builds the OS handoff launcher.
func (c *Config) Launcher() *intent.ExecLauncher {
	overrides := make(map[string]string)
	if c.Opener.Dial != "" {
		overrides["tel"] = c.Opener.Dial
	}
	if c.Opener.SMS != "" {
		overrides["sms"] = c.Opener.SMS
	}
	return intent.NewExecLauncher(c.Opener.Command, overrides)
}
