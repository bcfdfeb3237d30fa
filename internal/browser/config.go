package browser

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/go-rod/rod/lib/devices"

	"github.com/roelfdiedericks/inappbrowser/internal/paths"
)

// Config holds browser configuration
type Config struct {
	Dir            string `json:"dir"`            // Browser data directory (empty = ~/.iab/browser)
	AutoDownload   bool   `json:"autoDownload"`   // Download Chromium if missing
	Headless       bool   `json:"headless"`       // Run without a window (tests, CI)
	NoSandbox      bool   `json:"noSandbox"`      // Disable sandbox (needed for Docker/root)
	Stealth        bool   `json:"stealth"`        // Hide automation fingerprints
	Device         string `json:"device"`         // Device emulation: "clear", "iphone-x", "pixel-2", ...
	Profile        string `json:"profile"`        // Persistent profile name
	StorageEnabled bool   `json:"storageEnabled"` // Keep cookies and storage between sessions
	Timeout        string `json:"timeout"`        // CDP call timeout (e.g., "30s")
	ChromeCDP      string `json:"chromeCDP"`      // Attach to an existing Chrome instead of launching
	WindowWidth    int    `json:"windowWidth"`
	WindowHeight   int    `json:"windowHeight"`
}

// DefaultConfig returns the default browser configuration
func DefaultConfig() Config {
	return Config{
		AutoDownload:   true,
		Headless:       false,
		Stealth:        true,
		Device:         "clear",
		Profile:        "default",
		StorageEnabled: true,
		Timeout:        "30s",
		WindowWidth:    1280,
		WindowHeight:   900,
	}
}

// ResolveDir returns the browser directory, defaulting to ~/.iab/browser
func (c *Config) ResolveDir() (string, error) {
	if c.Dir != "" {
		return paths.ExpandTilde(c.Dir)
	}
	return paths.BrowserDir()
}

// BinDir is the Chromium download directory under dir.
func BinDir(dir string) string {
	return filepath.Join(dir, "bin")
}

// ProfilesDir is the persistent profiles directory under dir.
func ProfilesDir(dir string) string {
	return filepath.Join(dir, "profiles")
}

// ResolveTimeout returns the timeout as a Duration
func (c *Config) ResolveTimeout() time.Duration {
	if c.Timeout == "" {
		return 30 * time.Second
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// ResolveDevice returns the devices.Device for the configured device name.
// Unknown names fall back to "clear", which lets the page fill the window.
func (c *Config) ResolveDevice() devices.Device {
	switch strings.ToLower(c.Device) {
	case "", "clear":
		return devices.Clear
	case "laptop", "laptop-mdpi":
		return devices.LaptopWithMDPIScreen
	case "laptop-hidpi":
		return devices.LaptopWithHiDPIScreen
	case "iphone-x":
		return devices.IPhoneX
	case "iphone-8":
		return devices.IPhone6or7or8
	case "iphone-se":
		return devices.IPhone5orSE
	case "ipad":
		return devices.IPad
	case "ipad-mini":
		return devices.IPadMini
	case "pixel-2":
		return devices.Pixel2
	case "pixel-2-xl":
		return devices.Pixel2XL
	case "galaxy-s5":
		return devices.GalaxyS5
	case "galaxy-fold":
		return devices.GalaxyFold
	case "nexus-5":
		return devices.Nexus5
	case "nexus-7":
		return devices.Nexus7
	case "moto-g4":
		return devices.MotoG4
	default:
		return devices.Clear
	}
}
