// Package browser renders managed surfaces in Chromium through the Chrome
// DevTools Protocol.
package browser

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/roelfdiedericks/inappbrowser/internal/features"
	. "github.com/roelfdiedericks/inappbrowser/internal/logging"
	"github.com/roelfdiedericks/inappbrowser/internal/surface"
)

// Manager launches Chromium and hands out pages as managed surfaces.
// With storage enabled all sessions share one browser on the persistent
// profile; otherwise every session gets its own browser on a throwaway
// profile.
type Manager struct {
	config     Config
	dir        string
	downloader *Downloader
	profiles   *ProfileManager

	mu     sync.Mutex
	shared *rod.Browser
}

// NewManager creates a manager. Nothing is launched until the first
// surface is requested.
func NewManager(cfg Config) (*Manager, error) {
	dir, err := cfg.ResolveDir()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve browser directory: %w", err)
	}
	m := &Manager{
		config:     cfg,
		dir:        dir,
		downloader: NewDownloader(BinDir(dir)),
		profiles:   NewProfileManager(ProfilesDir(dir)),
	}
	L_debug("browser: manager initialized",
		"dir", dir,
		"autoDownload", cfg.AutoDownload,
		"storage", cfg.StorageEnabled,
		"stealth", cfg.Stealth,
	)
	return m, nil
}

// Config returns the current configuration
func (m *Manager) Config() Config {
	return m.config
}

// Profiles returns the profile manager
func (m *Manager) Profiles() *ProfileManager {
	return m.profiles
}

// EnsureReady makes sure a Chromium binary is available, downloading it
// when auto-download is on.
func (m *Manager) EnsureReady() error {
	if m.config.ChromeCDP != "" {
		return nil
	}
	if !m.config.AutoDownload {
		_, err := m.downloader.FindExistingBrowser()
		return err
	}
	_, err := m.downloader.EnsureBrowser()
	return err
}

func (m *Manager) binary() (string, error) {
	if !m.config.AutoDownload {
		return m.downloader.FindExistingBrowser()
	}
	return m.downloader.EnsureBrowser()
}

// launch starts a Chromium instance on profileDir
func (m *Manager) launch(profileDir string) (*rod.Browser, error) {
	binPath, err := m.binary()
	if err != nil {
		return nil, fmt.Errorf("failed to ensure browser: %w", err)
	}

	cleanupStaleLocks(profileDir)

	L_debug("browser: launching", "profileDir", profileDir, "headless", m.config.Headless)

	l := launcher.New().
		Bin(binPath).
		UserDataDir(profileDir).
		Headless(m.config.Headless).
		Set("disable-dev-shm-usage")

	if !m.config.Headless {
		l = l.Set("window-size", strconv.Itoa(m.config.WindowWidth)+","+strconv.Itoa(m.config.WindowHeight))
	}
	if m.config.Stealth {
		l = l.Set("disable-blink-features", "AutomationControlled")
	}
	if m.config.NoSandbox {
		l = l.Set("no-sandbox")
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}
	// rod defaults to LaptopWithMDPIScreen, which pins the viewport
	b.DefaultDevice(m.config.ResolveDevice())

	L_info("browser: launched", "controlURL", controlURL)
	return b, nil
}

// connectToChrome attaches to a browser the user already runs
func (m *Manager) connectToChrome() (*rod.Browser, error) {
	L_info("browser: connecting to Chrome", "endpoint", m.config.ChromeCDP)
	b := rod.New().ControlURL(m.config.ChromeCDP)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to Chrome at %s: %w", m.config.ChromeCDP, err)
	}
	return b, nil
}

func alive(b *rod.Browser) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			L_debug("browser: connection check panicked, browser is dead", "panic", r)
			ok = false
		}
	}()
	_, err := b.Call(context.Background(), "", "Browser.getVersion", nil)
	return err == nil
}

// sharedBrowser returns the long-lived browser, relaunching it if the
// process died.
func (m *Manager) sharedBrowser() (*rod.Browser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.shared != nil {
		if alive(m.shared) {
			return m.shared, nil
		}
		L_debug("browser: shared browser disconnected, relaunching")
		m.shared = nil
	}

	var b *rod.Browser
	var err error
	if m.config.ChromeCDP != "" {
		b, err = m.connectToChrome()
	} else {
		var profileDir string
		profileDir, err = m.profiles.EnsureProfile(m.config.Profile)
		if err != nil {
			return nil, err
		}
		b, err = m.launch(profileDir)
	}
	if err != nil {
		return nil, err
	}
	m.shared = b
	return b, nil
}

// acquire returns a browser for one session and the function that
// releases it when the session ends.
func (m *Manager) acquire() (*rod.Browser, func(), error) {
	if m.config.StorageEnabled || m.config.ChromeCDP != "" {
		b, err := m.sharedBrowser()
		return b, func() {}, err
	}

	dir, cleanup, err := m.profiles.Ephemeral()
	if err != nil {
		return nil, nil, err
	}
	b, err := m.launch(dir)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return b, func() {
		if err := b.Close(); err != nil {
			L_debug("browser: close ephemeral browser", "error", err)
		}
		cleanup()
	}, nil
}

// NewSurface opens a page for a new session. It implements
// surface.Factory and runs off the UI loop, since the first call may
// download and launch Chromium.
func (m *Manager) NewSurface(opts features.Options, events surface.Events) (surface.Surface, error) {
	b, release, err := m.acquire()
	if err != nil {
		return nil, err
	}

	var page *rod.Page
	if m.config.Stealth {
		page, err = stealth.Page(b)
	} else {
		page, err = b.Page(proto.TargetCreateTarget{})
	}
	if err != nil {
		release()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	p := newPage(page, events, m.config.ResolveTimeout(), release)
	if err := p.start(); err != nil {
		p.Dismiss()
		return nil, err
	}
	L_debug("browser: surface ready", "target", page.TargetID, "zoom", opts.ZoomControls)
	return p, nil
}

// Close shuts down the shared browser. Attached external browsers are
// left running.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.shared == nil {
		return
	}
	if m.config.ChromeCDP == "" {
		if err := m.shared.Close(); err != nil {
			L_debug("browser: close", "error", err)
		}
	}
	m.shared = nil
	L_info("browser: closed")
}
