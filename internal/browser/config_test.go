package browser

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/go-rod/rod/lib/devices"
)

func TestResolveTimeout(t *testing.T) {
	tests := map[string]time.Duration{
		"":      30 * time.Second,
		"5s":    5 * time.Second,
		"bogus": 30 * time.Second,
		"-1s":   30 * time.Second,
	}
	for in, want := range tests {
		c := Config{Timeout: in}
		if got := c.ResolveTimeout(); got != want {
			t.Errorf("ResolveTimeout(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestResolveDevice(t *testing.T) {
	tests := map[string]devices.Device{
		"":         devices.Clear,
		"clear":    devices.Clear,
		"iPhone-X": devices.IPhoneX,
		"pixel-2":  devices.Pixel2,
		"toaster":  devices.Clear,
	}
	for in, want := range tests {
		c := Config{Device: in}
		if got := c.ResolveDevice(); got.Title != want.Title {
			t.Errorf("ResolveDevice(%q) = %q, want %q", in, got.Title, want.Title)
		}
	}
}

func TestResolveDir(t *testing.T) {
	dir := t.TempDir()
	c := Config{Dir: dir}
	got, err := c.ResolveDir()
	if err != nil {
		t.Fatal(err)
	}
	if got != dir {
		t.Errorf("ResolveDir = %q, want %q", got, dir)
	}
	if BinDir(dir) != filepath.Join(dir, "bin") || ProfilesDir(dir) != filepath.Join(dir, "profiles") {
		t.Error("unexpected layout under browser dir")
	}
}

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()
	if !c.StorageEnabled || c.Headless || c.Profile != "default" {
		t.Errorf("unexpected defaults: %+v", c)
	}
}
