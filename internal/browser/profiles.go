package browser

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	. "github.com/roelfdiedericks/inappbrowser/internal/logging"
)

// ProfileInfo describes one persistent profile on disk
type ProfileInfo struct {
	Name     string    `json:"name"`
	Path     string    `json:"path"`
	Size     int64     `json:"size"`
	LastUsed time.Time `json:"lastUsed"`
}

// ProfileManager owns the Chromium user-data directories. Persistent
// profiles live under profilesDir; ephemeral ones are temp directories
// removed when their session ends.
type ProfileManager struct {
	profilesDir string
}

// NewProfileManager creates a profile manager
func NewProfileManager(profilesDir string) *ProfileManager {
	return &ProfileManager{profilesDir: profilesDir}
}

// Dir returns the profiles directory
func (m *ProfileManager) Dir() string {
	return m.profilesDir
}

// EnsureProfile creates the named profile directory if needed
func (m *ProfileManager) EnsureProfile(name string) (string, error) {
	profileDir := m.profileDir(name)
	if err := os.MkdirAll(profileDir, 0750); err != nil {
		return "", fmt.Errorf("failed to create profile directory: %w", err)
	}
	L_debug("browser: ensured profile", "name", name, "path", profileDir)
	return profileDir, nil
}

// Ephemeral creates a throwaway profile. The returned cleanup removes it.
func (m *ProfileManager) Ephemeral() (string, func(), error) {
	dir, err := os.MkdirTemp("", "iab-profile-*")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create ephemeral profile: %w", err)
	}
	cleanup := func() {
		if err := os.RemoveAll(dir); err != nil {
			L_warn("browser: failed to remove ephemeral profile", "path", dir, "error", err)
		}
	}
	L_debug("browser: ephemeral profile", "path", dir)
	return dir, cleanup, nil
}

func (m *ProfileManager) profileDir(name string) string {
	if name == "" {
		name = "default"
	}
	return filepath.Join(m.profilesDir, name)
}

// ProfileExists checks if a profile exists
func (m *ProfileManager) ProfileExists(name string) bool {
	info, err := os.Stat(m.profileDir(name))
	return err == nil && info.IsDir()
}

// ListProfiles returns every persistent profile
func (m *ProfileManager) ListProfiles() ([]ProfileInfo, error) {
	entries, err := os.ReadDir(m.profilesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []ProfileInfo{}, nil
		}
		return nil, fmt.Errorf("failed to read profiles directory: %w", err)
	}

	var profiles []ProfileInfo
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		profiles = append(profiles, m.profileInfo(entry.Name(), filepath.Join(m.profilesDir, entry.Name())))
	}
	return profiles, nil
}

func (m *ProfileManager) profileInfo(name, path string) ProfileInfo {
	info := ProfileInfo{Name: name, Path: path}
	_ = filepath.Walk(path, func(_ string, fi os.FileInfo, err error) error {
		if err != nil {
			return nil // unreadable entries don't count
		}
		if !fi.IsDir() {
			info.Size += fi.Size()
		}
		if fi.ModTime().After(info.LastUsed) {
			info.LastUsed = fi.ModTime()
		}
		return nil
	})
	return info
}

// ClearProfile removes cookies, cache and storage but keeps the directory
func (m *ProfileManager) ClearProfile(name string) error {
	if !m.ProfileExists(name) {
		return fmt.Errorf("profile does not exist: %s", name)
	}

	profileDir := m.profileDir(name)
	entries, err := os.ReadDir(profileDir)
	if err != nil {
		return fmt.Errorf("failed to read profile directory: %w", err)
	}
	for _, entry := range entries {
		p := filepath.Join(profileDir, entry.Name())
		if err := os.RemoveAll(p); err != nil {
			L_warn("browser: failed to remove profile entry", "path", p, "error", err)
		}
	}

	L_info("browser: cleared profile", "name", name)
	return nil
}

// cleanupStaleLocks removes Chrome lock files left behind by crashed
// sessions; Chrome refuses to start while they exist.
func cleanupStaleLocks(profileDir string) {
	for _, lockFile := range []string{"SingletonLock", "SingletonCookie", "SingletonSocket"} {
		lockPath := filepath.Join(profileDir, lockFile)
		if _, err := os.Lstat(lockPath); err != nil {
			continue
		}
		if err := os.Remove(lockPath); err != nil {
			L_warn("browser: failed to remove stale lock file", "file", lockPath, "error", err)
		} else {
			L_info("browser: removed stale lock file", "file", lockPath)
		}
	}
}

// FormatSize returns a human-readable size string
func FormatSize(bytes int64) string {
	const (
		KB = 1024
		MB = 1024 * KB
		GB = 1024 * MB
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
