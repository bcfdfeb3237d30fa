package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	. "github.com/roelfdiedericks/inappbrowser/internal/logging"
	"github.com/roelfdiedericks/inappbrowser/internal/paths"
)

// DefaultBackupCount is the number of previous iab.json versions kept.
const DefaultBackupCount = 5

// Backup describes one saved previous version of a config file.
type Backup struct {
	Path    string
	Index   int // 0 = .bak (newest), 1 = .bak.1, ...
	ModTime time.Time
	Size    int64
}

func backupPath(path string, index int) string {
	if index == 0 {
		return path + ".bak"
	}
	return fmt.Sprintf("%s.bak.%d", path, index)
}

// writeAtomic writes data through a temp file in the same directory and a
// rename, so readers never see a partial file.
func writeAtomic(path string, data []byte, perm os.FileMode) (err error) {
	if err := paths.EnsureParentDir(path); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".iab-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// BackupAndWriteJSON rotates backups of path, then writes v as indented
// JSON atomically.
func BackupAndWriteJSON(path string, v any, maxBackups int) error {
	if maxBackups <= 0 {
		maxBackups = DefaultBackupCount
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	data = append(data, '\n')

	if current, err := os.ReadFile(path); err == nil {
		rotateBackups(path, maxBackups)
		if err := os.WriteFile(backupPath(path, 0), current, 0600); err != nil {
			L_warn("config: backup failed, continuing with save", "error", err)
		}
	}

	if err := writeAtomic(path, data, 0600); err != nil {
		return err
	}
	L_debug("config: saved", "path", path)
	return nil
}

// rotateBackups shifts .bak.N-1 to .bak.N down to .bak to .bak.1, dropping
// the oldest.
func rotateBackups(path string, maxBackups int) {
	if maxBackups <= 1 {
		return
	}
	oldest := backupPath(path, maxBackups-1)
	if err := os.Remove(oldest); err != nil && !os.IsNotExist(err) {
		L_trace("config: remove oldest backup", "path", oldest, "error", err)
	}
	for i := maxBackups - 2; i >= 0; i-- {
		src, dst := backupPath(path, i), backupPath(path, i+1)
		if err := os.Rename(src, dst); err != nil && !os.IsNotExist(err) {
			L_trace("config: rotate backup", "src", src, "dst", dst, "error", err)
		}
	}
}

// Backups lists the backups of path, newest first.
func Backups(path string) []Backup {
	var out []Backup
	for i := 0; i < 100; i++ {
		p := backupPath(path, i)
		info, err := os.Stat(p)
		if err != nil {
			if i == 0 {
				continue
			}
			break
		}
		out = append(out, Backup{Path: p, Index: i, ModTime: info.ModTime(), Size: info.Size()})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ModTime.After(out[j].ModTime)
	})
	return out
}

// RestoreBackup replaces path with backup index after checking that it
// parses. The current file is backed up first.
func RestoreBackup(path string, index int) error {
	src := backupPath(path, index)
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("backup %d: %w", index, err)
	}
	var probe Config
	if err := json.Unmarshal(data, &probe); err != nil {
		return fmt.Errorf("backup %d is not a valid config: %w", index, err)
	}

	if current, err := os.ReadFile(path); err == nil {
		rotateBackups(path, DefaultBackupCount)
		if err := os.WriteFile(backupPath(path, 0), current, 0600); err != nil {
			L_warn("config: failed to back up current before restore", "error", err)
		}
	}

	if err := writeAtomic(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write restored config: %w", err)
	}
	L_info("config: restored backup", "from", src, "to", path)
	return nil
}
