package intent

import (
	"errors"
	"fmt"
	"mime"
	"net/url"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	. "github.com/roelfdiedericks/inappbrowser/internal/logging"
)

// DefaultOpener returns the platform URL opener command.
func DefaultOpener() string {
	switch runtime.GOOS {
	case "darwin":
		return "open"
	case "windows":
		return "explorer"
	default:
		return "xdg-open"
	}
}

// DefaultGrace is how long Launch watches a freshly started opener for a
// "no handler" exit.
const DefaultGrace = 500 * time.Millisecond

// ExecLauncher hands intents to an external opener program.
type ExecLauncher struct {
	Command   string            // default opener, e.g. xdg-open
	Overrides map[string]string // per-scheme opener, e.g. "tel" -> a softphone
	// Grace bounds how long Launch waits for the opener to fail. An opener
	// still running after it counts as launched and is left alone.
	Grace time.Duration
}

// NewExecLauncher creates a launcher using command, or the platform
// default when command is empty.
func NewExecLauncher(command string, overrides map[string]string) *ExecLauncher {
	if command == "" {
		command = DefaultOpener()
	}
	return &ExecLauncher{Command: command, Overrides: overrides, Grace: DefaultGrace}
}

// Launch starts the opener with the intent data as its only argument and
// waits at most Grace for it to exit. A missing opener or xdg-open's
// "no handler" exit codes are reported as *ActivityNotFoundError. The
// opener is never killed; callers on the UI loop must launch off it.
func (l *ExecLauncher) Launch(in Intent) error {
	command := l.Command
	if u, err := url.Parse(in.Data); err == nil {
		if c := l.Overrides[strings.ToLower(u.Scheme)]; c != "" {
			command = c
		}
	}

	path, err := exec.LookPath(command)
	if err != nil {
		return &ActivityNotFoundError{URL: in.Data, Intent: in, Cause: err}
	}

	cmd := exec.Command(path, in.Data)
	env := cmd.Environ()
	if in.MIME != "" {
		env = append(env, "IAB_MIME_TYPE="+in.MIME)
	}
	for k, v := range in.Extras {
		env = append(env, "IAB_EXTRA_"+k+"="+v)
	}
	cmd.Env = env

	L_debug("intent: launching", "command", path, "intent", in.String())
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", command, err)
	}

	exited := make(chan error, 1)
	go func() { exited <- cmd.Wait() }()

	grace := l.Grace
	if grace <= 0 {
		grace = DefaultGrace
	}
	timer := time.NewTimer(grace)
	defer timer.Stop()

	select {
	case err := <-exited:
		return openerResult(in, err)
	case <-timer.C:
		go func() {
			if err := <-exited; err != nil {
				L_debug("intent: opener exited", "command", path, "error", err)
			}
		}()
		L_trace("intent: opener still running, handed off", "command", path)
		return nil
	}
}

func openerResult(in Intent, err error) error {
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	// xdg-open: 3 = no tool found, 4 = action failed
	if errors.As(err, &exitErr) && (exitErr.ExitCode() == 3 || exitErr.ExitCode() == 4) {
		return &ActivityNotFoundError{URL: in.Data, Intent: in, Cause: err}
	}
	return err
}

// FileMimeResolver sniffs file: URIs with mimetype, falling back to the
// extension table when the file cannot be read.
type FileMimeResolver struct{}

// ResolveMimeType returns the MIME type of the file behind uri, or "" when
// uri is not a file: URI.
func (FileMimeResolver) ResolveMimeType(uri string) string {
	u, err := url.Parse(uri)
	if err != nil || u.Scheme != "file" {
		return ""
	}
	path := filepath.FromSlash(u.Path)

	mt, err := mimetype.DetectFile(path)
	if err == nil {
		return mt.String()
	}
	L_debug("intent: mime sniff failed, using extension", "path", path, "error", err)
	if byExt := mime.TypeByExtension(filepath.Ext(path)); byExt != "" {
		return byExt
	}
	return "application/octet-stream"
}
