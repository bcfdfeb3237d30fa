package iab

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/roelfdiedericks/inappbrowser/internal/inject"
	. "github.com/roelfdiedericks/inappbrowser/internal/logging"
	"github.com/roelfdiedericks/inappbrowser/internal/relay"
)

// Action names accepted by Exec.
const (
	ActionOpen             = "open"
	ActionClose            = "close"
	ActionShow             = "show"
	ActionInjectScriptCode = "injectScriptCode"
	ActionInjectScriptFile = "injectScriptFile"
	ActionInjectStyleCode  = "injectStyleCode"
	ActionInjectStyleFile  = "injectStyleFile"
)

var (
	ErrUnknownAction = errors.New("iab: unknown action")
	ErrBadArgs       = errors.New("iab: bad arguments")
)

var injectActions = map[string]inject.Kind{
	ActionInjectScriptCode: inject.ScriptCode,
	ActionInjectScriptFile: inject.ScriptFile,
	ActionInjectStyleCode:  inject.StyleCode,
	ActionInjectStyleFile:  inject.StyleFile,
}

// args is a positional JSON argument list.
type args []json.RawMessage

func parseArgs(raw json.RawMessage) (args, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var a args
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadArgs, err)
	}
	return a, nil
}

// StringAt returns argument i, failing when it is missing or not a string.
func (a args) StringAt(i int) (string, error) {
	if i >= len(a) {
		return "", fmt.Errorf("%w: missing argument %d", ErrBadArgs, i)
	}
	var s string
	if err := json.Unmarshal(a[i], &s); err != nil {
		return "", fmt.Errorf("%w: argument %d: %v", ErrBadArgs, i, err)
	}
	return s, nil
}

// OptStringAt returns argument i, or "" when missing, null or not a string.
func (a args) OptStringAt(i int) string {
	if i >= len(a) {
		return ""
	}
	var s string
	if err := json.Unmarshal(a[i], &s); err != nil {
		return ""
	}
	return s
}

// BoolAt returns argument i, failing when it is missing or not a boolean.
func (a args) BoolAt(i int) (bool, error) {
	if i >= len(a) {
		return false, fmt.Errorf("%w: missing argument %d", ErrBadArgs, i)
	}
	var b bool
	if err := json.Unmarshal(a[i], &b); err != nil {
		return false, fmt.Errorf("%w: argument %d: %v", ErrBadArgs, i, err)
	}
	return b, nil
}

// Exec dispatches an action by name with a JSON array of arguments. It is
// the entry point for remote hosts.
func (p *Plugin) Exec(action string, rawArgs json.RawMessage, cb relay.Callback) error {
	a, err := parseArgs(rawArgs)
	if err != nil {
		return err
	}
	L_debug("iab: exec", "action", action, "args", len(a))

	switch action {
	case ActionOpen:
		url, err := a.StringAt(0)
		if err != nil {
			return err
		}
		return p.Open(url, a.OptStringAt(1), featureArg(a), cb)

	case ActionClose:
		return p.Close()

	case ActionShow:
		return p.Show()
	}

	kind, ok := injectActions[action]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAction, action)
	}
	source, err := a.StringAt(0)
	if err != nil {
		return err
	}
	wantsResult, err := a.BoolAt(1)
	if err != nil {
		return err
	}
	return p.Inject(kind, source, wantsResult, cb)
}

// featureArg treats a missing feature string like the literal "null".
func featureArg(a args) string {
	if s := a.OptStringAt(2); s != "" {
		return s
	}
	return "null"
}
