// Package inject turns script and style injection requests into executable
// scripts for the managed surface, and routes their completion signals back
// through the page's prompt channel.
package inject

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	. "github.com/roelfdiedericks/inappbrowser/internal/logging"
)

// CallbackScheme prefixes the prompt default value used by wrapped scripts
// to signal completion back to native code.
const CallbackScheme = "gap-iab://"

// Placeholder is the single substitution point in a wrapper template.
const Placeholder = "%s"

// Kind selects what is being injected.
type Kind int

const (
	ScriptCode Kind = iota
	ScriptFile
	StyleCode
	StyleFile
)

func (k Kind) String() string {
	switch k {
	case ScriptCode:
		return "injectScriptCode"
	case ScriptFile:
		return "injectScriptFile"
	case StyleCode:
		return "injectStyleCode"
	case StyleFile:
		return "injectStyleFile"
	default:
		return "unknown"
	}
}

// Wrapper returns the wrapper template for kind. It returns "" for script
// code without a result, meaning the source runs verbatim.
func Wrapper(kind Kind, wantsResult bool, callbackID string) string {
	signal := "prompt('', '" + CallbackScheme + callbackID + "');"
	switch kind {
	case ScriptCode:
		if wantsResult {
			return "prompt(JSON.stringify([eval(%s)]), '" + CallbackScheme + callbackID + "')"
		}
		return ""
	case ScriptFile:
		if wantsResult {
			return "(function(d) { var c = d.createElement('script'); c.src = %s; c.onload = function() { " + signal + " }; d.body.appendChild(c); })(document)"
		}
		return "(function(d) { var c = d.createElement('script'); c.src = %s; d.body.appendChild(c); })(document)"
	case StyleCode:
		if wantsResult {
			return "(function(d) { var c = d.createElement('style'); c.innerHTML = %s; d.body.appendChild(c); " + signal + "})(document)"
		}
		return "(function(d) { var c = d.createElement('style'); c.innerHTML = %s; d.body.appendChild(c); })(document)"
	case StyleFile:
		if wantsResult {
			return "(function(d) { var c = d.createElement('link'); c.rel='stylesheet'; c.type='text/css'; c.href = %s; d.head.appendChild(c); " + signal + "})(document)"
		}
		return "(function(d) { var c = d.createElement('link'); c.rel='stylesheet'; c.type='text/css'; c.href = %s; d.head.appendChild(c); })(document)"
	}
	return ""
}

// EncodeSource renders source as a JavaScript string literal (JSON string
// encoding, quotes included).
func EncodeSource(source string) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode([]string{source}); err != nil {
		return "", fmt.Errorf("encode source: %w", err)
	}
	// ["..."]\n -> "..."
	repr := strings.TrimSuffix(buf.String(), "\n")
	return repr[1 : len(repr)-1], nil
}

// Build produces the final script. With an empty wrapper the source is
// returned verbatim; otherwise the encoded source replaces the placeholder.
func Build(source, wrapper string) (string, error) {
	if wrapper == "" {
		return source, nil
	}
	if strings.Count(wrapper, Placeholder) != 1 {
		return "", fmt.Errorf("wrapper must contain exactly one %q placeholder", Placeholder)
	}
	lit, err := EncodeSource(source)
	if err != nil {
		return "", err
	}
	return strings.Replace(wrapper, Placeholder, lit, 1), nil
}

// Completion receives the result of a wrapped injection. result is the
// prompt message (a JSON array for script code, nil otherwise).
type Completion func(result json.RawMessage)

// Request is one injection call.
type Request struct {
	Kind        Kind
	Source      string
	WantsResult bool
	Done        Completion
}

// Evaluator runs a script in the surface without waiting for it.
type Evaluator interface {
	Evaluate(script string)
}

// Injector builds scripts and tracks pending completions for one session.
// Not safe for concurrent use; it lives on the UI loop.
type Injector struct {
	pending map[string]Completion
}

// NewInjector creates an injector with no pending completions.
func NewInjector() *Injector {
	return &Injector{pending: make(map[string]Completion)}
}

// Inject builds the script for req and hands it to ev. It returns the
// callback id when a completion was requested.
func (i *Injector) Inject(ev Evaluator, req Request) (string, error) {
	var callbackID string
	if req.WantsResult {
		callbackID = uuid.NewString()
	}

	script, err := Build(req.Source, Wrapper(req.Kind, req.WantsResult, callbackID))
	if err != nil {
		return "", err
	}

	if callbackID != "" {
		i.pending[callbackID] = req.Done
	}
	L_debug("inject: evaluating", "kind", req.Kind, "callback", callbackID, "bytes", len(script))
	ev.Evaluate(script)
	return callbackID, nil
}

// HandlePrompt consumes a prompt raised by a wrapped script. It returns
// false for prompts that are not completion signals, which the surface
// should handle as ordinary page dialogs.
func (i *Injector) HandlePrompt(message, defaultValue string) bool {
	if !strings.HasPrefix(defaultValue, CallbackScheme) {
		return false
	}
	id := strings.TrimPrefix(defaultValue, CallbackScheme)

	done, ok := i.pending[id]
	if !ok {
		L_debug("inject: completion for unknown callback", "callback", id)
		return true
	}
	delete(i.pending, id)

	var result json.RawMessage
	if message != "" {
		if json.Valid([]byte(message)) {
			result = json.RawMessage(message)
		} else {
			L_warn("inject: completion payload is not JSON, dropped", "callback", id)
		}
	}
	if done != nil {
		done(result)
	}
	return true
}

// Pending returns the number of outstanding completions.
func (i *Injector) Pending() int {
	return len(i.pending)
}

// Reset forgets every pending completion. Late signals for them are
// swallowed by HandlePrompt.
func (i *Injector) Reset() {
	i.pending = make(map[string]Completion)
}
