// Package features parses the comma separated key=value feature string
// passed to open, and derives the immutable per-session options from it.
package features

import (
	"strings"

	. "github.com/roelfdiedericks/inappbrowser/internal/logging"
)

// Recognized feature keys.
const (
	Zoom              = "zoom"
	Hidden            = "hidden"
	HardwareBack      = "hardwareback"
	ClearCache        = "clearcache"
	ClearSessionCache = "clearsessioncache"
	RedirectInterface = "meliuzredirectinterface"
)

// Null is the literal the caller passes for "no features".
const Null = "null"

// Flags is an insertion-ordered set of boolean feature toggles. A nil
// *Flags means no feature string was supplied. The value text of parsed
// tokens is kept so unknown features render back unchanged.
type Flags struct {
	keys   []string
	values map[string]bool
	text   map[string]string
}

// Parse parses a feature string such as "zoom=no,hidden=yes". Value "no"
// is false, anything else true. Tokens without a key and a value are
// dropped. Repeated keys keep their first position and take the later value.
// Returns nil for "" and "null".
func Parse(s string) *Flags {
	if s == "" || s == Null {
		return nil
	}

	f := &Flags{values: make(map[string]bool), text: make(map[string]string)}
	for _, token := range strings.Split(s, ",") {
		parts := nonEmpty(strings.Split(token, "="))
		if len(parts) < 2 {
			if token != "" {
				L_debug("features: dropping malformed token", "token", token)
			}
			continue
		}
		f.Set(parts[0], parts[1] != "no")
		f.text[parts[0]] = parts[1]
	}
	return f
}

func nonEmpty(parts []string) []string {
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Set stores a flag value.
func (f *Flags) Set(key string, value bool) {
	if f.values == nil {
		f.values = make(map[string]bool)
	}
	if _, ok := f.values[key]; !ok {
		f.keys = append(f.keys, key)
	}
	f.values[key] = value
	delete(f.text, key)
}

// Lookup returns the flag value and whether it was present.
// Safe on a nil receiver.
func (f *Flags) Lookup(key string) (value, ok bool) {
	if f == nil {
		return false, false
	}
	value, ok = f.values[key]
	return value, ok
}

// Text returns the value as written in the feature string: "yes" or "no"
// for flags stored with Set.
func (f *Flags) Text(key string) (string, bool) {
	if f == nil {
		return "", false
	}
	if t, ok := f.text[key]; ok {
		return t, true
	}
	v, ok := f.values[key]
	if !ok {
		return "", false
	}
	if v {
		return "yes", true
	}
	return "no", true
}

// Keys returns flag keys in first-seen order.
func (f *Flags) Keys() []string {
	if f == nil {
		return nil
	}
	return append([]string(nil), f.keys...)
}

// Len returns the number of distinct keys.
func (f *Flags) Len() int {
	if f == nil {
		return 0
	}
	return len(f.keys)
}

// String renders the flags back into feature string form, unknown keys
// included. A nil receiver renders as "null".
func (f *Flags) String() string {
	if f == nil {
		return Null
	}
	var b strings.Builder
	for i, k := range f.keys {
		if i > 0 {
			b.WriteByte(',')
		}
		t, _ := f.Text(k)
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(t)
	}
	return b.String()
}
