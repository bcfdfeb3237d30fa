// Package allowlist implements the host's navigation permission check
// with scheme://host/path glob patterns.
package allowlist

import (
	"net/url"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	. "github.com/roelfdiedericks/inappbrowser/internal/logging"
)

// Checker decides whether the primary view may navigate to a URL.
type Checker interface {
	IsNavigationAllowed(rawURL string) bool
}

// AllowAll is the null checker used when the host supplies none.
type AllowAll struct{}

func (AllowAll) IsNavigationAllowed(string) bool { return true }

type pattern struct {
	raw    string
	scheme string
	host   string
	path   string
}

// Matcher checks URLs against a list of patterns such as
// "https://*.example.com/*" or "file:///android_asset/**". A lone "*"
// allows everything. An empty matcher allows nothing.
type Matcher struct {
	mu       sync.RWMutex
	patterns []pattern
}

// New compiles patterns into a matcher. Invalid patterns are logged and
// skipped.
func New(patterns []string) *Matcher {
	m := &Matcher{}
	m.Update(patterns)
	return m
}

// Update replaces the pattern list.
func (m *Matcher) Update(patterns []string) {
	compiled := make([]pattern, 0, len(patterns))
	for _, raw := range patterns {
		p, ok := compile(raw)
		if !ok {
			L_warn("allowlist: invalid pattern skipped", "pattern", raw)
			continue
		}
		compiled = append(compiled, p)
	}

	m.mu.Lock()
	m.patterns = compiled
	m.mu.Unlock()
	L_debug("allowlist: patterns loaded", "count", len(compiled))
}

// Len returns the number of active patterns.
func (m *Matcher) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.patterns)
}

func compile(raw string) (pattern, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return pattern{}, false
	}
	if raw == "*" {
		return pattern{raw: raw, scheme: "*", host: "**", path: "/**"}, true
	}

	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok {
		return pattern{}, false
	}
	host, path := rest, "/**"
	if idx := strings.IndexByte(rest, '/'); idx != -1 {
		host, path = rest[:idx], rest[idx:]
	}
	if host == "" && scheme != "file" {
		return pattern{}, false
	}
	if strings.HasSuffix(path, "/*") {
		path = strings.TrimSuffix(path, "*") + "**"
	}

	p := pattern{raw: raw, scheme: strings.ToLower(scheme), host: strings.ToLower(host), path: path}
	for _, g := range []string{p.scheme, p.host, p.path} {
		if g != "" && !doublestar.ValidatePattern(g) {
			return pattern{}, false
		}
	}
	return p, true
}

// IsNavigationAllowed reports whether rawURL matches any pattern.
func (m *Matcher) IsNavigationAllowed(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.patterns {
		if p.matches(scheme, host, path) {
			L_trace("allowlist: allowed", "url", rawURL, "pattern", p.raw)
			return true
		}
	}
	return false
}

func (p pattern) matches(scheme, host, path string) bool {
	if ok, _ := doublestar.Match(p.scheme, scheme); !ok {
		return false
	}
	if p.host != "**" && (p.host != "" || host != "") {
		if ok, _ := doublestar.Match(p.host, host); !ok {
			return false
		}
	}
	ok, _ := doublestar.Match(p.path, path)
	return ok
}

// OrAllowAll allows every URL while the wrapped matcher has no patterns,
// so a config without an allowlist behaves like a host with no checker.
type OrAllowAll struct {
	*Matcher
}

func (o OrAllowAll) IsNavigationAllowed(rawURL string) bool {
	if o.Len() == 0 {
		return true
	}
	return o.Matcher.IsNavigationAllowed(rawURL)
}
