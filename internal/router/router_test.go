package router

import (
	"testing"

	"github.com/roelfdiedericks/inappbrowser/internal/allowlist"
)

type fixedChecker struct {
	allow bool
	calls int
}

func (c *fixedChecker) IsNavigationAllowed(string) bool {
	c.calls++
	return c.allow
}

func TestParseTarget(t *testing.T) {
	tests := map[string]Target{
		"":        Self,
		"null":    Self,
		"_self":   Self,
		"_system": System,
		"_blank":  Blank,
		"frame1":  Target("frame1"),
	}
	for in, want := range tests {
		if got := ParseTarget(in); got != want {
			t.Errorf("ParseTarget(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRoute(t *testing.T) {
	tests := []struct {
		name   string
		url    string
		target string
		allow  bool
		want   Decision
	}{
		{"self allowed", "https://example.com", "_self", true, NavigatePrimaryView},
		{"self javascript", "javascript:void(0)", "_self", false, NavigatePrimaryView},
		{"self tel denied", "tel:5551212", "_self", false, DelegateToOS},
		{"self tel allowed", "tel:5551212", "_self", true, NavigatePrimaryView},
		{"self web denied", "https://example.com", "", false, OpenManagedSurface},
		{"self sms denied", "sms:5551212", "null", false, OpenManagedSurface},
		{"system web", "https://example.com", "_system", false, OpenExternalApplication},
		{"system file", "file:///tmp/a.pdf", "_system", true, OpenExternalApplication},
		{"system tel", "tel:5551212", "_system", false, OpenExternalApplication},
		{"blank", "example.com", "_blank", true, OpenManagedSurface},
		{"other target", "example.com", "myframe", true, OpenManagedSurface},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(&fixedChecker{allow: tt.allow})
			got := r.Route(NewRequest(tt.url, tt.target, "null"))
			if got.Decision != tt.want {
				t.Errorf("Route = %v, want %v", got.Decision, tt.want)
			}
		})
	}
}

func TestJavascriptSkipsChecker(t *testing.T) {
	c := &fixedChecker{}
	New(c).Route(NewRequest("javascript:1", "_self", ""))
	if c.calls != 0 {
		t.Errorf("checker called %d times for javascript: URL", c.calls)
	}
}

func TestNilCheckerAllows(t *testing.T) {
	got := New(nil).Route(NewRequest("https://example.com", "_self", ""))
	if got.Decision != NavigatePrimaryView {
		t.Errorf("Route = %v, want primary view", got.Decision)
	}
	var _ allowlist.Checker = allowlist.AllowAll{}
}

func TestNewRequestFeatures(t *testing.T) {
	req := NewRequest("x", "_blank", "hidden=yes")
	if v, ok := req.Features.Lookup("hidden"); !ok || !v {
		t.Errorf("hidden = (%v, %v)", v, ok)
	}
	if NewRequest("x", "_blank", "null").Features != nil {
		t.Error("null features should be nil")
	}
}
