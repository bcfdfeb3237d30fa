package allowlist

import "testing"

func TestMatcher(t *testing.T) {
	m := New([]string{
		"https://*.example.com/*",
		"http://localhost/app/**",
		"file:///android_asset/**",
		"not a pattern",
	})
	if m.Len() != 3 {
		t.Fatalf("Len = %d, want 3", m.Len())
	}

	tests := []struct {
		url  string
		want bool
	}{
		{"https://www.example.com/", true},
		{"https://a.b.example.com/deep/path?q=1", true},
		{"https://example.com/", false},
		{"http://www.example.com/", false},
		{"http://localhost/app/index.html", true},
		{"http://localhost/other", false},
		{"file:///android_asset/www/index.html", true},
		{"file:///etc/passwd", false},
		{"tel:5551212", false},
		{"javascript:alert(1)", false},
		{"::bad", false},
	}
	for _, tt := range tests {
		if got := m.IsNavigationAllowed(tt.url); got != tt.want {
			t.Errorf("IsNavigationAllowed(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}

func TestWildcardAllowsEverything(t *testing.T) {
	m := New([]string{"*"})
	for _, u := range []string{"https://x.y/z", "http://localhost", "file:///a"} {
		if !m.IsNavigationAllowed(u) {
			t.Errorf("%q not allowed by *", u)
		}
	}
}

func TestEmptyMatcherDeniesAndAllowAllAllows(t *testing.T) {
	if New(nil).IsNavigationAllowed("https://example.com") {
		t.Error("empty matcher allowed navigation")
	}
	if !(AllowAll{}).IsNavigationAllowed("https://example.com") {
		t.Error("AllowAll denied navigation")
	}
}

func TestUpdate(t *testing.T) {
	m := New([]string{"https://a.com/*"})
	m.Update([]string{"https://b.com/*"})
	if m.IsNavigationAllowed("https://a.com/") {
		t.Error("old pattern still active")
	}
	if !m.IsNavigationAllowed("https://b.com/x") {
		t.Error("new pattern not active")
	}
}

func TestOrAllowAll(t *testing.T) {
	m := New(nil)
	c := OrAllowAll{m}
	if !c.IsNavigationAllowed("https://anything.test/") {
		t.Error("empty list denied navigation")
	}
	m.Update([]string{"https://a.com/*"})
	if c.IsNavigationAllowed("https://b.com/") {
		t.Error("unlisted URL allowed once patterns exist")
	}
	if !c.IsNavigationAllowed("https://a.com/x") {
		t.Error("listed URL denied")
	}
}
