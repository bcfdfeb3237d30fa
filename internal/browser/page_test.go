package browser

import (
	"testing"

	"github.com/go-rod/rod/lib/proto"

	"github.com/roelfdiedericks/inappbrowser/internal/surface"
)

func TestIsMainDocument(t *testing.T) {
	const main = proto.PageFrameID("MAIN")
	tests := []struct {
		name  string
		typ   proto.NetworkResourceType
		frame proto.PageFrameID
		want  bool
	}{
		{"top level document", proto.NetworkResourceTypeDocument, main, true},
		{"subframe document", proto.NetworkResourceTypeDocument, "CHILD", false},
		{"script in main frame", proto.NetworkResourceTypeScript, main, false},
		{"xhr in main frame", proto.NetworkResourceTypeXHR, main, false},
	}
	for _, tt := range tests {
		if got := isMainDocument(tt.typ, tt.frame, main); got != tt.want {
			t.Errorf("%s: isMainDocument = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestReportsLoad(t *testing.T) {
	tests := []struct {
		url   string
		blank bool
		want  bool
	}{
		{"https://example.com/", false, true},
		{"https://example.com/", true, true},
		{"chrome-error://chromewebdata/", false, false},
		{"chrome-error://chromewebdata/", true, false},
		{surface.BlankURL, false, false},
		{surface.BlankURL, true, true},
	}
	for _, tt := range tests {
		if got := reportsLoad(tt.url, tt.blank); got != tt.want {
			t.Errorf("reportsLoad(%q, %v) = %v, want %v", tt.url, tt.blank, got, tt.want)
		}
	}
}

func TestRendersScheme(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://example.com", true},
		{"HTTP://EXAMPLE.COM", true},
		{"about:blank", true},
		{"data:text/html,hi", true},
		{"blob:https://example.com/1", true},
		{"file:///tmp/a.html", true},
		{"javascript:void(0)", true},
		{"tel:5551212", false},
		{"sms:5551212", false},
		{"mailto:a@example.com", false},
		{"market://details?id=x", false},
		{"intent://scan/#Intent;end", false},
	}
	for _, tt := range tests {
		if got := rendersScheme(tt.url); got != tt.want {
			t.Errorf("rendersScheme(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}

func TestDocRequests(t *testing.T) {
	var d docRequests
	if _, ok := d.take("1"); ok {
		t.Fatal("take on empty tracker reported a request")
	}

	d.track("1", "https://a.example/")
	d.track("2", "https://b.example/")

	url, ok := d.take("1")
	if !ok || url != "https://a.example/" {
		t.Errorf("take(1) = %q, %v", url, ok)
	}
	if _, ok := d.take("1"); ok {
		t.Error("request 1 taken twice")
	}
	if url, ok := d.take("2"); !ok || url != "https://b.example/" {
		t.Errorf("take(2) = %q, %v", url, ok)
	}
}
