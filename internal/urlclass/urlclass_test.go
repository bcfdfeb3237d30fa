package urlclass

import (
	"fmt"
	"strings"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    Category
		wantURL string
	}{
		{"http", "http://example.com", Web, "http://example.com"},
		{"https", "https://example.com/a?b=c", Web, "https://example.com/a?b=c"},
		{"file", "file:///sdcard/index.html", Web, "file:///sdcard/index.html"},
		{"bare host", "example.com", Web, "http://example.com"},
		{"bare path", "example.com/path", Web, "http://example.com/path"},
		{"empty", "", Web, "http://"},
		{"uppercase scheme is not recognized", "HTTP://example.com", Web, "http://HTTP://example.com"},
		{"javascript", "javascript:alert(1)", Javascript, "javascript:alert(1)"},
		{"tel", "tel:5551212", Tel, "tel:5551212"},
		{"geo", "geo:0,0?q=pizza", ExternalView, "geo:0,0?q=pizza"},
		{"mailto", "mailto:someone@example.com", ExternalView, "mailto:someone@example.com"},
		{"market", "market://details?id=com.example", ExternalView, "market://details?id=com.example"},
		{"sms", "sms:5551212", SMS, "sms:5551212"},
		{"unknown scheme", "ftp://example.com", Web, "http://ftp://example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.url)
			if got.Category != tt.want {
				t.Errorf("Classify(%q).Category = %v, want %v", tt.url, got.Category, tt.want)
			}
			if got.URL != tt.wantURL {
				t.Errorf("Classify(%q).URL = %q, want %q", tt.url, got.URL, tt.wantURL)
			}
		})
	}
}

func TestClassifySMS(t *testing.T) {
	tests := []struct {
		url      string
		address  string
		body     string
		hasBody  bool
	}{
		{"sms:5551212?body=Hello", "5551212", "Hello", true},
		{"sms:5551212", "5551212", "", false},
		{"sms:5551212?body=Hello%20there", "5551212", "Hello there", true},
		{"sms:5551212?subject=x&body=Hello", "5551212", "", false},
		{"sms:5551212?", "5551212", "", false},
		{"sms:", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got := Classify(tt.url)
			if got.Category != SMS {
				t.Fatalf("Category = %v, want sms", got.Category)
			}
			if got.SMSAddress != tt.address {
				t.Errorf("SMSAddress = %q, want %q", got.SMSAddress, tt.address)
			}
			if got.HasSMSBody != tt.hasBody || got.SMSBody != tt.body {
				t.Errorf("body = (%q, %v), want (%q, %v)", got.SMSBody, got.HasSMSBody, tt.body, tt.hasBody)
			}
		})
	}
}

// Every handoff scheme stays out of the Web category regardless of what
// follows the prefix.
func TestClassifyHandoffSchemesProperty(t *testing.T) {
	prefixes := map[string]Category{
		PrefixTel:    Tel,
		PrefixSMS:    SMS,
		PrefixGeo:    ExternalView,
		PrefixMailto: ExternalView,
		PrefixMarket: ExternalView,
	}
	suffixes := []string{"", "5551212", "//x", "a?b=c", "http://example.com", " ", "?body=", "%00", "ü"}

	for prefix, want := range prefixes {
		for _, s := range suffixes {
			got := Classify(prefix + s)
			if got.Category != want {
				t.Errorf("Classify(%q) = %v, want %v", prefix+s, got.Category, want)
			}
			if !got.Handoff() {
				t.Errorf("Classify(%q).Handoff() = false", prefix+s)
			}
		}
	}
}

func TestClassifyUnrecognizedGetsHTTPPrefixProperty(t *testing.T) {
	recognized := []string{PrefixJavascript, PrefixTel, PrefixHTTP, PrefixHTTPS, PrefixFile,
		PrefixGeo, PrefixMailto, PrefixMarket, PrefixSMS}

	for i := 0; i < 500; i++ {
		raw := fmt.Sprintf("host%d.example/%x", i, i*7919)
		if i%3 == 0 {
			raw = fmt.Sprintf("x%d:%d", i, i)
		}
		skip := false
		for _, p := range recognized {
			if strings.HasPrefix(raw, p) {
				skip = true
			}
		}
		if skip {
			continue
		}
		got := Classify(raw)
		if got.Category != Web || got.URL != "http://"+raw {
			t.Fatalf("Classify(%q) = %+v, want web with http:// prefix", raw, got)
		}
		if Classify(raw) != got {
			t.Fatalf("Classify(%q) is not deterministic", raw)
		}
	}
}

func TestScheme(t *testing.T) {
	if got := Scheme("HTTPS://x"); got != "https" {
		t.Errorf("Scheme = %q", got)
	}
	if got := Scheme("example.com"); got != "" {
		t.Errorf("Scheme = %q, want empty", got)
	}
}
