package browser

import (
	"testing"

	"github.com/roelfdiedericks/inappbrowser/internal/surface"
)

func TestErrorCode(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"net::ERR_NAME_NOT_RESOLVED", surface.ErrorHostLookup},
		{"net::ERR_CONNECTION_REFUSED", surface.ErrorConnect},
		{"net::ERR_CONNECTION_TIMED_OUT", surface.ErrorTimeout},
		{"net::ERR_TOO_MANY_REDIRECTS", surface.ErrorRedirectLoop},
		{"net::ERR_CERT_AUTHORITY_INVALID", surface.ErrorFailedSSL},
		{"net::ERR_SSL_PROTOCOL_ERROR", surface.ErrorFailedSSL},
		{"net::ERR_FILE_NOT_FOUND", surface.ErrorFileNotFound},
		{"net::ERR_SOMETHING_NEW", surface.ErrorUnknown},
		{"", surface.ErrorUnknown},
	}
	for _, tt := range tests {
		if got := ErrorCode(tt.text); got != tt.want {
			t.Errorf("ErrorCode(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}

func TestIgnoredError(t *testing.T) {
	if !ignoredError("net::ERR_ABORTED", false) {
		t.Error("aborted navigations are not load errors")
	}
	if !ignoredError("net::ERR_NAME_NOT_RESOLVED", true) {
		t.Error("canceled requests are not load errors")
	}
	if ignoredError("net::ERR_NAME_NOT_RESOLVED", false) {
		t.Error("DNS failure must be reported")
	}
}
