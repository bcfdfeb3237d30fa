package browser

import (
	"errors"
	"strings"

	"github.com/roelfdiedericks/inappbrowser/internal/surface"
)

// ErrNotReady is returned when no Chromium binary is available and
// auto-download is off.
var ErrNotReady = errors.New("browser: chromium not available")

var netErrorCodes = map[string]int{
	"net::ERR_NAME_NOT_RESOLVED":        surface.ErrorHostLookup,
	"net::ERR_NAME_RESOLUTION_FAILED":   surface.ErrorHostLookup,
	"net::ERR_CONNECTION_REFUSED":       surface.ErrorConnect,
	"net::ERR_CONNECTION_RESET":         surface.ErrorConnect,
	"net::ERR_CONNECTION_CLOSED":        surface.ErrorConnect,
	"net::ERR_CONNECTION_FAILED":        surface.ErrorConnect,
	"net::ERR_ADDRESS_UNREACHABLE":      surface.ErrorConnect,
	"net::ERR_INTERNET_DISCONNECTED":    surface.ErrorConnect,
	"net::ERR_TIMED_OUT":                surface.ErrorTimeout,
	"net::ERR_CONNECTION_TIMED_OUT":     surface.ErrorTimeout,
	"net::ERR_TOO_MANY_REDIRECTS":       surface.ErrorRedirectLoop,
	"net::ERR_UNKNOWN_URL_SCHEME":       surface.ErrorUnsupportedScheme,
	"net::ERR_DISALLOWED_URL_SCHEME":    surface.ErrorUnsupportedScheme,
	"net::ERR_INVALID_URL":              surface.ErrorBadURL,
	"net::ERR_FILE_NOT_FOUND":           surface.ErrorFileNotFound,
	"net::ERR_ACCESS_DENIED":            surface.ErrorFile,
	"net::ERR_INVALID_AUTH_CREDENTIALS": surface.ErrorAuthentication,
	"net::ERR_PROXY_AUTH_REQUESTED":     surface.ErrorProxyAuth,
	"net::ERR_PROXY_CONNECTION_FAILED":  surface.ErrorProxyAuth,
	"net::ERR_TOO_MANY_RETRIES":         surface.ErrorTooManyRequests,
}

// ErrorCode maps a Chromium net error string to a load error code.
func ErrorCode(errorText string) int {
	if code, ok := netErrorCodes[errorText]; ok {
		return code
	}
	switch {
	case strings.HasPrefix(errorText, "net::ERR_CERT_"),
		strings.HasPrefix(errorText, "net::ERR_SSL_"):
		return surface.ErrorFailedSSL
	}
	return surface.ErrorUnknown
}

// ignoredError reports net errors that are not load failures, such as
// navigations replaced by another one.
func ignoredError(errorText string, canceled bool) bool {
	return canceled || errorText == "net::ERR_ABORTED" || errorText == "net::ERR_BLOCKED_BY_CLIENT"
}
