package surface

// Load error codes carried by loaderror events. The values follow the
// WebView client error codes hosts already switch on.
const (
	ErrorUnknown           = -1
	ErrorHostLookup        = -2
	ErrorUnsupportedAuth   = -3
	ErrorAuthentication    = -4
	ErrorProxyAuth         = -5
	ErrorConnect           = -6
	ErrorIO                = -7
	ErrorTimeout           = -8
	ErrorRedirectLoop      = -9
	ErrorUnsupportedScheme = -10
	ErrorFailedSSL         = -11
	ErrorBadURL            = -12
	ErrorFile              = -13
	ErrorFileNotFound      = -14
	ErrorTooManyRequests   = -15
)
