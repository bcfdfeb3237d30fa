// Package urlclass classifies navigation URLs by their leading scheme token.
//
// Classification is a pure function: it never fails, and URLs with an
// unrecognized prefix are treated as web addresses missing their scheme.
package urlclass

import (
	"net/url"
	"strings"
)

// Category is the scheme category of a URL.
type Category int

const (
	// Web covers http:, https: and file: URLs, plus anything unrecognized
	// (which gets an http:// prefix).
	Web Category = iota
	Javascript
	Tel
	SMS
	// ExternalView covers geo:, mailto: and market: URLs, which are handed
	// to the OS with a plain view action.
	ExternalView
)

// String returns the category name used in logs.
func (c Category) String() string {
	switch c {
	case Web:
		return "web"
	case Javascript:
		return "javascript"
	case Tel:
		return "tel"
	case SMS:
		return "sms"
	case ExternalView:
		return "external"
	default:
		return "unknown"
	}
}

// Scheme prefixes, in match priority order.
const (
	PrefixJavascript = "javascript:"
	PrefixTel        = "tel:"
	PrefixHTTP       = "http:"
	PrefixHTTPS      = "https:"
	PrefixFile       = "file:"
	PrefixGeo        = "geo:"
	PrefixMailto     = "mailto:"
	PrefixMarket     = "market:"
	PrefixSMS        = "sms:"
)

// Result is the outcome of classifying one URL.
type Result struct {
	Category Category
	// URL is the original URL, or for unrecognized schemes the http://
	// prefixed form. It is what the surface navigates to for Web results.
	URL string
	// SMSAddress and SMSBody are only set for SMS results.
	SMSAddress string
	SMSBody    string
	HasSMSBody bool
}

// Handoff reports whether the URL must be delegated to the OS instead of
// being rendered in a surface.
func (r Result) Handoff() bool {
	switch r.Category {
	case Tel, SMS, ExternalView:
		return true
	}
	return false
}

// Classify returns the scheme category of rawURL. Prefixes are matched
// case-sensitively, first match wins.
func Classify(rawURL string) Result {
	switch {
	case strings.HasPrefix(rawURL, PrefixJavascript):
		return Result{Category: Javascript, URL: rawURL}
	case strings.HasPrefix(rawURL, PrefixTel):
		return Result{Category: Tel, URL: rawURL}
	case strings.HasPrefix(rawURL, PrefixHTTP),
		strings.HasPrefix(rawURL, PrefixHTTPS),
		strings.HasPrefix(rawURL, PrefixFile):
		return Result{Category: Web, URL: rawURL}
	case strings.HasPrefix(rawURL, PrefixGeo),
		strings.HasPrefix(rawURL, PrefixMailto),
		strings.HasPrefix(rawURL, PrefixMarket):
		return Result{Category: ExternalView, URL: rawURL}
	case strings.HasPrefix(rawURL, PrefixSMS):
		return classifySMS(rawURL)
	default:
		return Result{Category: Web, URL: "http://" + rawURL}
	}
}

// classifySMS splits sms:<address>?body=<message>. The body is only taken
// when the query string itself starts with body=.
func classifySMS(rawURL string) Result {
	r := Result{Category: SMS, URL: rawURL}
	rest := rawURL[len(PrefixSMS):]

	idx := strings.IndexByte(rest, '?')
	if idx == -1 {
		r.SMSAddress = rest
		return r
	}
	r.SMSAddress = rest[:idx]

	query := rest[idx+1:]
	if frag := strings.IndexByte(query, '#'); frag != -1 {
		query = query[:frag]
	}
	if strings.HasPrefix(query, "body=") {
		body := query[len("body="):]
		if decoded, err := url.PathUnescape(body); err == nil {
			body = decoded
		}
		r.SMSBody = body
		r.HasSMSBody = true
	}
	return r
}

// Scheme returns the lowercased scheme of rawURL, or "" if it has none.
func Scheme(rawURL string) string {
	idx := strings.IndexByte(rawURL, ':')
	if idx <= 0 {
		return ""
	}
	return strings.ToLower(rawURL[:idx])
}
