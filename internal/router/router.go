// Package router decides where an open request goes: the host's primary
// view, an OS handler, an external application, or a managed surface.
package router

import (
	"github.com/roelfdiedericks/inappbrowser/internal/allowlist"
	"github.com/roelfdiedericks/inappbrowser/internal/features"
	. "github.com/roelfdiedericks/inappbrowser/internal/logging"
	"github.com/roelfdiedericks/inappbrowser/internal/urlclass"
)

// Target is the symbolic window target of an open request.
type Target string

const (
	Self   Target = "_self"
	System Target = "_system"
	Blank  Target = "_blank"
)

// ParseTarget maps the raw target argument; empty and "null" mean _self.
// Any other literal is kept as is and routed like _blank.
func ParseTarget(s string) Target {
	if s == "" || s == features.Null {
		return Self
	}
	return Target(s)
}

// Request is one immutable open request.
type Request struct {
	URL      string
	Target   Target
	Features *features.Flags
}

// NewRequest builds a request from raw caller arguments.
func NewRequest(url, target, featureString string) Request {
	return Request{
		URL:      url,
		Target:   ParseTarget(target),
		Features: features.Parse(featureString),
	}
}

// Decision is the routing outcome.
type Decision int

const (
	NavigatePrimaryView Decision = iota
	DelegateToOS
	OpenExternalApplication
	OpenManagedSurface
)

func (d Decision) String() string {
	switch d {
	case NavigatePrimaryView:
		return "primary-view"
	case DelegateToOS:
		return "os-handler"
	case OpenExternalApplication:
		return "external-application"
	case OpenManagedSurface:
		return "managed-surface"
	default:
		return "unknown"
	}
}

// Route is a decision plus the classification it was based on.
type Route struct {
	Decision Decision
	Class    urlclass.Result
}

// Router is stateless apart from the host's permission checker.
type Router struct {
	checker allowlist.Checker
}

// New creates a router. A nil checker allows every navigation.
func New(checker allowlist.Checker) *Router {
	if checker == nil {
		checker = allowlist.AllowAll{}
	}
	return &Router{checker: checker}
}

// Route decides where req goes.
func (r *Router) Route(req Request) Route {
	class := urlclass.Classify(req.URL)

	var d Decision
	switch req.Target {
	case Self:
		switch {
		case class.Category == urlclass.Javascript:
			d = NavigatePrimaryView
		case r.checker.IsNavigationAllowed(req.URL):
			d = NavigatePrimaryView
		case class.Category == urlclass.Tel:
			d = DelegateToOS
		default:
			d = OpenManagedSurface
		}
	case System:
		d = OpenExternalApplication
	default:
		d = OpenManagedSurface
	}

	L_debug("router: routed", "url", req.URL, "target", req.Target, "category", class.Category, "decision", d)
	return Route{Decision: d, Class: class}
}
