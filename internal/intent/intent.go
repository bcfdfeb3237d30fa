// Package intent hands URLs the managed surface must not render (dialer,
// SMS, mail, maps, market, system browser) to an OS-level handler.
package intent

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/roelfdiedericks/inappbrowser/internal/urlclass"
)

// Action is the kind of OS handoff.
type Action string

const (
	ActionView Action = "VIEW"
	ActionDial Action = "DIAL"
)

// Extra keys understood by SMS handlers.
const (
	ExtraAddress       = "address"
	ExtraSMSBody       = "sms_body"
	ExtraApplicationID = "application_id"
)

// SMSMimeType is the type attached to SMS compose intents.
const SMSMimeType = "vnd.android-dir/mms-sms"

// Intent describes one OS handoff.
type Intent struct {
	Action Action
	Data   string
	MIME   string
	Extras map[string]string
}

func (i Intent) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Intent { act=%s dat=%s", i.Action, i.Data)
	if i.MIME != "" {
		fmt.Fprintf(&b, " typ=%s", i.MIME)
	}
	if len(i.Extras) > 0 {
		b.WriteString(" (has extras)")
	}
	b.WriteString(" }")
	return b.String()
}

// Launcher starts an OS handler for an intent. It fails with
// *ActivityNotFoundError when nothing can handle it.
type Launcher interface {
	Launch(Intent) error
}

// MimeResolver resolves the MIME type of a file: URI.
type MimeResolver interface {
	ResolveMimeType(uri string) string
}

// ActivityNotFoundError reports that no handler exists for URL.
type ActivityNotFoundError struct {
	URL    string
	Intent Intent
	Cause  error
}

func (e *ActivityNotFoundError) Error() string {
	msg := "ActivityNotFoundException: No Activity found to handle " + e.Intent.String()
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *ActivityNotFoundError) Unwrap() error { return e.Cause }

// Dial builds a dialer intent for a tel: URL.
func Dial(rawURL string) Intent {
	return Intent{Action: ActionDial, Data: rawURL}
}

// View builds a plain view intent (geo:, mailto:, market:).
func View(rawURL string) Intent {
	return Intent{Action: ActionView, Data: rawURL}
}

// SMS builds a compose intent from a classified sms: URL.
func SMS(r urlclass.Result) Intent {
	in := Intent{
		Action: ActionView,
		Data:   urlclass.PrefixSMS + r.SMSAddress,
		MIME:   SMSMimeType,
		Extras: map[string]string{ExtraAddress: r.SMSAddress},
	}
	if r.HasSMSBody {
		in.Extras[ExtraSMSBody] = r.SMSBody
	}
	return in
}

// External builds the system-browser intent used for the _system target.
// file: URLs carry a resolved MIME type; other schemes must not, or the
// download handler never sees them.
func External(rawURL, appID string, mimes MimeResolver) Intent {
	in := Intent{
		Action: ActionView,
		Data:   rawURL,
		Extras: map[string]string{ExtraApplicationID: appID},
	}
	if u, err := url.Parse(rawURL); err == nil && u.Scheme == "file" && mimes != nil {
		in.MIME = mimes.ResolveMimeType(rawURL)
	}
	return in
}

// ForResult maps a classified handoff URL to its intent.
func ForResult(r urlclass.Result) (Intent, bool) {
	switch r.Category {
	case urlclass.Tel:
		return Dial(r.URL), true
	case urlclass.SMS:
		return SMS(r), true
	case urlclass.ExternalView:
		return View(r.URL), true
	}
	return Intent{}, false
}
