package surface

import (
	"strings"

	"github.com/roelfdiedericks/inappbrowser/internal/inject"
	"github.com/roelfdiedericks/inappbrowser/internal/urlclass"
)

// sink is the Events handed to one session's surface. It answers
// synchronous questions from the classification alone and posts the side
// effects onto the loop, where they are dropped if the session has been
// replaced.
type sink struct {
	c *Controller
	s *Session
}

func (k *sink) InterceptNavigation(url string) bool {
	if k.s.Closed() {
		return true
	}
	class := urlclass.Classify(url)
	k.c.post("intercept", k.s, func() {
		if k.s.Closed() {
			return
		}
		k.c.interceptNavigation(k.s, class)
	})
	return !class.Handoff()
}

func (k *sink) NavigationFinished(url string) {
	k.c.post("finished", k.s, func() {
		k.c.navigationFinished(k.s, url)
	})
}

func (k *sink) NavigationFailed(url string, code int, message string) {
	k.c.post("failed", k.s, func() {
		k.c.navigationFailed(k.s, url, code, message)
	})
}

func (k *sink) HandlePrompt(message, defaultValue string) bool {
	if !strings.HasPrefix(defaultValue, inject.CallbackScheme) {
		return false
	}
	k.c.post("prompt", k.s, func() {
		k.s.injector.HandlePrompt(message, defaultValue)
	})
	return true
}

func (k *sink) SurfaceGone() {
	k.c.post("gone", k.s, func() {
		k.c.surfaceGone(k.s)
	})
}
