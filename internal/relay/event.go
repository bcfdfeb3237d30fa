package relay

import (
	"encoding/json"
	"fmt"
)

// EventType is the lifecycle event name delivered to the caller.
type EventType string

const (
	LoadStart EventType = "loadstart"
	LoadStop  EventType = "loadstop"
	LoadError EventType = "loaderror"
	Exit      EventType = "exit"
)

// Event is a lifecycle event emitted by the surface controller.
type Event struct {
	Type    EventType
	URL     string
	Code    int
	Message string
}

// LoadStartEvent builds a loadstart event. url may be empty when the
// navigation was handed to the OS.
func LoadStartEvent(url string) Event { return Event{Type: LoadStart, URL: url} }

// LoadStopEvent builds a loadstop event.
func LoadStopEvent(url string) Event { return Event{Type: LoadStop, URL: url} }

// LoadErrorEvent builds a loaderror event.
func LoadErrorEvent(url string, code int, message string) Event {
	return Event{Type: LoadError, URL: url, Code: code, Message: message}
}

// ExitEvent builds the terminal exit event.
func ExitEvent() Event { return Event{Type: Exit} }

// MarshalJSON renders only the fields that belong to the event type, so
// loadstart always carries "url" (even when empty) and exit carries nothing
// but its type.
func (e Event) MarshalJSON() ([]byte, error) {
	switch e.Type {
	case LoadStart, LoadStop:
		return json.Marshal(struct {
			Type EventType `json:"type"`
			URL  string    `json:"url"`
		}{e.Type, e.URL})
	case LoadError:
		return json.Marshal(struct {
			Type    EventType `json:"type"`
			URL     string    `json:"url"`
			Code    int       `json:"code"`
			Message string    `json:"message"`
		}{e.Type, e.URL, e.Code, e.Message})
	case Exit:
		return json.Marshal(struct {
			Type EventType `json:"type"`
		}{e.Type})
	default:
		return nil, fmt.Errorf("unknown event type %q", e.Type)
	}
}

// UnmarshalJSON accepts any of the shapes produced by MarshalJSON.
func (e *Event) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type    EventType `json:"type"`
		URL     string    `json:"url"`
		Code    int       `json:"code"`
		Message string    `json:"message"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*e = Event{Type: raw.Type, URL: raw.URL, Code: raw.Code, Message: raw.Message}
	return nil
}
