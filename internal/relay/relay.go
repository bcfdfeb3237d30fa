// Package relay delivers results and lifecycle events to the single caller
// callback registered by the most recent open request.
package relay

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	. "github.com/roelfdiedericks/inappbrowser/internal/logging"
	. "github.com/roelfdiedericks/inappbrowser/internal/metrics"
)

// Status is the outcome flag attached to every delivery.
type Status int

const (
	StatusOK Status = iota
	StatusError
)

func (s Status) String() string {
	if s == StatusError {
		return "ERROR"
	}
	return "OK"
}

// Result is one delivery to a caller callback. Message is a JSON value
// (an event object, a string, or nil for no payload).
type Result struct {
	Status       Status
	KeepCallback bool
	Message      json.RawMessage
}

// Callback receives deliveries. It runs on the sending goroutine and must
// not block.
type Callback func(Result)

// Relay holds at most one live callback channel. Registering a new channel
// replaces the previous one; a delivery with keep-alive false releases it.
type Relay struct {
	mu        sync.Mutex
	cb        Callback
	channelID string
}

// New creates an empty relay.
func New() *Relay {
	return &Relay{}
}

// Register installs cb as the live channel, replacing any previous one, and
// returns the channel id.
func (r *Relay) Register(cb Callback) string {
	id := uuid.NewString()

	r.mu.Lock()
	prev := r.channelID
	r.cb = cb
	r.channelID = id
	r.mu.Unlock()

	if prev != "" {
		L_debug("relay: channel replaced", "previous", prev, "channel", id)
	} else {
		L_debug("relay: channel registered", "channel", id)
	}
	return id
}

// Active reports whether a channel is registered.
func (r *Relay) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cb != nil
}

// ChannelID returns the live channel id, or "" when none is registered.
func (r *Relay) ChannelID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.channelID
}

// Send encodes ev and delivers it. Dropped silently when no channel is
// registered or the event cannot be encoded.
func (r *Relay) Send(ev Event, keepAlive bool, status Status) {
	data, err := json.Marshal(ev)
	if err != nil {
		L_error("relay: event encode failed, not sent", "type", ev.Type, "error", err)
		return
	}
	r.deliver(Result{Status: status, KeepCallback: keepAlive, Message: data}, string(ev.Type))
}

// SendString delivers a plain string result.
func (r *Relay) SendString(s string, keepAlive bool, status Status) {
	data, err := json.Marshal(s)
	if err != nil {
		L_error("relay: result encode failed, not sent", "error", err)
		return
	}
	r.deliver(Result{Status: status, KeepCallback: keepAlive, Message: data}, "result")
}

// SendEmpty delivers a result without a payload.
func (r *Relay) SendEmpty(keepAlive bool, status Status) {
	r.deliver(Result{Status: status, KeepCallback: keepAlive}, "empty")
}

func (r *Relay) deliver(res Result, kind string) {
	r.mu.Lock()
	cb := r.cb
	id := r.channelID
	if cb != nil && !res.KeepCallback {
		r.cb = nil
		r.channelID = ""
	}
	r.mu.Unlock()

	if cb == nil {
		L_trace("relay: no channel, dropped", "kind", kind)
		return
	}

	L_debug("relay: deliver", "kind", kind, "channel", id, "status", res.Status, "keep", res.KeepCallback)
	Invoke(cb, res)
	MetricCount("relay", kind)

	if !res.KeepCallback {
		L_debug("relay: channel released", "channel", id)
	}
}

// Invoke calls cb with res, recovering and logging a panic so that a
// misbehaving caller cannot take the host down.
func Invoke(cb Callback, res Result) {
	if cb == nil {
		return
	}
	defer func() {
		if p := recover(); p != nil {
			L_error("relay: callback panic", "panic", p)
		}
	}()
	cb(res)
}
