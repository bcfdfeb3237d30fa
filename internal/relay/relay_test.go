package relay

import (
	"encoding/json"
	"testing"
)

type recorder struct {
	results []Result
}

func (r *recorder) cb(res Result) { r.results = append(r.results, res) }

func (r *recorder) events(t *testing.T) []Event {
	t.Helper()
	var out []Event
	for _, res := range r.results {
		var ev Event
		if err := json.Unmarshal(res.Message, &ev); err != nil {
			t.Fatalf("decode %s: %v", res.Message, err)
		}
		out = append(out, ev)
	}
	return out
}

func TestSendWithoutChannelIsDropped(t *testing.T) {
	r := New()
	r.Send(LoadStopEvent("http://x"), true, StatusOK)
	if r.Active() {
		t.Fatal("relay should have no channel")
	}
}

func TestKeepAliveFalseReleasesChannel(t *testing.T) {
	r := New()
	rec := &recorder{}
	r.Register(rec.cb)

	r.Send(LoadStartEvent("http://a"), true, StatusOK)
	r.Send(ExitEvent(), false, StatusOK)
	r.Send(LoadStopEvent("http://a"), true, StatusOK)

	if len(rec.results) != 2 {
		t.Fatalf("got %d deliveries, want 2", len(rec.results))
	}
	if rec.results[1].KeepCallback {
		t.Error("exit delivery should not keep the callback")
	}
	if r.Active() {
		t.Error("channel should be released after keep-alive false")
	}
}

func TestRegisterReplacesChannel(t *testing.T) {
	r := New()
	first, second := &recorder{}, &recorder{}
	id1 := r.Register(first.cb)
	id2 := r.Register(second.cb)
	if id1 == id2 {
		t.Fatal("channel ids should differ")
	}

	r.Send(LoadStartEvent("http://b"), true, StatusOK)
	if len(first.results) != 0 {
		t.Error("replaced channel received an event")
	}
	if len(second.results) != 1 {
		t.Errorf("new channel got %d events, want 1", len(second.results))
	}
}

func TestOrderingPreserved(t *testing.T) {
	r := New()
	rec := &recorder{}
	r.Register(rec.cb)

	r.Send(LoadStartEvent("http://a"), true, StatusOK)
	r.Send(LoadStopEvent("http://a"), true, StatusOK)
	r.Send(LoadStartEvent("http://b"), true, StatusOK)
	r.Send(LoadStopEvent("http://b"), true, StatusOK)

	want := []Event{LoadStartEvent("http://a"), LoadStopEvent("http://a"), LoadStartEvent("http://b"), LoadStopEvent("http://b")}
	got := rec.events(t)
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestEventJSONShapes(t *testing.T) {
	tests := []struct {
		ev   Event
		want string
	}{
		{LoadStartEvent(""), `{"type":"loadstart","url":""}`},
		{LoadStopEvent("http://x"), `{"type":"loadstop","url":"http://x"}`},
		{LoadErrorEvent("http://x", -2, "net::ERR_NAME_NOT_RESOLVED"), `{"type":"loaderror","url":"http://x","code":-2,"message":"net::ERR_NAME_NOT_RESOLVED"}`},
		{ExitEvent(), `{"type":"exit"}`},
	}
	for _, tt := range tests {
		data, err := json.Marshal(tt.ev)
		if err != nil {
			t.Fatalf("marshal %v: %v", tt.ev, err)
		}
		if string(data) != tt.want {
			t.Errorf("marshal = %s, want %s", data, tt.want)
		}
	}
}

func TestUnknownEventNotSent(t *testing.T) {
	r := New()
	rec := &recorder{}
	r.Register(rec.cb)
	r.Send(Event{Type: "bogus"}, true, StatusOK)
	if len(rec.results) != 0 {
		t.Fatal("unencodable event was delivered")
	}
}

func TestCallbackPanicIsContained(t *testing.T) {
	r := New()
	r.Register(func(Result) { panic("boom") })
	r.SendString("", true, StatusOK)
}

func TestErrorStatusDelivered(t *testing.T) {
	r := New()
	rec := &recorder{}
	r.Register(rec.cb)
	r.Send(LoadErrorEvent("http://x", -6, "refused"), true, StatusError)
	if rec.results[0].Status != StatusError {
		t.Errorf("status = %v, want ERROR", rec.results[0].Status)
	}
}
