package bridge

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roelfdiedericks/inappbrowser/internal/metrics"
	"github.com/roelfdiedericks/inappbrowser/internal/relay"
)

type call struct {
	action string
	args   json.RawMessage
}

type fakeExec struct {
	mu    sync.Mutex
	calls []call
	err   error
	// reply is invoked with the callback of each successful call
	reply func(cb relay.Callback)
}

func (f *fakeExec) Exec(action string, args json.RawMessage, cb relay.Callback) error {
	f.mu.Lock()
	f.calls = append(f.calls, call{action: action, args: args})
	err, reply := f.err, f.reply
	f.mu.Unlock()
	if err != nil {
		return err
	}
	if reply != nil {
		reply(cb)
	}
	return nil
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readResponse(t *testing.T, conn *websocket.Conn) Response {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var res Response
	require.NoError(t, conn.ReadJSON(&res))
	return res
}

func TestExecResultsAreTaggedWithRequestID(t *testing.T) {
	exec := &fakeExec{reply: func(cb relay.Callback) {
		cb(relay.Result{Status: relay.StatusOK, KeepCallback: true, Message: json.RawMessage(`""`)})
		cb(relay.Result{Status: relay.StatusOK, KeepCallback: true, Message: json.RawMessage(`{"type":"loadstart","url":"https://example.com/"}`)})
	}}
	srv := httptest.NewServer(New(exec, Config{}).Handler())
	defer srv.Close()

	conn := dial(t, srv)
	require.NoError(t, conn.WriteJSON(Request{
		ID:     "cb1",
		Action: "open",
		Args:   json.RawMessage(`["example.com","_blank","location=yes"]`),
	}))

	first := readResponse(t, conn)
	assert.Equal(t, "cb1", first.CallbackID)
	assert.Equal(t, "OK", first.Status)
	assert.True(t, first.KeepCallback)
	assert.JSONEq(t, `""`, string(first.Message))

	second := readResponse(t, conn)
	assert.Equal(t, "cb1", second.CallbackID)
	assert.JSONEq(t, `{"type":"loadstart","url":"https://example.com/"}`, string(second.Message))

	exec.mu.Lock()
	defer exec.mu.Unlock()
	require.Len(t, exec.calls, 1)
	assert.Equal(t, "open", exec.calls[0].action)
	assert.JSONEq(t, `["example.com","_blank","location=yes"]`, string(exec.calls[0].args))
}

func TestExecErrorRepliesWithErrorStatus(t *testing.T) {
	exec := &fakeExec{err: errors.New("iab: unknown action: fly")}
	srv := httptest.NewServer(New(exec, Config{}).Handler())
	defer srv.Close()

	conn := dial(t, srv)
	require.NoError(t, conn.WriteJSON(Request{ID: "7", Action: "fly"}))

	res := readResponse(t, conn)
	assert.Equal(t, "7", res.CallbackID)
	assert.Equal(t, "ERROR", res.Status)
	assert.False(t, res.KeepCallback)

	var msg string
	require.NoError(t, json.Unmarshal(res.Message, &msg))
	assert.Contains(t, msg, "unknown action")
}

func TestEmptyMessageIsOmitted(t *testing.T) {
	exec := &fakeExec{reply: func(cb relay.Callback) {
		cb(relay.Result{Status: relay.StatusOK, KeepCallback: true})
	}}
	srv := httptest.NewServer(New(exec, Config{}).Handler())
	defer srv.Close()

	conn := dial(t, srv)
	require.NoError(t, conn.WriteJSON(Request{ID: "s", Action: "show"}))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"message"`)
}

func TestCallbackAfterDisconnectIsDropped(t *testing.T) {
	var saved relay.Callback
	var mu sync.Mutex
	exec := &fakeExec{reply: func(cb relay.Callback) {
		mu.Lock()
		saved = cb
		mu.Unlock()
	}}
	s := New(exec, Config{})
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv), nil)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(Request{ID: "x", Action: "open", Args: json.RawMessage(`["a"]`)}))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return saved != nil
	}, 2*time.Second, 10*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return s.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	cb := saved
	mu.Unlock()
	assert.NotPanics(t, func() {
		cb(relay.Result{Status: relay.StatusOK, Message: json.RawMessage(`{"type":"exit"}`)})
	})
}

func TestOriginCheck(t *testing.T) {
	s := New(&fakeExec{}, Config{AllowedOrigins: []string{"http://allowed.test"}})
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv), http.Header{"Origin": {"http://evil.test"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv), http.Header{"Origin": {"http://allowed.test"}})
	require.NoError(t, err)
	conn.Close()
}

func TestHealthz(t *testing.T) {
	srv := httptest.NewServer(New(&fakeExec{}, Config{}).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	metrics.Global().Reset()
	metrics.MetricCount("relay", "event")

	srv := httptest.NewServer(New(&fakeExec{}, Config{}).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	var stats []metrics.Stat
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	require.Len(t, stats, 1)
	assert.Equal(t, "relay/event", stats[0].Path)
	assert.Equal(t, int64(1), stats[0].Count)
}

func TestFullSendBufferDisconnectsClient(t *testing.T) {
	c := &client{send: make(chan Response, 2), done: make(chan struct{})}
	c.enqueue(Response{CallbackID: "a", Status: "OK", KeepCallback: true})
	c.enqueue(Response{CallbackID: "a", Status: "OK", KeepCallback: true})
	c.enqueue(Response{CallbackID: "a", Status: "OK", Message: json.RawMessage(`{"type":"exit"}`)})

	select {
	case <-c.done:
	default:
		t.Fatal("client still connected after its buffer overflowed")
	}
	assert.Len(t, c.send, 2)

	// later responses are not queued behind the gap
	c.enqueue(Response{CallbackID: "a", Status: "OK"})
	assert.Len(t, c.send, 2)
}

func TestOverflowingClientIsHungUp(t *testing.T) {
	s := New(&fakeExec{}, Config{})
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	conn := dial(t, srv)
	require.Eventually(t, func() bool { return s.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	s.mu.Lock()
	var c *client
	for cl := range s.clients {
		c = cl
	}
	s.mu.Unlock()
	c.close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "err = %v", err)
	require.Eventually(t, func() bool { return s.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}
