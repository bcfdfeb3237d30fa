// Package bridge exposes the in-app browser to remote hosts over a
// websocket. Each inbound message names an action; every result and event
// delivered to its callback is written back tagged with the message id.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	. "github.com/roelfdiedericks/inappbrowser/internal/logging"
	"github.com/roelfdiedericks/inappbrowser/internal/metrics"
	"github.com/roelfdiedericks/inappbrowser/internal/relay"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 64
)

// Executor runs a named action. iab.Plugin implements it.
type Executor interface {
	Exec(action string, args json.RawMessage, cb relay.Callback) error
}

// Request is one inbound message.
type Request struct {
	ID     string          `json:"id"`
	Action string          `json:"action"`
	Args   json.RawMessage `json:"args,omitempty"`
}

// Response is one outbound message. Message is omitted for empty payloads.
type Response struct {
	CallbackID   string          `json:"callbackId"`
	Status       string          `json:"status"`
	KeepCallback bool            `json:"keepCallback"`
	Message      json.RawMessage `json:"message,omitempty"`
}

// Config holds bridge server configuration.
type Config struct {
	Listen         string   // address to listen on, e.g. "127.0.0.1:7690"
	AllowedOrigins []string // empty allows any origin
}

// Server accepts websocket clients on /ws.
type Server struct {
	exec     Executor
	cfg      Config
	upgrader websocket.Upgrader
	server   *http.Server

	mu      sync.Mutex
	clients map[*client]struct{}
	wg      sync.WaitGroup
}

// New creates a bridge server dispatching to exec.
func New(exec Executor, cfg Config) *Server {
	s := &Server{
		exec:    exec,
		cfg:     cfg,
		clients: make(map[*client]struct{}),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

func (s *Server) checkOrigin(r *http.Request) bool {
	if len(s.cfg.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, o := range s.cfg.AllowedOrigins {
		if o == origin {
			return true
		}
	}
	L_warn("bridge: origin rejected", "origin", origin)
	return false
}

// Handler returns the HTTP routes served by the bridge: /ws, /healthz and
// /metrics.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(metrics.Global().Snapshot()); err != nil {
			L_debug("bridge: write metrics", "error", err)
		}
	})
	return mux
}

// ListenAndServe serves until ctx is cancelled, then shuts down.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.server = &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		L_info("bridge: server starting", "addr", s.cfg.Listen)
		err := s.server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("bridge listen: %w", err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		L_error("bridge: shutdown error", "error", err)
		return err
	}
	s.closeClients()
	s.wg.Wait()
	L_info("bridge: server stopped")
	return nil
}

func (s *Server) closeClients() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		c.close()
	}
}

// ClientCount returns the number of connected clients.
func (s *Server) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		L_warn("bridge: upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	c := &client{
		conn: conn,
		send: make(chan Response, sendBuffer),
		done: make(chan struct{}),
	}
	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()
	L_info("bridge: client connected", "remote", r.RemoteAddr)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		c.writePump()
	}()

	s.readPump(c)

	s.mu.Lock()
	delete(s.clients, c)
	s.mu.Unlock()
	c.close()
	L_info("bridge: client disconnected", "remote", r.RemoteAddr)
}

func (s *Server) readPump(c *client) {
	c.conn.SetReadLimit(1 << 20)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var req Request
		if err := c.conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				L_warn("bridge: read error", "error", err)
			}
			return
		}
		s.dispatch(c, req)
	}
}

func (s *Server) dispatch(c *client, req Request) {
	L_debug("bridge: request", "id", req.ID, "action", req.Action)

	cb := func(res relay.Result) {
		c.enqueue(Response{
			CallbackID:   req.ID,
			Status:       res.Status.String(),
			KeepCallback: res.KeepCallback,
			Message:      res.Message,
		})
	}

	if err := s.exec.Exec(req.Action, req.Args, cb); err != nil {
		L_warn("bridge: exec failed", "id", req.ID, "action", req.Action, "error", err)
		msg, _ := json.Marshal(err.Error())
		c.enqueue(Response{
			CallbackID: req.ID,
			Status:     relay.StatusError.String(),
			Message:    msg,
		})
	}
}

type client struct {
	conn *websocket.Conn
	send chan Response

	closeOnce sync.Once
	done      chan struct{}
}

// enqueue never blocks; callbacks run on the UI loop. A client that cannot
// keep up is disconnected rather than sent a channel with gaps in it.
func (c *client) enqueue(res Response) {
	select {
	case <-c.done:
		L_debug("bridge: client gone, response dropped", "id", res.CallbackID)
	case c.send <- res:
	default:
		L_warn("bridge: send buffer full, disconnecting slow client", "id", res.CallbackID)
		c.close()
	}
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case res := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(res); err != nil {
				L_debug("bridge: write error", "error", err)
				c.close()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		case <-c.done:
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
			return
		}
	}
}
