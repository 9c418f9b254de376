package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/jota2rz/led-scroller/internal/store"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	maxMessage = 64 << 10
)

// Server upgrades control connections and runs their read and write pumps.
type Server struct {
	hub      *Hub
	exec     *Executor
	origin   string
	upgrader websocket.Upgrader
}

// Option configures a Server.
type Option func(*Server)

// WithAllowedOrigin accepts connections from origin in addition to the
// serving host itself.
func WithAllowedOrigin(origin string) Option {
	return func(s *Server) { s.origin = strings.TrimRight(origin, "/") }
}

// NewServer creates a WebSocket endpoint backed by hub and exec.
func NewServer(hub *Hub, exec *Executor, opts ...Option) *Server {
	s := &Server{hub: hub, exec: exec}
	for _, o := range opts {
		o(s)
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

// checkOrigin allows requests without an Origin header, same-host pages
// and the configured cross-origin page.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if s.origin != "" && (s.origin == "*" || strings.EqualFold(origin, s.origin)) {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

// Publish forwards a committed store change to every client.
func (s *Server) Publish(ch store.Change) {
	if len(ch.Fields) == 0 {
		return
	}
	data, err := json.Marshal(Update{Type: "scene", Fields: ch.Fields, Preset: ch.Preset, Scene: ch.Config})
	if err != nil {
		slog.Error("ws: marshal update", "error", err)
		return
	}
	s.hub.Broadcast(data)
}

// ServeHTTP handles GET /ws/control.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("ws upgrade failed", "error", err)
		return
	}
	c := &Client{ID: uuid.NewString(), Send: make(chan []byte, 256), Conn: conn}
	s.hub.Register(c)

	go s.writePump(c)
	s.readPump(c)
}

func (s *Server) readPump(c *Client) {
	defer func() {
		s.hub.Unregister(c)
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessage)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var cmd Command
		if err := c.Conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("ws read error", "id", c.ID, "error", err)
			}
			return
		}
		reply := s.exec.Execute(context.Background(), cmd)
		data, err := json.Marshal(reply)
		if err != nil {
			slog.Error("ws: marshal reply", "error", err)
			continue
		}
		s.hub.Send(c, data)
	}
}

func (s *Server) writePump(c *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				slog.Warn("ws write error", "id", c.ID, "error", err)
				return
			}
		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
