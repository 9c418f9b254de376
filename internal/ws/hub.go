// Package ws is the control-surface WebSocket channel: clients send scene
// commands and receive every committed change.
package ws

import (
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"
)

// Client is one connected control surface.
type Client struct {
	ID   string
	Send chan []byte
	Conn *websocket.Conn
}

type directMessage struct {
	client *Client
	data   []byte
}

// Hub tracks control clients and fans out broadcasts to them.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	direct     chan directMessage
	mu         sync.RWMutex
	done       chan struct{}
	closeOnce  sync.Once
}

// NewHub creates a hub. Call Run in a goroutine.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 64),
		direct:     make(chan directMessage, 64),
		done:       make(chan struct{}),
	}
}

// Run is the hub's event loop.
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			h.mu.Unlock()
			slog.Info("ws client connected", "id", c.ID)

		case c := <-h.unregister:
			h.mu.Lock()
			if h.clients[c] {
				delete(h.clients, c)
				close(c.Send)
			}
			h.mu.Unlock()
			slog.Info("ws client disconnected", "id", c.ID)

		case data := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.Send <- data:
				default:
					// A client that cannot keep up is dropped.
					slog.Warn("ws client too slow, disconnecting", "id", c.ID)
					delete(h.clients, c)
					close(c.Send)
				}
			}
			h.mu.Unlock()

		case msg := <-h.direct:
			h.mu.RLock()
			if h.clients[msg.client] {
				select {
				case msg.client.Send <- msg.data:
				default:
					slog.Warn("ws reply dropped, client buffer full", "id", msg.client.ID)
				}
			}
			h.mu.RUnlock()

		case <-h.done:
			h.mu.Lock()
			for c := range h.clients {
				delete(h.clients, c)
				close(c.Send)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Register adds a client.
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
	}
}

// Unregister removes a client and closes its Send channel.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Broadcast queues data for every client.
func (h *Hub) Broadcast(data []byte) {
	select {
	case h.broadcast <- data:
	case <-h.done:
	}
}

// Send queues data for one client. Only the hub writes to or closes a
// client's Send channel.
func (h *Hub) Send(c *Client, data []byte) {
	select {
	case h.direct <- directMessage{client: c, data: data}:
	case <-h.done:
	}
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close stops the hub and closes every client's Send channel.
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}
