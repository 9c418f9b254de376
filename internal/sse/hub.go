// Package sse pushes scene, accent and preset updates to preview pages.
package sse

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Client represents a connected SSE browser client.
type Client struct {
	ID     string
	Events chan []byte // outbound event data
}

// NewClient creates a client with a random ID and a buffered event channel.
func NewClient() *Client {
	return &Client{ID: uuid.NewString(), Events: make(chan []byte, 32)}
}

type message struct {
	event string
	data  []byte
}

// Hub manages SSE client connections and broadcasts events. The last
// message of each event name is kept and replayed to clients that connect
// later, so a fresh page starts from the current state.
type Hub struct {
	clients    map[*Client]bool
	last       map[string][]byte
	order      []string
	broadcast  chan message
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
	done       chan struct{}
	closeOnce  sync.Once
}

// NewHub creates a new SSE hub.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		last:       make(map[string][]byte),
		broadcast:  make(chan message, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's event loop. Call in a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			for _, event := range h.order {
				select {
				case client.Events <- h.last[event]:
				default:
				}
			}
			h.mu.Unlock()
			slog.Info("sse client connected", "id", client.ID, "total", h.Count())

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Events)
			}
			h.mu.Unlock()
			slog.Info("sse client disconnected", "id", client.ID, "total", h.Count())

		case msg := <-h.broadcast:
			h.mu.Lock()
			if _, seen := h.last[msg.event]; !seen {
				h.order = append(h.order, msg.event)
			}
			h.last[msg.event] = msg.data
			for client := range h.clients {
				select {
				case client.Events <- msg.data:
				default:
					// Client buffer full, drop rather than block.
					slog.Warn("sse client buffer full, dropping message", "id", client.ID, "event", msg.event)
				}
			}
			h.mu.Unlock()

		case <-h.done:
			h.mu.Lock()
			for client := range h.clients {
				close(client.Events)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Register adds a client to the hub.
// Uses a select so that sends after Close() don't block forever.
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
	}
}

// Unregister removes a client from the hub.
// Uses a select so that sends after Close() don't block forever.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Broadcast sends a named SSE event to all connected clients.
// Uses a select so that sends after Close() don't block forever.
func (h *Hub) Broadcast(event string, data []byte) {
	msg := message{event: event, data: fmt.Appendf(nil, "event: %s\ndata: %s\n\n", event, data)}
	select {
	case h.broadcast <- msg:
	case <-h.done:
	}
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close shuts down the hub. It is safe to call more than once.
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}
