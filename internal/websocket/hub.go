package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// Event is a ledger update broadcast to all connected viewers.
type Event struct {
	Type   string `json:"type"` // "code_issued" or "code_redeemed"
	Code   string `json:"code"`
	Points int    `json:"points"`
}

// CodeIssued builds the event broadcast when an admin issues a code.
func CodeIssued(code string, points int) Event {
	return Event{Type: "code_issued", Code: code, Points: points}
}

// CodeRedeemed builds the event broadcast when a user redeems a code.
func CodeRedeemed(code string, points int) Event {
	return Event{Type: "code_redeemed", Code: code, Points: points}
}

// Hub maintains the set of active WebSocket clients and broadcasts events.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	logger  *slog.Logger
}

// NewHub creates a new Hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger,
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes a client from the hub and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// Broadcast sends an event to all connected clients.
func (h *Hub) Broadcast(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("marshal broadcast", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			// Client buffer full — drop the event to avoid blocking
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
