package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// Event kinds pushed to the staff dashboard.
const (
	KindPrediction = "prediction_updated"
	KindCampaign   = "campaign_sent"
	KindCheckIn    = "member_checked_in"
	KindRun        = "retention_run"
	KindBackup     = "backup_status"
)

// Event is a real-time notification broadcast to connected staff dashboards.
type Event struct {
	Kind     string         `json:"kind"`
	MemberID int64          `json:"member_id,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
}

// NewEvent creates an Event for the given kind and member.
func NewEvent(kind string, memberID int64, data map[string]any) Event {
	return Event{Kind: kind, MemberID: memberID, Data: data}
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

// Broadcast sends an event to all connected clients. Clients with a full
// send buffer are skipped rather than blocked on.
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
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
