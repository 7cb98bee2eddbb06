package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
)

// Message is a live update pushed to every client of a household.
type Message struct {
	Type   string         `json:"type"`
	Entity string         `json:"entity"`
	Action string         `json:"action"`
	ID     int64          `json:"id,omitempty"`
	Extra  map[string]any `json:"extra,omitempty"`
}

// NewMessage creates a Message with the Type field derived from entity and action.
func NewMessage(entity, action string, id int64, extra map[string]any) Message {
	return Message{
		Type:   fmt.Sprintf("%s_%s", entity, action),
		Entity: entity,
		Action: action,
		ID:     id,
		Extra:  extra,
	}
}

// Hub tracks connected clients grouped by household.
type Hub struct {
	mu         sync.RWMutex
	households map[int64]map[*Client]struct{}
	logger     *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		households: make(map[int64]map[*Client]struct{}),
		logger:     logger,
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	clients, ok := h.households[c.householdID]
	if !ok {
		clients = make(map[*Client]struct{})
		h.households[c.householdID] = clients
	}
	clients[c] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes a client from the hub and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if clients, ok := h.households[c.householdID]; ok {
		if _, ok := clients[c]; ok {
			delete(clients, c)
			close(c.send)
		}
		if len(clients) == 0 {
			delete(h.households, c.householdID)
		}
	}
	h.mu.Unlock()
}

// Broadcast sends msg to the clients of one household. Clients whose buffer
// is full miss the message.
func (h *Hub) Broadcast(householdID int64, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal broadcast", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.households[householdID] {
		select {
		case c.send <- data:
		default:
		}
	}
}

// ClientCount returns the number of connected clients across households.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, clients := range h.households {
		n += len(clients)
	}
	return n
}

// HouseholdClientCount returns the number of clients connected for one household.
func (h *Hub) HouseholdClientCount(householdID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.households[householdID])
}
