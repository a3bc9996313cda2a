package websocket

import (
	"encoding/json"
	"sync"

	"document-qa-be/internal/pkg/logger"
)

// Hub tracks every connected client and broadcasts pushed payloads to all
// of them. Single user, possibly many tabs: there is no per-user registry.
type Hub struct {
	clients map[*Client]bool

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Lock for safe map access
	mu sync.RWMutex

	// Dedicated Logger
	logger logger.ILogger
}

func NewHub(log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		logger:     log,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"clients": h.ClientCount()})

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}
			h.mu.Unlock()
			h.logger.Info("Hub", "Client unregistered", map[string]interface{}{"clients": h.ClientCount()})
		}
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends a payload to ALL connected clients. A client whose send
// buffer is full is dropped rather than allowed to stall the others.
func (h *Hub) Broadcast(payload interface{}) {
	data, err := json.Marshal(map[string]interface{}{
		"type": "event",
		"data": payload,
	})
	if err != nil {
		h.logger.Error("Hub", "Failed to marshal broadcast payload", map[string]interface{}{"error": err.Error()})
		return
	}

	h.mu.RLock()
	stalled := make([]*Client, 0)
	for client := range h.clients {
		select {
		case client.Send <- data:
		default:
			stalled = append(stalled, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range stalled {
		h.unregister <- client
	}
}
