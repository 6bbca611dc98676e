// Package live pushes tournament updates to connected websocket viewers.
// There is exactly one tournament, so all clients share one broadcast group.
package live

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// Event types sent to clients.
const (
	EventMatchUpdated    = "MATCH_UPDATED"
	EventBracketUpdated  = "BRACKET_UPDATED"
	EventStatusUpdated   = "STATUS_UPDATED"
	EventChampionDecided = "CHAMPION_DECIDED"
)

type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// Broadcaster is what the service layer sees; the hub implements it.
type Broadcaster interface {
	Broadcast(eventType string, payload interface{})
}

type Hub struct {
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte

	mu      sync.RWMutex
	clients map[*Client]bool

	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 16),
		clients:    make(map[*Client]bool),
		logger:     logger,
	}
}

// Run owns the client set. It is meant to be started once, as a goroutine,
// and runs for the lifetime of the process.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("websocket client registered", slog.Int("clients", count))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.closeSend()
			}
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("websocket client unregistered", slog.Int("clients", count))

		case message := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Slow consumer; drop the message rather than block the hub.
					h.logger.Warn("websocket client send buffer full, dropping message")
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Broadcast marshals the event and queues it for every connected client.
func (h *Hub) Broadcast(eventType string, payload interface{}) {
	messageBytes, err := json.Marshal(Message{Type: eventType, Payload: payload})
	if err != nil {
		h.logger.Error("failed to marshal websocket message", slog.String("type", eventType), slog.Any("error", err))
		return
	}

	select {
	case h.broadcast <- messageBytes:
	default:
		h.logger.Warn("websocket broadcast buffer full, dropping message", slog.String("type", eventType))
	}
}
