package services

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"bookflow-backend/internal/models"
)

// Event types pushed over the hub.
const (
	EventExchangeProposed = "exchange_proposed"
	EventExchangeUpdated  = "exchange_updated"
)

// HubMessage is the wire shape of a hub event
type HubMessage struct {
	Type     string           `json:"type"`
	Exchange *models.Exchange `json:"exchange,omitempty"`
	Message  string           `json:"message,omitempty"`
}

// Hub manages WebSocket connections keyed by user id and pushes exchange
// lifecycle events to the parties involved
type Hub struct {
	mu          sync.RWMutex
	connections map[string]*websocket.Conn
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{
		connections: make(map[string]*websocket.Conn),
	}
}

// Register registers a new WebSocket connection for a user
func (h *Hub) Register(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	// A new connection replaces the previous one.
	if existing, ok := h.connections[userID]; ok {
		existing.Close()
	}
	h.connections[userID] = conn

	log.Info().Str("user_id", userID).Msg("WebSocket connection registered")
}

// Unregister removes a WebSocket connection for a user
func (h *Hub) Unregister(userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conn, ok := h.connections[userID]; ok {
		conn.Close()
		delete(h.connections, userID)
		log.Info().Str("user_id", userID).Msg("WebSocket connection unregistered")
	}
}

// IsOnline checks if a user has a live connection
func (h *Hub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.connections[userID]
	return ok
}

// SendToUser sends a message to a specific user
func (h *Hub) SendToUser(userID string, message HubMessage) error {
	h.mu.RLock()
	conn, ok := h.connections[userID]
	h.mu.RUnlock()

	if !ok {
		return fmt.Errorf("user %s is not connected", userID)
	}

	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		h.Unregister(userID)
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// NotifyExchangeProposed tells the responder a new exchange awaits them
func (h *Hub) NotifyExchangeProposed(exchange *models.Exchange) {
	h.notify(exchange, HubMessage{Type: EventExchangeProposed, Exchange: exchange},
		exchange.ResponderID)
}

// NotifyExchangeUpdated tells both parties the exchange changed status
func (h *Hub) NotifyExchangeUpdated(exchange *models.Exchange) {
	h.notify(exchange, HubMessage{Type: EventExchangeUpdated, Exchange: exchange},
		exchange.InitiatorID, exchange.ResponderID)
}

func (h *Hub) notify(exchange *models.Exchange, message HubMessage, userIDs ...string) {
	for _, userID := range userIDs {
		if !h.IsOnline(userID) {
			continue
		}
		if err := h.SendToUser(userID, message); err != nil {
			log.Error().
				Err(err).
				Str("user_id", userID).
				Str("exchange_id", exchange.ID).
				Msg("Failed to push exchange event")
		}
	}
}
