package websocket

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"ripple-social/internal/models"

	"github.com/google/uuid"
)

// MessageToSend targets a payload at one user's connections.
type MessageToSend struct {
	TargetUserID uuid.UUID
	Payload      []byte
}

// Hub maintains the set of active clients and delivers notification
// payloads to them. A user may hold several connections (multiple tabs);
// each gets its own Client entry.
type Hub struct {
	// Registered clients, user ID to set of active connections.
	Clients map[uuid.UUID]map[*Client]bool

	// Channel for sending payloads to specific users.
	SendDirect chan *MessageToSend

	// Register requests from the clients.
	Register chan *Client

	// Unregister requests from clients.
	Unregister chan *Client

	mu sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		SendDirect: make(chan *MessageToSend),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Clients:    make(map[uuid.UUID]map[*Client]bool),
	}
}

// Run starts the hub's processing loop.
func (h *Hub) Run() {
	log.Println("WebSocket hub started")
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			if _, ok := h.Clients[client.UserID]; !ok {
				h.Clients[client.UserID] = make(map[*Client]bool)
			}
			h.Clients[client.UserID][client] = true
			h.mu.Unlock()

		case client := <-h.Unregister:
			h.mu.Lock()
			if userClients, ok := h.Clients[client.UserID]; ok {
				if _, clientOk := userClients[client]; clientOk {
					delete(userClients, client)
					if len(userClients) == 0 {
						delete(h.Clients, client.UserID)
					}
				}
			}
			h.mu.Unlock()

		case message := <-h.SendDirect:
			h.mu.RLock()
			for client := range h.Clients[message.TargetUserID] {
				select {
				case client.Send <- message.Payload:
				default:
					log.Printf("Send buffer full for a connection of user %s, dropping payload", client.UserID)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// NotifyUser pushes a notification to every open connection of the
// target user. A disconnected target is not an error; the payload is
// simply dropped.
func (h *Hub) NotifyUser(targetUserID uuid.UUID, notification *models.Notification) {
	payload, err := json.Marshal(notification)
	if err != nil {
		log.Printf("Failed to marshal notification for user %s: %v", targetUserID, err)
		return
	}

	message := &MessageToSend{
		TargetUserID: targetUserID,
		Payload:      payload,
	}
	select {
	case h.SendDirect <- message:
	case <-time.After(1 * time.Second):
		log.Printf("Timeout queuing notification for user %s", targetUserID)
	}
}
