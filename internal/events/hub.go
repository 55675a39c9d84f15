// Package events fans delivery notices out to connected moderation clients
// over SSE: verification and archive cards, template changes. Delivery is
// best-effort; a slow client is skipped, never waited on.
package events

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
)

type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type ProfileVerifiedData struct {
	GuildID     string    `json:"guild_id"`
	TemplateID  uuid.UUID `json:"template_id"`
	OwnerUserID string    `json:"owner_user_id"`
	ProfileName string    `json:"profile_name"`
	Destination string    `json:"destination"`
	Rows        any       `json:"rows"`
}

type ProfileArchivedData struct {
	GuildID     string    `json:"guild_id"`
	TemplateID  uuid.UUID `json:"template_id"`
	OwnerUserID string    `json:"owner_user_id"`
	ProfileName string    `json:"profile_name"`
	Destination string    `json:"destination"`
	Rows        any       `json:"rows"`
}

type TemplateUpdatedData struct {
	GuildID    string    `json:"guild_id"`
	TemplateID uuid.UUID `json:"template_id"`
	Attribute  string    `json:"attribute"`
	UpdatedBy  string    `json:"updated_by"`
}

type Client struct {
	ID     string
	UserID string
	Guilds map[string]bool
	Send   chan []byte
}

type GuildMessage struct {
	GuildID string
	Event   Event
}

type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan *GuildMessage
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *GuildMessage, 256),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				delete(h.clients, client.ID)
				close(client.Send)
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.RLock()
			data, _ := json.Marshal(msg.Event)
			for _, client := range h.clients {
				if client.Guilds[msg.GuildID] {
					select {
					case client.Send <- data:
					default:
						// Client buffer full, skip
					}
				}
			}
			h.mu.RUnlock()
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// BroadcastToGuild queues an event for every client subscribed to the guild.
// It reports false when the hub's queue is full.
func (h *Hub) BroadcastToGuild(guildID string, event Event) bool {
	select {
	case h.broadcast <- &GuildMessage{GuildID: guildID, Event: event}:
		return true
	default:
		return false
	}
}

// HasListeners reports whether any connected client subscribes to the guild.
func (h *Hub) HasListeners(guildID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		if client.Guilds[guildID] {
			return true
		}
	}
	return false
}
