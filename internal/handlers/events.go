package handlers

import (
	"github.com/alenk/profilio-api/internal/events"
	"github.com/alenk/profilio-api/internal/middleware"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

type EventsHandler struct {
	hub *events.Hub
}

func NewEventsHandler(hub *events.Hub) *EventsHandler {
	return &EventsHandler{
		hub: hub,
	}
}

// Connect streams a guild's delivery notices and template changes over SSE.
func (h *EventsHandler) Connect(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == "" {
		c.Unauthorized("not authenticated")
		return
	}

	guildID := c.Param("guildId")
	if guildID == "" {
		c.BadRequest("guild id is required")
		return
	}

	sseCtx := c.SSE()

	clientID := uuid.New().String()
	client := &events.Client{
		ID:     clientID,
		UserID: userID,
		Guilds: map[string]bool{guildID: true},
		Send:   make(chan []byte, 256),
	}

	h.hub.Register(client)
	defer h.hub.Unregister(client)

	if err := sseCtx.SendJSON(map[string]string{
		"type":      "connected",
		"client_id": clientID,
	}, "system", ""); err != nil {
		return
	}

	done := make(chan struct{})
	go func() {
		<-c.Request.Context().Done()
		close(done)
	}()

	for {
		select {
		case msg, ok := <-client.Send:
			if !ok {
				return
			}
			if err := sseCtx.Send(string(msg), "message", ""); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
