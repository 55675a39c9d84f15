package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHub(t *testing.T) {
	hub := NewHub()

	assert.NotNil(t, hub)
	assert.NotNil(t, hub.clients)
	assert.NotNil(t, hub.register)
	assert.NotNil(t, hub.unregister)
	assert.NotNil(t, hub.broadcast)
}

func TestHub_RegisterClient(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := &Client{
		ID:     "client-1",
		UserID: "100",
		Guilds: map[string]bool{"g1": true},
		Send:   make(chan []byte, 256),
	}

	hub.Register(client)
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	_, exists := hub.clients[client.ID]
	hub.mu.RUnlock()

	assert.True(t, exists)
	assert.True(t, hub.HasListeners("g1"))
	assert.False(t, hub.HasListeners("g2"))
}

func TestHub_UnregisterClient(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := &Client{
		ID:     "client-1",
		UserID: "100",
		Guilds: map[string]bool{"g1": true},
		Send:   make(chan []byte, 256),
	}

	hub.Register(client)
	time.Sleep(10 * time.Millisecond)

	hub.Unregister(client)
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	_, exists := hub.clients[client.ID]
	hub.mu.RUnlock()

	assert.False(t, exists)
}

func TestHub_BroadcastToGuild(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	subscribed := &Client{
		ID:     "client-1",
		UserID: "100",
		Guilds: map[string]bool{"g1": true},
		Send:   make(chan []byte, 256),
	}
	other := &Client{
		ID:     "client-2",
		UserID: "200",
		Guilds: map[string]bool{"g2": true},
		Send:   make(chan []byte, 256),
	}

	hub.Register(subscribed)
	hub.Register(other)
	time.Sleep(10 * time.Millisecond)

	ok := hub.BroadcastToGuild("g1", Event{
		Type: "profile.verified",
		Data: ProfileVerifiedData{GuildID: "g1", OwnerUserID: "100", ProfileName: "main"},
	})
	require.True(t, ok)

	select {
	case msg := <-subscribed.Send:
		var event Event
		require.NoError(t, json.Unmarshal(msg, &event))
		assert.Equal(t, "profile.verified", event.Type)
	case <-time.After(time.Second):
		t.Fatal("subscribed client did not receive event")
	}

	select {
	case <-other.Send:
		t.Fatal("client for another guild received event")
	case <-time.After(50 * time.Millisecond):
	}
}
