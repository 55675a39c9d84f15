package services

import (
	"context"
	"fmt"
	"log"

	"github.com/alenk/profilio-api/internal/events"
	"github.com/alenk/profilio-api/internal/models"
)

// Notifier is the verification/archival collaborator boundary: it delivers a
// rendered profile card to a destination. Delivery is an at-most-once side
// effect; failures are reported to the initiating user and never retried.
type Notifier interface {
	NotifyVerified(ctx context.Context, guildID, destination string, profile *models.Profile, rows []Row) error
	NotifyArchived(ctx context.Context, guildID, destination string, profile *models.Profile, rows []Row) error
}

// RoleGranter assigns the configured privilege when a profile is verified.
type RoleGranter interface {
	Grant(ctx context.Context, guildID, userID, roleID string) error
}

// HubNotifier delivers cards to moderation clients connected to the SSE hub.
type HubNotifier struct {
	hub *events.Hub
}

func NewHubNotifier(hub *events.Hub) *HubNotifier {
	return &HubNotifier{hub: hub}
}

func (n *HubNotifier) NotifyVerified(_ context.Context, guildID, destination string, profile *models.Profile, rows []Row) error {
	ok := n.hub.BroadcastToGuild(guildID, events.Event{
		Type: "profile.verified",
		Data: events.ProfileVerifiedData{
			GuildID:     guildID,
			TemplateID:  profile.TemplateID,
			OwnerUserID: profile.OwnerUserID,
			ProfileName: profile.Name,
			Destination: destination,
			Rows:        rows,
		},
	})
	if !ok {
		return fmt.Errorf("%w: event queue full", ErrDelivery)
	}
	return nil
}

func (n *HubNotifier) NotifyArchived(_ context.Context, guildID, destination string, profile *models.Profile, rows []Row) error {
	ok := n.hub.BroadcastToGuild(guildID, events.Event{
		Type: "profile.archived",
		Data: events.ProfileArchivedData{
			GuildID:     guildID,
			TemplateID:  profile.TemplateID,
			OwnerUserID: profile.OwnerUserID,
			ProfileName: profile.Name,
			Destination: destination,
			Rows:        rows,
		},
	})
	if !ok {
		return fmt.Errorf("%w: event queue full", ErrDelivery)
	}
	return nil
}

// LogGranter stands in for the platform's role-assignment API. The grant is
// logged so an operator can reconcile; the outcome still reports success.
type LogGranter struct{}

func (LogGranter) Grant(_ context.Context, guildID, userID, roleID string) error {
	log.Printf("grant role %s to user %s in guild %s", roleID, userID, guildID)
	return nil
}
