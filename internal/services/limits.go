package services

import (
	"context"

	"github.com/alenk/profilio-api/internal/models"
)

// Limits is a guild's entitlement ceiling, consulted when edit sessions
// validate count attributes. Requested values above a ceiling are clamped,
// not rejected.
type Limits struct {
	MaxTemplates int  `json:"max_templates"`
	MaxFields    int  `json:"max_fields"`
	MaxProfiles  int  `json:"max_profiles"`
	Elevated     bool `json:"elevated"`
}

// FieldNameLimit is the per-tier field name length ceiling.
func (l Limits) FieldNameLimit() int {
	if l.Elevated {
		return models.FieldNameMaxLenElevated
	}
	return models.FieldNameMaxLen
}

// LimitsProvider is the perks/quota collaborator boundary.
type LimitsProvider interface {
	Limits(ctx context.Context, guildID string) (Limits, error)
}

// StaticLimits serves a base tier plus an elevated tier for listed guilds.
type StaticLimits struct {
	Base           Limits
	ElevatedTier   Limits
	ElevatedGuilds map[string]bool
}

func NewStaticLimits(elevatedGuilds []string) *StaticLimits {
	guilds := make(map[string]bool, len(elevatedGuilds))
	for _, g := range elevatedGuilds {
		guilds[g] = true
	}
	return &StaticLimits{
		Base:           Limits{MaxTemplates: 5, MaxFields: 10, MaxProfiles: 10},
		ElevatedTier:   Limits{MaxTemplates: 25, MaxFields: 25, MaxProfiles: 50, Elevated: true},
		ElevatedGuilds: guilds,
	}
}

func (s *StaticLimits) Limits(_ context.Context, guildID string) (Limits, error) {
	if s.ElevatedGuilds[guildID] {
		return s.ElevatedTier, nil
	}
	return s.Base, nil
}
