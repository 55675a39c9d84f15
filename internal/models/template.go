package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	TemplateNameMaxLen = 30
	ProfileNameMaxLen  = 30
)

// Template is a guild-owned definition of an ordered set of typed fields.
// Destination and grant columns hold either a literal platform id or
// conditional-value expression text, evaluated at delivery time.
type Template struct {
	ID                      uuid.UUID `json:"id"`
	GuildID                 string    `json:"guild_id"`
	Name                    string    `json:"name"`
	Colour                  int       `json:"colour"`
	VerificationDestination *string   `json:"verification_destination,omitempty"`
	ArchiveDestination      *string   `json:"archive_destination,omitempty"`
	GrantID                 *string   `json:"grant_id,omitempty"`
	MaxProfileCount         int       `json:"max_profile_count"`
	MaxFieldCount           int       `json:"max_field_count"`
	CreatedAt               time.Time `json:"created_at"`
	UpdatedAt               time.Time `json:"updated_at"`
}
