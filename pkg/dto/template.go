package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateTemplateRequest struct {
	Name string `json:"name"`
}

type TemplateResponse struct {
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
