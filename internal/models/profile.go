package models

import (
	"time"

	"github.com/google/uuid"
)

// Profile is a user's filled instance of a Template, identified by
// (owner, template, name) so one user can hold several instances.
type Profile struct {
	OwnerUserID string    `json:"owner_user_id"`
	TemplateID  uuid.UUID `json:"template_id"`
	Name        string    `json:"name"`
	Verified    bool      `json:"verified"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// FilledField is the stored value one user gave for one field. Value is nil
// when the user skipped an optional field; such rows are kept but excluded
// from rendering.
type FilledField struct {
	OwnerUserID string    `json:"owner_user_id"`
	FieldID     uuid.UUID `json:"field_id"`
	Value       *string   `json:"value"`
	UpdatedAt   time.Time `json:"updated_at"`
}
