package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	FieldNameMaxLen         = 45
	FieldNameMaxLenElevated = 256
	FieldTimeoutMin         = 30
	FieldTimeoutMax         = 600
)

// Field is one typed, ordered slot in a Template. Fields are never physically
// removed: filled values reference them by id, so deletion only sets the
// Deleted flag and readers filter on it.
type Field struct {
	ID         uuid.UUID `json:"id"`
	TemplateID uuid.UUID `json:"template_id"`
	Index      int       `json:"index"`
	Name       string    `json:"name"`
	Prompt     string    `json:"prompt"`
	Timeout    int       `json:"timeout"`
	Type       FieldType `json:"type"`
	Optional   bool      `json:"optional"`
	Deleted    bool      `json:"deleted"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
