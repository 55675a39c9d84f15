package dto

import "github.com/google/uuid"

type BeginSessionRequest struct {
	Template string `json:"template"`
}

// SessionInputRequest carries one step input: a selection (attribute name,
// field reference, "new", "back", "done") or the value being submitted.
type SessionInputRequest struct {
	Input string `json:"input"`
}

type SessionResponse struct {
	SessionID  uuid.UUID `json:"session_id"`
	GuildID    string    `json:"guild_id"`
	TemplateID uuid.UUID `json:"template_id"`
	State      string    `json:"state"`
	Attribute  string    `json:"attribute,omitempty"`
	Prompt     string    `json:"prompt"`
	Clamped    bool      `json:"clamped,omitempty"`
	Warning    string    `json:"warning,omitempty"`
	Notice     string    `json:"notice,omitempty"`
}
