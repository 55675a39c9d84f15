package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateProfileRequest struct {
	Name string `json:"name"`
}

// SetValueRequest carries one filled value. A null value clears an optional
// field.
type SetValueRequest struct {
	Value *string `json:"value"`
}

type ProfileResponse struct {
	OwnerUserID string    `json:"owner_user_id"`
	TemplateID  uuid.UUID `json:"template_id"`
	Name        string    `json:"name"`
	Verified    bool      `json:"verified"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type RowResponse struct {
	Label  string `json:"label"`
	Value  string `json:"value"`
	Layout string `json:"layout"`
	Image  bool   `json:"image,omitempty"`
}

type RenderedProfileResponse struct {
	Profile ProfileResponse `json:"profile"`
	Rows    []RowResponse   `json:"rows"`
}

type FilledFieldResponse struct {
	OwnerUserID string    `json:"owner_user_id"`
	FieldID     uuid.UUID `json:"field_id"`
	Value       *string   `json:"value"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DeliveryRequest names the owner's role ids so conditional destinations and
// grants can be evaluated against the profile owner, not the caller.
type DeliveryRequest struct {
	OwnerRoles []string `json:"owner_roles"`
}

type DeliveryResponse struct {
	Delivered bool     `json:"delivered"`
	Granted   bool     `json:"granted"`
	Notices   []string `json:"notices,omitempty"`
}
