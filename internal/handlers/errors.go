package handlers

import (
	"errors"

	"github.com/alenk/profilio-api/internal/services"
	"github.com/m1z23r/drift/pkg/drift"
)

// respondServiceError maps the service error taxonomy onto HTTP. Validation
// messages are written for end users and passed through verbatim; anything
// unrecognized stays a 500 with the handler's fallback text.
func respondServiceError(c *drift.Context, err error, fallback string) {
	switch {
	case services.IsValidation(err):
		c.BadRequest(err.Error())
	case errors.Is(err, services.ErrNotFound):
		c.NotFound("not found")
	case errors.Is(err, services.ErrPermissionDenied):
		c.Forbidden("you do not have permission to do that")
	case errors.Is(err, services.ErrSessionBusy):
		_ = c.JSON(409, map[string]string{"error": "another edit session is already active for this guild"})
	case errors.Is(err, services.ErrSessionClosed):
		_ = c.JSON(410, map[string]string{"error": "this edit session has ended"})
	default:
		c.InternalServerError(fallback)
	}
}
