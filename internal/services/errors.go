package services

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by the domain services. Validation problems carry a
// user-facing reason and keep the surrounding workflow alive; the sentinels
// below are hard outcomes the caller has to act on.
var (
	ErrNotFound         = errors.New("not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrSessionBusy      = errors.New("an edit session is already active for this guild")
	ErrSessionClosed    = errors.New("edit session is no longer active")
	ErrDelivery         = errors.New("delivery failed")
)

// ValidationError is surfaced with a specific reason and re-prompted, never
// treated as a hard failure.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func validationf(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a validation outcome.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
