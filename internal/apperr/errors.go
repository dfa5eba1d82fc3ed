// Package apperr defines the error taxonomy shared across services and
// handlers. Handlers map these to HTTP statuses; everything else is a
// generic server error.
package apperr

import "errors"

var (
	// ErrNotFound indicates the addressed record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrEmailTaken indicates a registration against an existing email.
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidCredentials indicates a failed secret comparison. It is
	// deliberately indistinguishable from an unknown email.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrNotApproved indicates a login against an account an admin has not
	// approved yet.
	ErrNotApproved = errors.New("account awaiting approval")
)

// ValidationError is a client-correctable request error. Message is the
// client-facing text.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// NewValidationError creates a validation error for a request field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
