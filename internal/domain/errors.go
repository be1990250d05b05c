package domain

import "errors"

var (
	// ErrNotFound is returned when an operation targets a session id that does not exist
	ErrNotFound = errors.New("session not found")

	// ErrLastSession is returned when deleting the only remaining session
	ErrLastSession = errors.New("cannot delete the last remaining session")

	// ErrModelNotFound is returned when selecting a model missing from the directory
	ErrModelNotFound = errors.New("model not found")

	// ErrUnsupported is returned when the active provider lacks an operation
	ErrUnsupported = errors.New("operation not supported by provider")
)

// ValidationError is a precondition failure that is recovered locally
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Validation errors raised by the turn guard
var (
	ErrEmptyInput = &ValidationError{Field: "content", Message: "message is empty"}
	ErrNoModel    = &ValidationError{Field: "model", Message: "no model selected"}
	ErrTurnBusy   = &ValidationError{Field: "state", Message: "a reply is still pending"}
)

// IsValidation reports whether err is a ValidationError
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
