package relay

import "errors"

// Error codes surfaced to clients over the wire.
const (
	ErrCodeNotAuthenticated = "not_authenticated"
	ErrCodeValidationError  = "validation_error"
	ErrCodeBadRequest       = "bad_request"
)

var (
	// ErrAlreadyRegistered is returned when a connection id is registered twice.
	ErrAlreadyRegistered = errors.New("connection already registered")
	// ErrSessionClosed is returned on delivery to a torn-down session.
	ErrSessionClosed = errors.New("session closed")
	// ErrSessionBusy is returned when a session's outbox cannot accept a
	// message without blocking.
	ErrSessionBusy = errors.New("session outbox full")
)

// RelayError carries a wire-level code alongside a human-readable message.
// The transport maps it to an error event for the offending client only.
type RelayError struct {
	Code    string
	Message string
}

func (e *RelayError) Error() string { return e.Message }

func relayError(code, msg string) *RelayError {
	return &RelayError{Code: code, Message: msg}
}
