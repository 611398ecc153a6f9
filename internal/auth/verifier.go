package auth

import (
	"context"
	"time"
)

// Reject reasons sent to the peer when a handshake is refused.
const (
	ReasonMissingToken      = "missing_token"
	ReasonExpiredToken      = "expired_token"
	ReasonInvalidToken      = "invalid_token"
	ReasonWrongAudience     = "wrong_audience"
	ReasonVerificationError = "verification_error"
)

// Principal is the verified identity attached to a connection. It is built
// once during the handshake and never derived from message payloads.
type Principal struct {
	UID             string
	Name            string
	Email           string
	AuthenticatedAt time.Time
}

// RejectError is returned when a credential fails verification.
type RejectError struct {
	Reason string
	Err    error
}

func (e *RejectError) Error() string {
	if e.Err != nil {
		return e.Reason + ": " + e.Err.Error()
	}
	return e.Reason
}

func (e *RejectError) Unwrap() error { return e.Err }

// Verifier checks an opaque credential against the identity provider.
// Implementations may block on network calls; callers bound them with ctx.
type Verifier interface {
	Verify(ctx context.Context, credential string) (*Principal, error)
}
