package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the identity-token claims the relay cares about. The subject is
// the provider's stable user id; name and email ride along for display.
type Claims struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// TokenVerifier validates provider-issued HS256 identity tokens.
type TokenVerifier struct {
	secret   []byte
	audience string
	issuer   string
}

// NewTokenVerifier builds a verifier for tokens signed with secret and
// addressed to audience. An empty issuer disables the issuer check.
func NewTokenVerifier(secret []byte, audience, issuer string) *TokenVerifier {
	return &TokenVerifier{secret: secret, audience: audience, issuer: issuer}
}

// Verify parses and validates credential, returning the Principal it names.
// Failures are always *RejectError so the gateway can report a reason code.
func (v *TokenVerifier) Verify(ctx context.Context, credential string) (*Principal, error) {
	if credential == "" {
		return nil, &RejectError{Reason: ReasonMissingToken}
	}
	if err := ctx.Err(); err != nil {
		return nil, &RejectError{Reason: ReasonVerificationError, Err: err}
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(credential, claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return nil, &RejectError{Reason: rejectReason(err), Err: err}
	}
	if !token.Valid {
		return nil, &RejectError{Reason: ReasonInvalidToken}
	}
	if claims.Subject == "" {
		return nil, &RejectError{
			Reason: ReasonVerificationError,
			Err:    fmt.Errorf("token has no subject"),
		}
	}

	name := claims.Name
	if name == "" {
		name = claims.Email
	}
	return &Principal{
		UID:             claims.Subject,
		Name:            name,
		Email:           claims.Email,
		AuthenticatedAt: time.Now(),
	}, nil
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ReasonExpiredToken
	case errors.Is(err, jwt.ErrTokenInvalidAudience):
		return ReasonWrongAudience
	case errors.Is(err, jwt.ErrTokenMalformed),
		errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenInvalidIssuer),
		errors.Is(err, jwt.ErrTokenNotValidYet),
		errors.Is(err, jwt.ErrTokenInvalidClaims):
		return ReasonInvalidToken
	default:
		return ReasonVerificationError
	}
}
