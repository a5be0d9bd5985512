package jwt

import (
	"errors"
	"fmt"
)

var (
	ErrNoSigningKey          = errors.New("no_signing_key")
	ErrUnknownKey            = errors.New("unknown_key")
	ErrInvalidTokenFormat    = errors.New("invalid_token_format")
	ErrRotationDisabled      = errors.New("key_rotation_disabled")
	ErrCannotRemoveActiveKey = errors.New("cannot_remove_active_key")
	ErrRingNotReady          = errors.New("key_ring_not_ready")
)

// Reason es el motivo concreto de un TokenVerificationError.
type Reason string

const (
	ReasonExpired          Reason = "expired"
	ReasonBadSignature     Reason = "bad-signature"
	ReasonAudienceMismatch Reason = "audience-mismatch"
	ReasonIssuerMismatch   Reason = "issuer-mismatch"
	ReasonNotYetValid      Reason = "not-yet-valid"
)

// TokenVerificationError indica que el token se pudo decodificar y su kid es
// conocido, pero falló la firma o algún claim.
type TokenVerificationError struct {
	Reason Reason
	Err    error
}

func (e *TokenVerificationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("token_verification_failed: %s: %v", e.Reason, e.Err)
	}
	return "token_verification_failed: " + string(e.Reason)
}

func (e *TokenVerificationError) Unwrap() error { return e.Err }

func verificationErr(r Reason, err error) error {
	return &TokenVerificationError{Reason: r, Err: err}
}

// ReasonOf devuelve el Reason si err es (o envuelve) un TokenVerificationError.
func ReasonOf(err error) (Reason, bool) {
	var tve *TokenVerificationError
	if errors.As(err, &tve) {
		return tve.Reason, true
	}
	return "", false
}
