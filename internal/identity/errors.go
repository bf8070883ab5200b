package identity

import (
	"errors"
	"fmt"
	"strings"
)

// Provider error codes this service recognizes.
const (
	CodeInvalidCredentials = "invalid_credentials"
	CodeOTPExpired         = "otp_expired"
	CodeAccessDenied       = "access_denied"
)

// AuthError is an error the provider itself returned. It is distinct from
// transport failures, which are wrapped as TransientError: an AuthError
// means the provider saw the request and rejected it.
type AuthError struct {
	Code        string
	Status      int
	Description string
}

func (e *AuthError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("provider: %s: %s", e.Code, e.Description)
	}
	return fmt.Sprintf("provider: %s", e.Code)
}

// AsAuthError unwraps err into an AuthError if one is present.
func AsAuthError(err error) (*AuthError, bool) {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

func IsInvalidCredentials(err error) bool {
	ae, ok := AsAuthError(err)
	return ok && ae.Code == CodeInvalidCredentials
}

// IsCodeConsumed reports whether an exchange code was already redeemed,
// e.g. by an email scanner or a second tab opening the same link.
func IsCodeConsumed(err error) bool {
	ae, ok := AsAuthError(err)
	return ok && strings.Contains(strings.ToLower(ae.Description), "already been used")
}

// IsWrongVerifier reports the cross-browser PKCE failure: the code landed
// in a browser that never held the verifier.
func IsWrongVerifier(err error) bool {
	ae, ok := AsAuthError(err)
	return ok && strings.Contains(strings.ToLower(ae.Description), "code verifier")
}

// TransientError marks a network-layer failure. The provider never
// definitively answered, so the operation may be retried.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return "transient: " + e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

func NewTransient(err error) error {
	return &TransientError{Err: err}
}

func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
