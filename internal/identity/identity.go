package identity

import "time"

// Identity is the external provider's record of a user. This service never
// owns it; it reads the fields needed for routing and provisioning and
// mutates only the password, through the provider.
type Identity struct {
	ID               string
	Email            string
	Phone            string
	EmailConfirmedAt *time.Time
	Metadata         map[string]any
}

// Verified reports whether the provider has confirmed the email address.
func (i Identity) Verified() bool {
	return i.EmailConfirmedAt != nil
}

// Complete reports whether the identity carries everything the
// verification flow needs downstream.
func (i Identity) Complete() bool {
	return i.ID != "" && i.Email != ""
}

// TokenPair is the provider-issued session material.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresIn    int // seconds
}

// Session is a live, time-bounded proof of authentication for one
// identity. The application only observes sessions; the provider owns
// their lifecycle.
type Session struct {
	TokenPair
	Identity Identity
}
