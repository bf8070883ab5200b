package session

import (
	"context"
	"time"
)

// Session is this service's observation of a provider-issued session. The
// provider owns the tokens' lifecycle; the application only records which
// cookie maps to which token pair.
type Session struct {
	SessionID    string
	IdentityID   string
	Email        string
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Store defines how sessions are stored and retrieved. Implementations
// must remain stateless and opaque.
type Store interface {
	Create(ctx context.Context, s Session) error
	Get(ctx context.Context, sessionID string) (*Session, error)
	Update(ctx context.Context, s Session) error
	Delete(ctx context.Context, sessionID string) error
}
