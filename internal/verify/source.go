package verify

import (
	"context"
	"sync"
	"time"

	"github.com/LPlateLtd/LPlateDemoBuild/internal/identity"
	"github.com/LPlateLtd/LPlateDemoBuild/internal/logger"
)

// ProviderSource adapts the identity provider client into the resolver's
// SessionSource. Code exchanges go straight through; snapshots observe a
// slot filled by background adoption of fragment-delivered tokens, which
// reproduces the provider SDK's own asynchronous URL-token processing.
type ProviderSource struct {
	provider identity.Provider
	secret   []byte

	mu   sync.Mutex
	sess *identity.Session
	err  error
}

func NewProviderSource(provider identity.Provider, jwtSecret []byte) *ProviderSource {
	return &ProviderSource{provider: provider, secret: jwtSecret}
}

func (s *ProviderSource) ExchangeCode(ctx context.Context, code string) (*identity.Session, error) {
	return s.provider.ExchangeCode(ctx, code)
}

// Adopt starts background validation of a fragment token pair and returns
// immediately. Snapshot observes the outcome once validation lands; until
// then the snapshot is legitimately empty and the resolver's bounded
// polling covers the window.
func (s *ProviderSource) Adopt(ctx context.Context, accessToken, refreshToken string) {
	go func() {
		if accessToken == "" {
			return
		}
		claims, err := identity.ParseAccessToken(accessToken, s.secret)
		if err != nil {
			// Invalid or expired token material: no session will ever
			// materialize from it, so the slot stays empty.
			logger.Warn("rejected fragment token", map[string]any{"error": err.Error()})
			return
		}
		ident, err := s.provider.GetUser(ctx, accessToken)
		if err != nil {
			s.publish(nil, err)
			return
		}
		sess := &identity.Session{
			TokenPair: identity.TokenPair{
				AccessToken:  accessToken,
				RefreshToken: refreshToken,
				TokenType:    "bearer",
				ExpiresIn:    expiresIn(claims),
			},
			Identity: *ident,
		}
		s.publish(sess, nil)
	}()
}

func (s *ProviderSource) publish(sess *identity.Session, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sess, s.err = sess, err
}

func (s *ProviderSource) Snapshot(_ context.Context) (*identity.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return s.sess, nil
}

func expiresIn(claims *identity.Claims) int {
	if claims.ExpiresAt == nil {
		return 0
	}
	d := time.Until(claims.ExpiresAt.Time)
	if d < 0 {
		return 0
	}
	return int(d.Seconds())
}
