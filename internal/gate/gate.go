package gate

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/LPlateLtd/LPlateDemoBuild/internal/logger"
	"github.com/LPlateLtd/LPlateDemoBuild/internal/profile"
	"github.com/LPlateLtd/LPlateDemoBuild/internal/session"
)

// Kind names where an authenticated identity belongs.
type Kind int

const (
	NotAuthenticated Kind = iota
	Dashboard
	Provision
	Unavailable
)

// Hints are the signup parameters preserved across the flow so
// provisioning never forces the user to re-enter them.
type Hints struct {
	Role  string
	Phone string
}

type Decision struct {
	Kind  Kind
	Role  profile.Role // set for Dashboard
	Hints Hints        // preserved for Provision
}

// ProfileDirectory is the gate's read-only view of account profiles.
type ProfileDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*profile.Profile, error)
}

// Gate is the single decision point invoked on every protected entry:
// dashboard when a profile exists, provisioning when it provably does not.
// It performs no writes.
type Gate struct {
	profiles ProfileDirectory
}

func New(profiles ProfileDirectory) *Gate {
	return &Gate{profiles: profiles}
}

// Resolve answers for the identity behind sess. Only a definite not-found
// authorizes the provisioning route: a transient lookup failure must not
// re-prompt provisioning for an account that may already have a profile,
// so it resolves to Unavailable instead.
func (g *Gate) Resolve(ctx context.Context, sess *session.Session, hints Hints) Decision {
	if sess == nil || sess.IdentityID == "" {
		return Decision{Kind: NotAuthenticated}
	}

	id, err := uuid.Parse(sess.IdentityID)
	if err != nil {
		return Decision{Kind: NotAuthenticated}
	}

	prof, err := g.profiles.GetByID(ctx, id)
	switch {
	case err == nil:
		return Decision{Kind: Dashboard, Role: prof.Role}
	case errors.Is(err, profile.ErrNotFound):
		return Decision{Kind: Provision, Hints: hints}
	default:
		logger.Error("gate: profile lookup failed", map[string]any{
			"identity_id": sess.IdentityID,
			"error":       err.Error(),
		})
		return Decision{Kind: Unavailable}
	}
}
