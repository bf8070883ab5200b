package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/LPlateLtd/LPlateDemoBuild/internal/identity"
	"github.com/LPlateLtd/LPlateDemoBuild/internal/logger"
)

// Provisioner creates the initial account profile at the end of the signup
// flow. It is the only writer of new profile rows.
type Provisioner struct {
	store Store
}

func NewProvisioner(store Store) *Provisioner {
	return &Provisioner{store: store}
}

// Provision inserts the profile for ident. A uniqueness conflict means
// another tab or a rerun verification got there first; the contract only
// promises that a profile exists afterwards, so the existing row is
// fetched and returned instead of an error. Any other failure is returned
// as-is and nothing is rolled back: the account gate re-detects the
// missing profile on the next authenticated visit and offers provisioning
// again.
func (p *Provisioner) Provision(ctx context.Context, ident identity.Identity, role Role, name, phone string) (*Profile, error) {
	id, err := uuid.Parse(ident.ID)
	if err != nil {
		return nil, fmt.Errorf("profile: bad identity id: %w", err)
	}
	if !role.Valid() {
		role = RoleLearner
	}
	if name == "" {
		name = displayName(ident.Email)
	}

	prof := &Profile{
		ID:    id,
		Role:  role,
		Name:  name,
		Email: ident.Email,
		Phone: phone,
	}

	err = p.store.Insert(ctx, prof)
	if err == nil {
		return prof, nil
	}
	if errors.Is(err, ErrAlreadyExists) {
		logger.Info("profile already provisioned, returning existing", map[string]any{
			"identity_id": ident.ID,
		})
		return p.store.GetByID(ctx, id)
	}
	return nil, fmt.Errorf("profile: provision: %w", err)
}

// displayName falls back to the local part of the email address.
func displayName(email string) string {
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	if email == "" {
		return "User"
	}
	return email
}
