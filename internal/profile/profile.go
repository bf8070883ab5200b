package profile

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Role enumerates account types.
type Role string

const (
	RoleLearner       Role = "learner"
	RoleInstructor    Role = "instructor"
	RoleDrivingSchool Role = "driving_school"
	RoleAdmin         Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleLearner, RoleInstructor, RoleDrivingSchool, RoleAdmin:
		return true
	}
	return false
}

// ParseRole returns the role named by s. Role hints travel in
// user-controlled URLs, so empty or unknown input is coerced to learner
// rather than rejected.
func ParseRole(s string) Role {
	r := Role(s)
	if !r.Valid() {
		return RoleLearner
	}
	return r
}

// Profile is the application-owned account record, keyed 1:1 by the
// provider identity id. Its existence is the sole signal distinguishing a
// returning user from a signup still mid-flow.
type Profile struct {
	ID        uuid.UUID
	Role      Role
	Name      string
	Email     string
	Phone     string
	Postcode  string
	AvatarURL string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// InstructorDetail is the role-specific extension record, created lazily
// when an instructor completes setup.
type InstructorDetail struct {
	ProfileID       uuid.UUID
	ADINumber       string
	Vehicle         string
	HourlyRatePence int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

var (
	ErrNotFound      = errors.New("profile: not found")
	ErrAlreadyExists = errors.New("profile: already exists")
)

// Store persists account profiles. Implementations must return ErrNotFound
// only for a definite no-rows result; transient failures surface as
// themselves so callers never mistake an outage for a missing profile.
type Store interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Profile, error)
	Insert(ctx context.Context, p *Profile) error
	CreateInstructorDetail(ctx context.Context, d *InstructorDetail) error
}
