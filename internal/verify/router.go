package verify

import (
	"context"
	"errors"
	"net/url"
	"sync"

	"github.com/google/uuid"

	"github.com/LPlateLtd/LPlateDemoBuild/internal/identity"
	"github.com/LPlateLtd/LPlateDemoBuild/internal/logger"
	"github.com/LPlateLtd/LPlateDemoBuild/internal/profile"
)

// Route names the application screens the verification flow can land on.
type Route string

const (
	RouteSignIn              Route = "/sign-in"
	RouteWelcome             Route = "/welcome"
	RouteLearnerDashboard    Route = "/dashboard"
	RouteInstructorDashboard Route = "/instructor"
	RouteRecovery            Route = "/auth/error"
)

// Destination is a terminal routing decision plus the parameters the
// target screen needs.
type Destination struct {
	Route  Route
	Params url.Values
}

func (d Destination) URL() string {
	if len(d.Params) == 0 {
		return string(d.Route)
	}
	return string(d.Route) + "?" + d.Params.Encode()
}

// SignInWithError sends the user back to sign-in with a machine tag and a
// human-readable message.
func SignInWithError(tag, message string) Destination {
	return Destination{
		Route:  RouteSignIn,
		Params: url.Values{"error": {tag}, "message": {message}},
	}
}

// RecoveryDestination targets the resend screen, preserving the signup
// hints so recovery does not force the user to re-enter them.
func RecoveryDestination(reason Reason, role, phone string) Destination {
	v := url.Values{"msg": {reason.Message()}}
	if role != "" {
		v.Set("role", role)
	}
	if phone != "" {
		v.Set("phone", phone)
	}
	return Destination{Route: RouteRecovery, Params: v}
}

// WelcomeDestination targets provisioning with the forwarded hints.
func WelcomeDestination(role, phone string) Destination {
	v := url.Values{"role": {role}}
	if phone != "" {
		v.Set("phone", phone)
	}
	return Destination{Route: RouteWelcome, Params: v}
}

// DashboardDestination picks the dashboard for an existing profile's role.
func DashboardDestination(role profile.Role) Destination {
	if role == profile.RoleInstructor {
		return Destination{Route: RouteInstructorDashboard}
	}
	return Destination{Route: RouteLearnerDashboard}
}

// Phase is the router's position in the verification state machine.
type Phase int

const (
	PhaseInit Phase = iota
	PhaseInspecting
	PhaseErrorCarried
	PhaseResolving
	PhaseResolved
	PhaseFailed
)

func (p Phase) terminal() bool {
	return p == PhaseErrorCarried || p == PhaseResolved || p == PhaseFailed
}

// SessionResolver materializes a session from a redirect state.
type SessionResolver interface {
	Resolve(ctx context.Context, st State) (*identity.Session, error)
}

// ProfileDirectory is the router's read-only view of account profiles.
type ProfileDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*profile.Profile, error)
}

// Router drives one verification flow instance from redirect landing to a
// terminal destination. It is single-use: once a terminal phase is
// reached, Run returns the cached destination without further calls, so a
// duplicate invocation from a re-entrant caller is a no-op. In particular
// the code exchange underneath runs at most once per flow instance.
type Router struct {
	resolver SessionResolver
	profiles ProfileDirectory

	mu    sync.Mutex
	phase Phase
	dest  Destination
	sess  *identity.Session
}

func NewRouter(resolver SessionResolver, profiles ProfileDirectory) *Router {
	return &Router{resolver: resolver, profiles: profiles}
}

// Session returns the session the flow resolved, if it reached one.
func (r *Router) Session() *identity.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sess
}

// Run inspects the redirect state and walks the flow to a terminal
// destination.
func (r *Router) Run(ctx context.Context, st State) Destination {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase.terminal() {
		return r.dest
	}
	r.phase = PhaseInspecting

	if st.HasError() {
		reason := Classify(st)
		logger.Warn("verification link carried an error", map[string]any{
			"error":      st.ErrorName,
			"error_code": st.ErrorCode,
			"reason_tag": reason.Tag(),
		})
		return r.finish(PhaseErrorCarried, SignInWithError(reason.Tag(), reason.Message()))
	}

	r.phase = PhaseResolving
	sess, err := r.resolver.Resolve(ctx, st)
	if err != nil {
		logger.Warn("session resolution failed", map[string]any{"error": err.Error()})
		return r.finish(PhaseFailed, r.failureDestination(err, st))
	}

	ident := sess.Identity
	if !ident.Complete() || !ident.Verified() {
		return r.finish(PhaseFailed, SignInWithError("no_user",
			"We could not load your account. Please sign in again."))
	}

	id, err := uuid.Parse(ident.ID)
	if err != nil {
		return r.finish(PhaseFailed, SignInWithError("no_user",
			"We could not load your account. Please sign in again."))
	}

	prof, err := r.profiles.GetByID(ctx, id)
	switch {
	case err == nil:
		// Returning user: the profile's role decides the dashboard. The
		// redirect's role hint only matters for new accounts.
		r.sess = sess
		return r.finish(PhaseResolved, DashboardDestination(prof.Role))
	case errors.Is(err, profile.ErrNotFound):
		r.sess = sess
		role := st.Role
		if role == "" {
			role = string(profile.RoleLearner)
		}
		return r.finish(PhaseResolved, WelcomeDestination(role, st.Phone))
	default:
		// Only a definite not-found may route to provisioning; anything
		// else risks prompting a duplicate profile.
		logger.Error("profile lookup failed during verification", map[string]any{
			"identity_id": ident.ID,
			"error":       err.Error(),
		})
		return r.finish(PhaseFailed, SignInWithError("profile_failed",
			"Something went wrong while checking your account. Please try again."))
	}
}

func (r *Router) finish(phase Phase, dest Destination) Destination {
	r.phase = phase
	r.dest = dest
	return dest
}

func (r *Router) failureDestination(err error, st State) Destination {
	switch {
	case errors.Is(err, ErrNoSession):
		return SignInWithError("no_session",
			"We could not sign you in from this link. Please request a new one.")
	case identity.IsCodeConsumed(err), identity.IsWrongVerifier(err):
		return RecoveryDestination(ClassifyExchange(err), st.Role, st.Phone)
	case identity.IsTransient(err):
		return SignInWithError("auth_failed",
			"We could not reach the sign-in service. Please try again.")
	default:
		if ae, ok := identity.AsAuthError(err); ok && ae.Code == identity.CodeOTPExpired {
			return RecoveryDestination(ReasonExpired, st.Role, st.Phone)
		}
		return SignInWithError("auth_failed", ReasonGeneric.Message())
	}
}
