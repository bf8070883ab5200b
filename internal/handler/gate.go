package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/LPlateLtd/LPlateDemoBuild/internal/gate"
	"github.com/LPlateLtd/LPlateDemoBuild/internal/identity"
	"github.com/LPlateLtd/LPlateDemoBuild/internal/profile"
	"github.com/LPlateLtd/LPlateDemoBuild/internal/session"
	"github.com/LPlateLtd/LPlateDemoBuild/internal/verify"
)

// AccountGate answers "where does this visitor belong" for the current
// cookie. It is deliberately public: an unauthenticated visitor gets the
// sign-in route rather than a 401.
func (h *Handler) AccountGate(c *gin.Context) {
	hints := gate.Hints{
		Role:  c.Query("role"),
		Phone: c.Query("phone"),
	}

	sess := h.currentSession(c)
	decision := h.gate.Resolve(c.Request.Context(), sess, hints)

	if decision.Kind == gate.Unavailable {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "account lookup unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": statusFor(decision.Kind),
		"route":  routeFor(decision),
	})
}

// currentSession loads the session behind the request cookie, or nil.
func (h *Handler) currentSession(c *gin.Context) *session.Session {
	cookie, err := c.Request.Cookie(session.CookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}
	sess, err := h.sessionStore.Get(c.Request.Context(), cookie.Value)
	if err != nil || sess == nil {
		return nil
	}
	if time.Now().After(sess.ExpiresAt) {
		_ = h.sessionStore.Delete(c.Request.Context(), cookie.Value)
		return nil
	}
	return sess
}

// sessionView projects a provider session into the store's session shape
// for gate decisions taken before the cookie session exists.
func sessionView(sess *identity.Session) *session.Session {
	if sess == nil {
		return nil
	}
	return &session.Session{
		IdentityID:  sess.Identity.ID,
		Email:       sess.Identity.Email,
		AccessToken: sess.AccessToken,
	}
}

func statusFor(kind gate.Kind) string {
	switch kind {
	case gate.Dashboard:
		return "ok"
	case gate.Provision:
		return "needs_profile"
	default:
		return "unauthenticated"
	}
}

func routeFor(decision gate.Decision) string {
	switch decision.Kind {
	case gate.Dashboard:
		if decision.Role == profile.RoleInstructor {
			return string(verify.RouteInstructorDashboard)
		}
		return string(verify.RouteLearnerDashboard)
	case gate.Provision:
		role := decision.Hints.Role
		if role == "" {
			role = string(profile.RoleLearner)
		}
		return verify.WelcomeDestination(role, decision.Hints.Phone).URL()
	default:
		return string(verify.RouteSignIn)
	}
}
