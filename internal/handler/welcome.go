package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/LPlateLtd/LPlateDemoBuild/internal/identity"
	"github.com/LPlateLtd/LPlateDemoBuild/internal/logger"
	"github.com/LPlateLtd/LPlateDemoBuild/internal/middleware"
	"github.com/LPlateLtd/LPlateDemoBuild/internal/profile"
)

type welcomeRequest struct {
	Password string `json:"password"`
	Role     string `json:"role"`
	Phone    string `json:"phone"`
	Name     string `json:"name"`
}

// Welcome finishes a signup: set the password with the provider, then
// provision the account profile. Requires the session established by the
// verification flow. Provisioning failure after a successful password set
// is left as-is: the account gate re-offers provisioning on the next
// visit.
func (h *Handler) Welcome(c *gin.Context) {
	sess, ok := middleware.SessionFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req welcomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if len(req.Password) < 6 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "password must be at least 6 characters long"})
		return
	}

	ctx := c.Request.Context()

	if err := h.provider.UpdatePassword(ctx, sess.AccessToken, req.Password); err != nil {
		logger.Warn("password update failed", map[string]any{"error": err.Error()})
		if identity.IsTransient(err) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "sign-in service unavailable"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not set password"})
		return
	}

	ident, err := h.provider.GetUser(ctx, sess.AccessToken)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "could not load account"})
		return
	}

	role := profile.ParseRole(req.Role)
	prof, err := h.provisioner.Provision(ctx, *ident, role, req.Name, req.Phone)
	if err != nil {
		logger.Error("profile provisioning failed", map[string]any{
			"identity_id": ident.ID,
			"error":       err.Error(),
		})
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "password set but profile creation failed; sign in again to retry",
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status": "provisioned",
		"role":   prof.Role,
		"route":  setupRouteFor(prof.Role),
	})
}

// setupRouteFor is the role-specific setup screen a fresh profile lands
// on.
func setupRouteFor(role profile.Role) string {
	if role == profile.RoleInstructor {
		return "/instructor/profile"
	}
	return "/learner/profile"
}
