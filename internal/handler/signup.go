package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/LPlateLtd/LPlateDemoBuild/internal/identity"
	"github.com/LPlateLtd/LPlateDemoBuild/internal/logger"
	"github.com/LPlateLtd/LPlateDemoBuild/internal/profile"
)

type signupRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	Phone string `json:"phone"`
}

// Signup requests a magic-link signup email. The link's redirect target
// carries the role and phone hints so the verification flow can forward
// them to provisioning.
func (h *Handler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	role := string(profile.ParseRole(req.Role))
	redirectTo := h.verifyRedirectURL(role, req.Phone)

	err := h.provider.RequestMagicLink(c.Request.Context(), req.Email, redirectTo)
	if err != nil {
		logger.Warn("magic link request failed", map[string]any{"error": err.Error()})
		if identity.IsTransient(err) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "sign-in service unavailable"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not send verification link"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "link_sent"})
}

// Resend re-requests a verification link from the error-recovery screen,
// reusing the preserved hints. Same contract as Signup.
func (h *Handler) Resend(c *gin.Context) {
	h.Signup(c)
}
