package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/LPlateLtd/LPlateDemoBuild/internal/identity"
	"github.com/LPlateLtd/LPlateDemoBuild/internal/logger"
)

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

// ForgotPassword requests a password-recovery email. The link lands on the
// verification flow like a signup link does; the session it resolves leads
// to the same password-set screen, so recovery and first-time setup share
// one path.
func (h *Handler) ForgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	redirectTo := h.siteURL + "/auth/verify"

	err := h.provider.RequestPasswordRecovery(c.Request.Context(), req.Email, redirectTo)
	if err != nil {
		logger.Warn("recovery link request failed", map[string]any{"error": err.Error()})
		if identity.IsTransient(err) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "sign-in service unavailable"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not send recovery link"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "recovery_sent"})
}
