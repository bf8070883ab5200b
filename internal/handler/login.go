package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/LPlateLtd/LPlateDemoBuild/internal/gate"
	"github.com/LPlateLtd/LPlateDemoBuild/internal/identity"
	"github.com/LPlateLtd/LPlateDemoBuild/internal/logger"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	sess, err := h.provider.SignInWithPassword(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case identity.IsInvalidCredentials(err):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		case identity.IsTransient(err):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "sign-in service unavailable"})
		default:
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication failed"})
		}
		return
	}

	if err := h.establishSession(c, sess); err != nil {
		logger.Error("failed to establish session", map[string]any{"error": err.Error()})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session error"})
		return
	}

	decision := h.gate.Resolve(c.Request.Context(), sessionView(sess), gate.Hints{})
	c.JSON(http.StatusOK, gin.H{
		"status": "logged_in",
		"route":  routeFor(decision),
	})
}
