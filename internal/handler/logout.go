package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/LPlateLtd/LPlateDemoBuild/internal/logger"
	"github.com/LPlateLtd/LPlateDemoBuild/internal/session"
)

func (h *Handler) Logout(c *gin.Context) {
	// 1. Read session cookie (same pattern as the auth middleware)
	cookie, err := c.Request.Cookie(session.CookieName)
	if err == nil && cookie.Value != "" {
		ctx := c.Request.Context()
		if sess, err := h.sessionStore.Get(ctx, cookie.Value); err == nil && sess != nil {
			// 2. Revoke with the provider (best-effort)
			if err := h.provider.SignOut(ctx, sess.AccessToken); err != nil {
				logger.Warn("provider sign-out failed", map[string]any{"error": err.Error()})
			}
		}
		// 3. Delete session from store (best-effort)
		_ = h.sessionStore.Delete(ctx, cookie.Value)
	}

	// 4. Clear cookie
	session.ClearCookie(c.Writer, session.CookieOptions{
		Path:     "/",
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	// 5. Idempotent response
	c.Status(http.StatusNoContent)
}
