package handler

import (
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/LPlateLtd/LPlateDemoBuild/internal/gate"
	"github.com/LPlateLtd/LPlateDemoBuild/internal/identity"
	"github.com/LPlateLtd/LPlateDemoBuild/internal/profile"
	"github.com/LPlateLtd/LPlateDemoBuild/internal/session"
	"github.com/LPlateLtd/LPlateDemoBuild/internal/verify"
)

type Config struct {
	Provider    identity.Provider
	Sessions    session.Store
	Profiles    profile.Store
	Provisioner *profile.Provisioner
	Gate        *gate.Gate

	Policy     verify.Policy
	JWTSecret  []byte
	SiteURL    string
	SessionTTL time.Duration
}

type Handler struct {
	provider     identity.Provider
	sessionStore session.Store
	profiles     profile.Store
	provisioner  *profile.Provisioner
	gate         *gate.Gate

	policy     verify.Policy
	jwtSecret  []byte
	siteURL    string
	sessionTTL time.Duration
}

func NewHandler(cfg Config) *Handler {
	return &Handler{
		provider:     cfg.Provider,
		sessionStore: cfg.Sessions,
		profiles:     cfg.Profiles,
		provisioner:  cfg.Provisioner,
		gate:         cfg.Gate,
		policy:       cfg.Policy,
		jwtSecret:    cfg.JWTSecret,
		siteURL:      cfg.SiteURL,
		sessionTTL:   cfg.SessionTTL,
	}
}

// RegisterRoutes mounts the public auth endpoints. Protected routes are
// mounted by the app wiring behind the auth middleware.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	a := r.Group("/auth")
	a.POST("/login", h.Login)
	a.POST("/signup", h.Signup)
	a.POST("/resend", h.Resend)
	a.POST("/forgot-password", h.ForgotPassword)
	a.GET("/verify", h.Verify)
	a.POST("/verify", h.VerifyRelay)
	a.GET("/gate", h.AccountGate)
	a.POST("/logout", h.Logout)
}

// establishSession records a provider session under a fresh cookie.
func (h *Handler) establishSession(c *gin.Context, sess *identity.Session) error {
	sessionID, err := session.GenerateID()
	if err != nil {
		return err
	}

	expiresAt := time.Now().Add(h.sessionTTL)

	err = h.sessionStore.Create(c.Request.Context(), session.Session{
		SessionID:    sessionID,
		IdentityID:   sess.Identity.ID,
		Email:        sess.Identity.Email,
		AccessToken:  sess.AccessToken,
		RefreshToken: sess.RefreshToken,
		ExpiresAt:    expiresAt,
	})
	if err != nil {
		return err
	}

	session.SetCookie(c.Writer, sessionID, expiresAt, session.CookieOptions{
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// verifyRedirectURL builds the outbound redirect target embedded in
// verification links, carrying the signup hints across the email round
// trip.
func (h *Handler) verifyRedirectURL(role, phone string) string {
	v := url.Values{}
	if role != "" {
		v.Set("role", role)
	}
	if phone != "" {
		v.Set("phone", phone)
	}
	target := h.siteURL + "/auth/verify"
	if len(v) > 0 {
		target += "?" + v.Encode()
	}
	return target
}
