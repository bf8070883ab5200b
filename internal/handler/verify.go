package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/LPlateLtd/LPlateDemoBuild/internal/logger"
	"github.com/LPlateLtd/LPlateDemoBuild/internal/verify"
)

// Verify handles the canonical code-delivery landing: the emailed link
// opens this URL with the exchange code and hints in the query.
func (h *Handler) Verify(c *gin.Context) {
	st, err := verify.ParseURL(c.Request.URL.String())
	if err != nil {
		c.Redirect(http.StatusFound, verify.SignInWithError("bad_link",
			"This link looks malformed. Please request a new one.").URL())
		return
	}
	h.runVerification(c, st)
}

type verifyRelayRequest struct {
	URL string `json:"url"`
}

// VerifyRelay handles implicit-flow delivery. Fragments never reach the
// server, so a minimal bootstrap on the landing page posts the full URL,
// fragment included, and follows the redirect we answer with.
func (h *Handler) VerifyRelay(c *gin.Context) {
	var req verifyRelayRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.URL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	st, err := verify.ParseURL(req.URL)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"redirect": verify.SignInWithError("bad_link",
			"This link looks malformed. Please request a new one.").URL()})
		return
	}

	dest, established := h.resolveVerification(c, st)
	c.JSON(http.StatusOK, gin.H{"redirect": dest.URL(), "session": established})
}

func (h *Handler) runVerification(c *gin.Context, st verify.State) {
	dest, _ := h.resolveVerification(c, st)
	c.Redirect(http.StatusFound, dest.URL())
}

// resolveVerification drives one verification flow instance: adopt any
// fragment tokens, run the router, and establish the session cookie when
// the flow resolves one. Each HTTP request is its own flow instance, so
// the router's one-shot guard scopes exchange-code consumption to it.
func (h *Handler) resolveVerification(c *gin.Context, st verify.State) (verify.Destination, bool) {
	ctx := c.Request.Context()

	source := verify.NewProviderSource(h.provider, h.jwtSecret)
	if st.HasHashTokens() && !st.HasError() {
		source.Adopt(ctx, st.AccessToken, st.RefreshToken)
	}

	resolver := verify.NewResolver(source, h.policy)
	router := verify.NewRouter(resolver, h.profiles)

	dest := router.Run(ctx, st)

	if sess := router.Session(); sess != nil {
		if err := h.establishSession(c, sess); err != nil {
			logger.Error("failed to establish session after verification", map[string]any{
				"error": err.Error(),
			})
			return verify.SignInWithError("auth_failed",
				"We verified your email but could not sign you in. Please try again."), false
		}
		return dest, true
	}
	return dest, false
}
