package app

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/LPlateLtd/LPlateDemoBuild/internal/config"
	"github.com/LPlateLtd/LPlateDemoBuild/internal/gate"
	"github.com/LPlateLtd/LPlateDemoBuild/internal/handler"
	"github.com/LPlateLtd/LPlateDemoBuild/internal/identity/gotrue"
	"github.com/LPlateLtd/LPlateDemoBuild/internal/middleware"
	"github.com/LPlateLtd/LPlateDemoBuild/internal/profile"
	"github.com/LPlateLtd/LPlateDemoBuild/internal/session"
	"github.com/LPlateLtd/LPlateDemoBuild/internal/verify"
)

func setupHTTP(ctx context.Context, cfg *config.Config) (*gin.Engine, func() error, error) {
	infra, err := setupInfra(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	// ----------------------------
	// Dependencies
	// ----------------------------

	provider, err := gotrue.New(cfg.AuthBaseURL, cfg.AuthAnonKey, cfg.AuthTimeout)
	if err != nil {
		return nil, nil, err
	}

	sessionStore := session.NewRedisStore(infra.Redis.Client)
	profileStore := profile.NewPostgresStore(infra.DB)
	provisioner := profile.NewProvisioner(profileStore)
	accountGate := gate.New(profileStore)

	policy := verify.DefaultPolicy()
	policy.SettleDelay = cfg.VerifySettleDelay
	policy.QuickDelay = cfg.VerifyQuickDelay

	jwtSecret := []byte(cfg.AuthJWTSecret)

	authHandler := handler.NewHandler(handler.Config{
		Provider:    provider,
		Sessions:    sessionStore,
		Profiles:    profileStore,
		Provisioner: provisioner,
		Gate:        accountGate,
		Policy:      policy,
		JWTSecret:   jwtSecret,
		SiteURL:     cfg.SiteURL,
		SessionTTL:  cfg.SessionTTL,
	})

	authMiddleware := middleware.NewAuthMiddleware(sessionStore, jwtSecret)

	// ----------------------------
	// Router
	// ----------------------------

	router := gin.New()
	router.Use(gin.Recovery())

	// ----------------------------
	// Public routes
	// ----------------------------

	authHandler.RegisterRoutes(router)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ----------------------------
	// Protected routes
	// ----------------------------

	protected := router.Group("/")
	protected.Use(middleware.GinRequireAuth(authMiddleware))

	protected.POST("/auth/welcome", authHandler.Welcome)
	protected.POST("/instructor/profile", authHandler.InstructorSetup)

	protected.GET("/api/me", func(c *gin.Context) {
		id, _ := middleware.IdentityIDFromContext(c.Request.Context())
		c.JSON(200, gin.H{"identity_id": id})
	})

	// Dashboard boundary stubs. The real dashboards live in the web app;
	// these exist so the destinations the flow redirects to are served.
	protected.GET("/dashboard", func(c *gin.Context) {
		c.JSON(200, gin.H{"screen": "learner_dashboard"})
	})
	protected.GET("/instructor", func(c *gin.Context) {
		c.JSON(200, gin.H{"screen": "instructor_dashboard"})
	})

	// ----------------------------
	// Cleanup
	// ----------------------------

	return router, func() error {
		return infra.DB.Close()
	}, nil
}
