package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/LPlateLtd/LPlateDemoBuild/internal/middleware"
	"github.com/LPlateLtd/LPlateDemoBuild/internal/profile"
)

type instructorSetupRequest struct {
	ADINumber       string `json:"adi_number"`
	Vehicle         string `json:"vehicle"`
	HourlyRatePence int    `json:"hourly_rate_pence"`
}

// InstructorSetup creates the lazy role-specific extension record once an
// instructor completes setup.
func (h *Handler) InstructorSetup(c *gin.Context) {
	sess, ok := middleware.SessionFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req instructorSetupRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ADINumber == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	id, err := uuid.Parse(sess.IdentityID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	ctx := c.Request.Context()

	prof, err := h.profiles.GetByID(ctx, id)
	if errors.Is(err, profile.ErrNotFound) {
		c.JSON(http.StatusConflict, gin.H{"error": "complete signup before instructor setup"})
		return
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "account lookup unavailable"})
		return
	}
	if prof.Role != profile.RoleInstructor {
		c.JSON(http.StatusForbidden, gin.H{"error": "instructor account required"})
		return
	}

	detail := &profile.InstructorDetail{
		ProfileID:       prof.ID,
		ADINumber:       req.ADINumber,
		Vehicle:         req.Vehicle,
		HourlyRatePence: req.HourlyRatePence,
	}
	if err := h.profiles.CreateInstructorDetail(ctx, detail); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not save instructor details"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "instructor_setup_complete"})
}
