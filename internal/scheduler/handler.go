// File: internal/scheduler/handler.go
package scheduler

import (
	"errors"
	"strings"
	"time"

	"apt_briefing_backend/internal/common"
	appconfig "apt_briefing_backend/internal/config"
	"apt_briefing_backend/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Handler struct holds dependencies for scheduler config handlers.
type Handler struct {
	repository Repository
	cfg        *appconfig.Config
	logger     *zap.Logger
}

// NewHandler creates a new scheduler handler.
func NewHandler(repository Repository, cfg *appconfig.Config, logger *zap.Logger) *Handler {
	return &Handler{
		repository: repository,
		cfg:        cfg,
		logger:     logger,
	}
}

// RegisterRoutes sets up the routes for scheduler configuration. Both
// routes require auth.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMiddleware gin.HandlerFunc) {
	schedulerGroup := router.Group("/scheduler", authMiddleware)
	{
		schedulerGroup.GET("/config", h.getConfig)
		schedulerGroup.PUT("/config", h.updateConfig)
	}
}

type updateConfigRequest struct {
	Enabled          *bool   `json:"enabled"`
	Timezone         *string `json:"timezone"`
	TimesCSV         *string `json:"times_csv"`
	PollSeconds      *int    `json:"poll_seconds" binding:"omitempty,min=5,max=3600"`
	ReuseBucketHours *int    `json:"reuse_bucket_hours"`
	BatchMaxPages    *int    `json:"batch_max_pages" binding:"omitempty,min=1,max=20"`
}

func (h *Handler) getConfig(c *gin.Context) {
	config, err := h.repository.LoadOrDefault(c.Request.Context())
	if err != nil {
		common.RespondWithError(c, common.ErrInternalServer.WithDetails("Failed to load scheduler config."))
		return
	}
	common.RespondOK(c, "Scheduler config retrieved successfully.", config)
}

func (h *Handler) updateConfig(c *gin.Context) {
	userID, err := middleware.GetUserIDFromContext(c)
	if err != nil {
		common.RespondWithError(c, common.ErrUnauthorized)
		return
	}

	var req updateConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(ve)))
			return
		}
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid request payload."))
		return
	}

	config, err := h.repository.LoadOrDefault(c.Request.Context())
	if err != nil {
		common.RespondWithError(c, common.ErrInternalServer.WithDetails("Failed to load scheduler config."))
		return
	}

	if req.Enabled != nil {
		config.Enabled = *req.Enabled
	}
	if req.Timezone != nil {
		if _, err := time.LoadLocation(*req.Timezone); err != nil {
			common.RespondWithError(c, common.ErrBadRequest.WithDetails("timezone is not a valid IANA zone name."))
			return
		}
		config.Timezone = *req.Timezone
	}
	if req.TimesCSV != nil {
		if !validTimesCSV(*req.TimesCSV) {
			common.RespondWithError(c, common.ErrBadRequest.WithDetails("times_csv must be comma separated HH:MM values."))
			return
		}
		config.TimesCSV = *req.TimesCSV
	}
	if req.PollSeconds != nil {
		config.PollSeconds = *req.PollSeconds
	}
	if req.ReuseBucketHours != nil {
		if !appconfig.IsValidReuseWindow(*req.ReuseBucketHours) {
			common.RespondWithError(c, common.ErrBadRequest.WithDetails("reuse_bucket_hours must be one of 0, 6, 12, 24."))
			return
		}
		config.ReuseBucketHours = *req.ReuseBucketHours
	}
	if req.BatchMaxPages != nil {
		config.BatchMaxPages = *req.BatchMaxPages
	}
	config.UpdatedByUserID = &userID

	if err := h.repository.Save(c.Request.Context(), config); err != nil {
		common.RespondWithError(c, common.ErrInternalServer.WithDetails("Failed to save scheduler config."))
		return
	}

	h.logger.Info("Scheduler config updated",
		zap.String("user_id", userID.String()),
		zap.Bool("enabled", config.Enabled),
		zap.String("times", config.TimesCSV))
	common.RespondOK(c, "Scheduler config updated successfully.", config)
}

func validTimesCSV(csv string) bool {
	parts := strings.Split(csv, ",")
	any := false
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if !validHHMM(part) {
			return false
		}
		any = true
	}
	return any
}
