// File: internal/preset/handler.go
package preset

import (
	"errors"

	"apt_briefing_backend/internal/common"
	"apt_briefing_backend/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handler struct holds dependencies for preset handlers.
type Handler struct {
	service Service
	logger  *zap.Logger
}

// NewHandler creates a new preset handler.
func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes sets up the routes for presets. All routes require auth.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMiddleware gin.HandlerFunc) {
	presetGroup := router.Group("/me/presets", authMiddleware)
	{
		presetGroup.GET("", h.list)
		presetGroup.POST("", h.create)
		presetGroup.PUT("/:presetID", h.update)
		presetGroup.DELETE("/:presetID", h.remove)
	}
}

type presetRequest struct {
	Name        string         `json:"name" binding:"required,max=100"`
	Filters     common.JSONMap `json:"filters"`
	ChartConfig common.JSONMap `json:"chart_config"`
}

func (h *Handler) list(c *gin.Context) {
	userID, err := middleware.GetUserIDFromContext(c)
	if err != nil {
		common.RespondWithError(c, common.ErrUnauthorized)
		return
	}

	presets, err := h.service.List(c.Request.Context(), userID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Presets retrieved successfully.", presets)
}

func (h *Handler) create(c *gin.Context) {
	userID, err := middleware.GetUserIDFromContext(c)
	if err != nil {
		common.RespondWithError(c, common.ErrUnauthorized)
		return
	}

	var req presetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(ve)))
			return
		}
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid request payload."))
		return
	}

	p, err := h.service.Create(c.Request.Context(), userID, SaveInput{
		Name:        req.Name,
		Filters:     req.Filters,
		ChartConfig: req.ChartConfig,
	})
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondCreated(c, "Preset created successfully.", p)
}

func (h *Handler) update(c *gin.Context) {
	userID, err := middleware.GetUserIDFromContext(c)
	if err != nil {
		common.RespondWithError(c, common.ErrUnauthorized)
		return
	}
	presetID, err := uuid.Parse(c.Param("presetID"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("presetID must be a UUID."))
		return
	}

	var req presetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid request payload."))
		return
	}

	p, err := h.service.Update(c.Request.Context(), userID, presetID, SaveInput{
		Name:        req.Name,
		Filters:     req.Filters,
		ChartConfig: req.ChartConfig,
	})
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Preset updated successfully.", p)
}

func (h *Handler) remove(c *gin.Context) {
	userID, err := middleware.GetUserIDFromContext(c)
	if err != nil {
		common.RespondWithError(c, common.ErrUnauthorized)
		return
	}
	presetID, err := uuid.Parse(c.Param("presetID"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("presetID must be a UUID."))
		return
	}

	if err := h.service.Delete(c.Request.Context(), userID, presetID); err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondNoContent(c)
}
