// File: internal/notification/handler.go
package notification

import (
	"apt_briefing_backend/internal/common"
	"apt_briefing_backend/internal/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler struct holds dependencies for notification preference handlers.
type Handler struct {
	service Service
	logger  *zap.Logger
}

// NewHandler creates a new notification handler.
func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes sets up the routes for notification preferences. All
// routes require auth.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMiddleware gin.HandlerFunc) {
	prefGroup := router.Group("/me/notification-preferences", authMiddleware)
	{
		prefGroup.GET("", h.getPreference)
		prefGroup.PUT("", h.updatePreference)
	}
}

func (h *Handler) getPreference(c *gin.Context) {
	userID, err := middleware.GetUserIDFromContext(c)
	if err != nil {
		common.RespondWithError(c, common.ErrUnauthorized)
		return
	}

	pref, err := h.service.EnsurePreference(c.Request.Context(), userID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Notification preference retrieved successfully.", pref)
}

func (h *Handler) updatePreference(c *gin.Context) {
	userID, err := middleware.GetUserIDFromContext(c)
	if err != nil {
		common.RespondWithError(c, common.ErrUnauthorized)
		return
	}

	var update PreferenceUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid request payload."))
		return
	}

	pref, err := h.service.UpdatePreference(c.Request.Context(), userID, update)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Notification preference updated successfully.", pref)
}
