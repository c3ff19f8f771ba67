// File: internal/alert/handler.go
package alert

import (
	"strconv"

	"apt_briefing_backend/internal/billing"
	"apt_briefing_backend/internal/common"
	"apt_briefing_backend/internal/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler struct holds dependencies for alert handlers.
type Handler struct {
	service      Service
	entitlements billing.Entitlements
	logger       *zap.Logger
}

// NewHandler creates a new alert handler.
func NewHandler(service Service, entitlements billing.Entitlements, logger *zap.Logger) *Handler {
	return &Handler{
		service:      service,
		entitlements: entitlements,
		logger:       logger,
	}
}

// RegisterRoutes sets up the routes for alerts. All routes require auth;
// manual dispatch additionally requires a plan that allows it.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMiddleware gin.HandlerFunc) {
	alertGroup := router.Group("/me/alerts", authMiddleware)
	{
		alertGroup.GET("/bargains", h.listBargains)
		alertGroup.POST("/bargains/dispatch", h.dispatchBargains)
	}
}

func (h *Handler) listBargains(c *gin.Context) {
	userID, err := middleware.GetUserIDFromContext(c)
	if err != nil {
		common.RespondWithError(c, common.ErrUnauthorized)
		return
	}
	onlyComplexNo, ok := parseOnlyComplexNo(c)
	if !ok {
		return
	}

	items, err := h.service.CollectBargains(c.Request.Context(), userID, onlyComplexNo)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}

	common.RespondOK(c, "Bargain alerts retrieved successfully.", gin.H{
		"count": len(items),
		"items": items,
	})
}

func (h *Handler) dispatchBargains(c *gin.Context) {
	userID, err := middleware.GetUserIDFromContext(c)
	if err != nil {
		common.RespondWithError(c, common.ErrUnauthorized)
		return
	}

	allowed, err := h.entitlements.CanManualDispatch(c.Request.Context(), userID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	if !allowed {
		common.RespondWithError(c, common.ErrForbidden.WithDetails("Manual alert dispatch requires the Pro plan."))
		return
	}

	onlyComplexNo, ok := parseOnlyComplexNo(c)
	if !ok {
		return
	}

	result, err := h.service.Dispatch(c.Request.Context(), userID, onlyComplexNo)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Alert dispatch completed.", result)
}

func parseOnlyComplexNo(c *gin.Context) (int64, bool) {
	raw := c.Query("complex_no")
	if raw == "" {
		return 0, true
	}
	no, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || no <= 0 {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("complex_no must be a positive integer."))
		return 0, false
	}
	return no, true
}
