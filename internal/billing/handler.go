// File: internal/billing/handler.go
package billing

import (
	"errors"

	"apt_briefing_backend/internal/common"
	"apt_briefing_backend/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handler struct holds dependencies for billing handlers.
type Handler struct {
	service Service
	logger  *zap.Logger
}

// NewHandler creates a new billing handler.
func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes sets up the routes for billing. All routes require auth.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMiddleware gin.HandlerFunc) {
	billingGroup := router.Group("/billing", authMiddleware)
	{
		billingGroup.GET("/me", h.overview)
		billingGroup.POST("/checkout", h.createCheckout)
		billingGroup.POST("/checkout/:sessionID/complete", h.completeCheckout)
	}
}

type createCheckoutRequest struct {
	PlanCode string `json:"plan_code" binding:"required"`
}

func (h *Handler) overview(c *gin.Context) {
	userID, err := middleware.GetUserIDFromContext(c)
	if err != nil {
		common.RespondWithError(c, common.ErrUnauthorized)
		return
	}

	overview, err := h.service.Overview(c.Request.Context(), userID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Billing overview retrieved successfully.", overview)
}

func (h *Handler) createCheckout(c *gin.Context) {
	userID, err := middleware.GetUserIDFromContext(c)
	if err != nil {
		common.RespondWithError(c, common.ErrUnauthorized)
		return
	}

	var req createCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(ve)))
			return
		}
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid request payload."))
		return
	}

	session, err := h.service.CreateCheckout(c.Request.Context(), userID, req.PlanCode)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondCreated(c, "Checkout session created.", session)
}

func (h *Handler) completeCheckout(c *gin.Context) {
	userID, err := middleware.GetUserIDFromContext(c)
	if err != nil {
		common.RespondWithError(c, common.ErrUnauthorized)
		return
	}

	sessionID, err := uuid.Parse(c.Param("sessionID"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("sessionID must be a UUID."))
		return
	}

	sub, err := h.service.CompleteCheckout(c.Request.Context(), userID, sessionID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Checkout completed.", sub)
}
