// File: internal/watch/handler.go
package watch

import (
	"errors"

	"apt_briefing_backend/internal/common"
	"apt_briefing_backend/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handler struct holds dependencies for watch handlers.
type Handler struct {
	service Service
	logger  *zap.Logger
}

// NewHandler creates a new watch handler.
func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes sets up the routes for watched complexes. All routes
// require auth.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMiddleware gin.HandlerFunc) {
	watchGroup := router.Group("/me/watch-complexes", authMiddleware)
	{
		watchGroup.GET("", h.list)
		watchGroup.POST("", h.add)
		watchGroup.PATCH("/:watchID", h.update)
		watchGroup.DELETE("/:watchID", h.remove)
		watchGroup.GET("/collection-status", h.collectionStatus)
		watchGroup.GET("/live", h.live)
	}
}

type addWatchRequest struct {
	ComplexNo   int64  `json:"complex_no" binding:"required,gt=0"`
	ComplexName string `json:"complex_name" binding:"required,max=255"`
	Sido        string `json:"sido" binding:"omitempty,max=64"`
	Gugun       string `json:"gugun" binding:"omitempty,max=64"`
	Dong        string `json:"dong" binding:"omitempty,max=64"`
}

type updateWatchRequest struct {
	ComplexName *string `json:"complex_name" binding:"omitempty,max=255"`
	Sido        *string `json:"sido" binding:"omitempty,max=64"`
	Gugun       *string `json:"gugun" binding:"omitempty,max=64"`
	Dong        *string `json:"dong" binding:"omitempty,max=64"`
	Enabled     *bool   `json:"enabled"`
}

func (h *Handler) list(c *gin.Context) {
	userID, err := middleware.GetUserIDFromContext(c)
	if err != nil {
		common.RespondWithError(c, common.ErrUnauthorized)
		return
	}

	watches, err := h.service.List(c.Request.Context(), userID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Watched complexes retrieved successfully.", watches)
}

func (h *Handler) add(c *gin.Context) {
	userID, err := middleware.GetUserIDFromContext(c)
	if err != nil {
		common.RespondWithError(c, common.ErrUnauthorized)
		return
	}

	var req addWatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(ve)))
			return
		}
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid request payload."))
		return
	}

	w, err := h.service.Add(c.Request.Context(), userID, AddInput{
		ComplexNo:   req.ComplexNo,
		ComplexName: req.ComplexName,
		Sido:        req.Sido,
		Gugun:       req.Gugun,
		Dong:        req.Dong,
	})
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondCreated(c, "Watch created successfully.", w)
}

func (h *Handler) update(c *gin.Context) {
	userID, err := middleware.GetUserIDFromContext(c)
	if err != nil {
		common.RespondWithError(c, common.ErrUnauthorized)
		return
	}
	watchID, err := uuid.Parse(c.Param("watchID"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("watchID must be a UUID."))
		return
	}

	var req updateWatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid request payload."))
		return
	}

	w, err := h.service.Update(c.Request.Context(), userID, watchID, UpdateInput{
		ComplexName: req.ComplexName,
		Sido:        req.Sido,
		Gugun:       req.Gugun,
		Dong:        req.Dong,
		Enabled:     req.Enabled,
	})
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Watch updated successfully.", w)
}

func (h *Handler) remove(c *gin.Context) {
	userID, err := middleware.GetUserIDFromContext(c)
	if err != nil {
		common.RespondWithError(c, common.ErrUnauthorized)
		return
	}
	watchID, err := uuid.Parse(c.Param("watchID"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("watchID must be a UUID."))
		return
	}

	if err := h.service.Remove(c.Request.Context(), userID, watchID); err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondNoContent(c)
}

func (h *Handler) collectionStatus(c *gin.Context) {
	userID, err := middleware.GetUserIDFromContext(c)
	if err != nil {
		common.RespondWithError(c, common.ErrUnauthorized)
		return
	}

	statuses, err := h.service.CollectionStatuses(c.Request.Context(), userID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Collection statuses retrieved successfully.", statuses)
}

func (h *Handler) live(c *gin.Context) {
	userID, err := middleware.GetUserIDFromContext(c)
	if err != nil {
		common.RespondWithError(c, common.ErrUnauthorized)
		return
	}

	snapshots, err := h.service.LiveSnapshots(c.Request.Context(), userID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Live snapshots retrieved successfully.", snapshots)
}
