// File: internal/analytics/handler.go
package analytics

import (
	"strconv"
	"strings"

	"apt_briefing_backend/internal/billing"
	"apt_briefing_backend/internal/common"
	"apt_briefing_backend/internal/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler struct holds dependencies for analytics handlers.
type Handler struct {
	service      Service
	entitlements billing.Entitlements
	logger       *zap.Logger
}

// NewHandler creates a new analytics handler.
func NewHandler(service Service, entitlements billing.Entitlements, logger *zap.Logger) *Handler {
	return &Handler{
		service:      service,
		entitlements: entitlements,
		logger:       logger,
	}
}

// RegisterRoutes sets up the routes for analytics. Trend and bargain lookups
// are public; multi-complex comparison is plan-limited and needs a user.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMiddleware gin.HandlerFunc) {
	analyticsGroup := router.Group("/analytics")
	{
		analyticsGroup.GET("/trend/:complexNo", h.complexTrend)
		analyticsGroup.GET("/bargains/:complexNo", h.detectBargains)
		analyticsGroup.GET("/compare", authMiddleware, h.compareTrend)
	}
}

func (h *Handler) complexTrend(c *gin.Context) {
	complexNo, err := strconv.ParseInt(c.Param("complexNo"), 10, 64)
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("complexNo must be an integer."))
		return
	}
	days, ok := parseDays(c)
	if !ok {
		return
	}

	points, err := h.service.ComplexTrend(c.Request.Context(), complexNo, days, c.Query("trade_type"))
	if err != nil {
		common.RespondWithError(c, err)
		return
	}

	common.RespondOK(c, "Trend retrieved successfully.", gin.H{
		"complex_no": complexNo,
		"days":       days,
		"points":     points,
	})
}

func (h *Handler) compareTrend(c *gin.Context) {
	userID, err := middleware.GetUserIDFromContext(c)
	if err != nil {
		common.RespondWithError(c, common.ErrUnauthorized)
		return
	}

	complexNos, err := parseComplexNos(c.Query("complex_nos"))
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	days, ok := parseDays(c)
	if !ok {
		return
	}

	limit, err := h.entitlements.CompareLimit(c.Request.Context(), userID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	if limit > 0 && len(complexNos) > limit {
		common.RespondWithError(c, common.ErrForbidden.WithDetails(
			"Your plan allows comparing up to "+strconv.Itoa(limit)+" complexes."))
		return
	}

	series, err := h.service.CompareTrend(c.Request.Context(), complexNos, days, c.Query("trade_type"))
	if err != nil {
		common.RespondWithError(c, err)
		return
	}

	common.RespondOK(c, "Comparison retrieved successfully.", gin.H{
		"days":   days,
		"series": series,
	})
}

func (h *Handler) detectBargains(c *gin.Context) {
	complexNo, err := strconv.ParseInt(c.Param("complexNo"), 10, 64)
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("complexNo must be an integer."))
		return
	}

	params := BargainParams{TradeTypeName: c.Query("trade_type")}
	if raw := c.Query("lookback_days"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > 180 {
			common.RespondWithError(c, common.ErrBadRequest.WithDetails("lookback_days must be between 1 and 180"))
			return
		}
		params.LookbackDays = v
	}
	if raw := c.Query("threshold"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v <= 0 || v >= 1 {
			common.RespondWithError(c, common.ErrBadRequest.WithDetails("threshold must be between 0 and 1 exclusive"))
			return
		}
		params.DiscountThreshold = v
	}
	if raw := c.Query("rate_pct"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			common.RespondWithError(c, common.ErrBadRequest.WithDetails("rate_pct must be a number"))
			return
		}
		params.ConversionRatePct = v
	}

	report, err := h.service.DetectBargains(c.Request.Context(), complexNo, params)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}

	common.RespondOK(c, "Bargain scan completed.", report)
}

func parseDays(c *gin.Context) (int, bool) {
	days, err := strconv.Atoi(c.DefaultQuery("days", "30"))
	if err != nil || days < 1 || days > 180 {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("days must be between 1 and 180"))
		return 0, false
	}
	return days, true
}

func parseComplexNos(raw string) ([]int64, error) {
	parts := strings.Split(raw, ",")
	complexNos := make([]int64, 0, len(parts))
	seen := make(map[int64]struct{})
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		no, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, common.ErrBadRequest.WithDetails("complex_nos must be a comma separated list of integers")
		}
		if _, dup := seen[no]; dup {
			continue
		}
		seen[no] = struct{}{}
		complexNos = append(complexNos, no)
	}
	if len(complexNos) == 0 {
		return nil, common.ErrBadRequest.WithDetails("complex_nos is required")
	}
	return complexNos, nil
}
