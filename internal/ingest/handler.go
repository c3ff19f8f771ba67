// File: internal/ingest/handler.go
package ingest

import (
	"strconv"
	"strings"

	"apt_briefing_backend/internal/common"
	"apt_briefing_backend/internal/config"
	"apt_briefing_backend/internal/crawler"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler struct holds dependencies for crawler/ingest handlers.
type Handler struct {
	service Service
	cfg     *config.Config
	logger  *zap.Logger
}

// NewHandler creates a new ingest handler.
func NewHandler(service Service, cfg *config.Config, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		cfg:     cfg,
		logger:  logger,
	}
}

// RegisterRoutes sets up the routes for crawler operations.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	crawlerGroup := router.Group("/crawler")
	{
		crawlerGroup.GET("/articles/:complexNo", h.previewArticles)
		crawlerGroup.GET("/search/complexes", h.searchComplexes)
		crawlerGroup.POST("/ingest/:complexNo", h.ingest)
	}
}

// MapCrawlerError translates a tagged upstream failure into the API error
// vocabulary: retry-later for rate limits and transient faults, bad gateway
// for permanent upstream errors.
func MapCrawlerError(err error) error {
	if ce, ok := crawler.AsError(err); ok {
		if ce.Retryable() {
			return common.ErrServiceUnavailable.WithDetails("Listing source is unavailable. Please try again shortly.")
		}
		return common.ErrBadGateway.WithDetails(ce.Error())
	}
	return err
}

func (h *Handler) previewArticles(c *gin.Context) {
	complexNo, err := strconv.ParseInt(c.Param("complexNo"), 10, 64)
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("complexNo must be an integer."))
		return
	}
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("page must be >= 1"))
		return
	}

	articles, err := h.service.PreviewArticles(c.Request.Context(), complexNo, page)
	if err != nil {
		h.logger.Warn("Article preview failed", zap.Int64("complex_no", complexNo), zap.Error(err))
		common.RespondWithError(c, MapCrawlerError(err))
		return
	}

	common.RespondOK(c, "Articles retrieved successfully.", gin.H{
		"complex_no": complexNo,
		"page":       page,
		"count":      len(articles),
		"items":      toArticleViews(articles),
	})
}

func (h *Handler) searchComplexes(c *gin.Context) {
	keyword := strings.TrimSpace(c.Query("keyword"))
	if len([]rune(keyword)) < 2 {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("keyword must be at least 2 characters"))
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit < 1 || limit > 20 {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("limit must be between 1 and 20"))
		return
	}

	items, err := h.service.SearchComplexes(c.Request.Context(), keyword, limit)
	if err != nil {
		common.RespondWithError(c, MapCrawlerError(err))
		return
	}

	common.RespondOK(c, "Complexes retrieved successfully.", gin.H{
		"keyword": keyword,
		"count":   len(items),
		"items":   items,
	})
}

func (h *Handler) ingest(c *gin.Context) {
	complexNo, err := strconv.ParseInt(c.Param("complexNo"), 10, 64)
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("complexNo must be an integer."))
		return
	}
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("page must be >= 1"))
		return
	}
	maxPages, err := strconv.Atoi(c.DefaultQuery("max_pages", "1"))
	if err != nil || maxPages < 1 || maxPages > h.cfg.CrawlerMaxPages {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(
			"max_pages must be between 1 and "+strconv.Itoa(h.cfg.CrawlerMaxPages)))
		return
	}

	reuseWindow := h.cfg.CrawlerReuseWindow
	if c.Query("force") == "true" {
		reuseWindow = 0
	}

	result, err := h.service.Ingest(c.Request.Context(), complexNo, page, maxPages, reuseWindow)
	if err != nil {
		h.logger.Warn("Ingest failed", zap.Int64("complex_no", complexNo), zap.Error(err))
		common.RespondWithError(c, MapCrawlerError(err))
		return
	}

	common.RespondOK(c, "Ingestion completed.", result)
}

// articleView is the preview DTO; the raw Extra blob stays server-side.
type articleView struct {
	ArticleNo     int64    `json:"article_no"`
	ArticleName   string   `json:"article_name"`
	TradeType     string   `json:"trade_type"`
	Price         string   `json:"price"`
	RentPrice     string   `json:"rent_price,omitempty"`
	FloorInfo     string   `json:"floor_info,omitempty"`
	AreaM2        *float64 `json:"area_m2,omitempty"`
	Direction     string   `json:"direction,omitempty"`
	ConfirmedDate string   `json:"confirmed_at,omitempty"`
}

func toArticleViews(articles []crawler.Article) []articleView {
	views := make([]articleView, len(articles))
	for i, a := range articles {
		views[i] = articleView{
			ArticleNo:     a.ArticleNo,
			ArticleName:   a.ArticleName,
			TradeType:     a.TradeTypeName,
			Price:         a.DealPriceText,
			RentPrice:     a.RentPriceText,
			FloorInfo:     a.FloorInfo,
			AreaM2:        a.AreaM2,
			Direction:     a.Direction,
			ConfirmedDate: a.ConfirmedDateText,
		}
	}
	return views
}
