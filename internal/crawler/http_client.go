// File: internal/crawler/http_client.go
package crawler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"apt_briefing_backend/internal/common"
	"apt_briefing_backend/internal/config"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"

// HTTPClient talks to the Naver Land article API. All calls go through a
// shared rate limiter so scheduled batches and manual requests cannot
// stampede the upstream together.
type HTTPClient struct {
	baseURL       string
	authorization string
	httpClient    *http.Client
	limiter       *rate.Limiter
	logger        *zap.Logger
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient creates the production listing source client.
func NewHTTPClient(cfg *config.Config, logger *zap.Logger) *HTTPClient {
	perSecond := cfg.CrawlerRatePerSecond
	if perSecond <= 0 {
		perSecond = 1
	}
	return &HTTPClient{
		baseURL:       strings.TrimSuffix(cfg.NaverLandBaseURL, "/"),
		authorization: cfg.NaverLandAuthorization,
		httpClient:    &http.Client{Timeout: cfg.CrawlerTimeout},
		limiter:       rate.NewLimiter(rate.Limit(perSecond), 1),
		logger:        logger.Named("crawler"),
	}
}

// FetchComplexArticles fetches one page of articles for a complex.
func (c *HTTPClient) FetchComplexArticles(
	ctx context.Context,
	complexNo int64,
	page int,
	realEstateType, tradeType string,
) (*Page, error) {
	if realEstateType == "" {
		realEstateType = DefaultRealEstateType
	}
	if tradeType == "" {
		tradeType = DefaultTradeType
	}

	params := url.Values{}
	params.Set("complexNo", strconv.FormatInt(complexNo, 10))
	params.Set("page", strconv.Itoa(page))
	params.Set("realEstateType", realEstateType)
	params.Set("tradeType", tradeType)
	params.Set("type", "list")
	params.Set("order", "rank")

	endpoint := fmt.Sprintf("%s/api/articles/complex/%d?%s", c.baseURL, complexNo, params.Encode())
	referer := fmt.Sprintf("%s/complexes/%d", c.baseURL, complexNo)

	raw, err := c.get(ctx, "fetch_complex_articles", endpoint, referer)
	if err != nil {
		return nil, err
	}

	var payload common.JSONMap
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, &Error{Kind: KindPermanent, Op: "fetch_complex_articles", Err: fmt.Errorf("malformed payload: %w", err)}
	}

	return &Page{Articles: decodeArticles(payload), Raw: payload}, nil
}

// SearchComplexes searches complexes by keyword.
func (c *HTTPClient) SearchComplexes(ctx context.Context, keyword string, limit int) ([]ComplexSummary, error) {
	params := url.Values{}
	params.Set("keyword", keyword)

	endpoint := fmt.Sprintf("%s/api/search?%s", c.baseURL, params.Encode())
	raw, err := c.get(ctx, "search_complexes", endpoint, c.baseURL)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Complexes []map[string]interface{} `json:"complexes"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, &Error{Kind: KindPermanent, Op: "search_complexes", Err: fmt.Errorf("malformed payload: %w", err)}
	}

	results := make([]ComplexSummary, 0, limit)
	for _, item := range payload.Complexes {
		summary := ComplexSummary{
			ComplexNo:       asInt64(item["complexNo"]),
			ComplexName:     asString(item["complexName"]),
			RealEstateType:  asString(item["realEstateTypeCode"]),
			Address:         asString(item["cortarAddress"]),
			TotalHouseholds: int(asInt64(item["totalHouseholdCount"])),
		}
		if summary.ComplexNo == 0 {
			continue
		}
		results = append(results, summary)
		if limit > 0 && len(results) >= limit {
			break
		}
	}
	return results, nil
}

func (c *HTTPClient) get(ctx context.Context, op, endpoint, referer string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &Error{Kind: KindTransient, Op: op, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &Error{Kind: KindPermanent, Op: op, Err: err}
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Referer", referer)
	if c.authorization != "" {
		req.Header.Set("Authorization", c.authorization)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Includes timeouts and connection resets.
		return nil, &Error{Kind: KindTransient, Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: KindTransient, Op: op, StatusCode: resp.StatusCode, Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &Error{Kind: KindRateLimited, Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("upstream rate limit")}
	case resp.StatusCode >= 500:
		return nil, &Error{Kind: KindTransient, Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("upstream server error")}
	case resp.StatusCode >= 400:
		return nil, &Error{Kind: KindPermanent, Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("upstream rejected request")}
	}

	c.logger.Debug("Upstream fetch complete",
		zap.String("op", op),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(body)),
	)
	return body, nil
}

// decodeArticles lifts the known fields of each article onto the typed
// struct and keeps the full upstream object in Extra.
func decodeArticles(payload common.JSONMap) []Article {
	rawList, _ := payload["articleList"].([]interface{})
	articles := make([]Article, 0, len(rawList))
	for _, rawItem := range rawList {
		item, ok := rawItem.(map[string]interface{})
		if !ok {
			continue
		}
		articleNo := asInt64(item["articleNo"])
		if articleNo == 0 {
			continue
		}
		article := Article{
			ArticleNo:         articleNo,
			ArticleName:       asString(item["articleName"]),
			TradeTypeName:     asString(item["tradeTypeName"]),
			DealPriceText:     asString(item["dealOrWarrantPrc"]),
			RentPriceText:     asString(item["rentPrc"]),
			FloorInfo:         asString(item["floorInfo"]),
			Direction:         asString(item["direction"]),
			ConfirmedDateText: asString(item["articleConfirmYmd"]),
			Extra:             common.JSONMap(item),
		}
		if area, ok := asFloat64(item["area1"]); ok {
			article.AreaM2 = &area
		}
		articles = append(articles, article)
	}
	return articles
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func asInt64(v interface{}) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return 0
		}
		return parsed
	case json.Number:
		parsed, err := n.Int64()
		if err != nil {
			return 0
		}
		return parsed
	default:
		return 0
	}
}

func asFloat64(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}
