// File: internal/analytics/normalize.go
package analytics

import (
	"sort"
	"strings"

	"apt_briefing_backend/internal/ingest"
)

// EffectivePrice converts a listing's raw amounts into a single comparable
// number in manwon. Sale and lease listings compare on the deal price as-is.
// Monthly-rent listings fold the recurring rent into a deposit-equivalent
// lump sum using the annual conversion rate:
//
//	deposit + rent*12 / (ratePct/100)
//
// The second return value reports whether a price could be computed. A
// listing missing a required amount, or a monthly-rent listing when ratePct
// is zero or negative, yields false rather than a misleading number.
// Monthly-rent listings need both the deposit and the rent.
func EffectivePrice(tradeTypeName string, dealPriceManwon, rentPriceManwon *int, ratePct float64) (float64, bool) {
	if tradeTypeName == ingest.TradeTypeMonthly {
		if ratePct <= 0 {
			return 0, false
		}
		if dealPriceManwon == nil || rentPriceManwon == nil {
			return 0, false
		}
		deposit := float64(*dealPriceManwon)
		rent := float64(*rentPriceManwon)
		return deposit + rent*12/(ratePct/100), true
	}

	if dealPriceManwon == nil {
		return 0, false
	}
	return float64(*dealPriceManwon), true
}

// NormalizeTradeType maps user-facing trade-type filters to the stored
// value. Blank and "ALL" mean no filter.
func NormalizeTradeType(raw string) string {
	v := strings.TrimSpace(raw)
	if v == "" || strings.EqualFold(v, "ALL") {
		return ""
	}
	return v
}

// Median returns the midpoint of the values. Even-length inputs average the
// two middle elements. The input slice is not modified.
func Median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
