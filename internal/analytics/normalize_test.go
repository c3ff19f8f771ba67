// File: internal/analytics/normalize_test.go
package analytics

import (
	"testing"

	"apt_briefing_backend/internal/ingest"

	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int { return &v }

func TestEffectivePriceMonthlyRent(t *testing.T) {
	price, ok := EffectivePrice(ingest.TradeTypeMonthly, intPtr(30000), intPtr(150), 5.1)
	assert.True(t, ok)
	assert.InDelta(t, 65294.12, price, 0.01)
}

func TestEffectivePriceMonthlyRentRequiresBothAmounts(t *testing.T) {
	_, ok := EffectivePrice(ingest.TradeTypeMonthly, nil, intPtr(100), 5.0)
	assert.False(t, ok)

	_, ok = EffectivePrice(ingest.TradeTypeMonthly, intPtr(30000), nil, 5.0)
	assert.False(t, ok)
}

func TestEffectivePriceMonthlyRentFailsClosedOnBadRate(t *testing.T) {
	_, ok := EffectivePrice(ingest.TradeTypeMonthly, intPtr(30000), intPtr(150), 0)
	assert.False(t, ok)

	_, ok = EffectivePrice(ingest.TradeTypeMonthly, intPtr(30000), intPtr(150), -5.1)
	assert.False(t, ok)
}

func TestEffectivePriceSaleUsesDealPrice(t *testing.T) {
	price, ok := EffectivePrice(ingest.TradeTypeSale, intPtr(98000), nil, 5.1)
	assert.True(t, ok)
	assert.Equal(t, 98000.0, price)
}

func TestEffectivePriceLeaseUsesDealPrice(t *testing.T) {
	price, ok := EffectivePrice(ingest.TradeTypeLease, intPtr(45000), nil, 0)
	assert.True(t, ok)
	assert.Equal(t, 45000.0, price)
}

func TestEffectivePriceMissingAmounts(t *testing.T) {
	_, ok := EffectivePrice(ingest.TradeTypeSale, nil, nil, 5.1)
	assert.False(t, ok)

	_, ok = EffectivePrice(ingest.TradeTypeMonthly, nil, nil, 5.1)
	assert.False(t, ok)
}

func TestNormalizeTradeType(t *testing.T) {
	assert.Equal(t, "", NormalizeTradeType(""))
	assert.Equal(t, "", NormalizeTradeType("  "))
	assert.Equal(t, "", NormalizeTradeType("ALL"))
	assert.Equal(t, "", NormalizeTradeType("all"))
	assert.Equal(t, ingest.TradeTypeSale, NormalizeTradeType(ingest.TradeTypeSale))
	assert.Equal(t, ingest.TradeTypeMonthly, NormalizeTradeType(" 월세 "))
}

func TestMedianResistsOutliers(t *testing.T) {
	assert.Equal(t, 100.0, Median([]float64{100, 100, 100, 100, 10000}))
}

func TestMedianEvenCount(t *testing.T) {
	assert.Equal(t, 49500.0, Median([]float64{52000, 48000, 50000, 49000}))
}

func TestMedianEmpty(t *testing.T) {
	assert.Equal(t, 0.0, Median(nil))
}

func TestMedianDoesNotMutateInput(t *testing.T) {
	values := []float64{3, 1, 2}
	Median(values)
	assert.Equal(t, []float64{3, 1, 2}, values)
}
