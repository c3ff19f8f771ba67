// File: internal/ingest/parser_test.go
package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceToManwonEokAndManwon(t *testing.T) {
	price := PriceToManwon("9억 8,000")
	require.NotNil(t, price)
	assert.Equal(t, 98000, *price)
}

func TestPriceToManwonEokOnly(t *testing.T) {
	price := PriceToManwon("2억")
	require.NotNil(t, price)
	assert.Equal(t, 20000, *price)
}

func TestPriceToManwonPlainDigits(t *testing.T) {
	price := PriceToManwon("8,000")
	require.NotNil(t, price)
	assert.Equal(t, 8000, *price)

	price = PriceToManwon("500")
	require.NotNil(t, price)
	assert.Equal(t, 500, *price)
}

func TestPriceToManwonUnparsable(t *testing.T) {
	assert.Nil(t, PriceToManwon(""))
	assert.Nil(t, PriceToManwon("가격협의"))
	assert.Nil(t, PriceToManwon("abc억 def"))
}

func TestParseConfirmedDateFormats(t *testing.T) {
	expected := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)

	for _, raw := range []string{"25.07.01.", "2025.07.01.", "2025-07-01"} {
		parsed := ParseConfirmedDate(raw)
		require.NotNil(t, parsed, "format %q", raw)
		assert.Equal(t, expected, *parsed, "format %q", raw)
	}
}

func TestParseConfirmedDateinvalid(t *testing.T) {
	assert.Nil(t, ParseConfirmedDate(""))
	assert.Nil(t, ParseConfirmedDate("not-a-date"))
}
