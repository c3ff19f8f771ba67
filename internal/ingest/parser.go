// File: internal/ingest/parser.go
package ingest

import (
	"strconv"
	"strings"
	"time"
)

// confirmedDateLayouts are the textual formats the upstream has been seen
// using for article confirmation dates.
var confirmedDateLayouts = []string{"06.01.02.", "2006.01.02.", "2006-01-02"}

// PriceToManwon parses an upstream price string into integer manwon units.
// Prices come either as plain digits ("30,000") or with an eok marker
// ("3억 5,000" = 35000). Unparsable values yield nil, not an error; a
// snapshot with a null price is still worth keeping.
func PriceToManwon(value string) *int {
	cleaned := strings.ReplaceAll(strings.TrimSpace(value), ",", "")
	if cleaned == "" {
		return nil
	}

	if front, rest, found := strings.Cut(cleaned, "억"); found {
		eok := 0
		if n, err := strconv.Atoi(front); err == nil && n >= 0 {
			eok = n
		}
		manwon := 0
		rest = strings.TrimSpace(rest)
		if n, err := strconv.Atoi(rest); err == nil && n >= 0 {
			manwon = n
		}
		total := eok*10000 + manwon
		return &total
	}

	n, err := strconv.Atoi(cleaned)
	if err != nil || n < 0 {
		return nil
	}
	return &n
}

// ParseConfirmedDate parses an upstream confirmation date string, trying
// each accepted layout. Returns nil when no layout matches.
func ParseConfirmedDate(raw string) *time.Time {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	for _, layout := range confirmedDateLayouts {
		if parsed, err := time.Parse(layout, trimmed); err == nil {
			day := time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, time.UTC)
			return &day
		}
	}
	return nil
}
