// File: internal/crawler/errors.go
package crawler

import (
	"errors"
	"fmt"
)

// ErrorKind tags an upstream failure so callers can pattern-match on it
// instead of inspecting error strings.
type ErrorKind int

const (
	// KindRateLimited means the upstream throttled us (HTTP 429). Retry later.
	KindRateLimited ErrorKind = iota
	// KindTransient covers 5xx responses, network failures and timeouts.
	KindTransient
	// KindPermanent covers malformed payloads, auth failures and other 4xx
	// responses. Retrying without intervention will not help.
	KindPermanent
)

func (k ErrorKind) String() string {
	switch k {
	case KindRateLimited:
		return "rate_limited"
	case KindTransient:
		return "transient"
	case KindPermanent:
		return "permanent"
	default:
		return "unknown"
	}
}

// Error is the tagged failure returned by every upstream call.
type Error struct {
	Kind       ErrorKind
	StatusCode int
	Op         string
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("crawler %s: %s (status %d): %v", e.Op, e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("crawler %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether the caller may retry the call later.
func (e *Error) Retryable() bool {
	return e.Kind != KindPermanent
}

// AsError extracts a *crawler.Error from err, if any.
func AsError(err error) (*Error, bool) {
	var ce *Error
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}
