// File: internal/auth/ratelimit.go
package auth

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// registrationLimiter throttles account creation per client key (usually
// the client IP). Limiters are kept in memory; a single instance covers the
// process.
type registrationLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    int
	window   time.Duration
}

func newRegistrationLimiter(limit int, window time.Duration) *registrationLimiter {
	if limit <= 0 {
		limit = 5
	}
	if window <= 0 {
		window = time.Hour
	}
	return &registrationLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    limit,
		window:   window,
	}
}

// Allow reports whether the client key may register right now.
func (l *registrationLimiter) Allow(clientKey string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, ok := l.limiters[clientKey]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(l.window/time.Duration(l.limit)), l.limit)
		l.limiters[clientKey] = limiter
	}
	return limiter.Allow()
}
