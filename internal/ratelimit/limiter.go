package ratelimit

import (
	"context"
	"os"
	"sync"

	"golang.org/x/time/rate"
)

// API represents the different external APIs we interact with
type API string

const (
	// APIAgro represents the commodity quote provider
	APIAgro API = "agroapi"
	// APIBCB represents the Banco Central PTAX exchange-rate API
	APIBCB API = "bcb"
)

// Limiter manages rate limits for different APIs. Construct one in main and
// pass it to the clients that need it.
type Limiter struct {
	limiters map[API]*rate.Limiter
	mu       sync.RWMutex
}

// New creates a limiter with conservative per-API defaults.
func New() *Limiter {
	l := &Limiter{limiters: make(map[API]*rate.Limiter)}

	// In test mode, use unlimited rate limits to avoid slowing down tests
	if os.Getenv("GO_TESTING") == "1" || isTestMode() {
		l.limiters[APIAgro] = rate.NewLimiter(rate.Inf, 1)
		l.limiters[APIBCB] = rate.NewLimiter(rate.Inf, 1)
		return l
	}

	// Production rate limits
	// Quote provider: 2 requests per second (conservative, actual limit may be higher)
	l.limiters[APIAgro] = rate.NewLimiter(rate.Limit(2), 1)

	// PTAX is a public endpoint; 10 requests per second is well within its limits
	l.limiters[APIBCB] = rate.NewLimiter(rate.Limit(10), 2)

	return l
}

// isTestMode checks if we're running in test mode
func isTestMode() bool {
	// Check if the test binary is running by looking for test-related arguments
	for _, arg := range os.Args {
		if len(arg) > 6 && arg[:6] == "-test." {
			return true
		}
	}
	return false
}

// Wait blocks until the rate limiter permits an event for the given API
// It returns an error if the context is canceled before the event can proceed
func (l *Limiter) Wait(ctx context.Context, api API) error {
	l.mu.RLock()
	limiter, exists := l.limiters[api]
	l.mu.RUnlock()

	if !exists {
		// If no limiter exists for this API, allow the request without limiting
		return nil
	}

	return limiter.Wait(ctx)
}

// Allow reports whether an event for the given API may happen now
func (l *Limiter) Allow(api API) bool {
	l.mu.RLock()
	limiter, exists := l.limiters[api]
	l.mu.RUnlock()

	if !exists {
		// If no limiter exists for this API, allow the request
		return true
	}

	return limiter.Allow()
}
