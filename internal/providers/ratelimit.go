package providers

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter enforces a minimum interval between requests to one
// provider. Each provider owns its own limiter so a slow source cannot
// starve a fast one. It wraps a token bucket with burst 1, which is
// exactly the min-inter-request-interval contract: a token refills once
// per interval and Wait blocks until one is available, FIFO.
//
// This primitive cannot fail, only delay; Wait returns an error solely
// when the caller's context is cancelled.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter creates a limiter granting one request per minInterval.
// A non-positive interval disables throttling.
func NewRateLimiter(minInterval time.Duration) *RateLimiter {
	if minInterval <= 0 {
		return &RateLimiter{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	return &RateLimiter{limiter: rate.NewLimiter(rate.Every(minInterval), 1)}
}

// Wait blocks until a request is allowed or the context is cancelled.
func (r *RateLimiter) Wait(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}

// Allow reports whether a request may proceed without waiting,
// consuming a token if so.
func (r *RateLimiter) Allow() bool {
	return r.limiter.Allow()
}

// SetInterval updates the minimum interval between requests.
func (r *RateLimiter) SetInterval(minInterval time.Duration) {
	if minInterval <= 0 {
		r.limiter.SetLimit(rate.Inf)
		return
	}
	r.limiter.SetLimit(rate.Every(minInterval))
}

// Tokens returns the number of currently available tokens. Useful for
// monitoring and tests.
func (r *RateLimiter) Tokens() float64 {
	return r.limiter.Tokens()
}
