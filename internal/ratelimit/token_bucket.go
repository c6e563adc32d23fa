package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// TokenBucket implements token bucket rate limiting on top of x/time/rate.
type TokenBucket struct {
	limiter *rate.Limiter
}

// NewTokenBucket creates a new token bucket limiter.
func NewTokenBucket(cfg Config) *TokenBucket {
	cfg = applyDefaults(cfg)
	return &TokenBucket{
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), cfg.Burst),
	}
}

// Wait blocks until a token is available or the context is done.
func (tb *TokenBucket) Wait(ctx context.Context) error {
	return tb.limiter.Wait(ctx)
}

// Allow returns true if a token is available immediately.
func (tb *TokenBucket) Allow() bool {
	return tb.limiter.Allow()
}

// Reserve returns the duration to wait for the next token without taking it.
func (tb *TokenBucket) Reserve() time.Duration {
	tokens := tb.limiter.Tokens()
	if tokens >= 1.0 {
		return 0
	}
	deficit := 1.0 - tokens
	return time.Duration(deficit / float64(tb.limiter.Limit()) * float64(time.Second))
}
