package ratelimit

import (
	"context"
	"sync"
	"time"
)

// FixedDelayLimiter spaces consecutive requests at least delay apart.
// Catalog writes use it so the sink sees one request at a steady pace.
type FixedDelayLimiter struct {
	delay time.Duration
	next  time.Time
	mu    sync.Mutex
}

// NewFixedDelayLimiter creates a new fixed delay limiter.
func NewFixedDelayLimiter(cfg Config) *FixedDelayLimiter {
	cfg = applyDefaults(cfg)
	return &FixedDelayLimiter{delay: cfg.FixedDelay}
}

// Wait blocks until the slot after the previous request opens.
func (fdl *FixedDelayLimiter) Wait(ctx context.Context) error {
	fdl.mu.Lock()
	now := time.Now()
	slot := fdl.next
	if slot.Before(now) {
		slot = now
	}
	fdl.next = slot.Add(fdl.delay)
	fdl.mu.Unlock()

	wait := slot.Sub(now)
	if wait <= 0 {
		return nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Allow takes the slot if it is already open.
func (fdl *FixedDelayLimiter) Allow() bool {
	fdl.mu.Lock()
	defer fdl.mu.Unlock()

	now := time.Now()
	if fdl.next.After(now) {
		return false
	}
	fdl.next = now.Add(fdl.delay)
	return true
}

// Reserve returns time to wait for the next slot.
func (fdl *FixedDelayLimiter) Reserve() time.Duration {
	fdl.mu.Lock()
	defer fdl.mu.Unlock()

	if wait := time.Until(fdl.next); wait > 0 {
		return wait
	}
	return 0
}
