package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter defines the interface for rate limiting
type Limiter interface {
	// Wait blocks until the next operation may proceed
	Wait(ctx context.Context) error
}

// Interval enforces a fixed pause after each download
type Interval struct {
	interval time.Duration
	clock    Clock
	mu       sync.Mutex
	waits    int
}

// NewInterval creates an Interval limiter. A nil clock means RealClock.
func NewInterval(interval time.Duration, clock Clock) *Interval {
	if clock == nil {
		clock = RealClock()
	}
	if interval < 0 {
		interval = 0
	}
	return &Interval{interval: interval, clock: clock}
}

// Wait suspends for the configured interval
func (l *Interval) Wait(ctx context.Context) error {
	l.mu.Lock()
	l.waits++
	l.mu.Unlock()

	if l.interval == 0 {
		return ctx.Err()
	}
	return l.clock.Sleep(ctx, l.interval)
}

// Interval returns the configured pause
func (l *Interval) Interval() time.Duration {
	return l.interval
}

// Waits returns how many times Wait was called
func (l *Interval) Waits() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.waits
}

// PerSecond returns a token bucket allowing n requests per second with a burst of one.
// n <= 0 disables limiting.
func PerSecond(n int) *rate.Limiter {
	if n <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Limit(n), 1)
}

// Nop never blocks
type Nop struct{}

func (Nop) Wait(ctx context.Context) error { return ctx.Err() }
