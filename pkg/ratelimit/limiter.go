package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter gates outgoing requests
type Limiter interface {
	// Allow reports whether a request may proceed now and consumes a slot if so
	Allow() bool
	// Wait blocks until a request may proceed or ctx is done
	Wait(ctx context.Context) error
}

// TokenBucket hands out capacity tokens per refill period. The bucket is
// refilled completely once the period has elapsed since the last refill.
type TokenBucket struct {
	capacity     int
	tokens       int
	refillPeriod time.Duration
	lastRefill   time.Time
	now          func() time.Time
	mu           sync.Mutex
}

// NewTokenBucket creates a full bucket
func NewTokenBucket(capacity int, refillPeriod time.Duration) *TokenBucket {
	return &TokenBucket{
		capacity:     capacity,
		tokens:       capacity,
		refillPeriod: refillPeriod,
		lastRefill:   time.Now(),
		now:          time.Now,
	}
}

// Allow takes a token if one is available
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill()
	if tb.tokens > 0 {
		tb.tokens--
		return true
	}
	return false
}

// Wait blocks until a token is available
func (tb *TokenBucket) Wait(ctx context.Context) error {
	for !tb.Allow() {
		tb.mu.Lock()
		delay := tb.refillPeriod - tb.now().Sub(tb.lastRefill)
		tb.mu.Unlock()

		if err := sleep(ctx, delay); err != nil {
			return err
		}
	}
	return nil
}

func (tb *TokenBucket) refill() {
	now := tb.now()
	if now.Sub(tb.lastRefill) >= tb.refillPeriod {
		tb.tokens = tb.capacity
		tb.lastRefill = now
	}
}

// SlidingWindow allows at most maxRequests within any window of windowSize
type SlidingWindow struct {
	windowSize  time.Duration
	maxRequests int
	requests    []time.Time
	now         func() time.Time
	mu          sync.Mutex
}

// NewSlidingWindow creates an empty window
func NewSlidingWindow(maxRequests int, windowSize time.Duration) *SlidingWindow {
	return &SlidingWindow{
		windowSize:  windowSize,
		maxRequests: maxRequests,
		requests:    make([]time.Time, 0, maxRequests),
		now:         time.Now,
	}
}

// PerMinute returns a sliding window allowing n requests per minute. A
// non-positive n yields a limiter that never blocks.
func PerMinute(n int) Limiter {
	if n <= 0 {
		return Unlimited{}
	}
	return NewSlidingWindow(n, time.Minute)
}

// Allow records a request if the window has room
func (sw *SlidingWindow) Allow() bool {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	now := sw.now()
	sw.cleanOldRequests(now)

	if len(sw.requests) < sw.maxRequests {
		sw.requests = append(sw.requests, now)
		return true
	}
	return false
}

// Wait blocks until the oldest request leaves the window
func (sw *SlidingWindow) Wait(ctx context.Context) error {
	for !sw.Allow() {
		sw.mu.Lock()
		delay := 100 * time.Millisecond
		if len(sw.requests) > 0 {
			delay = sw.windowSize - sw.now().Sub(sw.requests[0])
		}
		sw.mu.Unlock()

		if err := sleep(ctx, delay); err != nil {
			return err
		}
	}
	return nil
}

func (sw *SlidingWindow) cleanOldRequests(now time.Time) {
	cutoff := now.Add(-sw.windowSize)

	i := 0
	for i < len(sw.requests) && !sw.requests[i].After(cutoff) {
		i++
	}
	if i > 0 {
		n := copy(sw.requests, sw.requests[i:])
		sw.requests = sw.requests[:n]
	}
}

// Unlimited never blocks
type Unlimited struct{}

func (Unlimited) Allow() bool                    { return true }
func (Unlimited) Wait(ctx context.Context) error { return ctx.Err() }

// sleep waits for d or until ctx is done. Non-positive durations still
// yield briefly so callers polling Allow do not spin.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		d = 10 * time.Millisecond
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
