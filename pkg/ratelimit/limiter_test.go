package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestTokenBucket(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1700000000, 0)}
	tb := NewTokenBucket(5, time.Second)
	tb.now = clock.now
	tb.lastRefill = clock.t

	for i := 0; i < 5; i++ {
		assert.True(t, tb.Allow(), "token %d", i+1)
	}
	assert.False(t, tb.Allow())

	clock.advance(time.Second)
	assert.True(t, tb.Allow())
	assert.Equal(t, 4, tb.tokens)
}

func TestTokenBucketWaitCancelled(t *testing.T) {
	tb := NewTokenBucket(1, time.Hour)
	require.True(t, tb.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := tb.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestTokenBucketWaitRefills(t *testing.T) {
	tb := NewTokenBucket(1, 30*time.Millisecond)
	require.True(t, tb.Allow())

	start := time.Now()
	require.NoError(t, tb.Wait(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestSlidingWindow(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1700000000, 0)}
	sw := NewSlidingWindow(3, time.Second)
	sw.now = clock.now

	for i := 0; i < 3; i++ {
		assert.True(t, sw.Allow(), "request %d", i+1)
	}
	assert.False(t, sw.Allow())
	assert.Len(t, sw.requests, 3)

	clock.advance(time.Second)
	assert.True(t, sw.Allow())
	assert.Len(t, sw.requests, 1)
}

func TestSlidingWindowWaitCancelled(t *testing.T) {
	sw := NewSlidingWindow(1, time.Hour)
	require.True(t, sw.Allow())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, sw.Wait(ctx), context.Canceled)
}

func TestPerMinute(t *testing.T) {
	assert.IsType(t, Unlimited{}, PerMinute(0))
	assert.IsType(t, &SlidingWindow{}, PerMinute(30))

	u := Unlimited{}
	assert.True(t, u.Allow())
	assert.NoError(t, u.Wait(context.Background()))
}
