package retry

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"

	errs "igvision/pkg/errors"
)

// BackoffStrategy computes the delay before the next attempt. err is the
// failure of the attempt that just ran.
type BackoffStrategy interface {
	NextDelay(attempt int, err error) time.Duration
}

// ExponentialBackoff implements exponential backoff with jitter
type ExponentialBackoff struct {
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Multiplier float64
	// JitterFactor in [0,1] spreads the delay by +/- that fraction
	JitterFactor float64
}

// DefaultExponentialBackoff returns 1s doubling up to a minute with 10% jitter
func DefaultExponentialBackoff() *ExponentialBackoff {
	return &ExponentialBackoff{
		BaseDelay:    1 * time.Second,
		MaxDelay:     60 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.1,
	}
}

// NextDelay implements BackoffStrategy
func (eb *ExponentialBackoff) NextDelay(attempt int, _ error) time.Duration {
	if attempt <= 0 {
		return 0
	}

	delay := float64(eb.BaseDelay) * math.Pow(eb.Multiplier, float64(attempt-1))
	if eb.MaxDelay > 0 && delay > float64(eb.MaxDelay) {
		delay = float64(eb.MaxDelay)
	}

	if eb.JitterFactor > 0 {
		jitter := delay * eb.JitterFactor
		delay += (rand.Float64() * 2 * jitter) - jitter
	}
	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}

// ConstantBackoff waits the same delay between every attempt
type ConstantBackoff struct {
	Delay time.Duration
}

// NextDelay implements BackoffStrategy
func (cb *ConstantBackoff) NextDelay(attempt int, _ error) time.Duration {
	if attempt <= 0 {
		return 0
	}
	return cb.Delay
}

// KindBackoff picks a strategy from the kind of the failed attempt's error.
// Rate-limit responses back off much longer than network blips.
type KindBackoff struct {
	ByKind  map[errs.Kind]BackoffStrategy
	Default BackoffStrategy
}

// NewKindBackoff returns the strategies used against Instagram
func NewKindBackoff() *KindBackoff {
	return &KindBackoff{
		ByKind: map[errs.Kind]BackoffStrategy{
			errs.KindNetwork: &ExponentialBackoff{
				BaseDelay:    1 * time.Second,
				MaxDelay:     30 * time.Second,
				Multiplier:   2.0,
				JitterFactor: 0.2,
			},
			errs.KindRateLimit: &ExponentialBackoff{
				BaseDelay:    30 * time.Second,
				MaxDelay:     5 * time.Minute,
				Multiplier:   1.5,
				JitterFactor: 0.3,
			},
			errs.KindServerError: &ExponentialBackoff{
				BaseDelay:    5 * time.Second,
				MaxDelay:     60 * time.Second,
				Multiplier:   2.0,
				JitterFactor: 0.1,
			},
		},
		Default: DefaultExponentialBackoff(),
	}
}

// NextDelay implements BackoffStrategy
func (kb *KindBackoff) NextDelay(attempt int, err error) time.Duration {
	var e *errs.Error
	if errors.As(err, &e) {
		if s, ok := kb.ByKind[e.Kind]; ok {
			return s.NextDelay(attempt, err)
		}
	}
	if kb.Default == nil {
		return 0
	}
	return kb.Default.NextDelay(attempt, err)
}

// Wait sleeps for delay or until ctx is done
func Wait(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
