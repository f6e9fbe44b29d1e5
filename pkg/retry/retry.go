package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"igvision/pkg/config"
	errs "igvision/pkg/errors"
	"igvision/pkg/logger"
)

// Operation is a function that might need retrying
type Operation func(ctx context.Context) error

// OperationWithResult is a function returning a value that might need retrying
type OperationWithResult[T any] func(ctx context.Context) (T, error)

// Config holds retry configuration
type Config struct {
	// MaxAttempts is the maximum number of attempts (0 means unlimited)
	MaxAttempts int
	Backoff     BackoffStrategy
	// RetryIf reports whether an error is worth another attempt
	RetryIf func(error) bool
	// OnRetry is called before sleeping for the next attempt
	OnRetry func(attempt int, err error, delay time.Duration)
	Logger  logger.Logger
}

// DefaultConfig returns three attempts with per-kind exponential backoff
func DefaultConfig() *Config {
	return &Config{
		MaxAttempts: 3,
		Backoff:     NewKindBackoff(),
		RetryIf:     DefaultRetryIf,
		Logger:      logger.GetLogger(),
	}
}

// FromConfig builds a retry policy from the application settings. A disabled
// policy makes a single attempt.
func FromConfig(cfg config.RetryConfig, log logger.Logger) *Config {
	if !cfg.Enabled {
		return &Config{
			MaxAttempts: 1,
			Backoff:     &ConstantBackoff{},
			RetryIf:     DefaultRetryIf,
			Logger:      log,
		}
	}

	kb := NewKindBackoff()
	kb.Default = &ExponentialBackoff{
		BaseDelay:    cfg.BaseDelay,
		MaxDelay:     cfg.MaxDelay,
		Multiplier:   cfg.Multiplier,
		JitterFactor: cfg.JitterFactor,
	}
	kb.ByKind[errs.KindNetwork] = kb.Default

	return &Config{
		MaxAttempts: cfg.MaxAttempts,
		Backoff:     kb,
		RetryIf:     DefaultRetryIf,
		Logger:      log,
	}
}

// DefaultRetryIf retries typed errors whose HTTP status or, without one,
// whose kind is transient. Context cancellation is never retried; untyped
// errors are.
func DefaultRetryIf(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var e *errs.Error
	if errors.As(err, &e) {
		if e.Code > 0 {
			return errs.IsRetryableStatusCode(e.Code)
		}
		return errs.IsRetryable(e.Kind)
	}
	return true
}

// Do runs op until it succeeds, fails with a non-retryable error, runs out
// of attempts or ctx is done.
func Do(ctx context.Context, op Operation, cfg *Config) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	log := cfg.Logger
	if log == nil {
		log = logger.NewNopLogger()
	}
	retryIf := cfg.RetryIf
	if retryIf == nil {
		retryIf = DefaultRetryIf
	}
	backoff := cfg.Backoff
	if backoff == nil {
		backoff = DefaultExponentialBackoff()
	}

	var lastErr error
	for attempt := 1; ; attempt++ {
		if cfg.MaxAttempts > 0 && attempt > cfg.MaxAttempts {
			log.ErrorWithFields("max retry attempts exceeded", map[string]interface{}{
				"attempts":   attempt - 1,
				"last_error": lastErr.Error(),
			})
			return fmt.Errorf("max retry attempts (%d) exceeded: %w", cfg.MaxAttempts, lastErr)
		}

		err := op(ctx)
		if err == nil {
			if attempt > 1 {
				log.DebugWithFields("operation succeeded after retry", map[string]interface{}{
					"attempt": attempt,
				})
			}
			return nil
		}
		lastErr = err

		if !retryIf(err) {
			return err
		}
		if cfg.MaxAttempts > 0 && attempt == cfg.MaxAttempts {
			continue
		}

		delay := backoff.NextDelay(attempt, err)
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err, delay)
		}
		log.WarnWithFields("retrying operation", map[string]interface{}{
			"attempt":      attempt,
			"error":        err.Error(),
			"delay_ms":     delay.Milliseconds(),
			"max_attempts": cfg.MaxAttempts,
		})

		if err := Wait(ctx, delay); err != nil {
			log.WarnWithFields("retry cancelled", map[string]interface{}{
				"attempt": attempt,
				"reason":  err.Error(),
			})
			return fmt.Errorf("retry cancelled: %w", err)
		}
	}
}

// DoWithResult is Do for operations that return a value
func DoWithResult[T any](ctx context.Context, op OperationWithResult[T], cfg *Config) (T, error) {
	var result T
	err := Do(ctx, func(ctx context.Context) error {
		var opErr error
		result, opErr = op(ctx)
		return opErr
	}, cfg)
	return result, err
}
