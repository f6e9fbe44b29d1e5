package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"igvision/pkg/config"
	errs "igvision/pkg/errors"
	"igvision/pkg/logger"
)

func TestExponentialBackoff(t *testing.T) {
	backoff := &ExponentialBackoff{
		BaseDelay:    100 * time.Millisecond,
		MaxDelay:     1 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.0,
	}

	tests := []struct {
		attempt     int
		expected    time.Duration
		description string
	}{
		{0, 0, "No attempt"},
		{1, 100 * time.Millisecond, "First attempt"},
		{2, 200 * time.Millisecond, "Second attempt"},
		{3, 400 * time.Millisecond, "Third attempt"},
		{4, 800 * time.Millisecond, "Fourth attempt"},
		{5, 1 * time.Second, "Fifth attempt (capped at max)"},
		{6, 1 * time.Second, "Sixth attempt (still capped)"},
	}

	for _, test := range tests {
		t.Run(test.description, func(t *testing.T) {
			delay := backoff.NextDelay(test.attempt, nil)
			if delay != test.expected {
				t.Errorf("Expected delay %v, got %v", test.expected, delay)
			}
		})
	}
}

func TestExponentialBackoffWithJitter(t *testing.T) {
	backoff := &ExponentialBackoff{
		BaseDelay:    100 * time.Millisecond,
		MaxDelay:     1 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.3,
	}

	delays := make(map[time.Duration]bool)
	for i := 0; i < 20; i++ {
		delay := backoff.NextDelay(2, nil)
		if delay < 140*time.Millisecond || delay > 260*time.Millisecond {
			t.Fatalf("Delay %v outside jitter bounds", delay)
		}
		delays[delay] = true
	}

	if len(delays) < 2 {
		t.Error("Expected multiple different delays with jitter, but got consistent delays")
	}
}

func TestKindBackoff(t *testing.T) {
	kb := NewKindBackoff()
	for _, s := range kb.ByKind {
		s.(*ExponentialBackoff).JitterFactor = 0
	}
	kb.Default = &ConstantBackoff{Delay: 7 * time.Millisecond}

	rateLimited := errs.HTTP(errs.KindRateLimit, "https://example.test", 429, "rate limit exceeded")
	if got := kb.NextDelay(1, rateLimited); got != 30*time.Second {
		t.Errorf("Expected rate limit delay of 30s, got %v", got)
	}

	network := errs.New(errs.KindNetwork, "get", errors.New("connection reset"))
	if got := kb.NextDelay(1, network); got != time.Second {
		t.Errorf("Expected network delay of 1s, got %v", got)
	}

	if got := kb.NextDelay(1, errors.New("plain")); got != 7*time.Millisecond {
		t.Errorf("Expected default delay, got %v", got)
	}
}

func TestRetryWithSuccess(t *testing.T) {
	attempts := 0
	op := func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("temporary error")
		}
		return nil
	}

	cfg := &Config{
		MaxAttempts: 5,
		Backoff:     &ConstantBackoff{Delay: time.Millisecond},
		RetryIf:     func(err error) bool { return true },
		Logger:      logger.NewNopLogger(),
	}

	if err := Do(context.Background(), op, cfg); err != nil {
		t.Errorf("Expected success after retries, got error: %v", err)
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts)
	}
}

func TestRetryWithMaxAttemptsExceeded(t *testing.T) {
	attempts := 0
	persistent := errors.New("persistent error")
	op := func(context.Context) error {
		attempts++
		return persistent
	}

	var retries []int
	cfg := &Config{
		MaxAttempts: 3,
		Backoff:     &ConstantBackoff{Delay: time.Millisecond},
		RetryIf:     func(err error) bool { return true },
		OnRetry:     func(attempt int, _ error, _ time.Duration) { retries = append(retries, attempt) },
		Logger:      logger.NewNopLogger(),
	}

	err := Do(context.Background(), op, cfg)
	if !errors.Is(err, persistent) {
		t.Errorf("Expected wrapped persistent error, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts)
	}
	if len(retries) != 2 {
		t.Errorf("Expected 2 retry callbacks, got %v", retries)
	}
}

func TestRetryWithNonRetryableError(t *testing.T) {
	attempts := 0
	authError := errs.HTTP(errs.KindAuth, "https://example.test", 401, "authentication required")

	op := func(context.Context) error {
		attempts++
		return authError
	}

	cfg := &Config{
		MaxAttempts: 5,
		Backoff:     &ConstantBackoff{Delay: time.Millisecond},
		RetryIf:     DefaultRetryIf,
	}

	err := Do(context.Background(), op, cfg)
	if err != authError {
		t.Errorf("Expected auth error, got: %v", err)
	}
	if attempts != 1 {
		t.Errorf("Expected 1 attempt (no retry for auth error), got %d", attempts)
	}
}

func TestRetryWithContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	attempts := 0

	op := func(context.Context) error {
		attempts++
		if attempts == 2 {
			cancel()
		}
		return errors.New("error")
	}

	cfg := &Config{
		MaxAttempts: 5,
		Backoff:     &ConstantBackoff{Delay: time.Second},
		RetryIf:     func(err error) bool { return true },
	}

	err := Do(ctx, op, cfg)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected cancellation error, got %v", err)
	}
	if attempts != 2 {
		t.Errorf("Expected 2 attempts before cancellation, got %d", attempts)
	}
}

func TestDefaultRetryIf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("boom"), true},
		{"cancelled", context.Canceled, false},
		{"deadline", context.DeadlineExceeded, false},
		{"network", errs.New(errs.KindNetwork, "get", errors.New("reset")), true},
		{"server", errs.HTTP(errs.KindServerError, "u", 503, "server error"), true},
		{"not found", errs.HTTP(errs.KindNotFound, "u", 404, "resource not found"), false},
		{"parsing", errs.New(errs.KindParsing, "decode", errors.New("bad json")), false},
		{"parsed error page", &errs.Error{Kind: errs.KindParsing, Code: 200}, false},
		{"request timeout", errs.HTTP(errs.KindUnknown, "u", 408, "unexpected status code: 408"), true},
		{"bad request", errs.HTTP(errs.KindUnknown, "u", 400, "unexpected status code: 400"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DefaultRetryIf(tt.err); got != tt.want {
				t.Errorf("DefaultRetryIf(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestDoWithResult(t *testing.T) {
	attempts := 0
	op := func(context.Context) (string, error) {
		attempts++
		if attempts < 2 {
			return "", errors.New("temporary error")
		}
		return "success", nil
	}

	cfg := &Config{
		MaxAttempts: 3,
		Backoff:     &ConstantBackoff{Delay: time.Millisecond},
		RetryIf:     func(err error) bool { return true },
	}

	result, err := DoWithResult(context.Background(), op, cfg)
	if err != nil {
		t.Errorf("Expected success, got error: %v", err)
	}
	if result != "success" {
		t.Errorf("Expected 'success', got '%s'", result)
	}
	if attempts != 2 {
		t.Errorf("Expected 2 attempts, got %d", attempts)
	}
}

func TestFromConfig(t *testing.T) {
	disabled := FromConfig(config.RetryConfig{Enabled: false}, nil)
	if disabled.MaxAttempts != 1 {
		t.Errorf("Expected a single attempt when disabled, got %d", disabled.MaxAttempts)
	}

	enabled := FromConfig(config.RetryConfig{
		Enabled:     true,
		MaxAttempts: 4,
		BaseDelay:   10 * time.Millisecond,
		MaxDelay:    time.Second,
		Multiplier:  2,
	}, nil)
	if enabled.MaxAttempts != 4 {
		t.Errorf("Expected 4 attempts, got %d", enabled.MaxAttempts)
	}

	network := errs.New(errs.KindNetwork, "get", errors.New("reset"))
	if got := enabled.Backoff.NextDelay(2, network); got != 20*time.Millisecond {
		t.Errorf("Expected configured network backoff of 20ms, got %v", got)
	}
}
