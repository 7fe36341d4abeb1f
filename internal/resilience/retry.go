package resilience

import (
	"context"
	"errors"
	"time"
)

// RetryConfig controls Retry. Attempts below 1 mean a single attempt.
type RetryConfig struct {
	Attempts int
	Delay    time.Duration
	// Multiplier grows the delay after every failed attempt. Values below 1
	// keep it constant.
	Multiplier float64
	MaxDelay   time.Duration
	OnRetry    func(attempt int, err error)
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying. Retry returns the wrapped error.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Retry calls fn until it succeeds, attempts run out, fn returns a Permanent
// error, or ctx is done. It returns the last error from fn.
func Retry(ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) error) error {
	attempts := max(cfg.Attempts, 1)
	delay := cfg.Delay

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}

		var perm *permanentError
		if errors.As(lastErr, &perm) {
			return perm.err
		}

		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, lastErr)
		}

		if attempt < attempts {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay = nextDelay(delay, cfg)
		}
	}

	return lastErr
}

func nextDelay(d time.Duration, cfg RetryConfig) time.Duration {
	if cfg.Multiplier > 1 {
		d = time.Duration(float64(d) * cfg.Multiplier)
	}
	if cfg.MaxDelay > 0 && d > cfg.MaxDelay {
		d = cfg.MaxDelay
	}
	return d
}
