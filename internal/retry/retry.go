// Package retry runs operations with exponential backoff.
package retry

import (
	"context"
	"log/slog"
	"math"
	"time"
)

// Config holds the configuration for retry logic.
type Config struct {
	MaxRetries      int
	BaseDelay       time.Duration
	MaxDelay        time.Duration
	BackoffMultiple float64
}

// DefaultConfig returns the retry configuration used for catalog downloads.
func DefaultConfig() Config {
	return Config{
		MaxRetries:      3,
		BaseDelay:       500 * time.Millisecond,
		MaxDelay:        10 * time.Second,
		BackoffMultiple: 2.0,
	}
}

// delay computes the wait before the given retry using exponential backoff.
func (c Config) delay(retry int) time.Duration {
	mult := c.BackoffMultiple
	if mult < 1 {
		mult = 1
	}
	d := time.Duration(float64(c.BaseDelay) * math.Pow(mult, float64(retry)))
	if c.MaxDelay > 0 && d > c.MaxDelay {
		d = c.MaxDelay
	}
	return d
}

// Options configures Do.
type Options struct {
	Config Config
	// Retryable reports whether err is worth another attempt. Nil retries
	// every error.
	Retryable func(err error) bool
	Logger    *slog.Logger
	Name      string
}

// Do calls fn until it succeeds, returns a non-retryable error, or the
// retries are exhausted, in which case the last error is returned. The
// attempt number passed to fn starts at zero.
func Do[T any](ctx context.Context, opts Options, fn func(attempt int) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt <= opts.Config.MaxRetries; attempt++ {
		if attempt > 0 {
			d := opts.Config.delay(attempt - 1)
			if opts.Logger != nil {
				opts.Logger.Warn("retrying",
					"operation", opts.Name,
					"attempt", attempt+1,
					"max_attempts", opts.Config.MaxRetries+1,
					"delay", d,
					"error", lastErr,
				)
			}

			timer := time.NewTimer(d)
			select {
			case <-ctx.Done():
				timer.Stop()
				return zero, ctx.Err()
			case <-timer.C:
			}
		}

		v, err := fn(attempt)
		if err == nil {
			return v, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return zero, err
		}
		if opts.Retryable != nil && !opts.Retryable(err) {
			return zero, err
		}
	}

	return zero, lastErr
}
