// Package retry runs a fallible operation with backoff, used by the IMAP
// connector's reconnect loop, the SMTP connector's submit path, and the
// bearer-token credential store's refresh call.
package retry

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"
)

// BackoffStrategy computes the wait duration before the given attempt
// (1-indexed; attempt 0 is the initial, un-delayed try).
type BackoffStrategy func(attempt int) time.Duration

// Config holds retry configuration. Use NewConfig for defaults.
type Config struct {
	// MaxAttempts is the maximum number of attempts, including the first.
	MaxAttempts int

	// Backoff computes the wait before each retry. Defaults to
	// ExponentialBackoff(100ms, 1.5, 30s) if nil.
	Backoff BackoffStrategy

	// OnRetry, if set, is called before each retry with the attempt
	// number, the error that triggered it, and the wait about to happen.
	OnRetry func(attempt int, lastErr error, nextWait time.Duration)

	// Timeout bounds the total time across every attempt. Zero means no
	// bound beyond ctx's own deadline.
	Timeout time.Duration
}

// Option configures a Config.
type Option func(*Config)

// NewConfig returns the default retry configuration.
func NewConfig() *Config {
	return &Config{
		MaxAttempts: 3,
		Backoff:     ExponentialBackoff(100*time.Millisecond, 1.5, 30*time.Second),
	}
}

// WithMaxAttempts overrides the attempt count.
func WithMaxAttempts(attempts int) Option {
	return func(c *Config) {
		if attempts > 0 {
			c.MaxAttempts = attempts
		}
	}
}

// WithBackoff overrides the backoff strategy.
func WithBackoff(strategy BackoffStrategy) Option {
	return func(c *Config) {
		if strategy != nil {
			c.Backoff = strategy
		}
	}
}

// WithOnRetry sets the retry callback.
func WithOnRetry(fn func(attempt int, lastErr error, nextWait time.Duration)) Option {
	return func(c *Config) {
		c.OnRetry = fn
	}
}

// WithTimeout bounds the total retry duration.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		if timeout > 0 {
			c.Timeout = timeout
		}
	}
}

var (
	randSource = rand.NewSource(time.Now().UnixNano())
	randMu     sync.Mutex
)

// ExponentialBackoff doubles (times multiplier) the wait on each attempt,
// capped at maxDelay, with up to 50% jitter to avoid synchronized retries
// across connectors sharing the same upstream.
func ExponentialBackoff(initialDelay time.Duration, multiplier float64, maxDelay time.Duration) BackoffStrategy {
	return func(attempt int) time.Duration {
		if attempt <= 0 {
			return 0
		}

		delay := time.Duration(float64(initialDelay) * math.Pow(multiplier, float64(attempt-1)))
		if delay > maxDelay {
			delay = maxDelay
		}

		randMu.Lock()
		jitter := time.Duration(randSource.Int63() % int64(delay+1))
		randMu.Unlock()

		return delay/2 + jitter/2
	}
}

// FixedBackoff waits the same duration before every retry.
func FixedBackoff(d time.Duration) BackoffStrategy {
	return func(attempt int) time.Duration {
		if attempt <= 0 {
			return 0
		}

		return d
	}
}

// IsRetryable decides whether an error should trigger another attempt.
type IsRetryable func(error) bool

// Do runs fn, retrying on error per cfg, until it succeeds, exhausts
// MaxAttempts, or ctx is done. shouldRetry may be nil to always retry.
func Do(ctx context.Context, fn func() error, shouldRetry IsRetryable, opts ...Option) error {
	cfg := NewConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	retryCtx := ctx
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		retryCtx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	var lastErr error

	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		select {
		case <-retryCtx.Done():
			return retryCtx.Err()
		default:
		}

		err := fn()
		if err == nil {
			return nil
		}

		lastErr = err

		if shouldRetry != nil && !shouldRetry(err) {
			return err
		}

		if attempt == cfg.MaxAttempts-1 {
			return lastErr
		}

		wait := cfg.Backoff(attempt + 1)
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt+1, lastErr, wait)
		}

		select {
		case <-time.After(wait):
		case <-retryCtx.Done():
			return retryCtx.Err()
		}
	}

	return lastErr
}

// Async runs Do in a goroutine and reports the outcome through exactly one
// of onSuccess or onFailure.
func Async(ctx context.Context, fn func() error, onSuccess func(), onFailure func(error), opts ...Option) {
	go func() {
		err := Do(ctx, fn, nil, opts...)
		if err == nil {
			if onSuccess != nil {
				onSuccess()
			}

			return
		}

		if onFailure != nil {
			onFailure(err)
		}
	}()
}
