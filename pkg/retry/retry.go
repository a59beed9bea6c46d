package retry

import (
	"context"
	stderrors "errors"
	"time"

	errs "figsprite/pkg/errors"
	"figsprite/pkg/logger"
)

// Operation is a remote call that might need retrying.
type Operation func(ctx context.Context) error

// OperationWithResult is a remote call returning a result that might need retrying.
type OperationWithResult[T any] func(ctx context.Context) (T, error)

// Config holds retry configuration.
type Config struct {
	// MaxRetries is the number of retries after the first attempt, so an
	// operation runs at most MaxRetries+1 times.
	MaxRetries int
	// Backoff strategy to use between attempts.
	Backoff BackoffStrategy
	// RetryIf determines if an error should be retried.
	RetryIf func(error) bool
	// OnRetry is called before each retry wait with the computed delay.
	OnRetry func(attempt int, err error, delay time.Duration)
	// Logger for retry attempts.
	Logger logger.Logger
}

// DefaultConfig returns a retry configuration with the documented defaults.
func DefaultConfig() *Config {
	return &Config{
		MaxRetries: 3,
		Backoff:    DefaultExponentialBackoff(),
		RetryIf:    errs.IsRetryable,
		Logger:     logger.GetLogger(),
	}
}

// Stats describes how a retried operation concluded.
type Stats struct {
	Attempts  int
	TotalTime time.Duration
}

// Do executes an operation with retry logic. Exhausting the retry budget on a
// transient error yields a terminal *errors.NetworkError carrying the attempt
// count, elapsed time and last underlying error. A non-retryable error is
// returned immediately, unwrapped.
func Do(ctx context.Context, op Operation, cfg *Config) (Stats, error) {
	_, stats, err := DoWithResult(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	}, cfg)
	return stats, err
}

// DoWithResult executes an operation that returns a result with retry logic.
func DoWithResult[T any](ctx context.Context, op OperationWithResult[T], cfg *Config) (T, Stats, error) {
	return run(ctx, op, cfg, false)
}

// DoWithRateLimit is DoWithResult with rate-limit awareness: when a 429 error
// carries a Retry-After value, the wait is exactly that value instead of the
// computed backoff, and exhausting retries on persistent 429s yields a
// terminal *errors.RateLimitError carrying the attempt count and the last
// Retry-After seen.
func DoWithRateLimit[T any](ctx context.Context, op OperationWithResult[T], cfg *Config) (T, Stats, error) {
	return run(ctx, op, cfg, true)
}

func run[T any](ctx context.Context, op OperationWithResult[T], cfg *Config, honorRetryAfter bool) (T, Stats, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	retryIf := cfg.RetryIf
	if retryIf == nil {
		retryIf = errs.IsRetryable
	}
	backoff := cfg.Backoff
	if backoff == nil {
		backoff = DefaultExponentialBackoff()
	}

	var zero T
	var lastErr error
	var lastRetryAfter time.Duration
	start := time.Now()

	maxAttempts := cfg.MaxRetries + 1
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		value, err := op(ctx)
		stats := Stats{Attempts: attempt, TotalTime: time.Since(start)}
		if err == nil {
			if attempt > 1 && cfg.Logger != nil {
				cfg.Logger.DebugWithFields("operation succeeded after retry", map[string]interface{}{
					"attempts": attempt,
				})
			}
			return value, stats, nil
		}
		lastErr = err

		if !retryIf(err) {
			if cfg.Logger != nil {
				cfg.Logger.DebugWithFields("error is not retryable", map[string]interface{}{
					"error": err.Error(),
				})
			}
			return zero, stats, err
		}

		if attempt == maxAttempts {
			break
		}

		delay := backoff.NextDelay(attempt)
		if honorRetryAfter {
			if after, ok := retryAfterOf(err); ok {
				delay = after
				lastRetryAfter = after
			}
		}

		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err, delay)
		}
		if cfg.Logger != nil {
			cfg.Logger.WarnWithFields("retrying operation", map[string]interface{}{
				"attempt":     attempt,
				"error":       err.Error(),
				"delay_ms":    delay.Milliseconds(),
				"max_retries": cfg.MaxRetries,
			})
		}

		if err := Wait(ctx, delay); err != nil {
			return zero, Stats{Attempts: attempt, TotalTime: time.Since(start)}, err
		}
	}

	stats := Stats{Attempts: maxAttempts, TotalTime: time.Since(start)}
	if cfg.Logger != nil {
		cfg.Logger.ErrorWithFields("retry budget exhausted", map[string]interface{}{
			"attempts":   maxAttempts,
			"last_error": lastErr.Error(),
		})
	}

	if honorRetryAfter && errs.KindOf(lastErr) == errs.KindRateLimit {
		return zero, stats, &errs.RateLimitError{
			Attempts:       maxAttempts,
			LastRetryAfter: lastRetryAfter,
		}
	}
	return zero, stats, &errs.NetworkError{
		Attempts: maxAttempts,
		Elapsed:  stats.TotalTime,
		Last:     lastErr,
	}
}

func retryAfterOf(err error) (time.Duration, bool) {
	var apiErr *errs.APIError
	if stderrors.As(err, &apiErr) && apiErr.Kind == errs.KindRateLimit && apiErr.RetryAfter > 0 {
		return apiErr.RetryAfter, true
	}
	return 0, false
}
