// Package retry provides exponential backoff and retry logic for transient
// failures in Figma API calls and asset downloads.
//
// Features:
//   - Exponential backoff with jitter to avoid synchronized retry storms
//   - Retry-After aware waits for HTTP 429 responses
//   - Context support for cancellation
//   - Configurable retry predicates
//   - Terminal typed errors carrying attempt counts and elapsed time
//
// Basic usage:
//
//	data, stats, err := retry.DoWithRateLimit(ctx, func(ctx context.Context) ([]byte, error) {
//		return client.Download(ctx, url)
//	}, retry.DefaultConfig())
//
// An error classified as non-retryable (auth, not-found, domain errors) is
// returned immediately without consuming the retry budget. Exhausting the
// budget converts the last transient error into a terminal
// *errors.NetworkError, or *errors.RateLimitError for persistent 429s.
package retry
