// Package ratelimit provides the request budget and rate-limit tracking for
// the Figma API.
//
// The Figma REST API enforces a per-minute request budget; exceeding it
// returns HTTP 429 with a Retry-After header. This package keeps the
// generator under that budget proactively:
//
// Token Bucket:
//   - Fixed capacity bucket that refills after a specified period
//   - Applied to export-URL requests, one token per batch
//
// Status:
//   - Tracks limit/remaining/reset from X-Ratelimit-* response headers
//   - Single-writer, read anywhere, surfaced in logs
//
// Usage:
//
//	limiter := ratelimit.NewTokenBucket(30, time.Minute)
//	if err := limiter.Wait(ctx); err != nil {
//	    return err // cancelled
//	}
//	// proceed with request
package ratelimit
