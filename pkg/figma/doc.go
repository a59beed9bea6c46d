// Package figma implements a minimal client for the Figma REST API
// covering what the sprite pipeline needs: fetching a file's document
// tree, requesting rendered exports of nodes, and downloading the
// resulting assets.
//
// All methods classify HTTP failures into the error kinds defined in
// pkg/errors, so callers can distinguish auth failures and missing files
// (terminal) from rate limits and server errors (retryable). Rate limit
// headers from successful responses are tracked on the client and can be
// inspected via RateLimit().
package figma
