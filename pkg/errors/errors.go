package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Kind discriminates the error variants produced by the export pipeline.
type Kind string

const (
	KindAuth        Kind = "auth"
	KindNotFound    Kind = "not_found"
	KindRateLimit   Kind = "rate_limit"
	KindNetwork     Kind = "network"
	KindTimeout     Kind = "timeout"
	KindServerError Kind = "server_error"
	KindExport      Kind = "export"
	KindPacking     Kind = "packing"
	KindImage       Kind = "image"
	KindSVG         Kind = "svg"
	KindUnknown     Kind = "unknown"
)

// APIError is a transport-level error carrying the HTTP status that caused it.
// RetryAfter is populated from the Retry-After header on 429 responses.
type APIError struct {
	Kind       Kind
	Message    string
	Status     int
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	return fmt.Sprintf("figma %s error (status %d): %s", e.Kind, e.Status, e.Message)
}

// FromStatus maps an HTTP status code to a typed APIError.
func FromStatus(status int, message string) *APIError {
	var kind Kind
	switch {
	case status == 401 || status == 403:
		kind = KindAuth
	case status == 404:
		kind = KindNotFound
	case status == 429:
		kind = KindRateLimit
	case status >= 500 && status < 600:
		kind = KindServerError
	default:
		kind = KindUnknown
	}
	return &APIError{Kind: kind, Message: message, Status: status}
}

// RateLimitError is the terminal error raised once retries are exhausted on
// persistent 429 responses.
type RateLimitError struct {
	Attempts       int
	LastRetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited after %d attempts (last Retry-After: %s)", e.Attempts, e.LastRetryAfter)
}

// NetworkError is the terminal error raised once retries are exhausted on
// transient network or server failures.
type NetworkError struct {
	Attempts int
	Elapsed  time.Duration
	Last     error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network failure after %d attempts over %s: %v", e.Attempts, e.Elapsed, e.Last)
}

func (e *NetworkError) Unwrap() error { return e.Last }

// ExportError is raised only when every requested asset in a run failed.
// Partial failures are reported as data, never as an error.
type ExportError struct {
	Format  string
	Total   int
	Failed  int
	Reasons []string
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("%s export failed for all %d assets: %s", e.Format, e.Total, strings.Join(e.Reasons, "; "))
}

// PackingError reports empty or degenerate packer input/output.
type PackingError struct {
	Message string
}

func (e *PackingError) Error() string { return "packing failed: " + e.Message }

// ImageError reports invalid compositor input or encode failures.
type ImageError struct {
	Message string
}

func (e *ImageError) Error() string { return "image processing failed: " + e.Message }

// SVGError reports invalid vector assembler input, such as a malformed viewBox.
type SVGError struct {
	IconID  string
	Message string
}

func (e *SVGError) Error() string {
	if e.IconID != "" {
		return fmt.Sprintf("svg assembly failed for %q: %s", e.IconID, e.Message)
	}
	return "svg assembly failed: " + e.Message
}

// KindOf returns the Kind of a pipeline error, or KindUnknown for anything
// produced outside the taxonomy.
func KindOf(err error) Kind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	var rlErr *RateLimitError
	if errors.As(err, &rlErr) {
		return KindRateLimit
	}
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return KindNetwork
	}
	var expErr *ExportError
	if errors.As(err, &expErr) {
		return KindExport
	}
	var packErr *PackingError
	if errors.As(err, &packErr) {
		return KindPacking
	}
	var imgErr *ImageError
	if errors.As(err, &imgErr) {
		return KindImage
	}
	var svgErr *SVGError
	if errors.As(err, &svgErr) {
		return KindSVG
	}
	return KindUnknown
}

// IsRetryable reports whether an operation that produced err should be retried.
//
// Domain errors (export, packing, image, svg) and 4xx statuses other than 429
// are permanent. Unclassified errors default to retryable; a permanent failure
// masked as transient costs a bounded number of wasted attempts, while the
// opposite misclassification loses work.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Kind {
		case KindRateLimit, KindNetwork, KindTimeout, KindServerError:
			return true
		case KindAuth, KindNotFound:
			return false
		}
		if apiErr.Status >= 400 && apiErr.Status < 500 {
			return false
		}
		return true
	}

	switch KindOf(err) {
	case KindExport, KindPacking, KindImage, KindSVG:
		return false
	}
	return true
}

// IsRetryableStatusCode classifies a bare HTTP status code.
func IsRetryableStatusCode(status int) bool {
	switch {
	case status == 0: // network error, no response
		return true
	case status == 429:
		return true
	case status >= 500 && status < 600:
		return true
	default:
		return false
	}
}
