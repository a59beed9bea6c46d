package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"
	"time"
)

func TestFromStatus(t *testing.T) {
	tests := []struct {
		status int
		kind   Kind
	}{
		{401, KindAuth},
		{403, KindAuth},
		{404, KindNotFound},
		{429, KindRateLimit},
		{500, KindServerError},
		{502, KindServerError},
		{503, KindServerError},
		{418, KindUnknown},
	}

	for _, test := range tests {
		err := FromStatus(test.status, "boom")
		if err.Kind != test.kind {
			t.Errorf("status %d: expected kind %q, got %q", test.status, test.kind, err.Kind)
		}
		if err.Status != test.status {
			t.Errorf("status %d: expected status preserved, got %d", test.status, err.Status)
		}
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"nil", nil, false},
		{"auth", FromStatus(401, "forbidden"), false},
		{"not found", FromStatus(404, "missing"), false},
		{"rate limit", FromStatus(429, "slow down"), true},
		{"server error", FromStatus(503, "unavailable"), true},
		{"unknown 4xx", FromStatus(418, "teapot"), false},
		{"context canceled", context.Canceled, false},
		{"deadline exceeded", context.DeadlineExceeded, false},
		{"export", &ExportError{Format: "png", Total: 3}, false},
		{"packing", &PackingError{Message: "empty"}, false},
		{"image", &ImageError{Message: "bad dims"}, false},
		{"svg", &SVGError{IconID: "a", Message: "viewBox"}, false},
		{"generic", stderrors.New("connection reset"), true},
		{"wrapped auth", fmt.Errorf("request failed: %w", FromStatus(403, "no")), false},
		{"wrapped 429", fmt.Errorf("request failed: %w", FromStatus(429, "no")), true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := IsRetryable(test.err); got != test.retryable {
				t.Errorf("IsRetryable(%v) = %v, want %v", test.err, got, test.retryable)
			}
		})
	}
}

func TestIsRetryableStatusCode(t *testing.T) {
	retryable := []int{0, 429, 500, 502, 503, 504, 599}
	for _, code := range retryable {
		if !IsRetryableStatusCode(code) {
			t.Errorf("expected status %d to be retryable", code)
		}
	}

	permanent := []int{400, 401, 403, 404, 418, 451}
	for _, code := range permanent {
		if IsRetryableStatusCode(code) {
			t.Errorf("expected status %d to be permanent", code)
		}
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		err  error
		kind Kind
	}{
		{FromStatus(429, ""), KindRateLimit},
		{&RateLimitError{Attempts: 4, LastRetryAfter: 2 * time.Second}, KindRateLimit},
		{&NetworkError{Attempts: 4, Last: stderrors.New("eof")}, KindNetwork},
		{&ExportError{Format: "svg"}, KindExport},
		{&PackingError{}, KindPacking},
		{&ImageError{}, KindImage},
		{&SVGError{}, KindSVG},
		{stderrors.New("whatever"), KindUnknown},
	}

	for _, test := range tests {
		if got := KindOf(test.err); got != test.kind {
			t.Errorf("KindOf(%v) = %q, want %q", test.err, got, test.kind)
		}
	}
}

func TestNetworkErrorUnwrap(t *testing.T) {
	inner := stderrors.New("dial tcp: timeout")
	err := &NetworkError{Attempts: 4, Elapsed: time.Second, Last: inner}
	if !stderrors.Is(err, inner) {
		t.Error("expected NetworkError to unwrap to the last underlying error")
	}
}
