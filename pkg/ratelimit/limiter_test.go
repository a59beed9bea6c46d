package ratelimit

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
)

func TestTokenBucket(t *testing.T) {
	tb := NewTokenBucket(5, time.Second)

	// Initial capacity
	for i := 0; i < 5; i++ {
		if !tb.Allow() {
			t.Errorf("Expected token %d to be available", i+1)
		}
	}

	// Exhaustion
	if tb.Allow() {
		t.Error("Expected no more tokens to be available")
	}

	// Refill after the period
	time.Sleep(time.Second + 100*time.Millisecond)
	if !tb.Allow() {
		t.Error("Expected tokens to be refilled after waiting")
	}

	// Reset
	tb.tokens = 0
	tb.Reset()
	if tb.tokens != tb.capacity {
		t.Error("Expected tokens to be reset to capacity")
	}
}

func TestTokenBucketWaitCancellation(t *testing.T) {
	tb := NewTokenBucket(1, time.Hour)
	if !tb.Allow() {
		t.Fatal("Expected first token to be available")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := tb.Wait(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded, got: %v", err)
	}
	if time.Since(start) > time.Second {
		t.Error("Wait did not return promptly on cancellation")
	}
}

func TestStatusUpdate(t *testing.T) {
	var s Status

	if s.Remaining() != -1 {
		t.Errorf("Expected unknown remaining to be -1, got %d", s.Remaining())
	}

	h := http.Header{}
	h.Set("X-Ratelimit-Limit", "30")
	h.Set("X-Ratelimit-Remaining", "12")
	h.Set("X-Ratelimit-Reset", "1700000000")
	s.Update(h)

	if s.Limit() != 30 {
		t.Errorf("Expected limit 30, got %d", s.Limit())
	}
	if s.Remaining() != 12 {
		t.Errorf("Expected remaining 12, got %d", s.Remaining())
	}
	if got := s.ResetAt(); got != time.Unix(1700000000, 0) {
		t.Errorf("Expected reset at unix 1700000000, got %v", got)
	}
}

func TestStatusIgnoresMalformedHeaders(t *testing.T) {
	var s Status

	h := http.Header{}
	h.Set("X-Ratelimit-Limit", "30")
	s.Update(h)

	h2 := http.Header{}
	h2.Set("X-Ratelimit-Limit", "not-a-number")
	h2.Set("X-Ratelimit-Remaining", "")
	s.Update(h2)

	if s.Limit() != 30 {
		t.Errorf("Expected malformed header to be ignored, limit is %d", s.Limit())
	}
}
