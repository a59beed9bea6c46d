package ratelimit

import (
	"net/http"
	"strconv"
	"sync/atomic"
	"time"
)

// Status tracks the remote API's rate-limit state as reported in response
// headers. It is written by the single goroutine issuing API requests and
// read from anywhere, so plain atomics suffice.
type Status struct {
	limit     atomic.Int64
	remaining atomic.Int64
	reset     atomic.Int64 // unix seconds
}

// NewStatus returns a Status with no reported values yet.
func NewStatus() *Status {
	return &Status{}
}

// Update records the rate-limit headers of a response, ignoring absent or
// malformed values.
func (s *Status) Update(h http.Header) {
	if v, ok := headerInt(h, "X-Ratelimit-Limit"); ok {
		s.limit.Store(v)
	}
	if v, ok := headerInt(h, "X-Ratelimit-Remaining"); ok {
		s.remaining.Store(v)
	}
	if v, ok := headerInt(h, "X-Ratelimit-Reset"); ok {
		s.reset.Store(v)
	}
}

// Remaining returns the last reported remaining request count, or -1 if the
// API has not reported one yet.
func (s *Status) Remaining() int64 {
	if s.limit.Load() == 0 {
		return -1
	}
	return s.remaining.Load()
}

// Limit returns the last reported request limit, or 0 if unknown.
func (s *Status) Limit() int64 {
	return s.limit.Load()
}

// ResetAt returns the time the budget resets, or the zero time if unknown.
func (s *Status) ResetAt() time.Time {
	v := s.reset.Load()
	if v == 0 {
		return time.Time{}
	}
	return time.Unix(v, 0)
}

func headerInt(h http.Header, key string) (int64, bool) {
	raw := h.Get(key)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
