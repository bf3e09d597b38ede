package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Window is a sliding-window limiter keyed by an arbitrary string, such as a
// client IP.
type Window struct {
	mu       sync.Mutex
	requests map[string][]time.Time
	limit    int           // Max requests allowed
	window   time.Duration // Time window for rate limiting
	now      func() time.Time
}

func NewWindow(limit int, window time.Duration) *Window {
	return &Window{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
		now:      time.Now,
	}
}

// Allow records a request for key unless the limit is already reached.
func (w *Window) Allow(key string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	cutoff := now.Add(-w.window)

	valid := w.requests[key][:0]
	for _, t := range w.requests[key] {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}

	if len(valid) >= w.limit {
		w.requests[key] = valid
		return false
	}

	w.requests[key] = append(valid, now)
	return true
}

// Run drops idle keys every interval until ctx is done.
func (w *Window) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.cleanup()
		}
	}
}

// cleanup removes keys with no request in the last two windows
func (w *Window) cleanup() {
	w.mu.Lock()
	defer w.mu.Unlock()

	cutoff := w.now().Add(-w.window * 2)

	for key, requests := range w.requests {
		if len(requests) == 0 || !requests[len(requests)-1].After(cutoff) {
			delete(w.requests, key)
		}
	}
}

func (w *Window) keys() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.requests)
}
