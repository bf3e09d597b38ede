// Package ratelimit holds in-process limiter state. Nothing here is persisted;
// a restart forgets every window.
package ratelimit

import (
	"sync"
	"time"
)

// Cooldown admits at most one event per key within a fixed window. A rejected
// attempt does not extend the window.
type Cooldown struct {
	mu     sync.Mutex
	last   map[int64]time.Time
	window time.Duration
	now    func() time.Time
}

// NewCooldown creates a per-user cooldown. A zero window admits everything.
func NewCooldown(window time.Duration) *Cooldown {
	return &Cooldown{
		last:   make(map[int64]time.Time),
		window: window,
		now:    time.Now,
	}
}

// Allow reports whether userID may proceed and, if so, starts a new window.
func (c *Cooldown) Allow(userID int64) bool {
	if c.window <= 0 {
		return true
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	last, seen := c.last[userID]
	if seen && now.Sub(last) < c.window {
		return false
	}

	c.last[userID] = now
	return true
}

// RetryAfter returns how long userID still has to wait.
func (c *Cooldown) RetryAfter(userID int64) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	last, seen := c.last[userID]
	if !seen {
		return 0
	}
	wait := c.window - c.now().Sub(last)
	if wait < 0 {
		return 0
	}
	return wait
}

func (c *Cooldown) Window() time.Duration {
	return c.window
}
