package ratelimit

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func TestCooldown(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	c := NewCooldown(500 * time.Millisecond)
	c.now = clock.Now

	assert.True(t, c.Allow(1))
	assert.False(t, c.Allow(1), "second batch inside the window")
	assert.True(t, c.Allow(2), "other users are independent")

	clock.Advance(300 * time.Millisecond)
	assert.False(t, c.Allow(1))
	assert.Equal(t, 200*time.Millisecond, c.RetryAfter(1), "rejections do not extend the window")

	clock.Advance(200 * time.Millisecond)
	assert.True(t, c.Allow(1))
	assert.Equal(t, 500*time.Millisecond, c.RetryAfter(1))
}

func TestCooldown_ZeroWindow(t *testing.T) {
	c := NewCooldown(0)
	for range 5 {
		assert.True(t, c.Allow(1))
	}
}

func TestCooldown_ConcurrentSingleWinner(t *testing.T) {
	c := NewCooldown(time.Hour)

	var allowed atomic.Int32
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if c.Allow(42) {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), allowed.Load())
}

func TestWindow(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	w := NewWindow(2, time.Minute)
	w.now = clock.Now

	assert.True(t, w.Allow("10.0.0.1"))
	assert.True(t, w.Allow("10.0.0.1"))
	assert.False(t, w.Allow("10.0.0.1"))
	assert.True(t, w.Allow("10.0.0.2"))

	clock.Advance(61 * time.Second)
	assert.True(t, w.Allow("10.0.0.1"))
}

func TestWindow_Cleanup(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	w := NewWindow(5, time.Minute)
	w.now = clock.Now

	w.Allow("a")
	clock.Advance(90 * time.Second)
	w.Allow("b")
	clock.Advance(45 * time.Second)

	w.cleanup()
	assert.Equal(t, 1, w.keys())
}
