// Package cache provides an in-memory key/value store with per-entry TTLs.
//
// Expiry is checked lazily on read; a background sweeper started with
// [Cache.Start] evicts entries that expire without ever being read again.
package cache

import (
	"context"
	"sync"
	"time"
)

// DefaultSweepInterval is how often the sweeper scans for expired entries.
const DefaultSweepInterval = time.Minute

type entry struct {
	value     any
	createdAt time.Time
	ttl       time.Duration
}

func (e entry) expired(now time.Time) bool {
	return now.Sub(e.createdAt) > e.ttl
}

// Cache is a time-expiring key/value store safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry

	now      func() time.Time
	interval time.Duration

	stop chan struct{}
	done chan struct{}
}

// Option configures a Cache.
type Option func(*Cache)

// WithSweepInterval sets the interval of the background sweeper.
func WithSweepInterval(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// New creates an empty cache. The sweeper is not running until Start is called.
func New(opts ...Option) *Cache {
	c := &Cache{
		entries:  make(map[string]entry),
		now:      time.Now,
		interval: DefaultSweepInterval,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Set stores value under key, replacing any previous entry.
func (c *Cache) Set(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	c.entries[key] = entry{value: value, createdAt: c.now(), ttl: ttl}
	c.mu.Unlock()
}

// Get returns the value stored under key if it is present and not expired.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	e, ok := c.entries[key]
	c.mu.Unlock()

	if !ok || e.expired(c.now()) {
		return nil, false
	}
	return e.value, true
}

// Get is a typed variant of [Cache.Get]. A value of another type reads as absent.
func Get[T any](c *Cache, key string) (T, bool) {
	var zero T
	v, ok := c.Get(key)
	if !ok {
		return zero, false
	}
	typed, ok := v.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}

// Delete removes key. Deleting a missing key is a no-op.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Clear removes every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]entry)
	c.mu.Unlock()
}

// Len returns the number of stored entries, expired or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Sweep evicts every expired entry and returns how many were removed.
func (c *Cache) Sweep() int {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Start launches the background sweeper. It runs until ctx is done or Stop
// is called. Calling Start on a running cache does nothing.
func (c *Cache) Start(ctx context.Context) {
	c.mu.Lock()
	if c.stop != nil {
		c.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	done := make(chan struct{})
	c.stop, c.done = stop, done
	c.mu.Unlock()

	go func() {
		defer close(done)

		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-stop:
				return
			case <-ticker.C:
				c.Sweep()
			}
		}
	}()
}

// Stop halts the sweeper and waits for it to exit.
func (c *Cache) Stop() {
	c.mu.Lock()
	stop, done := c.stop, c.done
	c.stop, c.done = nil, nil
	c.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
}
