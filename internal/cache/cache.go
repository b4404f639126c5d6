// SPDX-License-Identifier: MIT

// Package cache stores raw M8 documents keyed by source location.
package cache

import (
	"context"
	"sync"
	"time"
)

// Cache provides thread-safe document caching with expiration support.
type Cache interface {
	// Get returns the stored document. The second result is false when the key
	// is absent or expired.
	Get(ctx context.Context, key string) ([]byte, bool)
	// Set stores a document with the specified TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	// Delete removes a document.
	Delete(ctx context.Context, key string)
	// Clear removes all documents owned by this cache.
	Clear(ctx context.Context)
	// Stats returns cache statistics.
	Stats() Stats
	// Close releases background resources.
	Close() error
}

// Stats holds cache counters.
type Stats struct {
	Hits        int64 `json:"hits"`
	Misses      int64 `json:"misses"`
	Sets        int64 `json:"sets"`
	Evictions   int64 `json:"evictions"`
	CurrentSize int   `json:"currentSize"`
}

type entry struct {
	value      []byte
	expiration time.Time
}

func (e *entry) isExpired(now time.Time) bool {
	return now.After(e.expiration)
}

// memoryCache is an in-memory implementation of Cache.
type memoryCache struct {
	mu      sync.Mutex
	entries map[string]*entry
	stats   Stats
	now     func() time.Time

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewMemoryCache creates an in-memory cache. A positive cleanupInterval starts
// a janitor that evicts expired entries; Close stops it.
func NewMemoryCache(cleanupInterval time.Duration) Cache {
	c := &memoryCache{
		entries: make(map[string]*entry),
		now:     time.Now,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	if cleanupInterval > 0 {
		go c.janitor(cleanupInterval)
	} else {
		close(c.done)
	}
	return c
}

func (c *memoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, found := c.entries[key]
	if !found || e.isExpired(c.now()) {
		c.stats.Misses++
		return nil, false
	}
	c.stats.Hits++
	return e.value, true
}

func (c *memoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	stored := make([]byte, len(value))
	copy(stored, value)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = &entry{value: stored, expiration: c.now().Add(ttl)}
	c.stats.Sets++
}

func (c *memoryCache) Delete(_ context.Context, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

func (c *memoryCache) Clear(_ context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry)
}

func (c *memoryCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	stats := c.stats
	stats.CurrentSize = len(c.entries)
	return stats
}

func (c *memoryCache) Close() error {
	c.stopOnce.Do(func() { close(c.stop) })
	<-c.done
	return nil
}

// deleteExpired removes expired entries and returns how many were dropped.
func (c *memoryCache) deleteExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	count := 0
	for key, e := range c.entries {
		if e.isExpired(now) {
			delete(c.entries, key)
			count++
		}
	}
	c.stats.Evictions += int64(count)
	return count
}

func (c *memoryCache) janitor(interval time.Duration) {
	defer close(c.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.deleteExpired()
		case <-c.stop:
			return
		}
	}
}

type noOpCache struct{}

// NewNoOpCache creates a cache that stores nothing. Used when caching is disabled.
func NewNoOpCache() Cache {
	return noOpCache{}
}

func (noOpCache) Get(context.Context, string) ([]byte, bool) { return nil, false }
func (noOpCache) Set(context.Context, string, []byte, time.Duration) {}
func (noOpCache) Delete(context.Context, string) {}
func (noOpCache) Clear(context.Context) {}
func (noOpCache) Stats() Stats { return Stats{} }
func (noOpCache) Close() error { return nil }
