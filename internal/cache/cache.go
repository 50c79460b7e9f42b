// Bookshelf - Book Catalog and Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package cache

import (
	"context"
	"sync"
	"time"

	"github.com/tomtom215/bookshelf/internal/metrics"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Cache is a thread-safe TTL cache. A TTL <= 0 disables it: GetOrLoad
// always calls the loader and nothing is stored.
type Cache[V any] struct {
	name string
	ttl  time.Duration
	now  func() time.Time

	mu         sync.RWMutex
	entries    map[string]entry[V]
	generation uint64
	stats      Stats
}

// Stats tracks cache performance.
type Stats struct {
	Hits          int64
	Misses        int64
	Evictions     int64
	Invalidations int64
	Entries       int
	LastCleanup   time.Time
}

// New creates a cache. name labels its Prometheus series.
//
// Example:
//
//	snapshots := cache.New[*Snapshot]("recommend-snapshot", 30*time.Second)
//	snap, err := snapshots.GetOrLoad("all", loadSnapshot)
func New[V any](name string, ttl time.Duration) *Cache[V] {
	return &Cache[V]{
		name:    name,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]entry[V]),
	}
}

// Enabled reports whether entries are kept at all.
func (c *Cache[V]) Enabled() bool {
	return c.ttl > 0
}

// Get returns the live value for key. Expired entries are removed and
// counted as misses.
func (c *Cache[V]) Get(key string) (V, bool) {
	var zero V
	if !c.Enabled() {
		return zero, false
	}

	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if ok && c.now().Before(e.expiresAt) {
		c.record(func(s *Stats) { s.Hits++ })
		metrics.CacheHits.WithLabelValues(c.name).Inc()
		return e.value, true
	}
	if ok {
		c.mu.Lock()
		// Recheck: a concurrent Set may have refreshed it.
		if cur, still := c.entries[key]; still && !c.now().Before(cur.expiresAt) {
			delete(c.entries, key)
			c.stats.Evictions++
		}
		c.stats.Entries = len(c.entries)
		c.mu.Unlock()
	}
	c.record(func(s *Stats) { s.Misses++ })
	metrics.CacheMisses.WithLabelValues(c.name).Inc()
	return zero, false
}

// Set stores value for the cache TTL.
func (c *Cache[V]) Set(key string, value V) {
	if !c.Enabled() {
		return
	}
	c.mu.Lock()
	c.setLocked(key, value)
	c.mu.Unlock()
}

// GetOrLoad returns the cached value for key or calls load and caches
// its result. Errors are not cached. A result loaded while Invalidate ran
// is returned to the caller but not stored, since it may predate the
// change that caused the invalidation.
func (c *Cache[V]) GetOrLoad(key string, load func() (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	c.mu.RLock()
	gen := c.generation
	c.mu.RUnlock()

	v, err := load()
	if err != nil || !c.Enabled() {
		return v, err
	}

	c.mu.Lock()
	if c.generation == gen {
		c.setLocked(key, v)
	}
	c.mu.Unlock()
	return v, nil
}

func (c *Cache[V]) setLocked(key string, value V) {
	c.entries[key] = entry[V]{value: value, expiresAt: c.now().Add(c.ttl)}
	c.stats.Entries = len(c.entries)
	metrics.CacheEntries.WithLabelValues(c.name).Set(float64(len(c.entries)))
}

// Delete removes key.
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	if _, ok := c.entries[key]; ok {
		delete(c.entries, key)
		c.stats.Evictions++
	}
	c.stats.Entries = len(c.entries)
	c.mu.Unlock()
}

// Invalidate drops every entry and discards loads already in flight.
func (c *Cache[V]) Invalidate() {
	c.mu.Lock()
	c.stats.Evictions += int64(len(c.entries))
	c.stats.Invalidations++
	c.entries = make(map[string]entry[V])
	c.generation++
	c.stats.Entries = 0
	c.mu.Unlock()

	metrics.CacheInvalidations.WithLabelValues(c.name).Inc()
	metrics.CacheEntries.WithLabelValues(c.name).Set(0)
}

// Cleanup removes expired entries and returns how many it removed. It
// matches the signature the maintenance supervisor expects.
func (c *Cache[V]) Cleanup(_ context.Context) (int, error) {
	now := c.now()
	c.mu.Lock()
	removed := 0
	for key, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, key)
			removed++
		}
	}
	c.stats.Evictions += int64(removed)
	c.stats.Entries = len(c.entries)
	c.stats.LastCleanup = now
	c.mu.Unlock()

	metrics.CacheEntries.WithLabelValues(c.name).Set(float64(c.Len()))
	return removed, nil
}

// Len returns the number of stored entries, expired or not.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// GetStats returns a copy of the statistics.
func (c *Cache[V]) GetStats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}

// HitRate returns hits as a percentage of lookups.
func (c *Cache[V]) HitRate() float64 {
	s := c.GetStats()
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}

func (c *Cache[V]) record(fn func(*Stats)) {
	c.mu.Lock()
	fn(&c.stats)
	c.mu.Unlock()
}
