package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryProvider is an in-process TTL cache bounded by entry count.
type MemoryProvider struct {
	mu         sync.Mutex
	data       map[string]entry
	maxEntries int
	seq        uint64
	now        func() time.Time
}

type entry struct {
	value     []byte
	expiresAt time.Time
	seq       uint64
}

// NewMemoryProvider creates a cache holding at most maxEntries values.
// A non-positive maxEntries leaves the cache unbounded.
func NewMemoryProvider(maxEntries int) *MemoryProvider {
	return &MemoryProvider{
		data:       make(map[string]entry),
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// Get retrieves a cached value if present and not expired.
func (c *MemoryProvider) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	it, ok := c.data[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	if c.expired(it) {
		delete(c.data, key)
		return nil, ErrCacheMiss
	}
	return append([]byte(nil), it.value...), nil
}

// Set stores a copy of value with optional TTL, evicting the oldest entry when full.
func (c *MemoryProvider) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var expires time.Time
	if ttl > 0 {
		expires = c.now().Add(ttl)
	}
	if _, exists := c.data[key]; !exists && c.maxEntries > 0 && len(c.data) >= c.maxEntries {
		c.evictLocked()
	}
	c.seq++
	c.data[key] = entry{value: append([]byte(nil), value...), expiresAt: expires, seq: c.seq}
	return nil
}

// Del removes an entry.
func (c *MemoryProvider) Del(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

// Len reports the number of stored entries, including expired ones not yet collected.
func (c *MemoryProvider) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data)
}

// Close drops every entry.
func (c *MemoryProvider) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string]entry)
	return nil
}

func (c *MemoryProvider) expired(it entry) bool {
	return !it.expiresAt.IsZero() && c.now().After(it.expiresAt)
}

// evictLocked drops expired entries, or the oldest write when none have expired.
func (c *MemoryProvider) evictLocked() {
	var (
		oldestKey string
		oldestSeq uint64
		removed   bool
	)
	for key, it := range c.data {
		if c.expired(it) {
			delete(c.data, key)
			removed = true
			continue
		}
		if oldestKey == "" || it.seq < oldestSeq {
			oldestKey, oldestSeq = key, it.seq
		}
	}
	if !removed && oldestKey != "" {
		delete(c.data, oldestKey)
	}
}
