package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// MemoryProvider is an in-process LRU cache. Every entry shares the TTL given
// at construction; the ttl passed to Set is ignored.
type MemoryProvider struct {
	lru *expirable.LRU[string, []byte]
}

// NewMemoryProvider creates a cache holding at most maxEntries values, each
// expiring ttl after it was last written. A non-positive ttl disables expiry.
func NewMemoryProvider(maxEntries int, ttl time.Duration) *MemoryProvider {
	if maxEntries <= 0 {
		maxEntries = 1024
	}
	return &MemoryProvider{lru: expirable.NewLRU[string, []byte](maxEntries, nil, ttl)}
}

// Get returns a copy of the cached bytes, or ErrCacheMiss when absent or expired.
func (c *MemoryProvider) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	value, ok := c.lru.Get(key)
	if !ok {
		return nil, ErrCacheMiss
	}
	return append([]byte(nil), value...), nil
}

// Set stores a copy of value, evicting the least recently used entry when full.
func (c *MemoryProvider) Set(ctx context.Context, key string, value []byte, _ time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.lru.Add(key, append([]byte(nil), value...))
	return nil
}

// Del removes an entry.
func (c *MemoryProvider) Del(_ context.Context, key string) error {
	c.lru.Remove(key)
	return nil
}

// Len reports the number of stored entries.
func (c *MemoryProvider) Len() int {
	return c.lru.Len()
}

// Close drops all entries.
func (c *MemoryProvider) Close() error {
	c.lru.Purge()
	return nil
}
