// Package memory provides an in-process preview cache.
package memory

import (
	"context"
	"sync"

	"github.com/previewd/previewd/internal/preview"
)

// Cache is a mutex-guarded map keyed by exact URL string. Entries never
// expire; it holds none results alongside successful ones.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]preview.Preview
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{entries: make(map[string]preview.Preview)}
}

// Get returns the cached preview for url and whether one was present.
func (c *Cache) Get(_ context.Context, url string) (preview.Preview, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.entries[url]
	return p, ok, nil
}

// Put stores p under url, replacing any previous entry.
func (c *Cache) Put(_ context.Context, url string, p preview.Preview) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[url] = p
	return nil
}

// Delete removes the entry for url, if any. This is the only freshness
// mechanism the cache offers.
func (c *Cache) Delete(_ context.Context, url string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, url)
	return nil
}

// Len reports the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
