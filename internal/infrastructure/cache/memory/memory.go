// Package memory provides the default in-process record cache: unbounded
// memoization of loaded record documents. The whole appendix is about
// 1300 records, so eviction is not worth its complexity.
package memory

import (
	"context"
	"sync"

	"github.com/turtacn/FCM-Registry/internal/domain/substance"
)

// Cache memoizes records by FCA number. It implements the registry's
// RecordCache.
type Cache struct {
	mu      sync.RWMutex
	records map[substance.ID]*substance.Record
}

func NewCache() *Cache {
	return &Cache{records: make(map[substance.ID]*substance.Record)}
}

// GetOrLoad returns the cached record or falls back to load. Concurrent
// misses for the same ID may load twice; records are immutable between
// refreshes, so the duplicate work is harmless.
func (c *Cache) GetOrLoad(ctx context.Context, id substance.ID, load func(context.Context) (*substance.Record, error)) (*substance.Record, error) {
	c.mu.RLock()
	rec, ok := c.records[id]
	c.mu.RUnlock()
	if ok {
		return rec, nil
	}

	rec, err := load(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.records[id] = rec
	c.mu.Unlock()
	return rec, nil
}

// Purge drops every memoized record. Called after a rebuild so readers
// see the new documents.
func (c *Cache) Purge(context.Context) error {
	c.mu.Lock()
	c.records = make(map[substance.ID]*substance.Record)
	c.mu.Unlock()
	return nil
}

// Len returns the number of memoized records.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}
