package store

import (
	"context"
	"sync"
	"time"

	"econdash/internal/models"
)

// DefaultCacheTTL is how long a loaded dataset is served before reloading.
const DefaultCacheTTL = 30 * time.Minute

// DatasetCache serves the dataset from memory and reloads it from its
// source once the TTL has passed or after Invalidate.
type DatasetCache struct {
	source DatasetSource
	ttl    time.Duration
	now    func() time.Time
	onLoad func(n int)

	mu       sync.Mutex
	records  []models.EventRecord
	loadedAt time.Time
	valid    bool
}

// CacheOption configures a DatasetCache.
type CacheOption func(*DatasetCache)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) CacheOption {
	return func(c *DatasetCache) { c.now = now }
}

// WithLoadHook is called with the record count after every reload.
func WithLoadHook(fn func(n int)) CacheOption {
	return func(c *DatasetCache) { c.onLoad = fn }
}

// NewDatasetCache creates a cache over source. A non-positive ttl uses DefaultCacheTTL.
func NewDatasetCache(source DatasetSource, ttl time.Duration, opts ...CacheOption) *DatasetCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	c := &DatasetCache{
		source: source,
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached dataset, loading it when absent or expired.
// Callers must treat the returned slice as read-only.
func (c *DatasetCache) Get(ctx context.Context) ([]models.EventRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.valid && c.now().Sub(c.loadedAt) < c.ttl {
		return c.records, nil
	}

	records, err := c.source.Load(ctx)
	if err != nil {
		return nil, err
	}
	c.records = records
	c.loadedAt = c.now()
	c.valid = true
	if c.onLoad != nil {
		c.onLoad(len(records))
	}
	return records, nil
}

// Invalidate drops the cached dataset so the next Get reloads it.
func (c *DatasetCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.valid = false
	c.records = nil
}

// LoadedAt returns when the dataset was last loaded, zero if never or invalidated.
func (c *DatasetCache) LoadedAt() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.valid {
		return time.Time{}
	}
	return c.loadedAt
}
