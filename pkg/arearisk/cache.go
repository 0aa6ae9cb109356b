package arearisk

import (
	"context"
	"sync"

	geojson "github.com/paulmach/go.geojson"
)

// Loader fetches the FeatureCollection for a region key.
type Loader func(ctx context.Context, key string) (*geojson.FeatureCollection, error)

// Cache keeps region geometries for the lifetime of a session. Entries are never
// evicted; the set of region files is small. Concurrent Gets for the same key share
// one load, and failed loads are not cached.
type Cache struct {
	load Loader

	mu      sync.Mutex
	entries map[string]*cacheEntry
}

type cacheEntry struct {
	done chan struct{}
	fc   *geojson.FeatureCollection
	err  error
}

func NewCache(load Loader) *Cache {
	return &Cache{load: load, entries: make(map[string]*cacheEntry)}
}

// Get returns the cached collection for key, loading it on first use. The load is not
// tied to any one caller: cancelling ctx only abandons this caller's wait.
func (c *Cache) Get(ctx context.Context, key string) (*geojson.FeatureCollection, error) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		e = &cacheEntry{done: make(chan struct{})}
		c.entries[key] = e
		go c.fill(context.WithoutCancel(ctx), key, e)
	}
	c.mu.Unlock()

	select {
	case <-e.done:
		return e.fc, e.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Cache) fill(ctx context.Context, key string, e *cacheEntry) {
	e.fc, e.err = c.load(ctx, key)
	if e.err != nil {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
	}
	close(e.done)
}

// Len reports how many keys are cached or loading.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
