package pricing

import (
	"sync"

	"github.com/mamadbah2/fusioncalc/internal/domain/models"
)

// DefaultBundleSize is the bundle size assumed before the market reports one.
const DefaultBundleSize = 10

// Cache holds the latest quote per material. Updates merge per key and never
// drop keys missing from the update.
type Cache struct {
	mu     sync.RWMutex
	quotes models.PriceSnapshot
}

// NewCache returns a cache seeded with zero prices and the default bundle size
// for every known material.
func NewCache() *Cache {
	quotes := make(models.PriceSnapshot, len(models.AllMaterialKeys))
	for _, key := range models.AllMaterialKeys {
		quotes[key] = models.Quote{UnitPrice: 0, BundleSize: DefaultBundleSize}
	}
	return &Cache{quotes: quotes}
}

// NewCacheFrom returns a cache holding a copy of snapshot.
func NewCacheFrom(snapshot models.PriceSnapshot) *Cache {
	c := NewCache()
	c.Update(snapshot)
	return c
}

// Update merges the given quotes into the cache.
func (c *Cache) Update(partial models.PriceSnapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, quote := range partial {
		c.quotes[key] = quote
	}
}

// Get returns the quote for key or {0, 1} when the key was never set.
func (c *Cache) Get(key models.MaterialKey) models.Quote {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.quotes.Get(key)
}

// Snapshot returns a consistent copy of all quotes.
func (c *Cache) Snapshot() models.PriceSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.quotes.Clone()
}
