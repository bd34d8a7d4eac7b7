package cache

import (
	"sync"

	"github.com/Domenicogestionale/gestionale-domenico/internal/domain"
)

// ProductCache holds advisory copies of remote product records for the
// lifetime of one service instance, keyed by normalized barcode. The
// remote store stays the sole source of truth; entries here only save a
// round trip on repeat lookups and may be stale until the next write
// resyncs them. HTTP handlers and the scan consumer write concurrently,
// hence the mutex.
type ProductCache struct {
	mu       sync.RWMutex
	products map[string]domain.Product
}

func NewProductCache() *ProductCache {
	return &ProductCache{
		products: make(map[string]domain.Product),
	}
}

// Get returns a copy of the cached record for the barcode, if present.
// The code must already be normalized by the caller.
func (c *ProductCache) Get(code string) (domain.Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.products[code]
	return p, ok
}

// Put inserts or overwrites the entry for the product's barcode.
func (c *ProductCache) Put(p domain.Product) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products[domain.NormalizeBarcode(p.Barcode)] = p
}

// Replace removes the entry under oldCode and stores the product under
// its current barcode. Used when an edit changes the barcode.
func (c *ProductCache) Replace(oldCode string, p domain.Product) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.products, oldCode)
	c.products[domain.NormalizeBarcode(p.Barcode)] = p
}

func (c *ProductCache) Remove(code string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.products, code)
}

func (c *ProductCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.products)
}

// Snapshot returns copies of all cached records, in no particular order.
func (c *ProductCache) Snapshot() []domain.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.Product, 0, len(c.products))
	for _, p := range c.products {
		out = append(out, p)
	}
	return out
}
