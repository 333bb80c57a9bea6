package analysis

import (
	"strings"
	"sync"

	"github.com/jamelachahbar/skaelvox-vm-evolver/pkg/models/domain"
)

// regionKey normalizes a region display name into a cache key,
// "West Europe" and "westeurope" collapse to the same entry.
func regionKey(region string) string {
	return strings.ReplaceAll(strings.ToLower(region), " ", "")
}

// catalogCache memoizes the SKU list per region for one run. Entries
// are only ever inserted, never invalidated, so concurrent readers are
// safe once an entry exists.
type catalogCache struct {
	mu      sync.Mutex
	entries map[string][]*domain.SKU
}

func newCatalogCache() *catalogCache {
	return &catalogCache{entries: make(map[string][]*domain.SKU)}
}

func (c *catalogCache) get(region string) ([]*domain.SKU, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	skus, ok := c.entries[regionKey(region)]
	return skus, ok
}

func (c *catalogCache) put(region string, skus []*domain.SKU) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[regionKey(region)] = skus
}

// priceCache memoizes hourly prices per (SKU, region, OS). Failed
// lookups are not cached; they are retried lazily on the next request.
type priceCache struct {
	mu      sync.Mutex
	entries map[string]float64
}

func newPriceCache() *priceCache {
	return &priceCache{entries: make(map[string]float64)}
}

func priceKey(sku, region, osType string) string {
	return sku + ":" + regionKey(region) + ":" + strings.ToLower(osType)
}

func (c *priceCache) get(sku, region, osType string) (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.entries[priceKey(sku, region, osType)]
	return p, ok
}

func (c *priceCache) put(sku, region, osType string, price float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[priceKey(sku, region, osType)] = price
}
