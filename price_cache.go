package valuation

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// PriceCache keeps resolved quotes for a bounded time.
//
// Only resolved quotes are stored: a symbol that failed is fetched again on
// the next run. Entries expire after the TTL, and can be dropped explicitly
// with Invalidate or Flush.
type PriceCache struct {
	ttl   time.Duration
	store *cache.Cache
}

// NewPriceCache returns a cache whose entries live for ttl. A nil cache is returned for ttl <= 0.
func NewPriceCache(ttl time.Duration) *PriceCache {
	if ttl <= 0 {
		return nil
	}
	return &PriceCache{ttl: ttl, store: cache.New(ttl, 2*ttl)}
}

// TTL returns the lifetime of an entry.
func (c *PriceCache) TTL() time.Duration {
	if c == nil {
		return 0
	}
	return c.ttl
}

// Get returns the cached quote for symbol.
func (c *PriceCache) Get(symbol string) (Quote, bool) {
	if c == nil {
		return Quote{}, false
	}
	v, ok := c.store.Get(symbol)
	if !ok {
		return Quote{}, false
	}
	return v.(Quote), true
}

// Put stores q if it is resolved. Missing quotes are ignored.
func (c *PriceCache) Put(q Quote) {
	if c == nil || q.IsMissing() {
		return
	}
	c.store.Set(q.Symbol(), q, cache.DefaultExpiration)
}

// Invalidate drops the entry of symbol.
func (c *PriceCache) Invalidate(symbol string) {
	if c == nil {
		return
	}
	c.store.Delete(symbol)
}

// Flush drops all entries.
func (c *PriceCache) Flush() {
	if c == nil {
		return
	}
	c.store.Flush()
}

// Len returns the number of entries, including expired ones not yet cleaned up.
func (c *PriceCache) Len() int {
	if c == nil {
		return 0
	}
	return c.store.ItemCount()
}
