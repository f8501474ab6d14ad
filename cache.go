package valuation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/patrickmn/go-cache"
	log "github.com/sirupsen/logrus"
)

// ReportCache keeps reports keyed by the content of the ledger they were computed from.
//
// An entry is only valid inside the time bucket it was computed in: the key
// is the SHA-256 of the ledger bytes plus the start of the bucket. Changing
// the ledger, or entering the next bucket, misses the cache. Entries can also
// be dropped explicitly with Invalidate and Flush.
type ReportCache struct {
	bucket time.Duration
	store  *cache.Cache
	now    func() time.Time
}

// NewReportCache returns a cache for buckets of the given duration.
func NewReportCache(bucket time.Duration) *ReportCache {
	if bucket <= 0 {
		bucket = time.Minute
	}
	return &ReportCache{
		bucket: bucket,
		store:  cache.New(bucket, bucket),
		now:    time.Now,
	}
}

// LedgerHash returns the content hash of a ledger.
func LedgerHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// Key returns the cache key of the ledger content at time t.
func (c *ReportCache) Key(content []byte, t time.Time) string {
	return LedgerHash(content) + "@" + t.Truncate(c.bucket).UTC().Format(time.RFC3339)
}

// GetOrCompute returns the report for content in the current bucket, computing it with compute on a miss.
//
// A report computed while ctx was done, or holding transient quote faults,
// is returned but not stored: the next call computes it again.
func (c *ReportCache) GetOrCompute(ctx context.Context, content []byte, compute func(context.Context) *Report) *Report {
	key := c.Key(content, c.now())
	if v, ok := c.store.Get(key); ok {
		log.WithField("key", key).Debug("report served from cache")
		return v.(*Report)
	}
	r := compute(ctx)
	if err := ctx.Err(); err != nil || r.Transient() {
		log.WithFields(log.Fields{"key": key, "ctx": err}).Debug("report not cached")
		return r
	}
	c.store.Set(key, r, cache.DefaultExpiration)
	return r
}

// Invalidate drops every entry computed from content.
func (c *ReportCache) Invalidate(content []byte) {
	hash := LedgerHash(content)
	for key := range c.store.Items() {
		if len(key) > len(hash) && key[:len(hash)] == hash {
			c.store.Delete(key)
		}
	}
}

// Flush drops all entries.
func (c *ReportCache) Flush() { c.store.Flush() }

// Len returns the number of live entries.
func (c *ReportCache) Len() int { return len(c.store.Items()) }
