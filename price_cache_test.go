package valuation

import (
	"testing"
	"time"
)

func TestPriceCache(t *testing.T) {
	c := NewPriceCache(time.Hour)
	c.Put(quote("AAPL", "120"))
	c.Put(MissingQuote("DELIST", asOf, ErrSymbolNotFound))

	if got, want := c.Len(), 1; got != want {
		t.Errorf("Len() = %d, want %d", got, want)
	}
	if _, ok := c.Get("DELIST"); ok {
		t.Errorf("Get(DELIST) found a missing quote")
	}
	q, ok := c.Get("AAPL")
	if !ok {
		t.Fatalf("Get(AAPL) not found")
	}
	if got, want := q.Price(), V(120); !got.Equal(want) {
		t.Errorf("Get(AAPL) = %v, want %v", got, want)
	}

	c.Flush()
	if got := c.Len(); got != 0 {
		t.Errorf("Len() after Flush = %d, want 0", got)
	}
}

func TestPriceCache_Disabled(t *testing.T) {
	c := NewPriceCache(0)
	if c != nil {
		t.Fatalf("NewPriceCache(0) = %v, want nil", c)
	}
	c.Put(quote("AAPL", "120"))
	if _, ok := c.Get("AAPL"); ok {
		t.Errorf("a disabled cache should never hit")
	}
	if got := c.TTL(); got != 0 {
		t.Errorf("TTL() = %v, want 0", got)
	}
}
