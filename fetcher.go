package valuation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// FetchConfig is the fixed configuration of a Fetcher.
type FetchConfig struct {
	// Concurrency is the maximum number of symbols fetched at the same time.
	Concurrency int `yaml:"concurrency"`
	// Timeout bounds a single attempt to fetch a symbol. Zero means no limit.
	Timeout time.Duration `yaml:"timeout"`
	// Retries is the number of additional attempts after a failed one.
	Retries int `yaml:"retries"`
	// Backoff is the constant delay between two attempts.
	Backoff time.Duration `yaml:"backoff"`
	// CacheTTL is the lifetime of a resolved price in the cache. Zero disables the cache.
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// DefaultFetchConfig returns the configuration used when none is given.
func DefaultFetchConfig() FetchConfig {
	return FetchConfig{
		Concurrency: 8,
		Timeout:     10 * time.Second,
		Retries:     2,
		Backoff:     500 * time.Millisecond,
	}
}

// Fetcher resolves the latest closing price of symbols with per-symbol fault isolation.
type Fetcher struct {
	provider QuoteProvider
	cfg      FetchConfig
	cache    *PriceCache
	now      func() time.Time
}

// NewFetcher returns a Fetcher querying p.
func NewFetcher(p QuoteProvider, cfg FetchConfig) *Fetcher {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	return &Fetcher{
		provider: p,
		cfg:      cfg,
		cache:    NewPriceCache(cfg.CacheTTL),
		now:      time.Now,
	}
}

// Config returns the effective configuration.
func (f *Fetcher) Config() FetchConfig { return f.cfg }

// Cache returns the price cache, nil when caching is disabled.
func (f *Fetcher) Cache() *PriceCache { return f.cache }

// Fetch returns a quote for every distinct symbol.
//
// A failure for one symbol never affects another one: it is recorded as a
// missing quote. Fetch never returns an error, ctx only bounds the time spent.
func (f *Fetcher) Fetch(ctx context.Context, symbols []string) Quotes {
	symbols = NormalizeSymbols(symbols)
	start := time.Now()

	// Each worker owns exactly one slot, merged after Wait.
	results := make([]Quote, len(symbols))
	var g errgroup.Group
	g.SetLimit(f.cfg.Concurrency)
	for i, symbol := range symbols {
		g.Go(func() error {
			results[i] = f.fetchOne(ctx, symbol)
			return nil
		})
	}
	_ = g.Wait()

	quotes := make(Quotes, len(results))
	var missing int
	for _, q := range results {
		quotes[q.Symbol()] = q
		fault, ok := q.Fault()
		if !ok {
			continue
		}
		missing++
		if fault.Unexpected() {
			log.WithField("symbol", fault.Symbol).Errorf("unexpected quote provider fault: %v", fault.Err)
		} else {
			log.WithField("symbol", fault.Symbol).Warnf("quote unavailable: %v", fault.Err)
		}
	}
	log.WithFields(log.Fields{
		"symbols":  len(symbols),
		"missing":  missing,
		"duration": time.Since(start),
	}).Info("prices fetched")
	return quotes
}

// fetchOne resolves a single symbol, consulting the cache first.
func (f *Fetcher) fetchOne(ctx context.Context, symbol string) (q Quote) {
	if cached, ok := f.cache.Get(symbol); ok {
		log.WithField("symbol", symbol).Debug("price served from cache")
		return cached
	}

	defer func() {
		if r := recover(); r != nil {
			q = MissingQuote(symbol, f.now(), fmt.Errorf("provider panic: %v", r))
		}
	}()

	var (
		price    decimal.Decimal
		asOf     time.Time
		attempts int
	)
	attempt := func() error {
		attempts++
		actx, cancel := ctx, context.CancelFunc(func() {})
		if f.cfg.Timeout > 0 {
			actx, cancel = context.WithTimeout(ctx, f.cfg.Timeout)
		}
		defer cancel()

		p, t, err := f.provider.LastClose(actx, symbol)
		if err != nil {
			if errors.Is(err, ErrSymbolNotFound) {
				return backoff.Permanent(err)
			}
			return err
		}
		price, asOf = p, t
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(f.cfg.Backoff), uint64(f.cfg.Retries)),
		ctx,
	)
	if err := backoff.Retry(attempt, policy); err != nil {
		if attempts > 1 {
			err = fmt.Errorf("after %d attempts: %w", attempts, err)
		}
		return MissingQuote(symbol, f.now(), err)
	}
	if asOf.IsZero() {
		asOf = f.now()
	}
	q = NewQuote(symbol, price, asOf)
	f.cache.Put(q)
	return q
}
