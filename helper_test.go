package valuation

import (
	"context"
	"sync"
	"time"

	"github.com/etnz/valuation/date"
	"github.com/shopspring/decimal"
)

// D is a helper for test to create a decimal from a literal.
func D(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// stock is a helper for test to create an equity position.
func stock(symbol string, qty, cost string) Position {
	return Position{Symbol: symbol, Quantity: D(qty), CostBasis: D(cost)}
}

// option is a helper for test to create an option position.
func option(symbol string, qty, cost string, t OptionType, strike string, exp date.Date) Position {
	p := stock(symbol, qty, cost)
	p.Option = &OptionTerms{Type: t, Strike: D(strike), Expiration: exp}
	return p
}

var runDate = date.New(2025, time.February, 3)

var asOf = time.Date(2025, time.January, 31, 21, 0, 0, 0, time.UTC)

// quote is a helper for test to create a resolved quote.
func quote(symbol, price string) Quote { return NewQuote(symbol, D(price), asOf) }

// fakeProvider is a scriptable QuoteProvider counting calls per symbol.
type fakeProvider struct {
	mu     sync.Mutex
	prices map[string]string
	errs   map[string][]error // consumed in order, then prices apply
	calls  map[string]int
	delay  time.Duration
}

func newFakeProvider(prices map[string]string) *fakeProvider {
	return &fakeProvider{prices: prices, errs: map[string][]error{}, calls: map[string]int{}}
}

func (f *fakeProvider) LastClose(ctx context.Context, symbol string) (decimal.Decimal, time.Time, error) {
	f.mu.Lock()
	f.calls[symbol]++
	var err error
	if errs := f.errs[symbol]; len(errs) > 0 {
		err, f.errs[symbol] = errs[0], errs[1:]
	}
	price, ok := f.prices[symbol]
	delay := f.delay
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return decimal.Decimal{}, time.Time{}, ctx.Err()
		}
	}
	if err != nil {
		return decimal.Decimal{}, time.Time{}, err
	}
	if !ok {
		return decimal.Decimal{}, time.Time{}, ErrSymbolNotFound
	}
	return D(price), asOf, nil
}

func (f *fakeProvider) Calls(symbol string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[symbol]
}

// quickConfig fetches without waiting between retries.
func quickConfig() FetchConfig {
	return FetchConfig{Concurrency: 4, Timeout: time.Second, Retries: 2, Backoff: time.Millisecond}
}
