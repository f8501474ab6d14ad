package valuation

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// QuoteProvider is the capability to return the latest closing price of a symbol.
//
// Providers are treated as unreliable: they may rate-limit, time out, or
// return no data. Expected failures should wrap ErrQuoteUnavailable or one of
// its refinements.
type QuoteProvider interface {
	LastClose(ctx context.Context, symbol string) (price decimal.Decimal, asOf time.Time, err error)
}

// QuoteProviderFunc adapts a function to the QuoteProvider interface.
type QuoteProviderFunc func(ctx context.Context, symbol string) (decimal.Decimal, time.Time, error)

func (f QuoteProviderFunc) LastClose(ctx context.Context, symbol string) (decimal.Decimal, time.Time, error) {
	return f(ctx, symbol)
}

// StaticProvider serves prices from memory. Unknown symbols are ErrSymbolNotFound.
type StaticProvider struct {
	Prices map[string]decimal.Decimal
	AsOf   time.Time
}

func (s StaticProvider) LastClose(_ context.Context, symbol string) (decimal.Decimal, time.Time, error) {
	p, ok := s.Prices[symbol]
	if !ok {
		return decimal.Decimal{}, time.Time{}, ErrSymbolNotFound
	}
	return p, s.AsOf, nil
}

// Quote is a resolved or failed price lookup for a symbol at a point in time.
//
// A Quote is immutable.
type Quote struct {
	symbol string
	price  Value
	asOf   time.Time
	err    error
}

// NewQuote returns a resolved quote.
func NewQuote(symbol string, price decimal.Decimal, asOf time.Time) Quote {
	return Quote{symbol: symbol, price: V(price), asOf: asOf}
}

// MissingQuote returns a quote that could not be resolved because of err.
func MissingQuote(symbol string, asOf time.Time, err error) Quote {
	if err == nil {
		err = ErrQuoteUnavailable
	}
	return Quote{symbol: symbol, price: Missing, asOf: asOf, err: &QuoteFault{Symbol: symbol, Err: err}}
}

func (q Quote) Symbol() string  { return q.symbol }
func (q Quote) Price() Value    { return q.price }
func (q Quote) AsOf() time.Time { return q.asOf }
func (q Quote) IsMissing() bool { return q.price.IsMissing() }

// Err returns the *QuoteFault of a missing quote, nil otherwise.
func (q Quote) Err() error { return q.err }

// Fault returns the typed fault of a missing quote.
func (q Quote) Fault() (*QuoteFault, bool) {
	var f *QuoteFault
	ok := errors.As(q.err, &f)
	return f, ok
}

// Quotes maps symbols to their quote.
type Quotes map[string]Quote

// Get returns the quote for symbol, a missing quote if the symbol was never fetched.
func (qs Quotes) Get(symbol string) Quote {
	if q, ok := qs[symbol]; ok {
		return q
	}
	return MissingQuote(symbol, time.Time{}, ErrQuoteUnavailable)
}

// Faults returns the faults of all missing quotes, sorted by symbol.
func (qs Quotes) Faults() []*QuoteFault {
	var faults []*QuoteFault
	for _, q := range qs {
		if f, ok := q.Fault(); ok {
			faults = append(faults, f)
		}
	}
	sort.Slice(faults, func(i, j int) bool { return faults[i].Symbol < faults[j].Symbol })
	return faults
}

// NormalizeSymbols trims, upper-cases and de-duplicates symbols, keeping the first appearance order.
func NormalizeSymbols(symbols []string) []string {
	seen := make(map[string]struct{}, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
