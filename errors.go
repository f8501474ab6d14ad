package valuation

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrQuoteUnavailable is the base error for a symbol whose price could not be resolved.
	ErrQuoteUnavailable = errors.New("quote unavailable")

	// ErrSymbolNotFound is returned by providers for unknown or delisted symbols. It is never retried.
	ErrSymbolNotFound = fmt.Errorf("%w: symbol not found", ErrQuoteUnavailable)

	// ErrRateLimited is returned by providers when the remote service throttles requests.
	ErrRateLimited = fmt.Errorf("%w: rate limited", ErrQuoteUnavailable)

	// ErrMalformedQuote is returned by providers when the response cannot be read as a price.
	ErrMalformedQuote = fmt.Errorf("%w: malformed response", ErrQuoteUnavailable)

	// ErrUndefinedRatio marks a division by a zero cost or denominator.
	ErrUndefinedRatio = errors.New("undefined ratio")

	// ErrMalformedPosition marks a ledger row missing a required field or holding a non numeric one.
	ErrMalformedPosition = errors.New("malformed position")

	// ErrEmptyLedger is reported (never returned) when a run has no positions.
	ErrEmptyLedger = errors.New("empty ledger")
)

// QuoteFault records why the price of a symbol could not be resolved.
type QuoteFault struct {
	Symbol string
	Err    error
}

func (f *QuoteFault) Error() string { return fmt.Sprintf("quote %s: %v", f.Symbol, f.Err) }
func (f *QuoteFault) Unwrap() error { return f.Err }

// Unavailable reports whether the fault is an expected provider failure
// (not found, rate limit, malformed response, timeout or cancellation).
func (f *QuoteFault) Unavailable() bool {
	return errors.Is(f.Err, ErrQuoteUnavailable) ||
		errors.Is(f.Err, context.DeadlineExceeded) ||
		errors.Is(f.Err, context.Canceled)
}

// Unexpected reports whether the fault is anything else, typically a bug or
// a misconfiguration that deserves to be reported louder.
func (f *QuoteFault) Unexpected() bool { return !f.Unavailable() }

func (f *QuoteFault) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("symbol", f.Symbol)
	w.Reason("reason", f.Err)
	w.Optional("unexpected", f.Unexpected())
	return w.MarshalJSON()
}

// RejectedRow is a ledger row excluded from the computation.
type RejectedRow struct {
	Line   int    `json:"line"`
	Symbol string `json:"symbol"`
	Err    error  `json:"-"`
}

func (r RejectedRow) Error() string {
	if r.Symbol == "" {
		return fmt.Sprintf("line %d: %v", r.Line, r.Err)
	}
	return fmt.Sprintf("line %d (%s): %v", r.Line, r.Symbol, r.Err)
}

func (r RejectedRow) Unwrap() error { return r.Err }

// MarshalJSON includes the rejection reason as a string.
func (r RejectedRow) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("line", r.Line)
	w.Optional("symbol", r.Symbol)
	w.Reason("reason", r.Err)
	return w.MarshalJSON()
}
