package valuation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/etnz/valuation/date"
	"github.com/shopspring/decimal"
)

// tickerRegex checks for an exchange ticker: 1 to 6 uppercase letters or digits
// starting with a letter, with an optional class suffix (BRK.B, BF-B).
var tickerRegex = regexp.MustCompile(`^[A-Z][A-Z0-9]{0,5}([.-][A-Z0-9]{1,3})?$`)

// IsTicker reports whether s looks like an exchange ticker.
func IsTicker(s string) bool { return tickerRegex.MatchString(s) }

// OptionType is the right attached to an option position.
type OptionType string

const (
	Call OptionType = "Call"
	Put  OptionType = "Put"
)

// ParseOptionType accepts the usual spellings of Call and Put (C, CALL, P, PUT).
func ParseOptionType(s string) (OptionType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "C", "CALL":
		return Call, nil
	case "P", "PUT":
		return Put, nil
	}
	return "", fmt.Errorf("invalid option type %q want Call or Put", s)
}

// OptionTerms are the terms of an option position.
//
// Type and Strike always come together, Expiration is optional (zero Date).
type OptionTerms struct {
	Type       OptionType
	Strike     decimal.Decimal
	Expiration date.Date
}

// Position is one held line item of the ledger.
type Position struct {
	Symbol    string
	Quantity  decimal.Decimal // signed, shares or contracts
	CostBasis decimal.Decimal // total cost paid
	Option    *OptionTerms    // nil for plain equities
}

// IsOption reports whether the position carries option terms.
func (p Position) IsOption() bool { return p.Option != nil }

// Label is a short human readable identifier of the position.
//
// Equities are labelled by their symbol, options also show their terms, e.g. "XYZ 110 Call 2025-03-21".
func (p Position) Label() string {
	if p.Option == nil {
		return p.Symbol
	}
	label := fmt.Sprintf("%s %s %s", p.Symbol, p.Option.Strike.String(), p.Option.Type)
	if !p.Option.Expiration.IsZero() {
		label += " " + p.Option.Expiration.String()
	}
	return label
}

// LedgerRow is a raw row of the ledger as handed over by the ingestion layer.
//
// All fields are text, required ones are Symbol, Quantity and CostBasis.
type LedgerRow struct {
	Line           int
	Symbol         string
	Quantity       string
	CostBasis      string
	StrikePrice    string
	ExpirationDate string
	OptionType     string
}

// Position converts the row into a Position. Errors wrap ErrMalformedPosition.
func (r LedgerRow) Position() (Position, error) {
	var errs error
	malformed := func(format string, args ...any) {
		errs = errors.Join(errs, fmt.Errorf("%w: "+format, append([]any{ErrMalformedPosition}, args...)...))
	}

	p := Position{Symbol: strings.ToUpper(strings.TrimSpace(r.Symbol))}
	switch {
	case p.Symbol == "":
		malformed("missing symbol")
	case !IsTicker(p.Symbol):
		malformed("invalid symbol %q", p.Symbol)
	}

	var err error
	if p.Quantity, err = requiredDecimal("quantity", r.Quantity); err != nil {
		malformed("%v", err)
	}
	if p.CostBasis, err = requiredDecimal("cost basis", r.CostBasis); err != nil {
		malformed("%v", err)
	}

	strike, ot := strings.TrimSpace(r.StrikePrice), strings.TrimSpace(r.OptionType)
	switch {
	case strike == "" && ot == "":
		if strings.TrimSpace(r.ExpirationDate) != "" {
			malformed("expiration date without option terms")
		}
	case strike == "":
		malformed("option type %q without a strike price", ot)
	case ot == "":
		malformed("strike price %q without an option type", strike)
	default:
		terms := &OptionTerms{}
		if terms.Type, err = ParseOptionType(ot); err != nil {
			malformed("%v", err)
		}
		if terms.Strike, err = requiredDecimal("strike price", strike); err != nil {
			malformed("%v", err)
		}
		if exp := strings.TrimSpace(r.ExpirationDate); exp != "" {
			if terms.Expiration, err = date.Parse(exp); err != nil {
				malformed("%v", err)
			}
		}
		p.Option = terms
	}

	if errs != nil {
		return Position{}, errs
	}
	return p, nil
}

func requiredDecimal(name, s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Decimal{}, fmt.Errorf("missing %s", name)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("non numeric %s %q", name, s)
	}
	return d, nil
}

// ParsePositions converts ledger rows into positions.
//
// Malformed rows never abort the conversion, they are returned as rejected rows instead.
func ParsePositions(rows []LedgerRow) (positions []Position, rejected []RejectedRow) {
	for i, r := range rows {
		line := r.Line
		if line == 0 {
			line = i + 1
		}
		p, err := r.Position()
		if err != nil {
			rejected = append(rejected, RejectedRow{Line: line, Symbol: strings.TrimSpace(r.Symbol), Err: err})
			continue
		}
		positions = append(positions, p)
	}
	return positions, rejected
}

// UniqueSymbols returns the distinct symbols of positions in order of first appearance.
func UniqueSymbols(positions []Position) []string {
	seen := make(map[string]struct{}, len(positions))
	symbols := make([]string, 0, len(positions))
	for _, p := range positions {
		if _, ok := seen[p.Symbol]; ok {
			continue
		}
		seen[p.Symbol] = struct{}{}
		symbols = append(symbols, p.Symbol)
	}
	return symbols
}
