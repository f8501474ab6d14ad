package ledger

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
)

type quoteRow struct {
	Symbol string `csv:"Symbol"`
	Price  string `csv:"Price"`
}

// ReadQuotes reads an offline price file with Symbol and Price columns.
//
// It serves the static provider: every line must be valid, as a wrong price
// would silently value positions wrongly.
func ReadQuotes(r io.Reader) (map[string]decimal.Decimal, error) {
	var raw []quoteRow
	if err := gocsv.Unmarshal(r, &raw); err != nil && !errors.Is(err, gocsv.ErrEmptyCSVFile) {
		return nil, fmt.Errorf("cannot read quotes: %w", err)
	}
	prices := make(map[string]decimal.Decimal, len(raw))
	var errs []error
	for i, q := range raw {
		symbol := strings.ToUpper(strings.TrimSpace(q.Symbol))
		price, err := decimal.NewFromString(Number(q.Price))
		if symbol == "" || err != nil {
			errs = append(errs, fmt.Errorf("line %d: invalid quote %q,%q", i+2, q.Symbol, q.Price))
			continue
		}
		prices[symbol] = price
	}
	return prices, errors.Join(errs...)
}
