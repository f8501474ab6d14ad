// Package ledger reads brokerage position exports into ledger rows.
//
// A ledger is a CSV file with at least the Symbol, Quantity and Cost Basis
// columns, and optionally Strike Price, Expiration Date and Option Type.
// Brokerage exports are accepted as they are: preamble lines before the
// header are skipped, summary rows are dropped, amounts may carry currency
// signs and thousand separators, and option symbols in the
// "AAPL 01/17/2025 150.00 C" form are split into their terms.
package ledger

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/etnz/valuation"
	"github.com/gocarina/gocsv"
)

// ErrNoHeader is returned when no line of the file looks like a ledger header.
var ErrNoHeader = errors.New("no ledger header with Symbol, Quantity and Cost Basis columns")

// row is the CSV shape of a ledger line.
type row struct {
	Symbol         string `csv:"Symbol"`
	Quantity       string `csv:"Quantity"`
	CostBasis      string `csv:"Cost Basis"`
	StrikePrice    string `csv:"Strike Price"`
	ExpirationDate string `csv:"Expiration Date"`
	OptionType     string `csv:"Option Type"`
}

// aliases maps column names found in brokerage exports to the ledger ones.
var aliases = map[string]string{
	"symbol":           "Symbol",
	"ticker":           "Symbol",
	"quantity":         "Quantity",
	"qty":              "Quantity",
	"qty (quantity)":   "Quantity",
	"shares":           "Quantity",
	"cost basis":       "Cost Basis",
	"cost basis total": "Cost Basis",
	"total cost":       "Cost Basis",
	"strike price":     "Strike Price",
	"strike":           "Strike Price",
	"expiration date":  "Expiration Date",
	"expiration":       "Expiration Date",
	"expiry":           "Expiration Date",
	"option type":      "Option Type",
	"put/call":         "Option Type",
	"call/put":         "Option Type",
}

// Parse reads ledger rows from the content of a CSV file.
//
// Rows are numbered after their line in the file. Summary and cash rows are
// dropped, every other row is returned, even malformed, so that the engine
// can report it. A blank file is an empty ledger.
func Parse(content []byte) ([]valuation.LedgerRow, error) {
	if len(bytes.TrimSpace(content)) == 0 {
		return []valuation.LedgerRow{}, nil
	}
	lines := splitLines(content)
	header := -1
	for i, line := range lines {
		if isHeader(line) {
			header = i
			break
		}
	}
	if header < 0 {
		return nil, ErrNoHeader
	}

	r := csv.NewReader(bytes.NewReader(bytes.Join(lines[header:], []byte("\n"))))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	var raw []row
	if err := gocsv.UnmarshalCSV(&headerReader{Reader: r}, &raw); err != nil && !errors.Is(err, gocsv.ErrEmptyCSVFile) {
		return nil, fmt.Errorf("cannot read ledger: %w", err)
	}

	rows := make([]valuation.LedgerRow, 0, len(raw))
	for i, x := range raw {
		if skip(x) {
			continue
		}
		lr := valuation.LedgerRow{
			Line:           header + i + 2,
			Symbol:         strings.TrimSpace(x.Symbol),
			Quantity:       Number(x.Quantity),
			CostBasis:      Number(x.CostBasis),
			StrikePrice:    Number(x.StrikePrice),
			ExpirationDate: strings.TrimSpace(x.ExpirationDate),
			OptionType:     strings.TrimSpace(x.OptionType),
		}
		if lr.StrikePrice == "" && lr.OptionType == "" {
			splitOptionSymbol(&lr)
		}
		rows = append(rows, lr)
	}
	return rows, nil
}

// Read reads all of r and parses it as a ledger.
func Read(r io.Reader) ([]valuation.LedgerRow, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Parse(content)
}

// splitLines splits content in lines, dropping a byte order mark.
func splitLines(content []byte) [][]byte {
	content = bytes.TrimPrefix(content, []byte("\xef\xbb\xbf"))
	content = bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))
	return bytes.Split(content, []byte("\n"))
}

// isHeader reports whether line names the mandatory columns.
func isHeader(line []byte) bool {
	fields, err := csv.NewReader(bytes.NewReader(line)).Read()
	if err != nil {
		return false
	}
	found := map[string]bool{}
	for _, f := range fields {
		found[canonical(f)] = true
	}
	return found["Symbol"] && found["Quantity"] && found["Cost Basis"]
}

// canonical returns the ledger name of a column, or the trimmed name itself.
func canonical(name string) string {
	name = strings.TrimSpace(name)
	if c, ok := aliases[strings.ToLower(name)]; ok {
		return c
	}
	return name
}

// headerReader renames the columns of the first record to their ledger names.
type headerReader struct {
	*csv.Reader
	done bool
}

func (h *headerReader) Read() ([]string, error) {
	rec, err := h.Reader.Read()
	if err != nil || h.done {
		return rec, err
	}
	h.done = true
	for i, f := range rec {
		rec[i] = canonical(f)
	}
	return rec, nil
}

func (h *headerReader) ReadAll() ([][]string, error) {
	var all [][]string
	for {
		rec, err := h.Read()
		if err == io.EOF {
			return all, nil
		}
		if err != nil {
			return all, err
		}
		all = append(all, rec)
	}
}

// summaries are the symbols of brokerage rows that are not positions.
var summaries = map[string]bool{
	"cash & cash investments":   true,
	"cash and cash investments": true,
	"account total":             true,
	"pending activity":          true,
	"total":                     true,
	"cash":                      true,
}

// skip reports whether x is a blank, summary or money market row.
func skip(x row) bool {
	symbol := strings.TrimSpace(x.Symbol)
	if symbol == "" {
		return strings.TrimSpace(x.Quantity) == "" && strings.TrimSpace(x.CostBasis) == ""
	}
	if summaries[strings.ToLower(symbol)] {
		return true
	}
	// money market sweeps, e.g. SPAXX**
	return strings.HasSuffix(symbol, "**")
}

// optionSymbol matches brokerage option symbols like "AAPL 01/17/2025 150.00 C".
var optionSymbol = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9.\-]*)\s+(\d{1,2}/\d{1,2}/\d{4})\s+(\d+(?:\.\d+)?)\s+([CcPp])$`)

// splitOptionSymbol moves option terms encoded in the symbol to their fields.
func splitOptionSymbol(lr *valuation.LedgerRow) {
	m := optionSymbol.FindStringSubmatch(lr.Symbol)
	if m == nil {
		return
	}
	lr.Symbol = m[1]
	lr.ExpirationDate = m[2]
	lr.StrikePrice = m[3]
	lr.OptionType = m[4]
}

// Number normalizes a brokerage amount to a plain decimal string.
//
// Currency signs, thousand separators and percent signs are removed,
// parentheses denote a negative amount, and placeholders like "--" or "N/A"
// become the empty string. Anything else is returned trimmed, to be rejected
// later.
func Number(s string) string {
	s = strings.TrimSpace(s)
	switch strings.ToUpper(s) {
	case "", "-", "--", "N/A", "NA":
		return ""
	}
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	s = strings.NewReplacer("$", "", ",", "", "%", "", " ", "").Replace(s)
	if negative {
		s = "-" + strings.TrimPrefix(s, "-")
	}
	return s
}
