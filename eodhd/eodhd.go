// Package eodhd is a quote provider backed by the EOD Historical Data API.
package eodhd

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/etnz/valuation"
	"github.com/etnz/valuation/date"
	"github.com/shopspring/decimal"
)

// DefaultBaseURL is the root of the EODHD API.
const DefaultBaseURL = "https://eodhd.com/api"

// Client queries EODHD end of day prices.
type Client struct {
	APIKey string
	// Exchange is the EODHD exchange code appended to bare tickers, "US" by default.
	Exchange string
	BaseURL  string
	HTTP     *http.Client
	// Lookback is the number of calendar days requested to find the latest close.
	Lookback int
}

// New returns a client for the US exchange.
func New(apiKey string) *Client {
	return &Client{
		APIKey:   apiKey,
		Exchange: "US",
		BaseURL:  DefaultBaseURL,
		HTTP:     valuation.NewHTTPClient(30 * time.Second),
		Lookback: 10,
	}
}

// Ticker returns the EODHD ticker of a symbol, in the format "SYMBOL.EXCHANGECODE".
//
// A symbol that already names an exchange is returned as is. Class shares
// like BRK.B are written BRK-B by EODHD.
func (c *Client) Ticker(symbol string) string {
	if i := strings.LastIndex(symbol, "."); i > 0 && len(symbol)-i > 2 {
		return symbol
	}
	return strings.ReplaceAll(symbol, ".", "-") + "." + c.Exchange
}

// LastClose returns the latest daily close of symbol.
func (c *Client) LastClose(ctx context.Context, symbol string) (decimal.Decimal, time.Time, error) {
	// https://eodhd.com/api/eod/MCD.US?api_token=demo&fmt=json&from=2024-02-03
	// [
	//	{
	//		"date": "2024-02-13",
	//		"open": 675.066,
	//		"high": 684.219,
	//		"low": 648.659,
	//		"close": 668.445,
	//		"adjusted_close": 67.705,
	//		"volume": 0
	//	},
	from := date.Today().Add(-c.Lookback)
	addr := fmt.Sprintf("%s/eod/%s?fmt=json&api_token=%s&from=%s", c.BaseURL, url.PathEscape(c.Ticker(symbol)), url.QueryEscape(c.APIKey), from)

	type Info struct {
		Date  date.Date       `json:"date"`
		Close decimal.Decimal `json:"close"`
	}

	// that's the payload
	content := make([]Info, 0)
	if err := jwget(ctx, c.HTTP, addr, &content); err != nil {
		return decimal.Decimal{}, time.Time{}, err
	}
	if len(content) == 0 {
		return decimal.Decimal{}, time.Time{}, fmt.Errorf("no close for %s since %s: %w", symbol, from, valuation.ErrSymbolNotFound)
	}
	// bounds are included in the response, sorted by ascending date.
	last := content[len(content)-1]
	if !last.Close.IsPositive() {
		return decimal.Decimal{}, time.Time{}, fmt.Errorf("invalid close %s for %s: %w", last.Close, symbol, valuation.ErrMalformedQuote)
	}
	return last.Close, closeTime(last.Date), nil
}

// closeTime is the time of the closing auction of the US market on day d.
func closeTime(d date.Date) time.Time {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		ny = time.UTC
	}
	return time.Date(d.Year(), d.Month(), d.Day(), 16, 0, 0, 0, ny)
}
