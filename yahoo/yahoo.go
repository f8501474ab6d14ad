// Package yahoo is a quote provider reading the Yahoo Finance chart endpoint.
//
// The endpoint is unofficial and its payload changes often, fields are read
// with JSONPath expressions rather than a fixed structure.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/etnz/valuation"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// DefaultBaseURL is the root of the chart endpoint.
const DefaultBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart/"

// Provider returns the latest daily close from the chart endpoint.
type Provider struct {
	BaseURL string
	HTTP    *http.Client
}

// New returns a provider using the public endpoint.
func New() *Provider {
	return &Provider{BaseURL: DefaultBaseURL, HTTP: valuation.NewHTTPClient(30 * time.Second)}
}

/*
	{
	    "chart": {
	        "result": [
	            {
	                "meta": {"currency": "USD", "symbol": "AAPL", "regularMarketPrice": 236.0, "regularMarketTime": 1738357201},
	                "timestamp": [1737988200, 1738074600, 1738161000, 1738247400, 1738333800],
	                "indicators": {"quote": [{"close": [229.86, 238.26, 239.36, 237.59, 236.0]}]}
	            }
	        ],
	        "error": null
	    }
	}
*/

// LastClose returns the last non null daily close of symbol.
func (p *Provider) LastClose(ctx context.Context, symbol string) (decimal.Decimal, time.Time, error) {
	addr := p.BaseURL + url.PathEscape(strings.ReplaceAll(symbol, ".", "-")) + "?range=5d&interval=1d"
	jobj, err := p.get(ctx, addr)
	if err != nil {
		return decimal.Decimal{}, time.Time{}, fmt.Errorf("error retrieving %q: %w", symbol, err)
	}

	if desc, err := jsonpath.Get("$.chart.error.description", jobj); err == nil && desc != nil {
		return decimal.Decimal{}, time.Time{}, fmt.Errorf("%s: %v: %w", symbol, desc, valuation.ErrSymbolNotFound)
	}

	closes, _ := jsonpath.Get("$.chart.result[0].indicators.quote[0].close", jobj)
	stamps, _ := jsonpath.Get("$.chart.result[0].timestamp", jobj)
	if price, asOf, ok := lastClose(closes, stamps); ok {
		return price, asOf, nil
	}

	// no daily bar yet, fall back on the market price.
	price, err := jsonpath.Get("$.chart.result[0].meta.regularMarketPrice", jobj)
	if err != nil {
		return decimal.Decimal{}, time.Time{}, fmt.Errorf("error parsing %q: %v: %w", symbol, err, valuation.ErrMalformedQuote)
	}
	val, ok := price.(float64)
	if !ok || val <= 0 {
		return decimal.Decimal{}, time.Time{}, fmt.Errorf("error parsing %q: not a price %v: %w", symbol, price, valuation.ErrMalformedQuote)
	}
	var asOf time.Time
	if t, err := jsonpath.Get("$.chart.result[0].meta.regularMarketTime", jobj); err == nil {
		if sec, ok := t.(float64); ok {
			asOf = time.Unix(int64(sec), 0)
		}
	}
	return decimal.NewFromFloat(val), asOf, nil
}

// lastClose returns the last close that is not null, and its timestamp.
func lastClose(closes, stamps any) (decimal.Decimal, time.Time, bool) {
	c, ok := closes.([]any)
	if !ok {
		return decimal.Decimal{}, time.Time{}, false
	}
	s, _ := stamps.([]any)
	for i := len(c) - 1; i >= 0; i-- {
		val, ok := c[i].(float64)
		if !ok || val <= 0 {
			continue
		}
		var asOf time.Time
		if i < len(s) {
			if sec, ok := s[i].(float64); ok {
				asOf = time.Unix(int64(sec), 0)
			}
		}
		return decimal.NewFromFloat(val), asOf, true
	}
	return decimal.Decimal{}, time.Time{}, false
}

// get fetches addr and decodes it as generic JSON.
func (p *Provider) get(ctx context.Context, addr string) (any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return nil, err
	}
	// the endpoint rejects requests without a browser like agent.
	req.Header.Set("User-Agent", "Mozilla/5.0")
	resp, err := p.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	log.Debugf("%v %v%v %v", req.Method, req.URL.Host, req.URL.Path, resp.Status)

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, valuation.ErrRateLimited
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%s: %w", resp.Status, valuation.ErrQuoteUnavailable)
	case resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNotFound:
		return nil, fmt.Errorf("cannot http GET %v/%v: %v", req.URL.Host, req.URL.Path, resp.Status)
	}

	var jobj any
	if err := json.NewDecoder(resp.Body).Decode(&jobj); err != nil {
		return nil, fmt.Errorf("%v: %w", err, valuation.ErrMalformedQuote)
	}
	return jobj, nil
}
