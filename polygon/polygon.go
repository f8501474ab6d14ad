// Package polygon is a quote provider backed by the Polygon.io previous close aggregate.
package polygon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/etnz/valuation"
	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// Provider returns the previous session close of a ticker.
type Provider struct {
	Client *polygon.Client
}

// New returns a provider authenticated with apiKey.
func New(apiKey string) *Provider {
	return NewWithClient(apiKey, valuation.NewHTTPClient(30*time.Second))
}

// NewWithClient returns a provider sending its requests through hc.
func NewWithClient(apiKey string, hc *http.Client) *Provider {
	return &Provider{Client: polygon.NewWithClient(apiKey, hc)}
}

// LastClose returns the split adjusted close of the previous session.
func (p *Provider) LastClose(ctx context.Context, symbol string) (decimal.Decimal, time.Time, error) {
	log.Debugf("fetching polygon previous close for symbol %s", symbol)

	params := models.GetPreviousCloseAggParams{Ticker: symbol}.WithAdjusted(true)
	resp, err := p.Client.GetPreviousCloseAgg(ctx, params)
	if err != nil {
		return decimal.Decimal{}, time.Time{}, classify(symbol, err)
	}
	if len(resp.Results) == 0 {
		return decimal.Decimal{}, time.Time{}, fmt.Errorf("no previous close for %s: %w", symbol, valuation.ErrSymbolNotFound)
	}
	agg := resp.Results[len(resp.Results)-1]
	if agg.Close <= 0 {
		return decimal.Decimal{}, time.Time{}, fmt.Errorf("invalid close %v for %s: %w", agg.Close, symbol, valuation.ErrMalformedQuote)
	}
	return decimal.NewFromFloat(agg.Close), time.Time(agg.Timestamp), nil
}

// classify maps polygon API errors onto the valuation errors.
func classify(symbol string, err error) error {
	var apiErr *models.ErrorResponse
	if !errors.As(err, &apiErr) {
		return err
	}
	switch {
	case apiErr.StatusCode == http.StatusNotFound:
		return fmt.Errorf("polygon %s: %v: %w", symbol, err, valuation.ErrSymbolNotFound)
	case apiErr.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("polygon %s: %v: %w", symbol, err, valuation.ErrRateLimited)
	case apiErr.StatusCode >= 500:
		return fmt.Errorf("polygon %s: %v: %w", symbol, err, valuation.ErrQuoteUnavailable)
	}
	return fmt.Errorf("polygon %s: %w", symbol, err)
}
