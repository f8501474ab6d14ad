package yahoo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/etnz/valuation"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider(t *testing.T, status int, body string) *Provider {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return &Provider{BaseURL: srv.URL + "/", HTTP: srv.Client()}
}

func TestProvider_LastClose(t *testing.T) {
	p := newTestProvider(t, http.StatusOK, `{"chart":{"result":[{
		"meta":{"currency":"USD","symbol":"AAPL","regularMarketPrice":236.5,"regularMarketTime":1738357201},
		"timestamp":[1738161000,1738247400,1738333800],
		"indicators":{"quote":[{"close":[239.36,237.59,null]}]}
	}],"error":null}}`)

	price, asOf, err := p.LastClose(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.RequireFromString("237.59")), "price = %v", price)
	assert.Equal(t, time.Unix(1738247400, 0), asOf)
}

func TestProvider_LastClose_MarketPrice(t *testing.T) {
	p := newTestProvider(t, http.StatusOK, `{"chart":{"result":[{
		"meta":{"regularMarketPrice":12.25,"regularMarketTime":1738357201},
		"indicators":{"quote":[{}]}
	}],"error":null}}`)

	price, asOf, err := p.LastClose(context.Background(), "F")
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.RequireFromString("12.25")), "price = %v", price)
	assert.Equal(t, time.Unix(1738357201, 0), asOf)
}

func TestProvider_LastClose_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"delisted", http.StatusNotFound, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`, valuation.ErrSymbolNotFound},
		{"rate limited", http.StatusTooManyRequests, `Too Many Requests`, valuation.ErrRateLimited},
		{"garbage", http.StatusOK, `<html>`, valuation.ErrMalformedQuote},
		{"no price", http.StatusOK, `{"chart":{"result":[{"meta":{"currency":"USD"}}],"error":null}}`, valuation.ErrMalformedQuote},
		{"not a price", http.StatusOK, `{"chart":{"result":[{"meta":{"regularMarketPrice":"n/a"}}],"error":null}}`, valuation.ErrMalformedQuote},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProvider(t, tt.status, tt.body)
			_, _, err := p.LastClose(context.Background(), "DELIST")
			assert.ErrorIs(t, err, tt.wantErr)
			if tt.wantErr != valuation.ErrSymbolNotFound {
				assert.NotErrorIs(t, err, valuation.ErrSymbolNotFound, "would never be retried")
			}
		})
	}
}
