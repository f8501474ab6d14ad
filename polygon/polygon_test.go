package polygon

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/etnz/valuation"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// redirect sends every request to the test server.
type redirect struct {
	target *url.URL
}

func (r redirect) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.URL.Scheme = r.target.Scheme
	req.URL.Host = r.target.Host
	return http.DefaultTransport.RoundTrip(req)
}

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	target, err := url.Parse(srv.URL)
	require.NoError(t, err)
	return NewWithClient("test-key", &http.Client{Transport: redirect{target}})
}

func TestProvider_LastClose(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/aggs/ticker/AAPL/prev", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"ticker": "AAPL",
			"queryCount": 1,
			"resultsCount": 1,
			"adjusted": true,
			"results": [{"T": "AAPL", "v": 101075100, "vw": 236.5, "o": 247.19, "c": 236, "h": 247.19, "l": 233.44, "t": 1738357200000, "n": 1}],
			"status": "OK",
			"request_id": "6a7e466379af0a71039d60cc78e72282"
		}`))
	})

	price, asOf, err := p.LastClose(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.NewFromInt(236)), "price = %v", price)
	assert.Equal(t, time.UnixMilli(1738357200000).UTC(), asOf.UTC())
}

func TestProvider_LastClose_NoResults(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ticker": "DELIST", "queryCount": 0, "resultsCount": 0, "adjusted": true, "status": "OK", "request_id": "x"}`))
	})

	_, _, err := p.LastClose(context.Background(), "DELIST")
	assert.ErrorIs(t, err, valuation.ErrSymbolNotFound)
}
