package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/etnz/valuation"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const positions = `Symbol,Quantity,Cost Basis,Strike Price,Expiration Date,Option Type
AAPL,10,1000,,,
XYZ,5,500,110,2025-03-05,Call
`

type fixture struct {
	srv    *Server
	ledger string
	calls  atomic.Int32
	down   atomic.Bool
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	fx := &fixture{ledger: positions}
	now := time.Date(2025, time.February, 3, 14, 30, 0, 0, time.UTC)
	prices := map[string]decimal.Decimal{
		"AAPL": decimal.NewFromInt(120),
		"XYZ":  decimal.NewFromInt(100),
	}
	provider := valuation.QuoteProviderFunc(func(_ context.Context, symbol string) (decimal.Decimal, time.Time, error) {
		fx.calls.Add(1)
		if fx.down.Load() {
			return decimal.Decimal{}, time.Time{}, valuation.ErrRateLimited
		}
		p, ok := prices[symbol]
		if !ok {
			return decimal.Decimal{}, time.Time{}, valuation.ErrSymbolNotFound
		}
		return p, now.Add(-24 * time.Hour), nil
	})
	e := valuation.NewEngine(valuation.NewFetcher(provider, valuation.FetchConfig{Concurrency: 2, CacheTTL: time.Hour}), valuation.RankAuto)
	e.Now = func() time.Time { return now }

	fx.srv = New(Config{
		Ledger: func() ([]byte, error) { return []byte(fx.ledger), nil },
		Engine: e,
		Bucket: time.Hour,
	})
	return fx
}

func (fx *fixture) do(t *testing.T, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	fx.srv.Handler().ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

type jsonReport struct {
	RankedBy string `json:"rankedBy"`
	Rows     []struct {
		Rank    int `json:"rank"`
		Metrics struct {
			Symbol string `json:"symbol"`
		} `json:"metrics"`
	} `json:"rows"`
}

func decodeReport(t *testing.T, rec *httptest.ResponseRecorder) jsonReport {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var r jsonReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &r))
	return r
}

func (r jsonReport) symbols() []string {
	var s []string
	for _, row := range r.Rows {
		s = append(s, row.Metrics.Symbol)
	}
	return s
}

func TestServer_ReportJSON(t *testing.T) {
	fx := newFixture(t)

	r := decodeReport(t, fx.do(t, "GET", "/report.json"))
	assert.Equal(t, "total_pct_gain_at_strike", r.RankedBy)
	assert.Equal(t, []string{"XYZ", "AAPL"}, r.symbols())
	assert.Equal(t, int32(2), fx.calls.Load())

	// same ledger, same bucket: served from the cache.
	decodeReport(t, fx.do(t, "GET", "/report.json"))
	assert.Equal(t, 1, fx.srv.Cache().Len())
	assert.Equal(t, int32(2), fx.calls.Load())
}

func TestServer_Rank(t *testing.T) {
	fx := newFixture(t)

	r := decodeReport(t, fx.do(t, "GET", "/report.json?rank=gain_pct"))
	assert.Equal(t, "gain_pct", r.RankedBy)
	assert.Equal(t, []string{"AAPL", "XYZ"}, r.symbols())

	rec := fx.do(t, "GET", "/report.json?rank=bogus")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `invalid ranking key \"bogus\"`)
}

func TestServer_LedgerChange(t *testing.T) {
	fx := newFixture(t)
	decodeReport(t, fx.do(t, "GET", "/report.json"))

	fx.ledger = positions + "DELIST,3,30,,,\n"
	r := decodeReport(t, fx.do(t, "GET", "/report.json"))
	assert.Equal(t, []string{"XYZ", "AAPL", "DELIST"}, r.symbols())
	assert.Equal(t, 2, fx.srv.Cache().Len())
	// AAPL and XYZ come from the price cache.
	assert.Equal(t, int32(3), fx.calls.Load())
}

func TestServer_Refresh(t *testing.T) {
	fx := newFixture(t)
	decodeReport(t, fx.do(t, "GET", "/report.json"))

	rec := fx.do(t, "POST", "/refresh")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 0, fx.srv.Cache().Len())

	decodeReport(t, fx.do(t, "GET", "/report.json"))
	assert.Equal(t, int32(4), fx.calls.Load())
}

func TestServer_ProviderDown(t *testing.T) {
	fx := newFixture(t)
	fx.down.Store(true)
	decodeReport(t, fx.do(t, "GET", "/report.json"))
	assert.Equal(t, 0, fx.srv.Cache().Len())

	fx.down.Store(false)
	decodeReport(t, fx.do(t, "GET", "/report.json"))
	assert.Equal(t, 1, fx.srv.Cache().Len())
	assert.Equal(t, int32(4), fx.calls.Load())
}

func TestServer_ClientGone(t *testing.T) {
	fx := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec := httptest.NewRecorder()
	fx.srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/report.json", nil).WithContext(ctx))

	// the run is not tied to the request, its report is complete and kept.
	require.Equal(t, 1, fx.srv.Cache().Len())
	r := decodeReport(t, fx.do(t, "GET", "/report.json"))
	assert.Equal(t, []string{"XYZ", "AAPL"}, r.symbols())
	assert.Equal(t, int32(2), fx.calls.Load())
}

func TestServer_Markdown(t *testing.T) {
	fx := newFixture(t)
	rec := fx.do(t, "GET", "/report.md")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/markdown; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "| 1 | XYZ 110 Call 2025-03-05 |")
}

func TestServer_HTML(t *testing.T) {
	fx := newFixture(t)
	rec := fx.do(t, "GET", "/")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, "<!DOCTYPE html>"))
	assert.Contains(t, body, "<title>Position Valuation</title>")
	assert.Contains(t, body, "<table>")
}

func TestServer_InvalidLedger(t *testing.T) {
	fx := newFixture(t)
	fx.ledger = "AAPL,10,1000\n"
	rec := fx.do(t, "GET", "/report.json")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, int32(0), fx.calls.Load())
}

func TestServer_EmptyLedger(t *testing.T) {
	fx := newFixture(t)
	fx.ledger = ""
	rec := fx.do(t, "GET", "/report.json")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"rows":[]`)
}

func TestServer_Health(t *testing.T) {
	fx := newFixture(t)
	rec := fx.do(t, "GET", "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","reports":0,"quotes":0}`, rec.Body.String())
}
