package eodhd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/etnz/valuation"
	log "github.com/sirupsen/logrus"
)

// jwget performs an HTTP GET request to the given address and unmarshals the
// JSON response body into the provided data structure. It uses the provided
// http.Client for the request.
//
// Status codes meaning the quote is unavailable are mapped to the valuation
// errors so that the fetcher can tell them from bugs.
func jwget(ctx context.Context, client *http.Client, addr string, data interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	log.Debugf("%v %v%v %v", req.Method, req.URL.Host, req.URL.Path, resp.Status)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("cannot http GET %v: %w", req.URL.Path, valuation.ErrSymbolNotFound)
	case resp.StatusCode == http.StatusTooManyRequests, resp.StatusCode == http.StatusPaymentRequired:
		return fmt.Errorf("cannot http GET %v: %w", req.URL.Path, valuation.ErrRateLimited)
	case resp.StatusCode >= 500:
		return fmt.Errorf("cannot http GET %v: %s: %w", req.URL.Path, resp.Status, valuation.ErrQuoteUnavailable)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("cannot http GET %v/%v: %v", req.URL.Host, req.URL.Path, resp.Status)
	}

	var buf bytes.Buffer
	if _, err = io.Copy(&buf, resp.Body); err != nil {
		return err
	}
	if err := json.Unmarshal(buf.Bytes(), data); err != nil {
		return fmt.Errorf("cannot decode %v: %v: %w", req.URL.Path, err, valuation.ErrMalformedQuote)
	}
	return nil
}
