package valuation

import (
	"net/http"
	"net/url"
	"time"

	log "github.com/sirupsen/logrus"
)

// secretParams are query parameters redacted from logged URLs.
var secretParams = []string{"api_token", "apiKey", "apikey", "token"}

// LoggingTransport logs every request sent to a quote provider, with its status and duration.
type LoggingTransport struct {
	Base http.RoundTripper
}

func (t *LoggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	start := time.Now()
	resp, err := base.RoundTrip(req)
	entry := log.WithFields(log.Fields{
		"method":   req.Method,
		"url":      RedactURL(req.URL),
		"duration": time.Since(start),
	})
	if err != nil {
		entry.Debugf("request failed: %v", err)
		return nil, err
	}
	entry.WithField("status", resp.StatusCode).Debug("provider request")
	return resp, nil
}

// RedactURL returns u as a string, with its secret query parameters masked.
func RedactURL(u *url.URL) string {
	q := u.Query()
	redacted := false
	for _, p := range secretParams {
		if q.Has(p) {
			q.Set(p, "xxx")
			redacted = true
		}
	}
	if !redacted {
		return u.String()
	}
	c := *u
	c.RawQuery = q.Encode()
	return c.String()
}

// NewHTTPClient returns the client quote providers use by default.
//
// Per request deadlines come from the context, timeout only bounds a request
// made without one.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: &LoggingTransport{Base: http.DefaultTransport},
	}
}
