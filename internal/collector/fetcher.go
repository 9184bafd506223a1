package collector

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"TechPulse/internal/model"
)

// Fetcher defines the interface for fetching a ticker's latest quote.
type Fetcher interface {
	FetchQuote(ctx context.Context, symbol string) (*model.Quote, error)
	Name() string
}

// newHTTPClient builds a client with a 30s timeout and optional proxy support.
func newHTTPClient(proxyURL string) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{
		Timeout:   30 * time.Second,
		Transport: transport,
	}
}

// redactURL replaces the request URL carried by a transport error with shown,
// so query-string credentials never reach error messages.
func redactURL(err error, shown string) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		ue.URL = shown
	}
	return err
}
