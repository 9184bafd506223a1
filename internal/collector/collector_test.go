package collector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"TechPulse/internal/calculator"
	"TechPulse/internal/model"

	"github.com/shopspring/decimal"
)

func TestFinnhubFetcher_FetchQuote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/quote" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("symbol") != "AAPL" || r.URL.Query().Get("token") != "secret" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		fmt.Fprint(w, `{"c":150.25,"o":148,"h":151.1,"l":147.9,"v":51234567,"t":1700000000,"pc":147.5}`)
	}))
	defer srv.Close()

	f := NewFinnhubFetcher(srv.URL, "secret", "")
	q, err := f.FetchQuote(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !q.Close.Equal(decimal.RequireFromString("150.25")) || !q.Open.Equal(decimal.NewFromInt(148)) {
		t.Errorf("unexpected prices: close %s open %s", q.Close, q.Open)
	}
	if q.Volume == nil || *q.Volume != 51234567 {
		t.Errorf("unexpected volume %v", q.Volume)
	}
	if q.Timestamp != 1700000000 {
		t.Errorf("unexpected timestamp %d", q.Timestamp)
	}
}

func TestFinnhubFetcher_OptionalVolume(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"c":10,"o":9,"h":11,"l":8,"t":1700000000}`)
	}))
	defer srv.Close()

	q, err := NewFinnhubFetcher(srv.URL, "k", "").FetchQuote(context.Background(), "INTC")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Volume != nil {
		t.Errorf("expected nil volume, got %d", *q.Volume)
	}
}

func TestFinnhubFetcher_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"missing close", 200, `{"o":9,"h":11,"l":8,"t":1}`, model.ErrMalformedResponse},
		{"not json", 200, `<html>`, model.ErrMalformedResponse},
		{"unknown symbol", 200, `{"c":0,"d":null,"dp":null,"h":0,"l":0,"o":0,"pc":0,"t":0}`, model.ErrMalformedResponse},
		{"rate limited", 429, `{"error":"API limit reached"}`, model.ErrNetworkFailure},
	}
	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
			fmt.Fprint(w, tt.body)
		}))
		_, err := NewFinnhubFetcher(srv.URL, "k", "").FetchQuote(context.Background(), "AAPL")
		srv.Close()
		if !errors.Is(err, tt.want) {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.want, err)
		}
	}
}

func TestFinnhubFetcher_NetworkDown(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewFinnhubFetcher(url, "k", "").FetchQuote(context.Background(), "AAPL")
	if !errors.Is(err, model.ErrNetworkFailure) {
		t.Errorf("expected ErrNetworkFailure, got %v", err)
	}
}

func TestFinnhubFetcher_ErrorHidesAPIKey(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	const key = "SECRET-FINNHUB-KEY"
	_, err := NewFinnhubFetcher(url, key, "").FetchQuote(context.Background(), "AAPL")
	if err == nil {
		t.Fatal("expected error")
	}
	if strings.Contains(err.Error(), key) {
		t.Errorf("error leaks api key: %v", err)
	}
	if !strings.Contains(err.Error(), "symbol=AAPL") {
		t.Errorf("expected redacted url in error, got %v", err)
	}
}

func TestYahooFetcher_MissingVolume(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart":{"result":[{"timestamp":[1700006400],
			"indicators":{"quote":[{"open":[371],"high":[375.5],"low":[370],"close":[374],"volume":[null]}]}}],"error":null}}`)
	}))
	defer srv.Close()

	f := NewYahooFetcher("")
	f.BaseURL = srv.URL
	q, err := f.FetchQuote(context.Background(), "MSFT")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Volume != nil {
		t.Errorf("expected nil volume, got %d", *q.Volume)
	}
}

func TestYahooFetcher_FetchQuote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/MSFT" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"chart":{"result":[{"timestamp":[1699920000,1700006400],
			"indicators":{"quote":[{"open":[370.5,371],"high":[372,375.5],"low":[369,370],
			"close":[371.2,null],"volume":[20000000,null]}]}}],"error":null}}`)
	}))
	defer srv.Close()

	f := NewYahooFetcher("")
	f.BaseURL = srv.URL
	q, err := f.FetchQuote(context.Background(), "MSFT")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// The last bar has a null close but non-zero open, so it is kept as-is.
	if q.Timestamp != 1700006400 {
		t.Errorf("unexpected timestamp %d", q.Timestamp)
	}
	if !q.Open.Equal(decimal.NewFromInt(371)) {
		t.Errorf("unexpected open %s", q.Open)
	}
	if q.Volume != nil {
		t.Errorf("expected nil volume for the null entry, got %d", *q.Volume)
	}
}

func TestYahooFetcher_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`)
	}))
	defer srv.Close()

	f := NewYahooFetcher("")
	f.BaseURL = srv.URL
	if _, err := f.FetchQuote(context.Background(), "ZZZZ"); !errors.Is(err, model.ErrMalformedResponse) {
		t.Errorf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestCollector_Snapshot(t *testing.T) {
	loc, _ := calculator.LoadZone("")
	m := NewMockFetcher(map[string]float64{"AAPL": 150})
	c := NewCollector(m, []string{"AAPL", "MSFT"}, loc, 0)

	snap, err := c.Snapshot(context.Background(), " aapl ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Quote.Symbol != "AAPL" {
		t.Errorf("unexpected symbol %s", snap.Quote.Symbol)
	}
	if snap.Metrics.Localized != "2023-11-14 04:13 PM CST" {
		t.Errorf("unexpected timestamp %q", snap.Metrics.Localized)
	}
	if !snap.Metrics.Change.Equal(decimal.RequireFromString("1.5")) {
		t.Errorf("unexpected change %s", snap.Metrics.Change)
	}

	if _, err := c.Snapshot(context.Background(), "IBM"); !errors.Is(err, model.ErrUnknownTicker) {
		t.Errorf("expected ErrUnknownTicker, got %v", err)
	}
}

func TestCollector_Peers(t *testing.T) {
	m := NewMockFetcher(map[string]float64{"AAPL": 150, "MSFT": 148, "NVDA": 200, "AMD": 155})
	c := NewCollector(m, []string{"AAPL", "MSFT", "NVDA", "AMD"}, nil, 0)

	set, err := c.Peers(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(set.Peers, []string{"MSFT", "AMD"}) {
		t.Errorf("unexpected peers %v", set.Peers)
	}
	// selected quote first, then every other universe member once
	if !reflect.DeepEqual(m.Calls, []string{"AAPL", "MSFT", "NVDA", "AMD"}) {
		t.Errorf("unexpected fetch order %v", m.Calls)
	}
}

func TestCollector_PeersZeroClose(t *testing.T) {
	m := NewMockFetcher(map[string]float64{"AAPL": 0, "MSFT": 1})
	c := NewCollector(m, []string{"AAPL", "MSFT"}, nil, 0)
	if _, err := c.Peers(context.Background(), "AAPL"); !errors.Is(err, model.ErrDivisionByZero) {
		t.Errorf("expected ErrDivisionByZero, got %v", err)
	}
}
