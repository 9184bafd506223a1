package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"TechPulse/internal/model"

	"github.com/shopspring/decimal"
)

// DefaultFinnhubURL is the Finnhub REST base.
const DefaultFinnhubURL = "https://finnhub.io/api/v1"

// FinnhubFetcher implements Fetcher using the Finnhub quote endpoint.
type FinnhubFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewFinnhubFetcher creates a new fetcher with optional proxy support.
func NewFinnhubFetcher(baseURL, apiKey, proxyURL string) *FinnhubFetcher {
	if baseURL == "" {
		baseURL = DefaultFinnhubURL
	}
	return &FinnhubFetcher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Client:  newHTTPClient(proxyURL),
	}
}

func (f *FinnhubFetcher) Name() string { return "finnhub" }

// finnhubQuote is the JSON shape of /quote. Pointers tell missing keys from zeros.
type finnhubQuote struct {
	C *decimal.Decimal `json:"c"`
	O *decimal.Decimal `json:"o"`
	H *decimal.Decimal `json:"h"`
	L *decimal.Decimal `json:"l"`
	V *decimal.Decimal `json:"v"`
	T *int64           `json:"t"`
}

func (f *FinnhubFetcher) FetchQuote(ctx context.Context, symbol string) (*model.Quote, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("token", f.APIKey)
	endpoint := f.BaseURL + "/quote?" + q.Encode()

	shown := f.BaseURL + "/quote?symbol=" + url.QueryEscape(symbol)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, redactURL(err, shown)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		err = redactURL(err, shown)
		return nil, fmt.Errorf("fetch quote %s: %w: %w", symbol, model.ErrNetworkFailure, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fetch quote %s: %w: status %d, body: %s", symbol, model.ErrNetworkFailure, resp.StatusCode, string(body))
	}

	var raw finnhubQuote
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode quote %s: %w: %w", symbol, model.ErrMalformedResponse, err)
	}
	return raw.toQuote(symbol)
}

func (r *finnhubQuote) toQuote(symbol string) (*model.Quote, error) {
	var missing []string
	if r.C == nil {
		missing = append(missing, "c")
	}
	if r.O == nil {
		missing = append(missing, "o")
	}
	if r.H == nil {
		missing = append(missing, "h")
	}
	if r.L == nil {
		missing = append(missing, "l")
	}
	if r.T == nil {
		missing = append(missing, "t")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("quote %s: %w: missing %s", symbol, model.ErrMalformedResponse, strings.Join(missing, ","))
	}
	// Finnhub answers unknown symbols with an all-zero body.
	if *r.T == 0 && r.C.IsZero() && r.O.IsZero() {
		return nil, fmt.Errorf("quote %s: %w: no data", symbol, model.ErrMalformedResponse)
	}

	q := &model.Quote{
		Symbol:    symbol,
		Open:      *r.O,
		High:      *r.H,
		Low:       *r.L,
		Close:     *r.C,
		Timestamp: *r.T,
	}
	if r.V != nil {
		v := r.V.IntPart()
		q.Volume = &v
	}
	return q, nil
}
