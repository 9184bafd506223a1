package collector

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"TechPulse/internal/calculator"
	"TechPulse/internal/model"
	"TechPulse/internal/peer"

	"github.com/shopspring/decimal"
)

// MockFetcher returns controllable fixed quotes for development and testing.
type MockFetcher struct {
	mu     sync.Mutex
	Quotes map[string]*model.Quote
	Err    map[string]error
	Calls  []string
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchQuote(_ context.Context, symbol string) (*model.Quote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, symbol)
	if err, ok := m.Err[symbol]; ok {
		return nil, err
	}
	q, ok := m.Quotes[symbol]
	if !ok {
		return nil, fmt.Errorf("mock %s: %w: no data", symbol, model.ErrMalformedResponse)
	}
	cp := *q
	return &cp, nil
}

// NewMockFetcher builds a MockFetcher from close prices, with open set to
// 99% of close and a fixed timestamp.
func NewMockFetcher(closes map[string]float64) *MockFetcher {
	m := &MockFetcher{Quotes: make(map[string]*model.Quote, len(closes))}
	for sym, c := range closes {
		cl := decimal.NewFromFloat(c)
		vol := int64(1000000)
		m.Quotes[sym] = &model.Quote{
			Symbol:    sym,
			Open:      cl.Mul(decimal.RequireFromString("0.99")),
			High:      cl.Mul(decimal.RequireFromString("1.005")),
			Low:       cl.Mul(decimal.RequireFromString("0.985")),
			Close:     cl,
			Volume:    &vol,
			Timestamp: 1700000000,
		}
	}
	return m
}

// Collector binds a quote fetcher to the normalizer and the peer selector.
type Collector struct {
	Fetcher  Fetcher
	Universe []string
	Location *time.Location
	Selector *peer.Selector
}

// NewCollector creates a new Collector over a fixed ticker universe.
func NewCollector(fetcher Fetcher, universe []string, loc *time.Location, delay time.Duration) *Collector {
	return &Collector{
		Fetcher:  fetcher,
		Universe: universe,
		Location: loc,
		Selector: peer.NewSelector(universe, fetcher, delay),
	}
}

// Known reports whether ticker belongs to the universe and returns its canonical form.
func (c *Collector) Known(ticker string) (string, bool) {
	t := strings.ToUpper(strings.TrimSpace(ticker))
	for _, u := range c.Universe {
		if u == t {
			return u, true
		}
	}
	return "", false
}

// Snapshot fetches a quote and computes its derived metrics.
func (c *Collector) Snapshot(ctx context.Context, ticker string) (*model.Snapshot, error) {
	sym, ok := c.Known(ticker)
	if !ok {
		return nil, fmt.Errorf("snapshot %q: %w", ticker, model.ErrUnknownTicker)
	}
	q, err := c.Fetcher.FetchQuote(ctx, sym)
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", sym, err)
	}
	return &model.Snapshot{Quote: q, Metrics: calculator.Normalize(q, c.Location)}, nil
}

// Peers re-fetches the selected ticker's quote and scans the universe for peers.
func (c *Collector) Peers(ctx context.Context, ticker string) (*model.PeerSet, error) {
	sym, ok := c.Known(ticker)
	if !ok {
		return nil, fmt.Errorf("peers %q: %w", ticker, model.ErrUnknownTicker)
	}
	q, err := c.Fetcher.FetchQuote(ctx, sym)
	if err != nil {
		return nil, fmt.Errorf("peers %s: %w", sym, err)
	}

	start := time.Now()
	set, err := c.Selector.Select(ctx, sym, q.Close)
	if err != nil {
		return nil, err
	}
	log.Printf("[INFO] peer scan %s: %d/%d candidates within tolerance in %v",
		sym, len(set.Peers), set.Candidates, time.Since(start).Round(time.Millisecond))
	return set, nil
}
