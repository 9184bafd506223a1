// Package peer selects comparable companies by close price.
package peer

import (
	"context"
	"fmt"
	"time"

	"TechPulse/internal/calculator"
	"TechPulse/internal/model"

	"github.com/shopspring/decimal"
)

// DefaultDelay is the courtesy pause before each upstream quote call.
const DefaultDelay = 1500 * time.Millisecond

// QuoteFetcher is the subset of collector.Fetcher the selector needs.
type QuoteFetcher interface {
	FetchQuote(ctx context.Context, symbol string) (*model.Quote, error)
}

// Selector scans a fixed universe for tickers whose close is within
// Tolerance of a selected close.
type Selector struct {
	Universe  []string
	Fetcher   QuoteFetcher
	Delay     time.Duration
	Tolerance decimal.Decimal
}

// NewSelector creates a Selector with the default 5% tolerance.
func NewSelector(universe []string, fetcher QuoteFetcher, delay time.Duration) *Selector {
	return &Selector{
		Universe:  universe,
		Fetcher:   fetcher,
		Delay:     delay,
		Tolerance: calculator.PeerTolerance,
	}
}

// Select fetches every other universe member sequentially, each call preceded
// by Delay, and keeps those within tolerance. Order follows Universe.
// An empty result is not an error.
func (s *Selector) Select(ctx context.Context, selected string, selectedClose decimal.Decimal) (*model.PeerSet, error) {
	if !selectedClose.IsPositive() {
		return nil, fmt.Errorf("select peers of %s: %w: close is %s", selected, model.ErrDivisionByZero, selectedClose)
	}

	set := &model.PeerSet{
		Selected:      selected,
		SelectedClose: selectedClose,
		Peers:         []string{},
	}
	for _, candidate := range s.Universe {
		if candidate == selected {
			continue
		}
		if err := pause(ctx, s.Delay); err != nil {
			return nil, err
		}
		q, err := s.Fetcher.FetchQuote(ctx, candidate)
		if err != nil {
			return nil, fmt.Errorf("select peers of %s: %w", selected, err)
		}
		set.Candidates++

		ok, err := calculator.WithinTolerance(selectedClose, q.Close, s.Tolerance)
		if err != nil {
			return nil, err
		}
		if ok {
			set.Peers = append(set.Peers, candidate)
		}
	}
	return set, nil
}

func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
