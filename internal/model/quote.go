package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Quote is a point-in-time snapshot of a ticker's last trade.
type Quote struct {
	Symbol    string
	Open      decimal.Decimal
	High      decimal.Decimal
	Low       decimal.Decimal
	Close     decimal.Decimal
	Volume    *int64 // nil when the provider omits it
	Timestamp int64  // seconds since epoch, UTC
}

// Metrics holds the values derived from a Quote.
type Metrics struct {
	Change        decimal.Decimal
	PercentChange decimal.Decimal
	LocalTime     time.Time
	Localized     string
}

// Snapshot pairs a quote with its derived metrics.
type Snapshot struct {
	Quote   *Quote
	Metrics Metrics
}

// PeerSet lists the tickers whose close is within tolerance of the selected close.
type PeerSet struct {
	Selected      string
	SelectedClose decimal.Decimal
	Peers         []string
	Candidates    int
}

// Empty reports whether no peer qualified.
func (p *PeerSet) Empty() bool { return len(p.Peers) == 0 }
