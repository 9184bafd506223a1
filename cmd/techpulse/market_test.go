package main

import (
	"strings"
	"testing"

	"TechPulse/internal/model"

	"github.com/shopspring/decimal"
)

func TestSnapshotMarkdown(t *testing.T) {
	s := &model.Snapshot{
		Quote: &model.Quote{
			Symbol: "AAPL",
			Open:   decimal.NewFromInt(148),
			High:   decimal.NewFromInt(151),
			Low:    decimal.NewFromInt(147),
			Close:  decimal.RequireFromString("150.25"),
		},
		Metrics: model.Metrics{
			Change:        decimal.RequireFromString("2.25"),
			PercentChange: decimal.RequireFromString("1.52"),
			Localized:     "2023-11-14 04:13 PM CST",
		},
	}
	md := snapshotMarkdown(s)
	for _, want := range []string{"# AAPL $150.25", "+2.25 (+1.52%)", "| N/A |", "2023-11-14 04:13 PM CST"} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestPeersMarkdown(t *testing.T) {
	p := &model.PeerSet{Selected: "AAPL", SelectedClose: decimal.NewFromInt(150), Peers: []string{}, Candidates: 11}
	if md := peersMarkdown(p); !strings.Contains(md, "No peers found within 5%") {
		t.Errorf("unexpected markdown:\n%s", md)
	}
	p.Peers = []string{"MSFT", "AMD"}
	md := peersMarkdown(p)
	if !strings.Contains(md, "- MSFT\n- AMD\n") || !strings.Contains(md, "2 of 11 candidates") {
		t.Errorf("unexpected markdown:\n%s", md)
	}
}
