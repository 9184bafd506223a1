package recorder

import (
	"time"

	"TechPulse/internal/model"
)

// PeerScanEvent describes one completed or failed peer scan. Quote values
// are not recorded.
type PeerScanEvent struct {
	Ticker     string
	Candidates int
	Peers      []string
	Duration   time.Duration
	Err        string
}

// NewPeerScanEvent builds an event from a scan outcome. set may be nil when err is set.
func NewPeerScanEvent(ticker string, set *model.PeerSet, d time.Duration, err error) *PeerScanEvent {
	evt := &PeerScanEvent{Ticker: ticker, Duration: d}
	if set != nil {
		evt.Candidates = set.Candidates
		evt.Peers = set.Peers
	}
	if err != nil {
		evt.Err = err.Error()
	}
	return evt
}

// ReportQueryEvent describes one question asked against an uploaded report.
type ReportQueryEvent struct {
	DocumentID string
	Source     string
	Query      string
	Chunks     int
	ReplyChars int
	Duration   time.Duration
	Err        string
}

// NewReportQueryEvent builds an event from an answered or failed question.
func NewReportQueryEvent(source, query string, ans *model.Answer, d time.Duration, err error) *ReportQueryEvent {
	evt := &ReportQueryEvent{Source: source, Query: query, Duration: d}
	if ans != nil {
		evt.DocumentID = ans.DocumentID
		evt.Chunks = ans.Chunks
		evt.ReplyChars = len(ans.Reply)
	}
	if err != nil {
		evt.Err = err.Error()
	}
	return evt
}

// ScanRow is a stored peer scan, newest first when listed.
type ScanRow struct {
	Timestamp  time.Time `json:"timestamp"`
	Ticker     string    `json:"ticker"`
	Candidates int       `json:"candidates"`
	Peers      []string  `json:"peers"`
	DurationMS int64     `json:"duration_ms"`
	Err        string    `json:"error,omitempty"`
}

// Recorder persists the dashboard's audit history.
type Recorder interface {
	RecordPeerScan(evt *PeerScanEvent) error
	RecordReportQuery(evt *ReportQueryEvent) error
	RecentScans(limit int) ([]ScanRow, error)
	Close() error
}
