package recorder

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"TechPulse/internal/model"
)

func TestSQLiteRecorder_PeerScans(t *testing.T) {
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "audit.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer r.Close()

	if err := r.RecordPeerScan(&PeerScanEvent{
		Ticker: "AAPL", Candidates: 11, Peers: []string{"MSFT", "AMD"}, Duration: 16500 * time.Millisecond,
	}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := r.RecordPeerScan(&PeerScanEvent{
		Ticker: "NVDA", Candidates: 3, Err: "network failure",
	}); err != nil {
		t.Fatalf("record: %v", err)
	}

	rows, err := r.RecentScans(10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Ticker != "NVDA" || rows[0].Err != "network failure" || rows[0].Peers != nil {
		t.Errorf("unexpected newest row %+v", rows[0])
	}
	if !reflect.DeepEqual(rows[1].Peers, []string{"MSFT", "AMD"}) || rows[1].DurationMS != 16500 {
		t.Errorf("unexpected oldest row %+v", rows[1])
	}

	if rows, _ := r.RecentScans(1); len(rows) != 1 {
		t.Errorf("expected limit to apply, got %d rows", len(rows))
	}
}

func TestSQLiteRecorder_ReportQuery(t *testing.T) {
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "audit.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer r.Close()

	err = r.RecordReportQuery(&ReportQueryEvent{
		DocumentID: "6f1c", Source: "10k.pdf", Query: "Summarize AAPL's overall financial performance.",
		Chunks: 42, ReplyChars: 512, Duration: time.Second,
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	var n int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM report_queries WHERE chunks = 42`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("expected 1 row, got %d", n)
	}
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NewNoopRecorder()
	if err := r.RecordPeerScan(&PeerScanEvent{Ticker: "AAPL"}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if rows, err := r.RecentScans(5); err != nil || rows != nil {
		t.Errorf("unexpected result %v %v", rows, err)
	}
}

func TestNewEvents(t *testing.T) {
	scan := NewPeerScanEvent("AAPL", &model.PeerSet{Peers: []string{"MSFT"}, Candidates: 11}, time.Second, nil)
	if scan.Candidates != 11 || len(scan.Peers) != 1 || scan.Err != "" {
		t.Errorf("unexpected scan event %+v", scan)
	}
	failed := NewPeerScanEvent("AAPL", nil, time.Second, errors.New("boom"))
	if failed.Err != "boom" || failed.Peers != nil {
		t.Errorf("unexpected failed scan event %+v", failed)
	}

	q := NewReportQueryEvent("10k.pdf", "q", &model.Answer{DocumentID: "d", Chunks: 3, Reply: "abc"}, time.Second, nil)
	if q.DocumentID != "d" || q.Chunks != 3 || q.ReplyChars != 3 {
		t.Errorf("unexpected query event %+v", q)
	}
}
