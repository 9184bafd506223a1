package recorder

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordPeerScan(_ *PeerScanEvent) error { return nil }
func (n *NoopRecorder) RecordReportQuery(_ *ReportQueryEvent) error { return nil }
func (n *NoopRecorder) RecentScans(_ int) ([]ScanRow, error) { return nil, nil }
func (n *NoopRecorder) Close() error { return nil }
