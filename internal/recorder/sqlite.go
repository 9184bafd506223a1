package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists the audit history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so external readers don't block the dashboard's writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS peer_scans (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp   INTEGER NOT NULL,
			ticker      TEXT NOT NULL,
			candidates  INTEGER,
			peers       TEXT,
			duration_ms INTEGER,
			error       TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_peer_scans_ts ON peer_scans(timestamp)`,

		`CREATE TABLE IF NOT EXISTS report_queries (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp   INTEGER NOT NULL,
			document_id TEXT,
			source      TEXT,
			query       TEXT,
			chunks      INTEGER,
			reply_chars INTEGER,
			duration_ms INTEGER,
			error       TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_report_queries_ts ON report_queries(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordPeerScan(evt *PeerScanEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO peer_scans
		(timestamp, ticker, candidates, peers, duration_ms, error)
		VALUES (?,?,?,?,?,?)`,
		time.Now().Unix(), evt.Ticker, evt.Candidates, strings.Join(evt.Peers, ","),
		evt.Duration.Milliseconds(), evt.Err,
	)
	return err
}

func (r *SQLiteRecorder) RecordReportQuery(evt *ReportQueryEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO report_queries
		(timestamp, document_id, source, query, chunks, reply_chars, duration_ms, error)
		VALUES (?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), evt.DocumentID, evt.Source, evt.Query,
		evt.Chunks, evt.ReplyChars, evt.Duration.Milliseconds(), evt.Err,
	)
	return err
}

// RecentScans returns up to limit peer scans, newest first.
func (r *SQLiteRecorder) RecentScans(limit int) ([]ScanRow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT timestamp, ticker, candidates, peers, duration_ms, error
		FROM peer_scans ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ScanRow
	for rows.Next() {
		var (
			ts    int64
			peers string
			row   ScanRow
		)
		if err := rows.Scan(&ts, &row.Ticker, &row.Candidates, &peers, &row.DurationMS, &row.Err); err != nil {
			return nil, err
		}
		row.Timestamp = time.Unix(ts, 0)
		if peers != "" {
			row.Peers = strings.Split(peers, ",")
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
