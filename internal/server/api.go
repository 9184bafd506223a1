package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"TechPulse/internal/model"
	"TechPulse/internal/recorder"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

var errBadUpload = errors.New("bad upload")

type quoteResponse struct {
	Symbol        string          `json:"symbol"`
	Open          decimal.Decimal `json:"open"`
	High          decimal.Decimal `json:"high"`
	Low           decimal.Decimal `json:"low"`
	Close         decimal.Decimal `json:"close"`
	Volume        *int64          `json:"volume"`
	Change        decimal.Decimal `json:"change"`
	PercentChange decimal.Decimal `json:"percent_change"`
	Timestamp     int64           `json:"timestamp"`
	LocalTime     string          `json:"local_time"`
}

func newQuoteResponse(s *model.Snapshot) quoteResponse {
	return quoteResponse{
		Symbol:        s.Quote.Symbol,
		Open:          s.Quote.Open,
		High:          s.Quote.High,
		Low:           s.Quote.Low,
		Close:         s.Quote.Close,
		Volume:        s.Quote.Volume,
		Change:        s.Metrics.Change,
		PercentChange: s.Metrics.PercentChange,
		Timestamp:     s.Quote.Timestamp,
		LocalTime:     s.Metrics.Localized,
	}
}

type peersResponse struct {
	Ticker     string          `json:"ticker"`
	Close      decimal.Decimal `json:"close"`
	Peers      []string        `json:"peers"`
	Candidates int             `json:"candidates"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[ERROR] encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		log.Printf("[ERROR] %v", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (s *Server) handleTickers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"tickers": s.Collector.Universe})
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	snap, err := s.Collector.Snapshot(r.Context(), mux.Vars(r)["ticker"])
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, newQuoteResponse(snap))
}

func (s *Server) handlePeers(w http.ResponseWriter, r *http.Request) {
	set, err := s.scanPeers(r, mux.Vars(r)["ticker"])
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, peersResponse{
		Ticker:     set.Selected,
		Close:      set.SelectedClose,
		Peers:      set.Peers,
		Candidates: set.Candidates,
	})
}

// scanPeers runs a peer scan and records its outcome. Unknown tickers are not recorded.
func (s *Server) scanPeers(r *http.Request, ticker string) (*model.PeerSet, error) {
	start := time.Now()
	set, err := s.Collector.Peers(r.Context(), ticker)
	if errors.Is(err, model.ErrUnknownTicker) {
		return nil, err
	}
	evt := recorder.NewPeerScanEvent(strings.ToUpper(strings.TrimSpace(ticker)), set, time.Since(start), err)
	if rerr := s.Recorder.RecordPeerScan(evt); rerr != nil {
		log.Printf("[ERROR] record peer scan: %v", rerr)
	}
	return set, err
}

func (s *Server) handleScans(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid limit %q", v))
			return
		}
		limit = n
	}
	rows, err := s.Recorder.RecentScans(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if rows == nil {
		rows = []recorder.ScanRow{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"scans": rows})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.Health == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "unknown"})
		return
	}
	h := s.Health.Health()
	status := "ok"
	code := http.StatusOK
	switch {
	case h.CheckedAt.IsZero():
		status = "pending"
	case !h.OK:
		status = "degraded"
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{"status": status, "probe": h})
}

func (s *Server) handleReportAPI(w http.ResponseWriter, r *http.Request) {
	ans, err := s.answerUpload(w, r)
	if err != nil {
		writeError(w, uploadStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, ans)
}

// defaultQuery is the question asked when the form leaves it blank.
func defaultQuery(ticker string) string {
	return fmt.Sprintf("Summarize %s's overall financial performance.", ticker)
}

// answerUpload reads the multipart upload, answers the question and records it.
func (s *Server) answerUpload(w http.ResponseWriter, r *http.Request) (*model.Answer, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.Options.MaxUploadBytes)
	if s.Reports == nil {
		return nil, errReportsDisabled
	}
	if err := r.ParseMultipartForm(s.Options.MaxUploadBytes); err != nil {
		return nil, fmt.Errorf("%w: %w", errBadUpload, err)
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, fmt.Errorf("%w: file is required", errBadUpload)
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errBadUpload, err)
	}
	if !isPDF(header.Filename, data) {
		return nil, fmt.Errorf("%w: %s is not a PDF", errBadUpload, header.Filename)
	}

	query := strings.TrimSpace(r.FormValue("query"))
	if query == "" {
		ticker := strings.ToUpper(strings.TrimSpace(r.FormValue("ticker")))
		if ticker == "" {
			return nil, fmt.Errorf("%w: query is required", errBadUpload)
		}
		query = defaultQuery(ticker)
	}

	source := filepath.Base(header.Filename)
	start := time.Now()
	ans, err := s.Reports.Answer(r.Context(), source, data, query)
	evt := recorder.NewReportQueryEvent(source, query, ans, time.Since(start), err)
	if rerr := s.Recorder.RecordReportQuery(evt); rerr != nil {
		log.Printf("[ERROR] record report query: %v", rerr)
	}
	if err != nil {
		return nil, err
	}
	log.Printf("[INFO] answered %q about %s (%d chunks)", query, source, ans.Chunks)
	return ans, nil
}

var errReportsDisabled = errors.New("report questions are not configured")

func uploadStatus(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errBadUpload):
		return http.StatusBadRequest
	case errors.Is(err, errReportsDisabled):
		return http.StatusServiceUnavailable
	default:
		return statusFor(err)
	}
}

func isPDF(name string, data []byte) bool {
	if !strings.EqualFold(filepath.Ext(name), ".pdf") {
		return false
	}
	return http.DetectContentType(data) == "application/pdf"
}
