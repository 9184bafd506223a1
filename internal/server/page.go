package server

import (
	"embed"
	"html/template"
	"log"
	"net/http"
	"strconv"
	"strings"

	"TechPulse/internal/calculator"
	"TechPulse/internal/model"
	"TechPulse/internal/notifier"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTmpl = template.Must(template.ParseFS(templateFS, "templates/index.html"))

const (
	tickerPlaceholder = "Select a company: "
	peerPlaceholder   = "Select peer..."
)

type quoteCard struct {
	Symbol    string
	Close     string
	Delta     string
	Negative  bool
	Open      string
	High      string
	Low       string
	Volume    string
	Timestamp string
}

func newQuoteCard(s *model.Snapshot) *quoteCard {
	vol := "N/A"
	if s.Quote.Volume != nil {
		vol = strconv.FormatInt(*s.Quote.Volume, 10)
	}
	return &quoteCard{
		Symbol:    s.Quote.Symbol,
		Close:     calculator.FormatUSD(s.Quote.Close),
		Delta:     calculator.FormatDelta(s.Metrics.Change, s.Metrics.PercentChange),
		Negative:  s.Metrics.Change.IsNegative(),
		Open:      calculator.FormatUSD(s.Quote.Open),
		High:      calculator.FormatUSD(s.Quote.High),
		Low:       calculator.FormatUSD(s.Quote.Low),
		Volume:    vol,
		Timestamp: s.Metrics.Localized,
	}
}

type pageData struct {
	TickerPlaceholder string
	PeerPlaceholder   string
	Tickers           []string
	Selected          string
	Quote             *quoteCard
	PeersScanned      bool
	Peers             []string
	NoPeers           string
	SelectedPeer      string
	PeerQuote         *quoteCard
	DefaultQuery      string
	ReportsEnabled    bool
	Query             string
	Source            string
	Answer            template.HTML
	Error             string
}

func (s *Server) newPage(ticker string) *pageData {
	return &pageData{
		TickerPlaceholder: tickerPlaceholder,
		PeerPlaceholder:   peerPlaceholder,
		Tickers:           s.Collector.Universe,
		Selected:          ticker,
		ReportsEnabled:    s.Reports != nil,
	}
}

// handleIndex renders the snapshot viewer, the peer comparison and the upload form.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	ticker := strings.TrimSpace(r.URL.Query().Get("ticker"))
	if ticker == tickerPlaceholder || ticker == "" {
		s.renderPage(w, http.StatusOK, s.newPage(""))
		return
	}
	sym, ok := s.Collector.Known(ticker)
	if !ok {
		page := s.newPage("")
		page.Error = "Unknown ticker " + ticker
		s.renderPage(w, http.StatusNotFound, page)
		return
	}

	page := s.newPage(sym)
	page.DefaultQuery = defaultQuery(sym)
	status := s.fillSelection(r, page, strings.TrimSpace(r.URL.Query().Get("peer")))
	s.renderPage(w, status, page)
}

// fillSelection loads the selected snapshot, scans for peers and loads the chosen peer.
func (s *Server) fillSelection(r *http.Request, page *pageData, peerParam string) int {
	snap, err := s.Collector.Snapshot(r.Context(), page.Selected)
	if err != nil {
		page.Error = err.Error()
		return statusFor(err)
	}
	page.Quote = newQuoteCard(snap)

	set, err := s.scanPeers(r, page.Selected)
	if err != nil {
		page.Error = err.Error()
		return statusFor(err)
	}
	page.PeersScanned = true
	page.Peers = set.Peers
	if set.Empty() {
		page.NoPeers = notifier.NoPeersMessage
		return http.StatusOK
	}

	for _, p := range set.Peers {
		if p == peerParam {
			page.SelectedPeer = p
		}
	}
	if page.SelectedPeer == "" {
		return http.StatusOK
	}
	peerSnap, err := s.Collector.Snapshot(r.Context(), page.SelectedPeer)
	if err != nil {
		page.Error = err.Error()
		return statusFor(err)
	}
	page.PeerQuote = newQuoteCard(peerSnap)
	return http.StatusOK
}

// handleReportPage answers an uploaded report from the dashboard form.
func (s *Server) handleReportPage(w http.ResponseWriter, r *http.Request) {
	ans, err := s.answerUpload(w, r)
	ticker := strings.ToUpper(strings.TrimSpace(r.FormValue("ticker")))
	page := s.newPage("")
	if sym, ok := s.Collector.Known(ticker); ok {
		page.Selected = sym
		page.DefaultQuery = defaultQuery(sym)
	}
	if err != nil {
		page.Error = err.Error()
		s.renderPage(w, uploadStatus(err), page)
		return
	}

	page.Query = ans.Query
	page.Source = ans.Source
	body, err := renderMarkdown(ans.Reply)
	if err != nil {
		page.Error = err.Error()
		s.renderPage(w, http.StatusInternalServerError, page)
		return
	}
	page.Answer = body
	s.renderPage(w, http.StatusOK, page)
}

func (s *Server) renderPage(w http.ResponseWriter, status int, page *pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pageTmpl.Execute(w, page); err != nil {
		log.Printf("[ERROR] render page: %v", err)
	}
}
