package scheduler

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log"
	"strings"
	"sync"
	"time"

	"TechPulse/internal/collector"
	"TechPulse/internal/model"
	"TechPulse/internal/notifier"
	"TechPulse/internal/recorder"

	"github.com/robfig/cron/v3"
)

// IndexResetter drops every document indexed for report questions.
type IndexResetter interface {
	Reset(ctx context.Context) error
}

// ProbeStatus is the outcome of the latest upstream probe.
type ProbeStatus struct {
	Ticker    string        `json:"ticker"`
	OK        bool          `json:"ok"`
	Error     string        `json:"error,omitempty"`
	CheckedAt time.Time     `json:"checked_at"`
	Latency   time.Duration `json:"latency_ns"`
}

// Scheduler manages the cron tasks and answers bot commands.
type Scheduler struct {
	Cron        *cron.Cron
	Collector   *collector.Collector
	Index       IndexResetter
	Recorder    recorder.Recorder
	ProbeTicker string
	Ctx         context.Context

	mu    sync.RWMutex
	probe ProbeStatus
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, col *collector.Collector, idx IndexResetter, rec recorder.Recorder) *Scheduler {
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Collector: col,
		Index:     idx,
		Recorder:  rec,
		Ctx:       ctx,
	}
}

// RegisterAll registers the upstream probe and the index reset.
func (s *Scheduler) RegisterAll(probeCron, resetCron, probeTicker string) error {
	s.ProbeTicker = probeTicker
	if _, err := s.Cron.AddFunc(probeCron, s.RunProbe); err != nil {
		return fmt.Errorf("register probe task: %w", err)
	}
	if s.Index != nil {
		if _, err := s.Cron.AddFunc(resetCron, s.resetIndex); err != nil {
			return fmt.Errorf("register index reset: %w", err)
		}
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// RunProbe fetches one quote to check the data source. The quote is discarded.
func (s *Scheduler) RunProbe() {
	start := time.Now()
	status := ProbeStatus{Ticker: s.ProbeTicker, CheckedAt: start}
	_, err := s.Collector.Snapshot(s.Ctx, s.ProbeTicker)
	status.Latency = time.Since(start)
	if err != nil {
		status.Error = err.Error()
		log.Printf("[WARN] upstream probe %s failed: %v", s.ProbeTicker, err)
	} else {
		status.OK = true
	}

	s.mu.Lock()
	s.probe = status
	s.mu.Unlock()
}

// Health returns the latest probe outcome. CheckedAt is zero before the first probe.
func (s *Scheduler) Health() ProbeStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.probe
}

func (s *Scheduler) resetIndex() {
	log.Println("[INFO] resetting report index")
	if err := s.Index.Reset(s.Ctx); err != nil {
		log.Printf("[ERROR] reset report index: %v", err)
	}
}

// HandleCommand processes a bot command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.FormatHelp()
	}
	name := strings.ToLower(fields[0])
	// Group chats address commands as /quote@BotName.
	if i := strings.IndexByte(name, '@'); i > 0 {
		name = name[:i]
	}

	switch name {
	case "/quote", "/peers":
		if len(fields) < 2 {
			return fmt.Sprintf("Usage: %s TICKER", name)
		}
		if name == "/quote" {
			return s.quote(ctx, fields[1])
		}
		return s.peers(ctx, fields[1])
	case "/tickers":
		return notifier.FormatTickers(s.Collector.Universe)
	default:
		return notifier.FormatHelp()
	}
}

func (s *Scheduler) quote(ctx context.Context, ticker string) string {
	snap, err := s.Collector.Snapshot(ctx, ticker)
	if err != nil {
		return commandError("/quote", ticker, err)
	}
	return notifier.FormatSnapshot(snap)
}

func (s *Scheduler) peers(ctx context.Context, ticker string) string {
	start := time.Now()
	set, err := s.Collector.Peers(ctx, ticker)
	if !errors.Is(err, model.ErrUnknownTicker) {
		evt := recorder.NewPeerScanEvent(strings.ToUpper(ticker), set, time.Since(start), err)
		if rerr := s.Recorder.RecordPeerScan(evt); rerr != nil {
			log.Printf("[ERROR] record peer scan: %v", rerr)
		}
	}
	if err != nil {
		return commandError("/peers", ticker, err)
	}
	return notifier.FormatPeers(set)
}

func commandError(command, ticker string, err error) string {
	if errors.Is(err, model.ErrUnknownTicker) {
		return fmt.Sprintf("Unknown ticker %s. Send /tickers for the list.", html.EscapeString(strings.ToUpper(ticker)))
	}
	log.Printf("[ERROR] %s %s: %v", command, ticker, err)
	return notifier.FormatError(command, err)
}
