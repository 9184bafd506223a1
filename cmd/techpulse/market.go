package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"TechPulse/internal/calculator"
	"TechPulse/internal/model"
	"TechPulse/internal/notifier"
	"TechPulse/internal/recorder"

	"github.com/google/subcommands"
)

type quoteCmd struct{}

func (*quoteCmd) Name() string     { return "quote" }
func (*quoteCmd) Synopsis() string { return "print the latest quote of a ticker" }
func (*quoteCmd) Usage() string {
	return `techpulse quote TICKER

  Fetches the latest quote and prints close, daily change and details.
`
}
func (*quoteCmd) SetFlags(*flag.FlagSet) {}

func (*quoteCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	col, err := newCollector(cfg, 0)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	snap, err := col.Snapshot(ctx, f.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	fmt.Print(renderTerminal(snapshotMarkdown(snap)))
	return subcommands.ExitSuccess
}

type peersCmd struct {
	delay time.Duration
}

func (*peersCmd) Name() string     { return "peers" }
func (*peersCmd) Synopsis() string { return "list tickers trading within 5% of a ticker's close" }
func (*peersCmd) Usage() string {
	return `techpulse peers [-delay <duration>] TICKER

  Scans the ticker universe sequentially and prints the tickers whose close
  lies within 5% of the selected ticker's close.
`
}

func (c *peersCmd) SetFlags(f *flag.FlagSet) {
	f.DurationVar(&c.delay, "delay", -1, "Pause before each candidate fetch (defaults to data_source.peer_delay).")
}

func (c *peersCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	delay := cfg.DataSource.PeerDelay
	if c.delay >= 0 {
		delay = c.delay
	}
	col, err := newCollector(cfg, delay)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	rec := newRecorder(cfg)
	defer rec.Close()

	log.Printf("[INFO] scanning %d candidates with %v delay", len(cfg.DataSource.Tickers)-1, delay)
	start := time.Now()
	set, err := col.Peers(ctx, f.Arg(0))
	if !errors.Is(err, model.ErrUnknownTicker) {
		evt := recorder.NewPeerScanEvent(strings.ToUpper(f.Arg(0)), set, time.Since(start), err)
		if rerr := rec.RecordPeerScan(evt); rerr != nil {
			log.Printf("[ERROR] record peer scan: %v", rerr)
		}
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	fmt.Print(renderTerminal(peersMarkdown(set)))
	return subcommands.ExitSuccess
}

func snapshotMarkdown(s *model.Snapshot) string {
	vol := "N/A"
	if s.Quote.Volume != nil {
		vol = fmt.Sprint(*s.Quote.Volume)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "# %s %s\n\n", s.Quote.Symbol, calculator.FormatUSD(s.Quote.Close))
	fmt.Fprintf(&b, "**%s**\n\n", calculator.FormatDelta(s.Metrics.Change, s.Metrics.PercentChange))
	b.WriteString("| Open | High | Low | Close | Volume | Timestamp |\n")
	b.WriteString("|---|---|---|---|---|---|\n")
	fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s |\n",
		calculator.FormatUSD(s.Quote.Open), calculator.FormatUSD(s.Quote.High), calculator.FormatUSD(s.Quote.Low),
		calculator.FormatUSD(s.Quote.Close), vol, s.Metrics.Localized)
	return b.String()
}

func peersMarkdown(p *model.PeerSet) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Peers of %s (%s)\n\n", p.Selected, calculator.FormatUSD(p.SelectedClose))
	if p.Empty() {
		b.WriteString(notifier.NoPeersMessage + "\n")
		return b.String()
	}
	for _, t := range p.Peers {
		fmt.Fprintf(&b, "- %s\n", t)
	}
	fmt.Fprintf(&b, "\n%d of %d candidates within 5%%.\n", len(p.Peers), p.Candidates)
	return b.String()
}
