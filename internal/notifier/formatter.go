package notifier

import (
	"fmt"
	"html"
	"strings"

	"TechPulse/internal/calculator"
	"TechPulse/internal/model"

	"github.com/enescakir/emoji"
)

// NoPeersMessage is shown when no ticker trades within tolerance of the selected one.
const NoPeersMessage = "No peers found within 5% of the selected company's close price."

// FormatSnapshot formats a quote and its metrics into a Telegram message.
func FormatSnapshot(s *model.Snapshot) string {
	q := s.Quote
	trend := emoji.ChartIncreasing.String()
	if s.Metrics.Change.IsNegative() {
		trend = emoji.ChartDecreasing.String()
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s <b>%s</b> | %s\n\n", emoji.BarChart, html.EscapeString(q.Symbol), s.Metrics.Localized))
	b.WriteString(fmt.Sprintf("Close: %s\n", calculator.FormatUSD(q.Close)))
	b.WriteString(fmt.Sprintf("Open: %s\n", calculator.FormatUSD(q.Open)))
	b.WriteString(fmt.Sprintf("High: %s | Low: %s\n", calculator.FormatUSD(q.High), calculator.FormatUSD(q.Low)))
	if q.Volume != nil {
		b.WriteString(fmt.Sprintf("Volume: %d\n", *q.Volume))
	}
	b.WriteString(fmt.Sprintf("%s Change: %s\n", trend, calculator.FormatDelta(s.Metrics.Change, s.Metrics.PercentChange)))
	return b.String()
}

// FormatPeers formats a peer scan result.
func FormatPeers(p *model.PeerSet) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s <b>Peers of %s</b> (close %s)\n\n", emoji.Handshake, html.EscapeString(p.Selected), calculator.FormatUSD(p.SelectedClose)))
	if p.Empty() {
		b.WriteString(NoPeersMessage)
		b.WriteString("\n")
		return b.String()
	}
	for _, t := range p.Peers {
		b.WriteString(fmt.Sprintf("  • %s\n", html.EscapeString(t)))
	}
	b.WriteString(fmt.Sprintf("\n%d of %d candidates within 5%%\n", len(p.Peers), p.Candidates))
	return b.String()
}

// FormatTickers lists the selectable tickers.
func FormatTickers(tickers []string) string {
	return fmt.Sprintf("%s <b>Tickers</b>\n\n%s\n", emoji.Megaphone, strings.Join(tickers, ", "))
}

// FormatError formats a failed command.
func FormatError(command string, err error) string {
	return fmt.Sprintf("%s %s failed: %s", emoji.Warning, html.EscapeString(command), html.EscapeString(err.Error()))
}

// FormatHelp lists the supported commands.
func FormatHelp() string {
	var b strings.Builder
	b.WriteString("📖 <b>TechPulse commands</b>\n\n")
	b.WriteString("/quote TICKER - latest quote and daily change\n")
	b.WriteString("/peers TICKER - tickers within 5% of its close\n")
	b.WriteString("/tickers - selectable tickers\n")
	b.WriteString("/help - this message\n")
	return b.String()
}
