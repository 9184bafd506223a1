package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"
)

type askCmd struct {
	pdf     string
	ticker  string
	elastic bool
}

func (*askCmd) Name() string     { return "ask" }
func (*askCmd) Synopsis() string { return "answer a question about a PDF financial report" }
func (*askCmd) Usage() string {
	return `techpulse ask -pdf <file> [-ticker <ticker>] [-elastic] [question...]

  Indexes the report, retrieves its most relevant passages and asks the
  configured model. Without a question, the report of -ticker is summarized.
  By default the report is indexed in memory; -elastic uses the configured
  Elasticsearch index and resets it first.
`
}

func (c *askCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.pdf, "pdf", "", "Path of the PDF report.")
	f.StringVar(&c.ticker, "ticker", "", "Ticker the report belongs to.")
	f.BoolVar(&c.elastic, "elastic", false, "Index in the configured Elasticsearch instead of memory.")
}

func (c *askCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.pdf == "" {
		f.Usage()
		return subcommands.ExitUsageError
	}
	query := strings.TrimSpace(strings.Join(f.Args(), " "))
	if query == "" {
		if c.ticker == "" {
			fmt.Fprintln(os.Stderr, "either a question or -ticker is required")
			return subcommands.ExitUsageError
		}
		query = fmt.Sprintf("Summarize %s's overall financial performance.", strings.ToUpper(c.ticker))
	}

	data, err := os.ReadFile(c.pdf)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	sess, err := openSession(ctx, cfg, !c.elastic)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer sess.Close()

	ans, err := sess.Answer(ctx, filepath.Base(c.pdf), data, query)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	fmt.Print(renderTerminal(fmt.Sprintf("## %s\n\n%s\n", query, ans.Reply)))
	return subcommands.ExitSuccess
}

// renderTerminal styles markdown for the terminal, falling back to the raw text.
func renderTerminal(md string) string {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}
