package cmd

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/valuation/renderer"
	"github.com/google/subcommands"
)

// reportCmd holds the flags for the 'report' subcommand.
type reportCmd struct {
	format   string
	rank     string
	currency string
	provider string
	title    string
	width    int
}

func (*reportCmd) Name() string     { return "report" }
func (*reportCmd) Synopsis() string { return "value the ledger positions and display a ranked summary" }
func (*reportCmd) Usage() string {
	return `pvr report [-format md|term|table|html|json] [-rank <metric>] [-provider <name>]

  Fetches the last close of every symbol in the ledger, computes the
  valuation metrics of each position, and displays them ranked, with charts.
  Unavailable quotes and rejected ledger rows are listed at the end.
`
}

func (c *reportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.format, "format", "term", "Output format: md, term, table, html or json.")
	f.StringVar(&c.rank, "rank", "", "Ranking metric, overrides the configuration. See 'pvr topic metrics'.")
	f.StringVar(&c.currency, "currency", "", "Currency of the amounts, overrides the configuration.")
	f.StringVar(&c.provider, "provider", "", "Quote provider (yahoo, eodhd, polygon, static), overrides the configuration.")
	f.StringVar(&c.title, "title", "", "Title of the report.")
	f.IntVar(&c.width, "width", 0, "Width of the terminal output.")
}

func (c *reportCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := setRank(&cfg, c.rank); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	if c.currency != "" {
		cfg.Currency = c.currency
	}
	if c.provider != "" {
		cfg.Provider = c.provider
	}

	report, err := runReport(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	opts := renderer.Options{Title: c.title, Currency: cfg.Currency}
	switch c.format {
	case "md":
		fmt.Println(renderer.Markdown(report, opts))
	case "term":
		out, err := renderer.Terminal(renderer.Markdown(report, opts), c.width)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error rendering report: %v\n", err)
			return subcommands.ExitFailure
		}
		fmt.Print(out)
	case "table":
		renderer.Table(os.Stdout, renderer.NewReport(report, opts))
	case "html":
		page, err := renderer.HTML(opts.Title, renderer.Markdown(report, opts))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error rendering report: %v\n", err)
			return subcommands.ExitFailure
		}
		os.Stdout.Write(page)
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding report: %v\n", err)
			return subcommands.ExitFailure
		}
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown format %q\n", c.format)
		return subcommands.ExitUsageError
	}
	return subcommands.ExitSuccess
}
