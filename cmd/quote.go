package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/valuation"
	"github.com/google/subcommands"
)

// quoteCmd fetches the last close of symbols.
type quoteCmd struct {
	provider string
}

func (*quoteCmd) Name() string     { return "quote" }
func (*quoteCmd) Synopsis() string { return "fetch the last close of symbols" }
func (*quoteCmd) Usage() string {
	return `pvr quote [-provider <name>] <symbol>...

  Fetches the last close of each symbol with the configured provider.
  Unavailable quotes are reported with their cause.
`
}

func (c *quoteCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.provider, "provider", "", "Quote provider (yahoo, eodhd, polygon, static), overrides the configuration.")
}

func (c *quoteCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: at least one symbol is required.")
		return subcommands.ExitUsageError
	}
	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		return subcommands.ExitFailure
	}
	if c.provider != "" {
		cfg.Provider = c.provider
	}
	p, err := NewProvider(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	symbols := valuation.NormalizeSymbols(f.Args())
	quotes := valuation.NewFetcher(p, cfg.Fetch).Fetch(ctx, symbols)

	status := subcommands.ExitSuccess
	for _, s := range symbols {
		q := quotes.Get(s)
		if q.IsMissing() {
			fmt.Printf("%-8s %12s  %v\n", s, q.Price(), q.Err())
			status = subcommands.ExitFailure
			continue
		}
		fmt.Printf("%-8s %12s  %s\n", s, q.Price().StringFixed(2), q.AsOf().Format("2006-01-02 15:04 MST"))
	}
	return status
}
