// Package cmd implements the CLI application to value a ledger of positions.
package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/valuation"
	"github.com/etnz/valuation/eodhd"
	"github.com/etnz/valuation/ledger"
	"github.com/etnz/valuation/polygon"
	"github.com/etnz/valuation/renderer"
	"github.com/etnz/valuation/yahoo"
	"github.com/google/subcommands"
	log "github.com/sirupsen/logrus"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&reportCmd{}, "valuation")
	c.Register(&quoteCmd{}, "valuation")
	c.Register(&serveCmd{}, "valuation")
	c.Register(&searchCmd{}, "valuation")

	c.Register(&assistCmd{}, "help")
	c.Register(&topicCmd{}, "help")
}

// Commands lists the registered subcommands, for completion.
func Commands() []subcommands.Command {
	return []subcommands.Command{
		&reportCmd{}, &quoteCmd{}, &serveCmd{}, &searchCmd{}, &assistCmd{}, &topicCmd{},
	}
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var (
	configFile = flag.String("config", "pvr.yaml", "Path to the YAML configuration file.")
	ledgerFile = flag.String("ledger", "positions.csv", "Path to the CSV ledger of positions.")
	Verbose    = flag.Bool("v", false, "Enable debug logging.")
)

// LoadConfig loads the application configuration, and sets the log level accordingly.
func LoadConfig() (valuation.Config, error) {
	cfg, err := valuation.LoadConfig(*configFile)
	if err != nil {
		return cfg, err
	}
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return cfg, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	if *Verbose {
		level = log.DebugLevel
	}
	log.SetLevel(level)
	log.SetOutput(os.Stderr)
	return cfg, nil
}

// NewProvider returns the quote provider named in cfg.
func NewProvider(cfg valuation.Config) (valuation.QuoteProvider, error) {
	switch cfg.Provider {
	case "", "yahoo":
		return yahoo.New(), nil
	case "eodhd":
		if cfg.EODHDKey == "" {
			return nil, fmt.Errorf("EODHD API key is not set, use the %s environment variable", valuation.EnvEODHDKey)
		}
		return eodhd.New(cfg.EODHDKey), nil
	case "polygon":
		if cfg.PolygonKey == "" {
			return nil, fmt.Errorf("Polygon API key is not set, use the %s environment variable", valuation.EnvPolygonKey)
		}
		return polygon.New(cfg.PolygonKey), nil
	case "static":
		if cfg.QuotesFile == "" {
			return nil, fmt.Errorf("the static provider requires a quotes_file")
		}
		f, err := os.Open(cfg.QuotesFile)
		if err != nil {
			return nil, fmt.Errorf("cannot open quotes file: %w", err)
		}
		defer f.Close()
		prices, err := ledger.ReadQuotes(f)
		if err != nil {
			return nil, fmt.Errorf("cannot read quotes file %q: %w", cfg.QuotesFile, err)
		}
		info, err := f.Stat()
		if err != nil {
			return nil, err
		}
		return valuation.StaticProvider{Prices: prices, AsOf: info.ModTime()}, nil
	}
	return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
}

// NewEngine returns the valuation engine configured by cfg.
func NewEngine(cfg valuation.Config) (*valuation.Engine, error) {
	p, err := NewProvider(cfg)
	if err != nil {
		return nil, err
	}
	return valuation.NewEngine(valuation.NewFetcher(p, cfg.Fetch), cfg.Ranking), nil
}

// ReadLedger reads the rows of the application ledger file.
func ReadLedger() ([]valuation.LedgerRow, error) {
	content, err := os.ReadFile(*ledgerFile)
	if err != nil {
		return nil, fmt.Errorf("cannot read ledger: %w", err)
	}
	rows, err := ledger.Parse(content)
	if err != nil {
		return nil, fmt.Errorf("cannot parse ledger %q: %w", *ledgerFile, err)
	}
	return rows, nil
}

// printMarkdown prints markdown to the terminal, as is when it cannot be styled.
func printMarkdown(md string) {
	out, err := renderer.Terminal(md, 0)
	if err != nil {
		log.Debugf("cannot style markdown: %v", err)
		out = md
	}
	fmt.Print(out)
}

// setRank overrides the ranking key of cfg if rank is set.
func setRank(cfg *valuation.Config, rank string) error {
	if rank == "" {
		return nil
	}
	key, err := valuation.ParseRankingKey(rank)
	if err != nil {
		return err
	}
	cfg.Ranking = key
	return nil
}

func runReport(ctx context.Context, cfg valuation.Config) (*valuation.Report, error) {
	rows, err := ReadLedger()
	if err != nil {
		return nil, err
	}
	engine, err := NewEngine(cfg)
	if err != nil {
		return nil, err
	}
	return engine.Run(ctx, rows), nil
}
