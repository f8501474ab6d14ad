package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/etnz/valuation/renderer"
	"github.com/etnz/valuation/server"
	"github.com/google/subcommands"
	log "github.com/sirupsen/logrus"
)

// serveCmd serves the valuation dashboard.
type serveCmd struct {
	addr     string
	rank     string
	provider string
	cors     bool
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "serve the valuation report over HTTP" }
func (*serveCmd) Usage() string {
	return `pvr serve [-addr <host:port>] [-rank <metric>]

  Serves the valuation report of the ledger as HTML, markdown and JSON.
  Reports are cached for the configured report_bucket, see 'pvr topic dashboard'.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.addr, "addr", "localhost:8080", "Address to listen on.")
	f.StringVar(&c.rank, "rank", "", "Ranking metric, overrides the configuration.")
	f.StringVar(&c.provider, "provider", "", "Quote provider (yahoo, eodhd, polygon, static), overrides the configuration.")
	f.BoolVar(&c.cors, "cors", false, "Allow cross origin requests from any origin.")
}

func (c *serveCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := setRank(&cfg, c.rank); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	if c.provider != "" {
		cfg.Provider = c.provider
	}
	engine, err := NewEngine(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	path := *ledgerFile
	srv := server.New(server.Config{
		Addr:     c.addr,
		Ledger:   func() ([]byte, error) { return os.ReadFile(path) },
		Engine:   engine,
		Bucket:   cfg.ReportBucket,
		Render:   renderer.Options{Currency: cfg.Currency},
		CORSOpen: c.cors,
	})

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdown); err != nil {
			log.Errorf("shutdown: %v", err)
		}
	}()

	fmt.Printf("Serving %s on http://%s\n", path, c.addr)
	if err := srv.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Error serving: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
