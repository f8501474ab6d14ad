package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/etnz/valuation"
	"github.com/etnz/valuation/agent"
	"github.com/etnz/valuation/renderer"
	"github.com/google/subcommands"
	"google.golang.org/genai"
)

// assistCmd is the subcommand for the AI assistant.
type assistCmd struct{}

func (*assistCmd) Name() string { return "assist" }
func (*assistCmd) Synopsis() string {
	return "start an interactive session with the AI assistant about your positions"
}
func (*assistCmd) Usage() string {
	return `pvr assist [<prompt>]

  Start an interactive session with the AI assistant. It reads the valuation
  report of the ledger, and can search for recent news.

  Requires the GEMINI_API_KEY environment variable to be set.
`
}

func (*assistCmd) SetFlags(_ *flag.FlagSet) {}

func (c *assistCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	initialPrompt := ""
	if f.NArg() > 0 {
		initialPrompt = strings.Join(f.Args(), " ")
	}

	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		return subcommands.ExitFailure
	}
	if cfg.GeminiKey == "" {
		fmt.Fprintf(os.Stderr, "Error: Gemini API key is not set, use the %s environment variable\n", valuation.EnvGeminiKey)
		return subcommands.ExitFailure
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.GeminiKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error initializing Gemini's client:", err)
		return subcommands.ExitFailure
	}

	source := func(ctx context.Context, key valuation.RankingKey) (*valuation.Report, error) {
		cfg := cfg
		cfg.Ranking = key
		return runReport(ctx, cfg)
	}

	a := agent.New(os.Stdout, os.Stdin, agent.NewAnalyst(source), agent.NewTrader())
	a.Render = func(md string) string {
		out, err := renderer.Terminal(md, 0)
		if err != nil {
			return md
		}
		return out
	}

	if err := a.Run(ctx, client, initialPrompt); err != nil {
		fmt.Fprintln(os.Stderr, "Agent failed:", err)
		return subcommands.ExitFailure
	}

	return subcommands.ExitSuccess
}
