package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/etnz/valuation/docs"
	"github.com/google/subcommands"
)

type topicCmd struct {
	list bool
}

func (*topicCmd) Name() string     { return "topic" }
func (*topicCmd) Synopsis() string { return "read the pvr manual: metrics, ledger, providers, config, dashboard" }
func (*topicCmd) Usage() string {
	return `pvr topic [-list] [<topic>...]

  Print manual pages about how positions are valued and how pvr is set up.
  Without a topic the overview is printed, "*" prints every page in turn.

  Examples:
    pvr topic metrics      how each column of the report is computed
    pvr topic -list        the available pages and their titles
`
}

func (c *topicCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.list, "list", false, "list the manual pages instead of printing them")
}

func (c *topicCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.list {
		index, err := topicIndex()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error listing manual pages: %v\n", err)
			return subcommands.ExitFailure
		}
		printMarkdown(index)
		return subcommands.ExitSuccess
	}

	topics := f.Args()
	if len(topics) == 0 {
		topics = []string{"readme"}
	}
	page, err := docs.GetTopics(topics...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading manual page: %v\n", err)
		fmt.Fprintln(os.Stderr, "Run 'pvr topic -list' to see the available pages.")
		return subcommands.ExitFailure
	}
	printMarkdown(page)
	return subcommands.ExitSuccess
}

// topicIndex returns a markdown list of the manual pages and their titles.
func topicIndex() (string, error) {
	topics, err := docs.GetAllTopics()
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString("# pvr manual\n\n")
	for _, topic := range topics {
		title, err := docs.Title(topic)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "* `%s`: %s\n", topic, title)
	}
	return b.String(), nil
}
