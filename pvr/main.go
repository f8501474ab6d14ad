// Command pvr values a ledger of stock and option positions.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/etnz/valuation"
	"github.com/etnz/valuation/cmd"
	"github.com/etnz/valuation/docs"
	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

func main() {
	name := path.Base(os.Args[0])
	completion(name).Complete(name)

	commander := subcommands.NewCommander(flag.CommandLine, name)
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	cmd.Register(commander)

	flag.Parse()

	if sub := flag.Arg(0); sub != "" && !known(sub) {
		if found, code := cmd.RunExtension(sub, flag.Args()[1:]); found {
			os.Exit(code)
		}
	}
	os.Exit(int(commander.Execute(context.Background())))
}

func known(name string) bool {
	switch name {
	case "help", "flags", "commands":
		return true
	}
	for _, c := range cmd.Commands() {
		if c.Name() == name {
			return true
		}
	}
	return false
}

// completion describes the command line for shell completion.
func completion(name string) *complete.Command {
	root := &complete.Command{
		Sub: map[string]*complete.Command{},
		Flags: map[string]complete.Predictor{
			"config": predict.Files("*.yaml"),
			"ledger": predict.Files("*.csv"),
			"v":      predict.Nothing,
		},
	}
	for _, c := range cmd.Commands() {
		fs := flag.NewFlagSet(c.Name(), flag.ContinueOnError)
		c.SetFlags(fs)
		sub := &complete.Command{Flags: map[string]complete.Predictor{}}
		fs.VisitAll(func(f *flag.Flag) {
			sub.Flags[f.Name] = flagPredictor(f.Name)
		})
		root.Sub[c.Name()] = sub
	}
	if topics, err := docs.GetAllTopics(); err == nil {
		root.Sub["topic"].Args = predict.Set(topics)
	}
	return root
}

func flagPredictor(name string) complete.Predictor {
	switch name {
	case "format":
		return predict.Set{"md", "term", "table", "html", "json"}
	case "provider":
		return predict.Set{"yahoo", "eodhd", "polygon", "static"}
	case "rank":
		keys := predict.Set{string(valuation.RankAuto)}
		for _, m := range valuation.Metrics {
			keys = append(keys, string(m))
		}
		return keys
	case "cors":
		return predict.Nothing
	}
	return predict.Something
}
