package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/etnz/valuation"
	"github.com/etnz/valuation/docs"
	"github.com/etnz/valuation/renderer"
	"google.golang.org/genai"
)

const model = "gemini-2.5-pro"

// ReportSource computes the current valuation report, ranked by key.
type ReportSource func(ctx context.Context, key valuation.RankingKey) (*valuation.Report, error)

// creates the facilitator
func newFacilitator(experts ...*Expert) *Expert {
	return &Expert{
		Name:        "Facilitator",
		Description: ``,
		ModelName:   model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{FunctionDeclarations: NewDeclaration(experts)},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
			As a facilitator you are in charge of the conversation and solving the user's request.

			Learn about the expert's skill that you can get from the Tools to ask them questions.
			They are at your service and 100% dedicated to you, they keep context of your previous questions.

			The user holds stock and option positions, and is here to understand how they are valued:
			which ones perform, which option is worth exercising, what an unavailable quote means.

			Devise a plan of questions to ask to each experts and come up with the best response to the user's request.
			Answer in markdown.

			The user will assume that you know about his positions, ask the Analyst first to understand what they are.
		`}}},
		},
		Library: NewLibrary(experts),
	}
}

func NewTrader() *Expert {
	return &Expert{
		Name: "Trader",
		Description: `This is an expert trader,
		Very well aware of all the financial products and institutions,
		about the latest news about the different companies and their options.
		Ask the Trader whenever you need recent or grounding information.`,
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{GoogleSearch: &genai.GoogleSearch{}},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
			You are a expert in Trading, you can search and find about anything related to
			financial institutions, companies, markets, options etc. You Leverage Google Search to
			ground your assertions in a solid truth.
			You can get the latests news too, and you know how to relate them to the user's request.
				`}}},
		},
	}
}

// NewAnalyst returns the expert reading the valuation reports of the user's positions.
func NewAnalyst(source ReportSource) *Expert {
	lib := []Function{ReportTool(source), PositionTool(source), DocTool()}

	return &Expert{
		Name: "Analyst",
		Description: `This is the Analyst. He is in charge of valuing the user's stock and option positions.
		He knows the current price, value, gain and option metrics of every position, and how they are computed.`,
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{FunctionDeclarations: NewDeclaration(lib)},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
				You are an analyst in charge of the valuation of the user's positions.
				You know how to use the Tools to extract relevant information about the positions.
				You are part of a team of experts, yours is everything about the user's positions. They might ask
				you questions about them, pardon their approximative language and figure out what they meant.

				Use the available tools to get
				  - the ranked valuation report
				  - the detailed metrics of a single position
				  - the documentation of how each metric is computed

				A metric reported as n/a is unavailable, never treat it as zero.
			`}}},
		},
		Library: NewLibrary(lib),
	}
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

// ReportTool returns the function rendering the current report in markdown.
func ReportTool(source ReportSource) *Func {
	const name = "Report"
	return &Func{
		Decl: &genai.FunctionDeclaration{
			Name:        name,
			Description: `Report values every position of the user, ranks them, and lists unavailable quotes and rejected ledger rows.`,
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"rank": {
						Type: genai.TypeString,
						Description: `The metric to rank positions by, "auto" by default.
						It is one of ` + rankingKeys() + `.`,
					},
				},
			},
			Response: &genai.Schema{
				Type:        genai.TypeString,
				Description: "A markdown report with a ranked summary table, charts and issues.",
			},
		},
		Func: func(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
			key, err := parseRank(args)
			if err != nil {
				return errorResponse(id, name, err)
			}
			r, err := source(ctx, key)
			if err != nil {
				return errorResponse(id, name, err)
			}
			return outputResponse(id, name, renderer.Markdown(r, renderer.Options{}))
		},
	}
}

// PositionTool returns the function detailing the metrics of the positions of a symbol.
func PositionTool(source ReportSource) *Func {
	const name = "Position"
	return &Func{
		Decl: &genai.FunctionDeclaration{
			Name:        name,
			Description: `Position returns every metric of the positions on a symbol, as JSON. Unavailable metrics are null.`,
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"symbol": {
						Type:        genai.TypeString,
						Description: "The ticker symbol, like AAPL.",
					},
				},
				Required: []string{"symbol"},
			},
			Response: &genai.Schema{
				Type:        genai.TypeString,
				Description: "A JSON array of the metrics of each position on the symbol.",
			},
		},
		Func: func(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
			symbol, ok := args["symbol"].(string)
			if !ok || strings.TrimSpace(symbol) == "" {
				return errorResponse(id, name, fmt.Errorf("argument 'symbol' is required"))
			}
			symbol = strings.ToUpper(strings.TrimSpace(symbol))

			r, err := source(ctx, valuation.RankAuto)
			if err != nil {
				return errorResponse(id, name, err)
			}
			var found []valuation.PositionMetrics
			for _, row := range r.Rows {
				if row.Metrics.Symbol == symbol {
					found = append(found, row.Metrics)
				}
			}
			if len(found) == 0 {
				return errorResponse(id, name, fmt.Errorf("no position on %s", symbol))
			}
			content, err := json.Marshal(found)
			if err != nil {
				return errorResponse(id, name, err)
			}
			return outputResponse(id, name, string(content))
		},
	}
}

// DocTool returns the function reading the documentation.
func DocTool() *Func {
	const name = "Documentation"
	topics := must(docs.GetAllTopics())
	return &Func{
		Decl: &genai.FunctionDeclaration{
			Name:        name,
			Description: `Documentation returns the user manual about a topic. "metrics" explains how every metric is computed.`,
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"topic": {
						Type:        genai.TypeString,
						Description: "The topic, one of " + strings.Join(topics, ", ") + ".",
						Enum:        topics,
					},
				},
				Required: []string{"topic"},
			},
			Response: &genai.Schema{
				Type:        genai.TypeString,
				Description: "The markdown documentation of the topic.",
			},
		},
		Func: func(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
			topic, _ := args["topic"].(string)
			doc, err := docs.GetTopic(topic)
			if err != nil {
				return errorResponse(id, name, err)
			}
			return outputResponse(id, name, doc)
		},
	}
}

func rankingKeys() string {
	keys := []string{string(valuation.RankAuto)}
	for _, m := range valuation.Metrics {
		keys = append(keys, string(m))
	}
	return strings.Join(keys, ", ")
}

func parseRank(args map[string]any) (valuation.RankingKey, error) {
	irank, ok := args["rank"]
	if !ok {
		return valuation.RankAuto, nil
	}
	srank, ok := irank.(string)
	if !ok {
		return "", fmt.Errorf("argument 'rank' is not a string as expected but %T", irank)
	}
	return valuation.ParseRankingKey(srank)
}
