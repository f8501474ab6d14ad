package agent

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/etnz/valuation"
	"github.com/shopspring/decimal"
	"google.golang.org/genai"
)

// testSource values an AAPL stock and an XYZ call on 2025-02-03.
func testSource(t *testing.T) ReportSource {
	t.Helper()
	now := time.Date(2025, time.February, 3, 14, 30, 0, 0, time.UTC)
	provider := valuation.StaticProvider{
		Prices: map[string]decimal.Decimal{
			"AAPL": decimal.NewFromInt(120),
			"XYZ":  decimal.NewFromInt(100),
		},
		AsOf: now.Add(-24 * time.Hour),
	}
	rows := []valuation.LedgerRow{
		{Line: 2, Symbol: "AAPL", Quantity: "10", CostBasis: "1000"},
		{Line: 3, Symbol: "XYZ", Quantity: "5", CostBasis: "500", StrikePrice: "110", OptionType: "Call", ExpirationDate: "2025-03-05"},
	}
	return func(ctx context.Context, key valuation.RankingKey) (*valuation.Report, error) {
		e := valuation.NewEngine(valuation.NewFetcher(provider, valuation.FetchConfig{Concurrency: 2}), key)
		e.Now = func() time.Time { return now }
		return e.Run(ctx, rows), nil
	}
}

func output(t *testing.T, resp *genai.FunctionResponse) string {
	t.Helper()
	if e, ok := resp.Response["error"]; ok {
		t.Fatalf("unexpected error response: %v", e)
	}
	s, ok := resp.Response["output"].(string)
	if !ok {
		t.Fatalf("output is %T, want string", resp.Response["output"])
	}
	return s
}

func TestLibrary(t *testing.T) {
	lib := NewLibrary([]Function{ReportTool(testSource(t)), DocTool()})

	resp := lib(context.Background(), &genai.FunctionCall{ID: "1", Name: "Documentation", Args: map[string]any{"topic": "metrics"}})
	if got, want := resp.ID, "1"; got != want {
		t.Errorf("ID = %q, want %q", got, want)
	}
	if got := output(t, resp); !strings.Contains(got, "APR @ Strike") {
		t.Errorf("Documentation(metrics) does not document APR @ Strike:\n%s", got)
	}

	resp = lib(context.Background(), &genai.FunctionCall{ID: "2", Name: "Nope"})
	if got, want := resp.Response["error"], "unknown function Nope"; got != want {
		t.Errorf("unknown function error = %v, want %q", got, want)
	}
}

func TestNewDeclaration(t *testing.T) {
	decls := NewDeclaration([]Function{ReportTool(nil), PositionTool(nil), DocTool()})
	var names []string
	for _, d := range decls {
		names = append(names, d.Name)
	}
	if got, want := strings.Join(names, ","), "Report,Position,Documentation"; got != want {
		t.Errorf("declarations = %q, want %q", got, want)
	}
}

func TestReportTool(t *testing.T) {
	tool := ReportTool(testSource(t))

	got := output(t, tool.Call(context.Background(), "1", map[string]any{}))
	if !strings.Contains(got, "| 1 | XYZ 110 Call 2025-03-05 |") {
		t.Errorf("auto ranked report does not rank XYZ first:\n%s", got)
	}

	got = output(t, tool.Call(context.Background(), "2", map[string]any{"rank": "gain_pct"}))
	if !strings.Contains(got, "| 1 | AAPL |") {
		t.Errorf("report ranked by gain_pct does not rank AAPL first:\n%s", got)
	}

	resp := tool.Call(context.Background(), "3", map[string]any{"rank": "bogus"})
	if _, ok := resp.Response["error"]; !ok {
		t.Errorf("invalid rank did not fail: %v", resp.Response)
	}
}

func TestReportTool_SourceError(t *testing.T) {
	failing := func(context.Context, valuation.RankingKey) (*valuation.Report, error) {
		return nil, errors.New("ledger unreadable")
	}
	resp := ReportTool(failing).Call(context.Background(), "1", nil)
	if got, want := resp.Response["error"], "ledger unreadable"; got != want {
		t.Errorf("error = %v, want %q", got, want)
	}
}

func TestPositionTool(t *testing.T) {
	tool := PositionTool(testSource(t))

	got := output(t, tool.Call(context.Background(), "1", map[string]any{"symbol": " xyz "}))
	for _, want := range []string{`"symbol":"XYZ"`, `"strikeValue":"550"`, `"daysToExpiration":30`} {
		if !strings.Contains(got, want) {
			t.Errorf("Position(xyz) = %s, want it to contain %s", got, want)
		}
	}

	resp := tool.Call(context.Background(), "2", map[string]any{"symbol": "MSFT"})
	if got, want := resp.Response["error"], "no position on MSFT"; got != want {
		t.Errorf("error = %v, want %q", got, want)
	}

	resp = tool.Call(context.Background(), "3", map[string]any{})
	if _, ok := resp.Response["error"]; !ok {
		t.Errorf("missing symbol did not fail: %v", resp.Response)
	}
}

func TestExpert_Call_InvalidQuestion(t *testing.T) {
	e := NewExpert("Analyst", "values positions")
	resp := e.Call(context.Background(), "1", map[string]any{"question": 42})
	if got, want := resp.Response["error"], "invalid type got int, expected string"; got != want {
		t.Errorf("error = %v, want %q", got, want)
	}
}

func TestExpert_Call_NotStarted(t *testing.T) {
	e := NewExpert("Analyst", "values positions")
	resp := e.Call(context.Background(), "1", map[string]any{"question": "how much?"})
	got, _ := resp.Response["error"].(string)
	if !strings.Contains(got, "expert Analyst is not started") {
		t.Errorf("error = %q, want it to mention the expert is not started", got)
	}
}

func TestAgent_Run_Bye(t *testing.T) {
	var w strings.Builder
	a := New(&w, strings.NewReader("bye\n"))
	a.Facilitator.chat = &genai.Chat{}
	if err := a.Run(context.Background(), nil); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	want := "pvr assist: ask about your positions and their valuation.\n" +
		"Type 'bye' or press Ctrl+D to leave.\n" +
		"pvr> "
	if got := w.String(); got != want {
		t.Errorf("Run() output = %q, want %q", got, want)
	}
}

func TestAgent_Run_Queued(t *testing.T) {
	var w strings.Builder
	a := New(&w, strings.NewReader(""), NewExpert("Analyst", "values positions"))
	a.Facilitator.chat = &genai.Chat{}
	if err := a.Run(context.Background(), nil, "  ", " QUIT "); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	want := "pvr assist (Analyst): ask about your positions and their valuation.\n" +
		"Type 'bye' or press Ctrl+D to leave.\n" +
		"pvr> \n" +
		"pvr> QUIT\n"
	if got := w.String(); got != want {
		t.Errorf("Run() output = %q, want %q", got, want)
	}
}

func TestAgent_Run_EOF(t *testing.T) {
	var w strings.Builder
	a := New(&w, strings.NewReader("\n"))
	a.Facilitator.chat = &genai.Chat{}
	if err := a.Run(context.Background(), nil); err != nil {
		t.Fatalf("Run() error = %v, want a clean exit", err)
	}
	if got, want := strings.Count(w.String(), prompt), 2; got != want {
		t.Errorf("prompts = %d, want %d", got, want)
	}
}
