package valuation

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/etnz/valuation/date"
)

func TestCompute_Equity(t *testing.T) {
	m := Calculator{On: runDate}.Compute(stock("AAPL", "10", "1000"), quote("AAPL", "120"))

	if got, want := m.CurrentValue, V(1200); !got.Equal(want) {
		t.Errorf("CurrentValue = %v, want %v", got, want)
	}
	if got, want := m.CostValue, V(1000); !got.Equal(want) {
		t.Errorf("CostValue = %v, want %v", got, want)
	}
	if got, want := m.GainLoss, V(200); !got.Equal(want) {
		t.Errorf("GainLoss = %v, want %v", got, want)
	}
	if got, want := m.GainPct, V(20); !got.Equal(want) {
		t.Errorf("GainPct = %v, want %v", got, want)
	}
	if m.Option != nil {
		t.Errorf("Option = %+v, want nil for an equity", m.Option)
	}
	if got, want := m.AsOf, date.New(2025, time.January, 31); got != want {
		t.Errorf("AsOf = %v, want %v", got, want)
	}
}

func TestCompute_CallUnderwater(t *testing.T) {
	p := option("XYZ", "5", "500", Call, "110", runDate.Add(30))
	m := Calculator{On: runDate}.Compute(p, quote("XYZ", "100"))
	o := m.Option
	if o == nil {
		t.Fatal("Option = nil, want option metrics")
	}

	if got, want := o.OptionExerciseValue, V(0); !got.Equal(want) {
		t.Errorf("OptionExerciseValue = %v, want %v", got, want)
	}
	if got, want := o.StrikeValue, V(550); !got.Equal(want) {
		t.Errorf("StrikeValue = %v, want %v", got, want)
	}
	if got, want := o.LiquidationValue, V(500); !got.Equal(want) {
		t.Errorf("LiquidationValue = %v, want %v", got, want)
	}
	if got, want := o.TotalPctGainAtStrike, V(10); !got.Equal(want) {
		t.Errorf("TotalPctGainAtStrike = %v, want %v", got, want)
	}
	if got, want := o.DaysToExpiration, 30; got != want {
		t.Errorf("DaysToExpiration = %d, want %d", got, want)
	}
	if got, want := o.AprAtStrike.Round(2), V(D("121.67")); !got.Equal(want) {
		t.Errorf("AprAtStrike = %v, want %v", got, want)
	}
}

func TestCompute_Intrinsic(t *testing.T) {
	exp := runDate.Add(60)
	tests := []struct {
		name  string
		p     Position
		price string
		want  Value
	}{
		{"call in the money", option("XYZ", "5", "500", Call, "110", exp), "130", V(100)},
		{"call at the money", option("XYZ", "5", "500", Call, "110", exp), "110", V(0)},
		{"put in the money", option("XYZ", "2", "500", Put, "110", exp), "100", V(20)},
		{"put underwater", option("XYZ", "2", "500", Put, "110", exp), "120", V(0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Calculator{On: runDate}.Compute(tt.p, quote("XYZ", tt.price))
			if got := m.Option.OptionExerciseValue; !got.Equal(tt.want) {
				t.Errorf("OptionExerciseValue = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCompute_MissingQuote(t *testing.T) {
	p := option("DELIST", "5", "500", Call, "110", runDate.Add(30))
	m := Calculator{On: runDate}.Compute(p, MissingQuote("DELIST", asOf, ErrSymbolNotFound))

	if m.PriceAvailable() {
		t.Errorf("PriceAvailable() = true, want false")
	}
	for _, v := range []Value{m.Price, m.CurrentValue, m.GainLoss, m.GainPct, m.Option.LiquidationValue, m.Option.OptionExerciseValue, m.Option.AprAtStrike} {
		if !v.IsMissing() {
			t.Errorf("got %v, want Missing", v)
		}
	}
	// Fields not depending on the price are still computed.
	if got, want := m.CostValue, V(500); !got.Equal(want) {
		t.Errorf("CostValue = %v, want %v", got, want)
	}
	if got, want := m.Option.StrikeValue, V(550); !got.Equal(want) {
		t.Errorf("StrikeValue = %v, want %v", got, want)
	}
	if !m.AsOf.IsZero() {
		t.Errorf("AsOf = %v, want zero", m.AsOf)
	}
}

func TestCompute_ZeroCost(t *testing.T) {
	p := option("GIFT", "10", "0", Call, "10", runDate.Add(30))
	m := Calculator{On: runDate}.Compute(p, quote("GIFT", "12"))

	if got, want := m.GainLoss, V(120); !got.Equal(want) {
		t.Errorf("GainLoss = %v, want %v", got, want)
	}
	if !m.GainPct.IsMissing() {
		t.Errorf("GainPct = %v, want Missing", m.GainPct)
	}
	if !m.Option.TotalPctGainAtStrike.IsMissing() {
		t.Errorf("TotalPctGainAtStrike = %v, want Missing", m.Option.TotalPctGainAtStrike)
	}
	if !m.Option.AprAtStrike.IsMissing() {
		t.Errorf("AprAtStrike = %v, want Missing", m.Option.AprAtStrike)
	}
}

func TestCompute_Expiration(t *testing.T) {
	tests := []struct {
		name string
		exp  date.Date
	}{
		{"unknown", date.Date{}},
		{"today", runDate},
		{"expired", runDate.Add(-3)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := option("XYZ", "5", "500", Call, "110", tt.exp)
			m := Calculator{On: runDate}.Compute(p, quote("XYZ", "100"))
			if !m.Option.AprAtStrike.IsMissing() {
				t.Errorf("AprAtStrike = %v, want Missing", m.Option.AprAtStrike)
			}
			if m.Option.TotalPctGainAtStrike.IsMissing() {
				t.Errorf("TotalPctGainAtStrike should not depend on the expiration")
			}
		})
	}
}

func TestCompute_Deterministic(t *testing.T) {
	c := Calculator{On: runDate}
	p := option("XYZ", "3", "250.10", Put, "95.5", runDate.Add(17))
	q := quote("XYZ", "87.33")

	a, err := json.Marshal(c.Compute(p, q))
	if err != nil {
		t.Fatal(err)
	}
	b, err := json.Marshal(c.Compute(p, q))
	if err != nil {
		t.Fatal(err)
	}
	if string(a) != string(b) {
		t.Errorf("Compute is not deterministic:\n%s\n%s", a, b)
	}
}

func TestComputeAll(t *testing.T) {
	positions := []Position{
		stock("AAPL", "10", "1000"),
		stock("DELIST", "1", "10"),
		option("AAPL", "-1", "-300", Call, "130", runDate.Add(45)),
	}
	quotes := Quotes{"AAPL": quote("AAPL", "120")}

	metrics := Calculator{On: runDate}.ComputeAll(positions, quotes)
	if got, want := len(metrics), len(positions); got != want {
		t.Fatalf("len(ComputeAll()) = %d, want %d", got, want)
	}
	for i, m := range metrics {
		if m.Symbol != positions[i].Symbol {
			t.Errorf("metrics[%d].Symbol = %q, want %q", i, m.Symbol, positions[i].Symbol)
		}
	}
	if !metrics[1].CurrentValue.IsMissing() {
		t.Errorf("DELIST CurrentValue = %v, want Missing", metrics[1].CurrentValue)
	}
	if got, want := metrics[2].CurrentValue, V(-120); !got.Equal(want) {
		t.Errorf("short call CurrentValue = %v, want %v", got, want)
	}
}

func TestPositionMetrics_MarshalJSON(t *testing.T) {
	m := Calculator{On: runDate}.Compute(stock("DELIST", "1", "10"), MissingQuote("DELIST", asOf, ErrSymbolNotFound))
	b, err := json.Marshal(m)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"symbol":"DELIST","label":"DELIST","quantity":"1","price":null,"currentValue":null,"costValue":"10","gainLoss":null,"gainPct":null}`
	if got := string(b); got != want {
		t.Errorf("MarshalJSON() = %s, want %s", got, want)
	}
}

func TestRatioPct(t *testing.T) {
	if got := ratioPct("T", "ratio", V(1), V(0)); !got.IsMissing() {
		t.Errorf("ratioPct(1, 0) = %v, want Missing", got)
	}
	if got, want := ratioPct("T", "ratio", V(1), V(4)), V(25); !got.Equal(want) {
		t.Errorf("ratioPct(1, 4) = %v, want %v", got, want)
	}
}
