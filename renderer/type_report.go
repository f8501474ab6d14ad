package renderer

import (
	"fmt"
	"strconv"

	"github.com/etnz/valuation"
	"github.com/etnz/valuation/date"
)

// Report is the presentation model of a valuation report.
//
// Numbers keep their exact decimal value, they are only formatted by the
// templates through Amount and Percent.
type Report struct {
	Title      string
	On         date.Date
	Generated  string
	RankedBy   string
	Currency   string
	HasOptions bool
	Rows       []Row
	Totals     Totals
	Charts     []Chart
	Faults     []string
	Rejected   []string
}

// Row is a position line of the summary table.
type Row struct {
	Rank         int
	Position     string
	Quantity     string
	Price        Amount
	AsOf         date.Date
	CurrentValue Amount
	CostValue    Amount
	GainLoss     Amount
	GainPct      Percent

	Option               bool
	StrikeValue          Amount
	LiquidationValue     Amount
	OptionExerciseValue  Amount
	TotalPctGainAtStrike Percent
	AprAtStrike          Percent
	DaysToExpiration     string
}

// Totals sums the present values of the summary columns.
type Totals struct {
	CurrentValue Amount
	CostValue    Amount
	GainLoss     Amount
}

// Options tune the presentation.
type Options struct {
	Title    string
	Currency string
	// ChartWidth is the length of the longest bar.
	ChartWidth int
}

func (o Options) withDefaults() Options {
	if o.Title == "" {
		o.Title = DefaultTitle
	}
	if o.Currency == "" {
		o.Currency = "USD"
	}
	if o.ChartWidth <= 0 {
		o.ChartWidth = 30
	}
	return o
}

// NewReport creates the presentation model of r.
func NewReport(r *valuation.Report, opts Options) *Report {
	opts = opts.withDefaults()
	amount := func(v valuation.Value) Amount { return Amount{Value: v, Currency: opts.Currency} }

	v := &Report{
		Title:      opts.Title,
		On:         r.On,
		Generated:  r.Generated.Format("2006-01-02 15:04:05"),
		RankedBy:   r.RankedBy.Title(),
		Currency:   opts.Currency,
		HasOptions: r.HasOptions(),
		Rows:       make([]Row, 0, len(r.Rows)),
		Totals: Totals{
			CurrentValue: amount(r.Totals(valuation.MetricCurrentValue)),
			CostValue:    amount(r.Totals(valuation.MetricCostValue)),
			GainLoss:     amount(r.Totals(valuation.MetricGainLoss)),
		},
	}

	for _, row := range r.Rows {
		m := row.Metrics
		vr := Row{
			Rank:         row.Rank,
			Position:     m.Label,
			Quantity:     m.Quantity.String(),
			Price:        amount(m.Price),
			AsOf:         m.AsOf,
			CurrentValue: amount(m.CurrentValue),
			CostValue:    amount(m.CostValue),
			GainLoss:     amount(m.GainLoss),
			GainPct:      Percent{m.GainPct},
		}
		if o := m.Option; o != nil {
			vr.Option = true
			vr.StrikeValue = amount(o.StrikeValue)
			vr.LiquidationValue = amount(o.LiquidationValue)
			vr.OptionExerciseValue = amount(o.OptionExerciseValue)
			vr.TotalPctGainAtStrike = Percent{o.TotalPctGainAtStrike}
			vr.AprAtStrike = Percent{o.AprAtStrike}
			if !o.Expiration.IsZero() {
				vr.DaysToExpiration = strconv.Itoa(o.DaysToExpiration)
			}
		}
		v.Rows = append(v.Rows, vr)
	}

	for _, m := range []valuation.Metric{valuation.MetricGainLoss, valuation.MetricCurrentValue} {
		if c := newChart(r.SeriesOf(m), opts); len(c.Lines) > 0 {
			v.Charts = append(v.Charts, c)
		}
	}
	if v.HasOptions {
		if c := newChart(r.SeriesOf(valuation.MetricAprAtStrike), opts); len(c.Lines) > 0 {
			v.Charts = append(v.Charts, c)
		}
	}

	for _, f := range r.Faults {
		v.Faults = append(v.Faults, fmt.Sprintf("%s: %v", f.Symbol, f.Err))
	}
	for _, rr := range r.Rejected {
		v.Rejected = append(v.Rejected, rr.Error())
	}
	return v
}
