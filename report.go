package valuation

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/etnz/valuation/date"
	"github.com/montanaflynn/stats"
)

// Metric names a numeric field of PositionMetrics.
type Metric string

const (
	MetricCurrentValue         Metric = "current_value"
	MetricCostValue            Metric = "cost_value"
	MetricGainLoss             Metric = "gain_loss"
	MetricGainPct              Metric = "gain_pct"
	MetricStrikeValue          Metric = "strike_value"
	MetricLiquidationValue     Metric = "liquidation_value"
	MetricOptionExerciseValue  Metric = "option_exercise_value"
	MetricTotalPctGainAtStrike Metric = "total_pct_gain_at_strike"
	MetricAprAtStrike          Metric = "apr_at_strike"
)

// Metrics lists all metrics in presentation order.
var Metrics = []Metric{
	MetricCurrentValue,
	MetricCostValue,
	MetricGainLoss,
	MetricGainPct,
	MetricStrikeValue,
	MetricLiquidationValue,
	MetricOptionExerciseValue,
	MetricTotalPctGainAtStrike,
	MetricAprAtStrike,
}

// IsOption reports whether the metric only exists for option positions.
func (m Metric) IsOption() bool {
	switch m {
	case MetricStrikeValue, MetricLiquidationValue, MetricOptionExerciseValue,
		MetricTotalPctGainAtStrike, MetricAprAtStrike:
		return true
	}
	return false
}

// Title is the column title of the metric.
func (m Metric) Title() string {
	switch m {
	case MetricCurrentValue:
		return "Current Value"
	case MetricCostValue:
		return "Cost Value"
	case MetricGainLoss:
		return "Gain/Loss"
	case MetricGainPct:
		return "Gain %"
	case MetricStrikeValue:
		return "Strike Value"
	case MetricLiquidationValue:
		return "Liquidation Value"
	case MetricOptionExerciseValue:
		return "Option Exercise Value"
	case MetricTotalPctGainAtStrike:
		return "Total % Gain @ Strike"
	case MetricAprAtStrike:
		return "APR @ Strike"
	}
	return string(m)
}

// IsPercent reports whether the metric is expressed in percent.
func (m Metric) IsPercent() bool {
	return m == MetricGainPct || m == MetricTotalPctGainAtStrike || m == MetricAprAtStrike
}

// Get returns the value of metric m, Missing for option metrics of plain equities.
func (pm PositionMetrics) Get(m Metric) Value {
	switch m {
	case MetricCurrentValue:
		return pm.CurrentValue
	case MetricCostValue:
		return pm.CostValue
	case MetricGainLoss:
		return pm.GainLoss
	case MetricGainPct:
		return pm.GainPct
	}
	o := pm.Option
	if o == nil {
		return Missing
	}
	switch m {
	case MetricStrikeValue:
		return o.StrikeValue
	case MetricLiquidationValue:
		return o.LiquidationValue
	case MetricOptionExerciseValue:
		return o.OptionExerciseValue
	case MetricTotalPctGainAtStrike:
		return o.TotalPctGainAtStrike
	case MetricAprAtStrike:
		return o.AprAtStrike
	}
	return Missing
}

// RankingKey selects the metric used to rank the summary.
type RankingKey string

// RankAuto ranks by TotalPctGainAtStrike when any row has one, by GainPct otherwise.
const RankAuto RankingKey = "auto"

// ParseRankingKey parses "auto" or any metric name.
func ParseRankingKey(s string) (RankingKey, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == string(RankAuto) {
		return RankAuto, nil
	}
	for _, m := range Metrics {
		if s == string(m) {
			return RankingKey(m), nil
		}
	}
	return "", fmt.Errorf("invalid ranking key %q", s)
}

// Resolve returns the metric the key ranks by, for the given metrics.
func (k RankingKey) Resolve(metrics []PositionMetrics) Metric {
	if k != "" && k != RankAuto {
		return Metric(k)
	}
	for _, m := range metrics {
		if m.Option != nil && !m.Option.TotalPctGainAtStrike.IsMissing() {
			return MetricTotalPctGainAtStrike
		}
	}
	return MetricGainPct
}

// Row is one line of the ranked summary.
type Row struct {
	Rank    int             `json:"rank"`
	Metrics PositionMetrics `json:"metrics"`
	// Unavailable lists the metrics this row misses, and therefore is excluded from.
	Unavailable []Metric `json:"unavailable,omitempty"`
}

// Point is one entry of a chart series.
type Point struct {
	Symbol string  `json:"symbol"`
	Label  string  `json:"label"`
	Value  Value   `json:"value"`
	Float  float64 `json:"-"`
}

// Series is the chart-ready list of present values of a metric, in summary order.
type Series struct {
	Metric Metric  `json:"metric"`
	Points []Point `json:"points"`
}

// SeriesStats summarizes a series for presentation.
type SeriesStats struct {
	Count int     `json:"count"`
	Sum   float64 `json:"sum"`
	Mean  float64 `json:"mean"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

// Floats returns the approximated values of the series.
func (s Series) Floats() []float64 {
	data := make([]float64, len(s.Points))
	for i, p := range s.Points {
		data[i] = p.Float
	}
	return data
}

// Stats summarizes the series. An empty series has zero stats.
func (s Series) Stats() SeriesStats {
	data := stats.Float64Data(s.Floats())
	if data.Len() == 0 {
		return SeriesStats{}
	}
	st := SeriesStats{Count: data.Len()}
	st.Sum, _ = data.Sum()
	st.Mean, _ = data.Mean()
	st.Min, _ = data.Min()
	st.Max, _ = data.Max()
	return st
}

// Aggregate ranks metrics into a summary and reshapes them into per-metric series.
//
// Rows are sorted by descending ranking metric, ties by ascending symbol, and
// rows missing the ranking metric come last. Aggregate never recomputes a
// metric.
func Aggregate(metrics []PositionMetrics, key RankingKey) (rank Metric, rows []Row, series []Series) {
	rank = key.Resolve(metrics)

	rows = make([]Row, len(metrics))
	for i, m := range metrics {
		rows[i] = Row{Metrics: m}
		for _, metric := range Metrics {
			if metric.IsOption() && m.Option == nil {
				continue
			}
			if m.Get(metric).IsMissing() {
				rows[i].Unavailable = append(rows[i].Unavailable, metric)
			}
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].Metrics.Get(rank), rows[j].Metrics.Get(rank)
		switch {
		case a.IsMissing() != b.IsMissing():
			return b.IsMissing()
		case !a.IsMissing():
			if c := a.Cmp(b); c != 0 {
				return c > 0
			}
		}
		return rows[i].Metrics.Symbol < rows[j].Metrics.Symbol
	})
	for i := range rows {
		rows[i].Rank = i + 1
	}

	for _, metric := range Metrics {
		s := Series{Metric: metric, Points: make([]Point, 0, len(rows))}
		for _, r := range rows {
			v := r.Metrics.Get(metric)
			f, ok := v.Float()
			if !ok {
				continue
			}
			s.Points = append(s.Points, Point{Symbol: r.Metrics.Symbol, Label: r.Metrics.Label, Value: v, Float: f})
		}
		series = append(series, s)
	}
	return rank, rows, series
}

// Report is the outcome of a valuation run.
type Report struct {
	RunID     string    `json:"runId"`
	On        date.Date `json:"on"`
	Generated time.Time `json:"generated"`
	// RankedBy is the metric the rows are sorted by.
	RankedBy Metric        `json:"rankedBy"`
	Rows     []Row         `json:"rows"`
	Series   []Series      `json:"series"`
	Rejected []RejectedRow `json:"rejected,omitempty"`
	Faults   []*QuoteFault `json:"faults,omitempty"`
}

// IsEmpty reports whether the report has no row at all.
func (r *Report) IsEmpty() bool { return r == nil || len(r.Rows) == 0 }

// SeriesOf returns the series of metric m.
func (r *Report) SeriesOf(m Metric) Series {
	for _, s := range r.Series {
		if s.Metric == m {
			return s
		}
	}
	return Series{Metric: m}
}

// HasOptions reports whether any row carries option metrics.
func (r *Report) HasOptions() bool {
	for _, row := range r.Rows {
		if row.Metrics.Option != nil {
			return true
		}
	}
	return false
}

// Totals returns the sum of the present values of m over all rows, Missing if none is present.
func (r *Report) Totals(m Metric) Value {
	total := Missing
	for _, row := range r.Rows {
		v := row.Metrics.Get(m)
		if v.IsMissing() {
			continue
		}
		if total.IsMissing() {
			total = v
			continue
		}
		total = total.Add(v)
	}
	return total
}

// Transient reports whether a fault of the report may resolve on a later run.
//
// Unknown symbols are permanent, every other fault (rate limit, timeout,
// cancellation, server error) is transient.
func (r *Report) Transient() bool {
	if r == nil {
		return false
	}
	for _, f := range r.Faults {
		if !errors.Is(f.Err, ErrSymbolNotFound) {
			return true
		}
	}
	return false
}

// Rerank returns a copy of r ranked by key. Metrics are not recomputed.
func (r *Report) Rerank(key RankingKey) *Report {
	metrics := make([]PositionMetrics, len(r.Rows))
	for i, row := range r.Rows {
		metrics[i] = row.Metrics
	}
	c := *r
	c.RankedBy, c.Rows, c.Series = Aggregate(metrics, key)
	return &c
}
