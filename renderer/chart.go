package renderer

import (
	"fmt"
	"math"
	"strings"

	"github.com/etnz/valuation"
)

// Chart is a horizontal bar chart drawn with text.
type Chart struct {
	Title string
	Lines []string
}

const (
	positiveBar = "█"
	negativeBar = "░"
)

// newChart draws one bar per point of s, scaled on the largest absolute value.
func newChart(s valuation.Series, opts Options) Chart {
	c := Chart{Title: s.Metric.Title()}
	if len(s.Points) == 0 {
		return c
	}

	var labelWidth, valueWidth int
	var peak float64
	values := make([]string, len(s.Points))
	for i, p := range s.Points {
		labelWidth = max(labelWidth, len([]rune(p.Label)))
		if s.Metric.IsPercent() {
			values[i] = Percent{p.Value}.String()
		} else {
			values[i] = Amount{Value: p.Value, Currency: opts.Currency}.String()
		}
		valueWidth = max(valueWidth, len([]rune(values[i])))
		peak = math.Max(peak, math.Abs(p.Float))
	}

	for i, p := range s.Points {
		n := 0
		if peak > 0 {
			n = int(math.Round(math.Abs(p.Float) / peak * float64(opts.ChartWidth)))
		}
		bar := positiveBar
		if p.Float < 0 {
			bar = negativeBar
		}
		line := fmt.Sprintf("%-*s %*s %s", labelWidth, p.Label, valueWidth, values[i], strings.Repeat(bar, n))
		c.Lines = append(c.Lines, strings.TrimRight(line, " "))
	}
	return c
}
