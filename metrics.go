package valuation

import (
	"github.com/etnz/valuation/date"
	log "github.com/sirupsen/logrus"
)

// daysPerYear is the annualization base of AprAtStrike.
const daysPerYear = 365

var hundred = V(100)

// PositionMetrics are the valuation fields derived from a position and the quote of its symbol.
//
// Every numeric field is either a decimal or Missing. PositionMetrics are
// never mutated after creation.
type PositionMetrics struct {
	Symbol   string
	Label    string
	Quantity Value
	Price    Value
	AsOf     date.Date

	CurrentValue Value // Quantity × Price
	CostValue    Value // CostBasis
	GainLoss     Value // CurrentValue − CostValue
	GainPct      Value // 100 × GainLoss / CostValue

	// Option is only set for positions carrying option terms.
	Option *OptionMetrics
}

// OptionMetrics are the strike relative metrics of an option position.
type OptionMetrics struct {
	Type             OptionType
	Strike           Value
	Expiration       date.Date // zero when unknown
	DaysToExpiration int       // meaningful only when Expiration is set

	StrikeValue          Value // Quantity × Strike
	LiquidationValue     Value // CurrentValue
	OptionExerciseValue  Value // Quantity × intrinsic value per unit
	TotalPctGainAtStrike Value // 100 × (StrikeValue − CostValue) / CostValue
	AprAtStrike          Value // TotalPctGainAtStrike × 365 / DaysToExpiration
}

// PriceAvailable reports whether the quote of the position was resolved.
func (m PositionMetrics) PriceAvailable() bool { return !m.Price.IsMissing() }

// MarshalJSON keeps Missing fields as null, and omits option fields of plain equities.
func (m PositionMetrics) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("symbol", m.Symbol)
	w.Optional("label", m.Label)
	w.Append("quantity", m.Quantity)
	w.Append("price", m.Price)
	w.Optional("asOf", m.AsOf)
	w.Append("currentValue", m.CurrentValue)
	w.Append("costValue", m.CostValue)
	w.Append("gainLoss", m.GainLoss)
	w.Append("gainPct", m.GainPct)
	if o := m.Option; o != nil {
		w.Append("optionType", o.Type)
		w.Append("strike", o.Strike)
		w.Optional("expiration", o.Expiration)
		if !o.Expiration.IsZero() {
			w.Append("daysToExpiration", o.DaysToExpiration)
		}
		w.Append("strikeValue", o.StrikeValue)
		w.Append("liquidationValue", o.LiquidationValue)
		w.Append("optionExerciseValue", o.OptionExerciseValue)
		w.Append("totalPctGainAtStrike", o.TotalPctGainAtStrike)
		w.Append("aprAtStrike", o.AprAtStrike)
	}
	return w.MarshalJSON()
}

// Calculator derives PositionMetrics. It is a pure and synchronous transform.
type Calculator struct {
	// On is the report-run date, used to count the days to expiration.
	On date.Date
}

// Compute returns the metrics of p valued at quote q.
//
// q is expected to be the quote of p.Symbol. Any Missing input makes every
// field depending on it Missing, ratios over a zero cost are Missing too.
func (c Calculator) Compute(p Position, q Quote) PositionMetrics {
	qty := V(p.Quantity)
	price := q.Price()

	m := PositionMetrics{
		Symbol:   p.Symbol,
		Label:    p.Label(),
		Quantity: qty,
		Price:    price,
	}
	if !q.IsMissing() && !q.AsOf().IsZero() {
		m.AsOf = date.Of(q.AsOf())
	}

	m.CurrentValue = qty.Mul(price)
	m.CostValue = V(p.CostBasis)
	m.GainLoss = m.CurrentValue.Sub(m.CostValue)
	m.GainPct = ratioPct(p.Symbol, "gain %", m.GainLoss, m.CostValue)

	if p.Option != nil {
		m.Option = c.option(p, qty, price, m)
	}
	return m
}

func (c Calculator) option(p Position, qty, price Value, m PositionMetrics) *OptionMetrics {
	strike := V(p.Option.Strike)
	o := &OptionMetrics{
		Type:       p.Option.Type,
		Strike:     strike,
		Expiration: p.Option.Expiration,
	}
	o.StrikeValue = qty.Mul(strike)
	o.LiquidationValue = m.CurrentValue
	o.OptionExerciseValue = qty.Mul(intrinsic(p.Option.Type, price, strike))
	o.TotalPctGainAtStrike = ratioPct(p.Symbol, "total % gain at strike", o.StrikeValue.Sub(m.CostValue), m.CostValue)

	// Missing without a price, like every other valued field.
	o.AprAtStrike = Missing
	if !o.Expiration.IsZero() {
		o.DaysToExpiration = o.Expiration.Sub(c.On)
		if o.DaysToExpiration > 0 && !price.IsMissing() {
			o.AprAtStrike = o.TotalPctGainAtStrike.Mul(V(daysPerYear)).Div(V(o.DaysToExpiration))
		}
	}
	return o
}

// ComputeAll returns the metrics of every position, in the same order.
func (c Calculator) ComputeAll(positions []Position, quotes Quotes) []PositionMetrics {
	metrics := make([]PositionMetrics, 0, len(positions))
	for _, p := range positions {
		metrics = append(metrics, c.Compute(p, quotes.Get(p.Symbol)))
	}
	return metrics
}

// intrinsic is the exercise value of one unit of an option.
func intrinsic(t OptionType, price, strike Value) Value {
	zero := V(0)
	if t == Put {
		return strike.Sub(price).Max(zero)
	}
	return price.Sub(strike).Max(zero)
}

// ratioPct returns 100 × num / den, Missing when den is zero.
func ratioPct(symbol, name string, num, den Value) Value {
	q, err := num.Quo(den)
	if err != nil {
		log.WithField("symbol", symbol).Debugf("%s: %v", name, err)
	}
	return hundred.Mul(q)
}
