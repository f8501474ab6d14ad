package renderer

import (
	"github.com/Rhymond/go-money"
	"github.com/etnz/valuation"
)

// Amount is a monetary value in a display currency.
type Amount struct {
	Value    valuation.Value
	Currency string
}

// currency returns the money's currency
func (a Amount) currency() money.Currency {
	// to get a never nil currency I need to call the Money constructor
	return *money.New(0, a.Currency).Currency()
}

// String returns the value formatted in its currency, or "n/a" when Missing.
func (a Amount) String() string {
	d, ok := a.Value.Decimal()
	if !ok {
		return "n/a"
	}
	cur := a.currency()
	minor := d.Round(int32(cur.Fraction)).Shift(int32(cur.Fraction))
	return cur.Formatter().Format(minor.IntPart())
}

// SignedString returns the string representation of the amount with a sign.
// 0 is represented as "-".
func (a Amount) SignedString() string {
	switch {
	case a.Value.IsMissing():
		return "n/a"
	case a.Value.IsZero():
		return "-"
	case a.Value.IsPositive():
		return "+" + a.String()
	}
	return a.String()
}

// Percent is a value already expressed in percent.
type Percent struct {
	Value valuation.Value
}

func (p Percent) String() string {
	if p.Value.IsMissing() {
		return "n/a"
	}
	return p.Value.StringFixed(2) + "%"
}

// SignedString returns the percentage with an explicit sign for positive values.
func (p Percent) SignedString() string {
	if p.Value.IsPositive() {
		return "+" + p.String()
	}
	return p.String()
}
