package valuation

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// newDecimal is a convenient factory for decimal.Decimal
func newDecimal[T float32 | float64 | int | int32 | int64 | uint | uint32 | uint64 | decimal.Decimal](value T) decimal.Decimal {
	switch v := any(value).(type) {
	case decimal.Decimal:
		return v
	case float32:
		return decimal.NewFromFloat32(v)
	case float64:
		return decimal.NewFromFloat(v)
	case int:
		return decimal.NewFromInt(int64(v))
	case int32:
		return decimal.NewFromInt32(v)
	case int64:
		return decimal.NewFromInt(v)
	case uint:
		return decimal.NewFromUint64(uint64(v))
	case uint32:
		return decimal.NewFromUint64(uint64(v))
	case uint64:
		return decimal.NewFromUint64(v)
	default:
		panic("unsupported type")
	}
}

// Value is an exact decimal number that may be Missing.
//
// Missing means "could not be computed" and is distinct from zero. Every
// operation involving a Missing operand is Missing, and so is any division by
// zero. A Value is never silently coerced to zero.
type Value struct {
	value decimal.Decimal
	ok    bool
}

// Missing is the value that could not be computed.
var Missing = Value{}

// V returns a present Value.
func V[T float32 | float64 | int | int32 | int64 | uint | uint32 | uint64 | decimal.Decimal](value T) Value {
	return Value{value: newDecimal(value), ok: true}
}

// ParseValue parses an exact decimal string.
func ParseValue(s string) (Value, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Missing, err
	}
	return V(d), nil
}

// IsMissing reports whether v could not be computed.
func (v Value) IsMissing() bool { return !v.ok }

// Decimal returns the underlying decimal and whether it is present.
func (v Value) Decimal() (decimal.Decimal, bool) { return v.value, v.ok }

// Float returns an approximation of v for charting, and whether it is present.
func (v Value) Float() (float64, bool) { return v.value.InexactFloat64(), v.ok }

func (v Value) IsZero() bool     { return v.ok && v.value.IsZero() }
func (v Value) IsPositive() bool { return v.ok && v.value.IsPositive() }
func (v Value) IsNegative() bool { return v.ok && v.value.IsNegative() }

// Equal reports whether v and w are both Missing, or both present and numerically equal.
func (v Value) Equal(w Value) bool {
	if v.ok != w.ok {
		return false
	}
	return !v.ok || v.value.Equal(w.value)
}

// Cmp compares two present values. Missing values compare lower than any present value.
func (v Value) Cmp(w Value) int {
	switch {
	case !v.ok && !w.ok:
		return 0
	case !v.ok:
		return -1
	case !w.ok:
		return 1
	}
	return v.value.Cmp(w.value)
}

func (v Value) Add(w Value) Value {
	if !v.ok || !w.ok {
		return Missing
	}
	return Value{value: v.value.Add(w.value), ok: true}
}

func (v Value) Sub(w Value) Value {
	if !v.ok || !w.ok {
		return Missing
	}
	return Value{value: v.value.Sub(w.value), ok: true}
}

func (v Value) Mul(w Value) Value {
	if !v.ok || !w.ok {
		return Missing
	}
	return Value{value: v.value.Mul(w.value), ok: true}
}

// Div returns v / w, Missing when w is zero.
func (v Value) Div(w Value) Value {
	if !v.ok || !w.ok || w.value.IsZero() {
		return Missing
	}
	return Value{value: v.value.Div(w.value), ok: true}
}

// Quo is Div reporting why a present quotient could not be computed: ErrUndefinedRatio for a zero w.
func (v Value) Quo(w Value) (Value, error) {
	if v.ok && w.ok && w.value.IsZero() {
		return Missing, ErrUndefinedRatio
	}
	return v.Div(w), nil
}

// Max returns the largest of v and w.
func (v Value) Max(w Value) Value {
	if !v.ok || !w.ok {
		return Missing
	}
	if v.value.GreaterThanOrEqual(w.value) {
		return v
	}
	return w
}

// Round returns v rounded to places decimal digits.
func (v Value) Round(places int32) Value {
	if !v.ok {
		return Missing
	}
	return Value{value: v.value.Round(places), ok: true}
}

// String returns the exact decimal representation, or "n/a" when Missing.
func (v Value) String() string {
	if !v.ok {
		return "n/a"
	}
	return v.value.String()
}

// StringFixed returns v with exactly places digits, or "n/a" when Missing.
func (v Value) StringFixed(places int32) string {
	if !v.ok {
		return "n/a"
	}
	return v.value.StringFixed(places)
}

// MarshalJSON encodes a Missing value as null.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.ok {
		return []byte("null"), nil
	}
	return v.value.MarshalJSON()
}

func (v *Value) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*v = Missing
		return nil
	}
	var d decimal.Decimal
	if err := json.Unmarshal(b, &d); err != nil {
		return err
	}
	*v = V(d)
	return nil
}
