// Package core provides money parsing and handling utilities.
//
// Amounts are kept as integer cents. Parsing and any division go through
// shopspring/decimal so rounding is exact and happens in one place.
package core

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// ParseDecimalToCents converts a user-typed decimal string to cents.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and rounds
// half away from zero to the cent. Zero is a valid amount; signs, exponents
// and anything that is not a plain decimal are rejected.
//
// Examples:
//
//	ParseDecimalToCents("12.34")  -> 1234, nil
//	ParseDecimalToCents("12,34")  -> 1234, nil
//	ParseDecimalToCents("12.345") -> 1235, nil
//	ParseDecimalToCents("-1")     -> 0, ErrInvalidAmount
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" || strings.Count(s, ".") > 1 {
		return 0, ErrInvalidAmount
	}
	for _, r := range s {
		if r != '.' && !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	if s == "." {
		return 0, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	return centsOf(d)
}

// CoerceAmount turns a loosely typed amount into Money. It never fails:
// nil, unparseable text, NaN and out-of-range values all count as zero.
// Negative values are kept so callers can see them propagate.
func CoerceAmount(v any) Money {
	var d decimal.Decimal
	switch x := v.(type) {
	case nil:
		return Money{}
	case Money:
		return x
	case decimal.Decimal:
		d = x
	case json.Number:
		parsed, err := decimal.NewFromString(x.String())
		if err != nil {
			return Money{}
		}
		d = parsed
	case string:
		parsed, ok := parseLooseDecimal(x)
		if !ok {
			return Money{}
		}
		d = parsed
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return Money{}
		}
		d = decimal.NewFromFloat(x)
	case float32:
		return CoerceAmount(float64(x))
	case int:
		d = decimal.NewFromInt(int64(x))
	case int64:
		d = decimal.NewFromInt(x)
	case int32:
		d = decimal.NewFromInt(int64(x))
	case bool:
		// booleans are record-shaped but not numeric
		return Money{}
	default:
		return Money{}
	}
	cents, err := centsOf(d)
	if err != nil {
		return Money{}
	}
	return Money{Cents: cents}
}

// CoerceCents is CoerceAmount for values already expressed in cents, such
// as a loosely typed storage column. Fractional cents round half away from
// zero; text, NaN and out-of-range values count as zero.
func CoerceCents(v any) Money {
	var d decimal.Decimal
	switch x := v.(type) {
	case nil:
		return Money{}
	case int64:
		return Money{Cents: x}
	case int:
		return Money{Cents: int64(x)}
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return Money{}
		}
		d = decimal.NewFromFloat(x)
	case []byte:
		return CoerceCents(string(x))
	case string:
		parsed, ok := parseLooseDecimal(x)
		if !ok {
			return Money{}
		}
		d = parsed
	default:
		return Money{}
	}
	c := d.Round(0)
	if c.Abs().GreaterThan(maxCents) {
		return Money{}
	}
	return Money{Cents: c.IntPart()}
}

// parseLooseDecimal accepts what a person or a spreadsheet would type:
// surrounding spaces, a leading sign, a decimal comma.
func parseLooseDecimal(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}
	if d, err := decimal.NewFromString(s); err == nil {
		return d, true
	}
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		if d, err := decimal.NewFromString(strings.Replace(s, ",", ".", 1)); err == nil {
			return d, true
		}
	}
	return decimal.Zero, false
}

var maxCents = decimal.NewFromInt(math.MaxInt64)

func centsOf(d decimal.Decimal) (int64, error) {
	c := d.Shift(2).Round(0)
	if c.Abs().GreaterThan(maxCents) {
		return 0, ErrInvalidAmount
	}
	return c.IntPart(), nil
}

// Decimal returns the amount in currency units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// Units returns the amount in currency units as a float64 for charts.
// Use Cents for arithmetic.
func (m Money) Units() float64 {
	return m.Decimal().InexactFloat64()
}

// Add returns m + o.
func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

// String formats the amount with exactly two decimals and no symbol.
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// MarshalJSON emits the amount as a plain JSON number in currency units.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal().String()), nil
}

// UnmarshalJSON accepts numbers, numeric strings and null. Anything else is
// coerced to zero rather than rejected.
func (m *Money) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		*m = Money{}
		return nil
	}
	*m = CoerceAmount(v)
	return nil
}
