// Package money holds the currency rules shared by the entity, service and
// transport layers. Amounts are exact decimals; binary floats never touch them.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Scale is the number of fractional digits persisted for an amount.
const Scale = 2

// Max is the largest amount accepted at the boundary.
var Max = decimal.RequireFromString("999999999999.99")

// Round rounds d to Scale fractional digits, halves away from zero.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Scale)
}

// InRange reports whether d lies within [0, Max].
func InRange(d decimal.Decimal) bool {
	return !d.IsNegative() && d.LessThanOrEqual(Max)
}

// Fixed serializes an amount as a JSON string with exactly two fractional
// digits, e.g. "1250.00".
type Fixed struct {
	decimal.Decimal
}

// NewFixed wraps d for fixed-point serialization.
func NewFixed(d decimal.Decimal) Fixed {
	return Fixed{Decimal: d}
}

// String returns the fixed two-digit representation.
func (f Fixed) String() string {
	return f.Decimal.StringFixed(Scale)
}

// MarshalJSON implements json.Marshaler.
func (f Fixed) MarshalJSON() ([]byte, error) {
	return []byte(`"` + f.String() + `"`), nil
}

// UnmarshalJSON accepts either a quoted or bare JSON number.
func (f *Fixed) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("money: %w", err)
	}
	f.Decimal = d
	return nil
}
