// Package decimal holds the money helpers shared by builders, converter
// and model checks. All amounts are shopspring decimals in the invoice
// currency.
package decimal

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Tolerance is the largest difference accepted between two amounts that
// should be equal after rounding to the minor currency unit (one cent).
var Tolerance = decimal.New(1, -2)

// FromString parses an amount as it appears in a document. Surrounding
// whitespace is ignored.
func FromString(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.TrimSpace(s))
}

// Mul multiplies two decimals, rounds to 2 places
func Mul(a, b decimal.Decimal) decimal.Decimal {
	return a.Mul(b).Round(2)
}

// WithinTolerance reports whether a and b differ by at most one cent
func WithinTolerance(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(Tolerance)
}

// Amount renders d with exactly two decimal places ("119.00")
func Amount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// Percent renders a tax rate without trailing zeros ("19", "7.5")
func Percent(d decimal.Decimal) string {
	return d.String()
}
