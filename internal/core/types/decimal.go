// Package types provides common value types shared across the domain.
package types

import (
	"github.com/shopspring/decimal"
)

// Quantity is a stock quantity with full decimal precision.
// Intermediate sums never round; display rounding belongs to the
// presentation boundary.
type Quantity = decimal.Decimal

// Money is a monetary value with full decimal precision.
type Money = decimal.Decimal

// Zero is the shared zero value for quantities and money.
var Zero = decimal.Zero

// MustDecimal parses a decimal string, panicking on error.
// Use only for constants and tests.
func MustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// ParseDecimal parses a decimal string.
func ParseDecimal(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(s)
}
