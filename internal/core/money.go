// Package core provides money parsing and handling utilities.
//
// This file contains the fixed-point Money type used by every aggregate and
// the conversions from the representations amounts arrive in.
package core

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is an amount in cents.
type Money struct {
	Cents int64
}

// maxAmount bounds a single amount. Sums are checked separately by Add.
var maxAmount = decimal.New(1, 13)

// ErrAmountOverflow is returned when a total no longer fits in int64 cents.
var ErrAmountOverflow = fmt.Errorf("%w: amount total out of range", ErrInvalidArgument)

// MoneyFromFloat converts a record amount to cents with half-up rounding on
// the third decimal place. NaN, infinities and negative values are rejected.
func MoneyFromFloat(v float64) (Money, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Money{}, fmt.Errorf("%w: amount must be finite", ErrInvalidAmount)
	}
	if v < 0 {
		return Money{}, fmt.Errorf("%w: amount must not be negative", ErrInvalidAmount)
	}
	return fromDecimal(decimal.NewFromFloat(v))
}

// ParseAmount converts a decimal string to Money.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and performs
// half-up rounding on the third decimal place. Signs, exponents and empty input
// are rejected.
//
// Examples:
//
//	ParseAmount("12.34")  -> 1234 cents
//	ParseAmount("12,34")  -> 1234 cents
//	ParseAmount("12.345") -> 1235 cents
//	ParseAmount("12.344") -> 1234 cents
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.ContainsAny(s, "+-eE") {
		return Money{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	return fromDecimal(d)
}

func fromDecimal(d decimal.Decimal) (Money, error) {
	if d.IsNegative() {
		return Money{}, fmt.Errorf("%w: amount must not be negative", ErrInvalidAmount)
	}
	if d.GreaterThanOrEqual(maxAmount) {
		return Money{}, fmt.Errorf("%w: amount too large", ErrInvalidAmount)
	}
	return Money{Cents: d.Round(2).Shift(2).IntPart()}, nil
}

// Add returns m + o, or ErrAmountOverflow when the sum wraps.
func (m Money) Add(o Money) (Money, error) {
	sum := m.Cents + o.Cents
	if (o.Cents > 0 && sum < m.Cents) || (o.Cents < 0 && sum > m.Cents) {
		return Money{}, ErrAmountOverflow
	}
	return Money{Cents: sum}, nil
}

// IsZero reports whether the amount is exactly zero.
func (m Money) IsZero() bool {
	return m.Cents == 0
}

// Decimal returns the exact decimal value of m.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// Float64 returns the value as a float64 for the record representation.
// Use cents for calculations.
func (m Money) Float64() float64 {
	f, _ := m.Decimal().Float64()
	return f
}

// String formats m with exactly two decimals, e.g. "40.00".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// MarshalJSON encodes m as a JSON number with two decimals.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts a JSON number or a quoted decimal string.
func (m *Money) UnmarshalJSON(data []byte) error {
	s := string(data)
	if strings.HasPrefix(s, `"`) || strings.HasSuffix(s, `"`) {
		if len(s) < 2 || !strings.HasPrefix(s, `"`) || !strings.HasSuffix(s, `"`) {
			return fmt.Errorf("%w: unbalanced quotes", ErrInvalidAmount)
		}
		s = s[1 : len(s)-1]
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	v, err := fromDecimal(d)
	if err != nil {
		return err
	}
	*m = v
	return nil
}
