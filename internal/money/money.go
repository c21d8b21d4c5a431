package money

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrNegative is returned when an operation would produce a negative amount.
	ErrNegative = errors.New("money: amount would be negative")
	// ErrOverflow is returned when an operation exceeds the representable range.
	ErrOverflow = errors.New("money: amount overflow")
	// ErrInvalidQuantity is returned for zero, negative or oversized quantities.
	ErrInvalidQuantity = errors.New("money: quantity must be positive")
)

// Money is an amount expressed in minor currency units (paise for INR).
type Money int64

// Quantity is a positive line item quantity.
type Quantity int32

var (
	maxMoney = decimal.NewFromInt(math.MaxInt64)
	hundred  = decimal.NewFromInt(100)
)

// New validates a raw minor-unit amount.
func New(minor int64) (Money, error) {
	if minor < 0 {
		return 0, ErrNegative
	}
	return Money(minor), nil
}

// Parse converts a major-unit string such as "2499.90" into Money, rounding
// half-up to the minor unit.
func Parse(major string) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(major))
	if err != nil {
		return 0, fmt.Errorf("money: parse %q: %w", major, err)
	}
	return fromDecimal(d.Mul(hundred))
}

// MustParse is Parse for constants and tests.
func MustParse(major string) Money {
	m, err := Parse(major)
	if err != nil {
		panic(err)
	}
	return m
}

// Int64 returns the raw minor-unit value.
func (m Money) Int64() int64 { return int64(m) }

// Add returns m + o.
func (m Money) Add(o Money) (Money, error) {
	if m < 0 || o < 0 {
		return 0, ErrNegative
	}
	if o > math.MaxInt64-m {
		return 0, ErrOverflow
	}
	return m + o, nil
}

// Sub returns m - o and fails instead of going below zero.
func (m Money) Sub(o Money) (Money, error) {
	if o > m {
		return 0, ErrNegative
	}
	return m - o, nil
}

// MulQty returns m multiplied by a line quantity.
func (m Money) MulQty(q Quantity) (Money, error) {
	if q <= 0 {
		return 0, ErrInvalidQuantity
	}
	if m < 0 {
		return 0, ErrNegative
	}
	if m != 0 && int64(q) > math.MaxInt64/int64(m) {
		return 0, ErrOverflow
	}
	return m * Money(q), nil
}

// Percent returns pct percent of m rounded half-up to the minor unit.
func (m Money) Percent(pct decimal.Decimal) (Money, error) {
	if pct.IsNegative() {
		return 0, ErrNegative
	}
	return fromDecimal(decimal.NewFromInt(int64(m)).Mul(pct).Div(hundred))
}

// Decimal returns the amount in major units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(int64(m), -2)
}

// String renders the amount in major units with two decimals.
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// Min returns the smaller of a and b.
func Min(a, b Money) Money {
	if a < b {
		return a
	}
	return b
}

// NewQuantity validates a line quantity.
func NewQuantity(n int) (Quantity, error) {
	if n <= 0 || n > math.MaxInt32 {
		return 0, ErrInvalidQuantity
	}
	return Quantity(n), nil
}

func fromDecimal(d decimal.Decimal) (Money, error) {
	rounded := d.Round(0)
	if rounded.IsNegative() {
		return 0, ErrNegative
	}
	if rounded.GreaterThan(maxMoney) {
		return 0, ErrOverflow
	}
	return Money(rounded.IntPart()), nil
}
