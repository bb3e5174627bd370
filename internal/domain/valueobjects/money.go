// Package valueobjects - Money combines an amount in minor units with its
// currency to prevent mixing currencies in payment calculations.
package valueobjects

import (
	"errors"
	"fmt"
)

// Currency is an ISO 4217 currency code.
// The gateway settles in VND; USD is kept for package price displays.
type Currency struct {
	code string
}

// Supported currencies.
var (
	VND = Currency{code: "VND"}
	USD = Currency{code: "USD"}
)

var supportedCurrencies = map[string]Currency{
	"VND": VND,
	"USD": USD,
}

// ErrInvalidCurrency is returned when a currency code is not supported.
var ErrInvalidCurrency = errors.New("invalid currency code")

// NewCurrency creates a Currency value object with validation.
func NewCurrency(code string) (Currency, error) {
	c, ok := supportedCurrencies[code]
	if !ok {
		return Currency{}, fmt.Errorf("%w: %q", ErrInvalidCurrency, code)
	}
	return c, nil
}

// Code returns the ISO code.
func (c Currency) Code() string {
	return c.code
}

// Money is an immutable monetary amount in minor units.
// VND has no minor unit, so Units is the face amount; amounts are stored as
// BIGINT in the database.
type Money struct {
	units    int64
	currency Currency
}

// Money construction errors.
var (
	ErrNegativeAmount   = errors.New("amount cannot be negative")
	ErrCurrencyMismatch = errors.New("cannot operate on different currencies")
)

// NewMoney creates Money from minor units.
func NewMoney(units int64, currency Currency) (Money, error) {
	if units < 0 {
		return Money{}, ErrNegativeAmount
	}
	return Money{units: units, currency: currency}, nil
}

// ZeroMoney creates a zero amount in the given currency.
func ZeroMoney(currency Currency) Money {
	return Money{units: 0, currency: currency}
}

// Units returns the amount in minor units.
func (m Money) Units() int64 {
	return m.units
}

// Currency returns the currency of this amount.
func (m Money) Currency() Currency {
	return m.currency
}

// IsPositive reports whether the amount is greater than zero.
func (m Money) IsPositive() bool {
	return m.units > 0
}

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool {
	return m.units == 0
}

// Sub returns m - other, flooring at zero.
// Used for discount application: a discount can never push a price negative.
func (m Money) Sub(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, ErrCurrencyMismatch
	}
	units := m.units - other.units
	if units < 0 {
		units = 0
	}
	return Money{units: units, currency: m.currency}, nil
}

// ApplyDiscountPercent returns m reduced by the given percentage (0-100).
// Rounds down, so the member never pays a fraction more than the discount.
func (m Money) ApplyDiscountPercent(percent int) (Money, error) {
	if percent < 0 || percent > 100 {
		return Money{}, fmt.Errorf("discount percent out of range: %d", percent)
	}
	discount := m.units * int64(percent) / 100
	return Money{units: m.units - discount, currency: m.currency}, nil
}

// Equal reports value equality.
func (m Money) Equal(other Money) bool {
	return m.units == other.units && m.currency == other.currency
}

// String formats the amount with its currency code.
func (m Money) String() string {
	return fmt.Sprintf("%d %s", m.units, m.currency.code)
}
