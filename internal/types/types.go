// Package types provides shared value types used across the dunning engine
// and its persistence layer.
package types

import "fmt"

// Money represents a monetary amount using integer cents to eliminate
// floating-point errors in financial operations.
type Money struct {
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"` // ISO 4217, e.g. "EUR"
}

// Cents creates a Money value from an integer number of cents.
func Cents(amount int64, currency string) Money {
	return Money{AmountCents: amount, Currency: currency}
}

// Add returns m + other. Currencies are assumed to match; mixing currencies
// is guarded at the boundaries, not here.
func (m Money) Add(other Money) Money {
	return Money{AmountCents: m.AmountCents + other.AmountCents, Currency: m.Currency}
}

// Sub returns m - other without clamping.
func (m Money) Sub(other Money) Money {
	return Money{AmountCents: m.AmountCents - other.AmountCents, Currency: m.Currency}
}

// IsNegative reports whether the amount is below zero.
func (m Money) IsNegative() bool { return m.AmountCents < 0 }

// IsZero reports whether the amount is exactly zero.
func (m Money) IsZero() bool { return m.AmountCents == 0 }

// Decimal returns the canonical decimal representation with two fractional
// digits and no currency symbol, e.g. "700.00" or "-5.50". This is the
// locale-independent form; locale-aware formatting lives in internal/format.
func (m Money) Decimal() string {
	cents := m.AmountCents
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

// String returns the decimal amount with its currency code, e.g. "700.00 EUR".
func (m Money) String() string {
	if m.Currency == "" {
		return m.Decimal()
	}
	return m.Decimal() + " " + m.Currency
}
