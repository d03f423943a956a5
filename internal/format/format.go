// Package format provides locale-aware formatting of currency amounts and
// dates for rendered legal notices. A Formatter is built once from
// configuration and is safe for concurrent use; all methods are pure.
package format

import (
	"strconv"
	"strings"
	"time"

	"github.com/matthewbaird/rentroll/internal/types"
)

// Locale holds the formatting rules for one deployment. The zero value is not
// usable; construct via config defaults or DefaultLocale.
type Locale struct {
	DecimalSep     string // separator before the fractional digits, e.g. ","
	GroupingSep    string // thousands separator, e.g. "."
	CurrencySymbol string // e.g. "€"
	SymbolSuffix   bool   // true renders "700,00 €", false renders "€ 700,00"
	DateLayout     string // Go reference layout, e.g. "02.01.2006"
}

// DefaultLocale returns German legal-notice formatting: "1.234,56 €" and
// "14.12.2024".
func DefaultLocale() Locale {
	return Locale{
		DecimalSep:     ",",
		GroupingSep:    ".",
		CurrencySymbol: "€",
		SymbolSuffix:   true,
		DateLayout:     "02.01.2006",
	}
}

// Formatter formats money and dates according to a fixed locale.
type Formatter struct {
	locale Locale
}

// New creates a Formatter for the given locale.
func New(locale Locale) *Formatter {
	return &Formatter{locale: locale}
}

// Money renders an amount with grouping, decimal separator, and currency
// symbol, e.g. 123456 cents → "1.234,56 €".
func (f *Formatter) Money(m types.Money) string {
	cents := m.AmountCents
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}

	whole := strconv.FormatInt(cents/100, 10)
	frac := cents % 100

	var b strings.Builder
	b.WriteString(sign)
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteString(f.locale.GroupingSep)
		}
		b.WriteRune(r)
	}
	b.WriteString(f.locale.DecimalSep)
	if frac < 10 {
		b.WriteByte('0')
	}
	b.WriteString(strconv.FormatInt(frac, 10))

	if f.locale.CurrencySymbol == "" {
		return b.String()
	}
	if f.locale.SymbolSuffix {
		return b.String() + " " + f.locale.CurrencySymbol
	}
	return f.locale.CurrencySymbol + " " + b.String()
}

// Date renders a date in the configured layout. The zero time renders as an
// empty string so optional dates can appear in templates without guards.
func (f *Formatter) Date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(f.locale.DateLayout)
}
