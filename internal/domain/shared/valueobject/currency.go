package valueobject

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// Currency represents a currency code (ISO 4217)
type Currency string

const (
	USD Currency = "USD" // US Dollar (default)
	EUR Currency = "EUR" // Euro
	GBP Currency = "GBP" // British Pound
	JPY Currency = "JPY" // Japanese Yen
)

// DefaultCurrency is the currency a draft starts in when nothing else is set
const DefaultCurrency = USD

// ParseCurrency normalizes an ISO 4217 currency code. An empty code yields
// DefaultCurrency. XXX (no currency) is rejected.
func ParseCurrency(code string) (Currency, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return DefaultCurrency, nil
	}
	unit, err := currency.ParseISO(code)
	if err != nil || unit == currency.XXX {
		return "", fmt.Errorf("invalid currency code: %q", code)
	}
	return Currency(unit.String()), nil
}

// String returns the currency code
func (c Currency) String() string {
	return string(c)
}

// ExchangeRates maps a currency to its rate relative to a common base (USD = 1)
type ExchangeRates map[Currency]decimal.Decimal

// DefaultExchangeRates returns the built-in rate table
func DefaultExchangeRates() ExchangeRates {
	return ExchangeRates{
		USD: decimal.NewFromInt(1),
		EUR: decimal.RequireFromString("0.85"),
		GBP: decimal.RequireFromString("0.73"),
		JPY: decimal.NewFromInt(110),
	}
}

// NewExchangeRates builds a rate table from plain string values, as found in
// configuration files.
func NewExchangeRates(raw map[string]string) (ExchangeRates, error) {
	rates := make(ExchangeRates, len(raw))
	for code, value := range raw {
		c, err := ParseCurrency(code)
		if err != nil {
			return nil, err
		}
		d, err := decimal.NewFromString(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("invalid exchange rate for %s: %w", c, err)
		}
		if d.IsNegative() {
			return nil, fmt.Errorf("exchange rate for %s must not be negative", c)
		}
		rates[c] = d
	}
	return rates, nil
}

// Rate returns the rate for a currency and whether it is configured
func (r ExchangeRates) Rate(c Currency) (decimal.Decimal, bool) {
	d, ok := r[c]
	return d, ok
}

// Currencies returns the configured currencies in alphabetical order
func (r ExchangeRates) Currencies() []Currency {
	out := make([]Currency, 0, len(r))
	for c := range r {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Clone returns an independent copy of the table
func (r ExchangeRates) Clone() ExchangeRates {
	out := make(ExchangeRates, len(r))
	for c, d := range r {
		out[c] = d
	}
	return out
}
