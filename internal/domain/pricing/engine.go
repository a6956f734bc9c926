// Package pricing computes order-line and order-level amounts.
// All functions are pure; callers validate inputs before calling in.
package pricing

import (
	"github.com/erp/orderdesk/internal/domain/shared"
	"github.com/erp/orderdesk/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// DisplayPlaces is the number of decimal places amounts are rounded to for display
const DisplayPlaces = 2

// LineTotal returns price * qty * (1 + taxRate/100) * (1 - discountPct/100).
// Inputs are not validated here.
func LineTotal(price decimal.Decimal, qty int, taxRate, discountPct decimal.Decimal) decimal.Decimal {
	gross := price.Mul(decimal.NewFromInt(int64(qty)))
	withTax := gross.Mul(decimal.NewFromInt(1).Add(taxRate.Div(hundred)))
	return withTax.Mul(decimal.NewFromInt(1).Sub(discountPct.Div(hundred)))
}

// Priced is anything that can be aggregated into order totals
type Priced interface {
	UnitPrice() decimal.Decimal
	DiscountPercent() decimal.Decimal
	LineTotal() decimal.Decimal
}

// Totals holds the order-level aggregates
type Totals struct {
	Subtotal      decimal.Decimal `json:"subtotal"`
	DiscountTotal decimal.Decimal `json:"discount_total"`
	TaxTotal      decimal.Decimal `json:"tax_total"`
	Total         decimal.Decimal `json:"total"`
}

// OrderTotals aggregates lines.
// Subtotal sums unit prices without quantity, and the tax total is the
// residual total - price of each line. Both definitions are kept for
// compatibility with orders produced by the web client.
func OrderTotals[L Priced](lines []L) Totals {
	t := Totals{
		Subtotal:      decimal.Zero,
		DiscountTotal: decimal.Zero,
		TaxTotal:      decimal.Zero,
		Total:         decimal.Zero,
	}
	for _, l := range lines {
		price := l.UnitPrice()
		total := l.LineTotal()
		t.Subtotal = t.Subtotal.Add(price)
		t.DiscountTotal = t.DiscountTotal.Add(price.Mul(l.DiscountPercent()).Div(hundred))
		t.TaxTotal = t.TaxTotal.Add(total.Sub(price))
		t.Total = t.Total.Add(total)
	}
	return t
}

// Convert converts amount between currencies.
// An invalid (null) amount converts to 0, zero stays zero, equal currencies
// are returned unchanged and a missing rate counts as 1. A rate explicitly
// configured as 0 for the source currency returns ErrZeroExchangeRate.
func Convert(amount decimal.NullDecimal, from, to valueobject.Currency, rates valueobject.ExchangeRates) (decimal.Decimal, error) {
	if !amount.Valid || amount.Decimal.IsZero() {
		return decimal.Zero, nil
	}
	if from == to {
		return amount.Decimal, nil
	}
	fromRate := rateOrOne(rates, from)
	toRate := rateOrOne(rates, to)
	if fromRate.IsZero() {
		return decimal.Zero, shared.ErrZeroExchangeRate
	}
	return amount.Decimal.Mul(toRate).Div(fromRate), nil
}

// ConvertAmount is Convert for a known-valid amount
func ConvertAmount(amount decimal.Decimal, from, to valueobject.Currency, rates valueobject.ExchangeRates) (decimal.Decimal, error) {
	return Convert(decimal.NewNullDecimal(amount), from, to, rates)
}

// ConvertTotals converts every aggregate of t
func ConvertTotals(t Totals, from, to valueobject.Currency, rates valueobject.ExchangeRates) (Totals, error) {
	var out Totals
	var err error
	for _, f := range []struct {
		src decimal.Decimal
		dst *decimal.Decimal
	}{
		{t.Subtotal, &out.Subtotal},
		{t.DiscountTotal, &out.DiscountTotal},
		{t.TaxTotal, &out.TaxTotal},
		{t.Total, &out.Total},
	} {
		if *f.dst, err = ConvertAmount(f.src, from, to, rates); err != nil {
			return Totals{}, err
		}
	}
	return out, nil
}

// Round rounds an amount for display
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(DisplayPlaces)
}

func rateOrOne(rates valueobject.ExchangeRates, c valueobject.Currency) decimal.Decimal {
	if r, ok := rates.Rate(c); ok {
		return r
	}
	return decimal.NewFromInt(1)
}
