// Package pricing computes the monetary breakdown of an order from its line
// items and an optional promo code. It is the single source of truth for
// totals: client-supplied breakdowns are verified against a server-side
// recomputation, never trusted as-is.
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/emazahmed/tech/internal/domain"
)

var (
	taxRate          = decimal.NewFromFloat(0.08)
	freeShippingOver = decimal.NewFromInt(100)
	flatShippingFee  = decimal.NewFromFloat(9.99)

	// Unknown promo codes are ignored, not rejected.
	promoRates = map[string]decimal.Decimal{
		"WELCOME20": decimal.NewFromFloat(0.20),
		"SAVE10":    decimal.NewFromFloat(0.10),
	}

	// epsilon is the rounding slack allowed when verifying a
	// client-supplied breakdown.
	epsilon = decimal.NewFromFloat(0.01)
)

// Compute derives the full breakdown from line items and a promo code.
// Every field is rounded to 2 decimal places on output.
func Compute(items []domain.LineItem, promoCode string) domain.Pricing {
	subtotal := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}

	tax := subtotal.Mul(taxRate)

	shipping := flatShippingFee
	if subtotal.GreaterThan(freeShippingOver) {
		shipping = decimal.Zero
	}

	discount := decimal.Zero
	if rate, ok := promoRates[promoCode]; ok {
		discount = subtotal.Mul(rate)
	}

	subtotal = subtotal.Round(2)
	tax = tax.Round(2)
	shipping = shipping.Round(2)
	discount = discount.Round(2)

	return domain.Pricing{
		Subtotal: subtotal,
		Tax:      tax,
		Shipping: shipping,
		Discount: discount,
		Total:    subtotal.Add(tax).Add(shipping).Sub(discount).Round(2),
	}
}

// Verify compares a client-supplied breakdown against the server-side one.
// Any field off by more than the rounding epsilon fails the order.
func Verify(computed, supplied domain.Pricing) error {
	fields := []struct {
		name string
		want decimal.Decimal
		got  decimal.Decimal
	}{
		{"subtotal", computed.Subtotal, supplied.Subtotal},
		{"tax", computed.Tax, supplied.Tax},
		{"shipping", computed.Shipping, supplied.Shipping},
		{"discount", computed.Discount, supplied.Discount},
		{"total", computed.Total, supplied.Total},
	}
	for _, f := range fields {
		if f.want.Sub(f.got).Abs().GreaterThan(epsilon) {
			return fmt.Errorf("%w: %s is %s, expected %s", domain.ErrPricingMismatch, f.name, f.got, f.want)
		}
	}
	return nil
}

// LineTotal is the rounded unit price x quantity for a single item.
func LineTotal(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity))).Round(2)
}
