package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emazahmed/tech/internal/domain"
)

func item(price string, qty int) domain.LineItem {
	return domain.LineItem{UnitPrice: decimal.RequireFromString(price), Quantity: qty}
}

func TestCompute_NoPromo(t *testing.T) {
	tests := []struct {
		name     string
		items    []domain.LineItem
		subtotal string
		tax      string
		shipping string
		total    string
	}{
		{
			name:     "single item under free shipping",
			items:    []domain.LineItem{item("25.00", 2)},
			subtotal: "50",
			tax:      "4",
			shipping: "9.99",
			total:    "63.99",
		},
		{
			name:     "subtotal exactly 100 still pays shipping",
			items:    []domain.LineItem{item("100.00", 1)},
			subtotal: "100",
			tax:      "8",
			shipping: "9.99",
			total:    "117.99",
		},
		{
			name:     "over threshold ships free",
			items:    []domain.LineItem{item("60.00", 2)},
			subtotal: "120",
			tax:      "9.6",
			shipping: "0",
			total:    "129.6",
		},
		{
			name:     "odd cents round to 2 places",
			items:    []domain.LineItem{item("19.99", 3)},
			subtotal: "59.97",
			tax:      "4.8",
			shipping: "9.99",
			total:    "74.76",
		},
		{
			name:     "no items",
			items:    nil,
			subtotal: "0",
			tax:      "0",
			shipping: "9.99",
			total:    "9.99",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Compute(tt.items, "")
			assert.True(t, p.Subtotal.Equal(decimal.RequireFromString(tt.subtotal)), "subtotal %s", p.Subtotal)
			assert.True(t, p.Tax.Equal(decimal.RequireFromString(tt.tax)), "tax %s", p.Tax)
			assert.True(t, p.Shipping.Equal(decimal.RequireFromString(tt.shipping)), "shipping %s", p.Shipping)
			assert.True(t, p.Discount.IsZero(), "discount %s", p.Discount)
			assert.True(t, p.Total.Equal(decimal.RequireFromString(tt.total)), "total %s", p.Total)
		})
	}
}

func TestCompute_Welcome20(t *testing.T) {
	p := Compute([]domain.LineItem{item("50.00", 2)}, "WELCOME20")
	assert.True(t, p.Discount.Equal(decimal.RequireFromString("20")), "discount %s", p.Discount)
	// 100 + 8 + 9.99 - 20
	assert.True(t, p.Total.Equal(decimal.RequireFromString("97.99")), "total %s", p.Total)
}

func TestCompute_Save10(t *testing.T) {
	p := Compute([]domain.LineItem{item("100.00", 2)}, "SAVE10")
	assert.True(t, p.Discount.Equal(decimal.RequireFromString("20")), "discount %s", p.Discount)
	assert.True(t, p.Shipping.IsZero(), "shipping %s", p.Shipping)
	// 200 + 16 - 20
	assert.True(t, p.Total.Equal(decimal.RequireFromString("196")), "total %s", p.Total)
}

func TestCompute_UnknownPromoIgnored(t *testing.T) {
	p := Compute([]domain.LineItem{item("50.00", 1)}, "BOGUS50")
	assert.True(t, p.Discount.IsZero())
	assert.True(t, p.Total.Equal(decimal.RequireFromString("63.99")), "total %s", p.Total)
}

func TestVerify(t *testing.T) {
	computed := Compute([]domain.LineItem{item("50.00", 2)}, "")

	ok := computed
	require.NoError(t, Verify(computed, ok))

	// Within the rounding epsilon is accepted.
	nudged := computed
	nudged.Total = computed.Total.Add(decimal.RequireFromString("0.01"))
	require.NoError(t, Verify(computed, nudged))

	// Beyond it is a pricing mismatch.
	wrong := computed
	wrong.Total = computed.Total.Sub(decimal.RequireFromString("5.00"))
	err := Verify(computed, wrong)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPricingMismatch)
}

func TestLineTotal(t *testing.T) {
	got := LineTotal(decimal.RequireFromString("19.99"), 3)
	assert.True(t, got.Equal(decimal.RequireFromString("59.97")), "got %s", got)
}
