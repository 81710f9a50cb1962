package order

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emazahmed/tech/internal/domain"
	"github.com/emazahmed/tech/internal/inventory"
)

type fakeProducts struct {
	products map[uuid.UUID]*domain.Product
}

func (f *fakeProducts) Product(_ context.Context, id uuid.UUID) (*domain.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

type fakeCustomers struct {
	customer *domain.Customer
}

func (f *fakeCustomers) Customer(_ context.Context, id uuid.UUID) (*domain.Customer, error) {
	if f.customer == nil || f.customer.ID != id {
		return nil, domain.ErrCustomerNotFound
	}
	cp := *f.customer
	return &cp, nil
}

type fakeCarts struct {
	cart *domain.Cart
}

func (f *fakeCarts) Cart(_ context.Context, _ uuid.UUID) (*domain.Cart, error) {
	return f.cart, nil
}

type serviceFixture struct {
	store     *fakeStore
	products  *fakeProducts
	customers *fakeCustomers
	carts     *fakeCarts
	svc       *Service
	product   *domain.Product
	customer  *domain.Customer
}

func newFixture(t *testing.T) *serviceFixture {
	t.Helper()
	product := &domain.Product{
		ID:             uuid.New(),
		Name:           "wireless headphones",
		Price:          decimal.RequireFromString("50.00"),
		InventoryCount: 10,
		Active:         true,
		InStock:        true,
	}
	customer := &domain.Customer{
		ID:    uuid.New(),
		Name:  "Jane Doe",
		Email: "jane@example.com",
		Phone: "555-0100",
	}
	fx := &serviceFixture{
		store:     newFakeStore(),
		products:  &fakeProducts{products: map[uuid.UUID]*domain.Product{product.ID: product}},
		customers: &fakeCustomers{customer: customer},
		carts:     &fakeCarts{},
		product:   product,
		customer:  customer,
	}
	fx.store.inventory[product.ID] = product.InventoryCount
	fx.svc = NewService(fx.store, fx.products, fx.customers, fx.carts)
	fx.svc.now = func() time.Time { return time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC) }
	return fx
}

func (fx *serviceFixture) input(qty int) CreateInput {
	return CreateInput{
		CustomerID: fx.customer.ID,
		Items:      []inventory.Request{{ProductID: fx.product.ID, Quantity: qty}},
		ShippingAddress: domain.Address{
			Line1: "1 Main St", City: "Springfield", PostalCode: "12345", Country: "US",
		},
		Payment: PaymentInput{Method: "card", TransactionID: "tx-1", LastFour: "4242"},
	}
}

func TestCreate_AssemblesOrder(t *testing.T) {
	fx := newFixture(t)

	o, replayed, err := fx.svc.Create(context.Background(), fx.input(2))
	require.NoError(t, err)
	assert.False(t, replayed)

	assert.NotEqual(t, uuid.Nil, o.ID)
	assert.Regexp(t, `^ORD-\d{13}-\d{4}$`, o.Number)
	assert.Equal(t, domain.OrderStatusPending, o.Status)

	// Snapshots captured at creation time.
	assert.Equal(t, "Jane Doe", o.Customer.Name)
	assert.Equal(t, "jane@example.com", o.Customer.Email)
	assert.Equal(t, "555-0100", o.Customer.Phone)
	assert.Equal(t, PaymentStatusCompleted, o.Payment.Status)
	assert.Equal(t, "4242", o.Payment.LastFour)

	require.Len(t, o.Items, 1)
	assert.Equal(t, "wireless headphones", o.Items[0].Name)
	assert.True(t, o.Items[0].Total.Equal(decimal.RequireFromString("100")))

	// 100 + 8 + 9.99
	assert.True(t, o.Pricing.Total.Equal(decimal.RequireFromString("117.99")), "total %s", o.Pricing.Total)

	require.Len(t, o.History, 1)
	assert.Equal(t, domain.OrderStatusPending, o.History[0].Status)

	// Persisted once, cart cleared, inventory decremented.
	require.Len(t, fx.store.created, 1)
	assert.Equal(t, []uuid.UUID{fx.customer.ID}, fx.store.clearedCarts)
	assert.Equal(t, 8, fx.store.inventory[fx.product.ID])
	require.Len(t, fx.store.events, 1)
	assert.Equal(t, "order.created", fx.store.events[0].Type)
}

func TestCreate_PhoneFallsBackToShippingAddress(t *testing.T) {
	fx := newFixture(t)
	fx.customers.customer.Phone = ""

	in := fx.input(1)
	in.ShippingAddress.Phone = "555-0199"
	o, _, err := fx.svc.Create(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "555-0199", o.Customer.Phone)
}

func TestCreate_InsufficientInventoryPersistsNothing(t *testing.T) {
	fx := newFixture(t)

	_, _, err := fx.svc.Create(context.Background(), fx.input(11))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientInventory)

	assert.Empty(t, fx.store.created)
	assert.Empty(t, fx.store.clearedCarts)
	assert.Equal(t, 10, fx.store.inventory[fx.product.ID])
}

func TestCreate_PricingMismatchRejected(t *testing.T) {
	fx := newFixture(t)

	in := fx.input(2)
	in.SuppliedPricing = &domain.Pricing{
		Subtotal: decimal.RequireFromString("100"),
		Tax:      decimal.RequireFromString("8"),
		Shipping: decimal.RequireFromString("9.99"),
		Discount: decimal.RequireFromString("50"), // not what the promo table says
		Total:    decimal.RequireFromString("67.99"),
	}
	_, _, err := fx.svc.Create(context.Background(), in)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPricingMismatch)
	assert.Empty(t, fx.store.created)
}

func TestCreate_MatchingSuppliedPricingAccepted(t *testing.T) {
	fx := newFixture(t)

	in := fx.input(2)
	in.SuppliedPricing = &domain.Pricing{
		Subtotal: decimal.RequireFromString("100"),
		Tax:      decimal.RequireFromString("8"),
		Shipping: decimal.RequireFromString("9.99"),
		Discount: decimal.Zero,
		Total:    decimal.RequireFromString("117.99"),
	}
	_, _, err := fx.svc.Create(context.Background(), in)
	require.NoError(t, err)
}

func TestCreate_FallsBackToCart(t *testing.T) {
	fx := newFixture(t)
	fx.carts.cart = &domain.Cart{
		CustomerID: fx.customer.ID,
		Items:      []domain.CartItem{{ProductID: fx.product.ID, Quantity: 3, Variant: map[string]string{"color": "black"}}},
	}

	in := fx.input(0)
	in.Items = nil
	o, _, err := fx.svc.Create(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, o.Items, 1)
	assert.Equal(t, 3, o.Items[0].Quantity)
	assert.Equal(t, map[string]string{"color": "black"}, o.Items[0].Variant)
}

func TestCreate_EmptyCartRejected(t *testing.T) {
	fx := newFixture(t)

	in := fx.input(0)
	in.Items = nil
	_, _, err := fx.svc.Create(context.Background(), in)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrCartEmpty)
}

func TestCreate_UnknownCustomerRejected(t *testing.T) {
	fx := newFixture(t)

	in := fx.input(1)
	in.CustomerID = uuid.New()
	_, _, err := fx.svc.Create(context.Background(), in)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrCustomerNotFound)
}

func TestCreate_IdempotencyReplay(t *testing.T) {
	fx := newFixture(t)

	in := fx.input(1)
	in.IdempotencyKey = "k-1"
	first, replayed, err := fx.svc.Create(context.Background(), in)
	require.NoError(t, err)
	assert.False(t, replayed)

	second, replayed, err := fx.svc.Create(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, replayed)
	assert.Equal(t, first.ID, second.ID)

	// Only the first request decremented inventory.
	assert.Equal(t, 9, fx.store.inventory[fx.product.ID])
	require.Len(t, fx.store.created, 1)
}
