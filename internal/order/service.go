package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/emazahmed/tech/internal/domain"
	"github.com/emazahmed/tech/internal/inventory"
	"github.com/emazahmed/tech/internal/pricing"
	"github.com/emazahmed/tech/pkg/contracts"
)

// PaymentStatusCompleted is set unconditionally at creation: the payment
// gateway is an external collaborator assumed to have already run.
const PaymentStatusCompleted = "completed"

type CustomerLookup interface {
	Customer(ctx context.Context, id uuid.UUID) (*domain.Customer, error)
}

type CartReader interface {
	Cart(ctx context.Context, customerID uuid.UUID) (*domain.Cart, error)
}

type PaymentInput struct {
	Method        string
	TransactionID string
	LastFour      string
}

type CreateInput struct {
	CustomerID      uuid.UUID
	Items           []inventory.Request // empty: fall back to the stored cart
	ShippingAddress domain.Address
	Payment         PaymentInput
	Notes           string
	PromoCode       string
	SuppliedPricing *domain.Pricing // verified against the server-side computation
	IdempotencyKey  string
	Actor           string
}

// Service assembles and persists new orders.
type Service struct {
	store     Store
	validator *inventory.Validator
	customers CustomerLookup
	carts     CartReader
	now       func() time.Time
}

func NewService(store Store, products inventory.ProductLookup, customers CustomerLookup, carts CartReader) *Service {
	return &Service{
		store:     store,
		validator: inventory.NewValidator(products),
		customers: customers,
		carts:     carts,
		now:       time.Now,
	}
}

// Create runs the full order-placement checklist: resolve items, validate
// inventory, compute pricing, snapshot customer and payment info, then
// persist everything in one transaction. Replayed reports whether an
// idempotency key matched a previously created order.
func (s *Service) Create(ctx context.Context, in CreateInput) (o *domain.Order, replayed bool, err error) {
	if in.IdempotencyKey != "" {
		if existing, lookupErr := s.store.ByIdempotencyKey(ctx, in.IdempotencyKey); lookupErr == nil && existing != nil {
			return existing, true, nil
		}
	}

	items, err := s.resolveItems(ctx, in)
	if err != nil {
		return nil, false, err
	}

	products, err := s.validator.Validate(ctx, items)
	if err != nil {
		return nil, false, err
	}

	lineItems := make([]domain.LineItem, len(items))
	for i, it := range items {
		p := products[i]
		lineItems[i] = domain.LineItem{
			ProductID: p.ID,
			Name:      p.Name,
			UnitPrice: p.Price,
			Quantity:  it.Quantity,
			Total:     pricing.LineTotal(p.Price, it.Quantity),
			Variant:   it.Variant,
		}
	}

	breakdown := pricing.Compute(lineItems, in.PromoCode)
	if in.SuppliedPricing != nil {
		if err := pricing.Verify(breakdown, *in.SuppliedPricing); err != nil {
			return nil, false, err
		}
	}

	cust, err := s.customers.Customer(ctx, in.CustomerID)
	if err != nil {
		return nil, false, fmt.Errorf("look up customer %s: %w", in.CustomerID, err)
	}
	snapshot := domain.CustomerSnapshot{Name: cust.Name, Email: cust.Email, Phone: cust.Phone}
	if snapshot.Phone == "" {
		snapshot.Phone = in.ShippingAddress.Phone
	}

	now := s.now().UTC()
	actor := in.Actor
	if actor == "" {
		actor = cust.Email
	}

	o = &domain.Order{
		ID:         uuid.New(),
		Number:     NewNumber(now),
		CustomerID: in.CustomerID,
		Customer:   snapshot,
		Items:      lineItems,
		Pricing:    breakdown,
		Shipping:   in.ShippingAddress,
		Payment: domain.PaymentSnapshot{
			Method:        in.Payment.Method,
			TransactionID: in.Payment.TransactionID,
			LastFour:      in.Payment.LastFour,
			Status:        PaymentStatusCompleted,
		},
		Notes:     in.Notes,
		PromoCode: in.PromoCode,
		Status:    domain.OrderStatusPending,
		History: []domain.StatusChange{
			{Status: domain.OrderStatusPending, At: now, Actor: actor, Note: "order placed"},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	event := contracts.NewEvent(contracts.EventOrderCreated, o.ID.String(), o.CustomerID.String(), map[string]any{
		"order_number": o.Number,
		"total":        o.Pricing.Total.String(),
		"items":        len(o.Items),
	})

	err = s.store.Create(ctx, o, CreateOptions{
		IdempotencyKey: in.IdempotencyKey,
		ClearCart:      true,
		Event:          event,
	})
	if err != nil {
		if errors.Is(err, ErrIdempotencyRace) && in.IdempotencyKey != "" {
			if existing, lookupErr := s.store.ByIdempotencyKey(ctx, in.IdempotencyKey); lookupErr == nil && existing != nil {
				return existing, true, nil
			}
		}
		return nil, false, err
	}
	return o, false, nil
}

func (s *Service) resolveItems(ctx context.Context, in CreateInput) ([]inventory.Request, error) {
	if len(in.Items) > 0 {
		return in.Items, nil
	}
	cart, err := s.carts.Cart(ctx, in.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if cart == nil || len(cart.Items) == 0 {
		return nil, domain.ErrCartEmpty
	}
	items := make([]inventory.Request, len(cart.Items))
	for i, ci := range cart.Items {
		items[i] = inventory.Request{ProductID: ci.ProductID, Quantity: ci.Quantity, Variant: ci.Variant}
	}
	return items, nil
}
