// Package cart stores one cart per customer, replaced wholesale on update
// and cleared by order creation.
package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/emazahmed/tech/internal/domain"
)

type Store interface {
	Cart(ctx context.Context, customerID uuid.UUID) (*domain.Cart, error)
	Put(ctx context.Context, c *domain.Cart) error
	Clear(ctx context.Context, customerID uuid.UUID) error
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Get returns the customer's cart, empty rather than nil when none exists.
func (s *Service) Get(ctx context.Context, customerID uuid.UUID) (*domain.Cart, error) {
	c, err := s.store.Cart(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return &domain.Cart{CustomerID: customerID, Items: []domain.CartItem{}}, nil
	}
	return c, nil
}

// Put replaces the cart's items.
func (s *Service) Put(ctx context.Context, customerID uuid.UUID, items []domain.CartItem) (*domain.Cart, error) {
	for _, it := range items {
		if it.ProductID == uuid.Nil || it.Quantity <= 0 {
			return nil, fmt.Errorf("cart item needs a product id and a positive quantity")
		}
	}
	c := &domain.Cart{CustomerID: customerID, Items: items}
	if err := s.store.Put(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) Clear(ctx context.Context, customerID uuid.UUID) error {
	return s.store.Clear(ctx, customerID)
}
