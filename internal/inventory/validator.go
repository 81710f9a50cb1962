// Package inventory checks a requested line-item list against the product
// catalog before an order is assembled. Validation is fail-fast and reserves
// nothing; the atomic conditional decrement at persistence time is what
// actually guards stock.
package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/emazahmed/tech/internal/domain"
)

// ProductLookup resolves a product by id. Implemented by the catalog store.
type ProductLookup interface {
	Product(ctx context.Context, id uuid.UUID) (*domain.Product, error)
}

// Request is one requested product/quantity pair.
type Request struct {
	ProductID uuid.UUID
	Quantity  int
	Variant   map[string]string
}

type Validator struct {
	products ProductLookup
}

func NewValidator(products ProductLookup) *Validator {
	return &Validator{products: products}
}

// Validate checks each item in list order and returns the resolved products
// in the same order. The first failing item aborts the whole request.
func (v *Validator) Validate(ctx context.Context, items []Request) ([]*domain.Product, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: no items requested", domain.ErrCartEmpty)
	}

	resolved := make([]*domain.Product, 0, len(items))
	for _, it := range items {
		if it.Quantity <= 0 {
			return nil, fmt.Errorf("%w: product %s quantity must be positive", domain.ErrProductUnavailable, it.ProductID)
		}
		p, err := v.products.Product(ctx, it.ProductID)
		if err != nil {
			if errors.Is(err, domain.ErrProductNotFound) {
				return nil, fmt.Errorf("%w: product %s", domain.ErrProductUnavailable, it.ProductID)
			}
			return nil, err
		}
		if !p.Active {
			return nil, fmt.Errorf("%w: product %s is inactive", domain.ErrProductUnavailable, it.ProductID)
		}
		if !p.InStock {
			return nil, fmt.Errorf("%w: product %s", domain.ErrOutOfStock, it.ProductID)
		}
		if p.InventoryCount < it.Quantity {
			return nil, fmt.Errorf("%w: product %s has %d, requested %d",
				domain.ErrInsufficientInventory, it.ProductID, p.InventoryCount, it.Quantity)
		}
		resolved = append(resolved, p)
	}
	return resolved, nil
}
