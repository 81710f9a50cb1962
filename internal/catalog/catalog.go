// Package catalog is product CRUD. Products are soft-deleted and their
// inventory counts only move through the conditional decrement/restore
// operations on the store, so the count can never go negative.
package catalog

import (
	"context"

	"github.com/google/uuid"

	"github.com/emazahmed/tech/internal/domain"
)

type Filter struct {
	Category string
	Brand    string
	Search   string // substring over name, description, sku
	Featured *bool
	Active   *bool
	Page     int
	Limit    int
}

func (f Filter) Normalized() Filter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		f.Limit = 100
	}
	return f
}

type Store interface {
	Product(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	List(ctx context.Context, f Filter) ([]domain.Product, int, error)
	Create(ctx context.Context, p *domain.Product) error
	Update(ctx context.Context, p *domain.Product) error
	// SoftDelete flips the active flag off; the row stays.
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return s.store.Product(ctx, id)
}

func (s *Service) List(ctx context.Context, f Filter) ([]domain.Product, int, error) {
	return s.store.List(ctx, f.Normalized())
}

func (s *Service) Create(ctx context.Context, p *domain.Product) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.InventoryCount < 0 {
		p.InventoryCount = 0
	}
	// InStock tracks the count unless the caller overrides it later.
	p.InStock = p.InventoryCount > 0
	p.Active = true
	return s.store.Create(ctx, p)
}

func (s *Service) Update(ctx context.Context, p *domain.Product) error {
	if p.InventoryCount < 0 {
		p.InventoryCount = 0
	}
	return s.store.Update(ctx, p)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.store.SoftDelete(ctx, id)
}
