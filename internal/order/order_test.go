package order

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/emazahmed/tech/internal/domain"
	"github.com/emazahmed/tech/pkg/contracts"
)

// fakeStore mirrors the postgres store's semantics in memory, including the
// status guard on Transition and the inventory restore on Cancel.
type fakeStore struct {
	orders    map[uuid.UUID]*domain.Order
	byKey     map[string]uuid.UUID
	inventory map[uuid.UUID]int

	createErr    error
	created      []*domain.Order
	clearedCarts []uuid.UUID
	events       []contracts.Event
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		orders:    map[uuid.UUID]*domain.Order{},
		byKey:     map[string]uuid.UUID{},
		inventory: map[uuid.UUID]int{},
	}
}

func (f *fakeStore) Create(_ context.Context, o *domain.Order, opts CreateOptions) error {
	if f.createErr != nil {
		return f.createErr
	}
	if opts.IdempotencyKey != "" {
		if _, ok := f.byKey[opts.IdempotencyKey]; ok {
			return ErrIdempotencyRace
		}
		f.byKey[opts.IdempotencyKey] = o.ID
	}
	for _, it := range o.Items {
		if f.inventory[it.ProductID] < it.Quantity {
			return domain.ErrInsufficientInventory
		}
		f.inventory[it.ProductID] -= it.Quantity
	}
	cp := *o
	f.orders[o.ID] = &cp
	f.created = append(f.created, &cp)
	if opts.ClearCart {
		f.clearedCarts = append(f.clearedCarts, o.CustomerID)
	}
	f.events = append(f.events, opts.Event)
	return nil
}

func (f *fakeStore) Get(_ context.Context, id uuid.UUID) (*domain.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (f *fakeStore) ByIdempotencyKey(_ context.Context, key string) (*domain.Order, error) {
	id, ok := f.byKey[key]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return f.Get(context.Background(), id)
}

func (f *fakeStore) List(_ context.Context, fl Filter) ([]domain.Order, int, error) {
	var out []domain.Order
	for _, o := range f.orders {
		out = append(out, *o)
	}
	return out, len(out), nil
}

func (f *fakeStore) StatusAggregates(_ context.Context, recent time.Time) ([]StatusAgg, error) {
	byStatus := map[domain.OrderStatus]*StatusAgg{}
	for _, o := range f.orders {
		agg, ok := byStatus[o.Status]
		if !ok {
			agg = &StatusAgg{Status: o.Status, Value: decimal.Zero}
			byStatus[o.Status] = agg
		}
		agg.Count++
		if o.CreatedAt.After(recent) {
			agg.Recent++
		}
		agg.Value = agg.Value.Add(o.Pricing.Total)
	}
	var out []StatusAgg
	for _, agg := range byStatus {
		out = append(out, *agg)
	}
	return out, nil
}

func (f *fakeStore) DailyAggregates(_ context.Context, from time.Time) ([]DayAgg, error) {
	byDay := map[string]*DayAgg{}
	for _, o := range f.orders {
		if o.CreatedAt.Before(from) {
			continue
		}
		date := o.CreatedAt.UTC().Format("2006-01-02")
		agg, ok := byDay[date]
		if !ok {
			agg = &DayAgg{Date: date, Revenue: decimal.Zero}
			byDay[date] = agg
		}
		agg.Count++
		if o.Status != domain.OrderStatusCancelled {
			agg.Revenue = agg.Revenue.Add(o.Pricing.Total)
		}
	}
	var out []DayAgg
	for _, agg := range byDay {
		out = append(out, *agg)
	}
	return out, nil
}

func (f *fakeStore) Transition(_ context.Context, id uuid.UUID, from []domain.OrderStatus, entry domain.StatusChange, tracking *domain.Tracking, event contracts.Event) (*domain.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	if !slices.Contains(from, o.Status) {
		return nil, domain.ErrInvalidTransition
	}
	o.Status = entry.Status
	o.History = append(o.History, entry)
	if tracking != nil {
		o.Tracking = tracking
	}
	f.events = append(f.events, event)
	cp := *o
	return &cp, nil
}

func (f *fakeStore) Cancel(_ context.Context, id uuid.UUID, entry domain.StatusChange, event contracts.Event) (*domain.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	switch o.Status {
	case domain.OrderStatusShipped, domain.OrderStatusDelivered, domain.OrderStatusCancelled:
		return nil, domain.ErrInvalidTransition
	}
	for _, it := range o.Items {
		f.inventory[it.ProductID] += it.Quantity
	}
	o.Status = domain.OrderStatusCancelled
	o.History = append(o.History, entry)
	f.events = append(f.events, event)
	cp := *o
	return &cp, nil
}

func (f *fakeStore) AttachTracking(_ context.Context, id uuid.UUID, tr domain.Tracking, event contracts.Event) (*domain.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	o.Tracking = &tr
	f.events = append(f.events, event)
	cp := *o
	return &cp, nil
}

func (f *fakeStore) seedOrder(status domain.OrderStatus, total string, createdAt time.Time) *domain.Order {
	o := &domain.Order{
		ID:         uuid.New(),
		Number:     NewNumber(createdAt),
		CustomerID: uuid.New(),
		Status:     status,
		Pricing:    domain.Pricing{Total: decimal.RequireFromString(total)},
		Items: []domain.LineItem{
			{ProductID: uuid.New(), Quantity: 2},
		},
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	f.orders[o.ID] = o
	return o
}
