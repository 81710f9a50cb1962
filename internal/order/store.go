// Package order holds the order-placement workflow: assembling and
// persisting new orders, the status lifecycle, and read-only queries.
package order

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/emazahmed/tech/internal/domain"
	"github.com/emazahmed/tech/pkg/contracts"
)

// ErrIdempotencyRace means another request with the same idempotency key
// committed first; the caller should re-read and replay.
var ErrIdempotencyRace = errors.New("idempotency race")

// ErrNumberCollision means the generated display number already exists.
// The order was not created; retrying generates a fresh number.
var ErrNumberCollision = errors.New("order number collision")

// CreateOptions carries the side effects that must commit atomically with
// the order row: inventory decrement is implicit, the rest is opted into.
type CreateOptions struct {
	IdempotencyKey string
	ClearCart      bool
	Event          contracts.Event
}

// Store is the persistence contract for orders. Implementations must make
// Create a single transaction: order row, line items, conditional inventory
// decrements, idempotency record, outbox event and cart clearing all commit
// or none do.
type Store interface {
	Create(ctx context.Context, o *domain.Order, opts CreateOptions) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	ByIdempotencyKey(ctx context.Context, key string) (*domain.Order, error)
	List(ctx context.Context, f Filter) ([]domain.Order, int, error)

	// StatusAggregates groups order counts and total-value sums by status
	// over all orders; orders created after recent are counted separately.
	StatusAggregates(ctx context.Context, recent time.Time) ([]StatusAgg, error)
	// DailyAggregates buckets orders created on or after from by UTC day.
	// Cancelled orders count but contribute no revenue.
	DailyAggregates(ctx context.Context, from time.Time) ([]DayAgg, error)

	// Transition applies a status change only when the current status is in
	// from, appending entry to the history. A tracking value, when present,
	// is attached in the same statement.
	Transition(ctx context.Context, id uuid.UUID, from []domain.OrderStatus, entry domain.StatusChange, tracking *domain.Tracking, event contracts.Event) (*domain.Order, error)

	// Cancel marks the order cancelled and restores each line item's
	// quantity to its product, in one transaction. Orders already shipped,
	// delivered or cancelled are rejected with ErrInvalidTransition.
	Cancel(ctx context.Context, id uuid.UUID, entry domain.StatusChange, event contracts.Event) (*domain.Order, error)

	// AttachTracking sets tracking info without touching the status.
	AttachTracking(ctx context.Context, id uuid.UUID, tr domain.Tracking, event contracts.Event) (*domain.Order, error)
}

// Filter selects and orders a page of orders.
type Filter struct {
	Status     domain.OrderStatus
	CustomerID uuid.UUID // uuid.Nil matches any customer
	Search     string    // substring over order number, customer name/email
	From       time.Time
	To         time.Time
	SortBy     string // createdAt, updatedAt, total, status, orderNumber
	SortOrder  string // asc or desc
	Page       int
	Limit      int
}

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// Normalized clamps pagination and fills sorting defaults.
func (f Filter) Normalized() Filter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = defaultPageSize
	}
	if f.Limit > maxPageSize {
		f.Limit = maxPageSize
	}
	if f.SortBy == "" {
		f.SortBy = "createdAt"
	}
	if f.SortOrder != "asc" {
		f.SortOrder = "desc"
	}
	return f
}

// StatusAgg is one status's slice of the order book.
type StatusAgg struct {
	Status domain.OrderStatus
	Count  int
	Recent int
	Value  decimal.Decimal
}

// DayAgg is one UTC day's order count and non-cancelled revenue.
type DayAgg struct {
	Date    string // 2006-01-02
	Count   int
	Revenue decimal.Decimal
}

type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

func NewPagination(page, limit, total int) Pagination {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return Pagination{Page: page, Limit: limit, Total: total, TotalPages: pages}
}
