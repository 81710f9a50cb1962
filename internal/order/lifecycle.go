package order

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/emazahmed/tech/internal/domain"
	"github.com/emazahmed/tech/pkg/contracts"
)

// transitions is the explicit edge table of the order lifecycle. Anything
// not listed here is rejected; in particular cancellation stops being
// reachable once an order ships.
var transitions = map[domain.OrderStatus][]domain.OrderStatus{
	domain.OrderStatusPending:    {domain.OrderStatusProcessing, domain.OrderStatusCancelled},
	domain.OrderStatusProcessing: {domain.OrderStatusShipped, domain.OrderStatusCancelled},
	domain.OrderStatusShipped:    {domain.OrderStatusDelivered},
}

// CanTransition reports whether from -> to is an edge of the lifecycle.
func CanTransition(from, to domain.OrderStatus) bool {
	for _, t := range transitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// SourcesFor lists every status from which target is reachable. The store
// uses this as the atomic guard on its status update.
func SourcesFor(target domain.OrderStatus) []domain.OrderStatus {
	var out []domain.OrderStatus
	for from, tos := range transitions {
		for _, to := range tos {
			if to == target {
				out = append(out, from)
			}
		}
	}
	return out
}

// Lifecycle owns status transitions and their side effects.
type Lifecycle struct {
	store Store
	now   func() time.Time
}

func NewLifecycle(store Store) *Lifecycle {
	return &Lifecycle{store: store, now: time.Now}
}

type TransitionInput struct {
	Target   domain.OrderStatus
	Actor    string
	Note     string
	Tracking *domain.Tracking
}

// Transition moves an order to a new status, appending to its history.
// Cancellation is routed through Cancel so inventory is restored.
func (l *Lifecycle) Transition(ctx context.Context, id uuid.UUID, in TransitionInput) (*domain.Order, error) {
	if !in.Target.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidTransition, in.Target)
	}
	if in.Target == domain.OrderStatusCancelled {
		return l.Cancel(ctx, id, in.Actor, in.Note)
	}

	from := SourcesFor(in.Target)
	if len(from) == 0 {
		return nil, fmt.Errorf("%w: %q is not a reachable status", domain.ErrInvalidTransition, in.Target)
	}

	entry := domain.StatusChange{Status: in.Target, At: l.now().UTC(), Actor: in.Actor, Note: in.Note}
	event := contracts.NewEvent(contracts.EventOrderStatusChanged, id.String(), "", map[string]any{
		"status": string(in.Target),
	})
	return l.store.Transition(ctx, id, from, entry, in.Tracking, event)
}

// Cancel marks the order cancelled and restores each line item's quantity
// to its product. Shipped and delivered orders cannot be cancelled.
func (l *Lifecycle) Cancel(ctx context.Context, id uuid.UUID, actor, note string) (*domain.Order, error) {
	entry := domain.StatusChange{Status: domain.OrderStatusCancelled, At: l.now().UTC(), Actor: actor, Note: note}
	event := contracts.NewEvent(contracts.EventOrderCancelled, id.String(), "", nil)
	return l.store.Cancel(ctx, id, entry, event)
}

// AttachTracking sets carrier/number/ETA on an order. Not status-gated.
func (l *Lifecycle) AttachTracking(ctx context.Context, id uuid.UUID, tr domain.Tracking) (*domain.Order, error) {
	event := contracts.NewEvent(contracts.EventOrderTrackingAttached, id.String(), "", map[string]any{
		"carrier":         tr.Carrier,
		"tracking_number": tr.TrackingNumber,
	})
	return l.store.AttachTracking(ctx, id, tr, event)
}

type BulkResult struct {
	OrderID uuid.UUID `json:"orderId"`
	OK      bool      `json:"ok"`
	Error   string    `json:"error,omitempty"`
}

const bulkConcurrency = 8

// BulkTransition applies the same transition to many orders concurrently.
// Each order succeeds or fails on its own; partial success is the expected
// outcome and nothing is rolled back.
func (l *Lifecycle) BulkTransition(ctx context.Context, ids []uuid.UUID, target domain.OrderStatus, actor, note string) []BulkResult {
	results := make([]BulkResult, len(ids))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bulkConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			_, err := l.Transition(ctx, id, TransitionInput{Target: target, Actor: actor, Note: note})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				results[i] = BulkResult{OrderID: id, Error: err.Error()}
			} else {
				results[i] = BulkResult{OrderID: id, OK: true}
			}
			return nil
		})
	}
	_ = g.Wait()
	return results
}
