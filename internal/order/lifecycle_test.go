package order

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emazahmed/tech/internal/domain"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to domain.OrderStatus
		want     bool
	}{
		{domain.OrderStatusPending, domain.OrderStatusProcessing, true},
		{domain.OrderStatusPending, domain.OrderStatusCancelled, true},
		{domain.OrderStatusProcessing, domain.OrderStatusShipped, true},
		{domain.OrderStatusProcessing, domain.OrderStatusCancelled, true},
		{domain.OrderStatusShipped, domain.OrderStatusDelivered, true},

		{domain.OrderStatusPending, domain.OrderStatusShipped, false},
		{domain.OrderStatusPending, domain.OrderStatusDelivered, false},
		{domain.OrderStatusShipped, domain.OrderStatusCancelled, false},
		{domain.OrderStatusDelivered, domain.OrderStatusPending, false},
		{domain.OrderStatusDelivered, domain.OrderStatusCancelled, false},
		{domain.OrderStatusCancelled, domain.OrderStatusPending, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CanTransition(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestSourcesFor(t *testing.T) {
	assert.ElementsMatch(t,
		[]domain.OrderStatus{domain.OrderStatusPending, domain.OrderStatusProcessing},
		SourcesFor(domain.OrderStatusCancelled))
	assert.ElementsMatch(t,
		[]domain.OrderStatus{domain.OrderStatusShipped},
		SourcesFor(domain.OrderStatusDelivered))
	assert.Empty(t, SourcesFor(domain.OrderStatusPending))
}

func TestTransition_AppendsHistory(t *testing.T) {
	store := newFakeStore()
	o := store.seedOrder(domain.OrderStatusPending, "50.00", time.Now().UTC())
	l := NewLifecycle(store)

	got, err := l.Transition(context.Background(), o.ID, TransitionInput{
		Target: domain.OrderStatusProcessing,
		Actor:  "ops@example.com",
		Note:   "picked",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusProcessing, got.Status)
	require.Len(t, got.History, 1)
	assert.Equal(t, "ops@example.com", got.History[0].Actor)
	assert.Equal(t, "picked", got.History[0].Note)
}

func TestTransition_OffTableEdgeRejected(t *testing.T) {
	store := newFakeStore()
	o := store.seedOrder(domain.OrderStatusDelivered, "50.00", time.Now().UTC())
	l := NewLifecycle(store)

	_, err := l.Transition(context.Background(), o.ID, TransitionInput{Target: domain.OrderStatusProcessing})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestTransition_UnknownAndPendingTargets(t *testing.T) {
	store := newFakeStore()
	o := store.seedOrder(domain.OrderStatusPending, "50.00", time.Now().UTC())
	l := NewLifecycle(store)

	_, err := l.Transition(context.Background(), o.ID, TransitionInput{Target: "refunded"})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	// Nothing transitions back to pending.
	_, err = l.Transition(context.Background(), o.ID, TransitionInput{Target: domain.OrderStatusPending})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestTransition_ShippedWithTracking(t *testing.T) {
	store := newFakeStore()
	o := store.seedOrder(domain.OrderStatusProcessing, "50.00", time.Now().UTC())
	l := NewLifecycle(store)

	got, err := l.Transition(context.Background(), o.ID, TransitionInput{
		Target:   domain.OrderStatusShipped,
		Tracking: &domain.Tracking{Carrier: "UPS", TrackingNumber: "1Z999"},
	})
	require.NoError(t, err)
	require.NotNil(t, got.Tracking)
	assert.Equal(t, "1Z999", got.Tracking.TrackingNumber)
}

func TestCancel_RestoresInventory(t *testing.T) {
	store := newFakeStore()
	o := store.seedOrder(domain.OrderStatusPending, "50.00", time.Now().UTC())
	productID := o.Items[0].ProductID
	store.inventory[productID] = 3
	l := NewLifecycle(store)

	got, err := l.Cancel(context.Background(), o.ID, "jane", "changed my mind")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCancelled, got.Status)
	assert.Equal(t, 5, store.inventory[productID])
}

func TestCancel_ShippedRejectedInventoryUntouched(t *testing.T) {
	store := newFakeStore()
	o := store.seedOrder(domain.OrderStatusShipped, "50.00", time.Now().UTC())
	productID := o.Items[0].ProductID
	store.inventory[productID] = 3
	l := NewLifecycle(store)

	_, err := l.Cancel(context.Background(), o.ID, "jane", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, 3, store.inventory[productID])
}

func TestAttachTracking_NotStatusGated(t *testing.T) {
	store := newFakeStore()
	o := store.seedOrder(domain.OrderStatusPending, "50.00", time.Now().UTC())
	l := NewLifecycle(store)

	got, err := l.AttachTracking(context.Background(), o.ID, domain.Tracking{Carrier: "DHL", TrackingNumber: "JD01"})
	require.NoError(t, err)
	require.NotNil(t, got.Tracking)
	assert.Equal(t, "DHL", got.Tracking.Carrier)
	assert.Equal(t, domain.OrderStatusPending, got.Status)
}

func TestBulkTransition_PartialSuccess(t *testing.T) {
	store := newFakeStore()
	ok1 := store.seedOrder(domain.OrderStatusPending, "10.00", time.Now().UTC())
	bad := store.seedOrder(domain.OrderStatusDelivered, "10.00", time.Now().UTC())
	ok2 := store.seedOrder(domain.OrderStatusPending, "10.00", time.Now().UTC())
	missing := uuid.New()
	l := NewLifecycle(store)

	results := l.BulkTransition(context.Background(),
		[]uuid.UUID{ok1.ID, bad.ID, ok2.ID, missing},
		domain.OrderStatusProcessing, "ops", "")

	require.Len(t, results, 4)
	byID := map[uuid.UUID]BulkResult{}
	for _, r := range results {
		byID[r.OrderID] = r
	}
	assert.True(t, byID[ok1.ID].OK)
	assert.True(t, byID[ok2.ID].OK)
	assert.False(t, byID[bad.ID].OK)
	assert.NotEmpty(t, byID[bad.ID].Error)
	assert.False(t, byID[missing].OK)

	// The failures did not stop the successes.
	assert.Equal(t, domain.OrderStatusProcessing, store.orders[ok1.ID].Status)
	assert.Equal(t, domain.OrderStatusProcessing, store.orders[ok2.ID].Status)
	assert.Equal(t, domain.OrderStatusDelivered, store.orders[bad.ID].Status)
}
