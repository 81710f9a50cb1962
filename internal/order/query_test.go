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
)

func TestFilterNormalized(t *testing.T) {
	f := Filter{}.Normalized()
	assert.Equal(t, 1, f.Page)
	assert.Equal(t, defaultPageSize, f.Limit)
	assert.Equal(t, "createdAt", f.SortBy)
	assert.Equal(t, "desc", f.SortOrder)

	f = Filter{Page: -3, Limit: 5000, SortBy: "total", SortOrder: "asc"}.Normalized()
	assert.Equal(t, 1, f.Page)
	assert.Equal(t, maxPageSize, f.Limit)
	assert.Equal(t, "total", f.SortBy)
	assert.Equal(t, "asc", f.SortOrder)
}

func TestNewPagination(t *testing.T) {
	p := NewPagination(2, 10, 25)
	assert.Equal(t, 3, p.TotalPages)
	assert.Equal(t, 25, p.Total)

	assert.Equal(t, 0, NewPagination(1, 10, 0).TotalPages)
}

func TestForCustomer_OwnershipHidesOrder(t *testing.T) {
	store := newFakeStore()
	o := store.seedOrder(domain.OrderStatusPending, "10.00", time.Now().UTC())
	q := NewQueries(store)

	got, err := q.ForCustomer(context.Background(), o.ID, o.CustomerID)
	require.NoError(t, err)
	assert.Equal(t, o.ID, got.ID)

	_, err = q.ForCustomer(context.Background(), o.ID, uuid.New())
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestStats(t *testing.T) {
	now := time.Date(2026, 8, 30, 15, 0, 0, 0, time.UTC)
	store := newFakeStore()

	store.seedOrder(domain.OrderStatusPending, "100.00", now.Add(-2*time.Hour))
	store.seedOrder(domain.OrderStatusDelivered, "50.00", now.AddDate(0, 0, -3))
	store.seedOrder(domain.OrderStatusCancelled, "30.00", now.AddDate(0, 0, -1))
	store.seedOrder(domain.OrderStatusDelivered, "70.00", now.AddDate(0, 0, -60))

	q := NewQueries(store)
	q.now = func() time.Time { return now }

	st, err := q.Stats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, st.TotalOrders)
	assert.Equal(t, 3, st.RecentOrders) // the 60-day-old order is outside the window

	assert.Equal(t, 1, st.ByStatus[domain.OrderStatusPending].Count)
	assert.Equal(t, 2, st.ByStatus[domain.OrderStatusDelivered].Count)
	assert.True(t, st.ByStatus[domain.OrderStatusDelivered].Value.Equal(decimal.RequireFromString("120")))

	// Revenue excludes the cancelled order: 100 + 50 + 70.
	assert.True(t, st.Revenue.Total.Equal(decimal.RequireFromString("220")), "total %s", st.Revenue.Total)
	assert.True(t, st.Revenue.Average.Equal(decimal.RequireFromString("73.33")), "average %s", st.Revenue.Average)

	require.Len(t, st.Daily, 7)
	assert.Equal(t, "2026-08-24", st.Daily[0].Date)
	assert.Equal(t, "2026-08-30", st.Daily[6].Date)

	// Today: one pending order. Yesterday: the cancelled one counts but
	// contributes no revenue.
	assert.Equal(t, 1, st.Daily[6].Count)
	assert.True(t, st.Daily[6].Revenue.Equal(decimal.RequireFromString("100")))
	assert.Equal(t, 1, st.Daily[5].Count)
	assert.True(t, st.Daily[5].Revenue.IsZero())
}

func TestStats_Empty(t *testing.T) {
	q := NewQueries(newFakeStore())
	st, err := q.Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, st.TotalOrders)
	assert.True(t, st.Revenue.Average.IsZero())
	assert.Len(t, st.Daily, 7)
}
