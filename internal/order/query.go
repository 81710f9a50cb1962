package order

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/emazahmed/tech/internal/domain"
)

const (
	recentWindow = 30 * 24 * time.Hour
	dailyDays    = 7
)

// Queries is the read-only projection side: filtered listings, single-order
// reads with ownership checks, and aggregate statistics.
type Queries struct {
	store Store
	now   func() time.Time
}

func NewQueries(store Store) *Queries {
	return &Queries{store: store, now: time.Now}
}

func (q *Queries) List(ctx context.Context, f Filter) ([]domain.Order, Pagination, error) {
	f = f.Normalized()
	orders, total, err := q.store.List(ctx, f)
	if err != nil {
		return nil, Pagination{}, err
	}
	return orders, NewPagination(f.Page, f.Limit, total), nil
}

func (q *Queries) Get(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return q.store.Get(ctx, id)
}

// ForCustomer fetches an order only when it belongs to customerID; orders
// owned by someone else are reported as not found, not as forbidden.
func (q *Queries) ForCustomer(ctx context.Context, id, customerID uuid.UUID) (*domain.Order, error) {
	o, err := q.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.CustomerID != customerID {
		return nil, domain.ErrOrderNotFound
	}
	return o, nil
}

func (q *Queries) ByCustomer(ctx context.Context, customerID uuid.UUID, page, limit int) ([]domain.Order, Pagination, error) {
	return q.List(ctx, Filter{CustomerID: customerID, Page: page, Limit: limit})
}

func (q *Queries) Recent(ctx context.Context, limit int) ([]domain.Order, error) {
	orders, _, err := q.List(ctx, Filter{Limit: limit})
	return orders, err
}

type StatusStat struct {
	Count int             `json:"count"`
	Value decimal.Decimal `json:"value"`
}

type RevenueStat struct {
	Total   decimal.Decimal `json:"total"`
	Average decimal.Decimal `json:"average"`
}

type DayStat struct {
	Date    string          `json:"date"`
	Count   int             `json:"count"`
	Revenue decimal.Decimal `json:"revenue"`
}

type Stats struct {
	TotalOrders  int                               `json:"totalOrders"`
	RecentOrders int                               `json:"recentOrders"`
	ByStatus     map[domain.OrderStatus]StatusStat `json:"byStatus"`
	Revenue      RevenueStat                       `json:"revenue"`
	Daily        []DayStat                         `json:"daily"`
}

// Stats aggregates counts, per-status value sums, revenue (cancelled orders
// excluded) and a trailing 7-day daily series. The heavy lifting happens in
// the store's aggregate queries; nothing here scales with order count.
func (q *Queries) Stats(ctx context.Context) (*Stats, error) {
	now := q.now().UTC()
	recentCutoff := now.Add(-recentWindow)
	dailyFrom := now.AddDate(0, 0, 1-dailyDays).Truncate(24 * time.Hour)

	byStatus, err := q.store.StatusAggregates(ctx, recentCutoff)
	if err != nil {
		return nil, err
	}
	daily, err := q.store.DailyAggregates(ctx, dailyFrom)
	if err != nil {
		return nil, err
	}

	st := &Stats{
		ByStatus: make(map[domain.OrderStatus]StatusStat),
		Revenue:  RevenueStat{Total: decimal.Zero, Average: decimal.Zero},
	}

	revenueOrders := 0
	for _, agg := range byStatus {
		st.TotalOrders += agg.Count
		st.RecentOrders += agg.Recent
		st.ByStatus[agg.Status] = StatusStat{Count: agg.Count, Value: agg.Value}
		if agg.Status != domain.OrderStatusCancelled {
			st.Revenue.Total = st.Revenue.Total.Add(agg.Value)
			revenueOrders += agg.Count
		}
	}
	if revenueOrders > 0 {
		st.Revenue.Average = st.Revenue.Total.Div(decimal.NewFromInt(int64(revenueOrders))).Round(2)
	}
	st.Revenue.Total = st.Revenue.Total.Round(2)

	days := make([]DayStat, dailyDays)
	dayIndex := make(map[string]int, dailyDays)
	for i := 0; i < dailyDays; i++ {
		date := now.AddDate(0, 0, i-dailyDays+1).Format("2006-01-02")
		days[i] = DayStat{Date: date, Revenue: decimal.Zero}
		dayIndex[date] = i
	}
	for _, d := range daily {
		if i, ok := dayIndex[d.Date]; ok {
			days[i].Count = d.Count
			days[i].Revenue = d.Revenue
		}
	}
	st.Daily = days
	return st, nil
}
