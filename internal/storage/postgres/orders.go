package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/emazahmed/tech/internal/domain"
	"github.com/emazahmed/tech/internal/order"
	"github.com/emazahmed/tech/pkg/contracts"
	"github.com/emazahmed/tech/pkg/outbox"
)

const orderColumns = `id, order_number, customer_id, customer, items,
	subtotal::text, tax::text, shipping::text, discount::text, total::text,
	shipping_address, payment, notes, promo_code, status, status_history, tracking,
	created_at, updated_at`

type OrderStore struct {
	pool  *pgxpool.Pool
	topic string
}

func NewOrderStore(pool *pgxpool.Pool, topic string) *OrderStore {
	return &OrderStore{pool: pool, topic: topic}
}

// Create persists the order and all of its side effects in one transaction:
// line items live inside the order row, every product's inventory is
// decremented with a decrement-if-sufficient statement, the idempotency key
// is recorded, the created event lands in the outbox and the customer's
// cart is cleared. A failed decrement rolls the whole thing back, so no
// partial order is ever visible.
func (s *OrderStore) Create(ctx context.Context, o *domain.Order, opts order.CreateOptions) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	customer, _ := json.Marshal(o.Customer)
	items, _ := json.Marshal(o.Items)
	shipping, _ := json.Marshal(o.Shipping)
	payment, _ := json.Marshal(o.Payment)
	history, _ := json.Marshal(o.History)

	_, err = tx.Exec(ctx, `INSERT INTO orders(id, order_number, customer_id, customer, items,
		subtotal, tax, shipping, discount, total,
		shipping_address, payment, notes, promo_code, status, status_history, created_at, updated_at)
		VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		o.ID, o.Number, o.CustomerID, string(customer), string(items),
		o.Pricing.Subtotal.String(), o.Pricing.Tax.String(), o.Pricing.Shipping.String(),
		o.Pricing.Discount.String(), o.Pricing.Total.String(),
		string(shipping), string(payment), o.Notes, o.PromoCode, string(o.Status), string(history),
		o.CreatedAt, o.UpdatedAt)
	if err != nil {
		if uniqueConstraint(err) == "orders_order_number_key" {
			return order.ErrNumberCollision
		}
		return err
	}

	for _, it := range o.Items {
		tag, err := tx.Exec(ctx, `UPDATE products
			SET inventory_count = inventory_count - $2,
			    in_stock = (inventory_count - $2) > 0,
			    updated_at = now()
			WHERE id = $1 AND active AND inventory_count >= $2`,
			it.ProductID, it.Quantity)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: product %s", domain.ErrInsufficientInventory, it.ProductID)
		}
	}

	if opts.IdempotencyKey != "" {
		_, err = tx.Exec(ctx, `INSERT INTO order_idempotency(idempotency_key, order_id) VALUES($1, $2)`,
			opts.IdempotencyKey, o.ID)
		if err != nil {
			if isUniqueViolation(err) {
				return order.ErrIdempotencyRace
			}
			return err
		}
	}

	if opts.ClearCart {
		if _, err := tx.Exec(ctx, `DELETE FROM carts WHERE customer_id=$1`, o.CustomerID); err != nil {
			return err
		}
	}

	if err := outbox.Insert(ctx, tx, opts.Event.EventID, s.topic, o.ID.String(), opts.Event); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (s *OrderStore) Get(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, id)
	o, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrOrderNotFound
	}
	return o, err
}

func (s *OrderStore) ByIdempotencyKey(ctx context.Context, key string) (*domain.Order, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders
		WHERE id = (SELECT order_id FROM order_idempotency WHERE idempotency_key=$1)`, key)
	o, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrOrderNotFound
	}
	return o, err
}

func (s *OrderStore) List(ctx context.Context, f order.Filter) ([]domain.Order, int, error) {
	where, args := buildOrderWhere(f)

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM orders`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	offset := (f.Page - 1) * f.Limit
	args = append(args, f.Limit, offset)
	q := fmt.Sprintf(`SELECT %s FROM orders%s ORDER BY %s LIMIT $%d OFFSET $%d`,
		orderColumns, where, orderBy(f), len(args)-1, len(args))

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *o)
	}
	return out, total, rows.Err()
}

func (s *OrderStore) StatusAggregates(ctx context.Context, recent time.Time) ([]order.StatusAgg, error) {
	rows, err := s.pool.Query(ctx, `SELECT status, count(*),
		count(*) FILTER (WHERE created_at > $1),
		coalesce(sum(total), 0)::text
		FROM orders GROUP BY status`, recent)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []order.StatusAgg
	for rows.Next() {
		var agg order.StatusAgg
		var status, value string
		if err := rows.Scan(&status, &agg.Count, &agg.Recent, &value); err != nil {
			return nil, err
		}
		agg.Status = domain.OrderStatus(status)
		if agg.Value, err = parseDecimal(value); err != nil {
			return nil, err
		}
		out = append(out, agg)
	}
	return out, rows.Err()
}

func (s *OrderStore) DailyAggregates(ctx context.Context, from time.Time) ([]order.DayAgg, error) {
	rows, err := s.pool.Query(ctx, `SELECT to_char(created_at AT TIME ZONE 'UTC', 'YYYY-MM-DD'),
		count(*),
		coalesce(sum(total) FILTER (WHERE status <> $2), 0)::text
		FROM orders WHERE created_at >= $1
		GROUP BY 1 ORDER BY 1`, from, string(domain.OrderStatusCancelled))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []order.DayAgg
	for rows.Next() {
		var agg order.DayAgg
		var revenue string
		if err := rows.Scan(&agg.Date, &agg.Count, &revenue); err != nil {
			return nil, err
		}
		if agg.Revenue, err = parseDecimal(revenue); err != nil {
			return nil, err
		}
		out = append(out, agg)
	}
	return out, rows.Err()
}

// Transition guards the status change on the current status in SQL, so two
// concurrent conflicting transitions cannot both apply.
func (s *OrderStore) Transition(ctx context.Context, id uuid.UUID, from []domain.OrderStatus, entry domain.StatusChange, tracking *domain.Tracking, event contracts.Event) (*domain.Order, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	entryJSON, _ := json.Marshal(entry)
	var trackingJSON any
	if tracking != nil {
		data, _ := json.Marshal(tracking)
		trackingJSON = string(data)
	}
	sources := make([]string, len(from))
	for i, st := range from {
		sources[i] = string(st)
	}

	tag, err := tx.Exec(ctx, `UPDATE orders
		SET status=$2, status_history = status_history || $3::jsonb,
		    tracking = COALESCE($4::jsonb, tracking), updated_at=now()
		WHERE id=$1 AND status = ANY($5)`,
		id, string(entry.Status), string(entryJSON), trackingJSON, sources)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		var current string
		err := tx.QueryRow(ctx, `SELECT status FROM orders WHERE id=$1`, id).Scan(&current)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, current, entry.Status)
	}

	if err := outbox.Insert(ctx, tx, event.EventID, s.topic, id.String(), event); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Cancel restores every line item's quantity to its product inside the same
// transaction that flips the status, mirroring the decrement at creation.
func (s *OrderStore) Cancel(ctx context.Context, id uuid.UUID, entry domain.StatusChange, event contracts.Event) (*domain.Order, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var status string
	var customerID uuid.UUID
	var itemsJSON []byte
	err = tx.QueryRow(ctx, `SELECT status, customer_id, items FROM orders WHERE id=$1 FOR UPDATE`, id).
		Scan(&status, &customerID, &itemsJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	switch domain.OrderStatus(status) {
	case domain.OrderStatusShipped, domain.OrderStatusDelivered, domain.OrderStatusCancelled:
		return nil, fmt.Errorf("%w: cannot cancel a %s order", domain.ErrInvalidTransition, status)
	}

	var items []domain.LineItem
	if err := json.Unmarshal(itemsJSON, &items); err != nil {
		return nil, fmt.Errorf("decode order items: %w", err)
	}
	for _, it := range items {
		_, err := tx.Exec(ctx, `UPDATE products
			SET inventory_count = inventory_count + $2, in_stock = true, updated_at = now()
			WHERE id = $1`, it.ProductID, it.Quantity)
		if err != nil {
			return nil, err
		}
	}

	entryJSON, _ := json.Marshal(entry)
	_, err = tx.Exec(ctx, `UPDATE orders
		SET status=$2, status_history = status_history || $3::jsonb, updated_at=now()
		WHERE id=$1`, id, string(domain.OrderStatusCancelled), string(entryJSON))
	if err != nil {
		return nil, err
	}

	event.CustomerID = customerID.String()
	if err := outbox.Insert(ctx, tx, event.EventID, s.topic, id.String(), event); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *OrderStore) AttachTracking(ctx context.Context, id uuid.UUID, tr domain.Tracking, event contracts.Event) (*domain.Order, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	data, _ := json.Marshal(tr)
	tag, err := tx.Exec(ctx, `UPDATE orders SET tracking=$2::jsonb, updated_at=now() WHERE id=$1`,
		id, string(data))
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, domain.ErrOrderNotFound
	}

	if err := outbox.Insert(ctx, tx, event.EventID, s.topic, id.String(), event); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var o domain.Order
	var customer, items, shipping, payment, history []byte
	var tracking []byte
	var subtotal, tax, shippingFee, discount, total string
	var status string

	err := row.Scan(&o.ID, &o.Number, &o.CustomerID, &customer, &items,
		&subtotal, &tax, &shippingFee, &discount, &total,
		&shipping, &payment, &o.Notes, &o.PromoCode, &status, &history, &tracking,
		&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}

	o.Status = domain.OrderStatus(status)
	if err := json.Unmarshal(customer, &o.Customer); err != nil {
		return nil, fmt.Errorf("decode customer snapshot: %w", err)
	}
	if err := json.Unmarshal(items, &o.Items); err != nil {
		return nil, fmt.Errorf("decode line items: %w", err)
	}
	if err := json.Unmarshal(shipping, &o.Shipping); err != nil {
		return nil, fmt.Errorf("decode shipping address: %w", err)
	}
	if err := json.Unmarshal(payment, &o.Payment); err != nil {
		return nil, fmt.Errorf("decode payment snapshot: %w", err)
	}
	if err := json.Unmarshal(history, &o.History); err != nil {
		return nil, fmt.Errorf("decode status history: %w", err)
	}
	if len(tracking) > 0 {
		o.Tracking = &domain.Tracking{}
		if err := json.Unmarshal(tracking, o.Tracking); err != nil {
			return nil, fmt.Errorf("decode tracking: %w", err)
		}
	}

	if o.Pricing.Subtotal, err = parseDecimal(subtotal); err != nil {
		return nil, err
	}
	if o.Pricing.Tax, err = parseDecimal(tax); err != nil {
		return nil, err
	}
	if o.Pricing.Shipping, err = parseDecimal(shippingFee); err != nil {
		return nil, err
	}
	if o.Pricing.Discount, err = parseDecimal(discount); err != nil {
		return nil, err
	}
	if o.Pricing.Total, err = parseDecimal(total); err != nil {
		return nil, err
	}
	return &o, nil
}
