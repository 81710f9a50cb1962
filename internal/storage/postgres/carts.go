package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/emazahmed/tech/internal/domain"
)

type CartStore struct {
	pool *pgxpool.Pool
}

func NewCartStore(pool *pgxpool.Pool) *CartStore {
	return &CartStore{pool: pool}
}

// Cart returns nil without error when the customer has no stored cart.
func (s *CartStore) Cart(ctx context.Context, customerID uuid.UUID) (*domain.Cart, error) {
	c := &domain.Cart{CustomerID: customerID}
	var items []byte
	err := s.pool.QueryRow(ctx, `SELECT items, updated_at FROM carts WHERE customer_id=$1`, customerID).
		Scan(&items, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(items, &c.Items); err != nil {
		return nil, fmt.Errorf("decode cart items: %w", err)
	}
	return c, nil
}

func (s *CartStore) Put(ctx context.Context, c *domain.Cart) error {
	items, err := json.Marshal(c.Items)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `INSERT INTO carts(customer_id, items, updated_at)
		VALUES($1, $2, now())
		ON CONFLICT (customer_id) DO UPDATE SET items=EXCLUDED.items, updated_at=now()`,
		c.CustomerID, string(items))
	return err
}

func (s *CartStore) Clear(ctx context.Context, customerID uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM carts WHERE customer_id=$1`, customerID)
	return err
}
