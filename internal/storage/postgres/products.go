package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/emazahmed/tech/internal/catalog"
	"github.com/emazahmed/tech/internal/domain"
)

const productColumns = `id, name, description, price::text, category, brand, sku,
	inventory_count, active, in_stock, featured, rating, created_at, updated_at`

type ProductStore struct {
	pool *pgxpool.Pool
}

func NewProductStore(pool *pgxpool.Pool) *ProductStore {
	return &ProductStore{pool: pool}
}

func (s *ProductStore) Product(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id=$1`, id)
	p, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrProductNotFound
	}
	return p, err
}

func (s *ProductStore) List(ctx context.Context, f catalog.Filter) ([]domain.Product, int, error) {
	where, args := buildProductWhere(f)

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM products`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	offset := (f.Page - 1) * f.Limit
	args = append(args, f.Limit, offset)
	q := fmt.Sprintf(`SELECT %s FROM products%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		productColumns, where, len(args)-1, len(args))

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *p)
	}
	return out, total, rows.Err()
}

func buildProductWhere(f catalog.Filter) (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, val any) {
		args = append(args, val)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.Category != "" {
		add("category = $%d", f.Category)
	}
	if f.Brand != "" {
		add("brand = $%d", f.Brand)
	}
	if f.Search != "" {
		add("(name ILIKE $%[1]d OR description ILIKE $%[1]d OR sku ILIKE $%[1]d)", "%"+f.Search+"%")
	}
	if f.Featured != nil {
		add("featured = $%d", *f.Featured)
	}
	if f.Active != nil {
		add("active = $%d", *f.Active)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (s *ProductStore) Create(ctx context.Context, p *domain.Product) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO products(id, name, description, price, category, brand, sku,
		inventory_count, active, in_stock, featured, rating)
		VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		p.ID, p.Name, p.Description, p.Price.String(), p.Category, p.Brand, p.SKU,
		p.InventoryCount, p.Active, p.InStock, p.Featured, p.Rating)
	return err
}

func (s *ProductStore) Update(ctx context.Context, p *domain.Product) error {
	tag, err := s.pool.Exec(ctx, `UPDATE products SET name=$2, description=$3, price=$4, category=$5,
		brand=$6, sku=$7, inventory_count=$8, active=$9, in_stock=$10, featured=$11, rating=$12,
		updated_at=now() WHERE id=$1`,
		p.ID, p.Name, p.Description, p.Price.String(), p.Category, p.Brand, p.SKU,
		p.InventoryCount, p.Active, p.InStock, p.Featured, p.Rating)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

func (s *ProductStore) SoftDelete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `UPDATE products SET active=false, updated_at=now() WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var p domain.Product
	var price string
	err := row.Scan(&p.ID, &p.Name, &p.Description, &price, &p.Category, &p.Brand, &p.SKU,
		&p.InventoryCount, &p.Active, &p.InStock, &p.Featured, &p.Rating, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if p.Price, err = parseDecimal(price); err != nil {
		return nil, err
	}
	return &p, nil
}
