package postgres

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/emazahmed/tech/internal/order"
)

// sortColumns whitelists the API sort keys; anything else falls back to
// created_at so a request can never inject an ORDER BY expression.
var sortColumns = map[string]string{
	"createdAt":   "created_at",
	"updatedAt":   "updated_at",
	"total":       "total",
	"status":      "status",
	"orderNumber": "order_number",
}

func buildOrderWhere(f order.Filter) (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, val any) {
		args = append(args, val)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.Status != "" {
		add("status = $%d", string(f.Status))
	}
	if f.CustomerID != uuid.Nil {
		add("customer_id = $%d", f.CustomerID)
	}
	if f.Search != "" {
		add("(order_number ILIKE $%[1]d OR customer->>'name' ILIKE $%[1]d OR customer->>'email' ILIKE $%[1]d)",
			"%"+f.Search+"%")
	}
	if !f.From.IsZero() {
		add("created_at >= $%d", f.From)
	}
	if !f.To.IsZero() {
		add("created_at <= $%d", f.To)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func orderBy(f order.Filter) string {
	col, ok := sortColumns[f.SortBy]
	if !ok {
		col = "created_at"
	}
	dir := "DESC"
	if f.SortOrder == "asc" {
		dir = "ASC"
	}
	return col + " " + dir
}
