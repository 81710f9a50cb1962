package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a catalog entry. Products are soft-deleted: Active is flipped
// off instead of removing the row. InStock normally tracks InventoryCount > 0
// but can be overridden explicitly.
type Product struct {
	ID             uuid.UUID       `json:"id"`
	Name           string          `json:"name"`
	Description    string          `json:"description,omitempty"`
	Price          decimal.Decimal `json:"price"`
	Category       string          `json:"category,omitempty"`
	Brand          string          `json:"brand,omitempty"`
	SKU            string          `json:"sku"`
	InventoryCount int             `json:"inventoryCount"`
	Active         bool            `json:"active"`
	InStock        bool            `json:"inStock"`
	Featured       bool            `json:"featured"`
	Rating         float64         `json:"rating"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

type Customer struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type CartItem struct {
	ProductID uuid.UUID         `json:"productId"`
	Quantity  int               `json:"quantity"`
	Variant   map[string]string `json:"variant,omitempty"`
}

// Cart is the customer's stored cart, one per customer. Order creation
// clears it on success.
type Cart struct {
	CustomerID uuid.UUID  `json:"customerId"`
	Items      []CartItem `json:"items"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}
