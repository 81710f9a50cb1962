package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition leaves this status.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// LineItem is one product/quantity pair within an order. Name and UnitPrice
// are captured at order time and do not follow later product edits.
type LineItem struct {
	ProductID uuid.UUID         `json:"productId"`
	Name      string            `json:"name"`
	UnitPrice decimal.Decimal   `json:"price"`
	Quantity  int               `json:"quantity"`
	Total     decimal.Decimal   `json:"total"`
	Variant   map[string]string `json:"variant,omitempty"`
}

// Pricing is the monetary breakdown of an order.
// Invariant at computation time: Total = Subtotal + Tax + Shipping - Discount.
type Pricing struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Shipping decimal.Decimal `json:"shipping"`
	Discount decimal.Decimal `json:"discount"`
	Total    decimal.Decimal `json:"total"`
}

type Address struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
	Phone      string `json:"phone,omitempty"`
}

// CustomerSnapshot is the customer's contact info as it was when the order
// was placed, immune to later customer edits.
type CustomerSnapshot struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

type PaymentSnapshot struct {
	Method        string `json:"method"`
	TransactionID string `json:"transactionId,omitempty"`
	LastFour      string `json:"lastFour,omitempty"`
	Status        string `json:"status"`
}

// StatusChange is one append-only status-history entry.
type StatusChange struct {
	Status OrderStatus `json:"status"`
	At     time.Time   `json:"at"`
	Actor  string      `json:"actor,omitempty"`
	Note   string      `json:"note,omitempty"`
}

type Tracking struct {
	Carrier           string    `json:"carrier"`
	TrackingNumber    string    `json:"trackingNumber"`
	EstimatedDelivery time.Time `json:"estimatedDelivery,omitempty"`
}

type Order struct {
	ID         uuid.UUID        `json:"id"`
	Number     string           `json:"orderNumber"`
	CustomerID uuid.UUID        `json:"customerId"`
	Customer   CustomerSnapshot `json:"customer"`
	Items      []LineItem       `json:"items"`
	Pricing    Pricing          `json:"pricing"`
	Shipping   Address          `json:"shippingAddress"`
	Payment    PaymentSnapshot  `json:"payment"`
	Notes      string           `json:"notes,omitempty"`
	PromoCode  string           `json:"promoCode,omitempty"`
	Status     OrderStatus      `json:"status"`
	History    []StatusChange   `json:"statusHistory"`
	Tracking   *Tracking        `json:"tracking,omitempty"`
	CreatedAt  time.Time        `json:"createdAt"`
	UpdatedAt  time.Time        `json:"updatedAt"`
}
