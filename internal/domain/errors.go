package domain

import "errors"

var (
	ErrOrderNotFound    = errors.New("order not found")
	ErrProductNotFound  = errors.New("product not found")
	ErrCustomerNotFound = errors.New("customer not found")

	// ErrProductUnavailable covers products that do not exist or are inactive.
	ErrProductUnavailable    = errors.New("product unavailable")
	ErrOutOfStock            = errors.New("product out of stock")
	ErrInsufficientInventory = errors.New("insufficient inventory")
	ErrInvalidTransition     = errors.New("invalid status transition")
	ErrPricingMismatch       = errors.New("pricing mismatch")
	ErrCartEmpty             = errors.New("cart is empty")
)
