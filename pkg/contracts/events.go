package contracts

import (
	"time"

	"github.com/google/uuid"
)

type Event struct {
	EventID    string         `json:"event_id"`
	OrderID    string         `json:"order_id"`
	CustomerID string         `json:"customer_id,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	Type       string         `json:"type"`
	Payload    map[string]any `json:"payload,omitempty"`
}

const (
	EventOrderCreated          = "order.created"
	EventOrderStatusChanged    = "order.status_changed"
	EventOrderCancelled        = "order.cancelled"
	EventOrderTrackingAttached = "order.tracking_attached"
)

func NewEvent(typ, orderID, customerID string, payload map[string]any) Event {
	return Event{
		EventID:    uuid.NewString(),
		OrderID:    orderID,
		CustomerID: customerID,
		CreatedAt:  time.Now().UTC(),
		Type:       typ,
		Payload:    payload,
	}
}
