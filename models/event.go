package models

import "time"

const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
)

// OrderEvent is published to the order topic after checkout and on every
// status transition.
type OrderEvent struct {
	Type           string    `json:"type"`
	OrderID        string    `json:"orderId"`
	OrderCode      string    `json:"orderCode"`
	Status         string    `json:"status"`
	PreviousStatus string    `json:"previousStatus,omitempty"`
	PaymentMethod  string    `json:"paymentMethod"`
	TotalAmount    float64   `json:"totalAmount"`
	CustomerEmail  string    `json:"customerEmail"`
	OccurredAt     time.Time `json:"occurredAt"`
}

func NewOrderEvent(eventType string, o *Order, previousStatus string) OrderEvent {
	return OrderEvent{
		Type:           eventType,
		OrderID:        o.ID.Hex(),
		OrderCode:      o.OrderID,
		Status:         o.Status,
		PreviousStatus: previousStatus,
		PaymentMethod:  o.PaymentMethod,
		TotalAmount:    o.TotalAmount,
		CustomerEmail:  o.Customer.Email,
		OccurredAt:     time.Now().UTC(),
	}
}
