package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Sale mirrors a delivered order for reporting. One per order.
type Sale struct {
	ID            primitive.ObjectID `json:"_id,omitempty" bson:"_id,omitempty"`
	OrderID       primitive.ObjectID `json:"orderId" bson:"orderId"`
	Products      []OrderItem        `json:"products" bson:"products"`
	Customer      Customer           `json:"customer" bson:"customer"`
	PaymentMethod string             `json:"paymentMethod" bson:"paymentMethod"`
	TotalAmount   float64            `json:"totalAmount" bson:"totalAmount"`
	SaleDate      time.Time          `json:"saleDate" bson:"saleDate"`
}

func NewSaleFromOrder(o *Order, at time.Time) *Sale {
	return &Sale{
		OrderID:       o.ID,
		Products:      o.Products,
		Customer:      o.Customer,
		PaymentMethod: o.PaymentMethod,
		TotalAmount:   o.TotalAmount,
		SaleDate:      at,
	}
}
