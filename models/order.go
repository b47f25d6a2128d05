package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Order statuses. Only delivered, cancelled and returned carry side effects.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusShipped    = "shipped"
	StatusDelivered  = "delivered"
	StatusCancelled  = "cancelled"
	StatusReturned   = "returned"
)

const (
	PaymentMethodCOD    = "COD"
	PaymentMethodOnline = "online"
)

var validStatuses = map[string]bool{
	StatusPending:    true,
	StatusProcessing: true,
	StatusShipped:    true,
	StatusDelivered:  true,
	StatusCancelled:  true,
	StatusReturned:   true,
}

// NormalizeStatus lower-cases and trims a requested status.
func NormalizeStatus(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// IsValidStatus reports whether s belongs to the closed status set.
func IsValidStatus(s string) bool {
	return validStatuses[s]
}

// OrderItem is a line-item snapshot captured at purchase time.
type OrderItem struct {
	ProductID   string  `json:"productId" bson:"productId"`
	Title       string  `json:"title" bson:"title"`
	Image       string  `json:"image,omitempty" bson:"image,omitempty"`
	Price       float64 `json:"price" bson:"price"`
	Quantity    int     `json:"quantity" bson:"quantity"`
	VariantName string  `json:"variantName,omitempty" bson:"variantName,omitempty"`
}

type Customer struct {
	FullName   string `json:"fullName" bson:"fullName" binding:"required"`
	Email      string `json:"email" bson:"email" binding:"required,email"`
	Phone      string `json:"phone" bson:"phone"`
	Address    string `json:"address" bson:"address"`
	City       string `json:"city" bson:"city"`
	PostalCode string `json:"postalCode" bson:"postalCode"`
	Country    string `json:"country" bson:"country"`
}

type Order struct {
	ID              primitive.ObjectID `json:"_id,omitempty" bson:"_id,omitempty"`
	OrderID         string             `json:"orderId" bson:"orderId"`
	Products        []OrderItem        `json:"products" bson:"products"`
	Customer        Customer           `json:"customer" bson:"customer"`
	PaymentMethod   string             `json:"paymentMethod" bson:"paymentMethod"`
	Subtotal        float64            `json:"subtotal" bson:"subtotal"`
	ShippingFee     float64            `json:"shippingFee" bson:"shippingFee"`
	Tax             float64            `json:"tax" bson:"tax"`
	TotalAmount     float64            `json:"totalAmount" bson:"totalAmount"`
	Status          string             `json:"status" bson:"status"`
	StripeSessionID string             `json:"stripeSessionId,omitempty" bson:"stripeSessionId,omitempty"`
	CreatedAt       time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// OrderCode derives the customer-facing order code from the internal id.
func OrderCode(id primitive.ObjectID) string {
	return "AC-" + strings.ToUpper(id.Hex())
}

// ContainsProduct reports whether any line item references productID.
func (o *Order) ContainsProduct(productID string) bool {
	for _, p := range o.Products {
		if p.ProductID == productID {
			return true
		}
	}
	return false
}
