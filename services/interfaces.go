package services

import (
	"context"
	"time"

	"storefront-service/models"
	"storefront-service/payments"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// StockLedger is implemented by *InventoryLedger.
type StockLedger interface {
	Decrement(ctx context.Context, items []StockItem, orderID *primitive.ObjectID) []StockAdjustment
	Increment(ctx context.Context, items []StockItem, orderID *primitive.ObjectID, reason string) []StockAdjustment
	Adjust(ctx context.Context, productID primitive.ObjectID, variantName string, newStock int, reason string) (StockAdjustment, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, event models.OrderEvent) error
}

type EmailQueue interface {
	EnqueueOrderConfirmation(ctx context.Context, order *models.Order) error
}

// PasswordResetMailer is implemented by *notifier.Mailer.
type PasswordResetMailer interface {
	SendPasswordReset(ctx context.Context, to, resetURL string, ttl time.Duration) error
}

type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, p payments.SessionParams) (*payments.Session, error)
}
