package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Inventory log reasons.
const (
	ReasonOrderPlaced     = "order-placed"
	ReasonOrderDelivered  = "order-delivered"
	ReasonOrderReturned   = "order-returned"
	ReasonOrderCancelled  = "order-cancelled"
	ReasonAdminAdjustment = "admin-adjustment"
	ReasonProductEdit     = "product-edit"
	ReasonOther           = "other"
)

// IsValidInventoryReason checks whether reason belongs to the audit reason set.
func IsValidInventoryReason(reason string) bool {
	switch reason {
	case ReasonOrderPlaced, ReasonOrderDelivered, ReasonOrderReturned, ReasonOrderCancelled,
		ReasonAdminAdjustment, ReasonProductEdit, ReasonOther:
		return true
	}
	return false
}

type InventoryLogMeta struct {
	OrderID *primitive.ObjectID `json:"orderId,omitempty" bson:"orderId,omitempty"`
}

// InventoryLog is an append-only audit record of one stock counter change.
type InventoryLog struct {
	ID            primitive.ObjectID `json:"_id,omitempty" bson:"_id,omitempty"`
	ProductID     primitive.ObjectID `json:"productId" bson:"productId"`
	ProductName   string             `json:"productName" bson:"productName"`
	VariantName   string             `json:"variantName,omitempty" bson:"variantName,omitempty"`
	Change        int                `json:"change" bson:"change"`
	PreviousStock int                `json:"previousStock" bson:"previousStock"`
	NewStock      int                `json:"newStock" bson:"newStock"`
	Reason        string             `json:"reason" bson:"reason"`
	Meta          InventoryLogMeta   `json:"meta" bson:"meta"`
	CreatedAt     time.Time          `json:"createdAt" bson:"createdAt"`
}
