package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ContactSubjects = []string{"general", "order", "product", "wholesale", "feedback", "service"}

const (
	ContactNew      = "new"
	ContactRead     = "read"
	ContactResolved = "resolved"
)

type Contact struct {
	ID        primitive.ObjectID `json:"_id,omitempty" bson:"_id,omitempty"`
	Name      string             `json:"name" bson:"name"`
	Email     string             `json:"email" bson:"email"`
	Phone     string             `json:"phone,omitempty" bson:"phone,omitempty"`
	Subject   string             `json:"subject" bson:"subject"`
	Service   string             `json:"service,omitempty" bson:"service,omitempty"`
	Message   string             `json:"message" bson:"message"`
	Status    string             `json:"status" bson:"status"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt" bson:"updatedAt"`
}
