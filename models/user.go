package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

var NoteCategories = map[string]bool{"preference": true, "shipping": true, "issue": true, "other": true}

type Note struct {
	Category       string    `json:"category" bson:"category"`
	Message        string    `json:"message" bson:"message"`
	IsHighPriority bool      `json:"isHighPriority" bson:"isHighPriority"`
	AddedBy        string    `json:"addedBy,omitempty" bson:"addedBy,omitempty"`
	CreatedAt      time.Time `json:"createdAt" bson:"createdAt"`
}

// Address is a saved shipping address. At most one per user is primary.
type Address struct {
	ID         primitive.ObjectID `json:"_id" bson:"_id"`
	Type       string             `json:"type" bson:"type"`
	FullName   string             `json:"fullName" bson:"fullName"`
	Address    string             `json:"address" bson:"address"`
	City       string             `json:"city" bson:"city"`
	PostalCode string             `json:"postalCode" bson:"postalCode"`
	Country    string             `json:"country" bson:"country"`
	Phone      string             `json:"phone,omitempty" bson:"phone,omitempty"`
	IsPrimary  bool               `json:"isPrimary" bson:"isPrimary"`
}

type User struct {
	ID         primitive.ObjectID   `json:"_id,omitempty" bson:"_id,omitempty"`
	Email      string               `json:"email" bson:"email"`
	Password   string               `json:"-" bson:"password,omitempty"`
	FullName   string               `json:"fullName" bson:"fullName"`
	Role       string               `json:"role" bson:"role"`
	Phone      string               `json:"phone,omitempty" bson:"phone,omitempty"`
	Address    string               `json:"address,omitempty" bson:"address,omitempty"`
	City       string               `json:"city,omitempty" bson:"city,omitempty"`
	PostalCode string               `json:"postalCode,omitempty" bson:"postalCode,omitempty"`
	Country    string               `json:"country,omitempty" bson:"country,omitempty"`
	Orders     []primitive.ObjectID `json:"orders" bson:"orders"`
	Notes      []Note               `json:"notes" bson:"notes"`
	Addresses  []Address            `json:"addresses" bson:"addresses,omitempty"`
	CreatedAt  time.Time            `json:"createdAt" bson:"createdAt"`
	UpdatedAt  time.Time            `json:"updatedAt" bson:"updatedAt"`

	// ResetTokenHash is the SHA-256 of the emailed reset token.
	ResetTokenHash string     `json:"-" bson:"resetPasswordToken,omitempty"`
	ResetExpires   *time.Time `json:"-" bson:"resetPasswordExpires,omitempty"`
}

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

// UserWithOrders is the admin view of a customer with its orders expanded.
type UserWithOrders struct {
	User
	OrderDocs []Order `json:"orderDetails"`
}
