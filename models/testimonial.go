package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	TestimonialVisible = "visible"
	TestimonialHidden  = "hidden"
)

type Testimonial struct {
	ID           primitive.ObjectID `json:"_id,omitempty" bson:"_id,omitempty"`
	CustomerName string             `json:"customerName" bson:"customerName"`
	Tag          string             `json:"tag,omitempty" bson:"tag,omitempty"`
	AvatarURL    string             `json:"avatarUrl,omitempty" bson:"avatarUrl,omitempty"`
	AvatarID     string             `json:"avatarId,omitempty" bson:"avatarId,omitempty"`
	Product      string             `json:"product,omitempty" bson:"product,omitempty"`
	Rating       int                `json:"rating" bson:"rating"`
	Content      string             `json:"content" bson:"content"`
	Status       string             `json:"status" bson:"status"`
	CreatedAt    time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time          `json:"updatedAt" bson:"updatedAt"`
}
