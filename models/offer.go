package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Offer struct {
	ID           primitive.ObjectID `json:"_id,omitempty" bson:"_id,omitempty"`
	Title        string             `json:"title" bson:"title"`
	Description  string             `json:"description,omitempty" bson:"description,omitempty"`
	ImageURL     string             `json:"imageUrl" bson:"imageUrl"`
	ImageID      string             `json:"imageId" bson:"imageId"`
	ThumbnailURL string             `json:"thumbnailUrl,omitempty" bson:"thumbnailUrl,omitempty"`
	Active       bool               `json:"active" bson:"active"`
	DisplayOrder int                `json:"displayOrder" bson:"displayOrder"`
	Link         string             `json:"link" bson:"link"`
	Category     string             `json:"category" bson:"category"`
	CreatedAt    time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time          `json:"updatedAt" bson:"updatedAt"`
}
