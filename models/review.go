package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	ReviewPending  = "pending"
	ReviewApproved = "approved"
	ReviewRejected = "rejected"

	ReviewSourceCustomer = "customer"
	ReviewSourceAdmin    = "admin"
)

type Review struct {
	ID                 primitive.ObjectID  `json:"_id,omitempty" bson:"_id,omitempty"`
	ProductID          primitive.ObjectID  `json:"productId" bson:"productId"`
	OrderID            *primitive.ObjectID `json:"orderId" bson:"orderId"`
	CustomerName       string              `json:"customerName" bson:"customerName"`
	CustomerEmail      string              `json:"customerEmail,omitempty" bson:"customerEmail,omitempty"`
	Headline           string              `json:"headline,omitempty" bson:"headline,omitempty"`
	Rating             int                 `json:"rating" bson:"rating"`
	ReviewText         string              `json:"reviewText" bson:"reviewText"`
	Status             string              `json:"status" bson:"status"`
	Source             string              `json:"source" bson:"source"`
	IPAddress          string              `json:"ipAddress,omitempty" bson:"ipAddress,omitempty"`
	IsVerifiedPurchase bool                `json:"isVerifiedPurchase" bson:"isVerifiedPurchase"`
	CreatedAt          time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt          time.Time           `json:"updatedAt" bson:"updatedAt"`
}

func IsValidReviewStatus(s string) bool {
	return s == ReviewPending || s == ReviewApproved || s == ReviewRejected
}

// PublicReview is what storefront visitors see; contact data and IP are dropped.
type PublicReview struct {
	ID                 primitive.ObjectID `json:"_id"`
	ProductID          primitive.ObjectID `json:"productId"`
	CustomerName       string             `json:"customerName"`
	Headline           string             `json:"headline,omitempty"`
	Rating             int                `json:"rating"`
	ReviewText         string             `json:"reviewText"`
	IsVerifiedPurchase bool               `json:"isVerifiedPurchase"`
	CreatedAt          time.Time          `json:"createdAt"`
}

func (r *Review) Public() PublicReview {
	return PublicReview{
		ID:                 r.ID,
		ProductID:          r.ProductID,
		CustomerName:       r.CustomerName,
		Headline:           r.Headline,
		Rating:             r.Rating,
		ReviewText:         r.ReviewText,
		IsVerifiedPurchase: r.IsVerifiedPurchase,
		CreatedAt:          r.CreatedAt,
	}
}

type Rating struct {
	AverageRating float64 `json:"averageRating"`
	TotalReviews  int     `json:"totalReviews"`
}
