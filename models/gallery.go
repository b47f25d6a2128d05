package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GalleryImage is a lookbook photo filed under a catalog category.
type GalleryImage struct {
	ID              primitive.ObjectID   `json:"_id,omitempty" bson:"_id,omitempty"`
	Title           string               `json:"title" bson:"title"`
	Description     string               `json:"description,omitempty" bson:"description,omitempty"`
	ImageURL        string               `json:"imageUrl" bson:"imageUrl"`
	ImageID         string               `json:"imageId" bson:"imageId"`
	ThumbnailURL    string               `json:"thumbnailUrl,omitempty" bson:"thumbnailUrl,omitempty"`
	CategoryID      primitive.ObjectID   `json:"categoryId" bson:"category"`
	Tags            []string             `json:"tags" bson:"tags"`
	AltText         string               `json:"altText,omitempty" bson:"altText,omitempty"`
	Featured        bool                 `json:"featured" bson:"featured"`
	DisplayOrder    int                  `json:"displayOrder" bson:"displayOrder"`
	RelatedProducts []primitive.ObjectID `json:"relatedProductIds" bson:"relatedProducts"`
	CreatedAt       time.Time            `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time            `json:"updatedAt" bson:"updatedAt"`
}

// GalleryImageView is a gallery image with its category and related
// products resolved.
type GalleryImageView struct {
	GalleryImage
	Category *Category `json:"category"`
	Products []Product `json:"relatedProducts"`
}

// GalleryOffer is a two-line promotional banner shown in the gallery.
// Variant selects the banner layout on the storefront.
type GalleryOffer struct {
	ID           primitive.ObjectID `json:"_id,omitempty" bson:"_id,omitempty"`
	Variant      string             `json:"variant" bson:"variant"`
	Title1       string             `json:"title1" bson:"title1"`
	Title2       string             `json:"title2" bson:"title2"`
	Description  string             `json:"description,omitempty" bson:"description,omitempty"`
	ImageURL     string             `json:"imageUrl" bson:"imageUrl"`
	ImageID      string             `json:"imageId" bson:"imageId"`
	ThumbnailURL string             `json:"thumbnailUrl,omitempty" bson:"thumbnailUrl,omitempty"`
	Campaign     string             `json:"campaign,omitempty" bson:"campaign,omitempty"`
	Active       bool               `json:"active" bson:"active"`
	DisplayOrder int                `json:"displayOrder" bson:"displayOrder"`
	Link         string             `json:"link" bson:"link"`
	CreatedAt    time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time          `json:"updatedAt" bson:"updatedAt"`
}
