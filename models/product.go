package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultMinStock is the low-stock display threshold used when none is given.
const DefaultMinStock = 5

type Variant struct {
	Name     string  `json:"name" bson:"name"`
	Price    float64 `json:"price" bson:"price"`
	InStock  int     `json:"inStock" bson:"inStock"`
	MinStock int     `json:"minStock" bson:"minStock"`
}

type Product struct {
	ID           primitive.ObjectID  `json:"_id,omitempty" bson:"_id,omitempty"`
	Name         string              `json:"name" bson:"name"`
	Price        float64             `json:"price" bson:"price"`
	Description  string              `json:"description" bson:"description"`
	Category     string              `json:"category,omitempty" bson:"category,omitempty"` // legacy free-text category
	CategoryID   *primitive.ObjectID `json:"categoryId,omitempty" bson:"categoryId,omitempty"`
	Image        string              `json:"image" bson:"image"`
	ImageID      string              `json:"imageId,omitempty" bson:"imageId,omitempty"`
	ThumbnailURL string              `json:"thumbnailUrl,omitempty" bson:"thumbnailUrl,omitempty"`
	HoverImage   string              `json:"hoverImage,omitempty" bson:"hoverImage,omitempty"`
	HoverImageID string              `json:"hoverImageId,omitempty" bson:"hoverImageId,omitempty"`
	Image3       string              `json:"image3,omitempty" bson:"image3,omitempty"`
	Image3ID     string              `json:"image3Id,omitempty" bson:"image3Id,omitempty"`
	Image4       string              `json:"image4,omitempty" bson:"image4,omitempty"`
	Image4ID     string              `json:"image4Id,omitempty" bson:"image4Id,omitempty"`
	Video        string              `json:"video,omitempty" bson:"video,omitempty"`
	VideoID      string              `json:"videoId,omitempty" bson:"videoId,omitempty"`
	Video2       string              `json:"video2,omitempty" bson:"video2,omitempty"`
	Video2ID     string              `json:"video2Id,omitempty" bson:"video2Id,omitempty"`
	Video3       string              `json:"video3,omitempty" bson:"video3,omitempty"`
	Video3ID     string              `json:"video3Id,omitempty" bson:"video3Id,omitempty"`
	InStock      int                 `json:"inStock" bson:"inStock"`
	MinStock     int                 `json:"minStock" bson:"minStock"`
	Featured     bool                `json:"featured" bson:"featured"`
	Assured      bool                `json:"assured" bson:"assured"`
	Variants     []Variant           `json:"variants" bson:"variants"`
	CreatedAt    time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time           `json:"updatedAt" bson:"updatedAt"`
}

// FindVariant returns the variant with the exact given name.
func (p *Product) FindVariant(name string) (*Variant, bool) {
	for i := range p.Variants {
		if p.Variants[i].Name == name {
			return &p.Variants[i], true
		}
	}
	return nil, false
}

// StockFor returns the counter an order line would draw from.
func (p *Product) StockFor(variantName string) (int, bool) {
	if variantName == "" {
		return p.InStock, true
	}
	v, ok := p.FindVariant(variantName)
	if !ok {
		return 0, false
	}
	return v.InStock, true
}

// IsLowStock reports whether the scalar counter or any variant is at or below its threshold.
func (p *Product) IsLowStock() bool {
	if p.InStock <= p.MinStock {
		return true
	}
	for _, v := range p.Variants {
		if v.InStock <= v.MinStock {
			return true
		}
	}
	return false
}

// MediaSlot names one of the product's independently managed media fields.
type MediaSlot struct {
	Field   string // multipart field and JSON key, e.g. "hoverImage"
	URLKey  string // bson key of the URL
	IDKey   string // bson key of the CDN file id
	Primary bool
	Video   bool
}

// ProductMediaSlots lists the seven media fields in form order.
var ProductMediaSlots = []MediaSlot{
	{Field: "image", URLKey: "image", IDKey: "imageId", Primary: true},
	{Field: "hoverImage", URLKey: "hoverImage", IDKey: "hoverImageId"},
	{Field: "image3", URLKey: "image3", IDKey: "image3Id"},
	{Field: "image4", URLKey: "image4", IDKey: "image4Id"},
	{Field: "video", URLKey: "video", IDKey: "videoId", Video: true},
	{Field: "video2", URLKey: "video2", IDKey: "video2Id", Video: true},
	{Field: "video3", URLKey: "video3", IDKey: "video3Id", Video: true},
}

// Media returns the URL and CDN id currently stored in a slot.
func (p *Product) Media(slot MediaSlot) (url, id string) {
	switch slot.Field {
	case "image":
		return p.Image, p.ImageID
	case "hoverImage":
		return p.HoverImage, p.HoverImageID
	case "image3":
		return p.Image3, p.Image3ID
	case "image4":
		return p.Image4, p.Image4ID
	case "video":
		return p.Video, p.VideoID
	case "video2":
		return p.Video2, p.Video2ID
	case "video3":
		return p.Video3, p.Video3ID
	}
	return "", ""
}

// SetMedia stores a URL and CDN id into a slot.
func (p *Product) SetMedia(slot MediaSlot, url, id string) {
	switch slot.Field {
	case "image":
		p.Image, p.ImageID = url, id
	case "hoverImage":
		p.HoverImage, p.HoverImageID = url, id
	case "image3":
		p.Image3, p.Image3ID = url, id
	case "image4":
		p.Image4, p.Image4ID = url, id
	case "video":
		p.Video, p.VideoID = url, id
	case "video2":
		p.Video2, p.Video2ID = url, id
	case "video3":
		p.Video3, p.Video3ID = url, id
	}
}
