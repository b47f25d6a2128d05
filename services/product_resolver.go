package services

import (
	"context"
	"errors"

	"storefront-service/media"
	"storefront-service/models"
	"storefront-service/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrVariantNotFound = errors.New("variant not found")
)

// ProductResolver finds the product an order line refers to. Lines built
// from payment-provider metadata may carry a stale or malformed id, so an
// exact name match on the line title is the fallback.
type ProductResolver struct {
	products repository.ProductRepo
}

func NewProductResolver(products repository.ProductRepo) *ProductResolver {
	return &ProductResolver{products: products}
}

func (r *ProductResolver) Resolve(ctx context.Context, ref, title string) (*models.Product, error) {
	if id, err := primitive.ObjectIDFromHex(ref); err == nil {
		p, err := r.products.FindByID(ctx, id)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
	}

	if title != "" {
		p, err := r.products.FindByName(ctx, title)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
	}
	return nil, ErrProductNotFound
}

// PrimaryImage is the normalised image to snapshot onto an order line.
func PrimaryImage(p *models.Product) string {
	url := p.Image
	if url == "" {
		url = p.ThumbnailURL
	}
	return media.NormalizeImageURL(url)
}
