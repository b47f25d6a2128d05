package services

import (
	"context"
	"errors"
	"strings"

	apperrors "storefront-service/common/errors"
	"storefront-service/media"
	"storefront-service/models"
	"storefront-service/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	galleryFolder      = "storefront/gallery"
	galleryOfferFolder = "storefront/gallery-offers"
	featuredImageLimit = 6
	allCategoriesSlug  = "all"
)

var (
	ErrGalleryImageNotFound = apperrors.NotFound("Gallery image not found")
	ErrGalleryOfferNotFound = apperrors.NotFound("Gallery offer not found")
	ErrGalleryImageRequired = apperrors.BadRequest("No image file uploaded")
	ErrGalleryCategory      = apperrors.BadRequest("A valid category is required")
)

// GalleryImageInput is the admin image form. Tags and RelatedProducts are
// comma-separated lists.
type GalleryImageInput struct {
	Title           string `form:"title"`
	Description     string `form:"description"`
	Category        string `form:"category"`
	Tags            string `form:"tags"`
	AltText         string `form:"altText"`
	Featured        bool   `form:"featured"`
	DisplayOrder    int    `form:"displayOrder"`
	RelatedProducts string `form:"relatedProducts"`
}

// GalleryOfferInput is the admin banner form. Nil fields are left unchanged
// on update.
type GalleryOfferInput struct {
	Variant      *string `form:"variant"`
	Title1       *string `form:"title1"`
	Title2       *string `form:"title2"`
	Description  *string `form:"description"`
	Campaign     *string `form:"campaign"`
	Link         *string `form:"link"`
	Active       *bool   `form:"active"`
	DisplayOrder *int    `form:"displayOrder"`
	ImageURL     string  `form:"imageUrl"`
}

type GalleryService struct {
	images     repository.GalleryImageRepo
	offers     repository.GalleryOfferRepo
	categories repository.CategoryRepo
	products   repository.ProductRepo
	media      media.Store
	logger     *zap.Logger
}

func NewGalleryService(
	images repository.GalleryImageRepo,
	offers repository.GalleryOfferRepo,
	categories repository.CategoryRepo,
	products repository.ProductRepo,
	store media.Store,
	logger *zap.Logger,
) *GalleryService {
	return &GalleryService{
		images:     images,
		offers:     offers,
		categories: categories,
		products:   products,
		media:      store,
		logger:     logger,
	}
}

// Images lists gallery images in display order. An empty slug or "all"
// lists every category.
func (s *GalleryService) Images(ctx context.Context, categorySlug string) ([]models.GalleryImageView, error) {
	var filter repository.GalleryImageFilter
	if slug := strings.TrimSpace(categorySlug); slug != "" && slug != allCategoriesSlug {
		c, err := s.categories.FindBySlug(ctx, slug)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrCategoryNotFound
			}
			return nil, err
		}
		filter.CategoryID = &c.ID
	}
	return s.list(ctx, filter)
}

func (s *GalleryService) Featured(ctx context.Context) ([]models.GalleryImageView, error) {
	return s.list(ctx, repository.GalleryImageFilter{FeaturedOnly: true, Limit: featuredImageLimit})
}

func (s *GalleryService) AdminImages(ctx context.Context) ([]models.GalleryImageView, error) {
	return s.list(ctx, repository.GalleryImageFilter{NewestFirst: true})
}

func (s *GalleryService) list(ctx context.Context, filter repository.GalleryImageFilter) ([]models.GalleryImageView, error) {
	images, err := s.images.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	return s.resolve(ctx, images)
}

func (s *GalleryService) GetImage(ctx context.Context, id string) (*models.GalleryImageView, error) {
	img, err := s.findImage(ctx, id)
	if err != nil {
		return nil, err
	}
	views, err := s.resolve(ctx, []models.GalleryImage{*img})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *GalleryService) findImage(ctx context.Context, id string) (*models.GalleryImage, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrGalleryImageNotFound
	}
	img, err := s.images.FindByID(ctx, oid)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrGalleryImageNotFound
		}
		return nil, err
	}
	return img, nil
}

// resolve attaches categories and related products. References to deleted
// documents are dropped from the view.
func (s *GalleryService) resolve(ctx context.Context, images []models.GalleryImage) ([]models.GalleryImageView, error) {
	categories, err := s.categories.FindAll(ctx, false)
	if err != nil {
		return nil, err
	}
	byCategory := make(map[primitive.ObjectID]*models.Category, len(categories))
	for i := range categories {
		byCategory[categories[i].ID] = &categories[i]
	}

	var productIDs []primitive.ObjectID
	for _, img := range images {
		productIDs = append(productIDs, img.RelatedProducts...)
	}
	products, err := s.products.FindByIDs(ctx, productIDs)
	if err != nil {
		return nil, err
	}
	byProduct := make(map[primitive.ObjectID]models.Product, len(products))
	for _, p := range products {
		byProduct[p.ID] = p
	}

	out := make([]models.GalleryImageView, 0, len(images))
	for _, img := range images {
		view := models.GalleryImageView{GalleryImage: img, Category: byCategory[img.CategoryID], Products: []models.Product{}}
		for _, pid := range img.RelatedProducts {
			if p, ok := byProduct[pid]; ok {
				view.Products = append(view.Products, p)
			}
		}
		out = append(out, view)
	}
	return out, nil
}

func splitCSV(raw string) []string {
	out := []string{}
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseObjectIDList(raw string) ([]primitive.ObjectID, error) {
	parts := splitCSV(raw)
	out := make([]primitive.ObjectID, 0, len(parts))
	for _, p := range parts {
		oid, err := primitive.ObjectIDFromHex(p)
		if err != nil {
			return nil, apperrors.BadRequest("Invalid related product id: " + p)
		}
		out = append(out, oid)
	}
	return out, nil
}

func (s *GalleryService) categoryRef(ctx context.Context, raw string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(raw))
	if err != nil {
		return primitive.NilObjectID, ErrGalleryCategory
	}
	if _, err := s.categories.FindByID(ctx, oid); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return primitive.NilObjectID, ErrGalleryCategory
		}
		return primitive.NilObjectID, err
	}
	return oid, nil
}

func (s *GalleryService) CreateImage(ctx context.Context, in GalleryImageInput, image *media.UploadInput) (*models.GalleryImageView, error) {
	if image == nil {
		return nil, ErrGalleryImageRequired
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperrors.BadRequest("Title is required")
	}
	categoryID, err := s.categoryRef(ctx, in.Category)
	if err != nil {
		return nil, err
	}
	related, err := parseObjectIDList(in.RelatedProducts)
	if err != nil {
		return nil, err
	}

	asset, err := s.upload(ctx, image, galleryFolder)
	if err != nil {
		return nil, err
	}
	img := &models.GalleryImage{
		Title:           title,
		Description:     strings.TrimSpace(in.Description),
		ImageURL:        asset.URL,
		ImageID:         asset.ID,
		CategoryID:      categoryID,
		Tags:            splitCSV(in.Tags),
		AltText:         strings.TrimSpace(in.AltText),
		Featured:        in.Featured,
		DisplayOrder:    in.DisplayOrder,
		RelatedProducts: related,
	}
	if err := s.images.Create(ctx, img); err != nil {
		s.discard(ctx, asset.ID)
		return nil, apperrors.ErrInternalServer.Wrap(err).WithMessage("Error uploading gallery image")
	}
	s.logger.Info("Gallery image created", zap.String("image_id", img.ID.Hex()), zap.String("category_id", categoryID.Hex()))
	return s.GetImage(ctx, img.ID.Hex())
}

// UpdateImage replaces the image's fields with the form. A new upload
// replaces the stored file, which is deleted once the document is updated.
func (s *GalleryService) UpdateImage(ctx context.Context, id string, in GalleryImageInput, image *media.UploadInput) (*models.GalleryImageView, error) {
	existing, err := s.findImage(ctx, id)
	if err != nil {
		return nil, err
	}
	related, err := parseObjectIDList(in.RelatedProducts)
	if err != nil {
		return nil, err
	}
	set := map[string]interface{}{
		"description":     strings.TrimSpace(in.Description),
		"tags":            splitCSV(in.Tags),
		"altText":         strings.TrimSpace(in.AltText),
		"featured":        in.Featured,
		"displayOrder":    in.DisplayOrder,
		"relatedProducts": related,
	}
	if t := strings.TrimSpace(in.Title); t != "" {
		set["title"] = t
	}
	if strings.TrimSpace(in.Category) != "" {
		categoryID, err := s.categoryRef(ctx, in.Category)
		if err != nil {
			return nil, err
		}
		set["category"] = categoryID
	}

	var uploaded *media.Asset
	if image != nil {
		uploaded, err = s.upload(ctx, image, galleryFolder)
		if err != nil {
			return nil, err
		}
		set["imageUrl"], set["imageId"], set["thumbnailUrl"] = uploaded.URL, uploaded.ID, ""
	}

	if _, err := s.images.Update(ctx, existing.ID, set); err != nil {
		if uploaded != nil {
			s.discard(ctx, uploaded.ID)
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrGalleryImageNotFound
		}
		return nil, err
	}
	if uploaded != nil {
		s.discard(ctx, existing.ImageID)
	}
	return s.GetImage(ctx, existing.ID.Hex())
}

func (s *GalleryService) DeleteImage(ctx context.Context, id string) error {
	existing, err := s.findImage(ctx, id)
	if err != nil {
		return err
	}
	if err := s.images.Delete(ctx, existing.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrGalleryImageNotFound
		}
		return err
	}
	s.discard(ctx, existing.ImageID)
	return nil
}

func (s *GalleryService) PublicOffers(ctx context.Context) ([]models.GalleryOffer, error) {
	return s.offers.Find(ctx, true)
}

func (s *GalleryService) AdminOffers(ctx context.Context) ([]models.GalleryOffer, error) {
	return s.offers.Find(ctx, false)
}

func (s *GalleryService) GetOffer(ctx context.Context, id string) (*models.GalleryOffer, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrGalleryOfferNotFound
	}
	o, err := s.offers.FindByID(ctx, oid)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrGalleryOfferNotFound
		}
		return nil, err
	}
	return o, nil
}

func trimmed(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}

func (s *GalleryService) CreateOffer(ctx context.Context, in GalleryOfferInput, image *media.UploadInput) (*models.GalleryOffer, error) {
	o := &models.GalleryOffer{
		Variant:     trimmed(in.Variant),
		Title1:      trimmed(in.Title1),
		Title2:      trimmed(in.Title2),
		Description: trimmed(in.Description),
		Campaign:    trimmed(in.Campaign),
		Link:        linkOrDefault(trimmed(in.Link)),
		Active:      in.Active != nil && *in.Active,
	}
	if in.DisplayOrder != nil {
		o.DisplayOrder = *in.DisplayOrder
	}
	if o.Variant == "" || o.Title1 == "" || o.Title2 == "" {
		return nil, apperrors.BadRequest("Variant, title1 and title2 are required")
	}

	switch {
	case image != nil:
		asset, err := s.upload(ctx, image, galleryOfferFolder)
		if err != nil {
			return nil, err
		}
		o.ImageURL, o.ImageID = asset.URL, asset.ID
	case strings.TrimSpace(in.ImageURL) != "":
		o.ImageURL = strings.TrimSpace(in.ImageURL)
	default:
		return nil, ErrOfferImage
	}

	if err := s.offers.Create(ctx, o); err != nil {
		s.discard(ctx, o.ImageID)
		return nil, apperrors.ErrInternalServer.Wrap(err).WithMessage("Error creating gallery offer")
	}
	return o, nil
}

// UpdateOffer changes only the fields present in the form.
func (s *GalleryService) UpdateOffer(ctx context.Context, id string, in GalleryOfferInput, image *media.UploadInput) (*models.GalleryOffer, error) {
	existing, err := s.GetOffer(ctx, id)
	if err != nil {
		return nil, err
	}
	set := map[string]interface{}{}
	for key, val := range map[string]*string{
		"variant":     in.Variant,
		"title1":      in.Title1,
		"title2":      in.Title2,
		"description": in.Description,
		"campaign":    in.Campaign,
		"link":        in.Link,
	} {
		if val != nil {
			set[key] = strings.TrimSpace(*val)
		}
	}
	if in.Active != nil {
		set["active"] = *in.Active
	}
	if in.DisplayOrder != nil {
		set["displayOrder"] = *in.DisplayOrder
	}

	var uploaded *media.Asset
	switch {
	case image != nil:
		uploaded, err = s.upload(ctx, image, galleryOfferFolder)
		if err != nil {
			return nil, err
		}
		set["imageUrl"], set["imageId"], set["thumbnailUrl"] = uploaded.URL, uploaded.ID, ""
	case strings.TrimSpace(in.ImageURL) != "":
		set["imageUrl"] = strings.TrimSpace(in.ImageURL)
	}

	o, err := s.offers.Update(ctx, existing.ID, set)
	if err != nil {
		if uploaded != nil {
			s.discard(ctx, uploaded.ID)
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrGalleryOfferNotFound
		}
		return nil, err
	}
	if uploaded != nil {
		s.discard(ctx, existing.ImageID)
	}
	return o, nil
}

func (s *GalleryService) DeleteOffer(ctx context.Context, id string) error {
	existing, err := s.GetOffer(ctx, id)
	if err != nil {
		return err
	}
	if err := s.offers.Delete(ctx, existing.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrGalleryOfferNotFound
		}
		return err
	}
	s.discard(ctx, existing.ImageID)
	return nil
}

func (s *GalleryService) upload(ctx context.Context, in *media.UploadInput, folder string) (*media.Asset, error) {
	if in.ContentType != "" && !strings.HasPrefix(in.ContentType, "image/") {
		return nil, ErrOfferImageType
	}
	in.Folder = folder
	asset, err := s.media.Upload(ctx, *in)
	if err != nil {
		return nil, apperrors.ErrInternalServer.Wrap(err).WithMessage("Error uploading gallery image")
	}
	return asset, nil
}

func (s *GalleryService) discard(ctx context.Context, id string) {
	if id == "" {
		return
	}
	if err := s.media.Delete(ctx, id, false); err != nil {
		s.logger.Warn("Failed to delete gallery file", zap.String("file_id", id), zap.Error(err))
	}
}
