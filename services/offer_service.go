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
	offerFolder      = "storefront/offers"
	defaultOfferLink = "/products"
)

var (
	ErrOfferNotFound  = apperrors.NotFound("Offer not found")
	ErrOfferImage     = apperrors.BadRequest("Image is required")
	ErrOfferImageType = apperrors.BadRequest("Only image files are allowed")
)

type OfferInput struct {
	Title        string `form:"title" validate:"required"`
	Description  string `form:"description"`
	Link         string `form:"link"`
	Category     string `form:"category"`
	Active       bool   `form:"active"`
	DisplayOrder int    `form:"displayOrder"`
	ImageURL     string `form:"imageUrl"`
}

type OfferService struct {
	repo   repository.OfferRepo
	media  media.Store
	logger *zap.Logger
}

func NewOfferService(repo repository.OfferRepo, store media.Store, logger *zap.Logger) *OfferService {
	return &OfferService{repo: repo, media: store, logger: logger}
}

func (s *OfferService) PublicList(ctx context.Context) ([]models.Offer, error) {
	return s.repo.Find(ctx, true)
}

func (s *OfferService) List(ctx context.Context) ([]models.Offer, error) {
	return s.repo.Find(ctx, false)
}

func (s *OfferService) Get(ctx context.Context, id string) (*models.Offer, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrOfferNotFound
	}
	o, err := s.repo.FindByID(ctx, oid)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrOfferNotFound
		}
		return nil, err
	}
	return o, nil
}

func linkOrDefault(link string) string {
	if l := strings.TrimSpace(link); l != "" {
		return l
	}
	return defaultOfferLink
}

// Create stores an offer whose image is either uploaded or given as a URL.
func (s *OfferService) Create(ctx context.Context, in OfferInput, image *media.UploadInput) (*models.Offer, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, apperrors.BadRequest("Title is required")
	}
	o := &models.Offer{
		Title:        strings.TrimSpace(in.Title),
		Description:  strings.TrimSpace(in.Description),
		Link:         linkOrDefault(in.Link),
		Category:     strings.TrimSpace(in.Category),
		Active:       in.Active,
		DisplayOrder: in.DisplayOrder,
	}
	switch {
	case image != nil:
		asset, err := s.upload(ctx, image)
		if err != nil {
			return nil, err
		}
		o.ImageURL, o.ImageID = asset.URL, asset.ID
	case strings.TrimSpace(in.ImageURL) != "":
		o.ImageURL = strings.TrimSpace(in.ImageURL)
	default:
		return nil, ErrOfferImage
	}

	if err := s.repo.Create(ctx, o); err != nil {
		s.discard(ctx, o.ImageID)
		return nil, apperrors.ErrInternalServer.Wrap(err).WithMessage("Error creating offer")
	}
	return o, nil
}

func (s *OfferService) Update(ctx context.Context, id string, in OfferInput, image *media.UploadInput) (*models.Offer, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	set := map[string]interface{}{
		"link":         linkOrDefault(in.Link),
		"active":       in.Active,
		"displayOrder": in.DisplayOrder,
	}
	if t := strings.TrimSpace(in.Title); t != "" {
		set["title"] = t
	}
	if d := strings.TrimSpace(in.Description); d != "" {
		set["description"] = d
	}
	if c := strings.TrimSpace(in.Category); c != "" {
		set["category"] = c
	}

	var uploaded *media.Asset
	if image != nil {
		uploaded, err = s.upload(ctx, image)
		if err != nil {
			return nil, err
		}
		set["imageUrl"], set["imageId"], set["thumbnailUrl"] = uploaded.URL, uploaded.ID, ""
	}

	o, err := s.repo.Update(ctx, existing.ID, set)
	if err != nil {
		if uploaded != nil {
			s.discard(ctx, uploaded.ID)
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrOfferNotFound
		}
		return nil, err
	}
	if uploaded != nil {
		s.discard(ctx, existing.ImageID)
	}
	return o, nil
}

func (s *OfferService) Delete(ctx context.Context, id string) error {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, existing.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrOfferNotFound
		}
		return err
	}
	s.discard(ctx, existing.ImageID)
	return nil
}

func (s *OfferService) upload(ctx context.Context, in *media.UploadInput) (*media.Asset, error) {
	if in.ContentType != "" && !strings.HasPrefix(in.ContentType, "image/") {
		return nil, ErrOfferImageType
	}
	in.Folder = offerFolder
	asset, err := s.media.Upload(ctx, *in)
	if err != nil {
		return nil, apperrors.ErrInternalServer.Wrap(err).WithMessage("Error uploading offer image")
	}
	return asset, nil
}

func (s *OfferService) discard(ctx context.Context, id string) {
	if id == "" {
		return
	}
	if err := s.media.Delete(ctx, id, false); err != nil {
		s.logger.Warn("Failed to delete offer image", zap.String("file_id", id), zap.Error(err))
	}
}
