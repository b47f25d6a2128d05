package services

import (
	"context"
	"errors"
	"strings"
	"time"

	apperrors "storefront-service/common/errors"
	"storefront-service/media"
	"storefront-service/models"
	"storefront-service/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const testimonialFolder = "storefront/testimonials"

var ErrTestimonialNotFound = apperrors.NotFound("Testimonial not found")

// TestimonialInput is the multipart form for testimonials. On update, empty
// fields are left unchanged.
type TestimonialInput struct {
	CustomerName string `form:"customerName"`
	Tag          string `form:"tag"`
	Product      string `form:"product"`
	Rating       int    `form:"rating" validate:"omitempty,min=1,max=5"`
	Content      string `form:"content"`
	Status       string `form:"status" validate:"omitempty,oneof=visible hidden"`
}

type TestimonialService struct {
	repo   repository.TestimonialRepo
	media  media.Store
	logger *zap.Logger
	now    func() time.Time
}

func NewTestimonialService(repo repository.TestimonialRepo, store media.Store, logger *zap.Logger) *TestimonialService {
	return &TestimonialService{
		repo:   repo,
		media:  store,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *TestimonialService) PublicList(ctx context.Context) ([]models.Testimonial, error) {
	return s.repo.Find(ctx, true)
}

func (s *TestimonialService) List(ctx context.Context) ([]models.Testimonial, error) {
	return s.repo.Find(ctx, false)
}

func (s *TestimonialService) Create(ctx context.Context, in TestimonialInput, avatar *media.UploadInput) (*models.Testimonial, error) {
	if strings.TrimSpace(in.CustomerName) == "" || strings.TrimSpace(in.Content) == "" {
		return nil, apperrors.BadRequest("Customer name and content are required")
	}
	status := in.Status
	if status == "" {
		status = models.TestimonialVisible
	}
	now := s.now()
	t := &models.Testimonial{
		CustomerName: strings.TrimSpace(in.CustomerName),
		Tag:          strings.TrimSpace(in.Tag),
		Product:      strings.TrimSpace(in.Product),
		Rating:       in.Rating,
		Content:      strings.TrimSpace(in.Content),
		Status:       status,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if avatar != nil {
		asset, err := s.uploadAvatar(ctx, avatar)
		if err != nil {
			return nil, err
		}
		t.AvatarURL, t.AvatarID = asset.URL, asset.ID
	}
	if err := s.repo.Create(ctx, t); err != nil {
		s.discard(ctx, t.AvatarID)
		return nil, apperrors.ErrInternalServer.Wrap(err).WithMessage("Error adding testimonial")
	}
	return t, nil
}

// Update applies the non-empty fields. A new avatar replaces the stored one,
// whose file is deleted once the document points at the new upload.
func (s *TestimonialService) Update(ctx context.Context, id string, in TestimonialInput, avatar *media.UploadInput) (*models.Testimonial, error) {
	existing, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	set := map[string]interface{}{}
	for key, val := range map[string]string{
		"customerName": in.CustomerName,
		"tag":          in.Tag,
		"product":      in.Product,
		"content":      in.Content,
		"status":       in.Status,
	} {
		if v := strings.TrimSpace(val); v != "" {
			set[key] = v
		}
	}
	if in.Rating > 0 {
		set["rating"] = in.Rating
	}

	var uploaded *media.Asset
	if avatar != nil {
		uploaded, err = s.uploadAvatar(ctx, avatar)
		if err != nil {
			return nil, err
		}
		set["avatarUrl"] = uploaded.URL
		set["avatarId"] = uploaded.ID
	}

	updated, err := s.repo.Update(ctx, existing.ID, set)
	if err != nil {
		if uploaded != nil {
			s.discard(ctx, uploaded.ID)
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTestimonialNotFound
		}
		return nil, err
	}
	if uploaded != nil {
		s.discard(ctx, existing.AvatarID)
	}
	return updated, nil
}

func (s *TestimonialService) Delete(ctx context.Context, id string) error {
	existing, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, existing.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTestimonialNotFound
		}
		return err
	}
	s.discard(ctx, existing.AvatarID)
	return nil
}

func (s *TestimonialService) find(ctx context.Context, id string) (*models.Testimonial, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrTestimonialNotFound
	}
	t, err := s.repo.FindByID(ctx, oid)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTestimonialNotFound
		}
		return nil, err
	}
	return t, nil
}

func (s *TestimonialService) uploadAvatar(ctx context.Context, in *media.UploadInput) (*media.Asset, error) {
	in.Folder = testimonialFolder
	asset, err := s.media.Upload(ctx, *in)
	if err != nil {
		return nil, apperrors.ErrInternalServer.Wrap(err).WithMessage("Error uploading avatar")
	}
	return asset, nil
}

// discard deletes a media file; failures only leave an orphan behind.
func (s *TestimonialService) discard(ctx context.Context, id string) {
	if id == "" {
		return
	}
	if err := s.media.Delete(ctx, id, false); err != nil {
		s.logger.Warn("Failed to delete avatar", zap.String("file_id", id), zap.Error(err))
	}
}
