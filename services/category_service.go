package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	apperrors "storefront-service/common/errors"
	"storefront-service/models"
	"storefront-service/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrCategoryNotFound  = apperrors.NotFound("Category not found")
	ErrCategoryDuplicate = apperrors.Conflict("Category with this name or slug already exists")
)

type CategoryInput struct {
	Name         string `json:"name" validate:"required"`
	Slug         string `json:"slug"`
	Description  string `json:"description"`
	ImageURL     string `json:"imageUrl"`
	IsActive     *bool  `json:"isActive"`
	DisplayOrder *int   `json:"displayOrder"`
}

type CategoryService struct {
	repo   repository.CategoryRepo
	images repository.GalleryImageRepo
}

// NewCategoryService builds the service. images may be nil, in which case
// categories are deleted without checking gallery usage.
func NewCategoryService(repo repository.CategoryRepo, images repository.GalleryImageRepo) *CategoryService {
	return &CategoryService{repo: repo, images: images}
}

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lower-cases s and joins its alphanumeric runs with dashes.
func Slugify(s string) string {
	return strings.Trim(nonSlugChars.ReplaceAllString(strings.ToLower(s), "-"), "-")
}

func (s *CategoryService) List(ctx context.Context, activeOnly bool) ([]models.Category, error) {
	return s.repo.FindAll(ctx, activeOnly)
}

func (s *CategoryService) Get(ctx context.Context, id string) (*models.Category, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrCategoryNotFound
	}
	c, err := s.repo.FindByID(ctx, oid)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return c, nil
}

func (s *CategoryService) Create(ctx context.Context, in CategoryInput) (*models.Category, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperrors.BadRequest("Category name is required")
	}
	slug := Slugify(in.Slug)
	if slug == "" {
		slug = Slugify(name)
	}
	c := &models.Category{
		Name:        name,
		Slug:        slug,
		Description: strings.TrimSpace(in.Description),
		ImageURL:    strings.TrimSpace(in.ImageURL),
		IsActive:    true,
	}
	if in.IsActive != nil {
		c.IsActive = *in.IsActive
	}
	if in.DisplayOrder != nil {
		c.DisplayOrder = *in.DisplayOrder
	}
	if err := s.repo.Create(ctx, c); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrCategoryDuplicate
		}
		return nil, err
	}
	return c, nil
}

func (s *CategoryService) Update(ctx context.Context, id string, in CategoryInput) (*models.Category, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	set := map[string]interface{}{}
	if name := strings.TrimSpace(in.Name); name != "" {
		set["name"] = name
	}
	if slug := Slugify(in.Slug); slug != "" {
		set["slug"] = slug
	}
	if in.Description != "" {
		set["description"] = strings.TrimSpace(in.Description)
	}
	if in.ImageURL != "" {
		set["imageUrl"] = strings.TrimSpace(in.ImageURL)
	}
	if in.IsActive != nil {
		set["isActive"] = *in.IsActive
	}
	if in.DisplayOrder != nil {
		set["displayOrder"] = *in.DisplayOrder
	}
	if len(set) == 0 {
		return existing, nil
	}

	c, err := s.repo.Update(ctx, existing.ID, set)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, ErrCategoryDuplicate
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return c, nil
}

func (s *CategoryService) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrCategoryNotFound
	}
	if s.images != nil {
		n, err := s.images.CountByCategory(ctx, oid)
		if err != nil {
			return err
		}
		if n > 0 {
			return apperrors.BadRequest(fmt.Sprintf("Cannot delete category. It is used by %d gallery images.", n))
		}
	}
	if err := s.repo.Delete(ctx, oid); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrCategoryNotFound
		}
		return err
	}
	return nil
}
