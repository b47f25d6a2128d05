package services

import (
	"context"
	"errors"
	"slices"
	"strings"

	apperrors "storefront-service/common/errors"
	"storefront-service/models"
	"storefront-service/repository"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrContactName    = apperrors.BadRequest("Name must be at least 2 characters")
	ErrContactEmail   = apperrors.BadRequest("Please enter a valid email address")
	ErrContactSubject = apperrors.BadRequest("Invalid subject")
	ErrContactMessage = apperrors.BadRequest("Message must be at least 10 characters")
	ErrContactStatus  = apperrors.BadRequest("Invalid status")
	ErrContactMissing = apperrors.NotFound("Contact not found")
)

type ContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Subject string `json:"subject"`
	Service string `json:"service"`
	Message string `json:"message"`
}

type ContactService struct {
	repo     repository.ContactRepo
	validate *validator.Validate
}

func NewContactService(repo repository.ContactRepo) *ContactService {
	return &ContactService{repo: repo, validate: validator.New()}
}

// Submit validates and stores a contact-form message.
func (s *ContactService) Submit(ctx context.Context, req ContactRequest) (*models.Contact, error) {
	name := strings.TrimSpace(req.Name)
	if len([]rune(name)) < 2 {
		return nil, ErrContactName
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.validate.Var(email, "required,email"); err != nil {
		return nil, ErrContactEmail
	}
	subject := strings.ToLower(strings.TrimSpace(req.Subject))
	if !slices.Contains(models.ContactSubjects, subject) {
		return nil, ErrContactSubject
	}
	message := strings.TrimSpace(req.Message)
	if len([]rune(message)) < 10 {
		return nil, ErrContactMessage
	}

	c := &models.Contact{
		Name:    name,
		Email:   email,
		Phone:   strings.TrimSpace(req.Phone),
		Subject: subject,
		Service: strings.TrimSpace(req.Service),
		Message: message,
		Status:  models.ContactNew,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, apperrors.ErrInternalServer.Wrap(err).WithMessage("Failed to submit contact message")
	}
	return c, nil
}

func (s *ContactService) List(ctx context.Context) ([]models.Contact, error) {
	return s.repo.FindAll(ctx)
}

func (s *ContactService) UpdateStatus(ctx context.Context, id, status string) (*models.Contact, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	if status != models.ContactNew && status != models.ContactRead && status != models.ContactResolved {
		return nil, ErrContactStatus
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrContactMissing
	}
	c, err := s.repo.UpdateStatus(ctx, oid, status)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrContactMissing
		}
		return nil, err
	}
	return c, nil
}
