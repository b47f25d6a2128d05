package controllers

import (
	"context"

	apperrors "storefront-service/common/errors"
	"storefront-service/media"
	"storefront-service/models"
	"storefront-service/payments"
	"storefront-service/services"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// The interfaces below are the slices of the services package each
// controller calls. *services.XService values satisfy them.

type CheckoutAPI interface {
	PlaceCODOrder(ctx context.Context, req services.CheckoutRequest) (*services.CheckoutResult, error)
	CreateStripeSession(ctx context.Context, req services.StripeSessionRequest) (*payments.Session, error)
	HandleStripeEvent(ctx context.Context, evt *payments.CompletedCheckout) (*services.CheckoutResult, error)
}

type WebhookParser interface {
	ParseWebhook(payload []byte, sigHeader string) (*payments.CompletedCheckout, error)
}

type OrderAPI interface {
	Get(ctx context.Context, id string) (*models.Order, error)
	List(ctx context.Context) ([]models.Order, error)
	ListForUser(ctx context.Context, user *models.User) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id, status string) (*services.TransitionResult, error)
	Delete(ctx context.Context, id string) error
	BulkDelete(ctx context.Context, ids []string) (int64, error)
}

type ProductAPI interface {
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	ListProducts(ctx context.Context, params services.ListProductsParams) ([]models.Product, int64, error)
	CreateProduct(ctx context.Context, form services.ProductForm, mediaChanges map[string]services.MediaChange) (*models.Product, error)
	UpdateProduct(ctx context.Context, id string, form services.ProductForm, mediaChanges map[string]services.MediaChange) (*models.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	BulkUpdate(ctx context.Context, ids []string, updates map[string]interface{}) (int64, error)
}

type CategoryAPI interface {
	List(ctx context.Context, activeOnly bool) ([]models.Category, error)
	Get(ctx context.Context, id string) (*models.Category, error)
	Create(ctx context.Context, in services.CategoryInput) (*models.Category, error)
	Update(ctx context.Context, id string, in services.CategoryInput) (*models.Category, error)
	Delete(ctx context.Context, id string) error
}

type ReviewAPI interface {
	CheckEligibility(ctx context.Context, req services.EligibilityRequest) (*services.Eligibility, error)
	Submit(ctx context.Context, req services.SubmitReviewRequest, clientIP string) (*models.Review, error)
	ProductReviews(ctx context.Context, productRef string) ([]models.PublicReview, error)
	ProductRating(ctx context.Context, productRef string) (models.Rating, error)
	All(ctx context.Context) ([]services.ReviewWithProduct, error)
	Update(ctx context.Context, id string, upd services.ReviewUpdate) (*models.Review, error)
	Delete(ctx context.Context, id string) error
	AdminCreate(ctx context.Context, req services.AdminReviewRequest) (*models.Review, error)
}

type TestimonialAPI interface {
	PublicList(ctx context.Context) ([]models.Testimonial, error)
	List(ctx context.Context) ([]models.Testimonial, error)
	Create(ctx context.Context, in services.TestimonialInput, avatar *media.UploadInput) (*models.Testimonial, error)
	Update(ctx context.Context, id string, in services.TestimonialInput, avatar *media.UploadInput) (*models.Testimonial, error)
	Delete(ctx context.Context, id string) error
}

type OfferAPI interface {
	PublicList(ctx context.Context) ([]models.Offer, error)
	List(ctx context.Context) ([]models.Offer, error)
	Get(ctx context.Context, id string) (*models.Offer, error)
	Create(ctx context.Context, in services.OfferInput, image *media.UploadInput) (*models.Offer, error)
	Update(ctx context.Context, id string, in services.OfferInput, image *media.UploadInput) (*models.Offer, error)
	Delete(ctx context.Context, id string) error
}

type GalleryAPI interface {
	Images(ctx context.Context, categorySlug string) ([]models.GalleryImageView, error)
	Featured(ctx context.Context) ([]models.GalleryImageView, error)
	AdminImages(ctx context.Context) ([]models.GalleryImageView, error)
	GetImage(ctx context.Context, id string) (*models.GalleryImageView, error)
	CreateImage(ctx context.Context, in services.GalleryImageInput, image *media.UploadInput) (*models.GalleryImageView, error)
	UpdateImage(ctx context.Context, id string, in services.GalleryImageInput, image *media.UploadInput) (*models.GalleryImageView, error)
	DeleteImage(ctx context.Context, id string) error
	PublicOffers(ctx context.Context) ([]models.GalleryOffer, error)
	AdminOffers(ctx context.Context) ([]models.GalleryOffer, error)
	GetOffer(ctx context.Context, id string) (*models.GalleryOffer, error)
	CreateOffer(ctx context.Context, in services.GalleryOfferInput, image *media.UploadInput) (*models.GalleryOffer, error)
	UpdateOffer(ctx context.Context, id string, in services.GalleryOfferInput, image *media.UploadInput) (*models.GalleryOffer, error)
	DeleteOffer(ctx context.Context, id string) error
}

type ContactAPI interface {
	Submit(ctx context.Context, req services.ContactRequest) (*models.Contact, error)
	List(ctx context.Context) ([]models.Contact, error)
	UpdateStatus(ctx context.Context, id, status string) (*models.Contact, error)
}

type AuthAPI interface {
	Register(ctx context.Context, req services.RegisterRequest) (*services.AuthResult, error)
	Login(ctx context.Context, email, password string) (*services.AuthResult, error)
	AdminLogin(ctx context.Context, email, password string) (*services.AuthResult, error)
	Me(ctx context.Context, userID primitive.ObjectID) (*models.User, error)
	UpdateProfile(ctx context.Context, userID primitive.ObjectID, in services.ProfileUpdate) (*models.User, error)
	ChangePassword(ctx context.Context, userID primitive.ObjectID, current, next string) error
	ForgotPassword(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, req services.ResetPasswordRequest) error
	Addresses(ctx context.Context, userID primitive.ObjectID) ([]models.Address, error)
	AddAddress(ctx context.Context, userID primitive.ObjectID, in services.AddressInput) ([]models.Address, error)
	UpdateAddress(ctx context.Context, userID primitive.ObjectID, addressID string, in services.AddressInput) ([]models.Address, error)
	DeleteAddress(ctx context.Context, userID primitive.ObjectID, addressID string) ([]models.Address, error)
}

type AdminAPI interface {
	Dashboard(ctx context.Context) (*models.Dashboard, error)
	Customers(ctx context.Context) ([]models.User, error)
	GetUser(ctx context.Context, id string) (*models.UserWithOrders, error)
	GetUserByEmail(ctx context.Context, email string) (*models.UserWithOrders, error)
	DeleteUser(ctx context.Context, id string) error
	BulkDeleteUsers(ctx context.Context, ids []string) (int64, error)
	AddNote(ctx context.Context, id string, in services.NoteInput) (*models.User, error)
	InventoryLogs(ctx context.Context, q services.InventoryLogQuery) (*services.InventoryLogPage, error)
}

// fail writes err and records it on the context for the request logger.
func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	apperrors.Respond(c, err)
}

func badRequest(c *gin.Context, message string) {
	fail(c, apperrors.BadRequest(message))
}

type idsRequest struct {
	IDs []string `json:"ids"`
}
