package repository

import (
	"context"
	"errors"
	"time"

	"storefront-service/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNotFound  = errors.New("document not found")
	ErrDuplicate = errors.New("duplicate key")
)

type ProductFilter struct {
	Category   string
	CategoryID *primitive.ObjectID
	Featured   *bool
	Limit      int64
	Skip       int64
}

// ProductRepo defines the product persistence operations. Stock counters are
// only ever changed through AdjustStock and SetStock.
type ProductRepo interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	FindByName(ctx context.Context, name string) (*models.Product, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Product, error)
	Find(ctx context.Context, filter ProductFilter) ([]models.Product, error)
	Count(ctx context.Context, filter ProductFilter) (int64, error)
	FindLowStock(ctx context.Context) ([]models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error
	// UpdateWithVariants applies updates and replaces the variant list in one
	// write. Variants that already exist keep their stored inStock.
	UpdateWithVariants(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}, variants []models.Variant) error
	BulkUpdate(ctx context.Context, ids []primitive.ObjectID, updates map[string]interface{}) (int64, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	// AdjustStock atomically applies max(0, stock+delta) to the scalar
	// counter, or to the named variant, and reports the counter before and after.
	AdjustStock(ctx context.Context, id primitive.ObjectID, variantName string, delta int) (prev, next int, err error)
	// SetStock atomically replaces the counter with value.
	SetStock(ctx context.Context, id primitive.ObjectID, variantName string, value int) (prev, next int, err error)
}

type OrderRepo interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Order, error)
	FindByStripeSession(ctx context.Context, sessionID string) (*models.Order, error)
	FindAll(ctx context.Context) ([]models.Order, error)
	Recent(ctx context.Context, n int64) ([]models.Order, error)
	Count(ctx context.Context) (int64, error)
	Create(ctx context.Context, order *models.Order) error
	// CompareAndSetStatus moves the order from one status to another and
	// reports false when the stored status was no longer from.
	CompareAndSetStatus(ctx context.Context, id primitive.ObjectID, from, to string) (bool, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteMany(ctx context.Context, ids []primitive.ObjectID) (int64, error)
}

type SaleRepo interface {
	// Create returns ErrDuplicate when the order already has a sale.
	Create(ctx context.Context, sale *models.Sale) error
	DeleteByOrderIDs(ctx context.Context, orderIDs []primitive.ObjectID) (int64, error)
	TotalAmount(ctx context.Context) (float64, error)
	MonthlyTotals(ctx context.Context, since time.Time) ([]models.MonthlySales, error)
}

type InventoryLogFilter struct {
	ProductID *primitive.ObjectID
	Reason    string
	Limit     int64
	Skip      int64
}

type InventoryLogRepo interface {
	Insert(ctx context.Context, entry *models.InventoryLog) error
	Find(ctx context.Context, filter InventoryLogFilter) ([]models.InventoryLog, int64, error)
}

type ReviewRepo interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Review, error)
	ExistsForOrderProduct(ctx context.Context, orderID, productID primitive.ObjectID) (bool, error)
	FindApprovedByProduct(ctx context.Context, productID primitive.ObjectID) ([]models.Review, error)
	FindAll(ctx context.Context) ([]models.Review, error)
	// Insert returns ErrDuplicate when the (orderId, productId) pair exists.
	Insert(ctx context.Context, review *models.Review) error
	Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) (*models.Review, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type TestimonialRepo interface {
	Find(ctx context.Context, visibleOnly bool) ([]models.Testimonial, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Testimonial, error)
	Create(ctx context.Context, t *models.Testimonial) error
	Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) (*models.Testimonial, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type CategoryRepo interface {
	FindAll(ctx context.Context, activeOnly bool) ([]models.Category, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Category, error)
	FindBySlug(ctx context.Context, slug string) (*models.Category, error)
	Create(ctx context.Context, category *models.Category) error
	Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) (*models.Category, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type OfferRepo interface {
	Find(ctx context.Context, activeOnly bool) ([]models.Offer, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Offer, error)
	Create(ctx context.Context, offer *models.Offer) error
	Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) (*models.Offer, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type GalleryImageFilter struct {
	CategoryID   *primitive.ObjectID
	FeaturedOnly bool
	NewestFirst  bool
	Limit        int64
}

type GalleryImageRepo interface {
	Find(ctx context.Context, filter GalleryImageFilter) ([]models.GalleryImage, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.GalleryImage, error)
	CountByCategory(ctx context.Context, categoryID primitive.ObjectID) (int64, error)
	Create(ctx context.Context, img *models.GalleryImage) error
	Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) (*models.GalleryImage, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type GalleryOfferRepo interface {
	Find(ctx context.Context, activeOnly bool) ([]models.GalleryOffer, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.GalleryOffer, error)
	Create(ctx context.Context, offer *models.GalleryOffer) error
	Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) (*models.GalleryOffer, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type ContactRepo interface {
	Create(ctx context.Context, contact *models.Contact) error
	FindAll(ctx context.Context) ([]models.Contact, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status string) (*models.Contact, error)
}

type UserRepo interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindCustomers(ctx context.Context) ([]models.User, error)
	CountByRole(ctx context.Context, role string) (int64, error)
	// Create returns ErrDuplicate when the email is taken.
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) (*models.User, error)
	// AttachOrder adds orderID to the user's orders and applies set in one update.
	AttachOrder(ctx context.Context, id, orderID primitive.ObjectID, set map[string]interface{}) error
	AddNote(ctx context.Context, id primitive.ObjectID, note models.Note) (*models.User, error)
	// ConsumeResetToken sets passwordHash and clears the reset token if
	// tokenHash matches and has not expired at now. It reports whether the
	// token was consumed.
	ConsumeResetToken(ctx context.Context, id primitive.ObjectID, tokenHash, passwordHash string, now time.Time) (bool, error)
	// AddAddress appends addr. It becomes primary when addr.IsPrimary is set
	// or the list was empty; a new primary demotes the others.
	AddAddress(ctx context.Context, id primitive.ObjectID, addr models.Address) (*models.User, error)
	// UpdateAddress merges set into the address. makePrimary demotes the
	// others. ErrNotFound means the user has no such address.
	UpdateAddress(ctx context.Context, id, addressID primitive.ObjectID, set map[string]interface{}, makePrimary bool) (*models.User, error)
	RemoveAddress(ctx context.Context, id, addressID primitive.ObjectID) (*models.User, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteManyByRole(ctx context.Context, ids []primitive.ObjectID, role string) (int64, error)
}

// WebhookEventRepo records processed payment events.
type WebhookEventRepo interface {
	// MarkProcessed stores the event and reports false if it was already stored.
	MarkProcessed(ctx context.Context, event *models.WebhookEvent) (bool, error)
	// Release forgets an event so a provider retry is processed again.
	Release(ctx context.Context, eventID string) error
}
