package services

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	apperrors "storefront-service/common/errors"
	"storefront-service/models"
	"storefront-service/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

var (
	ErrReviewInputRequired = apperrors.BadRequest("Order ID, Contact (Email/Phone), and Product ID are required")
	ErrContactMismatch     = apperrors.Forbidden("Contact information does not match the order")
	ErrOrderNotDelivered   = apperrors.Forbidden("Reviews can only be submitted for delivered orders")
	ErrProductNotInOrder   = apperrors.Forbidden("Product not found in this order")
	ErrReviewExists        = apperrors.BadRequest("You have already reviewed this product for this order")
	ErrReviewNotFound      = apperrors.NotFound("Review not found")
	ErrInvalidRating       = apperrors.BadRequest("Rating must be between 1 and 5")
)

type EligibilityRequest struct {
	OrderID   string `json:"orderId"`
	Contact   string `json:"contact"`
	ProductID string `json:"productId"`
}

type Eligibility struct {
	Eligible     bool   `json:"eligible"`
	CustomerName string `json:"customerName"`
}

type SubmitReviewRequest struct {
	EligibilityRequest
	Rating       int    `json:"rating"`
	ReviewText   string `json:"reviewText"`
	Headline     string `json:"headline"`
	CustomerName string `json:"customerName"`
}

type AdminReviewRequest struct {
	ProductID     string `json:"productId" binding:"required"`
	CustomerName  string `json:"customerName" binding:"required"`
	CustomerEmail string `json:"customerEmail"`
	Headline      string `json:"headline"`
	Rating        int    `json:"rating" binding:"required"`
	ReviewText    string `json:"reviewText" binding:"required"`
}

// ReviewUpdate holds the admin-editable review fields; nil means unchanged.
type ReviewUpdate struct {
	Status     *string `json:"status"`
	ReviewText *string `json:"reviewText"`
	Rating     *int    `json:"rating"`
}

// ReviewWithProduct is the admin listing row.
type ReviewWithProduct struct {
	models.Review
	ProductName  string `json:"productName"`
	ProductImage string `json:"productImage,omitempty"`
}

type ReviewService struct {
	reviews  repository.ReviewRepo
	orders   repository.OrderRepo
	products repository.ProductRepo
	logger   *zap.Logger
	now      func() time.Time
}

func NewReviewService(reviews repository.ReviewRepo, orders repository.OrderRepo, products repository.ProductRepo, logger *zap.Logger) *ReviewService {
	return &ReviewService{
		reviews:  reviews,
		orders:   orders,
		products: products,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CheckEligibility verifies that contact placed orderRef, that the order was
// delivered and contains productRef, and that it has not been reviewed yet.
func (s *ReviewService) CheckEligibility(ctx context.Context, req EligibilityRequest) (*Eligibility, error) {
	order, _, err := s.verify(ctx, req)
	if err != nil {
		return nil, err
	}
	return &Eligibility{Eligible: true, CustomerName: order.Customer.FullName}, nil
}

func (s *ReviewService) verify(ctx context.Context, req EligibilityRequest) (*models.Order, primitive.ObjectID, error) {
	orderRef := strings.TrimSpace(req.OrderID)
	contact := strings.TrimSpace(req.Contact)
	productRef := strings.TrimSpace(req.ProductID)
	if orderRef == "" || contact == "" || productRef == "" {
		return nil, primitive.NilObjectID, ErrReviewInputRequired
	}

	oid, err := primitive.ObjectIDFromHex(orderRef)
	if err != nil {
		return nil, primitive.NilObjectID, ErrOrderNotFound
	}
	order, err := s.orders.FindByID(ctx, oid)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, primitive.NilObjectID, ErrOrderNotFound
		}
		return nil, primitive.NilObjectID, err
	}

	if !strings.EqualFold(order.Customer.Email, contact) && (order.Customer.Phone == "" || order.Customer.Phone != contact) {
		return nil, primitive.NilObjectID, ErrContactMismatch
	}
	if order.Status != models.StatusDelivered {
		return nil, primitive.NilObjectID, ErrOrderNotDelivered
	}
	if !order.ContainsProduct(productRef) {
		return nil, primitive.NilObjectID, ErrProductNotInOrder
	}
	pid, err := primitive.ObjectIDFromHex(productRef)
	if err != nil {
		return nil, primitive.NilObjectID, ErrProductNotInOrder
	}

	exists, err := s.reviews.ExistsForOrderProduct(ctx, order.ID, pid)
	if err != nil {
		return nil, primitive.NilObjectID, err
	}
	if exists {
		return nil, primitive.NilObjectID, ErrReviewExists
	}
	return order, pid, nil
}

// Submit stores a pending verified-purchase review. The unique index on
// (orderId, productId) settles concurrent submissions for the same pair.
func (s *ReviewService) Submit(ctx context.Context, req SubmitReviewRequest, clientIP string) (*models.Review, error) {
	order, productID, err := s.verify(ctx, req.EligibilityRequest)
	if err != nil {
		return nil, err
	}
	if req.Rating < 1 || req.Rating > 5 {
		return nil, ErrInvalidRating
	}
	if strings.TrimSpace(req.ReviewText) == "" {
		return nil, apperrors.BadRequest("Review text is required")
	}

	name := strings.TrimSpace(req.CustomerName)
	if name == "" {
		name = order.Customer.FullName
	}
	orderID := order.ID
	now := s.now()
	review := &models.Review{
		ProductID:          productID,
		OrderID:            &orderID,
		CustomerName:       name,
		CustomerEmail:      order.Customer.Email,
		Headline:           strings.TrimSpace(req.Headline),
		Rating:             req.Rating,
		ReviewText:         strings.TrimSpace(req.ReviewText),
		Status:             models.ReviewPending,
		Source:             models.ReviewSourceCustomer,
		IPAddress:          clientIP,
		IsVerifiedPurchase: true,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.reviews.Insert(ctx, review); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrReviewExists
		}
		return nil, apperrors.ErrInternalServer.Wrap(err).WithMessage("Error submitting review")
	}
	s.logger.Info("Review submitted",
		zap.String("order_id", order.OrderID),
		zap.String("product_id", productID.Hex()),
		zap.Int("rating", review.Rating))
	return review, nil
}

func (s *ReviewService) ProductReviews(ctx context.Context, productRef string) ([]models.PublicReview, error) {
	pid, err := primitive.ObjectIDFromHex(productRef)
	if err != nil {
		return []models.PublicReview{}, nil
	}
	reviews, err := s.reviews.FindApprovedByProduct(ctx, pid)
	if err != nil {
		return nil, err
	}
	out := make([]models.PublicReview, 0, len(reviews))
	for i := range reviews {
		out = append(out, reviews[i].Public())
	}
	return out, nil
}

// ProductRating averages the approved ratings, rounded to one decimal.
func (s *ReviewService) ProductRating(ctx context.Context, productRef string) (models.Rating, error) {
	pid, err := primitive.ObjectIDFromHex(productRef)
	if err != nil {
		return models.Rating{}, nil
	}
	reviews, err := s.reviews.FindApprovedByProduct(ctx, pid)
	if err != nil {
		return models.Rating{}, err
	}
	if len(reviews) == 0 {
		return models.Rating{}, nil
	}
	sum := 0
	for _, r := range reviews {
		sum += r.Rating
	}
	avg := float64(sum) / float64(len(reviews))
	return models.Rating{AverageRating: math.Round(avg*10) / 10, TotalReviews: len(reviews)}, nil
}

func (s *ReviewService) All(ctx context.Context) ([]ReviewWithProduct, error) {
	reviews, err := s.reviews.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	seen := map[primitive.ObjectID]bool{}
	ids := make([]primitive.ObjectID, 0, len(reviews))
	for _, r := range reviews {
		if !seen[r.ProductID] {
			seen[r.ProductID] = true
			ids = append(ids, r.ProductID)
		}
	}
	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[primitive.ObjectID]*models.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	out := make([]ReviewWithProduct, 0, len(reviews))
	for _, r := range reviews {
		row := ReviewWithProduct{Review: r}
		if p, ok := byID[r.ProductID]; ok {
			row.ProductName = p.Name
			row.ProductImage = PrimaryImage(p)
		}
		out = append(out, row)
	}
	return out, nil
}

func (s *ReviewService) Update(ctx context.Context, id string, upd ReviewUpdate) (*models.Review, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrReviewNotFound
	}
	set := map[string]interface{}{}
	if upd.Status != nil {
		if !models.IsValidReviewStatus(*upd.Status) {
			return nil, apperrors.BadRequest("Invalid review status")
		}
		set["status"] = *upd.Status
	}
	if upd.ReviewText != nil {
		set["reviewText"] = strings.TrimSpace(*upd.ReviewText)
	}
	if upd.Rating != nil {
		if *upd.Rating < 1 || *upd.Rating > 5 {
			return nil, ErrInvalidRating
		}
		set["rating"] = *upd.Rating
	}
	if len(set) == 0 {
		return nil, apperrors.BadRequest("No fields to update")
	}

	review, err := s.reviews.Update(ctx, oid, set)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, err
	}
	return review, nil
}

func (s *ReviewService) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrReviewNotFound
	}
	if err := s.reviews.Delete(ctx, oid); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrReviewNotFound
		}
		return err
	}
	return nil
}

// AdminCreate stores an approved review that is not tied to any order.
func (s *ReviewService) AdminCreate(ctx context.Context, req AdminReviewRequest) (*models.Review, error) {
	pid, err := primitive.ObjectIDFromHex(req.ProductID)
	if err != nil {
		return nil, apperrors.BadRequest("Invalid product id")
	}
	if _, err := s.products.FindByID(ctx, pid); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("Product not found")
		}
		return nil, err
	}
	if req.Rating < 1 || req.Rating > 5 {
		return nil, ErrInvalidRating
	}

	now := s.now()
	review := &models.Review{
		ProductID:     pid,
		CustomerName:  strings.TrimSpace(req.CustomerName),
		CustomerEmail: strings.ToLower(strings.TrimSpace(req.CustomerEmail)),
		Headline:      strings.TrimSpace(req.Headline),
		Rating:        req.Rating,
		ReviewText:    strings.TrimSpace(req.ReviewText),
		Status:        models.ReviewApproved,
		Source:        models.ReviewSourceAdmin,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.reviews.Insert(ctx, review); err != nil {
		return nil, apperrors.ErrInternalServer.Wrap(err).WithMessage("Error adding review")
	}
	return review, nil
}
