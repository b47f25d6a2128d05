package repository

import (
	"context"
	"time"

	"storefront-service/database"
	"storefront-service/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ReviewRepository struct {
	collection *mongo.Collection
}

func NewReviewRepository(db *mongo.Database) *ReviewRepository {
	return &ReviewRepository{collection: db.Collection(database.ReviewsCollection)}
}

func (r *ReviewRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Review, error) {
	var review models.Review
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&review); err != nil {
		return nil, mapErr(err)
	}
	return &review, nil
}

func (r *ReviewRepository) ExistsForOrderProduct(ctx context.Context, orderID, productID primitive.ObjectID) (bool, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{"orderId": orderID, "productId": productID}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *ReviewRepository) FindApprovedByProduct(ctx context.Context, productID primitive.ObjectID) ([]models.Review, error) {
	return findAll[models.Review](ctx, r.collection,
		bson.M{"productId": productID, "status": models.ReviewApproved},
		options.Find().SetSort(newestFirst),
	)
}

func (r *ReviewRepository) FindAll(ctx context.Context) ([]models.Review, error) {
	return findAll[models.Review](ctx, r.collection, bson.M{}, options.Find().SetSort(newestFirst))
}

func (r *ReviewRepository) Insert(ctx context.Context, review *models.Review) error {
	now := time.Now().UTC()
	if review.ID.IsZero() {
		review.ID = primitive.NewObjectID()
	}
	review.CreatedAt, review.UpdatedAt = now, now
	_, err := r.collection.InsertOne(ctx, review)
	return mapErr(err)
}

func (r *ReviewRepository) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) (*models.Review, error) {
	var review models.Review
	if err := setAndReturn(ctx, r.collection, id, updates, &review); err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *ReviewRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	return deleteByID(ctx, r.collection, id)
}
