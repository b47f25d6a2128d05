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

type OfferRepository struct {
	collection *mongo.Collection
}

func NewOfferRepository(db *mongo.Database) *OfferRepository {
	return &OfferRepository{collection: db.Collection(database.OffersCollection)}
}

func (r *OfferRepository) Find(ctx context.Context, activeOnly bool) ([]models.Offer, error) {
	q := bson.M{}
	if activeOnly {
		q["active"] = true
	}
	sort := bson.D{{Key: "displayOrder", Value: 1}, {Key: "createdAt", Value: -1}}
	return findAll[models.Offer](ctx, r.collection, q, options.Find().SetSort(sort))
}

func (r *OfferRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Offer, error) {
	var o models.Offer
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&o); err != nil {
		return nil, mapErr(err)
	}
	return &o, nil
}

func (r *OfferRepository) Create(ctx context.Context, o *models.Offer) error {
	now := time.Now().UTC()
	if o.ID.IsZero() {
		o.ID = primitive.NewObjectID()
	}
	o.CreatedAt, o.UpdatedAt = now, now
	_, err := r.collection.InsertOne(ctx, o)
	return mapErr(err)
}

func (r *OfferRepository) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) (*models.Offer, error) {
	var o models.Offer
	if err := setAndReturn(ctx, r.collection, id, updates, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OfferRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	return deleteByID(ctx, r.collection, id)
}
