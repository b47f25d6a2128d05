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

var byDisplayOrder = bson.D{{Key: "displayOrder", Value: 1}, {Key: "createdAt", Value: -1}}

type GalleryImageRepository struct {
	collection *mongo.Collection
}

func NewGalleryImageRepository(db *mongo.Database) *GalleryImageRepository {
	return &GalleryImageRepository{collection: db.Collection(database.GalleryImagesCollection)}
}

func (r *GalleryImageRepository) Find(ctx context.Context, f GalleryImageFilter) ([]models.GalleryImage, error) {
	q := bson.M{}
	if f.CategoryID != nil {
		q["category"] = *f.CategoryID
	}
	if f.FeaturedOnly {
		q["featured"] = true
	}
	opts := options.Find().SetSort(byDisplayOrder)
	if f.NewestFirst {
		opts.SetSort(newestFirst)
	}
	if f.Limit > 0 {
		opts.SetLimit(f.Limit)
	}
	return findAll[models.GalleryImage](ctx, r.collection, q, opts)
}

func (r *GalleryImageRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.GalleryImage, error) {
	var img models.GalleryImage
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&img); err != nil {
		return nil, mapErr(err)
	}
	return &img, nil
}

func (r *GalleryImageRepository) CountByCategory(ctx context.Context, categoryID primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"category": categoryID})
}

func (r *GalleryImageRepository) Create(ctx context.Context, img *models.GalleryImage) error {
	now := time.Now().UTC()
	if img.ID.IsZero() {
		img.ID = primitive.NewObjectID()
	}
	img.CreatedAt, img.UpdatedAt = now, now
	_, err := r.collection.InsertOne(ctx, img)
	return mapErr(err)
}

func (r *GalleryImageRepository) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) (*models.GalleryImage, error) {
	var img models.GalleryImage
	if err := setAndReturn(ctx, r.collection, id, updates, &img); err != nil {
		return nil, err
	}
	return &img, nil
}

func (r *GalleryImageRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	return deleteByID(ctx, r.collection, id)
}

type GalleryOfferRepository struct {
	collection *mongo.Collection
}

func NewGalleryOfferRepository(db *mongo.Database) *GalleryOfferRepository {
	return &GalleryOfferRepository{collection: db.Collection(database.GalleryOffersCollection)}
}

func (r *GalleryOfferRepository) Find(ctx context.Context, activeOnly bool) ([]models.GalleryOffer, error) {
	q := bson.M{}
	if activeOnly {
		q["active"] = true
	}
	return findAll[models.GalleryOffer](ctx, r.collection, q, options.Find().SetSort(byDisplayOrder))
}

func (r *GalleryOfferRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.GalleryOffer, error) {
	var o models.GalleryOffer
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&o); err != nil {
		return nil, mapErr(err)
	}
	return &o, nil
}

func (r *GalleryOfferRepository) Create(ctx context.Context, o *models.GalleryOffer) error {
	now := time.Now().UTC()
	if o.ID.IsZero() {
		o.ID = primitive.NewObjectID()
	}
	o.CreatedAt, o.UpdatedAt = now, now
	_, err := r.collection.InsertOne(ctx, o)
	return mapErr(err)
}

func (r *GalleryOfferRepository) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) (*models.GalleryOffer, error) {
	var o models.GalleryOffer
	if err := setAndReturn(ctx, r.collection, id, updates, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *GalleryOfferRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	return deleteByID(ctx, r.collection, id)
}
