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

type TestimonialRepository struct {
	collection *mongo.Collection
}

func NewTestimonialRepository(db *mongo.Database) *TestimonialRepository {
	return &TestimonialRepository{collection: db.Collection(database.TestimonialsCollection)}
}

func (r *TestimonialRepository) Find(ctx context.Context, visibleOnly bool) ([]models.Testimonial, error) {
	q := bson.M{}
	if visibleOnly {
		q["status"] = models.TestimonialVisible
	}
	return findAll[models.Testimonial](ctx, r.collection, q, options.Find().SetSort(newestFirst))
}

func (r *TestimonialRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Testimonial, error) {
	var t models.Testimonial
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		return nil, mapErr(err)
	}
	return &t, nil
}

func (r *TestimonialRepository) Create(ctx context.Context, t *models.Testimonial) error {
	now := time.Now().UTC()
	if t.ID.IsZero() {
		t.ID = primitive.NewObjectID()
	}
	t.CreatedAt, t.UpdatedAt = now, now
	_, err := r.collection.InsertOne(ctx, t)
	return mapErr(err)
}

func (r *TestimonialRepository) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) (*models.Testimonial, error) {
	var t models.Testimonial
	if err := setAndReturn(ctx, r.collection, id, updates, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TestimonialRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	return deleteByID(ctx, r.collection, id)
}
