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

type CategoryRepository struct {
	collection *mongo.Collection
}

func NewCategoryRepository(db *mongo.Database) *CategoryRepository {
	return &CategoryRepository{collection: db.Collection(database.CategoriesCollection)}
}

func (r *CategoryRepository) FindAll(ctx context.Context, activeOnly bool) ([]models.Category, error) {
	q := bson.M{}
	if activeOnly {
		q["isActive"] = true
	}
	sort := bson.D{{Key: "displayOrder", Value: 1}, {Key: "name", Value: 1}}
	return findAll[models.Category](ctx, r.collection, q, options.Find().SetSort(sort))
}

func (r *CategoryRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Category, error) {
	var c models.Category
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return nil, mapErr(err)
	}
	return &c, nil
}

func (r *CategoryRepository) FindBySlug(ctx context.Context, slug string) (*models.Category, error) {
	var c models.Category
	if err := r.collection.FindOne(ctx, bson.M{"slug": slug}).Decode(&c); err != nil {
		return nil, mapErr(err)
	}
	return &c, nil
}

func (r *CategoryRepository) Create(ctx context.Context, c *models.Category) error {
	now := time.Now().UTC()
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	c.CreatedAt, c.UpdatedAt = now, now
	_, err := r.collection.InsertOne(ctx, c)
	return mapErr(err)
}

func (r *CategoryRepository) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) (*models.Category, error) {
	var c models.Category
	if err := setAndReturn(ctx, r.collection, id, updates, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CategoryRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	return deleteByID(ctx, r.collection, id)
}
