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

type ContactRepository struct {
	collection *mongo.Collection
}

func NewContactRepository(db *mongo.Database) *ContactRepository {
	return &ContactRepository{collection: db.Collection(database.ContactsCollection)}
}

func (r *ContactRepository) Create(ctx context.Context, c *models.Contact) error {
	now := time.Now().UTC()
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	c.CreatedAt, c.UpdatedAt = now, now
	_, err := r.collection.InsertOne(ctx, c)
	return err
}

func (r *ContactRepository) FindAll(ctx context.Context) ([]models.Contact, error) {
	return findAll[models.Contact](ctx, r.collection, bson.M{}, options.Find().SetSort(newestFirst))
}

func (r *ContactRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, status string) (*models.Contact, error) {
	var c models.Contact
	if err := setAndReturn(ctx, r.collection, id, map[string]interface{}{"status": status}, &c); err != nil {
		return nil, err
	}
	return &c, nil
}
