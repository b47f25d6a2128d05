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

// InventoryLogRepository is append-only: there is no update or delete.
type InventoryLogRepository struct {
	collection *mongo.Collection
}

func NewInventoryLogRepository(db *mongo.Database) *InventoryLogRepository {
	return &InventoryLogRepository{collection: db.Collection(database.InventoryLogsCollection)}
}

func (r *InventoryLogRepository) Insert(ctx context.Context, entry *models.InventoryLog) error {
	if entry.ID.IsZero() {
		entry.ID = primitive.NewObjectID()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := r.collection.InsertOne(ctx, entry)
	return err
}

func (r *InventoryLogRepository) Find(ctx context.Context, f InventoryLogFilter) ([]models.InventoryLog, int64, error) {
	q := bson.M{}
	if f.ProductID != nil {
		q["productId"] = *f.ProductID
	}
	if f.Reason != "" {
		q["reason"] = f.Reason
	}

	total, err := r.collection.CountDocuments(ctx, q)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().SetSort(newestFirst)
	if f.Limit > 0 {
		opts.SetLimit(f.Limit)
	}
	if f.Skip > 0 {
		opts.SetSkip(f.Skip)
	}
	logs, err := findAll[models.InventoryLog](ctx, r.collection, q, opts)
	if err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}
