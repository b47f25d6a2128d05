package repository

import (
	"context"
	"time"

	"storefront-service/database"
	"storefront-service/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type SaleRepository struct {
	collection *mongo.Collection
}

func NewSaleRepository(db *mongo.Database) *SaleRepository {
	return &SaleRepository{collection: db.Collection(database.SalesCollection)}
}

func (r *SaleRepository) Create(ctx context.Context, sale *models.Sale) error {
	if sale.ID.IsZero() {
		sale.ID = primitive.NewObjectID()
	}
	_, err := r.collection.InsertOne(ctx, sale)
	return mapErr(err)
}

func (r *SaleRepository) DeleteByOrderIDs(ctx context.Context, orderIDs []primitive.ObjectID) (int64, error) {
	res, err := r.collection.DeleteMany(ctx, bson.M{"orderId": bson.M{"$in": orderIDs}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (r *SaleRepository) TotalAmount(ctx context.Context) (float64, error) {
	cursor, err := r.collection.Aggregate(ctx, bson.A{
		bson.M{"$group": bson.M{"_id": nil, "total": bson.M{"$sum": "$totalAmount"}}},
	})
	if err != nil {
		return 0, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Total float64 `bson:"total"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Total, nil
}

// MonthlyTotals groups sales since the given time by calendar month (%Y-%m).
func (r *SaleRepository) MonthlyTotals(ctx context.Context, since time.Time) ([]models.MonthlySales, error) {
	cursor, err := r.collection.Aggregate(ctx, bson.A{
		bson.M{"$match": bson.M{"saleDate": bson.M{"$gte": since}}},
		bson.M{"$group": bson.M{
			"_id":   bson.M{"$dateToString": bson.M{"format": "%Y-%m", "date": "$saleDate"}},
			"total": bson.M{"$sum": "$totalAmount"},
			"count": bson.M{"$sum": 1},
		}},
		bson.M{"$sort": bson.M{"_id": 1}},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := []models.MonthlySales{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
