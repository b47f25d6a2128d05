package database

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Collection names.
const (
	ProductsCollection      = "products"
	CategoriesCollection    = "categories"
	OrdersCollection        = "orders"
	SalesCollection         = "sales"
	InventoryLogsCollection = "inventorylogs"
	ReviewsCollection       = "reviews"
	TestimonialsCollection  = "testimonials"
	OffersCollection        = "offers"
	ContactsCollection      = "contacts"
	UsersCollection         = "users"
	WebhookEventsCollection = "webhookevents"
	GalleryImagesCollection = "galleryimages"
	GalleryOffersCollection = "galleryoffers"
)

// indexSpecs lists every index the service relies on. The unique ones are
// what make Sale creation, review submission and webhook handling idempotent.
func indexSpecs() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		SalesCollection: {
			{Keys: bson.D{{Key: "orderId", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_sale_order")},
		},
		ReviewsCollection: {
			{
				Keys: bson.D{{Key: "orderId", Value: 1}, {Key: "productId", Value: 1}},
				Options: options.Index().
					SetUnique(true).
					SetName("uniq_review_order_product").
					SetPartialFilterExpression(bson.M{"orderId": bson.M{"$type": "objectId"}}),
			},
			{Keys: bson.D{{Key: "productId", Value: 1}, {Key: "status", Value: 1}}},
		},
		UsersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_user_email")},
		},
		CategoriesCollection: {
			{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_category_name")},
			{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_category_slug")},
		},
		OrdersCollection: {
			{Keys: bson.D{{Key: "orderId", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_order_code")},
			{Keys: bson.D{{Key: "stripeSessionId", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true).SetName("uniq_order_stripe_session")},
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		},
		WebhookEventsCollection: {
			{Keys: bson.D{{Key: "eventId", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_webhook_event")},
		},
		GalleryImagesCollection: {
			{Keys: bson.D{{Key: "category", Value: 1}, {Key: "displayOrder", Value: 1}}},
		},
		InventoryLogsCollection: {
			{Keys: bson.D{{Key: "productId", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
	}
}

// EnsureIndexes creates missing indexes. Existing indexes with the same
// definition are left alone by the server.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	for coll, models := range indexSpecs() {
		names, err := db.Collection(coll).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", coll, err)
		}
		zap.L().Debug("Indexes ensured", zap.String("collection", coll), zap.Strings("indexes", names))
	}
	return nil
}
