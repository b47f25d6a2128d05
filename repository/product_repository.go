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

type ProductRepository struct {
	collection *mongo.Collection
}

func NewProductRepository(db *mongo.Database) *ProductRepository {
	return &ProductRepository{collection: db.Collection(database.ProductsCollection)}
}

func (r *ProductRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	var product models.Product
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&product); err != nil {
		return nil, mapErr(err)
	}
	return &product, nil
}

func (r *ProductRepository) FindByName(ctx context.Context, name string) (*models.Product, error) {
	var product models.Product
	if err := r.collection.FindOne(ctx, bson.M{"name": name}).Decode(&product); err != nil {
		return nil, mapErr(err)
	}
	return &product, nil
}

func (r *ProductRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}
	return findAll[models.Product](ctx, r.collection, bson.M{"_id": bson.M{"$in": ids}})
}

func productQuery(f ProductFilter) bson.M {
	q := bson.M{}
	if f.Category != "" {
		q["category"] = f.Category
	}
	if f.CategoryID != nil {
		q["categoryId"] = *f.CategoryID
	}
	if f.Featured != nil {
		q["featured"] = *f.Featured
	}
	return q
}

func (r *ProductRepository) Find(ctx context.Context, f ProductFilter) ([]models.Product, error) {
	opts := options.Find().SetSort(newestFirst)
	if f.Limit > 0 {
		opts.SetLimit(f.Limit)
	}
	if f.Skip > 0 {
		opts.SetSkip(f.Skip)
	}
	return findAll[models.Product](ctx, r.collection, productQuery(f), opts)
}

func (r *ProductRepository) Count(ctx context.Context, f ProductFilter) (int64, error) {
	return r.collection.CountDocuments(ctx, productQuery(f))
}

// FindLowStock returns products whose scalar counter or any variant is at or
// below its minStock.
func (r *ProductRepository) FindLowStock(ctx context.Context) ([]models.Product, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"$expr": bson.M{"$lte": bson.A{"$inStock", "$minStock"}}},
		bson.M{"$expr": bson.M{"$anyElementTrue": bson.A{
			bson.M{"$map": bson.M{
				"input": bson.M{"$ifNull": bson.A{"$variants", bson.A{}}},
				"as":    "v",
				"in":    bson.M{"$lte": bson.A{"$$v.inStock", "$$v.minStock"}},
			}},
		}}},
	}}
	return findAll[models.Product](ctx, r.collection, filter, options.Find().SetSort(bson.D{{Key: "inStock", Value: 1}}))
}

func (r *ProductRepository) Create(ctx context.Context, product *models.Product) error {
	now := time.Now().UTC()
	if product.ID.IsZero() {
		product.ID = primitive.NewObjectID()
	}
	product.CreatedAt, product.UpdatedAt = now, now
	if product.Variants == nil {
		product.Variants = []models.Variant{}
	}
	_, err := r.collection.InsertOne(ctx, product)
	return mapErr(err)
}

func (r *ProductRepository) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	set := bson.M{"updatedAt": time.Now().UTC()}
	for k, v := range updates {
		set[k] = v
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return mapErr(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ProductRepository) UpdateWithVariants(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}, variants []models.Variant) error {
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, variantEditPipeline(updates, variants))
	if err != nil {
		return mapErr(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// variantEditPipeline builds the edit as an update pipeline. The submitted
// variants are mapped against the stored ones on the server, and a match
// takes its inStock from the document rather than from the form.
func variantEditPipeline(updates map[string]interface{}, variants []models.Variant) mongo.Pipeline {
	if variants == nil {
		variants = []models.Variant{}
	}
	stage := bson.M{"updatedAt": "$$NOW"}
	for k, v := range updates {
		stage[k] = bson.M{"$literal": v}
	}
	stored := bson.M{"$arrayElemAt": bson.A{
		bson.M{"$filter": bson.M{
			"input": bson.M{"$ifNull": bson.A{"$variants", bson.A{}}},
			"as":    "c",
			"cond":  bson.M{"$eq": bson.A{"$$c.name", "$$n.name"}},
		}},
		0,
	}}
	stage["variants"] = bson.M{"$map": bson.M{
		"input": bson.M{"$literal": variants},
		"as":    "n",
		"in": bson.M{"$let": bson.M{
			"vars": bson.M{"cur": stored},
			"in": bson.M{"$cond": bson.A{
				bson.M{"$eq": bson.A{bson.M{"$type": "$$cur"}, "missing"}},
				"$$n",
				bson.M{"$mergeObjects": bson.A{"$$n", bson.M{"inStock": "$$cur.inStock"}}},
			}},
		}},
	}}
	return mongo.Pipeline{{{Key: "$set", Value: stage}}}
}

func (r *ProductRepository) BulkUpdate(ctx context.Context, ids []primitive.ObjectID, updates map[string]interface{}) (int64, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	for k, v := range updates {
		set[k] = v
	}
	res, err := r.collection.UpdateMany(ctx, bson.M{"_id": bson.M{"$in": ids}}, bson.M{"$set": set})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (r *ProductRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	return deleteByID(ctx, r.collection, id)
}

func (r *ProductRepository) AdjustStock(ctx context.Context, id primitive.ObjectID, variantName string, delta int) (int, int, error) {
	return r.updateStock(ctx, id, variantName, func(current string) interface{} {
		return bson.M{"$max": bson.A{0, bson.M{"$add": bson.A{current, delta}}}}
	}, func(prev int) int {
		return clampStock(prev + delta)
	})
}

func (r *ProductRepository) SetStock(ctx context.Context, id primitive.ObjectID, variantName string, value int) (int, int, error) {
	value = clampStock(value)
	return r.updateStock(ctx, id, variantName, func(string) interface{} {
		return bson.M{"$literal": value}
	}, func(int) int {
		return value
	})
}

// updateStock runs a single pipeline update so the read of the old counter
// and the write of the new one happen atomically on the server. expr builds
// the new counter from the path of the current one.
func (r *ProductRepository) updateStock(
	ctx context.Context,
	id primitive.ObjectID,
	variantName string,
	expr func(current string) interface{},
	next func(prev int) int,
) (int, int, error) {
	filter := bson.M{"_id": id}
	var stage bson.M
	if variantName == "" {
		stage = bson.M{"inStock": expr("$inStock"), "updatedAt": "$$NOW"}
	} else {
		filter["variants.name"] = variantName
		stage = bson.M{
			"variants": bson.M{"$map": bson.M{
				"input": "$variants",
				"as":    "v",
				"in": bson.M{"$cond": bson.A{
					bson.M{"$eq": bson.A{"$$v.name", variantName}},
					bson.M{"$mergeObjects": bson.A{"$$v", bson.M{"inStock": expr("$$v.inStock")}}},
					"$$v",
				}},
			}},
			"updatedAt": "$$NOW",
		}
	}
	pipeline := mongo.Pipeline{{{Key: "$set", Value: stage}}}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.Before)
	var before models.Product
	if err := r.collection.FindOneAndUpdate(ctx, filter, pipeline, opts).Decode(&before); err != nil {
		return 0, 0, mapErr(err)
	}

	prev, _ := before.StockFor(variantName)
	return prev, next(prev), nil
}

func clampStock(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
