package repository

import (
	"context"
	"strings"
	"time"

	"storefront-service/database"
	"storefront-service/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type UserRepository struct {
	collection *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{collection: db.Collection(database.UsersCollection)}
}

func (r *UserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

// FindByEmail matches on the lower-cased address; emails are stored lower-cased.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	filter := bson.M{"email": strings.ToLower(strings.TrimSpace(email))}
	if err := r.collection.FindOne(ctx, filter).Decode(&u); err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

// FindCustomers lists users with role user who placed at least one order.
func (r *UserRepository) FindCustomers(ctx context.Context) ([]models.User, error) {
	filter := bson.M{"role": models.RoleUser, "orders.0": bson.M{"$exists": true}}
	return findAll[models.User](ctx, r.collection, filter,
		options.Find().SetSort(newestFirst).SetProjection(bson.M{"password": 0}))
}

func (r *UserRepository) CountByRole(ctx context.Context, role string) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"role": role})
}

func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	now := time.Now().UTC()
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.Orders == nil {
		u.Orders = []primitive.ObjectID{}
	}
	if u.Notes == nil {
		u.Notes = []models.Note{}
	}
	u.CreatedAt, u.UpdatedAt = now, now
	_, err := r.collection.InsertOne(ctx, u)
	return mapErr(err)
}

func (r *UserRepository) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) (*models.User, error) {
	if email, ok := updates["email"].(string); ok {
		updates["email"] = strings.ToLower(strings.TrimSpace(email))
	}
	var u models.User
	if err := setAndReturn(ctx, r.collection, id, updates, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) AttachOrder(ctx context.Context, id, orderID primitive.ObjectID, set map[string]interface{}) error {
	fields := bson.M{"updatedAt": time.Now().UTC()}
	for k, v := range set {
		fields[k] = v
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set":      fields,
		"$addToSet": bson.M{"orders": orderID},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *UserRepository) AddNote(ctx context.Context, id primitive.ObjectID, note models.Note) (*models.User, error) {
	var u models.User
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id},
		bson.M{
			"$push": bson.M{"notes": note},
			"$set":  bson.M{"updatedAt": time.Now().UTC()},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&u)
	if err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

func (r *UserRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	return deleteByID(ctx, r.collection, id)
}

func (r *UserRepository) DeleteManyByRole(ctx context.Context, ids []primitive.ObjectID, role string) (int64, error) {
	res, err := r.collection.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}, "role": role})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (r *UserRepository) ConsumeResetToken(ctx context.Context, id primitive.ObjectID, tokenHash, passwordHash string, now time.Time) (bool, error) {
	if tokenHash == "" {
		return false, nil
	}
	res, err := r.collection.UpdateOne(ctx,
		bson.M{
			"_id":                  id,
			"resetPasswordToken":   tokenHash,
			"resetPasswordExpires": bson.M{"$gt": now},
		},
		bson.M{
			"$set":   bson.M{"password": passwordHash, "updatedAt": now},
			"$unset": bson.M{"resetPasswordToken": "", "resetPasswordExpires": ""},
		},
	)
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}

func storedAddresses() bson.M {
	return bson.M{"$ifNull": bson.A{"$addresses", bson.A{}}}
}

// demoted maps input to copies with isPrimary false.
func demoted(input interface{}) bson.M {
	return bson.M{"$map": bson.M{
		"input": input,
		"as":    "a",
		"in":    bson.M{"$mergeObjects": bson.A{"$$a", bson.M{"isPrimary": false}}},
	}}
}

// AddAddress runs as one pipeline update so the first-address rule and the
// primary demotion see the same stored list.
func (r *UserRepository) AddAddress(ctx context.Context, id primitive.ObjectID, addr models.Address) (*models.User, error) {
	if addr.ID.IsZero() {
		addr.ID = primitive.NewObjectID()
	}
	var kept interface{} = storedAddresses()
	if addr.IsPrimary {
		kept = demoted(storedAddresses())
	}
	added := bson.M{"$mergeObjects": bson.A{
		bson.M{"$literal": addr},
		bson.M{"isPrimary": bson.M{"$or": bson.A{
			addr.IsPrimary,
			bson.M{"$eq": bson.A{bson.M{"$size": storedAddresses()}, 0}},
		}}},
	}}
	pipeline := mongo.Pipeline{{{Key: "$set", Value: bson.M{
		"addresses": bson.M{"$concatArrays": bson.A{kept, bson.A{added}}},
		"updatedAt": "$$NOW",
	}}}}
	return r.updateAndReturn(ctx, bson.M{"_id": id}, pipeline)
}

func (r *UserRepository) UpdateAddress(ctx context.Context, id, addressID primitive.ObjectID, set map[string]interface{}, makePrimary bool) (*models.User, error) {
	fields := bson.M{}
	for k, v := range set {
		fields[k] = v
	}
	if makePrimary {
		fields["isPrimary"] = true
	}
	var others interface{} = "$$a"
	if makePrimary {
		others = bson.M{"$mergeObjects": bson.A{"$$a", bson.M{"isPrimary": false}}}
	}
	pipeline := mongo.Pipeline{{{Key: "$set", Value: bson.M{
		"addresses": bson.M{"$map": bson.M{
			"input": storedAddresses(),
			"as":    "a",
			"in": bson.M{"$cond": bson.A{
				bson.M{"$eq": bson.A{"$$a._id", addressID}},
				bson.M{"$mergeObjects": bson.A{"$$a", bson.M{"$literal": fields}}},
				others,
			}},
		}},
		"updatedAt": "$$NOW",
	}}}}
	return r.updateAndReturn(ctx, bson.M{"_id": id, "addresses._id": addressID}, pipeline)
}

func (r *UserRepository) RemoveAddress(ctx context.Context, id, addressID primitive.ObjectID) (*models.User, error) {
	return r.updateAndReturn(ctx, bson.M{"_id": id}, bson.M{
		"$pull": bson.M{"addresses": bson.M{"_id": addressID}},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	})
}

func (r *UserRepository) updateAndReturn(ctx context.Context, filter bson.M, update interface{}) (*models.User, error) {
	var u models.User
	err := r.collection.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&u)
	if err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}
