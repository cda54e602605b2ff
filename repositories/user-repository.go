package repositories

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"task-manager/backend/models"
	"task-manager/backend/services"
)

type UserRepo struct {
	collection *mongo.Collection
}

func (r *UserRepo) Insert(ctx context.Context, user *models.User) error {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	_, err := r.collection.InsertOne(ctx, user)
	return mapError(err)
}

func (r *UserRepo) findOne(ctx context.Context, filter bson.M) (models.User, error) {
	var user models.User
	if err := r.collection.FindOne(ctx, filter).Decode(&user); err != nil {
		return models.User{}, mapError(err)
	}
	return user, nil
}

func (r *UserRepo) FindByID(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (models.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *UserRepo) FindByUsername(ctx context.Context, username string) (models.User, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *UserRepo) FindByIdentifier(ctx context.Context, identifier string) (models.User, error) {
	return r.findOne(ctx, identifierFilter(identifier))
}

func identifierFilter(identifier string) bson.M {
	return bson.M{"$or": []bson.M{
		{"username": identifier},
		{"email": strings.ToLower(identifier)},
	}}
}

func (r *UserRepo) find(ctx context.Context, filter bson.M) ([]models.User, error) {
	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "username", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *UserRepo) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

func (r *UserRepo) FindByRole(ctx context.Context, role models.Role) ([]models.User, error) {
	return r.find(ctx, bson.M{"role": role})
}

func (r *UserRepo) UpdatePassword(ctx context.Context, id primitive.ObjectID, hash string) error {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"password": hash, "updatedAt": nowUTC()}},
	)
	if err != nil {
		return mapError(err)
	}
	if res.MatchedCount == 0 {
		return services.ErrNotFound
	}
	return nil
}

func (r *UserRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return services.ErrNotFound
	}
	return nil
}
