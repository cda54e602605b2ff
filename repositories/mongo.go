package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"task-manager/backend/logging"
	"task-manager/backend/services"
)

const (
	usersCollection = "users"
	tasksCollection = "tasks"
)

// MongoStore owns the client connection and hands out the collection-backed repositories.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

func NewMongoStore(ctx context.Context, uri, dbName string) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("database connection for MongoDB failed: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("MongoDB connection ping error: %w", err)
	}

	logging.Logger.Infof("Event ID: DB_CONNECTED, Description: Successfully connected to MongoDB database '%s'", dbName)
	return &MongoStore{client: client, db: client.Database(dbName)}, nil
}

func (s *MongoStore) Users() *UserRepo {
	return &UserRepo{collection: s.db.Collection(usersCollection)}
}

func (s *MongoStore) Tasks() *TaskRepo {
	return &TaskRepo{collection: s.db.Collection(tasksCollection)}
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// EnsureIndexes creates the unique user indexes and the task lookup indexes.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	users := s.db.Collection(usersCollection)
	for _, field := range []string{"email", "username"} {
		indexModel := mongo.IndexModel{
			Keys:    bson.D{{Key: field, Value: 1}},
			Options: options.Index().SetUnique(true),
		}
		if _, err := users.Indexes().CreateOne(ctx, indexModel); err != nil {
			return fmt.Errorf("failed to create unique index on user %s: %w", field, err)
		}
	}

	tasks := s.db.Collection(tasksCollection)
	_, err := tasks.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "assignedTo", Value: 1}}},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create task indexes: %w", err)
	}

	logging.Logger.Info("Event ID: DB_INDEXES_READY, Description: MongoDB indexes ensured")
	return nil
}

// mapError translates driver errors into the service error classes.
func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return services.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", services.ErrConflict, err)
	default:
		return err
	}
}
