package repositories

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"task-manager/backend/models"
	"task-manager/backend/services"
)

var groupableFields = map[string]bool{"status": true, "priority": true}

type TaskRepo struct {
	collection *mongo.Collection
}

func nowUTC() time.Time {
	return time.Now().UTC()
}

// taskFilterDoc turns a TaskFilter into a query document. Zero fields add nothing.
func taskFilterDoc(f models.TaskFilter) bson.M {
	doc := bson.M{}
	if f.AssignedTo != nil {
		doc["assignedTo"] = *f.AssignedTo
	}

	status := bson.M{}
	if f.Status != "" {
		status["$eq"] = f.Status
	}
	if f.ExcludeStatus != "" {
		status["$ne"] = f.ExcludeStatus
	}
	if len(status) > 0 {
		doc["status"] = status
	}

	if f.DueBefore != nil {
		doc["dueDate"] = bson.M{"$lt": *f.DueBefore}
	}
	return doc
}

func newestFirst() *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
}

func (r *TaskRepo) Insert(ctx context.Context, task *models.Task) error {
	if task.ID.IsZero() {
		task.ID = primitive.NewObjectID()
	}
	_, err := r.collection.InsertOne(ctx, task)
	return mapError(err)
}

func (r *TaskRepo) FindByID(ctx context.Context, id primitive.ObjectID) (models.Task, error) {
	var task models.Task
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&task); err != nil {
		return models.Task{}, mapError(err)
	}
	return task, nil
}

func (r *TaskRepo) find(ctx context.Context, filter models.TaskFilter, opts *options.FindOptions) ([]models.Task, error) {
	cursor, err := r.collection.Find(ctx, taskFilterDoc(filter), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	tasks := []models.Task{}
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *TaskRepo) Find(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	return r.find(ctx, filter, newestFirst())
}

func (r *TaskRepo) Recent(ctx context.Context, filter models.TaskFilter, limit int) ([]models.Task, error) {
	return r.find(ctx, filter, newestFirst().SetLimit(int64(limit)))
}

func (r *TaskRepo) Count(ctx context.Context, filter models.TaskFilter) (int64, error) {
	return r.collection.CountDocuments(ctx, taskFilterDoc(filter))
}

func groupByPipeline(field string, filter models.TaskFilter) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: taskFilterDoc(filter)}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$" + field},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
}

func (r *TaskRepo) CountByField(ctx context.Context, field string, filter models.TaskFilter) (map[string]int64, error) {
	if !groupableFields[field] {
		return nil, fmt.Errorf("cannot group tasks by %q", field)
	}

	cursor, err := r.collection.Aggregate(ctx, groupByPipeline(field, filter))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var groups []struct {
		Value string `bson:"_id"`
		Count int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &groups); err != nil {
		return nil, err
	}

	out := make(map[string]int64, len(groups))
	for _, g := range groups {
		out[g.Value] = g.Count
	}
	return out, nil
}

func (r *TaskRepo) Replace(ctx context.Context, task *models.Task) error {
	res, err := r.collection.ReplaceOne(ctx, bson.M{"_id": task.ID}, task)
	if err != nil {
		return mapError(err)
	}
	if res.MatchedCount == 0 {
		return services.ErrNotFound
	}
	return nil
}

func (r *TaskRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return services.ErrNotFound
	}
	return nil
}

func (r *TaskRepo) PullAssignee(ctx context.Context, userID primitive.ObjectID) error {
	_, err := r.collection.UpdateMany(ctx,
		bson.M{"assignedTo": userID},
		bson.M{"$pull": bson.M{"assignedTo": userID}},
	)
	return err
}
