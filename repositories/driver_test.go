package repositories

import (
	"context"
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"task-manager/backend/models"
	"task-manager/backend/services"
)

func newMock(t *testing.T) *mtest.T {
	return mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
}

func TestTaskRepo_Replace(t *testing.T) {
	mt := newMock(t)

	mt.Run("unknown id", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}))
		repo := &TaskRepo{collection: mt.Coll}
		err := repo.Replace(context.Background(), &models.Task{ID: primitive.NewObjectID()})
		if !errors.Is(err, services.ErrNotFound) {
			mt.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	mt.Run("matched", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}))
		repo := &TaskRepo{collection: mt.Coll}
		if err := repo.Replace(context.Background(), &models.Task{ID: primitive.NewObjectID()}); err != nil {
			mt.Fatalf("Replace: %v", err)
		}
	})
}

func TestTaskRepo_FindByIDMissing(t *testing.T) {
	mt := newMock(t)
	mt.Run("empty batch", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "taskmanager.tasks", mtest.FirstBatch))
		repo := &TaskRepo{collection: mt.Coll}
		if _, err := repo.FindByID(context.Background(), primitive.NewObjectID()); !errors.Is(err, services.ErrNotFound) {
			mt.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestTaskRepo_CountByField(t *testing.T) {
	mt := newMock(t)
	mt.Run("decodes groups", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "taskmanager.tasks", mtest.FirstBatch,
			bson.D{{Key: "_id", Value: "Pending"}, {Key: "count", Value: int64(2)}},
			bson.D{{Key: "_id", Value: "Completed"}, {Key: "count", Value: int32(1)}},
		))
		repo := &TaskRepo{collection: mt.Coll}

		got, err := repo.CountByField(context.Background(), "status", models.TaskFilter{})
		if err != nil {
			mt.Fatalf("CountByField: %v", err)
		}
		if len(got) != 2 || got["Pending"] != 2 || got["Completed"] != 1 {
			mt.Fatalf("unexpected counts %v", got)
		}
		if name := mt.GetStartedEvent().CommandName; name != "aggregate" {
			mt.Fatalf("expected aggregate command, got %q", name)
		}
	})
}

func TestTaskRepo_PullAssignee(t *testing.T) {
	mt := newMock(t)
	mt.Run("pulls from every task", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 2}, bson.E{Key: "nModified", Value: 2}))
		repo := &TaskRepo{collection: mt.Coll}
		user := primitive.NewObjectID()

		if err := repo.PullAssignee(context.Background(), user); err != nil {
			mt.Fatalf("PullAssignee: %v", err)
		}

		ev := mt.GetStartedEvent()
		if ev.CommandName != "update" {
			mt.Fatalf("expected update command, got %q", ev.CommandName)
		}
		if multi, _ := ev.Command.Lookup("updates", "0", "multi").BooleanOK(); !multi {
			mt.Fatalf("expected a multi update")
		}
		if got := ev.Command.Lookup("updates", "0", "u", "$pull", "assignedTo").ObjectID(); got != user {
			mt.Fatalf("pulled %v, want %v", got, user)
		}
	})
}

func TestUserRepo_Writes(t *testing.T) {
	mt := newMock(t)

	mt.Run("duplicate insert", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "E11000 duplicate key error"}))
		repo := &UserRepo{collection: mt.Coll}
		err := repo.Insert(context.Background(), &models.User{Username: "mia", Email: "mia@example.com"})
		if !errors.Is(err, services.ErrConflict) {
			mt.Fatalf("expected ErrConflict, got %v", err)
		}
	})

	mt.Run("password for unknown user", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}))
		repo := &UserRepo{collection: mt.Coll}
		if err := repo.UpdatePassword(context.Background(), primitive.NewObjectID(), "hash"); !errors.Is(err, services.ErrNotFound) {
			mt.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}
