package services

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"task-manager/backend/models"
)

// UserStore persists users. Lookups return ErrNotFound when nothing matches and
// Insert returns ErrConflict on a duplicate username or email.
type UserStore interface {
	Insert(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByUsername(ctx context.Context, username string) (models.User, error)
	// FindByIdentifier matches either the username or the e-mail.
	FindByIdentifier(ctx context.Context, identifier string) (models.User, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
	FindByRole(ctx context.Context, role models.Role) ([]models.User, error)
	UpdatePassword(ctx context.Context, id primitive.ObjectID, hash string) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// TaskStore persists tasks. FindByID, Replace and Delete return ErrNotFound for an
// unknown id.
type TaskStore interface {
	Insert(ctx context.Context, task *models.Task) error
	FindByID(ctx context.Context, id primitive.ObjectID) (models.Task, error)
	Find(ctx context.Context, filter models.TaskFilter) ([]models.Task, error)
	// Recent returns at most limit tasks, newest createdAt first.
	Recent(ctx context.Context, filter models.TaskFilter, limit int) ([]models.Task, error)
	Count(ctx context.Context, filter models.TaskFilter) (int64, error)
	// CountByField groups the matching tasks by a document field ("status" or
	// "priority") and returns the count per value.
	CountByField(ctx context.Context, field string, filter models.TaskFilter) (map[string]int64, error)
	Replace(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	// PullAssignee removes userID from every task's assignedTo set.
	PullAssignee(ctx context.Context, userID primitive.ObjectID) error
}

// Mailer delivers HTML e-mail.
type Mailer interface {
	Send(to, subject, htmlBody string) error
}
