package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserTaskReport is one member's assigned-task totals.
type UserTaskReport struct {
	UserID          primitive.ObjectID `json:"id"`
	Username        string             `json:"username"`
	Email           string             `json:"email"`
	TotalTasks      int                `json:"totalTasks"`
	PendingTasks    int                `json:"pendingTasks"`
	InProgressTasks int                `json:"inProgressTasks"`
	CompletedTasks  int                `json:"completedTasks"`
}

func (r *UserTaskReport) Count(status TaskStatus) {
	r.TotalTasks++
	switch status {
	case StatusPending:
		r.PendingTasks++
	case StatusInProgress:
		r.InProgressTasks++
	case StatusCompleted:
		r.CompletedTasks++
	}
}

// MemberWorkload is a member record enriched with task counts, as listed by GET /users.
type MemberWorkload struct {
	User
	PendingTasks    int `json:"pendingTasks"`
	InProgressTasks int `json:"inProgressTasks"`
	CompletedTasks  int `json:"completedTasks"`
}

type TaskReportRow struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    Priority   `json:"priority"`
	Status      TaskStatus `json:"status"`
	DueDate     time.Time  `json:"dueDate"`
	AssignedTo  string     `json:"assignedTo"`
}
