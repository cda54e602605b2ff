package models

import (
	"math"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TaskStatus string

const (
	StatusPending    TaskStatus = "Pending"
	StatusInProgress TaskStatus = "In Progress"
	StatusCompleted  TaskStatus = "Completed"
)

// TaskStatuses lists every status in display order.
var TaskStatuses = []TaskStatus{StatusPending, StatusInProgress, StatusCompleted}

func (s TaskStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Key is the status without whitespace, as used for chart keys ("InProgress").
func (s TaskStatus) Key() string {
	return strings.Join(strings.Fields(string(s)), "")
}

type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

type ChecklistItem struct {
	Text      string `bson:"text" json:"text"`
	Completed bool   `bson:"completed" json:"completed"`
}

type Task struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Title       string               `bson:"title" json:"title"`
	Description string               `bson:"description" json:"description"`
	Priority    Priority             `bson:"priority" json:"priority"`
	Status      TaskStatus           `bson:"status" json:"status"`
	DueDate     time.Time            `bson:"dueDate" json:"dueDate"`
	AssignedTo  []primitive.ObjectID `bson:"assignedTo" json:"assignedTo"`
	CreatedBy   primitive.ObjectID   `bson:"createdBy" json:"createdBy"`
	Attachments []string             `bson:"attachments" json:"attachments"`
	Checklist   []ChecklistItem      `bson:"todoChecklist" json:"todoChecklist"`
	Progress    int                  `bson:"progress" json:"progress"`
	CreatedAt   time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time            `bson:"updatedAt" json:"updatedAt"`
}

func (t *Task) IsAssigned(userID primitive.ObjectID) bool {
	for _, id := range t.AssignedTo {
		if id == userID {
			return true
		}
	}
	return false
}

func (t *Task) CompletedCount() int {
	n := 0
	for _, item := range t.Checklist {
		if item.Completed {
			n++
		}
	}
	return n
}

// ChecklistProgress returns round(100*completed/total), or 0 for an empty checklist.
func ChecklistProgress(items []ChecklistItem) int {
	if len(items) == 0 {
		return 0
	}
	done := 0
	for _, item := range items {
		if item.Completed {
			done++
		}
	}
	return int(math.Round(float64(done) * 100 / float64(len(items))))
}

// StatusForProgress derives the status reached through a checklist update.
func StatusForProgress(progress int) TaskStatus {
	switch {
	case progress >= 100:
		return StatusCompleted
	case progress <= 0:
		return StatusPending
	default:
		return StatusInProgress
	}
}

// ApplyChecklist replaces the checklist and recomputes progress and status from it.
func (t *Task) ApplyChecklist(items []ChecklistItem) {
	t.Checklist = append([]ChecklistItem{}, items...)
	t.Progress = ChecklistProgress(t.Checklist)
	t.Status = StatusForProgress(t.Progress)
}

// ApplyStatus sets the status directly. Completed also completes every checklist
// item and pins progress to 100; any other status leaves checklist and progress alone.
func (t *Task) ApplyStatus(status TaskStatus) {
	t.Status = status
	if status != StatusCompleted {
		return
	}
	for i := range t.Checklist {
		t.Checklist[i].Completed = true
	}
	t.Progress = 100
}

// TaskFilter narrows task queries. Zero fields are ignored.
type TaskFilter struct {
	AssignedTo    *primitive.ObjectID
	Status        TaskStatus
	ExcludeStatus TaskStatus
	DueBefore     *time.Time
}

// TaskDetails is a task with its assignees resolved for display.
type TaskDetails struct {
	Task
	AssignedTo         []UserSummary `json:"assignedTo"`
	CompletedTodoCount int           `json:"completedTodoCount"`
}

type StatusSummary struct {
	All             int64 `json:"all"`
	PendingTasks    int64 `json:"pendingTasks"`
	InProgressTasks int64 `json:"inProgressTasks"`
	CompletedTasks  int64 `json:"completedTasks"`
}

type TaskList struct {
	StatusSummary StatusSummary `json:"statusSummary"`
	Tasks         []TaskDetails `json:"tasks"`
}
