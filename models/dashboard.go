package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DashboardScope selects the tasks a summary covers. A nil AssignedTo means every task.
type DashboardScope struct {
	AssignedTo *primitive.ObjectID
}

func (s DashboardScope) Filter() TaskFilter {
	return TaskFilter{AssignedTo: s.AssignedTo}
}

type DashboardStatistics struct {
	TotalTasks     int64 `json:"totalTasks"`
	CompletedTasks int64 `json:"completedTasks"`
	PendingTasks   int64 `json:"pendingTasks"`
	OverdueTasks   int64 `json:"overdueTasks"`
}

type DashboardCharts struct {
	TaskDistribution   map[string]int64 `json:"taskDistribution"`
	TaskPriorityLevels map[string]int64 `json:"taskPriorityLevels"`
}

type RecentTask struct {
	ID        primitive.ObjectID `json:"id"`
	Title     string             `json:"title"`
	Status    TaskStatus         `json:"status"`
	Priority  Priority           `json:"priority"`
	DueDate   time.Time          `json:"dueDate"`
	CreatedAt time.Time          `json:"createdAt"`
}

type DashboardSummary struct {
	Statistics  DashboardStatistics `json:"statistics"`
	Charts      DashboardCharts     `json:"charts"`
	RecentTasks []RecentTask        `json:"recentTasks"`
}
