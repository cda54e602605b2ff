package services

import (
	"context"
	"fmt"
	"time"

	"task-manager/backend/models"
	"task-manager/backend/policy"
)

const recentTasksLimit = 10

type DashboardService struct {
	tasks TaskStore
	now   func() time.Time
}

func NewDashboardService(tasks TaskStore) *DashboardService {
	return &DashboardService{tasks: tasks, now: time.Now}
}

// Dashboard summarises every task for admins and the caller's assigned tasks for members.
func (s *DashboardService) Dashboard(ctx context.Context, caller models.Caller) (models.DashboardSummary, error) {
	if err := authorize(caller, policy.DashboardRead, false); err != nil {
		return models.DashboardSummary{}, err
	}
	return s.Summary(ctx, scopeFor(caller))
}

// UserDashboard always summarises the caller's assigned tasks, whatever the role.
func (s *DashboardService) UserDashboard(ctx context.Context, caller models.Caller) (models.DashboardSummary, error) {
	if err := authorize(caller, policy.DashboardRead, false); err != nil {
		return models.DashboardSummary{}, err
	}
	id := caller.ID
	return s.Summary(ctx, models.DashboardScope{AssignedTo: &id})
}

func (s *DashboardService) Summary(ctx context.Context, scope models.DashboardScope) (models.DashboardSummary, error) {
	filter := scope.Filter()

	total, err := s.tasks.Count(ctx, filter)
	if err != nil {
		return models.DashboardSummary{}, fmt.Errorf("failed to count tasks: %w", err)
	}

	byStatus, err := s.tasks.CountByField(ctx, "status", filter)
	if err != nil {
		return models.DashboardSummary{}, fmt.Errorf("failed to count tasks by status: %w", err)
	}
	byPriority, err := s.tasks.CountByField(ctx, "priority", filter)
	if err != nil {
		return models.DashboardSummary{}, fmt.Errorf("failed to count tasks by priority: %w", err)
	}

	now := s.now()
	overdueFilter := filter
	overdueFilter.ExcludeStatus = models.StatusCompleted
	overdueFilter.DueBefore = &now
	overdue, err := s.tasks.Count(ctx, overdueFilter)
	if err != nil {
		return models.DashboardSummary{}, fmt.Errorf("failed to count overdue tasks: %w", err)
	}

	recent, err := s.tasks.Recent(ctx, filter, recentTasksLimit)
	if err != nil {
		return models.DashboardSummary{}, fmt.Errorf("failed to load recent tasks: %w", err)
	}

	distribution := make(map[string]int64, len(models.TaskStatuses)+1)
	for _, st := range models.TaskStatuses {
		distribution[st.Key()] = byStatus[string(st)]
	}
	distribution[statusFilterAll] = total

	priorities := make(map[string]int64, len(models.Priorities))
	for _, p := range models.Priorities {
		priorities[string(p)] = byPriority[string(p)]
	}

	recentTasks := make([]models.RecentTask, 0, len(recent))
	for _, t := range recent {
		recentTasks = append(recentTasks, models.RecentTask{
			ID:        t.ID,
			Title:     t.Title,
			Status:    t.Status,
			Priority:  t.Priority,
			DueDate:   t.DueDate,
			CreatedAt: t.CreatedAt,
		})
	}

	return models.DashboardSummary{
		Statistics: models.DashboardStatistics{
			TotalTasks:     total,
			CompletedTasks: byStatus[string(models.StatusCompleted)],
			PendingTasks:   byStatus[string(models.StatusPending)],
			OverdueTasks:   overdue,
		},
		Charts: models.DashboardCharts{
			TaskDistribution:   distribution,
			TaskPriorityLevels: priorities,
		},
		RecentTasks: recentTasks,
	}, nil
}
