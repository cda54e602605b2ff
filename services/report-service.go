package services

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"task-manager/backend/models"
	"task-manager/backend/policy"
)

const unassignedLabel = "Unassigned"

// ReportService builds the admin-facing reports over users and tasks.
type ReportService struct {
	users UserStore
	tasks TaskStore
}

func NewReportService(users UserStore, tasks TaskStore) *ReportService {
	return &ReportService{users: users, tasks: tasks}
}

// UsersReport returns per-member task totals, one row per member-role user.
func (s *ReportService) UsersReport(ctx context.Context, caller models.Caller) ([]models.UserTaskReport, error) {
	if err := authorize(caller, policy.ReportExport, false); err != nil {
		return nil, err
	}

	members, counts, err := s.memberCounts(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]models.UserTaskReport, 0, len(members))
	for _, m := range members {
		out = append(out, *counts[m.ID])
	}
	return out, nil
}

// MemberWorkloads lists members with their per-status task counts.
func (s *ReportService) MemberWorkloads(ctx context.Context, caller models.Caller) ([]models.MemberWorkload, error) {
	if err := authorize(caller, policy.UserList, false); err != nil {
		return nil, err
	}

	members, counts, err := s.memberCounts(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]models.MemberWorkload, 0, len(members))
	for _, m := range members {
		c := counts[m.ID]
		out = append(out, models.MemberWorkload{
			User:            m,
			PendingTasks:    c.PendingTasks,
			InProgressTasks: c.InProgressTasks,
			CompletedTasks:  c.CompletedTasks,
		})
	}
	return out, nil
}

// TasksReport returns one row per task with assignees rendered as "username (email)".
func (s *ReportService) TasksReport(ctx context.Context, caller models.Caller) ([]models.TaskReportRow, error) {
	if err := authorize(caller, policy.ReportExport, false); err != nil {
		return nil, err
	}

	tasks, err := s.tasks.Find(ctx, models.TaskFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve tasks: %w", err)
	}

	var ids []primitive.ObjectID
	seen := make(map[primitive.ObjectID]bool)
	for _, t := range tasks {
		for _, id := range t.AssignedTo {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	byID := make(map[primitive.ObjectID]models.User, len(ids))
	if len(ids) > 0 {
		users, err := s.users.FindByIDs(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve assignees: %w", err)
		}
		for _, u := range users {
			byID[u.ID] = u
		}
	}

	rows := make([]models.TaskReportRow, 0, len(tasks))
	for _, t := range tasks {
		var names []string
		for _, id := range t.AssignedTo {
			if u, ok := byID[id]; ok {
				names = append(names, fmt.Sprintf("%s (%s)", u.Username, u.Email))
			}
		}
		assigned := unassignedLabel
		if len(names) > 0 {
			assigned = strings.Join(names, ", ")
		}
		rows = append(rows, models.TaskReportRow{
			Title:       t.Title,
			Description: t.Description,
			Priority:    t.Priority,
			Status:      t.Status,
			DueDate:     t.DueDate,
			AssignedTo:  assigned,
		})
	}
	return rows, nil
}

func (s *ReportService) memberCounts(ctx context.Context) ([]models.User, map[primitive.ObjectID]*models.UserTaskReport, error) {
	members, err := s.users.FindByRole(ctx, models.RoleMember)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to retrieve members: %w", err)
	}
	tasks, err := s.tasks.Find(ctx, models.TaskFilter{})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to retrieve tasks: %w", err)
	}

	counts := make(map[primitive.ObjectID]*models.UserTaskReport, len(members))
	for _, m := range members {
		counts[m.ID] = &models.UserTaskReport{UserID: m.ID, Username: m.Username, Email: m.Email}
	}
	for _, t := range tasks {
		for _, id := range t.AssignedTo {
			if r, ok := counts[id]; ok {
				r.Count(t.Status)
			}
		}
	}
	return members, counts, nil
}
