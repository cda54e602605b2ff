package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"task-manager/backend/logging"
	"task-manager/backend/models"
	"task-manager/backend/policy"
)

const statusFilterAll = "All"

type TaskService struct {
	tasks TaskStore
	users UserStore
	now   func() time.Time
}

func NewTaskService(tasks TaskStore, users UserStore) *TaskService {
	return &TaskService{
		tasks: tasks,
		users: users,
		now:   time.Now,
	}
}

// TaskInput carries the fields of a new task. A nil AssignedTo means the field was
// not supplied, which is rejected; an empty slice is a valid "nobody".
type TaskInput struct {
	Title       string
	Description string
	Priority    models.Priority
	DueDate     *time.Time
	AssignedTo  []string
	Attachments []string
	Checklist   []models.ChecklistItem
}

// TaskPatch carries a field edit. Empty strings, nil pointers and nil slices leave the
// stored value alone. AssignedTo must always be supplied.
type TaskPatch struct {
	Title       string
	Description string
	Priority    models.Priority
	DueDate     *time.Time
	AssignedTo  []string
	Attachments []string
	Checklist   []models.ChecklistItem
}

var errAssignedToRequired = fmt.Errorf("%w: assignedTo must be an array of user IDs", ErrValidation)

func (s *TaskService) Create(ctx context.Context, caller models.Caller, in TaskInput) (models.Task, error) {
	if err := authorize(caller, policy.TaskCreate, false); err != nil {
		return models.Task{}, err
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return models.Task{}, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if in.DueDate == nil || in.DueDate.IsZero() {
		return models.Task{}, fmt.Errorf("%w: dueDate is required", ErrValidation)
	}
	priority := in.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	if !priority.IsValid() {
		return models.Task{}, fmt.Errorf("%w: invalid priority %q", ErrValidation, priority)
	}
	if in.AssignedTo == nil {
		return models.Task{}, errAssignedToRequired
	}
	if err := validateChecklist(in.Checklist); err != nil {
		return models.Task{}, err
	}
	assignees, err := s.resolveAssignees(ctx, in.AssignedTo)
	if err != nil {
		return models.Task{}, err
	}

	now := s.now()
	task := models.Task{
		Title:       title,
		Description: in.Description,
		Priority:    priority,
		Status:      models.StatusPending,
		DueDate:     *in.DueDate,
		AssignedTo:  assignees,
		CreatedBy:   caller.ID,
		Attachments: nonNil(in.Attachments),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	task.ApplyChecklist(in.Checklist)

	if err := s.tasks.Insert(ctx, &task); err != nil {
		return models.Task{}, fmt.Errorf("failed to create task: %w", err)
	}

	logging.Logger.Infof("Event ID: TASK_CREATED, Description: Task %s created by %s", task.ID.Hex(), caller.ID.Hex())
	return task, nil
}

// List returns the tasks in the caller's scope, optionally narrowed to one status,
// together with per-status counts over the whole scope.
func (s *TaskService) List(ctx context.Context, caller models.Caller, status string) (models.TaskList, error) {
	if err := authorize(caller, policy.TaskList, false); err != nil {
		return models.TaskList{}, err
	}

	scope := scopeFor(caller).Filter()
	filter := scope
	if status != "" && status != statusFilterAll {
		st := models.TaskStatus(status)
		if !st.IsValid() {
			return models.TaskList{}, fmt.Errorf("%w: invalid status %q", ErrValidation, status)
		}
		filter.Status = st
	}

	tasks, err := s.tasks.Find(ctx, filter)
	if err != nil {
		return models.TaskList{}, fmt.Errorf("failed to retrieve tasks: %w", err)
	}
	details, err := s.withAssignees(ctx, tasks)
	if err != nil {
		return models.TaskList{}, err
	}

	all, err := s.tasks.Count(ctx, scope)
	if err != nil {
		return models.TaskList{}, fmt.Errorf("failed to count tasks: %w", err)
	}
	byStatus, err := s.tasks.CountByField(ctx, "status", scope)
	if err != nil {
		return models.TaskList{}, fmt.Errorf("failed to count tasks by status: %w", err)
	}

	return models.TaskList{
		StatusSummary: models.StatusSummary{
			All:             all,
			PendingTasks:    byStatus[string(models.StatusPending)],
			InProgressTasks: byStatus[string(models.StatusInProgress)],
			CompletedTasks:  byStatus[string(models.StatusCompleted)],
		},
		Tasks: details,
	}, nil
}

func (s *TaskService) Get(ctx context.Context, caller models.Caller, id string) (models.TaskDetails, error) {
	task, err := s.load(ctx, id)
	if err != nil {
		return models.TaskDetails{}, err
	}
	if err := authorize(caller, policy.TaskRead, task.IsAssigned(caller.ID)); err != nil {
		return models.TaskDetails{}, err
	}

	details, err := s.withAssignees(ctx, []models.Task{task})
	if err != nil {
		return models.TaskDetails{}, err
	}
	return details[0], nil
}

// UpdateFields applies an admin edit. A checklist in the patch goes through the
// checklist path so progress and status stay derived from it.
func (s *TaskService) UpdateFields(ctx context.Context, caller models.Caller, id string, patch TaskPatch) (models.Task, error) {
	if err := authorize(caller, policy.TaskEdit, false); err != nil {
		return models.Task{}, err
	}
	if patch.AssignedTo == nil {
		return models.Task{}, errAssignedToRequired
	}
	if patch.Priority != "" && !patch.Priority.IsValid() {
		return models.Task{}, fmt.Errorf("%w: invalid priority %q", ErrValidation, patch.Priority)
	}
	if err := validateChecklist(patch.Checklist); err != nil {
		return models.Task{}, err
	}

	task, err := s.load(ctx, id)
	if err != nil {
		return models.Task{}, err
	}
	assignees, err := s.resolveAssignees(ctx, patch.AssignedTo)
	if err != nil {
		return models.Task{}, err
	}

	if title := strings.TrimSpace(patch.Title); title != "" {
		task.Title = title
	}
	if patch.Description != "" {
		task.Description = patch.Description
	}
	if patch.Priority != "" {
		task.Priority = patch.Priority
	}
	if patch.DueDate != nil && !patch.DueDate.IsZero() {
		task.DueDate = *patch.DueDate
	}
	if patch.Attachments != nil {
		task.Attachments = patch.Attachments
	}
	if patch.Checklist != nil {
		task.ApplyChecklist(patch.Checklist)
	}
	task.AssignedTo = assignees

	if err := s.save(ctx, &task); err != nil {
		return models.Task{}, err
	}

	logging.Logger.Infof("Event ID: TASK_UPDATED, Description: Task %s updated by %s", task.ID.Hex(), caller.ID.Hex())
	return task, nil
}

// SetStatus assigns a status directly. See models.Task.ApplyStatus for the
// checklist side effect of Completed.
func (s *TaskService) SetStatus(ctx context.Context, caller models.Caller, id string, status models.TaskStatus) (models.Task, error) {
	if !status.IsValid() {
		return models.Task{}, fmt.Errorf("%w: invalid status %q", ErrValidation, status)
	}

	task, err := s.load(ctx, id)
	if err != nil {
		return models.Task{}, err
	}
	if err := authorize(caller, policy.TaskUpdateStatus, task.IsAssigned(caller.ID)); err != nil {
		return models.Task{}, err
	}

	task.ApplyStatus(status)
	if err := s.save(ctx, &task); err != nil {
		return models.Task{}, err
	}

	logging.Logger.Infof("Event ID: TASK_STATUS_CHANGED, Description: Task %s set to '%s' by %s", task.ID.Hex(), status, caller.ID.Hex())
	return task, nil
}

// SetChecklist replaces the checklist and re-derives progress and status.
func (s *TaskService) SetChecklist(ctx context.Context, caller models.Caller, id string, items []models.ChecklistItem) (models.TaskDetails, error) {
	if err := validateChecklist(items); err != nil {
		return models.TaskDetails{}, err
	}

	task, err := s.load(ctx, id)
	if err != nil {
		return models.TaskDetails{}, err
	}
	if err := authorize(caller, policy.TaskUpdateChecklist, task.IsAssigned(caller.ID)); err != nil {
		return models.TaskDetails{}, err
	}

	task.ApplyChecklist(items)
	if err := s.save(ctx, &task); err != nil {
		return models.TaskDetails{}, err
	}

	logging.Logger.Infof("Event ID: TASK_CHECKLIST_UPDATED, Description: Task %s checklist updated by %s, progress %d%%", task.ID.Hex(), caller.ID.Hex(), task.Progress)

	details, err := s.withAssignees(ctx, []models.Task{task})
	if err != nil {
		return models.TaskDetails{}, err
	}
	return details[0], nil
}

func (s *TaskService) Delete(ctx context.Context, caller models.Caller, id string) error {
	if err := authorize(caller, policy.TaskDelete, false); err != nil {
		return err
	}
	oid, err := parseObjectID(id, "task")
	if err != nil {
		return err
	}

	if err := s.tasks.Delete(ctx, oid); err != nil {
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("%w: Task not found", ErrNotFound)
		}
		return fmt.Errorf("failed to delete task: %w", err)
	}

	logging.Logger.Infof("Event ID: TASK_DELETED, Description: Task %s deleted by %s", oid.Hex(), caller.ID.Hex())
	return nil
}

func (s *TaskService) load(ctx context.Context, id string) (models.Task, error) {
	oid, err := parseObjectID(id, "task")
	if err != nil {
		return models.Task{}, err
	}
	task, err := s.tasks.FindByID(ctx, oid)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return models.Task{}, fmt.Errorf("%w: Task not found", ErrNotFound)
		}
		return models.Task{}, fmt.Errorf("failed to load task: %w", err)
	}
	return task, nil
}

func (s *TaskService) save(ctx context.Context, task *models.Task) error {
	task.UpdatedAt = s.now()
	if err := s.tasks.Replace(ctx, task); err != nil {
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("%w: Task not found", ErrNotFound)
		}
		return fmt.Errorf("failed to save task: %w", err)
	}
	return nil
}

// resolveAssignees parses, de-duplicates (keeping first-seen order) and checks that
// every referenced user exists.
func (s *TaskService) resolveAssignees(ctx context.Context, ids []string) ([]primitive.ObjectID, error) {
	seen := make(map[primitive.ObjectID]bool, len(ids))
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			return nil, fmt.Errorf("%w: assignedTo contains an invalid user ID %q", ErrValidation, id)
		}
		if seen[oid] {
			continue
		}
		seen[oid] = true
		out = append(out, oid)
	}
	if len(out) == 0 {
		return out, nil
	}

	users, err := s.users.FindByIDs(ctx, out)
	if err != nil {
		return nil, fmt.Errorf("failed to look up assignees: %w", err)
	}
	if len(users) != len(out) {
		return nil, fmt.Errorf("%w: assignedTo references unknown users", ErrValidation)
	}
	return out, nil
}

// withAssignees resolves assignee ids into display summaries with one store lookup.
// Ids whose user no longer exists are dropped from the view.
func (s *TaskService) withAssignees(ctx context.Context, tasks []models.Task) ([]models.TaskDetails, error) {
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

	out := make([]models.TaskDetails, 0, len(tasks))
	for _, t := range tasks {
		assignees := make([]models.UserSummary, 0, len(t.AssignedTo))
		for _, id := range t.AssignedTo {
			if u, ok := byID[id]; ok {
				assignees = append(assignees, u.Summary())
			}
		}
		out = append(out, models.TaskDetails{
			Task:               t,
			AssignedTo:         assignees,
			CompletedTodoCount: t.CompletedCount(),
		})
	}
	return out, nil
}

func validateChecklist(items []models.ChecklistItem) error {
	for i, item := range items {
		if strings.TrimSpace(item.Text) == "" {
			return fmt.Errorf("%w: todoChecklist item %d has no text", ErrValidation, i)
		}
	}
	return nil
}

// scopeFor is every task for admins and the caller's assigned tasks otherwise.
func scopeFor(caller models.Caller) models.DashboardScope {
	if caller.Role == models.RoleAdmin {
		return models.DashboardScope{}
	}
	id := caller.ID
	return models.DashboardScope{AssignedTo: &id}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
