package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"task-manager/backend/models"
	"task-manager/backend/services"
)

func TestCreateTask_DefaultsAndDedupe(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	admin := f.mustRegister(t, "ada", true)
	mia := f.mustRegister(t, "mia", false)
	leo := f.mustRegister(t, "leo", false)

	due := time.Now().Add(24 * time.Hour)
	task, err := f.taskSvc.Create(context.Background(), admin.Caller(), services.TaskInput{
		Title:      "  Write docs ",
		DueDate:    &due,
		AssignedTo: []string{mia.ID.Hex(), leo.ID.Hex(), mia.ID.Hex()},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if task.Title != "Write docs" {
		t.Errorf("title not trimmed: %q", task.Title)
	}
	if task.Priority != models.PriorityMedium {
		t.Errorf("expected Medium priority, got %q", task.Priority)
	}
	if task.Status != models.StatusPending || task.Progress != 0 {
		t.Errorf("expected Pending/0, got %q/%d", task.Status, task.Progress)
	}
	if task.CreatedBy != admin.ID {
		t.Errorf("createdBy not set to caller")
	}
	if len(task.AssignedTo) != 2 || task.AssignedTo[0] != mia.ID || task.AssignedTo[1] != leo.ID {
		t.Errorf("expected deduplicated assignees in order, got %v", task.AssignedTo)
	}
	if task.Attachments == nil {
		t.Errorf("attachments should be an empty list, not nil")
	}
}

func TestCreateTask_ChecklistDerivesStatus(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	admin := f.mustRegister(t, "ada", true)

	due := time.Now().Add(24 * time.Hour)
	task, err := f.taskSvc.Create(context.Background(), admin.Caller(), services.TaskInput{
		Title:      "Release",
		DueDate:    &due,
		AssignedTo: []string{},
		Checklist: []models.ChecklistItem{
			{Text: "tag", Completed: true},
			{Text: "announce"},
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if task.Progress != 50 || task.Status != models.StatusInProgress {
		t.Fatalf("expected 50/In Progress, got %d/%q", task.Progress, task.Status)
	}
}

func TestCreateTask_Validation(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	admin := f.mustRegister(t, "ada", true)
	due := time.Now().Add(time.Hour)

	cases := map[string]services.TaskInput{
		"missing title":     {DueDate: &due, AssignedTo: []string{}},
		"missing due date":  {Title: "x", AssignedTo: []string{}},
		"missing assignees": {Title: "x", DueDate: &due},
		"bad priority":      {Title: "x", DueDate: &due, AssignedTo: []string{}, Priority: "Urgent"},
		"malformed user id": {Title: "x", DueDate: &due, AssignedTo: []string{"nope"}},
		"unknown user":      {Title: "x", DueDate: &due, AssignedTo: []string{primitive.NewObjectID().Hex()}},
		"blank checklist":   {Title: "x", DueDate: &due, AssignedTo: []string{}, Checklist: []models.ChecklistItem{{Text: " "}}},
	}
	for name, in := range cases {
		if _, err := f.taskSvc.Create(context.Background(), admin.Caller(), in); !errors.Is(err, services.ErrValidation) {
			t.Errorf("%s: expected ErrValidation, got %v", name, err)
		}
	}
}

func TestCreateTask_MemberForbidden(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	mia := f.mustRegister(t, "mia", false)
	due := time.Now().Add(time.Hour)

	_, err := f.taskSvc.Create(context.Background(), mia.Caller(), services.TaskInput{
		Title: "x", DueDate: &due, AssignedTo: []string{},
	})
	if !errors.Is(err, services.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestSetChecklist_DerivesProgressAndStatus(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	admin := f.mustRegister(t, "ada", true)
	mia := f.mustRegister(t, "mia", false)
	task := f.mustCreateTask(t, admin, "Ship", mia)

	tests := []struct {
		name     string
		items    []models.ChecklistItem
		progress int
		status   models.TaskStatus
		done     int
	}{
		{"two of three", []models.ChecklistItem{{Text: "a", Completed: true}, {Text: "b", Completed: true}, {Text: "c"}}, 67, models.StatusInProgress, 2},
		{"all done", []models.ChecklistItem{{Text: "a", Completed: true}, {Text: "b", Completed: true}}, 100, models.StatusCompleted, 2},
		{"none done", []models.ChecklistItem{{Text: "a"}}, 0, models.StatusPending, 0},
		{"empty", []models.ChecklistItem{}, 0, models.StatusPending, 0},
	}
	for _, tt := range tests {
		details, err := f.taskSvc.SetChecklist(ctx, mia.Caller(), task.ID.Hex(), tt.items)
		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if details.Progress != tt.progress || details.Status != tt.status {
			t.Errorf("%s: got %d/%q, want %d/%q", tt.name, details.Progress, details.Status, tt.progress, tt.status)
		}
		if details.CompletedTodoCount != tt.done {
			t.Errorf("%s: completedTodoCount %d, want %d", tt.name, details.CompletedTodoCount, tt.done)
		}
		if len(details.AssignedTo) != 1 || details.AssignedTo[0].Username != "mia" {
			t.Errorf("%s: assignees not resolved: %+v", tt.name, details.AssignedTo)
		}

		stored, err := f.tasks.FindByID(ctx, task.ID)
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		if stored.Progress != tt.progress || stored.Status != tt.status {
			t.Errorf("%s: not persisted, stored %d/%q", tt.name, stored.Progress, stored.Status)
		}
	}
}

func TestSetStatus(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	admin := f.mustRegister(t, "ada", true)
	mia := f.mustRegister(t, "mia", false)
	task := f.mustCreateTask(t, admin, "Ship", mia)

	if _, err := f.taskSvc.SetChecklist(ctx, mia.Caller(), task.ID.Hex(), []models.ChecklistItem{
		{Text: "a", Completed: true}, {Text: "b"}, {Text: "c"}, {Text: "d"},
	}); err != nil {
		t.Fatalf("checklist: %v", err)
	}

	got, err := f.taskSvc.SetStatus(ctx, mia.Caller(), task.ID.Hex(), models.StatusPending)
	if err != nil {
		t.Fatalf("set pending: %v", err)
	}
	if got.Status != models.StatusPending || got.Progress != 25 || got.CompletedCount() != 1 {
		t.Fatalf("non-completed status must leave checklist alone, got %q/%d/%d", got.Status, got.Progress, got.CompletedCount())
	}

	got, err = f.taskSvc.SetStatus(ctx, mia.Caller(), task.ID.Hex(), models.StatusCompleted)
	if err != nil {
		t.Fatalf("set completed: %v", err)
	}
	if got.Progress != 100 || got.CompletedCount() != 4 {
		t.Fatalf("completed must finish every item, got %d/%d", got.Progress, got.CompletedCount())
	}

	if _, err := f.taskSvc.SetStatus(ctx, mia.Caller(), task.ID.Hex(), "Done"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestMemberAccessRequiresAssignment(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	admin := f.mustRegister(t, "ada", true)
	mia := f.mustRegister(t, "mia", false)
	leo := f.mustRegister(t, "leo", false)
	task := f.mustCreateTask(t, admin, "Ship", mia)
	id := task.ID.Hex()

	if _, err := f.taskSvc.Get(ctx, leo.Caller(), id); !errors.Is(err, services.ErrForbidden) {
		t.Errorf("get: expected ErrForbidden, got %v", err)
	}
	if _, err := f.taskSvc.SetStatus(ctx, leo.Caller(), id, models.StatusCompleted); !errors.Is(err, services.ErrForbidden) {
		t.Errorf("status: expected ErrForbidden, got %v", err)
	}
	if _, err := f.taskSvc.SetChecklist(ctx, leo.Caller(), id, nil); !errors.Is(err, services.ErrForbidden) {
		t.Errorf("checklist: expected ErrForbidden, got %v", err)
	}

	if _, err := f.taskSvc.Get(ctx, mia.Caller(), id); err != nil {
		t.Errorf("assigned member get: %v", err)
	}
	if _, err := f.taskSvc.Get(ctx, admin.Caller(), id); err != nil {
		t.Errorf("admin get: %v", err)
	}

	if err := f.taskSvc.Delete(ctx, mia.Caller(), id); !errors.Is(err, services.ErrForbidden) {
		t.Errorf("member delete: expected ErrForbidden, got %v", err)
	}
	if _, err := f.tasks.FindByID(ctx, task.ID); err != nil {
		t.Errorf("task must survive a forbidden delete: %v", err)
	}

	stored, _ := f.tasks.FindByID(ctx, task.ID)
	if stored.Status != models.StatusPending {
		t.Errorf("forbidden status change was persisted: %q", stored.Status)
	}
}

func TestGetTask_Errors(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	admin := f.mustRegister(t, "ada", true)

	if _, err := f.taskSvc.Get(context.Background(), admin.Caller(), "xyz"); !errors.Is(err, services.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
	if _, err := f.taskSvc.Get(context.Background(), admin.Caller(), primitive.NewObjectID().Hex()); !errors.Is(err, services.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteTask(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	admin := f.mustRegister(t, "ada", true)
	task := f.mustCreateTask(t, admin, "Ship")

	if err := f.taskSvc.Delete(ctx, admin.Caller(), task.ID.Hex()); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := f.taskSvc.Delete(ctx, admin.Caller(), task.ID.Hex()); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateFields(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	admin := f.mustRegister(t, "ada", true)
	mia := f.mustRegister(t, "mia", false)
	leo := f.mustRegister(t, "leo", false)
	task := f.mustCreateTask(t, admin, "Ship", mia)

	got, err := f.taskSvc.UpdateFields(ctx, admin.Caller(), task.ID.Hex(), services.TaskPatch{
		Description: "now with notes",
		Priority:    models.PriorityHigh,
		AssignedTo:  []string{leo.ID.Hex()},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Title != "Ship" {
		t.Errorf("empty title must keep the old one, got %q", got.Title)
	}
	if got.Description != "now with notes" || got.Priority != models.PriorityHigh {
		t.Errorf("fields not applied: %+v", got)
	}
	if len(got.AssignedTo) != 1 || got.AssignedTo[0] != leo.ID {
		t.Errorf("assignees not replaced: %v", got.AssignedTo)
	}
	if got.UpdatedAt.Before(task.UpdatedAt) {
		t.Errorf("updatedAt went backwards")
	}

	got, err = f.taskSvc.UpdateFields(ctx, admin.Caller(), task.ID.Hex(), services.TaskPatch{
		AssignedTo: []string{leo.ID.Hex()},
		Checklist:  []models.ChecklistItem{{Text: "a", Completed: true}},
	})
	if err != nil {
		t.Fatalf("update checklist: %v", err)
	}
	if got.Status != models.StatusCompleted || got.Progress != 100 {
		t.Errorf("checklist in a field edit must re-derive status, got %q/%d", got.Status, got.Progress)
	}

	if _, err := f.taskSvc.UpdateFields(ctx, admin.Caller(), task.ID.Hex(), services.TaskPatch{Title: "x"}); !errors.Is(err, services.ErrValidation) {
		t.Errorf("missing assignedTo: expected ErrValidation, got %v", err)
	}
	if _, err := f.taskSvc.UpdateFields(ctx, leo.Caller(), task.ID.Hex(), services.TaskPatch{AssignedTo: []string{}}); !errors.Is(err, services.ErrForbidden) {
		t.Errorf("member edit: expected ErrForbidden, got %v", err)
	}
	if _, err := f.taskSvc.UpdateFields(ctx, admin.Caller(), primitive.NewObjectID().Hex(), services.TaskPatch{AssignedTo: []string{}}); !errors.Is(err, services.ErrNotFound) {
		t.Errorf("unknown task: expected ErrNotFound, got %v", err)
	}
}

func TestListTasks_ScopeAndSummary(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	admin := f.mustRegister(t, "ada", true)
	mia := f.mustRegister(t, "mia", false)
	leo := f.mustRegister(t, "leo", false)

	f.insertTask(t, models.Task{Title: "a", Status: models.StatusPending, AssignedTo: []primitive.ObjectID{mia.ID}})
	f.insertTask(t, models.Task{Title: "b", Status: models.StatusCompleted, AssignedTo: []primitive.ObjectID{mia.ID, leo.ID}})
	f.insertTask(t, models.Task{Title: "c", Status: models.StatusInProgress, AssignedTo: []primitive.ObjectID{leo.ID}})

	all, err := f.taskSvc.List(ctx, admin.Caller(), "All")
	if err != nil {
		t.Fatalf("admin list: %v", err)
	}
	want := models.StatusSummary{All: 3, PendingTasks: 1, InProgressTasks: 1, CompletedTasks: 1}
	if all.StatusSummary != want || len(all.Tasks) != 3 {
		t.Fatalf("admin list: summary %+v, %d tasks", all.StatusSummary, len(all.Tasks))
	}

	mine, err := f.taskSvc.List(ctx, mia.Caller(), "")
	if err != nil {
		t.Fatalf("member list: %v", err)
	}
	want = models.StatusSummary{All: 2, PendingTasks: 1, CompletedTasks: 1}
	if mine.StatusSummary != want || len(mine.Tasks) != 2 {
		t.Fatalf("member list: summary %+v, %d tasks", mine.StatusSummary, len(mine.Tasks))
	}

	completed, err := f.taskSvc.List(ctx, mia.Caller(), "Completed")
	if err != nil {
		t.Fatalf("filtered list: %v", err)
	}
	if len(completed.Tasks) != 1 || completed.Tasks[0].Title != "b" {
		t.Fatalf("unexpected filtered tasks %+v", completed.Tasks)
	}
	if completed.StatusSummary.All != 2 {
		t.Fatalf("summary must cover the whole scope, got %+v", completed.StatusSummary)
	}
	if len(completed.Tasks[0].AssignedTo) != 2 {
		t.Fatalf("assignees not resolved: %+v", completed.Tasks[0].AssignedTo)
	}

	if _, err := f.taskSvc.List(ctx, mia.Caller(), "Bogus"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}
