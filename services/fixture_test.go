package services_test

import (
	"context"
	"testing"
	"time"

	"task-manager/backend/models"
	"task-manager/backend/services"
	"task-manager/backend/services/memstore"
	"task-manager/backend/utils"
)

const testInviteToken = "invite-123"

type fixture struct {
	users   *memstore.Users
	tasks   *memstore.Tasks
	mailer  *memstore.Mailer
	tokens  *utils.TokenManager
	auth    *services.UserService
	taskSvc *services.TaskService
	dash    *services.DashboardService
	reports *services.ReportService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		users:  memstore.NewUsers(),
		tasks:  memstore.NewTasks(),
		mailer: &memstore.Mailer{},
		tokens: utils.NewTokenManager("test-secret"),
	}
	f.auth = services.NewUserService(f.users, f.tasks, f.tokens, f.mailer, services.UserServiceConfig{
		AdminInviteToken: testInviteToken,
		ResetLinkBase:    "http://localhost:5173/",
		BlackList:        utils.PasswordBlacklist{"password123": true},
	})
	f.taskSvc = services.NewTaskService(f.tasks, f.users)
	f.dash = services.NewDashboardService(f.tasks)
	f.reports = services.NewReportService(f.users, f.tasks)
	return f
}

func (f *fixture) mustRegister(t *testing.T, username string, admin bool) models.User {
	t.Helper()
	in := services.RegisterInput{
		Username: username,
		Email:    username + "@example.com",
		Password: "s3cret-pass",
	}
	if admin {
		in.AdminInviteToken = testInviteToken
	}
	res, err := f.auth.Register(context.Background(), in)
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return res.User
}

func (f *fixture) mustCreateTask(t *testing.T, admin models.User, title string, assignees ...models.User) models.Task {
	t.Helper()
	ids := make([]string, 0, len(assignees))
	for _, a := range assignees {
		ids = append(ids, a.ID.Hex())
	}
	due := time.Now().Add(72 * time.Hour)
	task, err := f.taskSvc.Create(context.Background(), admin.Caller(), services.TaskInput{
		Title:      title,
		DueDate:    &due,
		AssignedTo: ids,
	})
	if err != nil {
		t.Fatalf("create task %s: %v", title, err)
	}
	return task
}

// insertTask stores a task directly, bypassing the service.
func (f *fixture) insertTask(t *testing.T, task models.Task) models.Task {
	t.Helper()
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now()
	}
	if err := f.tasks.Insert(context.Background(), &task); err != nil {
		t.Fatalf("insert task: %v", err)
	}
	return task
}
