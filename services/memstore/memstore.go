// Package memstore provides in-memory implementations of the service store ports
// for tests. It is shared by several test packages and is not wired into main.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"task-manager/backend/models"
	"task-manager/backend/services"
)

type Users struct {
	mu    sync.Mutex
	items map[primitive.ObjectID]models.User
}

func NewUsers() *Users {
	return &Users{items: make(map[primitive.ObjectID]models.User)}
}

func (s *Users) Insert(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.items {
		if u.Email == user.Email || u.Username == user.Username {
			return services.ErrConflict
		}
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	s.items[user.ID] = *user
	return nil
}

func (s *Users) FindByID(_ context.Context, id primitive.ObjectID) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.items[id]
	if !ok {
		return models.User{}, services.ErrNotFound
	}
	return u, nil
}

func (s *Users) findOne(match func(models.User) bool) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.items {
		if match(u) {
			return u, nil
		}
	}
	return models.User{}, services.ErrNotFound
}

func (s *Users) FindByEmail(_ context.Context, email string) (models.User, error) {
	return s.findOne(func(u models.User) bool { return u.Email == email })
}

func (s *Users) FindByUsername(_ context.Context, username string) (models.User, error) {
	return s.findOne(func(u models.User) bool { return u.Username == username })
}

func (s *Users) FindByIdentifier(_ context.Context, identifier string) (models.User, error) {
	email := strings.ToLower(identifier)
	return s.findOne(func(u models.User) bool { return u.Username == identifier || u.Email == email })
}

func (s *Users) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := s.items[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *Users) FindByRole(_ context.Context, role models.Role) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.User
	for _, u := range s.items {
		if u.Role == role {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (s *Users) UpdatePassword(_ context.Context, id primitive.ObjectID, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.items[id]
	if !ok {
		return services.ErrNotFound
	}
	u.Password = hash
	s.items[id] = u
	return nil
}

func (s *Users) Delete(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return services.ErrNotFound
	}
	delete(s.items, id)
	return nil
}

type Tasks struct {
	mu    sync.Mutex
	items map[primitive.ObjectID]models.Task
}

func NewTasks() *Tasks {
	return &Tasks{items: make(map[primitive.ObjectID]models.Task)}
}

func Matches(t models.Task, f models.TaskFilter) bool {
	if f.AssignedTo != nil && !t.IsAssigned(*f.AssignedTo) {
		return false
	}
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.ExcludeStatus != "" && t.Status == f.ExcludeStatus {
		return false
	}
	if f.DueBefore != nil && !t.DueDate.Before(*f.DueBefore) {
		return false
	}
	return true
}

func cloneTask(t models.Task) models.Task {
	t.AssignedTo = append([]primitive.ObjectID(nil), t.AssignedTo...)
	t.Attachments = append([]string(nil), t.Attachments...)
	t.Checklist = append([]models.ChecklistItem(nil), t.Checklist...)
	return t
}

func (s *Tasks) Insert(_ context.Context, task *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if task.ID.IsZero() {
		task.ID = primitive.NewObjectID()
	}
	s.items[task.ID] = cloneTask(*task)
	return nil
}

func (s *Tasks) FindByID(_ context.Context, id primitive.ObjectID) (models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.items[id]
	if !ok {
		return models.Task{}, services.ErrNotFound
	}
	return cloneTask(t), nil
}

// Find returns matching tasks newest first.
func (s *Tasks) Find(_ context.Context, filter models.TaskFilter) ([]models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Task
	for _, t := range s.items {
		if Matches(t, filter) {
			out = append(out, cloneTask(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Tasks) Recent(ctx context.Context, filter models.TaskFilter, limit int) ([]models.Task, error) {
	out, err := s.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Tasks) Count(_ context.Context, filter models.TaskFilter) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, t := range s.items {
		if Matches(t, filter) {
			n++
		}
	}
	return n, nil
}

func (s *Tasks) CountByField(_ context.Context, field string, filter models.TaskFilter) (map[string]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int64)
	for _, t := range s.items {
		if !Matches(t, filter) {
			continue
		}
		switch field {
		case "status":
			out[string(t.Status)]++
		case "priority":
			out[string(t.Priority)]++
		}
	}
	return out, nil
}

func (s *Tasks) Replace(_ context.Context, task *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[task.ID]; !ok {
		return services.ErrNotFound
	}
	s.items[task.ID] = cloneTask(*task)
	return nil
}

func (s *Tasks) Delete(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return services.ErrNotFound
	}
	delete(s.items, id)
	return nil
}

func (s *Tasks) PullAssignee(_ context.Context, userID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.items {
		kept := t.AssignedTo[:0:0]
		for _, a := range t.AssignedTo {
			if a != userID {
				kept = append(kept, a)
			}
		}
		t.AssignedTo = kept
		s.items[id] = t
	}
	return nil
}

// Mail is one message captured by Mailer.
type Mail struct {
	To, Subject, Body string
}

// Mailer records sent messages. Err, when set, is returned from every Send.
type Mailer struct {
	mu   sync.Mutex
	Sent []Mail
	Err  error
}

func (m *Mailer) Send(to, subject, htmlBody string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Sent = append(m.Sent, Mail{To: to, Subject: subject, Body: htmlBody})
	return nil
}

func (m *Mailer) Last() (Mail, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Sent) == 0 {
		return Mail{}, false
	}
	return m.Sent[len(m.Sent)-1], true
}
