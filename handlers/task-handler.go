package handlers

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"task-manager/backend/models"
	"task-manager/backend/services"
)

// TaskRequest is the body of task create and edit requests. AssignedTo is a pointer
// so that an omitted field can be told apart from an empty list.
type TaskRequest struct {
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	Priority    models.Priority        `json:"priority"`
	DueDate     *dateValue             `json:"dueDate"`
	AssignedTo  *[]string              `json:"assignedTo"`
	Attachments []string               `json:"attachments"`
	Checklist   []models.ChecklistItem `json:"todoChecklist"`
}

func (req TaskRequest) assignees() []string {
	if req.AssignedTo == nil {
		return nil
	}
	if *req.AssignedTo == nil {
		return []string{}
	}
	return *req.AssignedTo
}

type StatusRequest struct {
	Status models.TaskStatus `json:"status"`
}

// ChecklistRequest must carry todoChecklist; an empty array clears it.
type ChecklistRequest struct {
	Checklist *[]models.ChecklistItem `json:"todoChecklist"`
}

var errChecklistRequired = fmt.Errorf("%w: todoChecklist must be an array", services.ErrValidation)

type TaskHandler struct {
	tasks      *services.TaskService
	dashboards *services.DashboardService
}

func NewTaskHandler(tasks *services.TaskService, dashboards *services.DashboardService) *TaskHandler {
	return &TaskHandler{tasks: tasks, dashboards: dashboards}
}

func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrAbort(w, r)
	if !ok {
		return
	}
	var req TaskRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	task, err := h.tasks.Create(r.Context(), caller, services.TaskInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		DueDate:     req.DueDate.ptr(),
		AssignedTo:  req.assignees(),
		Attachments: req.Attachments,
		Checklist:   req.Checklist,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Task created successfully",
		"task":    task,
	})
}

func (h *TaskHandler) GetTasks(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrAbort(w, r)
	if !ok {
		return
	}
	list, err := h.tasks.List(r.Context(), caller, r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrAbort(w, r)
	if !ok {
		return
	}
	task, err := h.tasks.Get(r.Context(), caller, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrAbort(w, r)
	if !ok {
		return
	}
	var req TaskRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	task, err := h.tasks.UpdateFields(r.Context(), caller, mux.Vars(r)["id"], services.TaskPatch{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		DueDate:     req.DueDate.ptr(),
		AssignedTo:  req.assignees(),
		Attachments: req.Attachments,
		Checklist:   req.Checklist,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Task updated successfully",
		"task":    task,
	})
}

func (h *TaskHandler) UpdateTaskStatus(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrAbort(w, r)
	if !ok {
		return
	}
	var req StatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	task, err := h.tasks.SetStatus(r.Context(), caller, mux.Vars(r)["id"], req.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Task status updated",
		"task":    task,
	})
}

func (h *TaskHandler) UpdateTaskChecklist(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrAbort(w, r)
	if !ok {
		return
	}
	var req ChecklistRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Checklist == nil {
		writeError(w, r, errChecklistRequired)
		return
	}

	task, err := h.tasks.SetChecklist(r.Context(), caller, mux.Vars(r)["id"], *req.Checklist)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Task checklist updated",
		"task":    task,
	})
}

func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrAbort(w, r)
	if !ok {
		return
	}
	if err := h.tasks.Delete(r.Context(), caller, mux.Vars(r)["id"]); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Task deleted successfully")
}

func (h *TaskHandler) GetDashboardData(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrAbort(w, r)
	if !ok {
		return
	}
	summary, err := h.dashboards.Dashboard(r.Context(), caller)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *TaskHandler) GetUserDashboardData(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrAbort(w, r)
	if !ok {
		return
	}
	summary, err := h.dashboards.UserDashboard(r.Context(), caller)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
