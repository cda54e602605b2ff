package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"task-manager/backend/services"
)

type UserHandler struct {
	users   *services.UserService
	reports *services.ReportService
}

func NewUserHandler(users *services.UserService, reports *services.ReportService) *UserHandler {
	return &UserHandler{users: users, reports: reports}
}

// GetUsers lists members with their task counts.
func (h *UserHandler) GetUsers(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrAbort(w, r)
	if !ok {
		return
	}
	members, err := h.reports.MemberWorkloads(r.Context(), caller)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, members)
}

func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrAbort(w, r)
	if !ok {
		return
	}
	user, err := h.users.GetUser(r.Context(), caller, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrAbort(w, r)
	if !ok {
		return
	}
	if err := h.users.DeleteUser(r.Context(), caller, mux.Vars(r)["id"]); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "User deleted successfully")
}
