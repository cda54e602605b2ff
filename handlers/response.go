package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"task-manager/backend/logging"
	"task-manager/backend/middleware"
	"task-manager/backend/models"
	"task-manager/backend/services"
)

const serverErrorMessage = "Server error."

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Logger.Errorf("Event ID: RESPONSE_ENCODE_FAILED, Description: Failed to encode response: %v", err)
	}
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

var errorStatuses = []struct {
	err    error
	status int
}{
	{services.ErrValidation, http.StatusBadRequest},
	{services.ErrExpired, http.StatusBadRequest},
	{services.ErrConflict, http.StatusConflict},
	{services.ErrUnauthorized, http.StatusUnauthorized},
	{services.ErrForbidden, http.StatusForbidden},
	{services.ErrNotFound, http.StatusNotFound},
}

// writeError maps a service error to its status code. Unclassified errors are
// logged and answered with a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			writeMessage(w, e.status, publicMessage(err, e.err))
			return
		}
	}
	logging.Logger.Errorf("Event ID: REQUEST_FAILED, Description: %s %s failed: %v", r.Method, r.URL.Path, err)
	writeMessage(w, http.StatusInternalServerError, serverErrorMessage)
}

// publicMessage returns the detail that follows the sentinel in err's text.
func publicMessage(err, sentinel error) string {
	if _, detail, ok := strings.Cut(err.Error(), sentinel.Error()+": "); ok && detail != "" {
		return detail
	}
	return sentinel.Error()
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

func callerOrAbort(w http.ResponseWriter, r *http.Request) (models.Caller, bool) {
	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Not authorized, no token")
	}
	return caller, ok
}

// dateValue accepts RFC 3339 timestamps as well as plain YYYY-MM-DD dates.
type dateValue struct {
	time.Time
}

func (d *dateValue) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		d.Time = time.Time{}
		return nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		d.Time = t
		return nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

func (d *dateValue) ptr() *time.Time {
	if d == nil || d.IsZero() {
		return nil
	}
	t := d.Time
	return &t
}
