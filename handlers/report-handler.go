package handlers

import (
	"bytes"
	"fmt"
	"net/http"

	"task-manager/backend/export"
	"task-manager/backend/logging"
	"task-manager/backend/services"
)

type ReportHandler struct {
	reports *services.ReportService
}

func NewReportHandler(reports *services.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

func (h *ReportHandler) ExportTasksReport(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrAbort(w, r)
	if !ok {
		return
	}
	rows, err := h.reports.TasksReport(r.Context(), caller)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteTasksReport(&buf, rows); err != nil {
		writeError(w, r, err)
		return
	}
	writeWorkbook(w, "tasks_report.xlsx", &buf)
}

func (h *ReportHandler) ExportUsersReport(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrAbort(w, r)
	if !ok {
		return
	}
	rows, err := h.reports.UsersReport(r.Context(), caller)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteUsersReport(&buf, rows); err != nil {
		writeError(w, r, err)
		return
	}
	writeWorkbook(w, "users_report.xlsx", &buf)
}

func writeWorkbook(w http.ResponseWriter, filename string, buf *bytes.Buffer) {
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	w.Header().Set("Content-Length", fmt.Sprint(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		logging.Logger.Warnf("Event ID: REPORT_WRITE_FAILED, Description: Failed to stream %s: %v", filename, err)
	}
}
