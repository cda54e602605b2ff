// Package export renders report rows as Excel workbooks.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"task-manager/backend/models"
)

// ContentType is the MIME type of the workbooks written here.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	TasksSheet = "Tasks Report"
	UsersSheet = "Users Report"

	dueDateLayout = "2006-01-02"
)

type column struct {
	header string
	width  float64
}

var taskColumns = []column{
	{"Title", 30},
	{"Description", 50},
	{"Priority", 15},
	{"Status", 20},
	{"Due Date", 20},
	{"Assigned To", 50},
}

var userColumns = []column{
	{"Username", 20},
	{"Email", 40},
	{"TotalTasks", 20},
	{"PendingTasks", 20},
	{"InProgressTasks", 20},
	{"CompletedTasks", 20},
}

func WriteTasksReport(w io.Writer, rows []models.TaskReportRow) error {
	values := make([][]interface{}, 0, len(rows))
	for _, r := range rows {
		values = append(values, []interface{}{
			r.Title,
			r.Description,
			string(r.Priority),
			string(r.Status),
			r.DueDate.Format(dueDateLayout),
			r.AssignedTo,
		})
	}
	return writeSheet(w, TasksSheet, taskColumns, values)
}

func WriteUsersReport(w io.Writer, rows []models.UserTaskReport) error {
	values := make([][]interface{}, 0, len(rows))
	for _, r := range rows {
		values = append(values, []interface{}{
			r.Username,
			r.Email,
			r.TotalTasks,
			r.PendingTasks,
			r.InProgressTasks,
			r.CompletedTasks,
		})
	}
	return writeSheet(w, UsersSheet, userColumns, values)
}

func writeSheet(w io.Writer, sheet string, cols []column, rows [][]interface{}) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]interface{}, len(cols))
	for i, c := range cols {
		header[i] = c.header
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, name, name, c.width); err != nil {
			return fmt.Errorf("failed to size column %s: %w", name, err)
		}
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(cols), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, bold); err != nil {
		return err
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := row
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
