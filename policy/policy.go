// Package policy decides whether a caller may perform an action. It never touches
// storage: callers resolve ownership first and pass it in.
package policy

import "task-manager/backend/models"

type Action int

const (
	TaskCreate Action = iota
	TaskList
	TaskRead
	TaskUpdateStatus
	TaskUpdateChecklist
	TaskEdit
	TaskDelete
	DashboardRead
	UserList
	UserRead
	UserDelete
	ReportExport
)

var actionNames = map[Action]string{
	TaskCreate:          "create task",
	TaskList:            "list tasks",
	TaskRead:            "read task",
	TaskUpdateStatus:    "update task status",
	TaskUpdateChecklist: "update task checklist",
	TaskEdit:            "edit task",
	TaskDelete:          "delete task",
	DashboardRead:       "read dashboard",
	UserList:            "list users",
	UserRead:            "read user",
	UserDelete:          "delete user",
	ReportExport:        "export report",
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return "unknown action"
}

type Verdict int

const (
	Forbidden Verdict = iota
	Authorized
)

func (v Verdict) Allowed() bool {
	return v == Authorized
}

// Decide returns the verdict for caller performing action. assigned reports whether
// the caller is in the target task's assignedTo set; it is ignored for actions that
// do not target a task.
func Decide(caller models.Caller, action Action, assigned bool) Verdict {
	switch caller.Role {
	case models.RoleAdmin:
		return Authorized
	case models.RoleMember:
		return decideMember(action, assigned)
	default:
		return Forbidden
	}
}

func decideMember(action Action, assigned bool) Verdict {
	switch action {
	case TaskRead, TaskUpdateStatus, TaskUpdateChecklist:
		if assigned {
			return Authorized
		}
		return Forbidden
	case TaskList, DashboardRead, UserRead:
		// reads that are scoped to the caller by the service
		return Authorized
	default:
		return Forbidden
	}
}
