package types

// TaskStatus is the lifecycle state of a Task.
type TaskStatus string

// Task status constants.
const (
	// TaskPending indicates the task has been created but not started.
	TaskPending TaskStatus = "pending"

	// TaskInProgress indicates the task is actively being worked on.
	TaskInProgress TaskStatus = "in_progress"

	// TaskDone indicates the task finished successfully. Terminal.
	TaskDone TaskStatus = "done"

	// TaskCancelled indicates the task was abandoned. Terminal.
	TaskCancelled TaskStatus = "cancelled"
)

// ValidTaskStatuses lists all valid task statuses for validation.
var ValidTaskStatuses = []TaskStatus{
	TaskPending,
	TaskInProgress,
	TaskDone,
	TaskCancelled,
}

// taskTransitions encodes the allowed status transitions:
// pending -> in_progress -> done, with cancelled reachable from pending or
// in_progress. done and cancelled are terminal.
var taskTransitions = map[TaskStatus][]TaskStatus{
	TaskPending:    {TaskInProgress, TaskCancelled},
	TaskInProgress: {TaskDone, TaskCancelled},
	TaskDone:       {},
	TaskCancelled:  {},
}

// IsValidTaskStatus checks if the given status is a known task status.
func IsValidTaskStatus(status TaskStatus) bool {
	for _, s := range ValidTaskStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// CanTransition reports whether a task may move from one status to another.
// Self-transitions are not allowed; every update must change the status.
func CanTransition(from, to TaskStatus) bool {
	for _, next := range taskTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
