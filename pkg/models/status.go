package models

// TaskStatus represents the current state of a task.
type TaskStatus string

const (
	// TaskStatusPending indicates the task has been created but not yet gated.
	TaskStatusPending TaskStatus = "pending"
	// TaskStatusAwaitingInfo indicates the task is blocked on external clarification.
	TaskStatusAwaitingInfo TaskStatus = "awaiting_info"
	// TaskStatusAwaitingApproval indicates the task is halted at the approval gate.
	TaskStatusAwaitingApproval TaskStatus = "awaiting_approval"
	// TaskStatusApproved indicates approval was granted and the task may execute.
	TaskStatusApproved TaskStatus = "approved"
	// TaskStatusExecuting indicates the tool handler is running.
	TaskStatusExecuting TaskStatus = "executing"
	// TaskStatusCompleted indicates the task finished successfully.
	TaskStatusCompleted TaskStatus = "completed"
	// TaskStatusFailed indicates the tool handler errored or approval was denied.
	TaskStatusFailed TaskStatus = "failed"
	// TaskStatusRejected indicates the safety validator flagged the task.
	TaskStatusRejected TaskStatus = "rejected"
	// TaskStatusSkipped indicates a dependency ended in a non-success state.
	TaskStatusSkipped TaskStatus = "skipped"
)

// Valid returns true if the status is a known value.
func (s TaskStatus) Valid() bool {
	_, ok := legalTransitions[s]
	return ok
}

// Terminal returns true if no further transition is possible from this status.
func (s TaskStatus) Terminal() bool {
	switch s {
	case TaskStatusCompleted, TaskStatusFailed, TaskStatusRejected, TaskStatusSkipped:
		return true
	default:
		return false
	}
}

// legalTransitions encodes the task state machine. Statuses are monotonic:
// a task never returns to pending, and terminal statuses have no exits.
var legalTransitions = map[TaskStatus][]TaskStatus{
	TaskStatusPending: {
		TaskStatusAwaitingInfo,
		TaskStatusRejected,
		TaskStatusAwaitingApproval,
		TaskStatusApproved,
		TaskStatusExecuting,
		TaskStatusSkipped,
	},
	TaskStatusAwaitingInfo: {
		TaskStatusAwaitingApproval,
		TaskStatusApproved,
		TaskStatusExecuting,
		TaskStatusRejected,
		TaskStatusSkipped,
	},
	TaskStatusAwaitingApproval: {
		TaskStatusApproved,
		TaskStatusFailed,
		TaskStatusSkipped,
	},
	TaskStatusApproved: {
		TaskStatusExecuting,
		TaskStatusSkipped,
	},
	TaskStatusExecuting: {
		TaskStatusCompleted,
		TaskStatusFailed,
	},
	TaskStatusCompleted: nil,
	TaskStatusFailed:    nil,
	TaskStatusRejected:  nil,
	TaskStatusSkipped:   nil,
}

// CanTransition returns true if moving from s to next is a legal transition.
func (s TaskStatus) CanTransition(next TaskStatus) bool {
	for _, allowed := range legalTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
