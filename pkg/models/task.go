package models

import (
	"fmt"
	"time"
)

// TaskType is the closed set of task categories. The type determines which
// completeness rules and which tool handler apply.
type TaskType string

const (
	TaskTypeCodeFix          TaskType = "code-fix"
	TaskTypeDeployment       TaskType = "deployment"
	TaskTypeVersionControl   TaskType = "version-control-operation"
	TaskTypeFileOperation    TaskType = "file-operation"
	TaskTypeDataStore        TaskType = "data-store-operation"
	TaskTypePersonnelRequest TaskType = "personnel-request"
	TaskTypeNavigation       TaskType = "navigation"
	TaskTypeTraining         TaskType = "training"
	TaskTypeAnalysis         TaskType = "analysis"
	TaskTypeTest             TaskType = "test"
	TaskTypeInfoLookup       TaskType = "information-lookup"
	TaskTypeProfileLookup    TaskType = "profile-lookup"
	TaskTypeCalculation      TaskType = "calculation"
)

// AllTaskTypes lists every known task type.
var AllTaskTypes = []TaskType{
	TaskTypeCodeFix,
	TaskTypeDeployment,
	TaskTypeVersionControl,
	TaskTypeFileOperation,
	TaskTypeDataStore,
	TaskTypePersonnelRequest,
	TaskTypeNavigation,
	TaskTypeTraining,
	TaskTypeAnalysis,
	TaskTypeTest,
	TaskTypeInfoLookup,
	TaskTypeProfileLookup,
	TaskTypeCalculation,
}

// Valid returns true if the task type is a known value.
func (t TaskType) Valid() bool {
	for _, known := range AllTaskTypes {
		if t == known {
			return true
		}
	}
	return false
}

// RiskLevel classifies how risky a task is, as supplied by the task source.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// Valid returns true if the risk level is a known value.
func (r RiskLevel) Valid() bool {
	switch r {
	case RiskLow, RiskMedium, RiskHigh, RiskCritical:
		return true
	default:
		return false
	}
}

// ForcesApproval returns true if tasks at this risk level always require
// human approval before executing.
func (r RiskLevel) ForcesApproval() bool {
	return r == RiskHigh || r == RiskCritical
}

// SafetyCheck is the validator's verdict for a task description. It is
// computed once at task creation and never re-evaluated.
type SafetyCheck struct {
	// Safe is true iff no harmful-pattern category matched.
	Safe bool `json:"safe"`
	// Flags lists the matched category names.
	Flags []string `json:"flags,omitempty"`
	// Score starts at 1.0 and drops by a fixed penalty per matched category.
	Score float64 `json:"score"`
}

// Task represents one unit of intended work derived from a user instruction.
type Task struct {
	// ID is the unique identifier for this task, assigned at creation.
	ID string `json:"id"`
	// BatchID identifies the batch this task was parsed into.
	BatchID string `json:"batch_id"`
	// Order is the task's position within its batch. Dependencies reference
	// order values, not IDs.
	Order int `json:"order"`
	// Type is the task category.
	Type TaskType `json:"type"`
	// Description is the free-text statement of intent.
	Description string `json:"description"`
	// RiskLevel is supplied by the task source and only derives RequiresApproval.
	RiskLevel RiskLevel `json:"risk_level"`
	// RequiresApproval is true if explicitly requested or the risk level forces it.
	RequiresApproval bool `json:"requires_approval"`
	// DependsOn lists order values that must complete before this task starts.
	DependsOn []int `json:"depends_on,omitempty"`
	// RequiredInfo lists the fact names the task type demands.
	RequiredInfo []string `json:"required_info,omitempty"`
	// MissingInfo is the subset of RequiredInfo absent from Description.
	MissingInfo []string `json:"missing_info,omitempty"`
	// Safety is the validator's verdict, fixed at creation.
	Safety SafetyCheck `json:"safety_check"`
	// Status is the current state; mutate only through Transition.
	Status TaskStatus `json:"status"`
	// Result holds the tool handler output on completion.
	Result string `json:"result,omitempty"`
	// ErrorMessage holds the failure or skip reason on terminal non-success.
	ErrorMessage string `json:"error_message,omitempty"`
	// CreatedAt is when the task was created.
	CreatedAt time.Time `json:"created_at"`
	// CompletedAt is when the task reached a terminal status, if it has.
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Transition moves the task to the given status, enforcing the legal
// transition table. Reaching a terminal status stamps CompletedAt.
func (t *Task) Transition(next TaskStatus) error {
	if !next.Valid() {
		return fmt.Errorf("task %s: unknown status %q", t.ID, next)
	}
	if !t.Status.CanTransition(next) {
		return fmt.Errorf("task %s: illegal transition %s -> %s", t.ID, t.Status, next)
	}
	t.Status = next
	if next.Terminal() {
		now := time.Now()
		t.CompletedAt = &now
	}
	return nil
}

// DependsOnOrder returns true if the task declares a dependency on the
// given order value.
func (t *Task) DependsOnOrder(order int) bool {
	for _, dep := range t.DependsOn {
		if dep == order {
			return true
		}
	}
	return false
}

// Batch is the full set of tasks parsed from one instruction.
type Batch struct {
	// ID is the unique identifier for this batch.
	ID string `json:"id"`
	// Instruction is the original natural-language input.
	Instruction string `json:"instruction"`
	// Safety is the instruction-level screening verdict.
	Safety SafetyCheck `json:"safety_check"`
	// Tasks holds the batch's tasks ordered by Order.
	Tasks []*Task `json:"tasks"`
	// CreatedAt is when the batch was created.
	CreatedAt time.Time `json:"created_at"`
}

// Task returns the task with the given order, or nil if out of range.
func (b *Batch) Task(order int) *Task {
	if order < 0 || order >= len(b.Tasks) {
		return nil
	}
	return b.Tasks[order]
}
