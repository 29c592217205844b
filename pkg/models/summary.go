package models

// TaskReport is the per-task line item of a batch summary.
type TaskReport struct {
	// Order is the task's position within the batch.
	Order int `json:"order"`
	// Type is the task category.
	Type TaskType `json:"type"`
	// Description is the task's statement of intent.
	Description string `json:"description"`
	// Status is the task's status when the summary was produced.
	Status TaskStatus `json:"status"`
	// Reason explains a rejection, skip, or failure, if applicable.
	Reason string `json:"reason,omitempty"`
	// Result holds the tool handler output for completed tasks.
	Result string `json:"result,omitempty"`
}

// Summary is the batch-level result contract. Consumers (chat transcript,
// approval UI) rely on this structure and must not inspect queue state
// directly.
type Summary struct {
	// BatchID identifies the summarized batch.
	BatchID string `json:"batch_id"`
	// Total is the number of tasks in the batch.
	Total int `json:"total"`
	// Safe counts tasks whose safety check passed.
	Safe int `json:"safe"`
	// Unsafe counts tasks whose safety check flagged them.
	Unsafe int `json:"unsafe"`
	// NeedingInfo counts tasks blocked on missing information.
	NeedingInfo int `json:"needing_info"`
	// ReadyToExecute counts tasks that passed both gates.
	ReadyToExecute int `json:"ready_to_execute"`
	// Completed counts tasks that finished successfully.
	Completed int `json:"completed"`
	// Failed counts tasks whose handler errored or approval was denied.
	Failed int `json:"failed"`
	// Skipped counts tasks dropped because a dependency did not succeed.
	Skipped int `json:"skipped"`
	// AwaitingApproval counts tasks halted at the approval gate.
	AwaitingApproval int `json:"awaiting_approval"`
	// Tasks holds the per-task reports ordered by Order.
	Tasks []TaskReport `json:"tasks"`
}
