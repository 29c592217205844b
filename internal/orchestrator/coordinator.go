package orchestrator

import (
	"context"
	"fmt"

	"github.com/taskwright/taskwright/internal/audit"
	"github.com/taskwright/taskwright/internal/gateway"
	"github.com/taskwright/taskwright/internal/queue"
	"github.com/taskwright/taskwright/pkg/models"
)

// Run makes one pass over the queue in order. Each task either executes,
// halts at the approval gate, skips because a dependency ended badly, or is
// left where a gate already parked it. Run is re-entrant: call it again
// after resolving approvals or missing info to continue the batch.
func (o *Orchestrator) Run(ctx context.Context, batch *models.Batch, q *queue.Queue) error {
	logger := audit.NewLogger(o.sink, batch.ID)

	for order := 0; order < q.Len(); order++ {
		task := q.Task(order)

		if task.Status.Terminal() {
			continue
		}

		// A dead dependency cascades regardless of which gate this task is
		// parked at.
		if dead := q.FailedDependency(order); dead != nil {
			task.ErrorMessage = fmt.Sprintf("dependency %d %s", dead.Order, dead.Status)
			if err := task.Transition(models.TaskStatusSkipped); err != nil {
				return err
			}
			o.approvals.Discard(task.ID)
			if err := logger.Record("coordinator", audit.ActionTaskSkipped, map[string]any{
				"order":      order,
				"dependency": dead.Order,
				"reason":     string(dead.Status),
			}, task.Safety.Score); err != nil {
				return err
			}
			if err := o.store.UpdateTask(task); err != nil {
				return err
			}
			continue
		}

		switch task.Status {
		case models.TaskStatusAwaitingInfo, models.TaskStatusAwaitingApproval:
			// Parked at a gate; only a resolve call moves it.
			continue
		case models.TaskStatusExecuting:
			return fmt.Errorf("task %d already executing", order)
		}

		if !q.DependenciesCompleted(order) {
			// A dependency is itself halted at a gate. Leave this task
			// pending until a later pass.
			o.debugLog("[run] task %d waiting on incomplete dependencies", order)
			continue
		}

		if task.Status == models.TaskStatusPending && task.RequiresApproval {
			if err := task.Transition(models.TaskStatusAwaitingApproval); err != nil {
				return err
			}
			o.approvals.Register(ApprovalRequest{
				TaskID:      task.ID,
				Order:       task.Order,
				Description: task.Description,
				RiskLevel:   task.RiskLevel,
			})
			if err := logger.Record("coordinator", audit.ActionApprovalRequest, map[string]any{
				"order":       order,
				"description": task.Description,
				"risk_level":  string(task.RiskLevel),
			}, task.Safety.Score); err != nil {
				return err
			}
			if err := o.store.UpdateTask(task); err != nil {
				return err
			}
			continue
		}

		if task.Status == models.TaskStatusPending {
			if err := task.Transition(models.TaskStatusApproved); err != nil {
				return err
			}
		}

		if err := o.execute(ctx, logger, task); err != nil {
			return err
		}
	}

	return nil
}

// execute runs one approved task through the invoker. The tool invocation
// is audited before it happens; an audit write failure blocks the call. A
// panic in the invoker fails the task instead of tearing down the batch.
func (o *Orchestrator) execute(ctx context.Context, logger *audit.Logger, task *models.Task) error {
	if err := task.Transition(models.TaskStatusExecuting); err != nil {
		return err
	}
	if err := o.store.UpdateTask(task); err != nil {
		return err
	}

	if err := logger.Record("invoker", audit.ActionToolInvocation, map[string]any{
		"order":       task.Order,
		"type":        string(task.Type),
		"description": task.Description,
	}, task.Safety.Score); err != nil {
		return err
	}

	result, invokeErr := o.invoke(ctx, task)

	switch {
	case invokeErr != nil:
		task.ErrorMessage = invokeErr.Error()
		if err := task.Transition(models.TaskStatusFailed); err != nil {
			return err
		}
	case result.RequiresApproval:
		// The invocation itself flagged the action as needing sign-off the
		// task never got; the tool did not run.
		task.ErrorMessage = "tool invocation requires approval"
		if err := task.Transition(models.TaskStatusFailed); err != nil {
			return err
		}
	default:
		task.Result = result.Result
		if err := task.Transition(models.TaskStatusCompleted); err != nil {
			return err
		}
		if err := logger.Record("invoker", audit.ActionToolResult, result.DisplayPayload, task.Safety.Score); err != nil {
			return err
		}
	}

	return o.store.UpdateTask(task)
}

// invoke calls the invoker with panic recovery.
func (o *Orchestrator) invoke(ctx context.Context, task *models.Task) (result *gateway.ToolResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("tool handler panicked: %v", r)
		}
	}()
	return o.invoker.Invoke(ctx, task)
}

// ResolveApproval answers a pending approval request. A granted task moves
// to approved and executes immediately when its dependencies are complete;
// a denied task fails with the supplied reason. Denial does not mark the
// task rejected: rejection is reserved for the safety gate.
//
// The persisted awaiting_approval status is the source of truth, not the
// in-memory request: a batch rehydrated from the store in a later process
// resolves the same way.
func (o *Orchestrator) ResolveApproval(ctx context.Context, batch *models.Batch, q *queue.Queue, taskID string, granted bool, reason string) error {
	task := findTask(batch, taskID)
	if task == nil {
		return fmt.Errorf("task %s not found in batch", taskID)
	}
	if task.Status != models.TaskStatusAwaitingApproval {
		return fmt.Errorf("task %s is %s, not awaiting_approval", taskID, task.Status)
	}
	o.approvals.Discard(taskID)

	logger := audit.NewLogger(o.sink, batch.ID)

	if !granted {
		if err := logger.Record("approver", audit.ActionApprovalDenied, map[string]any{
			"order":  task.Order,
			"reason": reason,
		}, task.Safety.Score); err != nil {
			return err
		}
		task.ErrorMessage = "approval denied: " + reason
		if err := task.Transition(models.TaskStatusFailed); err != nil {
			return err
		}
		return o.store.UpdateTask(task)
	}

	if err := logger.Record("approver", audit.ActionApprovalGranted, map[string]any{
		"order": task.Order,
	}, task.Safety.Score); err != nil {
		return err
	}
	if err := task.Transition(models.TaskStatusApproved); err != nil {
		return err
	}
	if err := o.store.UpdateTask(task); err != nil {
		return err
	}

	if !q.DependenciesCompleted(task.Order) {
		// Execution waits for the next Run pass.
		return nil
	}
	return o.execute(ctx, logger, task)
}
