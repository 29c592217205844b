package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/taskwright/taskwright/internal/config"
	"github.com/taskwright/taskwright/internal/gateway"
	"github.com/taskwright/taskwright/internal/orchestrator"
	"github.com/taskwright/taskwright/internal/queue"
	"github.com/taskwright/taskwright/internal/safety"
	"github.com/taskwright/taskwright/pkg/models"
)

var (
	approveDeny   bool
	approveReason string
)

var approveCmd = &cobra.Command{
	Use:   "approve <batch-id> <order|task-id>",
	Short: "Approve or deny a halted task",
	Long: `Deliver the approval decision for a task halted at the approval gate.

The batch is loaded from the store, so approval works from a different
process than the run that halted: a granted task executes immediately
(dependencies permitting) and its dependents advance; a denied task
fails with the given reason and its dependents are skipped.

The task may be named by its order number within the batch or by its id.

Examples:
  taskwright approve 4f1c... 0
  taskwright approve 4f1c... 0 --deny --reason "not during the freeze"`,
	Args: cobra.ExactArgs(2),
	RunE: runApprove,
}

func init() {
	approveCmd.Flags().BoolVar(&approveDeny, "deny", false, "Deny instead of approving")
	approveCmd.Flags().StringVar(&approveReason, "reason", "", "Reason recorded with a denial")
}

func runApprove(cmd *cobra.Command, args []string) error {
	batchID := args[0]

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	batch, err := db.GetBatch(batchID)
	if err != nil {
		return err
	}
	batch.Tasks, err = db.ListTasks(batchID)
	if err != nil {
		return err
	}

	task, err := findBatchTask(batch, args[1])
	if err != nil {
		return err
	}
	if task.Status != models.TaskStatusAwaitingApproval {
		return fmt.Errorf("task %d is %s, not awaiting_approval", task.Order, task.Status)
	}

	q, err := queue.Build(batch.Tasks)
	if err != nil {
		return fmt.Errorf("rebuild task queue: %w", err)
	}

	ruleset, err := newRuleset(cfg)
	if err != nil {
		return err
	}
	client, err := newGatewayClient(cfg)
	if err != nil {
		return err
	}
	gw := gateway.NewAnthropic(client, gateway.NewToolExecutor(db), cfg.Limits.MaxTasks)

	o := orchestrator.New(safety.NewValidator(ruleset), gw, gw, db, db, orchestrator.Config{
		MaxTasks:                     cfg.Limits.MaxTasks,
		RejectThreshold:              cfg.Policy.RejectThreshold,
		FlaggedBatchRequiresApproval: cfg.Policy.FlaggedBatchRequiresApproval,
	})

	ctx := context.Background()

	granted := !approveDeny
	reason := approveReason
	if !granted && reason == "" {
		reason = "denied by operator"
	}

	if err := o.ResolveApproval(ctx, batch, q, task.ID, granted, reason); err != nil {
		return err
	}

	// Advance whatever the decision unblocked: dependents of a granted
	// task, skip cascades of a denied one.
	if err := o.Run(ctx, batch, q); err != nil {
		return err
	}

	printSummary(orchestrator.BuildSummary(batch))
	return nil
}

// findBatchTask resolves a task by order number or by id.
func findBatchTask(batch *models.Batch, selector string) (*models.Task, error) {
	if order, err := strconv.Atoi(selector); err == nil {
		task := batch.Task(order)
		if task == nil {
			return nil, fmt.Errorf("batch has no task with order %d", order)
		}
		return task, nil
	}
	for _, task := range batch.Tasks {
		if task.ID == selector {
			return task, nil
		}
	}
	return nil, fmt.Errorf("task %s not found in batch", selector)
}
