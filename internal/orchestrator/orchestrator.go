// Package orchestrator turns one instruction into a gated, dependency-ordered
// task batch and drives it through execution.
package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/taskwright/taskwright/internal/audit"
	"github.com/taskwright/taskwright/internal/completeness"
	"github.com/taskwright/taskwright/internal/gateway"
	"github.com/taskwright/taskwright/internal/parse"
	"github.com/taskwright/taskwright/internal/queue"
	"github.com/taskwright/taskwright/internal/safety"
	"github.com/taskwright/taskwright/pkg/models"
)

// Store persists batches and task records.
type Store interface {
	SaveBatch(b *models.Batch) error
	SaveTask(t *models.Task) error
	UpdateTask(t *models.Task) error
}

// Config holds orchestration policy.
type Config struct {
	// MaxTasks caps the number of tasks per instruction.
	MaxTasks int
	// RejectThreshold rejects the whole instruction when its safety score
	// falls below this value.
	RejectThreshold float64
	// FlaggedBatchRequiresApproval forces approval on every task when the
	// instruction-level screen matched a category but stayed above the
	// reject threshold.
	FlaggedBatchRequiresApproval bool
}

// DefaultConfig returns the default orchestration policy.
func DefaultConfig() Config {
	return Config{
		MaxTasks:                     parse.MaxFragments,
		RejectThreshold:              0.5,
		FlaggedBatchRequiresApproval: true,
	}
}

// RejectionError reports an instruction rejected wholesale by the safety
// screen, before any task was created.
type RejectionError struct {
	Score float64
	Flags []string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("instruction rejected: safety score %.1f, flags: %s", e.Score, strings.Join(e.Flags, ", "))
}

// Orchestrator wires the parser, gates, queue, gateway, and store together.
type Orchestrator struct {
	validator *safety.Validator
	planner   gateway.Planner
	invoker   gateway.Invoker
	store     Store
	sink      audit.Sink
	approvals *ApprovalManager
	cfg       Config
	debugLog  func(format string, args ...interface{})
}

// New creates an Orchestrator.
func New(validator *safety.Validator, planner gateway.Planner, invoker gateway.Invoker, store Store, sink audit.Sink, cfg Config) *Orchestrator {
	if cfg.MaxTasks <= 0 {
		cfg.MaxTasks = parse.MaxFragments
	}
	return &Orchestrator{
		validator: validator,
		planner:   planner,
		invoker:   invoker,
		store:     store,
		sink:      sink,
		approvals: NewApprovalManager(),
		cfg:       cfg,
		debugLog:  func(format string, args ...interface{}) {},
	}
}

// SetDebugLog sets the debug logging function.
func (o *Orchestrator) SetDebugLog(fn func(format string, args ...interface{})) {
	if fn != nil {
		o.debugLog = fn
	}
}

// Approvals returns the approval manager for out-of-band resolution.
func (o *Orchestrator) Approvals() *ApprovalManager {
	return o.approvals
}

// Intake screens the instruction, plans tasks through the gateway, gates
// each task, and persists the batch. Every task record is saved as created,
// so rejected and awaiting_info tasks are observable before execution.
func (o *Orchestrator) Intake(ctx context.Context, instruction string) (*models.Batch, *queue.Queue, error) {
	batchID := uuid.New().String()
	logger := audit.NewLogger(o.sink, batchID)

	screen := o.validator.Validate(instruction)
	if err := logger.Record("validator", audit.ActionBatchScreen, map[string]any{
		"instruction": instruction,
		"flags":       screen.FlagStrings(),
	}, screen.Score); err != nil {
		return nil, nil, err
	}
	if screen.Score < o.cfg.RejectThreshold {
		return nil, nil, &RejectionError{Score: screen.Score, Flags: screen.FlagStrings()}
	}

	fragments := parse.Parse(instruction)
	if len(fragments) == 0 {
		return nil, nil, fmt.Errorf("empty instruction")
	}
	o.debugLog("[intake] %d fragment(s) from instruction", len(fragments))

	planned, err := o.planner.Plan(ctx, instruction, fragments)
	if err != nil {
		return nil, nil, fmt.Errorf("plan tasks: %w", err)
	}
	if len(planned) > o.cfg.MaxTasks {
		planned = planned[:o.cfg.MaxTasks]
	}

	batch := &models.Batch{
		ID:          batchID,
		Instruction: instruction,
		Safety: models.SafetyCheck{
			Safe:  screen.Safe,
			Flags: screen.FlagStrings(),
			Score: screen.Score,
		},
		CreatedAt: time.Now(),
	}

	flaggedBatch := !screen.Safe && o.cfg.FlaggedBatchRequiresApproval

	for order, p := range planned {
		task, err := o.buildTask(logger, batchID, order, p, flaggedBatch)
		if err != nil {
			return nil, nil, err
		}
		batch.Tasks = append(batch.Tasks, task)
	}

	q, err := queue.Build(batch.Tasks)
	if err != nil {
		return nil, nil, fmt.Errorf("build task queue: %w", err)
	}
	q.SetDebugLog(o.debugLog)

	if err := o.store.SaveBatch(batch); err != nil {
		return nil, nil, err
	}
	for _, task := range batch.Tasks {
		if err := o.store.SaveTask(task); err != nil {
			return nil, nil, err
		}
	}

	return batch, q, nil
}

// buildTask creates one gated task from a planned proposal. The safety
// verdict is computed once here and never re-evaluated.
func (o *Orchestrator) buildTask(logger *audit.Logger, batchID string, order int, p gateway.PlannedTask, flaggedBatch bool) (*models.Task, error) {
	verdict := o.validator.Validate(p.Description)
	if err := logger.Record("validator", audit.ActionSafetyCheck, map[string]any{
		"order":       order,
		"description": p.Description,
		"flags":       verdict.FlagStrings(),
	}, verdict.Score); err != nil {
		return nil, err
	}

	report := completeness.Check(p.Type, p.Description)

	task := &models.Task{
		ID:               uuid.New().String(),
		BatchID:          batchID,
		Order:            order,
		Type:             p.Type,
		Description:      p.Description,
		RiskLevel:        p.RiskLevel,
		RequiresApproval: p.RequiresApproval || p.RiskLevel.ForcesApproval() || flaggedBatch,
		DependsOn:        p.DependsOn,
		RequiredInfo:     report.Required,
		MissingInfo:      report.Missing,
		Safety: models.SafetyCheck{
			Safe:  verdict.Safe,
			Flags: verdict.FlagStrings(),
			Score: verdict.Score,
		},
		Status:    models.TaskStatusPending,
		CreatedAt: time.Now(),
	}

	switch {
	case !verdict.Safe:
		task.ErrorMessage = "safety flags: " + strings.Join(verdict.FlagStrings(), ", ")
		if err := task.Transition(models.TaskStatusRejected); err != nil {
			return nil, err
		}
	case !report.Complete():
		if err := task.Transition(models.TaskStatusAwaitingInfo); err != nil {
			return nil, err
		}
	}

	return task, nil
}

// ResolveInfo supplements an awaiting_info task's description and re-checks
// completeness. A task that becomes complete moves to the approval gate or
// to implicit approval; it never returns to pending.
func (o *Orchestrator) ResolveInfo(batch *models.Batch, taskID, supplement string) error {
	task := findTask(batch, taskID)
	if task == nil {
		return fmt.Errorf("task %s not found", taskID)
	}
	if task.Status != models.TaskStatusAwaitingInfo {
		return fmt.Errorf("task %s is %s, not awaiting_info", taskID, task.Status)
	}

	task.Description = task.Description + "\n" + supplement
	report := completeness.Check(task.Type, task.Description)
	task.MissingInfo = report.Missing
	if !report.Complete() {
		return o.store.UpdateTask(task)
	}

	next := models.TaskStatusApproved
	if task.RequiresApproval {
		next = models.TaskStatusAwaitingApproval
	}
	if err := task.Transition(next); err != nil {
		return err
	}
	if next == models.TaskStatusAwaitingApproval {
		o.approvals.Register(ApprovalRequest{TaskID: task.ID, Order: task.Order, Description: task.Description, RiskLevel: task.RiskLevel})
	}
	return o.store.UpdateTask(task)
}

func findTask(batch *models.Batch, taskID string) *models.Task {
	for _, task := range batch.Tasks {
		if task.ID == taskID {
			return task
		}
	}
	return nil
}
