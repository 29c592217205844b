// Package queue holds a batch's tasks as a dependency-ordered queue.
package queue

import (
	"errors"
	"fmt"
	"sync"

	"github.com/taskwright/taskwright/pkg/models"
)

var (
	// ErrCycleDetected indicates a circular dependency among tasks.
	ErrCycleDetected = errors.New("circular dependency detected")
	// ErrForwardDependency indicates a task depends on a later or same order.
	ErrForwardDependency = errors.New("dependency references a later task")
	// ErrSparseOrders indicates order values are not dense from 0.
	ErrSparseOrders = errors.New("task orders must be unique and dense from 0")
)

// Queue is a dependency-aware task queue for a single batch. Construction
// validates the ordering invariants; a cycle or forward reference is a
// construction error, never discovered mid-execution.
type Queue struct {
	mu sync.RWMutex
	// tasks is indexed by order; orders are dense from 0.
	tasks []*models.Task
	// debugLog is an optional logging function.
	debugLog func(format string, args ...interface{})
}

// Build constructs a queue from the batch's tasks, validating that orders
// are unique and dense from 0, that dependencies only reference strictly
// lower orders, and that no cycle exists.
func Build(tasks []*models.Task) (*Queue, error) {
	byOrder := make([]*models.Task, len(tasks))
	for _, task := range tasks {
		if task.Order < 0 || task.Order >= len(tasks) {
			return nil, fmt.Errorf("%w: task %s has order %d of %d tasks", ErrSparseOrders, task.ID, task.Order, len(tasks))
		}
		if byOrder[task.Order] != nil {
			return nil, fmt.Errorf("%w: duplicate order %d", ErrSparseOrders, task.Order)
		}
		byOrder[task.Order] = task
	}

	for _, task := range byOrder {
		for _, dep := range task.DependsOn {
			if dep < 0 || dep >= len(byOrder) {
				return nil, fmt.Errorf("task %d depends on unknown order %d", task.Order, dep)
			}
			if dep >= task.Order {
				return nil, fmt.Errorf("%w: task %d depends on order %d", ErrForwardDependency, task.Order, dep)
			}
		}
	}

	q := &Queue{
		tasks:    byOrder,
		debugLog: func(format string, args ...interface{}) {},
	}

	// Backward-only references cannot cycle, but a checked invariant beats
	// an assumed one: run the DFS anyway.
	if q.hasCycle() {
		return nil, ErrCycleDetected
	}

	return q, nil
}

// SetDebugLog sets the debug logging function.
func (q *Queue) SetDebugLog(fn func(format string, args ...interface{})) {
	if fn != nil {
		q.debugLog = fn
	}
}

// hasCycle runs a depth-first search with coloring to detect back edges.
func (q *Queue) hasCycle() bool {
	// Color states: 0 = white (unvisited), 1 = gray (in progress), 2 = black (done).
	colors := make([]int, len(q.tasks))

	var visit func(order int) bool
	visit = func(order int) bool {
		colors[order] = 1

		for _, dep := range q.tasks[order].DependsOn {
			switch colors[dep] {
			case 1:
				return true
			case 0:
				if visit(dep) {
					return true
				}
			}
		}

		colors[order] = 2
		return false
	}

	for order := range q.tasks {
		if colors[order] == 0 {
			if visit(order) {
				return true
			}
		}
	}
	return false
}

// Len returns the number of tasks in the queue.
func (q *Queue) Len() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.tasks)
}

// Task returns the task at the given order, or nil if out of range.
func (q *Queue) Task(order int) *models.Task {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if order < 0 || order >= len(q.tasks) {
		return nil
	}
	return q.tasks[order]
}

// Tasks returns the tasks in order.
func (q *Queue) Tasks() []*models.Task {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return append([]*models.Task{}, q.tasks...)
}

// Dependencies returns the tasks the given order depends on.
func (q *Queue) Dependencies(order int) []*models.Task {
	q.mu.RLock()
	defer q.mu.RUnlock()

	task := q.tasks[order]
	deps := make([]*models.Task, 0, len(task.DependsOn))
	for _, dep := range task.DependsOn {
		deps = append(deps, q.tasks[dep])
	}
	return deps
}

// Dependents returns the orders of tasks that depend on the given order.
func (q *Queue) Dependents(order int) []int {
	q.mu.RLock()
	defer q.mu.RUnlock()

	var dependents []int
	for _, task := range q.tasks {
		if task.DependsOnOrder(order) {
			dependents = append(dependents, task.Order)
		}
	}
	return dependents
}

// FailedDependency returns the first dependency of the given order that
// ended in a terminal non-success state, or nil if there is none.
func (q *Queue) FailedDependency(order int) *models.Task {
	q.mu.RLock()
	defer q.mu.RUnlock()

	for _, dep := range q.tasks[order].DependsOn {
		depTask := q.tasks[dep]
		switch depTask.Status {
		case models.TaskStatusFailed, models.TaskStatusRejected, models.TaskStatusSkipped:
			q.debugLog("[queue.FailedDependency] task %d blocked by dep %d (status=%s)", order, dep, depTask.Status)
			return depTask
		}
	}
	return nil
}

// DependenciesCompleted returns true if every dependency of the given order
// is in the completed state.
func (q *Queue) DependenciesCompleted(order int) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	for _, dep := range q.tasks[order].DependsOn {
		if q.tasks[dep].Status != models.TaskStatusCompleted {
			return false
		}
	}
	return true
}
