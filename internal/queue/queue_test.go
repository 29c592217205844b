package queue

import (
	"errors"
	"testing"

	"github.com/taskwright/taskwright/pkg/models"
)

func makeTasks(deps map[int][]int, n int) []*models.Task {
	tasks := make([]*models.Task, n)
	for i := 0; i < n; i++ {
		tasks[i] = &models.Task{
			ID:        string(rune('a' + i)),
			Order:     i,
			Status:    models.TaskStatusPending,
			DependsOn: deps[i],
		}
	}
	return tasks
}

func TestBuild(t *testing.T) {
	q, err := Build(makeTasks(map[int][]int{1: {0}, 2: {0, 1}}, 3))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if q.Len() != 3 {
		t.Errorf("expected 3 tasks, got %d", q.Len())
	}
}

func TestBuildRejectsForwardDependency(t *testing.T) {
	_, err := Build(makeTasks(map[int][]int{0: {1}}, 2))
	if !errors.Is(err, ErrForwardDependency) {
		t.Errorf("expected ErrForwardDependency, got %v", err)
	}
}

func TestBuildRejectsSelfDependency(t *testing.T) {
	_, err := Build(makeTasks(map[int][]int{1: {1}}, 2))
	if !errors.Is(err, ErrForwardDependency) {
		t.Errorf("expected ErrForwardDependency for self-dependency, got %v", err)
	}
}

func TestBuildRejectsUnknownOrder(t *testing.T) {
	_, err := Build(makeTasks(map[int][]int{1: {5}}, 2))
	if err == nil {
		t.Error("expected error for dependency on unknown order")
	}
}

func TestBuildRejectsDuplicateOrders(t *testing.T) {
	tasks := makeTasks(nil, 2)
	tasks[1].Order = 0
	_, err := Build(tasks)
	if !errors.Is(err, ErrSparseOrders) {
		t.Errorf("expected ErrSparseOrders, got %v", err)
	}
}

func TestBuildRejectsSparseOrders(t *testing.T) {
	tasks := makeTasks(nil, 2)
	tasks[1].Order = 3
	_, err := Build(tasks)
	if !errors.Is(err, ErrSparseOrders) {
		t.Errorf("expected ErrSparseOrders, got %v", err)
	}
}

func TestDependents(t *testing.T) {
	q, err := Build(makeTasks(map[int][]int{1: {0}, 2: {0}}, 3))
	if err != nil {
		t.Fatal(err)
	}

	deps := q.Dependents(0)
	if len(deps) != 2 {
		t.Fatalf("expected 2 dependents of order 0, got %v", deps)
	}
	if deps[0] != 1 || deps[1] != 2 {
		t.Errorf("unexpected dependents: %v", deps)
	}

	if got := q.Dependents(2); got != nil {
		t.Errorf("expected no dependents of order 2, got %v", got)
	}
}

func TestFailedDependency(t *testing.T) {
	tasks := makeTasks(map[int][]int{1: {0}}, 2)
	q, err := Build(tasks)
	if err != nil {
		t.Fatal(err)
	}

	if dep := q.FailedDependency(1); dep != nil {
		t.Errorf("expected no failed dependency yet, got order %d", dep.Order)
	}

	tasks[0].Status = models.TaskStatusFailed
	dep := q.FailedDependency(1)
	if dep == nil || dep.Order != 0 {
		t.Errorf("expected failed dependency at order 0, got %v", dep)
	}
}

func TestDependenciesCompleted(t *testing.T) {
	tasks := makeTasks(map[int][]int{2: {0, 1}}, 3)
	q, err := Build(tasks)
	if err != nil {
		t.Fatal(err)
	}

	if q.DependenciesCompleted(2) {
		t.Error("expected dependencies incomplete")
	}

	tasks[0].Status = models.TaskStatusCompleted
	tasks[1].Status = models.TaskStatusCompleted
	if !q.DependenciesCompleted(2) {
		t.Error("expected dependencies complete")
	}
}

func TestTaskOutOfRange(t *testing.T) {
	q, err := Build(makeTasks(nil, 1))
	if err != nil {
		t.Fatal(err)
	}
	if q.Task(-1) != nil || q.Task(1) != nil {
		t.Error("out-of-range order should return nil")
	}
}
