package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/taskwright/taskwright/pkg/models"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	if err := db.Migrate(); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}

func TestBatchRoundTrip(t *testing.T) {
	db := openTestDB(t)

	b := &models.Batch{
		ID:          "batch-1",
		Instruction: "fix the bug and run tests",
		Safety:      models.SafetyCheck{Safe: true, Score: 1.0},
		CreatedAt:   time.Now(),
	}
	if err := db.SaveBatch(b); err != nil {
		t.Fatalf("save batch: %v", err)
	}

	got, err := db.GetBatch("batch-1")
	if err != nil {
		t.Fatalf("get batch: %v", err)
	}
	if got.Instruction != b.Instruction {
		t.Errorf("instruction = %q, want %q", got.Instruction, b.Instruction)
	}
	if !got.Safety.Safe || got.Safety.Score != 1.0 {
		t.Errorf("safety = %+v, want safe 1.0", got.Safety)
	}
}

func TestGetBatchNotFound(t *testing.T) {
	db := openTestDB(t)
	if _, err := db.GetBatch("nope"); err == nil {
		t.Error("expected error for missing batch")
	}
}

func TestTaskRoundTrip(t *testing.T) {
	db := openTestDB(t)

	task := &models.Task{
		ID:               "task-1",
		BatchID:          "batch-1",
		Order:            2,
		Type:             models.TaskTypeDeployment,
		Description:      "deploy to staging",
		RiskLevel:        models.RiskHigh,
		RequiresApproval: true,
		DependsOn:        []int{0, 1},
		RequiredInfo:     []string{"environment"},
		MissingInfo:      nil,
		Safety:           models.SafetyCheck{Safe: true, Score: 1.0},
		Status:           models.TaskStatusPending,
		CreatedAt:        time.Now(),
	}
	if err := db.SaveTask(task); err != nil {
		t.Fatalf("save task: %v", err)
	}

	got, err := db.GetTask("task-1")
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if got.Type != models.TaskTypeDeployment {
		t.Errorf("type = %q, want deployment", got.Type)
	}
	if !got.RequiresApproval {
		t.Error("expected requires_approval true")
	}
	if len(got.DependsOn) != 2 || got.DependsOn[0] != 0 || got.DependsOn[1] != 1 {
		t.Errorf("depends_on = %v, want [0 1]", got.DependsOn)
	}
	if len(got.RequiredInfo) != 1 || got.RequiredInfo[0] != "environment" {
		t.Errorf("required_info = %v", got.RequiredInfo)
	}
	if got.CompletedAt != nil {
		t.Error("expected nil completed_at")
	}
}

func TestUpdateTask(t *testing.T) {
	db := openTestDB(t)

	task := &models.Task{
		ID:        "task-1",
		BatchID:   "batch-1",
		Type:      models.TaskTypeTest,
		Status:    models.TaskStatusPending,
		CreatedAt: time.Now(),
	}
	if err := db.SaveTask(task); err != nil {
		t.Fatal(err)
	}

	now := time.Now()
	task.Status = models.TaskStatusCompleted
	task.Result = "all green"
	task.CompletedAt = &now
	if err := db.UpdateTask(task); err != nil {
		t.Fatalf("update task: %v", err)
	}

	got, err := db.GetTask("task-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != models.TaskStatusCompleted {
		t.Errorf("status = %q, want completed", got.Status)
	}
	if got.Result != "all green" {
		t.Errorf("result = %q", got.Result)
	}
	if got.CompletedAt == nil {
		t.Error("expected completed_at to be set")
	}
}

func TestUpdateTaskNotFound(t *testing.T) {
	db := openTestDB(t)
	err := db.UpdateTask(&models.Task{ID: "ghost"})
	if err == nil {
		t.Error("expected error updating missing task")
	}
}

func TestListTasksOrdered(t *testing.T) {
	db := openTestDB(t)

	for _, ord := range []int{2, 0, 1} {
		task := &models.Task{
			ID:        "task-" + string(rune('a'+ord)),
			BatchID:   "batch-1",
			Order:     ord,
			Type:      models.TaskTypeAnalysis,
			Status:    models.TaskStatusPending,
			CreatedAt: time.Now(),
		}
		if err := db.SaveTask(task); err != nil {
			t.Fatal(err)
		}
	}

	tasks, err := db.ListTasks("batch-1")
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	if len(tasks) != 3 {
		t.Fatalf("expected 3 tasks, got %d", len(tasks))
	}
	for i, task := range tasks {
		if task.Order != i {
			t.Errorf("position %d has order %d", i, task.Order)
		}
	}
}

func TestAuditAppendAndList(t *testing.T) {
	db := openTestDB(t)

	entries := []*AuditEntry{
		{SessionID: "s1", Actor: "validator", Action: "safety_check", Payload: `{"text":"x"}`, SafetyScore: 1.0},
		{SessionID: "s1", Actor: "coordinator", Action: "tool_invocation", Payload: `{"tool":"deploy"}`, SafetyScore: 0.7},
		{SessionID: "s2", Actor: "validator", Action: "safety_check", SafetyScore: 1.0},
	}
	for _, e := range entries {
		if err := db.AppendAudit(e); err != nil {
			t.Fatalf("append audit: %v", err)
		}
	}

	got, err := db.ListAudit("s1")
	if err != nil {
		t.Fatalf("list audit: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries for s1, got %d", len(got))
	}
	if got[0].Action != "safety_check" || got[1].Action != "tool_invocation" {
		t.Errorf("entries out of append order: %v, %v", got[0].Action, got[1].Action)
	}
	if got[1].SafetyScore != 0.7 {
		t.Errorf("safety score = %v, want 0.7", got[1].SafetyScore)
	}
}

func TestPatternSaveAndList(t *testing.T) {
	db := openTestDB(t)

	p := &Pattern{Name: "flaky-tests", Trigger: "tests fail intermittently", Response: "rerun with -count=3 before debugging"}
	if err := db.SavePattern(p); err != nil {
		t.Fatalf("save pattern: %v", err)
	}
	if p.ID == "" {
		t.Error("expected generated pattern id")
	}

	patterns, err := db.ListPatterns()
	if err != nil {
		t.Fatalf("list patterns: %v", err)
	}
	if len(patterns) != 1 || patterns[0].Name != "flaky-tests" {
		t.Errorf("unexpected patterns: %+v", patterns)
	}
}

func TestPatternSearchBumpsUseCount(t *testing.T) {
	db := openTestDB(t)

	if err := db.SavePattern(&Pattern{Name: "slow-deploys", Trigger: "deployment takes too long", Response: "warm the cache first"}); err != nil {
		t.Fatal(err)
	}
	if err := db.SavePattern(&Pattern{Name: "lint-noise", Trigger: "linter flags generated code", Response: "exclude the generated directory"}); err != nil {
		t.Fatal(err)
	}

	hits, err := db.SearchPatterns("deployment", 5)
	if err != nil {
		t.Fatalf("search patterns: %v", err)
	}
	if len(hits) != 1 || hits[0].Name != "slow-deploys" {
		t.Fatalf("unexpected hits: %+v", hits)
	}
	if hits[0].UseCount != 1 {
		t.Errorf("use count = %d, want 1", hits[0].UseCount)
	}

	stored, err := db.ListPatterns()
	if err != nil {
		t.Fatal(err)
	}
	if stored[0].Name != "slow-deploys" || stored[0].UseCount != 1 {
		t.Errorf("use count not persisted: %+v", stored[0])
	}
}

func TestDeletePattern(t *testing.T) {
	db := openTestDB(t)

	if err := db.SavePattern(&Pattern{Name: "doomed", Trigger: "x", Response: "y"}); err != nil {
		t.Fatal(err)
	}
	if err := db.DeletePattern("doomed"); err != nil {
		t.Fatalf("delete pattern: %v", err)
	}
	if err := db.DeletePattern("doomed"); err == nil {
		t.Error("expected error deleting missing pattern")
	}
}
