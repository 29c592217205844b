package gateway

import (
	"encoding/json"
	"testing"

	"github.com/taskwright/taskwright/pkg/models"
)

func TestParsePlan(t *testing.T) {
	input := json.RawMessage(`{"tasks": [
		{"type": "code-fix", "description": "Fix the login bug in auth.ts", "risk_level": "low"},
		{"type": "deployment", "description": "Deploy to staging", "risk_level": "high", "depends_on": [0]}
	]}`)

	planned, err := ParsePlan(input, 10)
	if err != nil {
		t.Fatalf("ParsePlan: %v", err)
	}
	if len(planned) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(planned))
	}
	if planned[0].Type != models.TaskTypeCodeFix {
		t.Errorf("task 0 type = %s", planned[0].Type)
	}
	if planned[1].RiskLevel != models.RiskHigh {
		t.Errorf("task 1 risk = %s", planned[1].RiskLevel)
	}
	if len(planned[1].DependsOn) != 1 || planned[1].DependsOn[0] != 0 {
		t.Errorf("task 1 depends_on = %v", planned[1].DependsOn)
	}
}

func TestParsePlanCapsTasks(t *testing.T) {
	payload := planPayload{}
	for i := 0; i < 15; i++ {
		payload.Tasks = append(payload.Tasks, struct {
			Type             string `json:"type"`
			Description      string `json:"description"`
			RiskLevel        string `json:"risk_level"`
			DependsOn        []int  `json:"depends_on"`
			RequiresApproval bool   `json:"requires_approval"`
		}{Type: "analysis", Description: "look at things", RiskLevel: "low"})
	}
	input, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}

	planned, err := ParsePlan(input, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(planned) != 10 {
		t.Errorf("expected cap at 10, got %d", len(planned))
	}
}

func TestParsePlanUnknownTypeAndRisk(t *testing.T) {
	input := json.RawMessage(`{"tasks": [
		{"type": "wizardry", "description": "do magic", "risk_level": "apocalyptic"}
	]}`)

	planned, err := ParsePlan(input, 10)
	if err != nil {
		t.Fatal(err)
	}
	if planned[0].Type != models.TaskTypeAnalysis {
		t.Errorf("unknown type should fall back to analysis, got %s", planned[0].Type)
	}
	if planned[0].RiskLevel != models.RiskLow {
		t.Errorf("unknown risk should fall back to low, got %s", planned[0].RiskLevel)
	}
}

func TestParsePlanEmpty(t *testing.T) {
	if _, err := ParsePlan(json.RawMessage(`{"tasks": []}`), 10); err == nil {
		t.Error("expected error for empty task list")
	}
	if _, err := ParsePlan(json.RawMessage(`not json`), 10); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestClassifyFragment(t *testing.T) {
	tests := []struct {
		fragment string
		want     models.TaskType
	}{
		{"deploy the update to staging", models.TaskTypeDeployment},
		{"fix the login bug in auth.ts", models.TaskTypeCodeFix},
		{"run the integration tests", models.TaskTypeTest},
		{"merge the feature branch", models.TaskTypeVersionControl},
		{"compute 17 * 3", models.TaskTypeCalculation},
		{"look up the retry policy", models.TaskTypeInfoLookup},
		{"summarize quarterly metrics", models.TaskTypeAnalysis},
	}
	for _, tt := range tests {
		if got := ClassifyFragment(tt.fragment); got != tt.want {
			t.Errorf("ClassifyFragment(%q) = %s, want %s", tt.fragment, got, tt.want)
		}
	}
}

func TestFallbackPlan(t *testing.T) {
	planned := FallbackPlan([]string{
		"fix the login bug in auth.ts",
		"deploy it to staging",
	})

	if len(planned) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(planned))
	}
	if planned[0].Type != models.TaskTypeCodeFix {
		t.Errorf("task 0 type = %s", planned[0].Type)
	}
	if planned[1].Type != models.TaskTypeDeployment {
		t.Errorf("task 1 type = %s", planned[1].Type)
	}
	if len(planned[1].DependsOn) != 1 || planned[1].DependsOn[0] != 0 {
		t.Errorf("deployment should depend on the preceding task, got %v", planned[1].DependsOn)
	}
}

func TestSpecRegistryCoversAllTypes(t *testing.T) {
	for _, taskType := range models.AllTaskTypes {
		if _, ok := Spec(taskType); !ok {
			t.Errorf("no tool spec for task type %s", taskType)
		}
	}
}
