package gateway

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/taskwright/taskwright/internal/store"
)

type fakeSearcher struct {
	hits []*store.Pattern
	err  error
}

func (f *fakeSearcher) SearchPatterns(query string, limit int) ([]*store.Pattern, error) {
	return f.hits, f.err
}

func TestExecuteCalculate(t *testing.T) {
	e := NewToolExecutor(nil)

	tests := []struct {
		expression string
		want       string
	}{
		{"17 * 3", "51"},
		{"2 + 3 * 4", "14"},
		{"(2 + 3) * 4", "20"},
		{"10 / 4", "2.5"},
		{"-5 + 2", "-3"},
	}
	for _, tt := range tests {
		out := e.Execute("calculate", json.RawMessage(`{"expression": "`+tt.expression+`"}`))
		if out.IsError {
			t.Errorf("calculate(%q) errored: %s", tt.expression, out.Content)
			continue
		}
		if out.Content != tt.want {
			t.Errorf("calculate(%q) = %q, want %q", tt.expression, out.Content, tt.want)
		}
	}
}

func TestExecuteCalculateErrors(t *testing.T) {
	e := NewToolExecutor(nil)

	for _, expr := range []string{"", "1 / 0", "2 +", "two plus two", "(1 + 2"} {
		out := e.Execute("calculate", json.RawMessage(`{"expression": "`+expr+`"}`))
		if !out.IsError {
			t.Errorf("calculate(%q) should error, got %q", expr, out.Content)
		}
	}
}

func TestExecuteLookupInformation(t *testing.T) {
	searcher := &fakeSearcher{hits: []*store.Pattern{
		{Name: "flaky-tests", Trigger: "tests fail intermittently", Response: "rerun before debugging"},
	}}
	e := NewToolExecutor(searcher)

	out := e.Execute("lookup_information", json.RawMessage(`{"query": "flaky tests"}`))
	if out.IsError {
		t.Fatalf("lookup errored: %s", out.Content)
	}
	if !strings.Contains(out.Content, "flaky-tests") {
		t.Errorf("expected pattern name in output, got %q", out.Content)
	}
}

func TestExecuteLookupNoSearcher(t *testing.T) {
	e := NewToolExecutor(nil)
	out := e.Execute("lookup_information", json.RawMessage(`{"query": "anything"}`))
	if out.IsError {
		t.Errorf("nil searcher should degrade, not error: %s", out.Content)
	}
}

func TestExecuteRecordHandlers(t *testing.T) {
	e := NewToolExecutor(nil)

	out := e.Execute("request_deployment", json.RawMessage(`{"service": "api", "environment": "staging"}`))
	if out.IsError {
		t.Fatalf("deployment errored: %s", out.Content)
	}
	if !strings.Contains(out.Content, "environment=staging") {
		t.Errorf("expected environment in record, got %q", out.Content)
	}

	out = e.Execute("run_tests", json.RawMessage(`{}`))
	if out.IsError || !strings.Contains(out.Content, "scope=all") {
		t.Errorf("expected default test scope, got %q", out.Content)
	}
}

func TestExecuteUnknownTool(t *testing.T) {
	e := NewToolExecutor(nil)
	out := e.Execute("summon_demon", nil)
	if !out.IsError {
		t.Error("expected error for unknown tool")
	}
}

func TestExecuteInvalidInput(t *testing.T) {
	e := NewToolExecutor(nil)
	out := e.Execute("calculate", json.RawMessage(`{broken`))
	if !out.IsError {
		t.Error("expected error for invalid input JSON")
	}
}

func TestRequiresApprovalArgs(t *testing.T) {
	if !requiresApprovalArgs("request_deployment", json.RawMessage(`{"environment": "production"}`)) {
		t.Error("production deployment should require approval")
	}
	if requiresApprovalArgs("request_deployment", json.RawMessage(`{"environment": "staging"}`)) {
		t.Error("staging deployment should not require approval")
	}
	if requiresApprovalArgs("run_tests", json.RawMessage(`{}`)) {
		t.Error("non-deployment tools never flag approval from args")
	}
}
