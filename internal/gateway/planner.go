package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/taskwright/taskwright/pkg/models"
)

// PlannedTask is one structured task proposal from the gateway.
type PlannedTask struct {
	Type             models.TaskType  `json:"type"`
	Description      string           `json:"description"`
	RiskLevel        models.RiskLevel `json:"risk_level"`
	DependsOn        []int            `json:"depends_on,omitempty"`
	RequiresApproval bool             `json:"requires_approval,omitempty"`
}

// Planner turns an instruction and its raw fragments into a structured
// task list.
type Planner interface {
	Plan(ctx context.Context, instruction string, fragments []string) ([]PlannedTask, error)
}

// ToolResult is the outcome of invoking a task's tool.
type ToolResult struct {
	// Result is the handler output.
	Result string
	// RequiresApproval is set when the invocation itself flags the action
	// as needing human sign-off.
	RequiresApproval bool
	// DisplayPayload is a renderable structured summary for UI consumers;
	// the core does not consume it.
	DisplayPayload map[string]any
}

// Invoker executes a task through the tool-call contract.
type Invoker interface {
	Invoke(ctx context.Context, task *models.Task) (*ToolResult, error)
}

// Anthropic is the gateway implementation backed by the Anthropic API.
// It implements both Planner and Invoker.
type Anthropic struct {
	client   *Client
	executor *ToolExecutor
	maxTasks int
}

// NewAnthropic creates the gateway over the given client and executor.
func NewAnthropic(client *Client, executor *ToolExecutor, maxTasks int) *Anthropic {
	if maxTasks <= 0 {
		maxTasks = 10
	}
	return &Anthropic{client: client, executor: executor, maxTasks: maxTasks}
}

const plannerSystemPrompt = `You turn a user's instruction into an ordered task list.
Call the plan_tasks tool exactly once. Dependencies reference the zero-based
order numbers of earlier tasks only.`

// Plan asks the model for a structured task list. If the model answers with
// plain text instead of a tool call, the fragments are classified locally.
func (a *Anthropic) Plan(ctx context.Context, instruction string, fragments []string) ([]PlannedTask, error) {
	var sb strings.Builder
	sb.WriteString("Instruction:\n")
	sb.WriteString(instruction)
	if len(fragments) > 1 {
		sb.WriteString("\n\nCandidate fragments:\n")
		for i, frag := range fragments {
			fmt.Fprintf(&sb, "%d. %s\n", i, frag)
		}
	}

	resp, err := a.client.sdk().Messages.New(ctx, anthropic.MessageNewParams{
		Model:     a.client.Model(),
		MaxTokens: 2048,
		System: []anthropic.TextBlockParam{
			{Text: plannerSystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(sb.String())),
		},
		Tools: []anthropic.ToolUnionParam{planTasksTool(a.maxTasks)},
		ToolChoice: anthropic.ToolChoiceUnionParam{
			OfTool: &anthropic.ToolChoiceToolParam{Name: "plan_tasks"},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("plan tasks: %w", err)
	}
	a.client.Tracker().Add(resp.Usage.InputTokens, resp.Usage.OutputTokens)

	for _, block := range resp.Content {
		if variant, ok := block.AsAny().(anthropic.ToolUseBlock); ok && variant.Name == "plan_tasks" {
			return ParsePlan(variant.Input, a.maxTasks)
		}
	}

	// No tool call: self-derive from the fragments.
	return FallbackPlan(fragments), nil
}

// planPayload is the JSON structure of the plan_tasks tool input.
type planPayload struct {
	Tasks []struct {
		Type             string `json:"type"`
		Description      string `json:"description"`
		RiskLevel        string `json:"risk_level"`
		DependsOn        []int  `json:"depends_on"`
		RequiresApproval bool   `json:"requires_approval"`
	} `json:"tasks"`
}

// ParsePlan parses the plan_tasks tool input into planned tasks, capped at
// maxTasks. Unknown types fall back to analysis and unknown risk levels to
// low; dependency validity is the queue builder's job.
func ParsePlan(input json.RawMessage, maxTasks int) ([]PlannedTask, error) {
	var payload planPayload
	if err := json.Unmarshal(input, &payload); err != nil {
		return nil, fmt.Errorf("unmarshal plan: %w", err)
	}
	if len(payload.Tasks) == 0 {
		return nil, fmt.Errorf("empty task list returned")
	}
	if len(payload.Tasks) > maxTasks {
		payload.Tasks = payload.Tasks[:maxTasks]
	}

	planned := make([]PlannedTask, len(payload.Tasks))
	for i, t := range payload.Tasks {
		taskType := models.TaskType(t.Type)
		if !taskType.Valid() {
			taskType = models.TaskTypeAnalysis
		}
		risk := models.RiskLevel(t.RiskLevel)
		if !risk.Valid() {
			risk = models.RiskLow
		}
		planned[i] = PlannedTask{
			Type:             taskType,
			Description:      strings.TrimSpace(t.Description),
			RiskLevel:        risk,
			DependsOn:        t.DependsOn,
			RequiresApproval: t.RequiresApproval,
		}
	}
	return planned, nil
}

// FallbackPlan classifies fragments locally when the gateway returns no
// structured plan.
func FallbackPlan(fragments []string) []PlannedTask {
	planned := make([]PlannedTask, 0, len(fragments))
	for i, frag := range fragments {
		taskType := ClassifyFragment(frag)

		risk := models.RiskLow
		var deps []int
		if taskType == models.TaskTypeDeployment {
			risk = models.RiskMedium
			// A deployment follows whatever work precedes it.
			if i > 0 {
				deps = []int{i - 1}
			}
		}

		planned = append(planned, PlannedTask{
			Type:        taskType,
			Description: frag,
			RiskLevel:   risk,
			DependsOn:   deps,
		})
	}
	return planned
}

// classifierRules pairs keywords with the task type they indicate, checked
// in order.
var classifierRules = []struct {
	keywords []string
	taskType models.TaskType
}{
	{[]string{"deploy", "release", "roll out", "rollout"}, models.TaskTypeDeployment},
	{[]string{"test", "verify the build"}, models.TaskTypeTest},
	{[]string{"fix", "bug", "patch", "debug"}, models.TaskTypeCodeFix},
	{[]string{"commit", "merge", "branch", "push", "tag", "revert", "rebase"}, models.TaskTypeVersionControl},
	{[]string{"calculate", "compute", "how much is"}, models.TaskTypeCalculation},
	{[]string{"profile"}, models.TaskTypeProfileLookup},
	{[]string{"look up", "lookup", "find out", "what is", "search for"}, models.TaskTypeInfoLookup},
	{[]string{"train"}, models.TaskTypeTraining},
	{[]string{"navigate", "go to", "open the page"}, models.TaskTypeNavigation},
	{[]string{"table", "database", "record", "collection"}, models.TaskTypeDataStore},
	{[]string{"move", "copy", "rename", "create file", "delete file"}, models.TaskTypeFileOperation},
	{[]string{"ask", "onboard", "hire", "assign to"}, models.TaskTypePersonnelRequest},
}

// ClassifyFragment derives a task type from fragment keywords, defaulting
// to analysis.
func ClassifyFragment(fragment string) models.TaskType {
	lower := strings.ToLower(fragment)
	for _, rule := range classifierRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.taskType
			}
		}
	}
	return models.TaskTypeAnalysis
}
