package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/taskwright/taskwright/pkg/models"
)

const invokerSystemPrompt = `You execute one task by calling its tool with
arguments extracted from the task description. Call the tool exactly once.`

var productionEnvRe = regexp.MustCompile(`(?i)^(production|prod|live)$`)

// Invoke executes the task through the tool-call contract: the model is
// offered exactly the tool for the task's type, each returned tool call is
// dispatched to the local handler, and plain-text answers are accepted as
// the result. Zero, one, or many tool calls are all handled.
func (a *Anthropic) Invoke(ctx context.Context, task *models.Task) (*ToolResult, error) {
	spec, ok := Spec(task.Type)
	if !ok {
		return nil, fmt.Errorf("no tool registered for task type %s", task.Type)
	}

	resp, err := a.client.sdk().Messages.New(ctx, anthropic.MessageNewParams{
		Model:     a.client.Model(),
		MaxTokens: 1024,
		System: []anthropic.TextBlockParam{
			{Text: invokerSystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock("Execute this task: " + task.Description)),
		},
		Tools: []anthropic.ToolUnionParam{spec.toolParam()},
		ToolChoice: anthropic.ToolChoiceUnionParam{
			OfTool: &anthropic.ToolChoiceToolParam{Name: spec.Name},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("invoke %s: %w", spec.Name, err)
	}
	a.client.Tracker().Add(resp.Usage.InputTokens, resp.Usage.OutputTokens)

	result := &ToolResult{
		DisplayPayload: map[string]any{"tool": spec.Name},
	}

	var outputs []string
	var texts []string
	for _, block := range resp.Content {
		switch variant := block.AsAny().(type) {
		case anthropic.TextBlock:
			texts = append(texts, variant.Text)
		case anthropic.ToolUseBlock:
			// A task that never passed the approval gate does not get to
			// perform an action whose arguments demand sign-off. The tool is
			// not executed; the caller decides what to do with the flag.
			if requiresApprovalArgs(variant.Name, variant.Input) && !task.RequiresApproval {
				result.RequiresApproval = true
				result.DisplayPayload["arguments"] = json.RawMessage(variant.Input)
				return result, nil
			}
			outcome := a.executor.Execute(variant.Name, variant.Input)
			if outcome.IsError {
				return nil, fmt.Errorf("%s: %s", variant.Name, outcome.Content)
			}
			outputs = append(outputs, outcome.Content)
			result.DisplayPayload["arguments"] = json.RawMessage(variant.Input)
		}
	}

	switch {
	case len(outputs) > 0:
		result.Result = strings.Join(outputs, "\n")
	case len(texts) > 0:
		result.Result = strings.TrimSpace(strings.Join(texts, "\n"))
	default:
		return nil, fmt.Errorf("%s returned no content", spec.Name)
	}

	return result, nil
}

// requiresApprovalArgs flags invocations that warrant sign-off based on the
// arguments alone, independent of the task's risk level. It backstops the
// approval gate when the task source under-rated the risk.
func requiresApprovalArgs(tool string, input json.RawMessage) bool {
	if tool != "request_deployment" {
		return false
	}
	var args map[string]string
	if err := json.Unmarshal(input, &args); err != nil {
		return false
	}
	return productionEnvRe.MatchString(args["environment"])
}
