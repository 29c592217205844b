package gateway

import (
	"github.com/anthropics/anthropic-sdk-go"

	"github.com/taskwright/taskwright/pkg/models"
)

// ToolSpec binds a task type to its tool: the wire name, the input schema
// sent to the model, and (via the executor) the handler that performs it.
// Each task type maps to exactly one tool.
type ToolSpec struct {
	Name        string
	Description string
	Properties  map[string]interface{}
	Required    []string
}

// toolSpecs is the closed registry over task categories.
var toolSpecs = map[models.TaskType]ToolSpec{
	models.TaskTypeCodeFix: {
		Name:        "apply_code_fix",
		Description: "Apply a code fix to the named file.",
		Properties: map[string]interface{}{
			"file_path": map[string]interface{}{"type": "string", "description": "Path of the file to fix"},
			"summary":   map[string]interface{}{"type": "string", "description": "What the fix changes"},
		},
		Required: []string{"file_path", "summary"},
	},
	models.TaskTypeDeployment: {
		Name:        "request_deployment",
		Description: "Request a deployment of a service to an environment.",
		Properties: map[string]interface{}{
			"service":     map[string]interface{}{"type": "string", "description": "Service or artifact to deploy"},
			"environment": map[string]interface{}{"type": "string", "description": "Target environment, e.g. staging"},
		},
		Required: []string{"environment"},
	},
	models.TaskTypeVersionControl: {
		Name:        "run_vcs_operation",
		Description: "Run a version control operation.",
		Properties: map[string]interface{}{
			"operation": map[string]interface{}{"type": "string", "description": "Operation, e.g. merge, tag, revert"},
			"target":    map[string]interface{}{"type": "string", "description": "Branch, tag, or commit"},
		},
		Required: []string{"operation"},
	},
	models.TaskTypeFileOperation: {
		Name:        "perform_file_operation",
		Description: "Perform a file operation.",
		Properties: map[string]interface{}{
			"operation": map[string]interface{}{"type": "string", "description": "Operation, e.g. move, copy, create"},
			"file_path": map[string]interface{}{"type": "string", "description": "Path of the file"},
		},
		Required: []string{"operation", "file_path"},
	},
	models.TaskTypeDataStore: {
		Name:        "run_datastore_operation",
		Description: "Run an operation against a data store.",
		Properties: map[string]interface{}{
			"operation": map[string]interface{}{"type": "string", "description": "Operation to run"},
			"target":    map[string]interface{}{"type": "string", "description": "Table, collection, or store"},
		},
		Required: []string{"operation", "target"},
	},
	models.TaskTypePersonnelRequest: {
		Name:        "route_personnel_request",
		Description: "Route a request to a person or team.",
		Properties: map[string]interface{}{
			"person":  map[string]interface{}{"type": "string", "description": "Person or team the request goes to"},
			"request": map[string]interface{}{"type": "string", "description": "What is being requested"},
		},
		Required: []string{"person", "request"},
	},
	models.TaskTypeNavigation: {
		Name:        "navigate",
		Description: "Navigate to a destination.",
		Properties: map[string]interface{}{
			"destination": map[string]interface{}{"type": "string", "description": "Where to navigate to"},
		},
		Required: []string{"destination"},
	},
	models.TaskTypeTraining: {
		Name:        "schedule_training",
		Description: "Schedule a training session.",
		Properties: map[string]interface{}{
			"topic": map[string]interface{}{"type": "string", "description": "Training topic"},
		},
		Required: []string{"topic"},
	},
	models.TaskTypeAnalysis: {
		Name:        "run_analysis",
		Description: "Analyze a subject and report findings.",
		Properties: map[string]interface{}{
			"subject": map[string]interface{}{"type": "string", "description": "What to analyze"},
		},
		Required: []string{"subject"},
	},
	models.TaskTypeTest: {
		Name:        "run_tests",
		Description: "Run a test suite.",
		Properties: map[string]interface{}{
			"scope": map[string]interface{}{"type": "string", "description": "Test scope, e.g. unit, integration, all"},
		},
		Required: []string{},
	},
	models.TaskTypeInfoLookup: {
		Name:        "lookup_information",
		Description: "Look up information for a query.",
		Properties: map[string]interface{}{
			"query": map[string]interface{}{"type": "string", "description": "What to look up"},
		},
		Required: []string{"query"},
	},
	models.TaskTypeProfileLookup: {
		Name:        "lookup_profile",
		Description: "Look up a profile.",
		Properties: map[string]interface{}{
			"subject": map[string]interface{}{"type": "string", "description": "Whose profile to look up"},
		},
		Required: []string{"subject"},
	},
	models.TaskTypeCalculation: {
		Name:        "calculate",
		Description: "Evaluate an arithmetic expression.",
		Properties: map[string]interface{}{
			"expression": map[string]interface{}{"type": "string", "description": "Expression to evaluate, e.g. 17 * 3"},
		},
		Required: []string{"expression"},
	},
}

// Spec returns the tool spec for a task type.
func Spec(taskType models.TaskType) (ToolSpec, bool) {
	spec, ok := toolSpecs[taskType]
	return spec, ok
}

// toolParam converts a spec to the Anthropic tool schema parameter.
func (s ToolSpec) toolParam() anthropic.ToolUnionParam {
	return anthropic.ToolUnionParam{
		OfTool: &anthropic.ToolParam{
			Name:        s.Name,
			Description: anthropic.String(s.Description),
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties: s.Properties,
				Required:   s.Required,
			},
		},
	}
}

// planTasksTool is the schema the planner forces the model to call when
// turning an instruction into a structured task list.
func planTasksTool(maxTasks int) anthropic.ToolUnionParam {
	return anthropic.ToolUnionParam{
		OfTool: &anthropic.ToolParam{
			Name:        "plan_tasks",
			Description: anthropic.String("Record the ordered task list derived from the user's instruction."),
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties: map[string]interface{}{
					"tasks": map[string]interface{}{
						"type":        "array",
						"description": "Ordered task list, at most the allowed maximum",
						"maxItems":    maxTasks,
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"type": map[string]interface{}{
									"type":        "string",
									"description": "Task category",
									"enum":        taskTypeNames(),
								},
								"description": map[string]interface{}{
									"type":        "string",
									"description": "Statement of intent for this task",
								},
								"risk_level": map[string]interface{}{
									"type":        "string",
									"description": "Risk classification",
									"enum":        []string{"low", "medium", "high", "critical"},
								},
								"depends_on": map[string]interface{}{
									"type":        "array",
									"description": "Zero-based order numbers of earlier tasks this one depends on",
									"items":       map[string]interface{}{"type": "integer"},
								},
								"requires_approval": map[string]interface{}{
									"type":        "boolean",
									"description": "True if the task should be gated on human approval",
								},
							},
							"required": []string{"type", "description", "risk_level"},
						},
					},
				},
				Required: []string{"tasks"},
			},
		},
	}
}

func taskTypeNames() []string {
	names := make([]string, len(models.AllTaskTypes))
	for i, t := range models.AllTaskTypes {
		names[i] = string(t)
	}
	return names
}
