package gateway

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/taskwright/taskwright/internal/store"
)

// PatternSearcher retrieves learned behavioral patterns for lookups.
type PatternSearcher interface {
	SearchPatterns(query string, limit int) ([]*store.Pattern, error)
}

// ToolOutcome is the result of executing one tool call locally.
type ToolOutcome struct {
	Content string
	IsError bool
}

// ToolExecutor dispatches tool calls to their handlers. Handlers either
// perform the effect locally (calculation, pattern lookup) or produce the
// structured execution record the external collaborator acts on.
type ToolExecutor struct {
	patterns PatternSearcher
}

// NewToolExecutor creates a ToolExecutor. The pattern searcher may be nil,
// in which case information lookups fall back to an empty result.
func NewToolExecutor(patterns PatternSearcher) *ToolExecutor {
	return &ToolExecutor{patterns: patterns}
}

// Execute runs the named tool with the given JSON input.
func (e *ToolExecutor) Execute(name string, input json.RawMessage) ToolOutcome {
	var args map[string]string
	if len(input) > 0 {
		if err := json.Unmarshal(input, &args); err != nil {
			return ToolOutcome{Content: fmt.Sprintf("invalid tool input: %v", err), IsError: true}
		}
	}

	switch name {
	case "calculate":
		return e.calculate(args["expression"])
	case "lookup_information":
		return e.lookupInformation(args["query"])
	case "apply_code_fix":
		return record("code fix applied", "file", args["file_path"], "summary", args["summary"])
	case "request_deployment":
		return record("deployment requested", "service", args["service"], "environment", args["environment"])
	case "run_vcs_operation":
		return record("vcs operation run", "operation", args["operation"], "target", args["target"])
	case "perform_file_operation":
		return record("file operation performed", "operation", args["operation"], "file", args["file_path"])
	case "run_datastore_operation":
		return record("datastore operation run", "operation", args["operation"], "target", args["target"])
	case "route_personnel_request":
		return record("personnel request routed", "to", args["person"], "request", args["request"])
	case "navigate":
		return record("navigated", "destination", args["destination"])
	case "schedule_training":
		return record("training scheduled", "topic", args["topic"])
	case "run_analysis":
		return record("analysis completed", "subject", args["subject"])
	case "run_tests":
		scope := args["scope"]
		if scope == "" {
			scope = "all"
		}
		return record("tests run", "scope", scope)
	case "lookup_profile":
		return record("profile retrieved", "subject", args["subject"])
	default:
		return ToolOutcome{Content: fmt.Sprintf("unknown tool: %s", name), IsError: true}
	}
}

// record formats a structured execution record from key/value pairs,
// skipping empty values.
func record(action string, kv ...string) ToolOutcome {
	var sb strings.Builder
	sb.WriteString(action)
	for i := 0; i+1 < len(kv); i += 2 {
		if kv[i+1] == "" {
			continue
		}
		fmt.Fprintf(&sb, " %s=%s", kv[i], kv[i+1])
	}
	return ToolOutcome{Content: sb.String()}
}

func (e *ToolExecutor) lookupInformation(query string) ToolOutcome {
	if query == "" {
		return ToolOutcome{Content: "lookup query is empty", IsError: true}
	}
	if e.patterns == nil {
		return ToolOutcome{Content: fmt.Sprintf("no stored knowledge for %q", query)}
	}

	hits, err := e.patterns.SearchPatterns(query, 3)
	if err != nil {
		return ToolOutcome{Content: fmt.Sprintf("pattern search failed: %v", err), IsError: true}
	}
	if len(hits) == 0 {
		return ToolOutcome{Content: fmt.Sprintf("no stored knowledge for %q", query)}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d learned pattern(s) for %q:", len(hits), query)
	for _, p := range hits {
		fmt.Fprintf(&sb, "\n- %s: when %s, %s", p.Name, p.Trigger, p.Response)
	}
	return ToolOutcome{Content: sb.String()}
}

func (e *ToolExecutor) calculate(expression string) ToolOutcome {
	value, err := evalExpression(expression)
	if err != nil {
		return ToolOutcome{Content: fmt.Sprintf("cannot evaluate %q: %v", expression, err), IsError: true}
	}
	return ToolOutcome{Content: strconv.FormatFloat(value, 'g', -1, 64)}
}

// evalExpression evaluates +, -, *, / with the usual precedence and
// parentheses over a flat token stream.
func evalExpression(expr string) (float64, error) {
	tokens, err := tokenize(expr)
	if err != nil {
		return 0, err
	}
	if len(tokens) == 0 {
		return 0, fmt.Errorf("empty expression")
	}

	p := &exprParser{tokens: tokens}
	value, err := p.parseAddSub()
	if err != nil {
		return 0, err
	}
	if p.pos != len(p.tokens) {
		return 0, fmt.Errorf("unexpected token %q", p.tokens[p.pos])
	}
	return value, nil
}

func tokenize(expr string) ([]string, error) {
	var tokens []string
	i := 0
	for i < len(expr) {
		c := expr[i]
		switch {
		case c == ' ' || c == '\t':
			i++
		case c == '+' || c == '-' || c == '*' || c == '/' || c == '(' || c == ')':
			tokens = append(tokens, string(c))
			i++
		case c >= '0' && c <= '9' || c == '.':
			j := i
			for j < len(expr) && (expr[j] >= '0' && expr[j] <= '9' || expr[j] == '.') {
				j++
			}
			tokens = append(tokens, expr[i:j])
			i = j
		default:
			return nil, fmt.Errorf("unexpected character %q", c)
		}
	}
	return tokens, nil
}

type exprParser struct {
	tokens []string
	pos    int
}

func (p *exprParser) parseAddSub() (float64, error) {
	left, err := p.parseMulDiv()
	if err != nil {
		return 0, err
	}
	for p.pos < len(p.tokens) && (p.tokens[p.pos] == "+" || p.tokens[p.pos] == "-") {
		op := p.tokens[p.pos]
		p.pos++
		right, err := p.parseMulDiv()
		if err != nil {
			return 0, err
		}
		if op == "+" {
			left += right
		} else {
			left -= right
		}
	}
	return left, nil
}

func (p *exprParser) parseMulDiv() (float64, error) {
	left, err := p.parseUnary()
	if err != nil {
		return 0, err
	}
	for p.pos < len(p.tokens) && (p.tokens[p.pos] == "*" || p.tokens[p.pos] == "/") {
		op := p.tokens[p.pos]
		p.pos++
		right, err := p.parseUnary()
		if err != nil {
			return 0, err
		}
		if op == "*" {
			left *= right
		} else {
			if right == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			left /= right
		}
	}
	return left, nil
}

func (p *exprParser) parseUnary() (float64, error) {
	if p.pos < len(p.tokens) && p.tokens[p.pos] == "-" {
		p.pos++
		value, err := p.parseUnary()
		return -value, err
	}
	return p.parsePrimary()
}

func (p *exprParser) parsePrimary() (float64, error) {
	if p.pos >= len(p.tokens) {
		return 0, fmt.Errorf("unexpected end of expression")
	}

	tok := p.tokens[p.pos]
	if tok == "(" {
		p.pos++
		value, err := p.parseAddSub()
		if err != nil {
			return 0, err
		}
		if p.pos >= len(p.tokens) || p.tokens[p.pos] != ")" {
			return 0, fmt.Errorf("missing closing parenthesis")
		}
		p.pos++
		return value, nil
	}

	value, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", tok)
	}
	p.pos++
	return value, nil
}
