// Package safety provides harmful-pattern screening for task descriptions.
package safety

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Category labels a class of harmful pattern.
type Category string

const (
	// CategoryPromptInjection covers attempts to override system instructions.
	CategoryPromptInjection Category = "prompt-injection"
	// CategoryDestructiveOperation covers irreversible data or infrastructure damage.
	CategoryDestructiveOperation Category = "destructive-operation"
	// CategoryCredentialExfiltration covers attempts to leak secrets.
	CategoryCredentialExfiltration Category = "credential-exfiltration"
	// CategoryPrivilegeEscalation covers attempts to gain elevated access.
	CategoryPrivilegeEscalation Category = "privilege-escalation"
)

// DefaultRules defines the built-in match rules per category.
// Patterns are matched case-insensitively against the whole text.
var DefaultRules = map[Category][]string{
	CategoryPromptInjection: {
		`ignore (all |any )?(previous|prior|above) (instructions|prompts|rules)`,
		`disregard (your|the) (instructions|system prompt|guidelines)`,
		`you are now (dan|unrestricted|jailbroken)`,
		`pretend (you have no|there are no) (restrictions|rules|guidelines)`,
		`reveal (your|the) (system prompt|initial instructions)`,
	},
	CategoryDestructiveOperation: {
		`delete\s+(the\s+)?(production|prod|live)\s+(database|db|data)`,
		`drop\s+(table|database|schema)`,
		`rm\s+-rf?\s+/`,
		`truncate\s+(table|all)`,
		`wipe\s+(the\s+)?(disk|drive|server|data)`,
		`force[- ]?push.*(main|master|production)`,
		`delete\s+all\s+\w*\s*(records|files|users|backups)`,
	},
	CategoryCredentialExfiltration: {
		`(send|post|upload|email|exfiltrate)\s+.*(password|credential|secret|api[- ]?key|token)s?`,
		`(dump|extract|read|print)\s+.*(\.env|credentials?\s+file|secrets?\s+store)`,
		`(show|give|tell)\s+me\s+.*(password|api[- ]?key|private\s+key)s?`,
		`curl\s+.*(password|token|secret)`,
	},
	CategoryPrivilegeEscalation: {
		`(grant|give)\s+(me\s+|myself\s+)?(admin|root|superuser|sudo)`,
		`(escalate|elevate)\s+(my\s+)?privileges?`,
		`add\s+\w+\s+to\s+(the\s+)?(admin|sudoers|root)\s+(group|role|list)`,
		`chmod\s+777`,
		`disable\s+(the\s+)?(firewall|authentication|auth|security)`,
	},
}

// Ruleset is an immutable, compiled table of safety rules. Build one at
// startup and inject it into the Validator; it is never mutated afterwards.
type Ruleset struct {
	categories []Category
	rules      map[Category][]*regexp.Regexp
}

// rulesFile is the YAML structure for user-supplied extra rules.
type rulesFile struct {
	Rules map[string][]string `yaml:"rules"`
}

// NewRuleset compiles the given pattern table. Patterns are compiled
// case-insensitively; an invalid pattern is a construction error.
func NewRuleset(table map[Category][]string) (*Ruleset, error) {
	rs := &Ruleset{rules: make(map[Category][]*regexp.Regexp)}
	for _, cat := range []Category{
		CategoryPromptInjection,
		CategoryDestructiveOperation,
		CategoryCredentialExfiltration,
		CategoryPrivilegeEscalation,
	} {
		patterns, ok := table[cat]
		if !ok {
			continue
		}
		rs.categories = append(rs.categories, cat)
		for _, p := range patterns {
			re, err := regexp.Compile(`(?i)` + p)
			if err != nil {
				return nil, fmt.Errorf("compile rule %q for %s: %w", p, cat, err)
			}
			rs.rules[cat] = append(rs.rules[cat], re)
		}
	}
	return rs, nil
}

// DefaultRuleset compiles the built-in rule table.
func DefaultRuleset() *Ruleset {
	rs, err := NewRuleset(DefaultRules)
	if err != nil {
		// The built-in table is covered by tests; a compile failure here is a bug.
		panic(err)
	}
	return rs
}

// LoadRuleset compiles the built-in table merged with extra rules from a
// YAML file. Unknown category names in the file are rejected.
func LoadRuleset(path string) (*Ruleset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}

	var file rulesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse rules file: %w", err)
	}

	merged := make(map[Category][]string, len(DefaultRules))
	for cat, patterns := range DefaultRules {
		merged[cat] = append([]string{}, patterns...)
	}
	for name, patterns := range file.Rules {
		cat := Category(name)
		if _, known := merged[cat]; !known {
			return nil, fmt.Errorf("unknown safety category %q in %s", name, path)
		}
		merged[cat] = append(merged[cat], patterns...)
	}

	return NewRuleset(merged)
}

// Categories returns the category names present in the ruleset.
func (rs *Ruleset) Categories() []Category {
	return append([]Category{}, rs.categories...)
}
