package safety

// categoryPenalty is subtracted from the score for each distinct matched
// category. The score floors at 0.
const categoryPenalty = 0.3

// Verdict is the result of screening a text span.
type Verdict struct {
	// Safe is true iff no category matched.
	Safe bool
	// Flags lists the matched categories.
	Flags []Category
	// Score starts at 1.0 and drops per matched category, floored at 0.
	Score float64
}

// FlagStrings returns the matched category names as plain strings.
func (v Verdict) FlagStrings() []string {
	if len(v.Flags) == 0 {
		return nil
	}
	out := make([]string, len(v.Flags))
	for i, f := range v.Flags {
		out[i] = string(f)
	}
	return out
}

// Validator screens text against an immutable ruleset. Validate is a pure
// function: deterministic, side-effect free, and total over arbitrary input.
// Callers are responsible for audit logging.
type Validator struct {
	rules *Ruleset
}

// NewValidator creates a Validator over the given ruleset.
func NewValidator(rules *Ruleset) *Validator {
	if rules == nil {
		rules = DefaultRuleset()
	}
	return &Validator{rules: rules}
}

// Validate screens the text and returns the verdict. Each category counts
// at most once regardless of how many of its rules match.
func (v *Validator) Validate(text string) Verdict {
	verdict := Verdict{Safe: true, Score: 1.0}

	for _, cat := range v.rules.categories {
		for _, re := range v.rules.rules[cat] {
			if re.MatchString(text) {
				verdict.Flags = append(verdict.Flags, cat)
				verdict.Score -= categoryPenalty
				break
			}
		}
	}

	if len(verdict.Flags) > 0 {
		verdict.Safe = false
	}
	if verdict.Score < 0 {
		verdict.Score = 0
	}
	return verdict
}
