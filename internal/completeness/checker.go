// Package completeness checks that a task description carries the facts its
// task type needs before execution.
package completeness

import (
	"regexp"

	"github.com/taskwright/taskwright/pkg/models"
)

// Report lists the facts a task type demands and the subset missing from
// the description.
type Report struct {
	// Required is the full list of fact names for the type.
	Required []string
	// Missing is the subset whose predicate failed against the description.
	Missing []string
}

// Complete returns true if nothing required is missing.
func (r Report) Complete() bool {
	return len(r.Missing) == 0
}

// requirement pairs a fact name with the predicate that detects it.
type requirement struct {
	fact    string
	matches func(description string) bool
}

var (
	filePathRe    = regexp.MustCompile(`(?i)(^|[\s"'` + "`" + `(])[\w./\\-]+\.[a-z0-9]{1,5}([\s"'` + "`" + `),.:]|$)`)
	environmentRe = regexp.MustCompile(`(?i)\b(production|prod|staging|stage|dev|development|qa|test|sandbox|canary)\b`)
	vcsVerbRe     = regexp.MustCompile(`(?i)\b(commit|push|pull|merge|rebase|branch|tag|revert|cherry[- ]pick|checkout)\b`)
	storeNameRe   = regexp.MustCompile(`(?i)\b(table|collection|database|db|index|bucket|cache|queue|topic)\b`)
	personNameRe  = regexp.MustCompile(`\b[A-Z][a-z]+\b`)
	numberRe      = regexp.MustCompile(`\d`)
	destinationRe = regexp.MustCompile(`(?i)\b(to|at|into|towards?)\s+\S+`)
)

func matchRe(re *regexp.Regexp) func(string) bool {
	return func(description string) bool {
		return re.MatchString(description)
	}
}

// minWords returns a predicate requiring at least n whitespace-separated words.
func minWords(n int) func(string) bool {
	return func(description string) bool {
		count := 0
		inWord := false
		for _, r := range description {
			if r == ' ' || r == '\t' || r == '\n' {
				inWord = false
				continue
			}
			if !inWord {
				count++
				inWord = true
			}
		}
		return count >= n
	}
}

// requirements is the static table mapping task types to the facts their
// descriptions must carry. Types absent from the table require nothing.
var requirements = map[models.TaskType][]requirement{
	models.TaskTypeCodeFix: {
		{"file-path", matchRe(filePathRe)},
		{"problem-statement", minWords(3)},
	},
	models.TaskTypeDeployment: {
		{"environment", matchRe(environmentRe)},
	},
	models.TaskTypeVersionControl: {
		{"vcs-operation", matchRe(vcsVerbRe)},
	},
	models.TaskTypeFileOperation: {
		{"file-path", matchRe(filePathRe)},
	},
	models.TaskTypeDataStore: {
		{"store-target", matchRe(storeNameRe)},
	},
	models.TaskTypePersonnelRequest: {
		{"person-name", matchRe(personNameRe)},
	},
	models.TaskTypeNavigation: {
		{"destination", matchRe(destinationRe)},
	},
	models.TaskTypeCalculation: {
		{"numeric-input", matchRe(numberRe)},
	},
	models.TaskTypeInfoLookup: {
		{"query-subject", minWords(2)},
	},
	models.TaskTypeProfileLookup: {
		{"profile-subject", minWords(2)},
	},
}

// Check reports the required facts for the task type and which are missing
// from the description. Unknown types require nothing; Check never errors.
func Check(taskType models.TaskType, description string) Report {
	reqs, ok := requirements[taskType]
	if !ok {
		return Report{}
	}

	report := Report{Required: make([]string, 0, len(reqs))}
	for _, req := range reqs {
		report.Required = append(report.Required, req.fact)
		if !req.matches(description) {
			report.Missing = append(report.Missing, req.fact)
		}
	}
	return report
}
