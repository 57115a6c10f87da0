package thailint

import (
	"fmt"
	"sort"
)

// Severity represents the importance level of a violation
type Severity string

const (
	SeverityError   Severity = "error"   // Blocks commit, shown as error in IDE
	SeverityWarning Severity = "warning" // Warns but allows commit
	SeverityInfo    Severity = "info"    // Informational only
)

// String implements the Stringer interface for Severity
func (s Severity) String() string {
	return string(s)
}

// ParseSeverity converts a string to a Severity level
func ParseSeverity(s string) Severity {
	switch s {
	case "warning", "warn":
		return SeverityWarning
	case "info", "information":
		return SeverityInfo
	case "error":
		return SeverityError
	default:
		return SeverityError // Default to error
	}
}

// SARIFLevel maps a severity to its SARIF 2.1.0 result level
func (s Severity) SARIFLevel() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "note"
	default:
		return "error"
	}
}

// Violation represents a specific rule violation found during linting
type Violation struct {
	RuleID     string   `json:"rule_id"`              // The rule that was violated
	File       string   `json:"file"`                 // Path relative to the project root
	Line       int      `json:"line"`                 // 1-indexed line number
	Column     int      `json:"column"`               // 0-indexed column
	Message    string   `json:"message"`              // Human-readable description
	Severity   Severity `json:"severity"`             // Error, Warning, Info
	Suggestion string   `json:"suggestion,omitempty"` // Optional fix hint
}

// Error implements the error interface
func (v *Violation) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s [%s]", v.File, v.Line, v.Column, v.Message, v.RuleID)
}

// LintViolations is a collection of Violation results
type LintViolations struct {
	Violations []Violation `json:"violations"`
}

// NewLintViolations creates a new empty collection of lint violations
func NewLintViolations() *LintViolations {
	return &LintViolations{
		Violations: make([]Violation, 0),
	}
}

// Add adds a violation to the collection
func (v *LintViolations) Add(violation Violation) {
	v.Violations = append(v.Violations, violation)
}

// AddAll adds a batch of violations to the collection
func (v *LintViolations) AddAll(violations []Violation) {
	v.Violations = append(v.Violations, violations...)
}

// IsEmpty returns true if there are no violations
func (v *LintViolations) IsEmpty() bool {
	return len(v.Violations) == 0
}

// Sort orders violations by (file, line, rule id) so output is stable
// regardless of traversal or worker scheduling order.
func (v *LintViolations) Sort() {
	sort.Slice(v.Violations, func(i, j int) bool {
		a, b := v.Violations[i], v.Violations[j]
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.RuleID != b.RuleID {
			return a.RuleID < b.RuleID
		}
		return a.Column < b.Column
	})
}

// String implements the Stringer interface
func (v *LintViolations) String() string {
	return v.PrintByFile()
}

// PrintByFile prints the violations grouped by file
func (v *LintViolations) PrintByFile() string {
	if len(v.Violations) == 0 {
		return "No rule violations found"
	}

	msg := fmt.Sprintf("Found %d rule violations grouped by file:\n", len(v.Violations))

	// Group violations by file
	fileViolations := make(map[string][]Violation)
	files := make([]string, 0)
	for _, violation := range v.Violations {
		if _, seen := fileViolations[violation.File]; !seen {
			files = append(files, violation.File)
		}
		fileViolations[violation.File] = append(fileViolations[violation.File], violation)
	}
	sort.Strings(files)

	// Display violations for each file
	for _, file := range files {
		violations := fileViolations[file]
		msg += fmt.Sprintf("File: %s (%d violations)\n", file, len(violations))

		for _, violation := range violations {
			msg += fmt.Sprintf("  - Line %d: %s [%s]\n", violation.Line, violation.Message, violation.RuleID)
		}
		msg += "\n"
	}

	return msg
}

// PrintByRule prints the violations grouped by rule
func (v *LintViolations) PrintByRule() string {
	if len(v.Violations) == 0 {
		return "No rule violations found"
	}

	msg := fmt.Sprintf("Found %d rule violations grouped by rule:\n", len(v.Violations))

	// Group violations by rule
	ruleViolations := make(map[string][]Violation)
	rules := make([]string, 0)
	for _, violation := range v.Violations {
		if _, seen := ruleViolations[violation.RuleID]; !seen {
			rules = append(rules, violation.RuleID)
		}
		ruleViolations[violation.RuleID] = append(ruleViolations[violation.RuleID], violation)
	}
	sort.Strings(rules)

	// Display violations for each rule
	for _, rule := range rules {
		violations := ruleViolations[rule]
		msg += fmt.Sprintf("Rule: %s (%d violations)\n", rule, len(violations))

		for _, violation := range violations {
			msg += fmt.Sprintf("  - %s:%d: %s\n", violation.File, violation.Line, violation.Message)
		}
		msg += "\n"
	}

	return msg
}

// AnalysisFailure records a file that could not be analyzed. Failures are
// surfaced separately from violations so the two are never confused.
type AnalysisFailure struct {
	File   string `json:"file"`
	Reason string `json:"reason"`
}
