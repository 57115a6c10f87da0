package thailint

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	// FormatText outputs human-readable text (default)
	FormatText OutputFormat = "text"
	// FormatJSON outputs machine-readable JSON
	FormatJSON OutputFormat = "json"
	// FormatSARIF outputs SARIF 2.1.0 format for CI/CD integration
	FormatSARIF OutputFormat = "sarif"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(violations *LintViolations, registry *Registry) ([]byte, error)
	ContentType() string
}

// NewFormatter creates a formatter for the given output format
func NewFormatter(format OutputFormat) (Formatter, error) {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Pretty: true}, nil
	case FormatSARIF:
		return &SARIFFormatter{}, nil
	case FormatText:
		return &TextFormatter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// TextFormatter outputs violations in human-readable text format
type TextFormatter struct{}

func (f *TextFormatter) Format(violations *LintViolations, registry *Registry) ([]byte, error) {
	return []byte(violations.PrintByFile()), nil
}

func (f *TextFormatter) ContentType() string {
	return "text/plain"
}

// JSONFormatter outputs violations in JSON format
type JSONFormatter struct {
	Pretty bool
}

// JSONOutput represents the JSON output structure
type JSONOutput struct {
	Summary    Summary         `json:"summary"`
	Violations []JSONViolation `json:"violations"`
	Rules      []RuleSummary   `json:"rules"`
	Timestamp  string          `json:"timestamp"`
}

type Summary struct {
	TotalViolations int    `json:"total_violations"`
	FilesWithIssues int    `json:"files_with_issues"`
	Status          string `json:"status"`
}

type JSONViolation struct {
	File       string `json:"file"`
	Line       int    `json:"line"`
	Column     int    `json:"column"`
	Rule       string `json:"rule"`
	Severity   string `json:"severity"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
}

type RuleSummary struct {
	ID         string `json:"id"`
	Violations int    `json:"violations"`
}

func (f *JSONFormatter) Format(violations *LintViolations, registry *Registry) ([]byte, error) {
	output := f.buildJSONOutput(violations)

	if f.Pretty {
		return json.MarshalIndent(output, "", "  ")
	}
	return json.Marshal(output)
}

func (f *JSONFormatter) ContentType() string {
	return "application/json"
}

func (f *JSONFormatter) buildJSONOutput(violations *LintViolations) JSONOutput {
	fileMap := make(map[string]bool)
	ruleCount := make(map[string]int)

	jsonViolations := make([]JSONViolation, 0, len(violations.Violations))
	for _, v := range violations.Violations {
		fileMap[v.File] = true
		ruleCount[v.RuleID]++

		jsonViolations = append(jsonViolations, JSONViolation{
			File:       v.File,
			Line:       v.Line,
			Column:     v.Column,
			Rule:       v.RuleID,
			Severity:   v.Severity.String(),
			Message:    v.Message,
			Suggestion: v.Suggestion,
		})
	}

	ruleSummaries := make([]RuleSummary, 0, len(ruleCount))
	for rule, count := range ruleCount {
		ruleSummaries = append(ruleSummaries, RuleSummary{
			ID:         rule,
			Violations: count,
		})
	}
	sort.Slice(ruleSummaries, func(i, j int) bool { return ruleSummaries[i].ID < ruleSummaries[j].ID })

	status := "passed"
	if len(violations.Violations) > 0 {
		status = "failed"
	}

	return JSONOutput{
		Summary: Summary{
			TotalViolations: len(violations.Violations),
			FilesWithIssues: len(fileMap),
			Status:          status,
		},
		Violations: jsonViolations,
		Rules:      ruleSummaries,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}
}

// SARIFFormatter outputs violations in SARIF 2.1.0 format
type SARIFFormatter struct{}

// SARIF structures according to the SARIF 2.1.0 specification
type SARIFOutput struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []SARIFRun `json:"runs"`
}

type SARIFRun struct {
	Tool    SARIFTool     `json:"tool"`
	Results []SARIFResult `json:"results"`
}

type SARIFTool struct {
	Driver SARIFDriver `json:"driver"`
}

type SARIFDriver struct {
	Name            string      `json:"name"`
	InformationURI  string      `json:"informationUri"`
	Version         string      `json:"version"`
	SemanticVersion string      `json:"semanticVersion"`
	Rules           []SARIFRule `json:"rules"`
}

type SARIFRule struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	ShortDescription SARIFMessage    `json:"shortDescription"`
	FullDescription  SARIFMessage    `json:"fullDescription"`
	DefaultConfig    SARIFRuleConfig `json:"defaultConfiguration"`
}

type SARIFMessage struct {
	Text string `json:"text"`
}

type SARIFRuleConfig struct {
	Level string `json:"level"`
}

type SARIFResult struct {
	RuleID    string          `json:"ruleId"`
	Level     string          `json:"level"`
	Message   SARIFMessage    `json:"message"`
	Locations []SARIFLocation `json:"locations"`
}

type SARIFLocation struct {
	PhysicalLocation SARIFPhysicalLocation `json:"physicalLocation"`
}

type SARIFPhysicalLocation struct {
	ArtifactLocation SARIFArtifactLocation `json:"artifactLocation"`
	Region           *SARIFRegion          `json:"region,omitempty"`
}

type SARIFArtifactLocation struct {
	URI string `json:"uri"`
}

type SARIFRegion struct {
	StartLine   int `json:"startLine"`
	StartColumn int `json:"startColumn"`
}

func (f *SARIFFormatter) Format(violations *LintViolations, registry *Registry) ([]byte, error) {
	sarif := f.buildSARIFOutput(violations, registry)
	return json.MarshalIndent(sarif, "", "  ")
}

func (f *SARIFFormatter) ContentType() string {
	return "application/sarif+json"
}

func (f *SARIFFormatter) buildSARIFOutput(violations *LintViolations, registry *Registry) SARIFOutput {
	ruleMap := make(map[string]SARIFRule)
	results := make([]SARIFResult, 0, len(violations.Violations))

	for _, v := range violations.Violations {
		if _, exists := ruleMap[v.RuleID]; !exists {
			sarifRule := SARIFRule{
				ID:   v.RuleID,
				Name: v.RuleID,
				ShortDescription: SARIFMessage{
					Text: v.RuleID,
				},
				DefaultConfig: SARIFRuleConfig{
					Level: v.Severity.SARIFLevel(),
				},
			}
			if registry != nil {
				if rule, ok := registry.Get(v.RuleID); ok {
					sarifRule.Name = rule.Name()
					sarifRule.ShortDescription = SARIFMessage{Text: rule.Name()}
					sarifRule.FullDescription = SARIFMessage{Text: rule.Description()}
				}
			}
			ruleMap[v.RuleID] = sarifRule
		}

		// SARIF columns are 1-indexed
		region := &SARIFRegion{
			StartLine:   v.Line,
			StartColumn: v.Column + 1,
		}

		results = append(results, SARIFResult{
			RuleID: v.RuleID,
			Level:  v.Severity.SARIFLevel(),
			Message: SARIFMessage{
				Text: v.Message,
			},
			Locations: []SARIFLocation{
				{
					PhysicalLocation: SARIFPhysicalLocation{
						ArtifactLocation: SARIFArtifactLocation{
							URI: v.File,
						},
						Region: region,
					},
				},
			},
		})
	}

	rules := make([]SARIFRule, 0, len(ruleMap))
	for _, rule := range ruleMap {
		rules = append(rules, rule)
	}
	sort.Slice(rules, func(i, j int) bool { return rules[i].ID < rules[j].ID })

	return SARIFOutput{
		Schema:  "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/master/Schemata/sarif-schema-2.1.0.json",
		Version: "2.1.0",
		Runs: []SARIFRun{
			{
				Tool: SARIFTool{
					Driver: SARIFDriver{
						Name:            "thailint",
						InformationURI:  "https://github.com/be-wise-be-kind/thai-lint-sub003",
						Version:         Version,
						SemanticVersion: Version,
						Rules:           rules,
					},
				},
				Results: results,
			},
		},
	}
}
