package thailint

// This file contains the enhanced text formatter with color support
// It's added as a separate file to avoid modification conflicts

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
)

// ColorMode represents when to use colors in output
type ColorMode string

const (
	// ColorAuto automatically detects TTY and enables colors appropriately
	ColorAuto ColorMode = "auto"
	// ColorAlways forces colors to be enabled
	ColorAlways ColorMode = "always"
	// ColorNever disables colors
	ColorNever ColorMode = "never"
)

// EnhancedTextFormatter outputs violations with ANSI colors
type EnhancedTextFormatter struct {
	// ColorMode controls when to enable colors (auto, always, never)
	ColorMode ColorMode
	// GroupByRule when true groups violations by rule instead of file
	GroupByRule bool
	// Writer is the output destination (defaults to os.Stdout)
	Writer io.Writer
}

// NewEnhancedTextFormatter creates a formatter with sensible defaults
func NewEnhancedTextFormatter() *EnhancedTextFormatter {
	return &EnhancedTextFormatter{
		ColorMode:   ColorAuto,
		GroupByRule: false,
		Writer:      os.Stdout,
	}
}

func (f *EnhancedTextFormatter) Format(violations *LintViolations, registry *Registry) ([]byte, error) {
	enableColor := f.shouldEnableColor()

	var sb strings.Builder

	if enableColor {
		sb.WriteString(f.formatWithColors(violations))
	} else {
		if f.GroupByRule {
			sb.WriteString(violations.PrintByRule())
		} else {
			sb.WriteString(violations.PrintByFile())
		}
	}

	return []byte(sb.String()), nil
}

func (f *EnhancedTextFormatter) ContentType() string {
	return "text/plain"
}

// shouldEnableColor determines if colors should be enabled based on the ColorMode
func (f *EnhancedTextFormatter) shouldEnableColor() bool {
	switch f.ColorMode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	case ColorAuto:
		writer := f.Writer
		if writer == nil {
			writer = os.Stdout
		}

		if file, ok := writer.(*os.File); ok {
			fileInfo, err := file.Stat()
			if err != nil {
				return false
			}
			return (fileInfo.Mode() & os.ModeCharDevice) != 0
		}
		return false
	default:
		return false
	}
}

// formatWithColors creates the colored report
func (f *EnhancedTextFormatter) formatWithColors(violations *LintViolations) string {
	var sb strings.Builder

	errorColor := color.New(color.FgRed, color.Bold)
	warningColor := color.New(color.FgYellow, color.Bold)
	infoColor := color.New(color.FgBlue, color.Bold)
	fileColor := color.New(color.FgCyan, color.Bold)
	successColor := color.New(color.FgGreen, color.Bold)
	boxColor := color.New(color.FgHiBlack)
	ruleColor := color.New(color.FgYellow)

	boxTop := "╭─────────────────────────────────────────────────────╮"
	boxBottom := "╰─────────────────────────────────────────────────────╯"

	sb.WriteString(boxColor.Sprint(boxTop) + "\n")
	sb.WriteString(boxColor.Sprint("│") + "  " + color.New(color.Bold).Sprint("Thailint") + strings.Repeat(" ", 43) + boxColor.Sprint("│") + "\n")

	if violations.IsEmpty() {
		sb.WriteString(boxColor.Sprint("│") + "  " + successColor.Sprint("No violations found!") + strings.Repeat(" ", 31) + boxColor.Sprint("│") + "\n")
		sb.WriteString(boxColor.Sprint(boxBottom) + "\n")
		return sb.String()
	}

	errorCount, warningCount, infoCount := f.countBySeverity(violations)
	totalCount := len(violations.Violations)

	fileMap := make(map[string]bool)
	for _, v := range violations.Violations {
		fileMap[v.File] = true
	}

	summaryText := fmt.Sprintf("Found %d violations in %d files", totalCount, len(fileMap))
	padding := 53 - len(summaryText) - 2
	if padding < 0 {
		padding = 0
	}
	sb.WriteString(boxColor.Sprint("│") + "  " + summaryText + strings.Repeat(" ", padding) + boxColor.Sprint("│") + "\n")
	sb.WriteString(boxColor.Sprint(boxBottom) + "\n\n")

	if f.GroupByRule {
		f.formatByRule(&sb, violations, errorColor, warningColor, infoColor, fileColor, ruleColor)
	} else {
		f.formatByFile(&sb, violations, errorColor, warningColor, infoColor, fileColor, ruleColor)
	}

	sb.WriteString(boxColor.Sprint(boxTop) + "\n")

	summaryParts := make([]string, 0, 3)
	if errorCount > 0 {
		summaryParts = append(summaryParts, errorColor.Sprintf("%d errors", errorCount))
	}
	if warningCount > 0 {
		summaryParts = append(summaryParts, warningColor.Sprintf("%d warnings", warningCount))
	}
	if infoCount > 0 {
		summaryParts = append(summaryParts, infoColor.Sprintf("%d info", infoCount))
	}

	summaryLine := "Summary: " + strings.Join(summaryParts, ", ")
	plainSummary := stripAnsiCodes(summaryLine)
	padding = 53 - len(plainSummary) - 2
	if padding < 0 {
		padding = 0
	}
	sb.WriteString(boxColor.Sprint("│") + "  " + summaryLine + strings.Repeat(" ", padding) + boxColor.Sprint("│") + "\n")
	sb.WriteString(boxColor.Sprint(boxBottom) + "\n")

	return sb.String()
}

// formatByFile groups violations by file
func (f *EnhancedTextFormatter) formatByFile(sb *strings.Builder, violations *LintViolations,
	errorColor, warningColor, infoColor, fileColor, ruleColor *color.Color) {

	fileViolations := make(map[string][]Violation)
	for _, v := range violations.Violations {
		fileViolations[v.File] = append(fileViolations[v.File], v)
	}

	for _, file := range sortedKeys(fileViolations) {
		viols := fileViolations[file]
		sb.WriteString(fileColor.Sprintf("📁 %s", file))
		sb.WriteString(color.HiBlackString(" (%d violations)", len(viols)))
		sb.WriteString("\n\n")

		for i := range viols {
			f.formatViolation(sb, &viols[i], errorColor, warningColor, infoColor, ruleColor)
		}

		sb.WriteString("\n")
	}
}

// formatByRule groups violations by rule
func (f *EnhancedTextFormatter) formatByRule(sb *strings.Builder, violations *LintViolations,
	errorColor, warningColor, infoColor, fileColor, ruleColor *color.Color) {

	ruleViolations := make(map[string][]Violation)
	for _, v := range violations.Violations {
		ruleViolations[v.RuleID] = append(ruleViolations[v.RuleID], v)
	}

	for _, rule := range sortedKeys(ruleViolations) {
		viols := ruleViolations[rule]
		sb.WriteString(ruleColor.Sprintf("📋 Rule: %s", rule))
		sb.WriteString(color.HiBlackString(" (%d violations)", len(viols)))
		sb.WriteString("\n\n")

		for i := range viols {
			f.formatViolation(sb, &viols[i], errorColor, warningColor, infoColor, ruleColor)
		}

		sb.WriteString("\n")
	}
}

// formatViolation formats a single violation with colors
func (f *EnhancedTextFormatter) formatViolation(sb *strings.Builder, v *Violation,
	errorColor, warningColor, infoColor, ruleColor *color.Color) {

	var icon string
	var severityColor *color.Color

	switch v.Severity {
	case SeverityWarning:
		icon = "⚠️ "
		severityColor = warningColor
	case SeverityInfo:
		icon = "ℹ️ "
		severityColor = infoColor
	default:
		icon = "❌"
		severityColor = errorColor
	}

	position := fmt.Sprintf("line %d", v.Line)
	if v.Column > 0 {
		position += fmt.Sprintf(":%d", v.Column)
	}

	sb.WriteString("  ")
	sb.WriteString(icon)
	sb.WriteString(" ")
	sb.WriteString(v.Message)
	sb.WriteString(color.HiBlackString(" · %s", position))
	sb.WriteString("\n")

	sb.WriteString("     ")
	sb.WriteString(color.HiBlackString("Rule: "))
	sb.WriteString(ruleColor.Sprint(v.RuleID))
	sb.WriteString("\n")

	sb.WriteString("     ")
	sb.WriteString(color.HiBlackString("Severity: "))
	sb.WriteString(severityColor.Sprint(v.Severity.String()))
	sb.WriteString("\n")

	if v.Suggestion != "" {
		sb.WriteString("     ")
		sb.WriteString(color.HiBlackString("Suggestion: "))
		sb.WriteString(v.Suggestion)
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
}

// countBySeverity counts violations by severity level
func (f *EnhancedTextFormatter) countBySeverity(violations *LintViolations) (errors, warnings, infos int) {
	for _, v := range violations.Violations {
		switch v.Severity {
		case SeverityWarning:
			warnings++
		case SeverityInfo:
			infos++
		default:
			errors++
		}
	}
	return
}

func sortedKeys(m map[string][]Violation) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// stripAnsiCodes removes ANSI color codes from a string for length calculation
func stripAnsiCodes(s string) string {
	inEscape := false
	var result strings.Builder

	for _, r := range s {
		if r == '\033' {
			inEscape = true
			continue
		}
		if inEscape {
			if r == 'm' {
				inEscape = false
			}
			continue
		}
		result.WriteRune(r)
	}

	return result.String()
}
