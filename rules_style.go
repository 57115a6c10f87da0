package thailint

import (
	"fmt"
	"strings"
)

// printStatementRule flags debug printing left in production code:
// print() in Python, console.* in TypeScript/JavaScript, and the
// print-family macros in Rust.
type printStatementRule struct {
	severity Severity
}

func newPrintStatementRule(cfg Config) *printStatementRule {
	return &printStatementRule{
		severity: cfg.RuleSeverity("style.print-statement", SeverityWarning),
	}
}

func (r *printStatementRule) ID() string   { return "style.print-statement" }
func (r *printStatementRule) Name() string { return "Print statement" }
func (r *printStatementRule) Description() string {
	return "Debug print calls should be replaced with structured logging"
}

func (r *printStatementRule) Languages() []Language {
	return []Language{LangPython, LangTypeScript, LangJavaScript, LangRust}
}

var rustPrintMacros = map[string]bool{
	"println": true, "print": true, "eprintln": true, "eprint": true, "dbg": true,
}

func (r *printStatementRule) Check(ctx *LintContext) []Violation {
	root := ctx.Root()
	if root == nil {
		return nil
	}

	a := ctx.Analyzer
	var violations []Violation

	switch ctx.Language {
	case LangPython:
		for _, node := range a.Walk(root, "call") {
			fn := node.ChildByFieldName("function")
			if fn == nil || a.Text(fn, ctx.Content) != "print" {
				continue
			}
			if a.IsInsideTest(node, ctx.Content) {
				continue
			}
			violations = append(violations, r.violation(ctx, a.Line(node), a.Column(node), "print()", "use the logging module"))
		}
	case LangTypeScript, LangJavaScript:
		for _, node := range a.Walk(root, "call_expression") {
			fn := node.ChildByFieldName("function")
			if fn == nil {
				continue
			}
			name := a.Text(fn, ctx.Content)
			if !strings.HasPrefix(name, "console.") {
				continue
			}
			if a.IsInsideTest(node, ctx.Content) {
				continue
			}
			violations = append(violations, r.violation(ctx, a.Line(node), a.Column(node), name+"()", "use a structured logger"))
		}
	case LangRust:
		for _, node := range a.Walk(root, "macro_invocation") {
			macro := node.ChildByFieldName("macro")
			if macro == nil || !rustPrintMacros[a.Text(macro, ctx.Content)] {
				continue
			}
			if a.IsInsideTest(node, ctx.Content) {
				continue
			}
			violations = append(violations, r.violation(ctx, a.Line(node), a.Column(node), a.Text(macro, ctx.Content)+"!", "use the log or tracing crate"))
		}
	default:
		// Deliberate no-op so a new language never breaks this rule
		return nil
	}

	return violations
}

func (r *printStatementRule) violation(ctx *LintContext, line, col int, call, suggestion string) Violation {
	return Violation{
		RuleID:     r.ID(),
		File:       ctx.FilePath,
		Line:       line,
		Column:     col,
		Message:    fmt.Sprintf("%s left in production code", call),
		Severity:   r.severity,
		Suggestion: suggestion,
	}
}
