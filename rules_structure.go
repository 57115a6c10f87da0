package thailint

import (
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
)

// nestingNodeTypes lists the statement kinds that open a nesting level.
var nestingNodeTypes = map[Language]map[string]bool{
	LangPython: {
		"if_statement": true, "for_statement": true, "while_statement": true,
		"with_statement": true, "try_statement": true, "match_statement": true,
	},
	LangTypeScript: {
		"if_statement": true, "for_statement": true, "for_in_statement": true,
		"while_statement": true, "do_statement": true, "try_statement": true,
		"switch_statement": true,
	},
	LangJavaScript: {
		"if_statement": true, "for_statement": true, "for_in_statement": true,
		"while_statement": true, "do_statement": true, "try_statement": true,
		"switch_statement": true,
	},
	LangRust: {
		"if_expression": true, "for_expression": true, "while_expression": true,
		"loop_expression": true, "match_expression": true,
	},
}

// nestingDepthRule flags functions whose statement nesting exceeds a
// configured threshold.
type nestingDepthRule struct {
	severity Severity
	maxDepth int
}

func newNestingDepthRule(cfg Config) *nestingDepthRule {
	return &nestingDepthRule{
		severity: cfg.RuleSeverity("structure.nesting-depth", SeverityError),
		maxDepth: cfg.RuleIntOption("structure.nesting-depth", "max_depth", 4),
	}
}

func (r *nestingDepthRule) ID() string   { return "structure.nesting-depth" }
func (r *nestingDepthRule) Name() string { return "Excessive nesting" }
func (r *nestingDepthRule) Description() string {
	return "Deeply nested control flow should be flattened with guard clauses or extracted helpers"
}

func (r *nestingDepthRule) Languages() []Language {
	return []Language{LangPython, LangTypeScript, LangJavaScript, LangRust}
}

func (r *nestingDepthRule) Check(ctx *LintContext) []Violation {
	nesting, ok := nestingNodeTypes[ctx.Language]
	if !ok {
		return nil
	}

	root := ctx.Root()
	if root == nil {
		return nil
	}

	a := ctx.Analyzer
	fnTypes := make(map[string]bool)
	for _, t := range functionNodeTypes[ctx.Language] {
		fnTypes[t] = true
	}

	var violations []Violation
	for _, fn := range a.WalkAny(root, fnTypes) {
		// Closures nested inside a function are walked on their own;
		// measuring them twice would double-report.
		depth, deepest := maxNesting(fn, nesting, fnTypes, 0)
		if depth <= r.maxDepth || a.IsInsideTest(fn, ctx.Content) {
			continue
		}

		line, col := a.Line(fn), a.Column(fn)
		if deepest != nil {
			line, col = a.Line(deepest), a.Column(deepest)
		}
		violations = append(violations, Violation{
			RuleID:     r.ID(),
			File:       ctx.FilePath,
			Line:       line,
			Column:     col,
			Message:    fmt.Sprintf("nesting depth %d exceeds maximum %d", depth, r.maxDepth),
			Severity:   r.severity,
			Suggestion: "flatten with early returns or extract a helper function",
		})
	}
	return violations
}

// maxNesting returns the deepest nesting level under node and the node
// where it occurs. Nested function definitions are not descended into;
// they are measured independently.
func maxNesting(node *sitter.Node, nesting, fnTypes map[string]bool, depth int) (int, *sitter.Node) {
	maxDepth, deepest := depth, (*sitter.Node)(nil)

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if fnTypes[child.Type()] {
			continue
		}

		childDepth := depth
		if nesting[child.Type()] {
			childDepth++
		}
		d, n := maxNesting(child, nesting, fnTypes, childDepth)
		if nesting[child.Type()] && n == nil {
			d, n = childDepth, child
		}
		if d > maxDepth {
			maxDepth, deepest = d, n
		}
	}
	return maxDepth, deepest
}
