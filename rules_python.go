package thailint

import (
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
)

// mutableDefaultArgRule flags Python function parameters defaulting to a
// mutable value. The default is evaluated once at definition time, so
// every call shares the same list/dict/set.
type mutableDefaultArgRule struct {
	severity Severity
}

func newMutableDefaultArgRule(cfg Config) *mutableDefaultArgRule {
	return &mutableDefaultArgRule{
		severity: cfg.RuleSeverity("python.mutable-default-arg", SeverityError),
	}
}

func (r *mutableDefaultArgRule) ID() string   { return "python.mutable-default-arg" }
func (r *mutableDefaultArgRule) Name() string { return "Mutable default argument" }
func (r *mutableDefaultArgRule) Description() string {
	return "Mutable default arguments are shared across calls; default to None instead"
}

func (r *mutableDefaultArgRule) Languages() []Language {
	return []Language{LangPython}
}

var mutableValueTypes = map[string]bool{
	"list": true, "dictionary": true, "set": true,
	"list_comprehension": true, "dictionary_comprehension": true, "set_comprehension": true,
}

var mutableConstructors = map[string]bool{
	"list": true, "dict": true, "set": true,
}

func (r *mutableDefaultArgRule) Check(ctx *LintContext) []Violation {
	root := ctx.Root()
	if root == nil {
		return nil
	}

	a := ctx.Analyzer
	var violations []Violation
	for _, param := range a.WalkAny(root, map[string]bool{
		"default_parameter":       true,
		"typed_default_parameter": true,
	}) {
		value := param.ChildByFieldName("value")
		if value == nil {
			continue
		}

		mutable := mutableValueTypes[value.Type()]
		if value.Type() == "call" {
			if fn := value.ChildByFieldName("function"); fn != nil {
				mutable = mutableConstructors[a.Text(fn, ctx.Content)]
			}
		}
		if !mutable {
			continue
		}

		name := ""
		if nameNode := param.ChildByFieldName("name"); nameNode != nil {
			name = a.Text(nameNode, ctx.Content)
		}
		violations = append(violations, Violation{
			RuleID:     r.ID(),
			File:       ctx.FilePath,
			Line:       a.Line(value),
			Column:     a.Column(value),
			Message:    fmt.Sprintf("mutable default argument %q", name),
			Severity:   r.severity,
			Suggestion: fmt.Sprintf("default %s to None and initialize inside the function", name),
		})
	}
	return violations
}

// broadExceptRule flags Python except clauses that catch everything:
// a bare except, or except Exception/BaseException.
type broadExceptRule struct {
	severity Severity
}

func newBroadExceptRule(cfg Config) *broadExceptRule {
	return &broadExceptRule{
		severity: cfg.RuleSeverity("python.broad-except", SeverityWarning),
	}
}

func (r *broadExceptRule) ID() string   { return "python.broad-except" }
func (r *broadExceptRule) Name() string { return "Broad exception handler" }
func (r *broadExceptRule) Description() string {
	return "Catching Exception or using a bare except hides unrelated failures"
}

func (r *broadExceptRule) Languages() []Language {
	return []Language{LangPython}
}

func (r *broadExceptRule) Check(ctx *LintContext) []Violation {
	root := ctx.Root()
	if root == nil {
		return nil
	}

	a := ctx.Analyzer
	var violations []Violation
	for _, clause := range a.Walk(root, "except_clause") {
		caught := exceptTypes(a, clause, ctx)
		broad := ""
		for _, name := range caught {
			if name == "Exception" || name == "BaseException" {
				broad = name
				break
			}
		}
		if len(caught) > 0 && broad == "" {
			continue
		}

		message := "bare except clause"
		if broad != "" {
			message = fmt.Sprintf("except %s catches all errors", broad)
		}
		violations = append(violations, Violation{
			RuleID:     r.ID(),
			File:       ctx.FilePath,
			Line:       a.Line(clause),
			Column:     a.Column(clause),
			Message:    message,
			Severity:   r.severity,
			Suggestion: "catch the specific exception types this block can handle",
		})
	}
	return violations
}

// exceptTypes returns the caught type names of an except clause, nil
// for a bare except. Handles "except E", "except E as e" and
// "except (E1, E2)" forms.
func exceptTypes(a *Analyzer, clause *sitter.Node, ctx *LintContext) []string {
	for i := 0; i < int(clause.ChildCount()); i++ {
		child := clause.Child(i)
		switch child.Type() {
		case "except", "except*", ":", "block", "comment":
			continue
		case "as_pattern":
			if child.ChildCount() > 0 {
				return caughtNames(a, child.Child(0), ctx)
			}
		default:
			return caughtNames(a, child, ctx)
		}
	}
	return nil
}

func caughtNames(a *Analyzer, node *sitter.Node, ctx *LintContext) []string {
	if node.Type() == "tuple" || node.Type() == "parenthesized_expression" {
		var names []string
		for i := 0; i < int(node.ChildCount()); i++ {
			child := node.Child(i)
			if child.Type() == "identifier" || child.Type() == "attribute" {
				names = append(names, a.Text(child, ctx.Content))
			}
		}
		return names
	}
	return []string{a.Text(node, ctx.Content)}
}
