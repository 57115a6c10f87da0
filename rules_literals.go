package thailint

import (
	"fmt"
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// defaultAllowedNumbers are literals too common to be worth naming.
var defaultAllowedNumbers = map[string]bool{
	"-1": true, "0": true, "1": true, "2": true,
	"10": true, "100": true, "1000": true,
	"0.0": true, "1.0": true, "0.5": true,
}

// numericLiteralTypes per language.
var numericLiteralTypes = map[Language]map[string]bool{
	LangPython:     {"integer": true, "float": true},
	LangTypeScript: {"number": true},
	LangJavaScript: {"number": true},
	LangRust:       {"integer_literal": true, "float_literal": true},
}

// magicNumberRule flags numeric literals that should be named constants.
// It dispatches over all four languages; the AST predicate is the same
// shape everywhere, only the node types differ.
type magicNumberRule struct {
	severity Severity
	allowed  map[string]bool
}

func newMagicNumberRule(cfg Config) *magicNumberRule {
	return &magicNumberRule{
		severity: cfg.RuleSeverity("literals.magic-number", SeverityError),
		allowed:  cfg.RuleNumberSetOption("literals.magic-number", "allowed", defaultAllowedNumbers),
	}
}

func (r *magicNumberRule) ID() string   { return "literals.magic-number" }
func (r *magicNumberRule) Name() string { return "Magic number" }
func (r *magicNumberRule) Description() string {
	return "Numeric literals outside an allowed set should be named constants"
}

func (r *magicNumberRule) Languages() []Language {
	return []Language{LangPython, LangTypeScript, LangJavaScript, LangRust}
}

func (r *magicNumberRule) Check(ctx *LintContext) []Violation {
	types, ok := numericLiteralTypes[ctx.Language]
	if !ok {
		// No handler for this language; deliberate no-op default
		return nil
	}

	root := ctx.Root()
	if root == nil {
		return nil
	}

	a := ctx.Analyzer
	var violations []Violation
	for _, node := range a.WalkAny(root, types) {
		literal := r.literalText(a, node, ctx)
		if r.allowed[literal] {
			continue
		}
		if a.IsInsideTest(node, ctx.Content) {
			continue
		}
		if inConstantDefinition(a, node, ctx) {
			continue
		}

		violations = append(violations, Violation{
			RuleID:     r.ID(),
			File:       ctx.FilePath,
			Line:       a.Line(node),
			Column:     a.Column(node),
			Message:    fmt.Sprintf("magic number %s", literal),
			Severity:   r.severity,
			Suggestion: fmt.Sprintf("extract %s into a named constant", literal),
		})
	}
	return violations
}

// rustNumericSuffixes, longest first so "i128" is tried before "i8".
var rustNumericSuffixes = []string{
	"isize", "usize", "i128", "u128",
	"i64", "u64", "f64", "i32", "u32", "f32", "i16", "u16",
	"i8", "u8",
}

// literalText normalizes a numeric literal for comparison: digit
// separators and Rust type suffixes are stripped, a unary minus parent
// folds into the value.
func (r *magicNumberRule) literalText(a *Analyzer, node *sitter.Node, ctx *LintContext) string {
	text := a.Text(node, ctx.Content)
	text = strings.ReplaceAll(text, "_", "")
	if ctx.Language == LangRust {
		for _, suffix := range rustNumericSuffixes {
			if trimmed, ok := strings.CutSuffix(text, suffix); ok && trimmed != "" {
				text = trimmed
				break
			}
		}
	}

	if parent := node.Parent(); parent != nil {
		parentText := a.Text(parent, ctx.Content)
		if (parent.Type() == "unary_operator" || parent.Type() == "unary_expression") &&
			strings.HasPrefix(parentText, "-") {
			text = "-" + text
		}
	}
	return text
}

// inConstantDefinition reports whether a literal initializes a constant:
// a Rust const/static item, or an assignment to an ALL_CAPS name in
// Python/TypeScript/JavaScript.
func inConstantDefinition(a *Analyzer, node *sitter.Node, ctx *LintContext) bool {
	for n := node.Parent(); n != nil; n = n.Parent() {
		switch n.Type() {
		case "const_item", "static_item", "enum_variant":
			return true
		case "assignment", "variable_declarator":
			if left := n.ChildByFieldName("left"); left != nil {
				return isUpperSnake(a.Text(left, ctx.Content))
			}
			if name := n.ChildByFieldName("name"); name != nil {
				return isUpperSnake(a.Text(name, ctx.Content))
			}
		case "function_definition", "function_declaration", "function_item":
			return false
		}
	}
	return false
}

// isUpperSnake reports whether a name is ALL_CAPS with optional digits.
func isUpperSnake(name string) bool {
	if name == "" {
		return false
	}
	hasLetter := false
	for _, r := range name {
		switch {
		case r >= 'A' && r <= 'Z':
			hasLetter = true
		case r == '_' || (r >= '0' && r <= '9'):
		default:
			return false
		}
	}
	return hasLetter
}

// canonicalNumber renders a config-supplied number the way literalText
// renders source literals, so the two compare directly.
func canonicalNumber(value any) string {
	switch n := value.(type) {
	case int:
		return strconv.Itoa(n)
	case int64:
		return strconv.FormatInt(n, 10)
	case float64:
		if n == float64(int64(n)) {
			// YAML parses "1.0" as float; match the "1.0" source form
			return strconv.FormatFloat(n, 'f', 1, 64)
		}
		return strconv.FormatFloat(n, 'f', -1, 64)
	case string:
		return n
	default:
		return fmt.Sprintf("%v", value)
	}
}
