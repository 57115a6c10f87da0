package thailint

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// LintContext is the immutable per-file snapshot handed to rules. It is
// built once per file by the linter and must not be mutated by rules.
type LintContext struct {
	// FilePath is relative to the project root, forward slashes.
	FilePath string
	// AbsPath is the filesystem path the content was read from. Rules
	// report on FilePath; AbsPath exists for content-keyed caching.
	AbsPath string
	// Content is the raw file content.
	Content []byte
	// Language is the detected language tag.
	Language Language
	// Tree is the parsed tree, nil when the grammar is unavailable or
	// parsing failed. Rules needing the AST return nil on a nil tree.
	Tree *sitter.Tree
	// Analyzer is the adapter for ctx.Language, never nil for a known
	// language (it may report Available() == false).
	Analyzer *Analyzer
}

// Root returns the root node of the parsed tree, or nil.
func (c *LintContext) Root() *sitter.Node {
	if c.Tree == nil {
		return nil
	}
	return c.Tree.RootNode()
}

// Rule is a pluggable check identified by a globally unique id.
//
// Check must be a pure function of its context: no state may leak across
// files or across independent Lint invocations. Rules that need
// cross-file knowledge implement StatefulRule as well.
type Rule interface {
	// ID returns the globally unique rule identifier, e.g. "literals.magic-number".
	ID() string
	// Name returns the human-readable rule name.
	Name() string
	// Description explains what the rule checks.
	Description() string
	// Languages lists the languages this rule applies to.
	Languages() []Language
	// Check analyzes one file and returns candidate violations. A rule
	// dispatching over several languages switches on ctx.Language and
	// returns nil for any language it has no handler for, so adding a
	// new language never breaks existing rules.
	Check(ctx *LintContext) []Violation
}

// StatefulRule is a rule that accumulates cross-file state during the
// check phase and emits violations in a finalize pass run exactly once
// after every file has been checked. Reset is called at the start of
// each Lint invocation so long-lived processes never leak state between
// runs.
type StatefulRule interface {
	Rule
	Finalize() []Violation
	Reset()
}

// appliesTo reports whether a rule handles the given language.
func appliesTo(r Rule, lang Language) bool {
	for _, l := range r.Languages() {
		if l == lang {
			return true
		}
	}
	return false
}
