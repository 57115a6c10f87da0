package thailint

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Analyzer wraps a tree-sitter grammar for one language and exposes the
// parse/walk/extract operations rules build on. A grammar may be absent;
// callers must check Available and degrade to zero results instead of
// treating a missing grammar as a hard dependency.
type Analyzer struct {
	lang    Language
	grammar *sitter.Language
}

// NewAnalyzer returns the analyzer for a language. For an unsupported
// language the returned analyzer reports Available() == false.
func NewAnalyzer(lang Language) *Analyzer {
	a := &Analyzer{lang: lang}
	switch lang {
	case LangPython:
		a.grammar = python.GetLanguage()
	case LangTypeScript:
		a.grammar = typescript.GetLanguage()
	case LangJavaScript:
		a.grammar = javascript.GetLanguage()
	case LangRust:
		a.grammar = rust.GetLanguage()
	}
	return a
}

// newAnalyzers builds the full adapter set, one per supported language.
func newAnalyzers() map[Language]*Analyzer {
	analyzers := make(map[Language]*Analyzer)
	for _, lang := range []Language{LangPython, LangTypeScript, LangJavaScript, LangRust} {
		analyzers[lang] = NewAnalyzer(lang)
	}
	return analyzers
}

// Available reports whether the grammar for this language is installed.
func (a *Analyzer) Available() bool {
	return a != nil && a.grammar != nil
}

// Language returns the language this analyzer handles
func (a *Analyzer) Language() Language {
	if a == nil {
		return LangUnknown
	}
	return a.lang
}

// Parse parses source into a tree. It never propagates a failure: a
// syntax error yields a best-effort tree (tree-sitter is error tolerant)
// and a missing grammar or parser panic yields nil.
func (a *Analyzer) Parse(ctx context.Context, source []byte) (tree *sitter.Tree) {
	if !a.Available() {
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			tree = nil
		}
	}()

	// New parser instance per call so Parse is safe for concurrent use
	parser := sitter.NewParser()
	parser.SetLanguage(a.grammar)

	parsed, err := parser.ParseCtx(ctx, nil, source)
	if err != nil || parsed == nil || parsed.RootNode() == nil {
		return nil
	}
	return parsed
}

// Walk recursively collects every node of the given type under root.
func (a *Analyzer) Walk(root *sitter.Node, nodeType string) []*sitter.Node {
	if root == nil {
		return nil
	}

	var nodes []*sitter.Node
	var visit func(n *sitter.Node)
	visit = func(n *sitter.Node) {
		if n.Type() == nodeType {
			nodes = append(nodes, n)
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			visit(n.Child(i))
		}
	}
	visit(root)
	return nodes
}

// WalkAny recursively collects every node whose type is in the given set.
func (a *Analyzer) WalkAny(root *sitter.Node, nodeTypes map[string]bool) []*sitter.Node {
	if root == nil {
		return nil
	}

	var nodes []*sitter.Node
	var visit func(n *sitter.Node)
	visit = func(n *sitter.Node) {
		if nodeTypes[n.Type()] {
			nodes = append(nodes, n)
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			visit(n.Child(i))
		}
	}
	visit(root)
	return nodes
}

// Text extracts the source text covered by a node
func (a *Analyzer) Text(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	start, end := node.StartByte(), node.EndByte()
	if int(end) > len(source) || start > end {
		return ""
	}
	return string(source[start:end])
}

// Line returns the 1-indexed start line of a node
func (a *Analyzer) Line(node *sitter.Node) int {
	return int(node.StartPoint().Row) + 1
}

// Column returns the 0-indexed start column of a node
func (a *Analyzer) Column(node *sitter.Node) int {
	return int(node.StartPoint().Column)
}

// functionNodeTypes lists the node types that introduce a function body
// per language.
var functionNodeTypes = map[Language][]string{
	LangPython:     {"function_definition"},
	LangTypeScript: {"function_declaration", "method_definition", "arrow_function", "function_expression", "generator_function_declaration"},
	LangJavaScript: {"function_declaration", "method_definition", "arrow_function", "function_expression", "generator_function_declaration"},
	LangRust:       {"function_item", "closure_expression"},
}

// FuncSpan is the line range of one function definition.
type FuncSpan struct {
	Name      string
	StartLine int // 1-indexed, the line of the definition itself
	EndLine   int // 1-indexed, inclusive
}

// FunctionSpans returns the line span of every function in the tree,
// sorted in document order. Used by the method-level ignore resolver.
func (a *Analyzer) FunctionSpans(root *sitter.Node, source []byte) []FuncSpan {
	if root == nil {
		return nil
	}

	types := make(map[string]bool)
	for _, t := range functionNodeTypes[a.lang] {
		types[t] = true
	}

	var spans []FuncSpan
	for _, node := range a.WalkAny(root, types) {
		name := ""
		if nameNode := node.ChildByFieldName("name"); nameNode != nil {
			name = a.Text(nameNode, source)
		}
		start := a.Line(node)
		// A decorated Python function is anchored at its decorator list;
		// the ignore directive sits above that, so widen to the wrapper.
		if parent := node.Parent(); parent != nil && parent.Type() == "decorated_definition" {
			start = int(parent.StartPoint().Row) + 1
		}
		spans = append(spans, FuncSpan{
			Name:      name,
			StartLine: start,
			EndLine:   int(node.EndPoint().Row) + 1,
		})
	}
	return spans
}

// testMarkers holds the per-language hints that a node lives in test code.
type testMarkers struct {
	funcPrefixes []string
	decorators   []string
	attributes   []string
}

var languageTestMarkers = map[Language]testMarkers{
	LangPython: {
		funcPrefixes: []string{"test_", "Test"},
		decorators:   []string{"pytest.", "unittest."},
	},
	LangTypeScript: {funcPrefixes: []string{"test", "it", "describe"}},
	LangJavaScript: {funcPrefixes: []string{"test", "it", "describe"}},
	LangRust:       {attributes: []string{"test", "cfg(test)", "tokio::test"}},
}

// IsInsideTest walks ancestors of a node looking for test markers:
// test-prefixed function names, pytest/unittest decorators, or Rust
// #[test]/#[cfg(test)] attributes.
func (a *Analyzer) IsInsideTest(node *sitter.Node, source []byte) bool {
	markers := languageTestMarkers[a.lang]

	for n := node; n != nil; n = n.Parent() {
		switch a.lang {
		case LangPython:
			if n.Type() == "function_definition" || n.Type() == "class_definition" {
				if nameNode := n.ChildByFieldName("name"); nameNode != nil {
					name := a.Text(nameNode, source)
					for _, prefix := range markers.funcPrefixes {
						if strings.HasPrefix(name, prefix) {
							return true
						}
					}
				}
			}
			if n.Type() == "decorated_definition" {
				text := a.Text(n, source)
				for _, dec := range markers.decorators {
					if strings.Contains(text, "@"+dec) {
						return true
					}
				}
			}
		case LangTypeScript, LangJavaScript:
			// test bodies are callbacks passed to test()/it()/describe()
			if n.Type() == "call_expression" {
				if fn := n.ChildByFieldName("function"); fn != nil {
					name := a.Text(fn, source)
					for _, marker := range markers.funcPrefixes {
						if name == marker || strings.HasPrefix(name, marker+".") {
							return true
						}
					}
				}
			}
		case LangRust:
			if n.Type() == "function_item" || n.Type() == "mod_item" {
				if hasRustAttribute(a, n, source, markers.attributes) {
					return true
				}
			}
		}
	}
	return false
}

// hasRustAttribute reports whether the sibling attributes preceding a
// node include one of the given names.
func hasRustAttribute(a *Analyzer, node *sitter.Node, source []byte, names []string) bool {
	for sib := node.PrevSibling(); sib != nil; sib = sib.PrevSibling() {
		if sib.Type() != "attribute_item" {
			break
		}
		text := a.Text(sib, source)
		for _, name := range names {
			if strings.Contains(text, name) {
				return true
			}
		}
	}
	return false
}

// IsAsyncFunction reports whether a function node is async.
func (a *Analyzer) IsAsyncFunction(node *sitter.Node, source []byte) bool {
	if node == nil {
		return false
	}

	switch a.lang {
	case LangPython:
		for i := 0; i < int(node.ChildCount()); i++ {
			if node.Child(i).Type() == "async" {
				return true
			}
		}
	case LangTypeScript, LangJavaScript, LangRust:
		// "async" appears as a leading keyword token in all three grammars
		for i := 0; i < int(node.ChildCount()); i++ {
			child := node.Child(i)
			if child.Type() == "async" {
				return true
			}
			if i == 0 && a.Text(child, source) == "async" {
				return true
			}
		}
	}
	return false
}
