package thailint

import (
	"bufio"
	"bytes"
	"regexp"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"
)

// fileHeaderLines is how far into a file a file-level directive may sit.
const fileHeaderLines = 10

// directivePattern matches suppression directives in comments:
//
//	# thailint: ignore
//	// thailint: ignore[literals.magic-number]
//	# thailint: ignore-file[style.*]
//	# thailint: ignore-method
var directivePattern = regexp.MustCompile(`thailint:\s*(ignore(?:-file|-method)?)(?:\[([^\]]*)\])?`)

// ignoreDirective is one parsed suppression scope. An empty rule list
// suppresses every rule.
type ignoreDirective struct {
	rules []string
}

// matches reports whether the directive suppresses the given rule id.
// Rule scoping supports exact ids and a trailing "prefix.*" wildcard;
// the wildcard matches "prefix.anything" but never bare "prefix".
func (d *ignoreDirective) matches(ruleID string) bool {
	if d == nil {
		return false
	}
	if len(d.rules) == 0 {
		return true
	}
	for _, pattern := range d.rules {
		if ruleMatchesPattern(pattern, ruleID) {
			return true
		}
	}
	return false
}

func ruleMatchesPattern(pattern, ruleID string) bool {
	if pattern == ruleID {
		return true
	}
	if prefix, ok := strings.CutSuffix(pattern, ".*"); ok {
		return strings.HasPrefix(ruleID, prefix+".")
	}
	return false
}

// methodDirective is an ignore-method directive waiting to be bound to
// the function defined directly beneath it.
type methodDirective struct {
	line      int
	directive *ignoreDirective
}

// ignoredSpan is a line range with suppressed rules, produced by binding
// method directives to function spans.
type ignoredSpan struct {
	start, end int
	directive  *ignoreDirective
}

// fileIgnores holds every parsed directive for one file.
type fileIgnores struct {
	wholeFile *ignoreDirective
	lines     map[int]*ignoreDirective
	spans     []ignoredSpan
}

// IgnoreResolver evaluates the five suppression levels against candidate
// violations. A violation is suppressed iff any level matches; levels
// combine with OR, not an override chain. The repo and directory levels
// are also consulted during path expansion so excluded subtrees are
// never listed at all.
type IgnoreResolver struct {
	fs       afero.Fs
	root     string
	patterns []string

	mu         sync.Mutex
	dirMarkers map[string]bool        // dir (relative) -> subtree suppressed
	files      map[string]*fileIgnores // file (relative) -> parsed directives
}

// NewIgnoreResolver builds a resolver from config patterns plus the
// repo-ignore file at the project root.
func NewIgnoreResolver(fs afero.Fs, root string, cfg Config) *IgnoreResolver {
	r := &IgnoreResolver{
		fs:         fs,
		root:       NormalizePath(root),
		patterns:   append([]string(nil), cfg.Ignore...),
		dirMarkers: make(map[string]bool),
		files:      make(map[string]*fileIgnores),
	}

	name := cfg.IgnoreFile
	if name == "" {
		name = ".thailintignore"
	}
	r.patterns = append(r.patterns, readIgnoreFile(fs, JoinPaths(root, name))...)
	return r
}

// readIgnoreFile reads gitignore-style patterns, skipping blanks and comments.
func readIgnoreFile(fs afero.Fs, path string) []string {
	content, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil
	}

	var patterns []string
	scanner := bufio.NewScanner(bytes.NewReader(content))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	return patterns
}

// Reset drops per-file directive state between independent lint runs so
// the resolver never serves stale directives after a file changed.
func (r *IgnoreResolver) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dirMarkers = make(map[string]bool)
	r.files = make(map[string]*fileIgnores)
}

// ExcludedPath reports whether a relative path matches a repo-level
// ignore pattern. This is the cheapest level and runs before language
// detection; the walker calls it for directories too so excluded
// subtrees are pruned without listing their contents.
func (r *IgnoreResolver) ExcludedPath(rel string) bool {
	rel = NormalizePath(rel)
	base := rel
	if idx := strings.LastIndex(rel, "/"); idx >= 0 {
		base = rel[idx+1:]
	}

	for _, pattern := range r.patterns {
		pattern = strings.TrimSuffix(pattern, "/")
		if pattern == "" {
			continue
		}
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
		// A bare directory pattern excludes everything beneath it
		if ok, _ := doublestar.Match(pattern+"/**", rel); ok {
			return true
		}
		if !strings.Contains(pattern, "/") {
			if ok, _ := doublestar.Match(pattern, base); ok {
				return true
			}
		}
	}
	return false
}

// DirectoryIgnored reports whether a directory or any of its ancestors
// up to the root carries a directory-scoped marker. The marker is a
// ".thailintignore" file in a subdirectory; its presence suppresses
// everything beneath (the root copy instead supplies repo patterns).
func (r *IgnoreResolver) DirectoryIgnored(relDir string) bool {
	relDir = NormalizePath(relDir)
	if relDir == "" || relDir == "." {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for dir := relDir; dir != "" && dir != "."; dir = parentDir(dir) {
		if ignored, seen := r.dirMarkers[dir]; seen {
			if ignored {
				return true
			}
			continue
		}
		marker := JoinPaths(r.root, dir, ".thailintignore")
		exists, _ := afero.Exists(r.fs, marker)
		r.dirMarkers[dir] = exists
		if exists {
			return true
		}
	}
	return false
}

func parentDir(dir string) string {
	idx := strings.LastIndex(dir, "/")
	if idx < 0 {
		return ""
	}
	return dir[:idx]
}

// ParseFileDirectives extracts file-, method- and line-level directives
// from a file and binds method directives to function spans. Called once
// per file during the check phase; safe for concurrent use.
func (r *IgnoreResolver) ParseFileDirectives(ctx *LintContext) {
	fi := parseDirectives(ctx)

	r.mu.Lock()
	r.files[ctx.FilePath] = fi
	r.mu.Unlock()
}

func parseDirectives(ctx *LintContext) *fileIgnores {
	fi := &fileIgnores{lines: make(map[int]*ignoreDirective)}

	var methods []methodDirective
	scanner := bufio.NewScanner(bytes.NewReader(ctx.Content))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		match := directivePattern.FindStringSubmatch(line)
		if match == nil {
			continue
		}

		directive := &ignoreDirective{}
		if match[2] != "" {
			for _, rule := range strings.Split(match[2], ",") {
				if rule = strings.TrimSpace(rule); rule != "" {
					directive.rules = append(directive.rules, rule)
				}
			}
		}

		switch match[1] {
		case "ignore-file":
			if lineNo <= fileHeaderLines {
				fi.wholeFile = mergeDirectives(fi.wholeFile, directive)
			}
		case "ignore-method":
			methods = append(methods, methodDirective{line: lineNo, directive: directive})
		case "ignore":
			fi.lines[lineNo] = mergeDirectives(fi.lines[lineNo], directive)
		}
	}

	// Bind each method directive to the function starting directly
	// below it. Spans need the AST; without a grammar they stay unbound.
	if len(methods) > 0 && ctx.Analyzer != nil {
		spans := ctx.Analyzer.FunctionSpans(ctx.Root(), ctx.Content)
		for _, m := range methods {
			for _, span := range spans {
				if span.StartLine > m.line && span.StartLine <= m.line+2 {
					fi.spans = append(fi.spans, ignoredSpan{
						start:     span.StartLine,
						end:       span.EndLine,
						directive: m.directive,
					})
					break
				}
			}
		}
	}

	return fi
}

// mergeDirectives combines two directives at the same scope. A directive
// with no rule filter wins, since it suppresses everything.
func mergeDirectives(existing, incoming *ignoreDirective) *ignoreDirective {
	if existing == nil {
		return incoming
	}
	if len(existing.rules) == 0 || len(incoming.rules) == 0 {
		return &ignoreDirective{}
	}
	existing.rules = append(existing.rules, incoming.rules...)
	return existing
}

// Suppressed reports whether any of the five levels matches the
// violation. Cheap levels (repo, directory) run before the levels that
// needed file parsing.
func (r *IgnoreResolver) Suppressed(v Violation) bool {
	if r.ExcludedPath(v.File) {
		return true
	}
	if r.DirectoryIgnored(DirPath(v.File)) {
		return true
	}

	r.mu.Lock()
	fi := r.files[v.File]
	r.mu.Unlock()
	if fi == nil {
		return false
	}

	if fi.wholeFile.matches(v.RuleID) {
		return true
	}
	for _, span := range fi.spans {
		if v.Line >= span.start && v.Line <= span.end && span.directive.matches(v.RuleID) {
			return true
		}
	}
	return fi.lines[v.Line].matches(v.RuleID)
}

// Filter returns the violations not suppressed at any level.
func (r *IgnoreResolver) Filter(violations []Violation) []Violation {
	kept := violations[:0]
	for _, v := range violations {
		if !r.Suppressed(v) {
			kept = append(kept, v)
		}
	}
	return kept
}
