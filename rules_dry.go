package thailint

import (
	"fmt"
	"sync"
)

// duplicateCodeRule is the cross-file duplicate detector. Check
// tokenizes each file (or reuses cached windows) and records it; the
// global hash index and group merging run in Finalize, after every file
// has been checked.
//
// Accumulated state: the per-file window records gathered during the
// check phase, plus cache entries pending a write. Reset clears both at
// the start of every Lint invocation.
type duplicateCodeRule struct {
	severity Severity
	window   int
	resolver *IgnoreResolver
	cache    *DryCache // nil when the persistent cache is disabled

	mu      sync.Mutex
	records []dryFileRecord
	pending map[string][]TokenWindow
}

func newDuplicateCodeRule(cfg Config, resolver *IgnoreResolver, cache *DryCache) *duplicateCodeRule {
	return &duplicateCodeRule{
		severity: cfg.RuleSeverity("dry.duplicate-code", SeverityError),
		window:   cfg.DRY.MinDuplicateLines,
		resolver: resolver,
		cache:    cache,
		pending:  make(map[string][]TokenWindow),
	}
}

func (r *duplicateCodeRule) ID() string   { return "dry.duplicate-code" }
func (r *duplicateCodeRule) Name() string { return "Duplicate code" }
func (r *duplicateCodeRule) Description() string {
	return "Identical token sequences above a minimum window length should be extracted"
}

func (r *duplicateCodeRule) Languages() []Language {
	return []Language{LangPython, LangTypeScript, LangJavaScript, LangRust}
}

// Check computes the file's token windows. The cache is read here, in
// the parallel phase; writes are deferred to Finalize so the store sees
// no contention.
func (r *duplicateCodeRule) Check(ctx *LintContext) []Violation {
	windows, fromCache := r.cachedWindows(ctx.AbsPath)
	if !fromCache {
		windows = hashWindows(tokenizeLines(ctx.Language, ctx.Content), r.window)
	}

	r.mu.Lock()
	r.records = append(r.records, dryFileRecord{file: ctx.FilePath, windows: windows})
	if r.cache != nil && !fromCache {
		r.pending[ctx.AbsPath] = windows
	}
	r.mu.Unlock()

	// Violations are emitted in Finalize, once the index is complete
	return nil
}

func (r *duplicateCodeRule) cachedWindows(path string) ([]TokenWindow, bool) {
	if r.cache == nil {
		return nil, false
	}
	windows, err := r.cache.Windows(path)
	if err != nil {
		// Misses, stale entries and decode failures all just mean
		// re-tokenization; the cache never affects semantics.
		return nil, false
	}
	return windows, true
}

// Finalize builds the duplicate groups and reports one violation per
// unsuppressed occurrence. Suppression is per-occurrence: a group still
// reports while at least two unsuppressed occurrences remain, and the
// earliest surviving occurrence becomes canonical.
func (r *duplicateCodeRule) Finalize() []Violation {
	r.mu.Lock()
	records := r.records
	pending := r.pending
	r.mu.Unlock()

	r.flushCache(pending)

	var violations []Violation
	for _, group := range buildDuplicateGroups(records) {
		kept := group.Occurrences[:0]
		for _, occ := range group.Occurrences {
			probe := Violation{RuleID: r.ID(), File: occ.File, Line: occ.StartLine}
			if r.resolver == nil || !r.resolver.Suppressed(probe) {
				kept = append(kept, occ)
			}
		}
		if len(kept) < 2 {
			continue
		}
		group.Occurrences = kept

		canonical := group.Canonical()
		for _, occ := range group.Occurrences {
			violations = append(violations, Violation{
				RuleID:     r.ID(),
				File:       occ.File,
				Line:       occ.StartLine,
				Column:     0,
				Message:    fmt.Sprintf("%d duplicated lines across %d locations (first at %s:%d)", group.Lines(), len(group.Occurrences), canonical.File, canonical.StartLine),
				Severity:   r.severity,
				Suggestion: "extract the shared logic into a single helper",
			})
		}
	}
	return violations
}

func (r *duplicateCodeRule) flushCache(pending map[string][]TokenWindow) {
	if r.cache == nil {
		return
	}
	for path, windows := range pending {
		// Best effort; a failed write only costs a future re-tokenization
		_ = r.cache.Store(path, windows)
	}
}

// Reset clears all accumulated state between independent lint runs.
func (r *duplicateCodeRule) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = nil
	r.pending = make(map[string][]TokenWindow)
}
