package thailint

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/spf13/afero"
)

// Linter orchestrates a lint run: path expansion, language detection,
// rule dispatch across a worker pool, the finalize pass for cross-file
// rules, suppression filtering and deterministic ordering.
type Linter struct {
	cfg      Config
	logger   *slog.Logger
	fs       afero.Fs
	root     string
	registry *Registry

	analyzers map[Language]*Analyzer
	resolver  *IgnoreResolver
	dryCache  *DryCache

	workerCount int
	bufferSize  int
	progress    ProgressReporter
	stats       *LintStats

	failures *failureLog
}

// LintOptions narrows a lint run.
type LintOptions struct {
	// Rules filters the registry lookup to this subset of ids; nil
	// means every enabled rule.
	Rules []string
	// Recursive controls whether directories are walked.
	Recursive bool
}

// NewLinter builds a linter rooted at root. Registry construction fails
// fast: a duplicate rule id or an invalid cache aborts here, before any
// file is processed.
func NewLinter(cfg Config, logger *slog.Logger, fs afero.Fs, root string, opts ...Option) (*Linter, error) {
	l := &Linter{
		cfg:       cfg,
		logger:    ensureLogger(logger),
		fs:        fs,
		root:      NormalizePath(root),
		analyzers: newAnalyzers(),
		progress:  &NoOpProgressReporter{},
		stats:     &LintStats{},
		failures:  &failureLog{},
	}

	l.workerCount = cfg.Workers
	if l.workerCount < 1 {
		l.workerCount = runtime.NumCPU()
	}
	l.bufferSize = 100

	l.resolver = NewIgnoreResolver(fs, root, cfg)

	if cfg.DRY.CacheEnabled {
		cache, err := NewDryCache(JoinPaths(root, cfg.DRY.CachePath), fs, DryFingerprint(cfg.DRY))
		if err != nil {
			return nil, err
		}
		l.dryCache = cache
	}

	registry, err := buildRegistry(defaultRules(cfg, l.resolver, l.dryCache))
	if err != nil {
		return nil, err
	}
	l.registry = registry

	for _, opt := range opts {
		if err := opt(l); err != nil {
			return nil, err
		}
	}

	return l, nil
}

// ensureLogger creates a default logger if none is provided
func ensureLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	}
	return logger
}

// Registry exposes the rule registry, e.g. for listing rules in the CLI.
func (l *Linter) Registry() *Registry {
	return l.registry
}

// Failures returns the per-file analysis failures of the last run.
// Failures are diagnostics, reported distinctly from violations.
func (l *Linter) Failures() []AnalysisFailure {
	return l.failures.all()
}

// Lint analyzes the given paths recursively with every enabled rule.
func (l *Linter) Lint(ctx context.Context, paths ...string) (*LintViolations, error) {
	return l.LintWith(ctx, LintOptions{Recursive: true}, paths...)
}

// LintWith runs one lint pass. The check phase runs across the worker
// pool; finalize runs single-threaded after all checks complete, since
// cross-file rules need the complete index. The returned violations are
// sorted by (file, line, rule id).
func (l *Linter) LintWith(ctx context.Context, opts LintOptions, paths ...string) (*LintViolations, error) {
	l.stats.begin()
	l.failures.reset()
	l.resolver.Reset()
	for _, rule := range l.registry.Stateful() {
		rule.Reset()
	}

	requested, err := l.requestedRules(opts.Rules)
	if err != nil {
		return nil, err
	}

	files, err := l.collectFiles(ctx, opts.Recursive, paths)
	if err != nil {
		return nil, err
	}

	l.stats.setTotal(len(files))
	l.progress.UpdateProgress(0, len(files))

	violations, err := l.runParallel(ctx, files, requested)
	if err != nil {
		return nil, err
	}

	// Hard barrier: every Check has completed before any Finalize runs
	for _, rule := range l.registry.Stateful() {
		if !l.ruleSelected(rule.ID(), requested) {
			continue
		}
		// Each duplicate-group occurrence can be suppressed on its own
		violations.AddAll(l.resolver.Filter(rule.Finalize()))
	}

	violations.Sort()
	l.stats.end()
	l.progress.Complete(l.stats)

	return violations, nil
}

// requestedRules validates an explicit rule filter against the
// registry. An unknown id is a configuration error, raised before any
// file is processed.
func (l *Linter) requestedRules(ids []string) (map[string]bool, error) {
	if ids == nil {
		return nil, nil
	}
	requested := make(map[string]bool, len(ids))
	for _, id := range ids {
		if _, ok := l.registry.Get(id); !ok {
			return nil, NewConfigError(fmt.Sprintf("unknown rule id %q", id), nil)
		}
		requested[id] = true
	}
	return requested, nil
}

func (l *Linter) ruleSelected(id string, requested map[string]bool) bool {
	if !l.cfg.RuleEnabled(id) {
		return false
	}
	return requested == nil || requested[id]
}

// collectFiles expands target paths to a concrete file list. Repo
// patterns and directory markers are honored during expansion, so
// excluded subtrees are never listed, not just never linted.
func (l *Linter) collectFiles(ctx context.Context, recursive bool, paths []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string

	add := func(path string) {
		path = NormalizePath(path)
		if seen[path] {
			return
		}
		seen[path] = true
		files = append(files, path)
	}

	for _, target := range paths {
		info, err := l.fs.Stat(target)
		if err != nil {
			return nil, WithDetails(WithFile(NewFSError("error accessing path", err), target),
				"Check if the path exists and you have permission to access it")
		}

		if !info.IsDir() {
			if !l.resolver.ExcludedPath(RelPath(l.root, target)) &&
				!l.resolver.DirectoryIgnored(DirPath(RelPath(l.root, target))) {
				add(target)
			}
			continue
		}

		top := NormalizePath(target)
		err = afero.Walk(l.fs, target, func(path string, info os.FileInfo, err error) error {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if err != nil {
				l.logger.Warn("Failed walk", slog.String("path", path), slog.String("error", err.Error()))
				return nil
			}

			rel := RelPath(l.root, path)
			if info.IsDir() {
				if NormalizePath(path) == top {
					return nil
				}
				if !recursive {
					return filepath.SkipDir
				}
				if l.resolver.ExcludedPath(rel) || l.resolver.DirectoryIgnored(rel) {
					return filepath.SkipDir
				}
				return nil
			}

			if l.resolver.ExcludedPath(rel) {
				return nil
			}
			if isSourceFile(path) || DetectLanguage(l.fs, path) != LangUnknown {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	sort.Strings(files)
	return files, nil
}

// lintFile analyzes a single file. Any failure is recovered locally:
// the file contributes zero violations, is logged as a diagnostic and
// never aborts the run.
func (l *Linter) lintFile(ctx context.Context, path string, requested map[string]bool) []Violation {
	rel := RelPath(l.root, path)
	l.logger.Debug("Analyzing file", "path", rel)

	content, err := afero.ReadFile(l.fs, path)
	if err != nil {
		l.failures.add(rel, "unreadable file: "+err.Error())
		return nil
	}

	lang := DetectLanguageFromContent(path, content)
	if lang == LangUnknown {
		// Not an error: an unknown language has zero applicable rules
		return nil
	}

	var rules []Rule
	for _, rule := range l.registry.Applicable(lang) {
		if l.ruleSelected(rule.ID(), requested) {
			rules = append(rules, rule)
		}
	}
	if len(rules) == 0 {
		return nil
	}

	// Per-file analysis budget bounds pathological parse blowups
	timeout := l.cfg.FileTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	fileCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	analyzer := l.analyzers[lang]
	tree := analyzer.Parse(fileCtx, content)
	if tree != nil {
		defer tree.Close()
	}

	lintCtx := &LintContext{
		FilePath: rel,
		AbsPath:  NormalizePath(path),
		Content:  content,
		Language: lang,
		Tree:     tree,
		Analyzer: analyzer,
	}

	l.resolver.ParseFileDirectives(lintCtx)

	var violations []Violation
	for _, rule := range rules {
		if fileCtx.Err() != nil {
			l.failures.add(rel, "analysis budget exceeded")
			return nil
		}
		violations = append(violations, rule.Check(lintCtx)...)
	}

	return l.resolver.Filter(violations)
}

// failureLog collects per-file analysis failures across workers.
type failureLog struct {
	mu       sync.Mutex
	failures []AnalysisFailure
}

func (f *failureLog) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures = nil
}

func (f *failureLog) add(file, reason string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures = append(f.failures, AnalysisFailure{File: file, Reason: reason})
}

func (f *failureLog) all() []AnalysisFailure {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]AnalysisFailure, len(f.failures))
	copy(out, f.failures)
	sort.Slice(out, func(i, j int) bool { return out[i].File < out[j].File })
	return out
}
