package thailint

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSource(t *testing.T, fs afero.Fs, path, content string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
}

func newMemLinter(t *testing.T, fs afero.Fs, cfg Config) *Linter {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	l, err := NewLinter(cfg, logger, fs, "/proj")
	require.NoError(t, err)
	return l
}

const duplicatedBlock = `a = load(x)
b = transform(a)
c = validate(b)
d = persist(c)
e = notify(d)
`

func TestLintFindsMagicNumber(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeSource(t, fs, "/proj/app.py", "timeout = 37\n")

	l := newMemLinter(t, fs, DefaultConfig())
	violations, err := l.Lint(context.Background(), "/proj")
	require.NoError(t, err)

	require.Len(t, violations.Violations, 1)
	v := violations.Violations[0]
	assert.Equal(t, "literals.magic-number", v.RuleID)
	assert.Equal(t, "app.py", v.File)
	assert.Equal(t, 1, v.Line)
	assert.Empty(t, l.Failures())
}

func TestLintLineDirectiveSuppresses(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeSource(t, fs, "/proj/a.py", "timeout = 37  # thailint: ignore[literals.magic-number]\n")
	writeSource(t, fs, "/proj/b.py", "delay = 53\n")

	l := newMemLinter(t, fs, DefaultConfig())
	violations, err := l.Lint(context.Background(), "/proj")
	require.NoError(t, err)

	require.Len(t, violations.Violations, 1)
	assert.Equal(t, "b.py", violations.Violations[0].File)
}

func TestLintRepoIgnorePatternPrunesDirectory(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeSource(t, fs, "/proj/main.py", "retries = 37\n")
	writeSource(t, fs, "/proj/generated/schema.py", "retries = 53\n")

	cfg := DefaultConfig()
	cfg.Ignore = []string{"generated/"}

	l := newMemLinter(t, fs, cfg)
	violations, err := l.Lint(context.Background(), "/proj")
	require.NoError(t, err)

	require.Len(t, violations.Violations, 1)
	assert.Equal(t, "main.py", violations.Violations[0].File)
}

func TestLintDirectoryMarkerPrunesSubtree(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeSource(t, fs, "/proj/main.py", "retries = 37\n")
	writeSource(t, fs, "/proj/vendor_js/lib.py", "retries = 53\n")
	writeSource(t, fs, "/proj/vendor_js/.thailintignore", "")

	l := newMemLinter(t, fs, DefaultConfig())
	violations, err := l.Lint(context.Background(), "/proj")
	require.NoError(t, err)

	require.Len(t, violations.Violations, 1)
	assert.Equal(t, "main.py", violations.Violations[0].File)
}

func TestLintUnknownLanguageSkipped(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeSource(t, fs, "/proj/notes.txt", "retries = 37\n")
	writeSource(t, fs, "/proj/README.md", "# readme\n")

	l := newMemLinter(t, fs, DefaultConfig())

	violations, err := l.Lint(context.Background(), "/proj")
	require.NoError(t, err)
	assert.True(t, violations.IsEmpty())
	assert.Empty(t, l.Failures(), "unknown language is a skip, not a failure")

	// Even when named explicitly, a file with no detectable language is
	// skipped without a diagnostic.
	violations, err = l.Lint(context.Background(), "/proj/notes.txt")
	require.NoError(t, err)
	assert.True(t, violations.IsEmpty())
	assert.Empty(t, l.Failures())
}

func TestLintShebangOnlyFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeSource(t, fs, "/proj/tool", "#!/usr/bin/env python3\ntimeout = 37\n")

	l := newMemLinter(t, fs, DefaultConfig())
	violations, err := l.Lint(context.Background(), "/proj")
	require.NoError(t, err)

	require.Len(t, violations.Violations, 1)
	assert.Equal(t, "tool", violations.Violations[0].File)
	assert.Equal(t, 2, violations.Violations[0].Line)
}

func TestLintDeterministic(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeSource(t, fs, "/proj/a.py", "x = 37\nprint(x)\n")
	writeSource(t, fs, "/proj/b.py", "y = 53\nprint(y)\n")
	writeSource(t, fs, "/proj/c.py", "def f():\n    try:\n        pass\n    except Exception:\n        pass\n")

	l := newMemLinter(t, fs, DefaultConfig())

	first, err := l.Lint(context.Background(), "/proj")
	require.NoError(t, err)
	second, err := l.Lint(context.Background(), "/proj")
	require.NoError(t, err)

	assert.NotEmpty(t, first.Violations)
	assert.Equal(t, first.Violations, second.Violations)
	assert.Equal(t, 3, l.Stats().FilesProcessed())
}

func TestLintDuplicateCodeAcrossFiles(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeSource(t, fs, "/proj/a.py", duplicatedBlock)
	writeSource(t, fs, "/proj/b.py", duplicatedBlock)

	l := newMemLinter(t, fs, DefaultConfig())
	violations, err := l.Lint(context.Background(), "/proj")
	require.NoError(t, err)

	require.Len(t, violations.Violations, 2)
	for _, v := range violations.Violations {
		assert.Equal(t, "dry.duplicate-code", v.RuleID)
		assert.Equal(t, 1, v.Line)
		assert.Contains(t, v.Message, "5 duplicated lines across 2 locations")
		assert.Contains(t, v.Message, "a.py:1")
	}
	assert.Equal(t, "a.py", violations.Violations[0].File)
	assert.Equal(t, "b.py", violations.Violations[1].File)
}

func TestLintDuplicateOccurrenceSuppression(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeSource(t, fs, "/proj/a.py", duplicatedBlock)
	writeSource(t, fs, "/proj/b.py", duplicatedBlock)
	writeSource(t, fs, "/proj/c.py", "# thailint: ignore-file[dry.duplicate-code]\n"+duplicatedBlock)

	l := newMemLinter(t, fs, DefaultConfig())
	violations, err := l.Lint(context.Background(), "/proj")
	require.NoError(t, err)

	// c.py opts out, but the group survives with the two remaining
	// occurrences.
	require.Len(t, violations.Violations, 2)
	files := []string{violations.Violations[0].File, violations.Violations[1].File}
	assert.Equal(t, []string{"a.py", "b.py"}, files)
	assert.Contains(t, violations.Violations[0].Message, "across 2 locations")
}

func TestLintDuplicateCachePersists(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeSource(t, fs, "/proj/a.py", duplicatedBlock)
	writeSource(t, fs, "/proj/b.py", duplicatedBlock)

	cfg := DefaultConfig()
	cfg.DRY.CacheEnabled = true

	first := newMemLinter(t, fs, cfg)
	cold, err := first.Lint(context.Background(), "/proj")
	require.NoError(t, err)

	// A fresh linter over the same filesystem reuses the cached windows
	// and must report identical violations.
	second := newMemLinter(t, fs, cfg)
	warm, err := second.Lint(context.Background(), "/proj")
	require.NoError(t, err)

	assert.Equal(t, cold.Violations, warm.Violations)
	require.Len(t, warm.Violations, 2)
}

func TestLintWithUnknownRuleID(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeSource(t, fs, "/proj/a.py", "x = 1\n")

	l := newMemLinter(t, fs, DefaultConfig())
	_, err := l.LintWith(context.Background(), LintOptions{Rules: []string{"nope.missing"}, Recursive: true}, "/proj")
	require.Error(t, err)

	info, ok := GetErrorInfo(err)
	require.True(t, ok)
	assert.Equal(t, ErrorTypeConfig, info.Type)
}

func TestLintWithRuleFilter(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeSource(t, fs, "/proj/a.py", "count = 37\nprint(count)\n")

	l := newMemLinter(t, fs, DefaultConfig())
	opts := LintOptions{Rules: []string{"style.print-statement"}, Recursive: true}
	violations, err := l.LintWith(context.Background(), opts, "/proj")
	require.NoError(t, err)

	require.Len(t, violations.Violations, 1)
	assert.Equal(t, "style.print-statement", violations.Violations[0].RuleID)
	assert.Equal(t, 2, violations.Violations[0].Line)
}

func TestLintRuleDisabledByConfig(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeSource(t, fs, "/proj/a.py", "count = 37\nprint(count)\n")

	off := false
	cfg := DefaultConfig()
	cfg.Rules = map[string]RuleConfig{
		"literals.magic-number": {Enabled: &off},
	}

	l := newMemLinter(t, fs, cfg)
	violations, err := l.Lint(context.Background(), "/proj")
	require.NoError(t, err)

	require.Len(t, violations.Violations, 1)
	assert.Equal(t, "style.print-statement", violations.Violations[0].RuleID)
}

func TestLintNonRecursive(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeSource(t, fs, "/proj/top.py", "x = 37\n")
	writeSource(t, fs, "/proj/sub/inner.py", "y = 53\n")

	l := newMemLinter(t, fs, DefaultConfig())
	violations, err := l.LintWith(context.Background(), LintOptions{Recursive: false}, "/proj")
	require.NoError(t, err)

	require.Len(t, violations.Violations, 1)
	assert.Equal(t, "top.py", violations.Violations[0].File)
}

func TestLintExplicitFileTarget(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeSource(t, fs, "/proj/a.py", "x = 37\n")
	writeSource(t, fs, "/proj/b.py", "y = 53\n")

	l := newMemLinter(t, fs, DefaultConfig())
	violations, err := l.Lint(context.Background(), "/proj/b.py")
	require.NoError(t, err)

	require.Len(t, violations.Violations, 1)
	assert.Equal(t, "b.py", violations.Violations[0].File)
}

func TestLintMissingTarget(t *testing.T) {
	fs := afero.NewMemMapFs()
	l := newMemLinter(t, fs, DefaultConfig())

	_, err := l.Lint(context.Background(), "/proj/absent")
	require.Error(t, err)

	info, ok := GetErrorInfo(err)
	require.True(t, ok)
	assert.Equal(t, ErrorTypeFS, info.Type)
}

func TestLintOptionValidation(t *testing.T) {
	fs := afero.NewMemMapFs()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	_, err := NewLinter(DefaultConfig(), logger, fs, "/proj", WithWorkerCount(0))
	assert.Error(t, err)

	_, err = NewLinter(DefaultConfig(), logger, fs, "/proj", WithBufferSize(0))
	assert.Error(t, err)

	l, err := NewLinter(DefaultConfig(), logger, fs, "/proj", WithWorkerCount(2), WithBufferSize(10))
	require.NoError(t, err)
	assert.NotNil(t, l.Registry())
}

func TestLintFileBudgetExceeded(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeSource(t, fs, "/proj/slow.py", "timeout = 37\n")

	l := newMemLinter(t, fs, DefaultConfig())

	// An expired deadline makes the per-file budget elapse before the
	// first rule runs, without depending on wall-clock timing.
	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	violations := l.lintFile(ctx, "/proj/slow.py", nil)
	assert.Empty(t, violations, "an over-budget file contributes no violations")

	failures := l.Failures()
	require.Len(t, failures, 1)
	assert.Equal(t, "slow.py", failures[0].File)
	assert.Equal(t, "analysis budget exceeded", failures[0].Reason)

	// A later run with a healthy context completes and clears the
	// diagnostics from the aborted one.
	out, err := l.Lint(context.Background(), "/proj")
	require.NoError(t, err)
	require.Len(t, out.Violations, 1)
	assert.Empty(t, l.Failures())
}

func TestLintCancelledContext(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeSource(t, fs, "/proj/a.py", "x = 37\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	l := newMemLinter(t, fs, DefaultConfig())
	_, err := l.Lint(ctx, "/proj")
	assert.ErrorIs(t, err, context.Canceled)
}
