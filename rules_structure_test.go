package thailint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNestingDepthExceeded(t *testing.T) {
	source := `def tangled(a, b, c):
    if a:
        for x in b:
            while c:
                if x:
                    if a > x:
                        return x
    return None
`
	ctx := newTestContext(t, LangPython, "tangled.py", source)
	rule := newNestingDepthRule(DefaultConfig())

	violations := rule.Check(ctx)
	require.Len(t, violations, 1)
	assert.Equal(t, "structure.nesting-depth", violations[0].RuleID)
	assert.Contains(t, violations[0].Message, "nesting depth 5")
	assert.Equal(t, 6, violations[0].Line, "report points at the deepest statement")
}

func TestNestingDepthWithinLimit(t *testing.T) {
	source := `def shallow(a, b):
    if a:
        for x in b:
            while x:
                if a > x:
                    return x
    return None
`
	ctx := newTestContext(t, LangPython, "shallow.py", source)
	rule := newNestingDepthRule(DefaultConfig())
	assert.Empty(t, rule.Check(ctx), "depth 4 equals the default maximum and passes")
}

func TestNestingDepthConfigured(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Rules = map[string]RuleConfig{
		"structure.nesting-depth": {Options: map[string]any{"max_depth": 2}},
	}

	source := `def f(a, b):
    if a:
        for x in b:
            if x:
                return x
    return None
`
	ctx := newTestContext(t, LangPython, "cfg.py", source)
	rule := newNestingDepthRule(cfg)

	violations := rule.Check(ctx)
	require.Len(t, violations, 1)
	assert.Contains(t, violations[0].Message, "exceeds maximum 2")
}

func TestNestingDepthNestedFunctionsMeasuredSeparately(t *testing.T) {
	source := `def outer(a):
    if a:
        def inner(b):
            if b:
                if b > 1:
                    if b > 2:
                        if b > 3:
                            return b
        return inner
    return None
`
	ctx := newTestContext(t, LangPython, "nested.py", source)
	rule := newNestingDepthRule(DefaultConfig())

	// outer is depth 1; inner on its own is depth 4. Neither exceeds the
	// default limit, and inner's depth is not stacked on top of outer's.
	assert.Empty(t, rule.Check(ctx))
}

func TestNestingDepthRust(t *testing.T) {
	source := `fn dig(rows: &[Vec<i32>]) -> i32 {
    for row in rows {
        for v in row {
            if *v > 0 {
                match v {
                    1 => {
                        if *v == 1 {
                            return 1;
                        }
                    }
                    _ => {}
                }
            }
        }
    }
    0
}
`
	ctx := newTestContext(t, LangRust, "dig.rs", source)
	rule := newNestingDepthRule(DefaultConfig())

	violations := rule.Check(ctx)
	require.Len(t, violations, 1)
	assert.Contains(t, violations[0].Message, "nesting depth 5")
}

func TestNestingDepthTypeScript(t *testing.T) {
	source := `function probe(xs: number[][]): number {
  for (const row of xs) {
    for (const v of row) {
      if (v > 0) {
        switch (v) {
          case 1:
            if (v === 1) {
              return v;
            }
        }
      }
    }
  }
  return 0;
}
`
	ctx := newTestContext(t, LangTypeScript, "probe.ts", source)
	rule := newNestingDepthRule(DefaultConfig())

	violations := rule.Check(ctx)
	require.Len(t, violations, 1)
	assert.Contains(t, violations[0].Message, "nesting depth 5")
}
