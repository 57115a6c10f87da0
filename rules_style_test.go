package thailint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintStatementPython(t *testing.T) {
	source := `def process(items):
    print("processing", len(items))
    return [transform(i) for i in items]
`
	ctx := newTestContext(t, LangPython, "process.py", source)
	rule := newPrintStatementRule(DefaultConfig())

	violations := rule.Check(ctx)
	require.Len(t, violations, 1)
	assert.Equal(t, "style.print-statement", violations[0].RuleID)
	assert.Equal(t, 2, violations[0].Line)
	assert.Equal(t, SeverityWarning, violations[0].Severity)
}

func TestPrintStatementPythonMethodCallNotFlagged(t *testing.T) {
	source := `def render(doc):
    doc.print()
    pprint(doc)
`
	ctx := newTestContext(t, LangPython, "render.py", source)
	rule := newPrintStatementRule(DefaultConfig())
	assert.Empty(t, rule.Check(ctx), "only the builtin print is flagged, not methods or pprint")
}

func TestPrintStatementConsole(t *testing.T) {
	source := `export function save(order: Order): void {
  console.log("saving", order.id);
  console.error("oops");
  logger.info("saved");
}
`
	ctx := newTestContext(t, LangTypeScript, "save.ts", source)
	rule := newPrintStatementRule(DefaultConfig())

	violations := rule.Check(ctx)
	require.Len(t, violations, 2)
	assert.Contains(t, violations[0].Message, "console.log")
	assert.Contains(t, violations[1].Message, "console.error")
}

func TestPrintStatementRustMacros(t *testing.T) {
	source := `fn run(cfg: &Config) {
    println!("starting {}", cfg.name);
    dbg!(&cfg);
    log::info!("started");
}
`
	ctx := newTestContext(t, LangRust, "run.rs", source)
	rule := newPrintStatementRule(DefaultConfig())

	violations := rule.Check(ctx)
	require.Len(t, violations, 2)
	assert.Contains(t, violations[0].Message, "println!")
}

func TestPrintStatementSkipsTests(t *testing.T) {
	pySource := `def test_output():
    print("debug in test is fine")
`
	pyCtx := newTestContext(t, LangPython, "test_out.py", pySource)
	rule := newPrintStatementRule(DefaultConfig())
	assert.Empty(t, rule.Check(pyCtx))

	rsSource := `#[test]
fn prints() {
    println!("ok");
}
`
	rsCtx := newTestContext(t, LangRust, "prints.rs", rsSource)
	assert.Empty(t, rule.Check(rsCtx))
}

func TestPrintStatementConfiguredSeverity(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Rules = map[string]RuleConfig{
		"style.print-statement": {Severity: "error"},
	}

	ctx := newTestContext(t, LangPython, "sev.py", "print(1)\n")
	rule := newPrintStatementRule(cfg)

	violations := rule.Check(ctx)
	require.Len(t, violations, 1)
	assert.Equal(t, SeverityError, violations[0].Severity)
}
