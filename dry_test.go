package thailint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenizeLinesStripsCommentsAndBlanks(t *testing.T) {
	source := `a = compute()
# a comment line

b = a + fetch()   # trailing comment
c = b    *    2
`
	lines := tokenizeLines(LangPython, []byte(source))
	require.Len(t, lines, 3)

	assert.Equal(t, tokenLine{line: 1, tokens: "a = compute()"}, lines[0])
	assert.Equal(t, tokenLine{line: 4, tokens: "b = a + fetch()"}, lines[1])
	// Whitespace runs collapse so indentation changes do not defeat matching
	assert.Equal(t, tokenLine{line: 5, tokens: "c = b * 2"}, lines[2])
}

func TestTokenizeLinesBlockComments(t *testing.T) {
	source := `let a = 1;
/* block
   comment */
let b = 2; /* inline */ let c = 3;
`
	lines := tokenizeLines(LangTypeScript, []byte(source))
	require.Len(t, lines, 2)
	assert.Equal(t, "let a = 1;", lines[0].tokens)
	assert.Equal(t, "let b = 2; let c = 3;", lines[1].tokens)
	assert.Equal(t, 4, lines[1].line)
}

func TestTokenizeLinesKeepsCommentMarkersInStrings(t *testing.T) {
	source := "url = \"http://example.com\"  # real comment\n"
	lines := tokenizeLines(LangPython, []byte(source))
	require.Len(t, lines, 1)
	assert.Equal(t, `url = "http://example.com"`, lines[0].tokens)
}

func TestTokenizeLinesUnknownLanguage(t *testing.T) {
	assert.Nil(t, tokenizeLines(LangUnknown, []byte("anything\n")))
}

func TestTokenizeLinesRustLifetimes(t *testing.T) {
	source := `static GREETING: &'static str = "hi";
let a = one(); // note a
let b = 'x'; // note b
let c = two(b);
`
	lines := tokenizeLines(LangRust, []byte(source))
	require.Len(t, lines, 4)

	// A lifetime apostrophe is not a quote; later comments still strip.
	assert.Equal(t, `static GREETING: &'static str = "hi";`, lines[0].tokens)
	assert.Equal(t, "let a = one();", lines[1].tokens)
	// A char literal is a quote and survives intact.
	assert.Equal(t, "let b = 'x';", lines[2].tokens)
	assert.Equal(t, "let c = two(b);", lines[3].tokens)
}

func TestTokenizeLinesRustCharEscapes(t *testing.T) {
	source := `let nl = '\n'; // escape
let wide = '\u{7FFF}'; // unicode escape
for x in 'outer: loop { break 'outer; } // label
`
	lines := tokenizeLines(LangRust, []byte(source))
	require.Len(t, lines, 3)
	assert.Equal(t, `let nl = '\n';`, lines[0].tokens)
	assert.Equal(t, `let wide = '\u{7FFF}';`, lines[1].tokens)
	assert.Equal(t, "for x in 'outer: loop { break 'outer; }", lines[2].tokens)
}

func TestTokenizeLinesUnterminatedQuoteResetsAtNewline(t *testing.T) {
	// Python quotes do not span lines; a stray quote on one line must
	// not leak string state into the lines after it.
	source := "label = \"unterminated\nx = compute()  # stripped\n"
	lines := tokenizeLines(LangPython, []byte(source))
	require.Len(t, lines, 2)
	assert.Equal(t, "x = compute()", lines[1].tokens)
}

func TestHashWindowsRustLifetimeCommentInsensitive(t *testing.T) {
	plain := `static GREETING: &'static str = "hi";
let a = one();
let b = 'x';
let c = two(b);
`
	commented := `static GREETING: &'static str = "hi"; // greeting
let a = one(); // first
let b = 'x'; // char
let c = two(b); // second
`
	w1 := hashWindows(tokenizeLines(LangRust, []byte(plain)), 4)
	w2 := hashWindows(tokenizeLines(LangRust, []byte(commented)), 4)
	require.Len(t, w1, 1)
	require.Len(t, w2, 1)
	assert.Equal(t, w1[0].Hash, w2[0].Hash, "comments after a lifetime must not change the hash")
}

func TestHashWindows(t *testing.T) {
	source := `a = one()
b = two()
c = three()
d = four()
`
	lines := tokenizeLines(LangPython, []byte(source))
	windows := hashWindows(lines, 2)
	require.Len(t, windows, 3)

	assert.Equal(t, 1, windows[0].StartLine)
	assert.Equal(t, 2, windows[0].EndLine)
	assert.Equal(t, 3, windows[2].StartLine)
	assert.Equal(t, 4, windows[2].EndLine)
	assert.NotEqual(t, windows[0].Hash, windows[1].Hash)
}

func TestHashWindowsShortInput(t *testing.T) {
	lines := tokenizeLines(LangPython, []byte("a = one()\nb = two()\n"))
	assert.Nil(t, hashWindows(lines, 3), "input shorter than the window yields no windows")
	assert.Nil(t, hashWindows(lines, 1), "window below the minimum yields no windows")
}

func TestHashWindowsIndentationInsensitive(t *testing.T) {
	flat := tokenizeLines(LangPython, []byte("a = one()\nb = two()\nc = three()\n"))
	indented := tokenizeLines(LangPython, []byte("    a = one()\n    b = two()\n    c = three()\n"))

	w1 := hashWindows(flat, 3)
	w2 := hashWindows(indented, 3)
	require.Len(t, w1, 1)
	require.Len(t, w2, 1)
	assert.Equal(t, w1[0].Hash, w2[0].Hash)
}

// sharedBlock is a 5-logical-line region used across the duplicate
// grouping tests.
const sharedBlock = `a = load(x)
b = transform(a)
c = validate(b)
d = persist(c)
e = notify(d)
`

func windowsFor(t *testing.T, source string, window int) []TokenWindow {
	t.Helper()
	lines := tokenizeLines(LangPython, []byte(source))
	return hashWindows(lines, window)
}

func TestBuildDuplicateGroupsMergesOverlap(t *testing.T) {
	// A 5-line block with window 3 produces 3 overlapping windows per
	// file; they must merge into one maximal span, not three findings.
	records := []dryFileRecord{
		{file: "a.py", windows: windowsFor(t, sharedBlock, 3)},
		{file: "b.py", windows: windowsFor(t, sharedBlock, 3)},
	}

	groups := buildDuplicateGroups(records)
	require.Len(t, groups, 1)

	group := groups[0]
	require.Len(t, group.Occurrences, 2)
	assert.Equal(t, Occurrence{File: "a.py", StartLine: 1, EndLine: 5}, group.Occurrences[0])
	assert.Equal(t, Occurrence{File: "b.py", StartLine: 1, EndLine: 5}, group.Occurrences[1])
	assert.Equal(t, 5, group.Lines())
}

func TestBuildDuplicateGroupsManyFiles(t *testing.T) {
	records := []dryFileRecord{
		{file: "c.py", windows: windowsFor(t, sharedBlock, 3)},
		{file: "a.py", windows: windowsFor(t, sharedBlock, 3)},
		{file: "b.py", windows: windowsFor(t, sharedBlock, 3)},
	}

	groups := buildDuplicateGroups(records)
	require.Len(t, groups, 1)
	require.Len(t, groups[0].Occurrences, 3)

	// Canonical occurrence is the earliest by (file, start line)
	assert.Equal(t, "a.py", groups[0].Canonical().File)
}

func TestBuildDuplicateGroupsNoFalsePositives(t *testing.T) {
	records := []dryFileRecord{
		{file: "a.py", windows: windowsFor(t, "a = one()\nb = two()\nc = three()\n", 3)},
		{file: "b.py", windows: windowsFor(t, "x = four()\ny = five()\nz = six()\n", 3)},
	}

	assert.Empty(t, buildDuplicateGroups(records))
}

func TestBuildDuplicateGroupsWithinOneFile(t *testing.T) {
	source := sharedBlock + "other = thing()\n" + sharedBlock
	records := []dryFileRecord{
		{file: "solo.py", windows: windowsFor(t, source, 3)},
	}

	groups := buildDuplicateGroups(records)
	require.Len(t, groups, 1)
	require.Len(t, groups[0].Occurrences, 2)
	assert.Equal(t, 1, groups[0].Occurrences[0].StartLine)
	assert.Equal(t, 7, groups[0].Occurrences[1].StartLine)
}

func TestBuildDuplicateGroupsSelfOverlappingRun(t *testing.T) {
	// 8 identical lines with window 4 match themselves at every offset.
	// Within one file that is a single region, not a duplicate.
	run := "data.append(next_item)\n"
	source := run + run + run + run + run + run + run + run

	solo := []dryFileRecord{
		{file: "a.py", windows: windowsFor(t, source, 4)},
	}
	assert.Empty(t, buildDuplicateGroups(solo))

	// The same run in two files is one group with one maximal span per
	// file, not a hit per window offset.
	pair := []dryFileRecord{
		{file: "a.py", windows: windowsFor(t, source, 4)},
		{file: "b.py", windows: windowsFor(t, source, 4)},
	}
	groups := buildDuplicateGroups(pair)
	require.Len(t, groups, 1)
	require.Len(t, groups[0].Occurrences, 2)
	assert.Equal(t, Occurrence{File: "a.py", StartLine: 1, EndLine: 8}, groups[0].Occurrences[0])
	assert.Equal(t, Occurrence{File: "b.py", StartLine: 1, EndLine: 8}, groups[0].Occurrences[1])
}

func TestBuildDuplicateGroupsBackToBackRepeat(t *testing.T) {
	// Two copies of a block touching end-to-start stay two occurrences;
	// only overlapping spans fold together.
	source := sharedBlock + sharedBlock
	records := []dryFileRecord{
		{file: "solo.py", windows: windowsFor(t, source, 5)},
	}

	groups := buildDuplicateGroups(records)
	require.Len(t, groups, 1)
	require.Len(t, groups[0].Occurrences, 2)
	assert.Equal(t, Occurrence{File: "solo.py", StartLine: 1, EndLine: 5}, groups[0].Occurrences[0])
	assert.Equal(t, Occurrence{File: "solo.py", StartLine: 6, EndLine: 10}, groups[0].Occurrences[1])
}

func TestBuildDuplicateGroupsDeterministic(t *testing.T) {
	build := func(order []string) []*DuplicateGroup {
		var records []dryFileRecord
		for _, f := range order {
			records = append(records, dryFileRecord{file: f, windows: windowsFor(t, sharedBlock, 3)})
		}
		return buildDuplicateGroups(records)
	}

	first := build([]string{"b.py", "a.py", "c.py"})
	second := build([]string{"c.py", "b.py", "a.py"})
	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Occurrences, second[i].Occurrences)
	}
}

func TestRenamedCopiesAreNotDuplicates(t *testing.T) {
	renamed := `p = load(x)
q = transform(p)
r = validate(q)
s = persist(r)
t = notify(s)
`
	records := []dryFileRecord{
		{file: "a.py", windows: windowsFor(t, sharedBlock, 3)},
		{file: "b.py", windows: windowsFor(t, renamed, 3)},
	}

	assert.Empty(t, buildDuplicateGroups(records), "matching is exact-token; renamed identifiers do not count")
}
