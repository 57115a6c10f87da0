package thailint

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/cespare/xxhash/v2"
)

// TokenWindow is a fixed-size contiguous slice of a file's logical-line
// token stream, the unit of duplicate detection.
type TokenWindow struct {
	Hash      uint64
	StartLine int // 1-indexed
	EndLine   int // 1-indexed, inclusive
}

// Occurrence is one location of duplicated code.
type Occurrence struct {
	File      string
	StartLine int
	EndLine   int
}

// DuplicateGroup is two or more locations sharing a token hash over a
// minimum-length window. The canonical occurrence is the first after
// sorting by (file, start line), keeping output deterministic regardless
// of traversal order.
type DuplicateGroup struct {
	Occurrences []Occurrence
}

// Canonical returns the canonical occurrence of the group.
func (g *DuplicateGroup) Canonical() Occurrence {
	return g.Occurrences[0]
}

// Lines returns the span length of the group in logical lines.
func (g *DuplicateGroup) Lines() int {
	c := g.Canonical()
	return c.EndLine - c.StartLine + 1
}

// tokenLine is one logical line: a source line with comments and
// insignificant whitespace stripped, carrying its original line number.
type tokenLine struct {
	line   int
	tokens string
}

// commentSyntax describes how a language writes comments.
type commentSyntax struct {
	linePrefix   string
	blockOpen    string
	blockClose   string
	tripleQuotes bool // Python triple-quoted strings
}

var languageComments = map[Language]commentSyntax{
	LangPython:     {linePrefix: "#", tripleQuotes: true},
	LangTypeScript: {linePrefix: "//", blockOpen: "/*", blockClose: "*/"},
	LangJavaScript: {linePrefix: "//", blockOpen: "/*", blockClose: "*/"},
	LangRust:       {linePrefix: "//", blockOpen: "/*", blockClose: "*/"},
}

// tokenizeLines reduces source to its logical-line token stream:
// comments and blank lines are dropped, runs of whitespace collapse to a
// single space. Matching is exact-token by default; identifiers are not
// normalized, so renamed copies do not count as duplicates.
func tokenizeLines(lang Language, source []byte) []tokenLine {
	syntax, ok := languageComments[lang]
	if !ok {
		return nil
	}

	var lines []tokenLine
	var sb strings.Builder

	inBlockComment := false
	var stringQuote byte // 0 when outside a string
	inTripleString := false
	var tripleQuote byte

	lineNo := 1
	flush := func() {
		tokens := collapseSpaces(sb.String())
		sb.Reset()
		if tokens != "" {
			lines = append(lines, tokenLine{line: lineNo, tokens: tokens})
		}
	}

	src := string(source)
	for i := 0; i < len(src); i++ {
		ch := src[i]

		if ch == '\n' {
			// Strings and block comments may span lines; the token
			// stream keeps string lines, drops comment lines.
			if !inBlockComment {
				flush()
			} else {
				sb.Reset()
			}
			if stringQuote != 0 && !spansLines(lang, stringQuote) {
				// An unterminated quote must not leak into the next
				// line, or every later comment would survive stripping.
				stringQuote = 0
			}
			lineNo++
			continue
		}

		if inBlockComment {
			if syntax.blockClose != "" && strings.HasPrefix(src[i:], syntax.blockClose) {
				inBlockComment = false
				i += len(syntax.blockClose) - 1
			}
			continue
		}

		if inTripleString {
			sb.WriteByte(ch)
			if ch == tripleQuote && strings.HasPrefix(src[i:], strings.Repeat(string(tripleQuote), 3)) {
				sb.WriteString(src[i+1 : i+3])
				i += 2
				inTripleString = false
			}
			continue
		}

		if stringQuote != 0 {
			sb.WriteByte(ch)
			if ch == '\\' && i+1 < len(src) {
				sb.WriteByte(src[i+1])
				i++
			} else if ch == stringQuote {
				stringQuote = 0
			}
			continue
		}

		// Outside strings and comments from here on
		if syntax.tripleQuotes && (ch == '"' || ch == '\'') && strings.HasPrefix(src[i:], strings.Repeat(string(ch), 3)) {
			sb.WriteString(src[i : i+3])
			i += 2
			inTripleString = true
			tripleQuote = ch
			continue
		}
		if lang == LangRust && ch == '\'' && !rustCharLiteral(src, i) {
			// A lifetime or loop label, not a quote
			sb.WriteByte(ch)
			continue
		}
		if ch == '"' || ch == '\'' || (lang != LangPython && ch == '`') {
			stringQuote = ch
			sb.WriteByte(ch)
			continue
		}
		if syntax.linePrefix != "" && strings.HasPrefix(src[i:], syntax.linePrefix) {
			// Drop the rest of the line
			for i < len(src) && src[i] != '\n' {
				i++
			}
			i--
			continue
		}
		if syntax.blockOpen != "" && strings.HasPrefix(src[i:], syntax.blockOpen) {
			inBlockComment = true
			i += len(syntax.blockOpen) - 1
			continue
		}

		sb.WriteByte(ch)
	}
	flush()

	return lines
}

// collapseSpaces trims a line and collapses internal whitespace runs so
// indentation changes do not defeat exact-token matching.
func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// spansLines reports whether a quote kind may legally continue past a
// newline: template literals, and double-quoted strings in Rust.
func spansLines(lang Language, quote byte) bool {
	if quote == '`' {
		return true
	}
	return lang == LangRust && quote == '"'
}

// rustCharLiteral distinguishes a char literal from a lifetime at the
// apostrophe src[i]: a char literal closes after exactly one (possibly
// escaped) character, a lifetime never closes.
func rustCharLiteral(src string, i int) bool {
	j := i + 1
	if j >= len(src) {
		return false
	}
	if src[j] == '\\' {
		j++
		if j < len(src) && src[j] == 'u' {
			// '\u{…}' escape
			for j < len(src) && src[j] != '}' && src[j] != '\n' {
				j++
			}
		}
		j++
	} else {
		_, size := utf8.DecodeRuneInString(src[j:])
		j += size
	}
	return j < len(src) && src[j] == '\''
}

// hashWindows slides a window of windowSize logical lines over the token
// stream and hashes each window's content. Near-linear in total tokens.
func hashWindows(lines []tokenLine, windowSize int) []TokenWindow {
	if windowSize < 2 || len(lines) < windowSize {
		return nil
	}

	windows := make([]TokenWindow, 0, len(lines)-windowSize+1)
	for i := 0; i+windowSize <= len(lines); i++ {
		digest := xxhash.New()
		for j := i; j < i+windowSize; j++ {
			digest.WriteString(lines[j].tokens)
			digest.Write([]byte{'\n'})
		}
		windows = append(windows, TokenWindow{
			Hash:      digest.Sum64(),
			StartLine: lines[i].line,
			EndLine:   lines[i+windowSize-1].line,
		})
	}
	return windows
}

// dryFileRecord is one file's windows, accumulated during the check phase.
type dryFileRecord struct {
	file    string
	windows []TokenWindow
}

// buildDuplicateGroups builds the global hash index and merges
// overlapping windows of one logical duplicate region into maximal
// spans. Runs single-threaded in the finalize pass, after the barrier.
func buildDuplicateGroups(records []dryFileRecord) []*DuplicateGroup {
	// Deterministic input order regardless of worker scheduling
	sort.Slice(records, func(i, j int) bool { return records[i].file < records[j].file })

	index := make(map[uint64][]Occurrence)
	for _, rec := range records {
		for _, w := range rec.windows {
			index[w.Hash] = append(index[w.Hash], Occurrence{
				File:      rec.file,
				StartLine: w.StartLine,
				EndLine:   w.EndLine,
			})
		}
	}

	var groups []*DuplicateGroup
	for _, occurrences := range index {
		if len(occurrences) < 2 {
			continue
		}
		sort.Slice(occurrences, func(i, j int) bool {
			if occurrences[i].File != occurrences[j].File {
				return occurrences[i].File < occurrences[j].File
			}
			return occurrences[i].StartLine < occurrences[j].StartLine
		})
		occurrences = coalesceOccurrences(occurrences)
		if len(occurrences) < 2 {
			// A self-similar run folds into one span; a single
			// location is not a duplicate.
			continue
		}
		groups = append(groups, &DuplicateGroup{Occurrences: occurrences})
	}

	groups = mergeOverlappingGroups(groups)

	sort.Slice(groups, func(i, j int) bool {
		a, b := groups[i].Canonical(), groups[j].Canonical()
		if a.File != b.File {
			return a.File < b.File
		}
		return a.StartLine < b.StartLine
	})
	return groups
}

// coalesceOccurrences folds overlapping same-file occurrences into one
// maximal span. A run of self-similar lines matches itself at every
// offset; without folding, one region surfaces as many overlapping
// hits. Expects occurrences sorted by file then start line.
func coalesceOccurrences(occurrences []Occurrence) []Occurrence {
	out := occurrences[:1]
	for _, occ := range occurrences[1:] {
		last := &out[len(out)-1]
		if occ.File == last.File && occ.StartLine <= last.EndLine {
			if occ.EndLine > last.EndLine {
				last.EndLine = occ.EndLine
			}
			continue
		}
		out = append(out, occ)
	}
	return out
}

// mergeOverlappingGroups chains groups whose occurrence sets are the
// same set of files advanced window-by-window, so one logical duplicate
// region reports as a single maximal span instead of many overlapping
// small hits. Blank and comment lines make line numbers advance
// unevenly, so the chain link is "next window start lies inside the
// current window span" per occurrence. Groups are bucketed by file
// sequence and swept once in start-line order, so the merge stays
// near-linear in the number of groups.
func mergeOverlappingGroups(groups []*DuplicateGroup) []*DuplicateGroup {
	if len(groups) < 2 {
		return groups
	}

	buckets := make(map[string][]*DuplicateGroup)
	var keys []string
	for _, g := range groups {
		key := fileSignature(g.Occurrences)
		if _, ok := buckets[key]; !ok {
			keys = append(keys, key)
		}
		buckets[key] = append(buckets[key], g)
	}
	sort.Strings(keys)

	var out []*DuplicateGroup
	for _, key := range keys {
		bucket := buckets[key]
		sort.Slice(bucket, func(i, j int) bool { return lessByStarts(bucket[i], bucket[j]) })

		// Open chains: spans still within reach of later windows.
		var open []*DuplicateGroup
		for _, g := range bucket {
			// Chains this group starts past can never be continued,
			// since later groups start no earlier.
			live := open[:0]
			for _, chain := range open {
				if chain.Occurrences[0].EndLine+1 < g.Occurrences[0].StartLine {
					out = append(out, chain)
				} else {
					live = append(live, chain)
				}
			}
			open = live

			extended := false
			for _, chain := range open {
				if continues(chain, g) {
					for k := range chain.Occurrences {
						if g.Occurrences[k].EndLine > chain.Occurrences[k].EndLine {
							chain.Occurrences[k].EndLine = g.Occurrences[k].EndLine
						}
					}
					extended = true
					break
				}
			}
			if !extended {
				open = append(open, g)
			}
		}
		out = append(out, open...)
	}
	return out
}

// fileSignature keys a group by its occurrence file sequence. Only
// groups spanning the same files in the same order can chain.
func fileSignature(occurrences []Occurrence) string {
	var sb strings.Builder
	for _, o := range occurrences {
		sb.WriteString(o.File)
		sb.WriteByte(';')
	}
	return sb.String()
}

func lessByStarts(a, b *DuplicateGroup) bool {
	for k := range a.Occurrences {
		if a.Occurrences[k].StartLine != b.Occurrences[k].StartLine {
			return a.Occurrences[k].StartLine < b.Occurrences[k].StartLine
		}
	}
	return false
}

// continues reports whether candidate is the next sliding window of the
// same logical region as current: same files in the same order, each
// start strictly inside the current span, each end extending it by at
// most one window step.
func continues(current, candidate *DuplicateGroup) bool {
	if len(current.Occurrences) != len(candidate.Occurrences) {
		return false
	}
	for k := range current.Occurrences {
		cur, cand := current.Occurrences[k], candidate.Occurrences[k]
		if cur.File != cand.File {
			return false
		}
		if cand.StartLine <= cur.StartLine || cand.StartLine > cur.EndLine+1 {
			return false
		}
		if cand.EndLine < cur.EndLine {
			return false
		}
	}
	return true
}
