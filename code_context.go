package thailint

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/afero"
)

// CodeContext represents source code lines around a violation
type CodeContext struct {
	Lines         []CodeLine // Source lines with context
	ViolationLine int        // Which line has the violation (1-indexed)
}

// CodeLine represents a single line of source code
type CodeLine struct {
	Number      int    // Line number (1-indexed)
	Content     string // Line content
	IsViolation bool   // True if this is the violation line
}

// ExtractCodeContext extracts source code around a violation.
// Shows N lines before and after (default 2)
func ExtractCodeContext(fs afero.Fs, v *Violation, contextLines int) (*CodeContext, error) {
	if v == nil || v.Line < 1 {
		return nil, nil
	}

	lines, err := readLines(fs, v.File)
	if err != nil {
		return nil, err
	}

	return buildContext(lines, v.Line, contextLines), nil
}

func readLines(fs afero.Fs, path string) ([]string, error) {
	file, err := fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

func buildContext(lines []string, violationLine, contextLines int) *CodeContext {
	startLine := max(1, violationLine-contextLines)
	endLine := min(len(lines), violationLine+contextLines)

	var codeLines []CodeLine
	for i := startLine; i <= endLine; i++ {
		codeLines = append(codeLines, CodeLine{
			Number:      i,
			Content:     lines[i-1],
			IsViolation: i == violationLine,
		})
	}

	return &CodeContext{
		Lines:         codeLines,
		ViolationLine: violationLine,
	}
}

// Format formats code context with line numbers and violation markers
func (c *CodeContext) Format(useColor bool) string {
	if c == nil || len(c.Lines) == 0 {
		return ""
	}

	var result strings.Builder
	maxLineNum := c.Lines[len(c.Lines)-1].Number
	width := len(fmt.Sprintf("%d", maxLineNum))

	for _, line := range c.Lines {
		marker := " "
		lineColor := ""
		resetColor := ""

		if line.IsViolation {
			marker = ">"
			if useColor {
				lineColor = "\033[31m"
				resetColor = "\033[0m"
			}
		}

		lineNumStr := fmt.Sprintf("%*d", width, line.Number)
		result.WriteString(fmt.Sprintf("%s%s %s | %s%s\n",
			lineColor, marker, lineNumStr, line.Content, resetColor))
	}

	return result.String()
}

// CodeContextCache caches file contents to avoid re-reading for multiple violations
type CodeContextCache struct {
	fs    afero.Fs
	cache map[string][]string
}

// NewCodeContextCache creates a new code context cache
func NewCodeContextCache(fs afero.Fs) *CodeContextCache {
	return &CodeContextCache{
		fs:    fs,
		cache: make(map[string][]string),
	}
}

// GetContext extracts code context using cached file contents
func (cc *CodeContextCache) GetContext(v *Violation, contextLines int) (*CodeContext, error) {
	if v == nil || v.Line < 1 {
		return nil, nil
	}

	lines, exists := cc.cache[v.File]
	if !exists {
		var err error
		lines, err = readLines(cc.fs, v.File)
		if err != nil {
			return nil, err
		}
		cc.cache[v.File] = lines
	}

	return buildContext(lines, v.Line, contextLines), nil
}
