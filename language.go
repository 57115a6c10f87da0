package thailint

import (
	"bufio"
	"strings"

	"github.com/spf13/afero"
)

// Language identifies the source language of a file. Rules dispatch on
// this tag explicitly; an unknown language yields zero applicable rules.
type Language int

const (
	LangUnknown Language = iota
	LangPython
	LangTypeScript
	LangJavaScript
	LangRust
)

// String implements the Stringer interface for Language
func (l Language) String() string {
	switch l {
	case LangPython:
		return "python"
	case LangTypeScript:
		return "typescript"
	case LangJavaScript:
		return "javascript"
	case LangRust:
		return "rust"
	default:
		return "unknown"
	}
}

// extensionLanguages maps file extensions to their language.
var extensionLanguages = map[string]Language{
	".py":  LangPython,
	".pyi": LangPython,
	".ts":  LangTypeScript,
	".tsx": LangTypeScript,
	".mts": LangTypeScript,
	".cts": LangTypeScript,
	".js":  LangJavaScript,
	".jsx": LangJavaScript,
	".mjs": LangJavaScript,
	".cjs": LangJavaScript,
	".rs":  LangRust,
}

// shebangLanguages maps interpreter names found in a shebang line to
// their language. Used when the extension lookup misses.
var shebangLanguages = map[string]Language{
	"python":  LangPython,
	"python3": LangPython,
	"node":    LangJavaScript,
	"deno":    LangTypeScript,
	"ts-node": LangTypeScript,
}

// DetectLanguage maps a file path to a language identifier. Extension
// lookup runs first; on a miss the first line is read and checked for a
// shebang interpreter hint. An unknown language is not an error.
func DetectLanguage(fs afero.Fs, path string) Language {
	name := NormalizePath(path)
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		if lang, ok := extensionLanguages[strings.ToLower(name[idx:])]; ok {
			return lang
		}
	}

	return detectShebang(fs, path)
}

// DetectLanguageFromContent resolves a language for content already in
// memory, used by watch mode where the file may be mid-rewrite on disk.
func DetectLanguageFromContent(path string, content []byte) Language {
	name := NormalizePath(path)
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		if lang, ok := extensionLanguages[strings.ToLower(name[idx:])]; ok {
			return lang
		}
	}

	line, _, _ := strings.Cut(string(content), "\n")
	return shebangLanguage(line)
}

// detectShebang reads the first line of a file and checks interpreter hints
func detectShebang(fs afero.Fs, path string) Language {
	file, err := fs.Open(path)
	if err != nil {
		return LangUnknown
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	if !scanner.Scan() {
		return LangUnknown
	}
	return shebangLanguage(scanner.Text())
}

// shebangLanguage resolves a language from a shebang line like
// "#!/usr/bin/env python3" or "#!/usr/bin/python".
func shebangLanguage(line string) Language {
	if !strings.HasPrefix(line, "#!") {
		return LangUnknown
	}

	fields := strings.Fields(strings.TrimPrefix(line, "#!"))
	if len(fields) == 0 {
		return LangUnknown
	}

	interpreter := fields[0]
	// "#!/usr/bin/env python3" names the interpreter in the second field
	if strings.HasSuffix(interpreter, "/env") && len(fields) > 1 {
		interpreter = fields[1]
	}

	// Strip the directory portion and a trailing version suffix like "3.12"
	if idx := strings.LastIndex(interpreter, "/"); idx >= 0 {
		interpreter = interpreter[idx+1:]
	}
	if lang, ok := shebangLanguages[interpreter]; ok {
		return lang
	}
	base := strings.TrimRight(interpreter, "0123456789.")
	if lang, ok := shebangLanguages[base]; ok {
		return lang
	}
	return LangUnknown
}

// sourceExtensions returns true if the path carries an extension this
// linter analyzes. Used by the walker and watch mode to skip other files.
func isSourceFile(path string) bool {
	name := NormalizePath(path)
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		_, ok := extensionLanguages[strings.ToLower(name[idx:])]
		return ok
	}
	return false
}
