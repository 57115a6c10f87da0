package thailint

import (
	"testing"

	"github.com/spf13/afero"
)

func TestDetectLanguageByExtension(t *testing.T) {
	fs := afero.NewMemMapFs()

	tests := []struct {
		path string
		want Language
	}{
		{"main.py", LangPython},
		{"types.pyi", LangPython},
		{"app.ts", LangTypeScript},
		{"view.tsx", LangTypeScript},
		{"index.js", LangJavaScript},
		{"widget.jsx", LangJavaScript},
		{"mod.mjs", LangJavaScript},
		{"lib.rs", LangRust},
		{"UPPER.PY", LangPython},
		{"notes.txt", LangUnknown},
		{"Makefile", LangUnknown},
	}

	for _, tt := range tests {
		if got := DetectLanguage(fs, tt.path); got != tt.want {
			t.Errorf("DetectLanguage(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestDetectLanguageShebang(t *testing.T) {
	fs := afero.NewMemMapFs()

	files := map[string]struct {
		content string
		want    Language
	}{
		"run":    {"#!/usr/bin/env python3\nprint('hi')\n", LangPython},
		"serve":  {"#!/usr/bin/node\nconsole.log(1)\n", LangJavaScript},
		"tool":   {"#!/usr/bin/env ts-node\n", LangTypeScript},
		"legacy": {"#!/usr/bin/python2.7\n", LangPython},
		"script": {"#!/bin/sh\necho hi\n", LangUnknown},
		"plain":  {"no shebang here\n", LangUnknown},
	}

	for path, tt := range files {
		if err := afero.WriteFile(fs, path, []byte(tt.content), 0o644); err != nil {
			t.Fatalf("failed to write %s: %v", path, err)
		}
		if got := DetectLanguage(fs, path); got != tt.want {
			t.Errorf("DetectLanguage(%q) = %v, want %v", path, got, tt.want)
		}
	}
}

func TestDetectLanguageExtensionBeatsShebang(t *testing.T) {
	fs := afero.NewMemMapFs()
	// Extension lookup runs first and wins without opening the file
	if err := afero.WriteFile(fs, "mixed.py", []byte("#!/usr/bin/node\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := DetectLanguage(fs, "mixed.py"); got != LangPython {
		t.Errorf("expected extension to win, got %v", got)
	}
}

func TestDetectLanguageFromContent(t *testing.T) {
	if got := DetectLanguageFromContent("job", []byte("#!/usr/bin/env python\n")); got != LangPython {
		t.Errorf("expected python from shebang content, got %v", got)
	}
	if got := DetectLanguageFromContent("job.rs", nil); got != LangRust {
		t.Errorf("expected rust from extension, got %v", got)
	}
}

func TestIsSourceFile(t *testing.T) {
	if !isSourceFile("a/b/c.py") {
		t.Error("expected .py to be a source file")
	}
	if isSourceFile("a/b/c.go") {
		t.Error("expected .go to not be a source file")
	}
	if isSourceFile("README") {
		t.Error("expected extensionless file to not match by extension")
	}
}

func TestLanguageString(t *testing.T) {
	tests := map[Language]string{
		LangPython:     "python",
		LangTypeScript: "typescript",
		LangJavaScript: "javascript",
		LangRust:       "rust",
		LangUnknown:    "unknown",
	}
	for lang, want := range tests {
		if lang.String() != want {
			t.Errorf("Language(%d).String() = %q, want %q", lang, lang.String(), want)
		}
	}
}
