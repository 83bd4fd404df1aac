package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFormatScore(t *testing.T) {
	testCases := map[float64]string{
		0:         "0",
		1:         "1",
		100:       "100",
		0.5:       "0.5",
		0.9090909: "0.909",
		2.0004:    "2",
	}
	for in, want := range testCases {
		if got := FormatScore(in); got != want {
			t.Errorf("FormatScore(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestResolveFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "terms.txt")
	if err := os.WriteFile(path, []byte("x\n"), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	if got := ResolveFile("terms.txt", "/nonexistent", dir); got != path {
		t.Errorf("ResolveFile = %q, want %q", got, path)
	}
	if got := ResolveFile(path); got != path {
		t.Errorf("absolute path changed: %q", got)
	}
	if got := ResolveFile("missing.txt", dir); got != "missing.txt" {
		t.Errorf("missing file should be returned as is, got %q", got)
	}
}

func TestExtractHelpers(t *testing.T) {
	data := map[string]any{
		"n":     int64(3),
		"s":     "text",
		"terms": []any{"a", int64(1), "b"},
	}
	if n, ok := ExtractInt64(data, "n"); !ok || n != 3 {
		t.Errorf("ExtractInt64 = %d, %v", n, ok)
	}
	if s, ok := ExtractString(data, "s"); !ok || s != "text" {
		t.Errorf("ExtractString = %q, %v", s, ok)
	}
	terms, ok := ExtractStrings(data, "terms")
	if !ok || len(terms) != 2 || terms[0] != "a" || terms[1] != "b" {
		t.Errorf("ExtractStrings = %v, %v", terms, ok)
	}
	if _, ok := ExtractInt64(data, "s"); ok {
		t.Errorf("ExtractInt64 accepted a string")
	}
}
