package convert

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ppx/config"
	"ppx/state"
)

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx := state.ContextWithEnv(context.Background())
	env := state.EnvFromContext(ctx)
	env.Cfg = &config.Config{Version: 1}
	env.Cfg.Document.LineWidth = 72
	env.Cfg.Document.IndentString = "    "
	env.Log = testLogger(t)
	return ctx
}

func writeTestBook(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(testTEI), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestIsBookFile(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"book.xml", true},
		{"book.XML", true},
		{"book.tei", true},
		{"book.txt", false},
		{"book", false},
	}
	for _, tt := range tests {
		if got := isBookFile(tt.path); got != tt.want {
			t.Errorf("isBookFile(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestProcessBookText(t *testing.T) {
	ctx := testContext(t)
	srcDir, dstDir := t.TempDir(), t.TempDir()
	path := writeTestBook(t, srcDir, "book.xml")

	if err := processBook(ctx, path, "book.xml", dstDir, "", config.OutputFmtText, testLogger(t)); err != nil {
		t.Fatalf("processBook() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dstDir, "book.txt"))
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	text := string(data)
	if !strings.Contains(text, "CHAPTER ONE") {
		t.Errorf("Output missing chapter heading:\n%s", text)
	}
	if !strings.Contains(text, "Hello world.") {
		t.Errorf("Output missing paragraph text:\n%s", text)
	}
	if !strings.HasSuffix(text, "\n") {
		t.Error("Output should end with a newline")
	}
}

func TestProcessBookHTML(t *testing.T) {
	ctx := testContext(t)
	srcDir, dstDir := t.TempDir(), t.TempDir()
	path := writeTestBook(t, srcDir, "book.xml")

	if err := processBook(ctx, path, "book.xml", dstDir, ".extra { color: red; }", config.OutputFmtHTML, testLogger(t)); err != nil {
		t.Fatalf("processBook() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dstDir, "book.html"))
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	page := string(data)
	if !strings.Contains(page, "<!DOCTYPE html>") {
		t.Error("Output missing doctype")
	}
	if !strings.Contains(page, "<h1>A Test of Time</h1>") {
		t.Errorf("Output missing book title:\n%s", page)
	}
	if !strings.Contains(page, ".extra { color: red; }") {
		t.Error("Output missing custom styles")
	}
}

func TestProcessBookOverwrite(t *testing.T) {
	ctx := testContext(t)
	env := state.EnvFromContext(ctx)
	srcDir, dstDir := t.TempDir(), t.TempDir()
	path := writeTestBook(t, srcDir, "book.xml")

	if err := processBook(ctx, path, "book.xml", dstDir, "", config.OutputFmtText, testLogger(t)); err != nil {
		t.Fatalf("processBook() error = %v", err)
	}
	if err := processBook(ctx, path, "book.xml", dstDir, "", config.OutputFmtText, testLogger(t)); err == nil {
		t.Fatal("Expected error when destination exists and overwrite is off")
	}

	env.Overwrite = true
	if err := processBook(ctx, path, "book.xml", dstDir, "", config.OutputFmtText, testLogger(t)); err != nil {
		t.Fatalf("processBook() with overwrite error = %v", err)
	}
}

func TestProcessDir(t *testing.T) {
	ctx := testContext(t)
	srcDir, dstDir := t.TempDir(), t.TempDir()

	if err := os.MkdirAll(filepath.Join(srcDir, "sub"), 0755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	writeTestBook(t, srcDir, "one.xml")
	writeTestBook(t, filepath.Join(srcDir, "sub"), "two.tei")
	if err := os.WriteFile(filepath.Join(srcDir, "notes.txt"), []byte("skip me"), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if err := process(ctx, srcDir, dstDir, "", config.OutputFmtText, testLogger(t)); err != nil {
		t.Fatalf("process() error = %v", err)
	}

	for _, name := range []string{"one.txt", filepath.Join("sub", "two.txt")} {
		if _, err := os.Stat(filepath.Join(dstDir, name)); err != nil {
			t.Errorf("Expected output file %s: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(dstDir, "notes.txt")); err == nil {
		t.Error("Non book file should not produce output")
	}
}

func TestProcessMissingSource(t *testing.T) {
	ctx := testContext(t)
	if err := process(ctx, filepath.Join(t.TempDir(), "nope.xml"), t.TempDir(), "", config.OutputFmtText, testLogger(t)); err == nil {
		t.Error("Expected error for missing source")
	}
}
