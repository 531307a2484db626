package convert

import (
	"path/filepath"
	"testing"

	"ppx/config"
	"ppx/state"
)

func testEnv(t *testing.T) *state.LocalEnv {
	t.Helper()
	return &state.LocalEnv{
		Cfg: &config.Config{Version: 1},
		Log: testLogger(t),
	}
}

func TestBuildOutputPathDefault(t *testing.T) {
	doc := parseTestDoc(t)
	env := testEnv(t)

	got := buildOutputPath(doc, filepath.Join("sub", "My Book.xml"), "/out", config.OutputFmtText, env)
	want := filepath.Join("/out", "sub", "My Book.txt")
	if got != want {
		t.Errorf("buildOutputPath() = %q, want %q", got, want)
	}
}

func TestBuildOutputPathNoDirs(t *testing.T) {
	doc := parseTestDoc(t)
	env := testEnv(t)
	env.NoDirs = true

	got := buildOutputPath(doc, filepath.Join("sub", "book.xml"), "/out", config.OutputFmtHTML, env)
	want := filepath.Join("/out", "book.html")
	if got != want {
		t.Errorf("buildOutputPath() = %q, want %q", got, want)
	}
}

func TestBuildOutputPathTransliterate(t *testing.T) {
	doc := parseTestDoc(t)
	env := testEnv(t)
	env.Cfg.Output.Transliterate = true

	got := buildOutputPath(doc, "Моя книга.xml", "/out", config.OutputFmtEpub, env)
	want := filepath.Join("/out", "moia-kniga.epub")
	if got != want {
		t.Errorf("buildOutputPath() = %q, want %q", got, want)
	}
}

func TestBuildOutputPathTemplate(t *testing.T) {
	doc := parseTestDoc(t)
	env := testEnv(t)
	env.NoDirs = true
	env.Cfg.Output.NameTemplate = "{{index .Authors 0}}/{{.Title}}"

	got := buildOutputPath(doc, "book.xml", "/out", config.OutputFmtEpub, env)
	want := filepath.Join("/out", "Jane Roe", "A Test of Time.epub")
	if got != want {
		t.Errorf("buildOutputPath() = %q, want %q", got, want)
	}
}

func TestBuildOutputPathBadTemplateFallsBack(t *testing.T) {
	doc := parseTestDoc(t)
	env := testEnv(t)
	env.NoDirs = true
	env.Cfg.Output.NameTemplate = "{{.NoSuchField}}"

	got := buildOutputPath(doc, "book.xml", "/out", config.OutputFmtText, env)
	want := filepath.Join("/out", "book.txt")
	if got != want {
		t.Errorf("buildOutputPath() = %q, want %q", got, want)
	}
}

func TestSplitAndCleanPath(t *testing.T) {
	tests := []struct {
		path string
		want []string
	}{
		{"name", []string{"name"}},
		{filepath.Join("a", "b", "c"), []string{"a", "b", "c"}},
		{filepath.Join("a", "b") + string(filepath.Separator), []string{"a", "b"}},
	}

	for _, tt := range tests {
		got := splitAndCleanPath(tt.path)
		if len(got) != len(tt.want) {
			t.Errorf("splitAndCleanPath(%q) = %v, want %v", tt.path, got, tt.want)
			continue
		}
		for i := range tt.want {
			if got[i] != tt.want[i] {
				t.Errorf("splitAndCleanPath(%q)[%d] = %q, want %q", tt.path, i, got[i], tt.want[i])
			}
		}
	}
}
