package render

import (
	"strings"
	"testing"
)

func TestSmartQuotes(t *testing.T) {
	cases := []struct {
		depth       int
		open, close string
	}{
		{0, "“", "”"},
		{1, "‘", "’"},
		{2, "“", "”"},
		{3, "‘", "’"},
		{4, "“", "”"},
	}
	for _, c := range cases {
		open, close := SmartQuotes(c.depth)
		if open != c.open || close != c.close {
			t.Errorf("SmartQuotes(%d) = %q %q, want %q %q", c.depth, open, close, c.open, c.close)
		}
	}
}

func TestVisualWidth(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"Hello _world_ test", 16},
		{"plain text", 10},
		{"_all emphasized_", 14},
		{"", 0},
		{"_a_ and _b_", 7},
	}
	for _, c := range cases {
		if got := VisualWidth(c.in); got != c.want {
			t.Errorf("VisualWidth(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestCombineDropsEmpty(t *testing.T) {
	res := Combine([]Result{{}, TextOf(""), LinesOf(nil)})
	if !res.IsEmpty() {
		t.Errorf("expected empty result, got %q", res.String())
	}
}

func TestCombineText(t *testing.T) {
	res := Combine([]Result{TextOf("<p>a</p>"), {}, TextOf("<p>b</p>")})
	if res.IsLines() {
		t.Fatalf("expected textual result")
	}
	if got := res.String(); got != "<p>a</p><p>b</p>" {
		t.Errorf("combined text = %q", got)
	}
}

func TestCombineLines(t *testing.T) {
	res := Combine([]Result{LinesOf([]string{"a", ""}), LinesOf([]string{"b"})})
	if !res.IsLines() {
		t.Fatalf("expected line result")
	}
	got := res.Lines()
	want := []string{"a", "", "b"}
	if len(got) != len(want) {
		t.Fatalf("combined lines = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestCombineMixedFallsBackToString(t *testing.T) {
	res := Combine([]Result{TextOf("a"), LinesOf([]string{"b", "c"})})
	if res.IsLines() {
		t.Fatalf("expected textual fallback")
	}
	if got := res.String(); got != "ab\nc" {
		t.Errorf("mixed combination = %q", got)
	}
}

func TestLinesOfBlankLinesAreKept(t *testing.T) {
	res := LinesOf([]string{"", ""})
	if res.IsEmpty() {
		t.Fatalf("blank lines are meaningful spacing, must not be dropped")
	}
	if got := strings.Join(res.Lines(), "|"); got != "|" {
		t.Errorf("lines = %q", got)
	}
}
