package render

import "strings"

type resultKind int

const (
	kindEmpty resultKind = iota
	kindText
	kindLines
)

// Result is the output of rendering a single element. Text-oriented
// renderers produce line slices, markup renderers produce strings, the
// traverser combines either kind without knowing which renderer made it.
// The zero value is the empty result.
type Result struct {
	kind  resultKind
	text  string
	lines []string
}

// TextOf wraps a string into a Result. An empty string yields the empty
// result so it is dropped during combination.
func TextOf(s string) Result {
	if len(s) == 0 {
		return Result{}
	}
	return Result{kind: kindText, text: s}
}

// LinesOf wraps a line slice into a Result. An empty slice yields the
// empty result, but a slice of empty strings does not - blank lines are
// meaningful vertical spacing.
func LinesOf(lines []string) Result {
	if len(lines) == 0 {
		return Result{}
	}
	return Result{kind: kindLines, lines: lines}
}

// IsEmpty reports whether the result carries no output at all.
func (r Result) IsEmpty() bool {
	return r.kind == kindEmpty
}

// IsLines reports whether the result is line-oriented.
func (r Result) IsLines() bool {
	return r.kind == kindLines
}

// Lines returns the result as a line slice. Textual results are split on
// newlines so callers can splice them into line output.
func (r Result) Lines() []string {
	switch r.kind {
	case kindLines:
		return r.lines
	case kindText:
		return strings.Split(r.text, "\n")
	}
	return nil
}

// String returns the result as a single string, joining lines with
// newlines.
func (r Result) String() string {
	switch r.kind {
	case kindText:
		return r.text
	case kindLines:
		return strings.Join(r.lines, "\n")
	}
	return ""
}

// Combine merges rendered parts into one Result. Empty parts are dropped.
// When every remaining part is textual the texts are concatenated, when
// every part is line-oriented the slices are flattened in order. A mix of
// kinds falls back to string form.
func Combine(parts []Result) Result {
	kept := parts[:0:0]
	for _, p := range parts {
		if !p.IsEmpty() {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		return Result{}
	}

	allText, allLines := true, true
	for _, p := range kept {
		if p.kind != kindText {
			allText = false
		}
		if p.kind != kindLines {
			allLines = false
		}
	}

	switch {
	case allText:
		var sb strings.Builder
		for _, p := range kept {
			sb.WriteString(p.text)
		}
		return TextOf(sb.String())
	case allLines:
		var lines []string
		for _, p := range kept {
			lines = append(lines, p.lines...)
		}
		return LinesOf(lines)
	default:
		var sb strings.Builder
		for _, p := range kept {
			sb.WriteString(p.String())
		}
		return TextOf(sb.String())
	}
}
