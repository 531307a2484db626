package render

import (
	"strings"
	"testing"

	"github.com/beevik/etree"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"ppx/tei"
)

func testLogger(t *testing.T) *zap.Logger {
	return zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))
}

func parseTestDoc(t *testing.T, inner string) *tei.Document {
	t.Helper()
	src := `<?xml version="1.0" encoding="UTF-8"?>
<TEI xmlns="http://www.tei-c.org/ns/1.0">
  <teiHeader><fileDesc><titleStmt><title>Test Book</title></titleStmt></fileDesc></teiHeader>
  <text>` + inner + `</text>
</TEI>`
	doc, err := tei.Parse(strings.NewReader(src), testLogger(t))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return doc
}

func parseElem(t *testing.T, src string) *etree.Element {
	t.Helper()
	doc := etree.NewDocument()
	if err := doc.ReadFromString(src); err != nil {
		t.Fatalf("ReadFromString() error = %v", err)
	}
	return doc.Root()
}

func renderText(t *testing.T, inner string) []string {
	t.Helper()
	doc := parseTestDoc(t, inner)
	return NewTraverser(NewText()).TraverseDocument(doc, NewContext()).Lines()
}

func expectLines(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d lines, want %d:\n%q", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestTextChapterLayout(t *testing.T) {
	got := renderText(t, `<body><div><head>Chapter One</head><p>Hello <hi rend="italic">world</hi>.</p></div></body>`)
	expectLines(t, got, []string{
		"", "", "",
		"CHAPTER ONE",
		"", "",
		"Hello _world_.",
		"",
	})
}

func TestTextFrontAndBackHeadings(t *testing.T) {
	got := renderText(t, `<front><div><head>Preface</head></div></front><body><div><p>x</p></div></body><back><div><head>Notes</head></div></back>`)
	expectLines(t, got, []string{
		"Preface",
		"=======",
		"",
		"x",
		"",
		"NOTES",
		"",
	})
}

func TestTextNestedDivisionHeading(t *testing.T) {
	got := renderText(t, `<body><div><div><head>Part A</head><p>x</p></div></div></body>`)
	expectLines(t, got, []string{
		"PART A",
		"", "",
		"x",
		"",
	})
}

func TestTextInlineQuoteAlternation(t *testing.T) {
	got := renderText(t, `<body><div><p>He said <quote>A<quote>B</quote>C</quote> then.</p></div></body>`)
	want := "He said \u201cA\u2018B\u2019C\u201d then."
	if got[0] != want {
		t.Errorf("line = %q, want %q", got[0], want)
	}
	for _, glyph := range []string{"\u201c", "\u201d", "\u2018", "\u2019"} {
		if strings.Count(got[0], glyph) != 1 {
			t.Errorf("glyph %q appears %d times in %q", glyph, strings.Count(got[0], glyph), got[0])
		}
	}
}

func TestTextBlockQuoteIndent(t *testing.T) {
	got := renderText(t, `<body><div><quote><p>Quoted words here.</p></quote></div></body>`)
	expectLines(t, got, []string{
		"    Quoted words here.",
		"",
	})
}

func TestTextNestedQuoteIndent(t *testing.T) {
	got := renderText(t, `<body><div><quote><quote><p>Deep.</p></quote></quote></div></body>`)
	expectLines(t, got, []string{
		"        Deep.",
		"",
	})
}

func TestTextBareQuoteFallback(t *testing.T) {
	got := renderText(t, `<body><div><quote>No block children at all.</quote></div></body>`)
	expectLines(t, got, []string{
		"    No block children at all.",
		"",
	})
}

func TestTextLineWidthInvariant(t *testing.T) {
	long := strings.TrimSpace(strings.Repeat("tumble weed rolled ", 20))
	got := renderText(t, `<body><div><quote><quote><p>`+long+`</p></quote></quote></div></body>`)

	for i, line := range got {
		if len(line) > DefaultLineWidth {
			t.Errorf("line %d exceeds width %d: %q", i, DefaultLineWidth, line)
		}
		if len(line) > 0 && !strings.HasPrefix(line, "        ") {
			t.Errorf("line %d lost double indent: %q", i, line)
		}
	}
}

func TestTextHardLineBreak(t *testing.T) {
	got := renderText(t, `<body><div><p>Line 1<lb/>Line 2</p></div></body>`)
	expectLines(t, got, []string{
		"Line 1",
		"Line 2",
		"",
	})
}

func TestTextNoteAndRef(t *testing.T) {
	got := renderText(t, `<body><div><p>See<note>a footnote</note> and <ref target="ch2">chapter two</ref>.</p></div></body>`)
	expectLines(t, got, []string{
		"See [a footnote] and chapter two.",
		"",
	})
}

func TestTextVerse(t *testing.T) {
	got := renderText(t, `<body><div><lg><head>Song</head><lg><l>First line</l><l rend="indent">Second line</l><l rend="indent2">Third line</l></lg></lg></div></body>`)
	expectLines(t, got, []string{
		"    SONG",
		"",
		"    First line",
		"      Second line",
		"        Third line",
		"",
		"",
	})
}

func TestTextVerseCenteredTitle(t *testing.T) {
	got := renderText(t, `<body><div><lg rend="center"><head>Song</head></lg></div></body>`)
	pad := (DefaultLineWidth - 4) / 2
	expectLines(t, got, []string{
		strings.Repeat(" ", pad) + "SONG",
		"",
		"",
	})
}

func TestTextCenteredStanzaMovesAsUnit(t *testing.T) {
	got := renderText(t, `<body><div><lg><lg rend="center"><l>Tiny</l><l>Longer line</l></lg></lg></div></body>`)
	pad := strings.Repeat(" ", (DefaultLineWidth-len("Longer line"))/2)
	expectLines(t, got, []string{
		pad + "Tiny",
		pad + "Longer line",
		"",
		"",
	})
}

func TestTextCenteredVerseLine(t *testing.T) {
	got := renderText(t, `<body><div><lg><l rend="center">Centered</l></lg></div></body>`)
	pad := (DefaultLineWidth - len("Centered")) / 2
	expectLines(t, got, []string{
		strings.Repeat(" ", pad) + "Centered",
		"",
	})
}

func TestTextList(t *testing.T) {
	got := renderText(t, `<body><div><list><item>First item</item><item>Second item</item></list></div></body>`)
	expectLines(t, got, []string{
		"  \u2022 First item",
		"  \u2022 Second item",
		"",
	})
}

func TestTextListHangingIndent(t *testing.T) {
	long := strings.TrimSpace(strings.Repeat("needle and thread ", 10))
	got := renderText(t, `<body><div><list><item>`+long+`</item></list></div></body>`)

	if !strings.HasPrefix(got[0], "  \u2022 ") {
		t.Fatalf("first line = %q", got[0])
	}
	for i, line := range got[1 : len(got)-1] {
		if !strings.HasPrefix(line, "    ") {
			t.Errorf("continuation line %d = %q, wanted hanging indent", i+1, line)
		}
		if len(line) > DefaultLineWidth {
			t.Errorf("line %d exceeds width: %q", i+1, line)
		}
	}
}

func TestTextTable(t *testing.T) {
	got := renderText(t, `<body><div><table><row><cell>Name</cell><cell>Age</cell></row><row><cell>Bob</cell><cell>7</cell></row></table></div></body>`)
	expectLines(t, got, []string{
		"  Name  Age",
		"  Bob   7  ",
		"",
	})
}

func TestTextFigure(t *testing.T) {
	got := renderText(t, `<body><div><figure><graphic url="map.png"/><head>A map</head></figure></div></body>`)
	expectLines(t, got, []string{
		"[Illustration: A map]",
		"",
	})

	got = renderText(t, `<body><div><figure><graphic url="map.png"/></figure></div></body>`)
	expectLines(t, got, []string{
		"[Illustration]",
		"",
	})
}

func TestTextMilestone(t *testing.T) {
	got := renderText(t, `<body><div><p>a</p><milestone rend="stars"/><p>b</p></div></body>`)
	pad := strings.Repeat(" ", (DefaultLineWidth-len(milestoneStars))/2)
	expectLines(t, got, []string{
		"a",
		"",
		pad + milestoneStars,
		"",
		"b",
		"",
	})

	got = renderText(t, `<body><div><p>a</p><milestone/><p>b</p></div></body>`)
	expectLines(t, got, []string{
		"a",
		"",
		"", "",
		"b",
		"",
	})
}

func TestTextMilestoneFormatOverride(t *testing.T) {
	got := renderText(t, `<body><div><p>a</p><milestone rend="stars" rend-text="none"/><p>b</p></div></body>`)
	expectLines(t, got, []string{
		"a",
		"",
		"b",
		"",
	})
}

func TestTextSignedRightAligned(t *testing.T) {
	got := renderText(t, `<body><div><signed>John Hancock</signed></div></body>`)
	want := strings.Repeat(" ", DefaultLineWidth-len("John Hancock")) + "John Hancock"
	expectLines(t, got, []string{want, ""})
}

func TestTextHeadingOutsideDivisionIsSilent(t *testing.T) {
	r := NewText()
	tr := NewTraverser(r)
	head := parseElem(t, `<head>Caption</head>`)

	res := r.RenderElement(head, tei.TagHead, NewContext().WithParent(tei.TagFigure, ""), tr)
	if !res.IsEmpty() {
		t.Errorf("heading under figure rendered %q, want nothing", res.Lines())
	}
}

func TestTextDeterministic(t *testing.T) {
	inner := `<body><div><head>One</head><p>Some <emph>text</emph> with <quote>a quote</quote>.</p><milestone rend="stars"/><p>More.</p></div></body>`
	first := strings.Join(renderText(t, inner), "\n")
	second := strings.Join(renderText(t, inner), "\n")
	if first != second {
		t.Errorf("renders differ:\n%q\n%q", first, second)
	}
}
