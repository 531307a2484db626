package render

import (
	"strings"
	"testing"
)

const bookTEI = `
<front><div xml:id="pref"><head>Preface</head><p>Front words.</p></div></front>
<body>
  <div xml:id="ch1"><head>Chapter One</head><p>See <ref target="ch2">chapter two</ref>.</p></div>
  <div xml:id="ch2"><head>Chapter Two</head><p>Back to <ref target="ch1">one</ref>, note <ref target="n1">this</ref>.</p><p xml:id="n1">A note.</p></div>
</body>
<back><div><head>Appendix</head><p>Tail.</p></div></back>`

func TestBuildIDMap(t *testing.T) {
	doc := parseTestDoc(t, bookTEI)
	idMap := BuildIDMap(doc)

	want := map[string]string{
		"pref": "front1.xhtml",
		"ch1":  "chapter1.xhtml",
		"ch2":  "chapter2.xhtml",
		"n1":   "chapter2.xhtml",
	}
	if len(idMap) != len(want) {
		t.Fatalf("id map = %v, want %v", idMap, want)
	}
	for id, file := range want {
		if idMap[id] != file {
			t.Errorf("idMap[%q] = %q, want %q", id, idMap[id], file)
		}
	}
}

func TestRenderChapterFrame(t *testing.T) {
	doc := parseTestDoc(t, bookTEI)
	r := NewEPUB()
	div := doc.Body.ChildElements()[0]

	got := r.RenderChapter(div, "Test Book", BuildIDMap(doc))

	for _, want := range []string{
		`<?xml version="1.0" encoding="UTF-8"?>`,
		"<!DOCTYPE html>",
		`<html xmlns="http://www.w3.org/1999/xhtml" xmlns:epub="http://www.idpf.org/2007/ops">`,
		"  <title>Chapter One</title>",
		`  <link rel="stylesheet" type="text/css" href="styles.css"/>`,
		`<h2 id="ch1">Chapter One</h2>`,
		`<a href="chapter2.xhtml#ch2">chapter two</a>`,
		"</body>\n</html>",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("chapter missing %q in:\n%s", want, got)
		}
	}
	if strings.Count(got, "Chapter One") != 2 {
		t.Errorf("heading rendered wrong number of times:\n%s", got)
	}
}

func TestRenderChapterCrossAndLocalRefs(t *testing.T) {
	doc := parseTestDoc(t, bookTEI)
	r := NewEPUB()
	div := doc.Body.ChildElements()[1]

	got := r.RenderChapter(div, "Test Book", BuildIDMap(doc))

	if !strings.Contains(got, `<a href="chapter1.xhtml#ch1">one</a>`) {
		t.Errorf("cross-file ref missing in:\n%s", got)
	}
	// n1 lives in this same chapter file, the link still resolves
	// through the map and stays correct.
	if !strings.Contains(got, `<a href="chapter2.xhtml#n1">this</a>`) {
		t.Errorf("same-file mapped ref missing in:\n%s", got)
	}
}

func TestRenderChapterFallbackTitle(t *testing.T) {
	doc := parseTestDoc(t, `<body><div><p>No heading here.</p></div></body>`)
	r := NewEPUB()

	got := r.RenderChapter(doc.Body.ChildElements()[0], "Test Book", nil)

	if !strings.Contains(got, "  <title>Test Book</title>") {
		t.Errorf("fallback title missing in:\n%s", got)
	}
	if strings.Contains(got, "<h2") {
		t.Errorf("unexpected heading in:\n%s", got)
	}
}

func TestRenderChapterStrictOutput(t *testing.T) {
	doc := parseTestDoc(t, `<body><div><head>T &amp; H</head><p>Fish &amp; chips<lb/>second line.</p></div></body>`)
	r := NewEPUB()

	got := r.RenderChapter(doc.Body.ChildElements()[0], "Test Book", nil)

	for _, want := range []string{
		"<title>T &amp; H</title>",
		"Fish &amp; chips<br/>second line.",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("chapter missing %q in:\n%s", want, got)
		}
	}
}

func TestRenderChapterSelfClosingImage(t *testing.T) {
	doc := parseTestDoc(t, `<body><div><figure><graphic url="map.png"/><figDesc>A &amp; B</figDesc></figure></div></body>`)
	r := NewEPUB()

	got := r.RenderChapter(doc.Body.ChildElements()[0], "Test Book", nil)

	if !strings.Contains(got, `<img src="map.png" alt="A &amp; B"/>`) {
		t.Errorf("strict image missing in:\n%s", got)
	}
}

func TestRenderChapterPure(t *testing.T) {
	doc := parseTestDoc(t, bookTEI)
	idMap := BuildIDMap(doc)
	div := doc.Body.ChildElements()[0]

	first := NewEPUB().RenderChapter(div, "Test Book", idMap)
	second := NewEPUB().RenderChapter(div, "Test Book", idMap)
	if first != second {
		t.Errorf("independent renders differ:\n%q\n%q", first, second)
	}
}

func TestRenderChapters(t *testing.T) {
	doc := parseTestDoc(t, bookTEI)
	chapters := NewEPUB().RenderChapters(doc, "", BuildIDMap(doc))

	wantFiles := []string{"front1.xhtml", "chapter1.xhtml", "chapter2.xhtml", "back1.xhtml"}
	if len(chapters) != len(wantFiles) {
		t.Fatalf("got %d chapters, want %d", len(chapters), len(wantFiles))
	}
	for i, want := range wantFiles {
		if chapters[i].File != want {
			t.Errorf("chapter %d file = %q, want %q", i, chapters[i].File, want)
		}
	}
	if chapters[0].Title != "Preface" || chapters[3].Title != "Appendix" {
		t.Errorf("chapter titles = %q %q", chapters[0].Title, chapters[3].Title)
	}
}

func TestMilestoneFormatOverridePerFormat(t *testing.T) {
	doc := parseTestDoc(t, `<body><div><p>a</p><milestone rend="stars" rend-epub="none"/></div></body>`)

	epub := NewEPUB().RenderChapter(doc.Body.ChildElements()[0], "Test Book", nil)
	if strings.Contains(epub, `<div class="milestone`) {
		t.Errorf("milestone not suppressed for book output:\n%s", epub)
	}

	page := NewTraverser(NewHTML()).TraverseDocument(doc, NewContext()).String()
	if !strings.Contains(page, `<div class="milestone stars"></div>`) {
		t.Errorf("milestone missing from page output:\n%s", page)
	}
}
