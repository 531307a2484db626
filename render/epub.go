package render

import (
	"fmt"
	"html"
	"strings"

	"github.com/beevik/etree"

	"ppx/tei"
)

// EPUBRenderer renders book chapters as standalone XHTML documents.
// Element handling is shared with the page renderer, strict XML
// serialization is forced through the context of every chapter.
type EPUBRenderer struct {
	HTMLRenderer
}

// NewEPUB returns a renderer for EPUB chapter files.
func NewEPUB() *EPUBRenderer {
	return &EPUBRenderer{HTMLRenderer{format: "epub"}}
}

// Chapter is one spine entry of a book: a top level division rendered
// into its own XHTML file.
type Chapter struct {
	File    string
	Title   string
	Content string
}

// RenderChapter renders one division as a complete XHTML chapter
// document. The chapter title falls back to the book title when the
// division has no heading. Cross references resolve through idMap.
func (r *EPUBRenderer) RenderChapter(div *etree.Element, bookTitle string, idMap map[string]string) string {
	head := childByTag(div, tei.TagHead)

	title := bookTitle
	if head != nil {
		if t := tei.Text(head); len(t) > 0 {
			title = t
		}
	}

	ctx := NewContext().
		WithParent(tei.TagBody, "").
		WithStrict(true).
		WithIDMap(idMap)
	tr := NewTraverser(r)

	parts := []string{
		`<?xml version="1.0" encoding="UTF-8"?>`,
		"<!DOCTYPE html>",
		`<html xmlns="http://www.w3.org/1999/xhtml" xmlns:epub="http://www.idpf.org/2007/ops">`,
		"<head>",
		"  <title>" + html.EscapeString(title) + "</title>",
		`  <link rel="stylesheet" type="text/css" href="styles.css"/>`,
		"</head>",
		"<body>",
	}

	if head != nil {
		heading := html.EscapeString(tei.Text(head))
		if id := tei.ID(div); len(id) > 0 {
			parts = append(parts, `<h2 id="`+html.EscapeString(id)+`">`+heading+"</h2>")
		} else {
			parts = append(parts, "<h2>"+heading+"</h2>")
		}
	}

	childCtx := ctx.WithParent(tei.TagDiv, tei.FormatRend(div, r.format))
	for _, child := range div.ChildElements() {
		if tei.TagOf(child) == tei.TagHead {
			continue
		}
		if res := tr.TraverseElement(child, childCtx); !res.IsEmpty() {
			parts = append(parts, res.String())
		}
	}

	parts = append(parts, "</body>", "</html>")
	return strings.Join(parts, "\n")
}

// RenderChapters renders every top level division of the document into
// its own chapter file, named and ordered the way BuildIDMap expects.
// bookTitle is used where a division has no heading of its own; pass ""
// to fall back to the document title.
func (r *EPUBRenderer) RenderChapters(doc *tei.Document, bookTitle string, idMap map[string]string) []Chapter {
	title := bookTitle
	if len(title) == 0 {
		title = doc.Meta.Title
	}
	if len(title) == 0 {
		title = "Untitled"
	}

	var chapters []Chapter
	add := func(section *etree.Element, prefix string) {
		if section == nil {
			return
		}
		i := 0
		for _, div := range section.ChildElements() {
			if tei.TagOf(div) != tei.TagDiv {
				continue
			}
			i++
			chapterTitle := title
			if head := childByTag(div, tei.TagHead); head != nil {
				if t := tei.Text(head); len(t) > 0 {
					chapterTitle = t
				}
			}
			chapters = append(chapters, Chapter{
				File:    fmt.Sprintf("%s%d.xhtml", prefix, i),
				Title:   chapterTitle,
				Content: r.RenderChapter(div, title, idMap),
			})
		}
	}
	add(doc.Front, "front")
	add(doc.Body, "chapter")
	add(doc.Back, "back")
	return chapters
}

// BuildIDMap maps every identifier in the document to the chapter file
// that will contain it. Front matter divisions become front1.xhtml and
// up, body divisions chapter1.xhtml and up, back matter back1.xhtml and
// up.
func BuildIDMap(doc *tei.Document) map[string]string {
	idMap := make(map[string]string)
	collect := func(section *etree.Element, prefix string) {
		if section == nil {
			return
		}
		i := 0
		for _, div := range section.ChildElements() {
			if tei.TagOf(div) != tei.TagDiv {
				continue
			}
			i++
			collectIDs(div, fmt.Sprintf("%s%d.xhtml", prefix, i), idMap)
		}
	}
	collect(doc.Front, "front")
	collect(doc.Body, "chapter")
	collect(doc.Back, "back")
	return idMap
}

func collectIDs(el *etree.Element, file string, idMap map[string]string) {
	if id := tei.ID(el); len(id) > 0 {
		idMap[id] = file
	}
	for _, child := range el.ChildElements() {
		collectIDs(child, file, idMap)
	}
}
