package render

import (
	"html"
	"strings"

	"github.com/beevik/etree"

	"ppx/tei"
)

// Default stylesheet embedded into standalone pages and written as
// styles.css into book containers. Kept as individual rules so callers
// can reindent them for their surroundings.
var defaultCSSRules = []string{
	"body { max-width: 40em; margin: 2em auto; padding: 0 1em; font-family: serif; line-height: 1.6; }",
	"h1 { text-align: center; }",
	"h2 { margin-top: 2em; }",
	".italic { font-style: italic; }",
	".bold { font-weight: bold; }",
	".underline { text-decoration: underline; }",
	".small-caps { font-variant: small-caps; }",
	".signature { text-align: right; font-style: italic; margin-top: 0.5em; }",
	"blockquote { margin: 1em 2em; }",
	"figure { margin: 2em auto; width: 80%; max-width: 100%; text-align: center; }",
	"figure.left { float: left; margin: 0 2em 1em 0; width: 50%; max-width: 50%; }",
	"figure.right { float: right; margin: 0 0 1em 2em; width: 50%; max-width: 50%; }",
	"figure.center { margin: 2em auto; display: block; }",
	"figure img { width: 100%; height: auto; }",
	"figcaption { margin-top: 0.5em; font-style: italic; }",
	".poem { margin: 1em 0; }",
	".poem.center { text-align: center; }",
	".poem.center .stanza { display: inline-block; text-align: left; }",
	".poem-title { text-align: center; font-weight: bold; margin-bottom: 1em; }",
	".stanza { margin-bottom: 1em; }",
	".line { margin-top: 0; margin-bottom: 0; }",
	".indent { margin-left: 2em; }",
	".indent2 { margin-left: 4em; }",
	".indent3 { margin-left: 6em; }",
	".center { text-align: center; }",
	".milestone { text-align: center; margin: 2em 0; }",
	`.milestone.stars::before { content: "*       *       *       *       *"; white-space: pre; }`,
	".milestone.space { height: 2em; }",
	"table { border-collapse: collapse; margin: 1em 0; }",
	"td, th { border: 1px solid #ccc; padding: 0.5em; }",
}

// DefaultCSS returns the built-in stylesheet as a single block.
func DefaultCSS() string {
	return strings.Join(defaultCSSRules, "\n")
}

// HTMLRenderer produces markup output. Each handler returns a string,
// strict serialization for XML containers is controlled through the
// context rather than the renderer.
type HTMLRenderer struct {
	// CustomCSS is appended to the embedded default stylesheet of a
	// standalone page. Expected to be already filtered for the format.
	CustomCSS string

	format string
	title  string
}

// NewHTML returns a renderer for standalone HTML pages.
func NewHTML() *HTMLRenderer {
	return &HTMLRenderer{format: "html"}
}

func (r *HTMLRenderer) FormatName() string { return r.format }

func (r *HTMLRenderer) rend(el *etree.Element) string {
	return tei.FormatRend(el, r.format)
}

// RenderDocumentStart produces the page head with embedded styles and
// the book title heading.
func (r *HTMLRenderer) RenderDocumentStart(doc *tei.Document) Result {
	r.title = doc.Meta.Title
	if len(r.title) == 0 {
		r.title = "Untitled"
	}

	parts := []string{
		"<!DOCTYPE html>",
		`<html lang="` + doc.Meta.Lang.String() + `">`,
		"<head>",
		`  <meta charset="UTF-8">`,
		`  <meta name="viewport" content="width=device-width, initial-scale=1.0">`,
		"  <title>" + html.EscapeString(r.title) + "</title>",
		"  <style>",
	}
	for _, rule := range defaultCSSRules {
		parts = append(parts, "    "+rule)
	}
	if len(r.CustomCSS) > 0 {
		parts = append(parts, "", "    /* Custom styles */")
		for _, line := range strings.Split(strings.TrimRight(r.CustomCSS, "\n"), "\n") {
			parts = append(parts, "    "+line)
		}
	}
	parts = append(parts,
		"  </style>",
		"</head>",
		"<body>",
		"<h1>"+html.EscapeString(r.title)+"</h1>",
	)
	return TextOf(strings.Join(parts, "\n"))
}

// RenderDocumentEnd closes the page.
func (r *HTMLRenderer) RenderDocumentEnd() Result {
	return TextOf("\n</body>\n</html>")
}

// RenderElement dispatches a block element to its handler. Unknown block
// elements degrade to their inline content.
func (r *HTMLRenderer) RenderElement(el *etree.Element, tag tei.Tag, ctx Context, tr *Traverser) Result {
	switch tag {
	case tei.TagDiv:
		return TextOf(r.renderDiv(el, ctx, tr))
	case tei.TagHead:
		return TextOf(r.renderHead(el, ctx))
	case tei.TagP:
		return TextOf(r.renderParagraph(el, ctx))
	case tei.TagQuote, tei.TagQ:
		return TextOf(r.renderQuote(el, ctx, tr))
	case tei.TagLg:
		return TextOf(r.renderLineGroup(el, ctx, tr))
	case tei.TagList:
		return TextOf(r.renderList(el, ctx))
	case tei.TagTable:
		return TextOf(r.renderTable(el, ctx))
	case tei.TagFigure:
		return TextOf(r.renderFigure(el, ctx))
	case tei.TagMilestone:
		return TextOf(r.renderMilestone(el, ctx))
	case tei.TagSigned:
		return TextOf(r.renderSigned(el, ctx))
	}
	return TextOf(r.inlineContent(el, ctx))
}

func (r *HTMLRenderer) renderDiv(el *etree.Element, ctx Context, tr *Traverser) string {
	divType := el.SelectAttrValue("type", "")
	divID := tei.ID(el)

	parts := []string{openTag("div", ctx.Strict, attr{"id", divID}, attr{"class", divType})}

	childCtx := ctx.WithParent(tei.TagDiv, divType)
	for _, child := range el.ChildElements() {
		if res := tr.TraverseElement(child, childCtx); !res.IsEmpty() {
			parts = append(parts, res.String())
		}
	}

	parts = append(parts, "</div>")
	return strings.Join(parts, "\n")
}

// renderHead emits a section heading, anchored to the enclosing
// division's identifier when it has one. Headings of poems and figures
// are consumed by their parent handlers.
func (r *HTMLRenderer) renderHead(el *etree.Element, ctx Context) string {
	switch ctx.ParentTag {
	case tei.TagDiv, tei.TagFront, tei.TagBack, tei.TagBody:
	default:
		return ""
	}

	divID := ""
	if parent := el.Parent(); parent != nil {
		divID = tei.ID(parent)
	}
	content := r.inlineContent(el, ctx)
	if len(divID) > 0 {
		return `<h2 id="` + escAttr(divID, ctx.Strict) + `">` + content + "</h2>"
	}
	return "<h2>" + content + "</h2>"
}

func (r *HTMLRenderer) renderParagraph(el *etree.Element, ctx Context) string {
	rend := r.rend(el)
	content := r.inlineContent(el, ctx.WithParent(tei.TagP, rend))
	if len(rend) > 0 {
		return `<p class="` + escAttr(rend, ctx.Strict) + `">` + content + "</p>"
	}
	return "<p>" + content + "</p>"
}

func (r *HTMLRenderer) renderQuote(el *etree.Element, ctx Context, tr *Traverser) string {
	if ctx.IsInlineParent() {
		content := r.inlineContent(el, ctx.WithDeeperQuote())
		open, close := SmartQuotes(ctx.QuoteDepth)
		return open + content + close
	}

	var blocks []*etree.Element
	for _, child := range el.ChildElements() {
		switch tei.TagOf(child) {
		case tei.TagP, tei.TagLg, tei.TagList, tei.TagTable, tei.TagFigure, tei.TagDiv, tei.TagQuote, tei.TagSigned:
			blocks = append(blocks, child)
		}
	}

	if len(blocks) > 0 {
		childCtx := ctx.WithDeeperBlock()
		var parts []string
		for _, child := range blocks {
			grandCtx := childCtx.WithParent(tei.TagOf(child), r.rend(child))
			if res := tr.TraverseElement(child, grandCtx); !res.IsEmpty() {
				parts = append(parts, res.String())
			}
		}
		return "<blockquote>\n" + strings.Join(parts, "\n") + "\n</blockquote>"
	}

	content := r.inlineContent(el, ctx.WithParent(tei.TagQuote, ""))
	return "<blockquote><p>" + content + "</p></blockquote>"
}

func (r *HTMLRenderer) renderLineGroup(el *etree.Element, ctx Context, tr *Traverser) string {
	rend := r.rend(el)

	var parts []string
	if len(rend) > 0 {
		parts = append(parts, `<div class="poem `+escAttr(rend, ctx.Strict)+`">`)
	} else {
		parts = append(parts, `<div class="poem">`)
	}

	childCtx := ctx.WithParent(tei.TagLg, rend)
	for _, child := range el.ChildElements() {
		switch tei.TagOf(child) {
		case tei.TagHead:
			parts = append(parts, `  <div class="poem-title">`+r.inlineContent(child, childCtx)+"</div>")
		case tei.TagLg:
			parts = append(parts, `  <div class="stanza">`)
			stanzaCtx := childCtx.WithParent(tei.TagLg, r.rend(child))
			for _, line := range child.ChildElements() {
				if tei.TagOf(line) == tei.TagL {
					parts = append(parts, "    "+r.verseLine(line, stanzaCtx))
				} else if res := tr.TraverseElement(line, stanzaCtx); !res.IsEmpty() {
					for _, l := range strings.Split(res.String(), "\n") {
						parts = append(parts, "    "+l)
					}
				}
			}
			parts = append(parts, "  </div>")
		case tei.TagL:
			parts = append(parts, "  "+r.verseLine(child, childCtx))
		default:
			if res := tr.TraverseElement(child, childCtx); !res.IsEmpty() {
				for _, l := range strings.Split(res.String(), "\n") {
					parts = append(parts, "  "+l)
				}
			}
		}
	}

	parts = append(parts, "</div>")
	return strings.Join(parts, "\n")
}

func (r *HTMLRenderer) verseLine(el *etree.Element, ctx Context) string {
	class := "line"
	if rend := r.rend(el); len(rend) > 0 {
		class = "line " + rend
	}
	return `<div class="` + escAttr(class, ctx.Strict) + `">` + r.inlineContent(el, ctx) + "</div>"
}

func (r *HTMLRenderer) renderList(el *etree.Element, ctx Context) string {
	itemCtx := ctx.WithParent(tei.TagItem, "")
	var items []string
	for _, item := range el.ChildElements() {
		if tei.TagOf(item) != tei.TagItem {
			continue
		}
		items = append(items, "  <li>"+r.inlineContent(item, itemCtx)+"</li>")
	}
	return "<ul>\n" + strings.Join(items, "\n") + "\n</ul>"
}

func (r *HTMLRenderer) renderTable(el *etree.Element, ctx Context) string {
	cellCtx := ctx.WithParent(tei.TagCell, "")
	var rows []string
	for _, row := range el.ChildElements() {
		if tei.TagOf(row) != tei.TagRow {
			continue
		}
		var cells []string
		for _, cell := range row.ChildElements() {
			if tei.TagOf(cell) != tei.TagCell {
				continue
			}
			name := "td"
			if cell.SelectAttrValue("role", "") == "label" {
				name = "th"
			}
			cells = append(cells, "    <"+name+">"+r.inlineContent(cell, cellCtx)+"</"+name+">")
		}
		rows = append(rows, "  <tr>\n"+strings.Join(cells, "\n")+"\n  </tr>")
	}
	return "<table>\n" + strings.Join(rows, "\n") + "\n</table>"
}

func (r *HTMLRenderer) renderFigure(el *etree.Element, ctx Context) string {
	graphic := childByTag(el, tei.TagGraphic)
	rend := r.rend(el)

	width := ""
	if graphic != nil {
		width = graphic.SelectAttrValue("width", "")
	}

	open := "<figure"
	if len(rend) > 0 {
		open += ` class="` + escAttr(rend, ctx.Strict) + `"`
	}
	if len(width) > 0 {
		open += ` style="width: ` + escAttr(width, ctx.Strict) + `;"`
	}
	parts := []string{open + ">"}

	if graphic != nil {
		url := graphic.SelectAttrValue("url", "")
		alt := ""
		if desc := childByTag(el, tei.TagFigDesc); desc != nil {
			alt = tei.Text(desc)
		}
		img := `  <img src="` + escAttr(url, ctx.Strict) + `" alt="` + escAttr(alt, ctx.Strict) + `"`
		if ctx.Strict {
			img += "/>"
		} else {
			img += ">"
		}
		parts = append(parts, img)
	}

	if head := childByTag(el, tei.TagHead); head != nil {
		caption := r.inlineContent(head, ctx.WithParent(tei.TagFigure, rend))
		parts = append(parts, "  <figcaption>"+caption+"</figcaption>")
	}

	parts = append(parts, "</figure>")
	return strings.Join(parts, "\n")
}

func (r *HTMLRenderer) renderMilestone(el *etree.Element, ctx Context) string {
	rend := r.rend(el)
	switch rend {
	case "none":
		return ""
	case "":
		rend = "space"
	}
	return `<div class="milestone ` + escAttr(rend, ctx.Strict) + `"></div>`
}

func (r *HTMLRenderer) renderSigned(el *etree.Element, ctx Context) string {
	return `<div class="signature">` + r.inlineContent(el, ctx) + "</div>"
}

// inlineContent renders running text with inline markup. Character data
// is escaped when the context demands strict serialization.
func (r *HTMLRenderer) inlineContent(el *etree.Element, ctx Context) string {
	var sb strings.Builder
	for _, tok := range el.Child {
		switch node := tok.(type) {
		case *etree.CharData:
			sb.WriteString(escText(node.Data, ctx.Strict))
		case *etree.Element:
			sb.WriteString(r.inlineElement(node, ctx))
		}
	}
	return sb.String()
}

func (r *HTMLRenderer) inlineElement(el *etree.Element, ctx Context) string {
	switch tei.TagOf(el) {
	case tei.TagLb:
		if ctx.Strict {
			return "<br/>"
		}
		return "<br>"
	case tei.TagQuote, tei.TagQ:
		content := r.inlineContent(el, ctx.WithDeeperQuote())
		open, close := SmartQuotes(ctx.QuoteDepth)
		return open + content + close
	case tei.TagHi:
		text := escText(tei.Text(el), ctx.Strict)
		switch rend := tei.FormatRend(el, r.format); rend {
		case "", "italic":
			return "<i>" + text + "</i>"
		case "bold":
			return "<b>" + text + "</b>"
		default:
			return `<span class="` + escAttr(rend, ctx.Strict) + `">` + text + "</span>"
		}
	case tei.TagEmph:
		return "<em>" + escText(tei.Text(el), ctx.Strict) + "</em>"
	case tei.TagTitle, tei.TagForeign:
		return "<i>" + escText(tei.Text(el), ctx.Strict) + "</i>"
	case tei.TagNote:
		return "<sup>[" + escText(tei.Text(el), ctx.Strict) + "]</sup>"
	case tei.TagRef:
		text := escText(tei.Text(el), ctx.Strict)
		target := tei.Target(el)
		if len(target) == 0 {
			return text
		}
		return `<a href="` + escAttr(ResolveRef(target, ctx.IDMap), ctx.Strict) + `">` + text + "</a>"
	}
	return escText(tei.Text(el), ctx.Strict)
}

// ResolveRef turns a reference target into a usable hyperlink. Targets
// mapped to a chapter file become cross-file fragment links, anchors and
// absolute URLs pass through, anything else is assumed to be a local
// identifier.
func ResolveRef(target string, idMap map[string]string) string {
	if strings.HasPrefix(target, "#") ||
		strings.HasPrefix(target, "http://") ||
		strings.HasPrefix(target, "https://") ||
		strings.HasPrefix(target, "//") {
		return target
	}
	if file, ok := idMap[target]; ok {
		return file + "#" + target
	}
	return "#" + target
}

type attr struct {
	name, value string
}

func openTag(name string, strict bool, attrs ...attr) string {
	var sb strings.Builder
	sb.WriteString("<" + name)
	for _, a := range attrs {
		if len(a.value) > 0 {
			sb.WriteString(` ` + a.name + `="` + escAttr(a.value, strict) + `"`)
		}
	}
	sb.WriteString(">")
	return sb.String()
}

func escText(s string, strict bool) string {
	if strict {
		return html.EscapeString(s)
	}
	return s
}

func escAttr(s string, strict bool) string {
	if strict {
		return html.EscapeString(s)
	}
	return s
}
