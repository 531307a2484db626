package render

import (
	"strings"

	"github.com/beevik/etree"
	"github.com/muesli/reflow/wordwrap"

	"ppx/tei"
)

// Stars separator used for milestone breaks in plain text.
const milestoneStars = "*       *       *       *       *"

// TextRenderer produces wrapped plain text. Every handler returns a line
// slice, vertical spacing is expressed as empty lines.
type TextRenderer struct{}

// NewText returns a plain text renderer.
func NewText() *TextRenderer {
	return &TextRenderer{}
}

func (r *TextRenderer) FormatName() string { return "text" }

// RenderDocumentStart produces nothing, plain text has no preamble.
func (r *TextRenderer) RenderDocumentStart(doc *tei.Document) Result { return Result{} }

// RenderDocumentEnd produces nothing.
func (r *TextRenderer) RenderDocumentEnd() Result { return Result{} }

// RenderElement dispatches a block element to its handler. Elements
// outside the supported set render as nothing.
func (r *TextRenderer) RenderElement(el *etree.Element, tag tei.Tag, ctx Context, tr *Traverser) Result {
	switch tag {
	case tei.TagDiv:
		return r.renderDiv(el, ctx, tr)
	case tei.TagHead:
		return r.renderHead(el, ctx)
	case tei.TagP:
		return r.renderParagraph(el, ctx)
	case tei.TagQuote, tei.TagQ:
		return r.renderQuote(el, ctx, tr)
	case tei.TagLg:
		return r.renderLineGroup(el, ctx, tr)
	case tei.TagList:
		return r.renderList(el, ctx)
	case tei.TagTable:
		return r.renderTable(el, ctx)
	case tei.TagFigure:
		return r.renderFigure(el, ctx)
	case tei.TagMilestone:
		return r.renderMilestone(el, ctx)
	case tei.TagSigned:
		return r.renderSigned(el, ctx)
	}
	return Result{}
}

func (r *TextRenderer) rend(el *etree.Element) string {
	return tei.FormatRend(el, r.FormatName())
}

// renderDiv renders division children. Headings keep the incoming
// context so they can tell whether the division sits directly under
// front, body or back matter, everything else nests one level down.
func (r *TextRenderer) renderDiv(el *etree.Element, ctx Context, tr *Traverser) Result {
	childCtx := ctx.WithParent(tei.TagDiv, r.rend(el))
	var parts []Result
	for _, child := range el.ChildElements() {
		use := childCtx
		if tei.TagOf(child) == tei.TagHead {
			use = ctx
		}
		parts = append(parts, tr.TraverseElement(child, use))
	}
	return Combine(parts)
}

// renderHead renders a heading according to where its division sits.
// Headings inside inline-ish containers (poems, figures) are handled by
// their parent handlers and render as nothing here.
func (r *TextRenderer) renderHead(el *etree.Element, ctx Context) Result {
	text := tei.Text(el)
	if len(text) == 0 {
		return Result{}
	}

	var lines []string
	switch ctx.ParentTag {
	case tei.TagBody:
		lines = append(lines, "", "", "", strings.ToUpper(text), "", "")
	case tei.TagFront:
		lines = append(lines, text, strings.Repeat("=", VisualWidth(text)), "")
	case tei.TagBack:
		lines = append(lines, strings.ToUpper(text), "")
	case tei.TagDiv:
		lines = append(lines, strings.ToUpper(text), "", "")
	}
	return LinesOf(lines)
}

// renderParagraph wraps paragraph text at the context line width. Hard
// line breaks split the paragraph into separately wrapped segments.
func (r *TextRenderer) renderParagraph(el *etree.Element, ctx Context) Result {
	text := strings.TrimSpace(r.inlineText(el, ctx))
	if len(text) == 0 {
		return Result{}
	}

	indent := ctx.CurrentIndent()
	var lines []string
	for _, segment := range strings.Split(text, "\n") {
		segment = normalizeSpace(segment)
		if len(segment) == 0 {
			continue
		}
		lines = append(lines, wrapIndented(segment, indent, ctx.LineWidth)...)
	}
	if len(lines) == 0 {
		return Result{}
	}
	lines = append(lines, "")
	return LinesOf(lines)
}

// renderQuote indents a block quotation one level. Inline quotations are
// normally consumed by the surrounding text extraction, when one still
// arrives here it renders as a single quoted line.
func (r *TextRenderer) renderQuote(el *etree.Element, ctx Context, tr *Traverser) Result {
	if ctx.IsInlineParent() {
		open, close := SmartQuotes(ctx.QuoteDepth)
		inner := strings.TrimSpace(r.inlineText(el, ctx.WithDeeperQuote()))
		if len(inner) == 0 {
			return Result{}
		}
		return LinesOf([]string{open + inner + close})
	}

	childCtx := ctx.WithIndent(1).WithDeeperBlock()

	var blocks []*etree.Element
	for _, child := range el.ChildElements() {
		switch tei.TagOf(child) {
		case tei.TagP, tei.TagLg, tei.TagList, tei.TagTable, tei.TagFigure, tei.TagDiv, tei.TagQuote, tei.TagSigned:
			blocks = append(blocks, child)
		}
	}

	if len(blocks) > 0 {
		var parts []Result
		for _, child := range blocks {
			grandCtx := childCtx.WithParent(tei.TagOf(child), r.rend(child))
			parts = append(parts, tr.TraverseElement(child, grandCtx))
		}
		return Combine(parts)
	}

	// Bare text quote, wrap it at the deeper indent.
	text := normalizeSpace(r.inlineText(el, childCtx))
	if len(text) == 0 {
		return Result{}
	}
	lines := wrapIndented(text, childCtx.CurrentIndent(), childCtx.LineWidth)
	lines = append(lines, "")
	return LinesOf(lines)
}

// renderLineGroup renders verse. Top level children may be a title,
// nested stanzas or loose lines.
func (r *TextRenderer) renderLineGroup(el *etree.Element, ctx Context, tr *Traverser) Result {
	rend := r.rend(el)
	childCtx := ctx.WithParent(tei.TagLg, rend)

	var lines []string
	for _, child := range el.ChildElements() {
		switch tei.TagOf(child) {
		case tei.TagHead:
			title := tei.Text(child)
			if len(title) == 0 {
				continue
			}
			title = strings.ToUpper(title)
			if rend == "center" {
				lines = append(lines, centerLine(title, ctx.LineWidth))
			} else {
				lines = append(lines, ctx.CurrentIndent()+"    "+title)
			}
			lines = append(lines, "")
		case tei.TagLg:
			lines = append(lines, r.renderStanza(child, ctx)...)
		case tei.TagL:
			text := strings.TrimSpace(r.inlineText(child, ctx))
			lines = append(lines, r.verseLine(text, r.rend(child), ctx))
		default:
			if res := tr.TraverseElement(child, childCtx); !res.IsEmpty() {
				lines = append(lines, res.Lines()...)
			}
		}
	}
	lines = append(lines, "")
	return LinesOf(lines)
}

// renderStanza renders one nested line group. A centered stanza is moved
// as a unit so its internal shape survives, individually centered lines
// stay centered on the full line width in either mode.
func (r *TextRenderer) renderStanza(el *etree.Element, ctx Context) []string {
	var texts, rends []string
	for _, child := range el.ChildElements() {
		if tei.TagOf(child) != tei.TagL {
			continue
		}
		texts = append(texts, strings.TrimSpace(r.inlineText(child, ctx)))
		rends = append(rends, r.rend(child))
	}

	var lines []string
	if r.rend(el) == "center" && len(texts) > 0 {
		maxLen := 0
		for _, t := range texts {
			if w := VisualWidth(t); w > maxLen {
				maxLen = w
			}
		}
		pad := (ctx.LineWidth - maxLen) / 2
		if pad < 0 {
			pad = 0
		}
		for i, t := range texts {
			if rends[i] == "center" {
				lines = append(lines, centerLine(t, ctx.LineWidth))
			} else {
				lines = append(lines, strings.Repeat(" ", pad)+t)
			}
		}
	} else {
		for i, t := range texts {
			if rends[i] == "center" {
				lines = append(lines, centerLine(t, ctx.LineWidth))
			} else {
				lines = append(lines, r.verseLine(t, rends[i], ctx))
			}
		}
	}
	lines = append(lines, "")
	return lines
}

// verseLine applies per-line style hints on top of the base verse indent.
func (r *TextRenderer) verseLine(text, rend string, ctx Context) string {
	base := ctx.CurrentIndent() + "    "
	switch rend {
	case "center":
		return centerLine(text, ctx.LineWidth)
	case "indent":
		return base + "  " + text
	case "indent2":
		return base + "    " + text
	case "indent3":
		return base + "      " + text
	}
	return base + text
}

// renderList renders items as a bulleted list with hanging indentation.
func (r *TextRenderer) renderList(el *etree.Element, ctx Context) Result {
	itemCtx := ctx.WithParent(tei.TagItem, "")
	indent := ctx.CurrentIndent()

	var lines []string
	for _, item := range el.ChildElements() {
		if tei.TagOf(item) != tei.TagItem {
			continue
		}
		text := normalizeSpace(r.inlineText(item, itemCtx))
		if len(text) == 0 {
			continue
		}
		for i, line := range wrapLines(text, ctx.LineWidth-len(indent)-4) {
			if i == 0 {
				lines = append(lines, indent+"  • "+line)
			} else {
				lines = append(lines, indent+"    "+line)
			}
		}
	}
	if len(lines) == 0 {
		return Result{}
	}
	lines = append(lines, "")
	return LinesOf(lines)
}

// renderTable lays rows out in space padded columns sized to the widest
// cell of each column.
func (r *TextRenderer) renderTable(el *etree.Element, ctx Context) Result {
	var rows [][]string
	cols := 0
	for _, row := range el.ChildElements() {
		if tei.TagOf(row) != tei.TagRow {
			continue
		}
		var cells []string
		for _, cell := range row.ChildElements() {
			if tei.TagOf(cell) != tei.TagCell {
				continue
			}
			cells = append(cells, tei.Text(cell))
		}
		if len(cells) > 0 {
			rows = append(rows, cells)
			if len(cells) > cols {
				cols = len(cells)
			}
		}
	}
	if len(rows) == 0 {
		return Result{}
	}

	widths := make([]int, cols)
	for _, cells := range rows {
		for i, cell := range cells {
			if w := VisualWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	indent := ctx.CurrentIndent()
	var lines []string
	for _, cells := range rows {
		padded := make([]string, len(cells))
		for i, cell := range cells {
			padded[i] = cell + strings.Repeat(" ", widths[i]-VisualWidth(cell))
		}
		lines = append(lines, indent+"  "+strings.Join(padded, "  "))
	}
	lines = append(lines, "")
	return LinesOf(lines)
}

// renderFigure renders an illustration placeholder, with its caption
// when one is present.
func (r *TextRenderer) renderFigure(el *etree.Element, ctx Context) Result {
	indent := ctx.CurrentIndent()

	caption := ""
	if head := childByTag(el, tei.TagHead); head != nil {
		caption = tei.Text(head)
	}
	var lines []string
	if len(caption) > 0 {
		lines = wrapIndented("[Illustration: "+caption+"]", indent, ctx.LineWidth)
	} else {
		lines = []string{indent + "[Illustration]"}
	}
	lines = append(lines, "")
	return LinesOf(lines)
}

// renderMilestone renders a thematic break, either a centered row of
// stars or plain vertical space.
func (r *TextRenderer) renderMilestone(el *etree.Element, ctx Context) Result {
	rend := r.rend(el)
	switch rend {
	case "none":
		return Result{}
	case "stars":
		return LinesOf([]string{centerLine(milestoneStars, ctx.LineWidth), ""})
	}
	return LinesOf([]string{"", ""})
}

// renderSigned right aligns a signature line when it fits, otherwise
// wraps it like a paragraph.
func (r *TextRenderer) renderSigned(el *etree.Element, ctx Context) Result {
	text := normalizeSpace(r.inlineText(el, ctx))
	if len(text) == 0 {
		return Result{}
	}
	var lines []string
	if w := VisualWidth(text); w <= ctx.LineWidth {
		lines = []string{strings.Repeat(" ", ctx.LineWidth-w) + text}
	} else {
		lines = wrapIndented(text, ctx.CurrentIndent(), ctx.LineWidth)
	}
	lines = append(lines, "")
	return LinesOf(lines)
}

// inlineText extracts running text with plain text stand-ins for inline
// markup: underscores for emphasis, brackets for notes, typographic
// quotes at the proper nesting depth, newlines for hard breaks.
func (r *TextRenderer) inlineText(el *etree.Element, ctx Context) string {
	var sb strings.Builder
	for _, tok := range el.Child {
		switch node := tok.(type) {
		case *etree.CharData:
			sb.WriteString(node.Data)
		case *etree.Element:
			switch tei.TagOf(node) {
			case tei.TagLb:
				sb.WriteString("\n")
			case tei.TagQuote, tei.TagQ:
				open, close := SmartQuotes(ctx.QuoteDepth)
				sb.WriteString(open)
				sb.WriteString(r.inlineText(node, ctx.WithDeeperQuote()))
				sb.WriteString(close)
			case tei.TagEmph, tei.TagHi, tei.TagTitle, tei.TagForeign:
				sb.WriteString("_" + tei.Text(node) + "_")
			case tei.TagNote:
				sb.WriteString(" [" + tei.Text(node) + "]")
			default:
				sb.WriteString(tei.Text(node))
			}
		}
	}
	return sb.String()
}

func childByTag(el *etree.Element, tag tei.Tag) *etree.Element {
	for _, child := range el.ChildElements() {
		if tei.TagOf(child) == tag {
			return child
		}
	}
	return nil
}

func centerLine(text string, width int) string {
	pad := (width - VisualWidth(text)) / 2
	if pad < 0 {
		pad = 0
	}
	return strings.Repeat(" ", pad) + text
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// wrapLines fills text into lines no longer than limit, never breaking
// inside words.
func wrapLines(text string, limit int) []string {
	if limit < 1 {
		limit = 1
	}
	w := wordwrap.NewWriter(limit)
	w.Breakpoints = nil
	w.KeepNewlines = false
	_, _ = w.Write([]byte(text))
	_ = w.Close()
	return strings.Split(w.String(), "\n")
}

func wrapIndented(text, indent string, width int) []string {
	lines := wrapLines(text, width-len(indent))
	for i := range lines {
		lines[i] = indent + lines[i]
	}
	return lines
}
