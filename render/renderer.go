package render

import (
	"regexp"

	"github.com/beevik/etree"
	"github.com/muesli/reflow/ansi"

	"ppx/tei"
)

// Renderer is implemented once per output format. The traverser calls
// RenderElement for every block element it meets, handlers recurse back
// through the traverser for nested content.
type Renderer interface {
	// FormatName identifies the format for format-specific style hints.
	FormatName() string

	// RenderDocumentStart produces the document preamble.
	RenderDocumentStart(doc *tei.Document) Result

	// RenderDocumentEnd produces the document closing.
	RenderDocumentEnd() Result

	// RenderElement renders a single element under the given context.
	RenderElement(el *etree.Element, tag tei.Tag, ctx Context, tr *Traverser) Result
}

// SmartQuotes returns typographic quotation marks for a nesting depth.
// Even depths quote with double marks, odd depths with single marks.
func SmartQuotes(depth int) (open, close string) {
	if depth%2 == 0 {
		return "“", "”"
	}
	return "‘", "’"
}

var emphasisMarkers = regexp.MustCompile(`_([^_]+)_`)

// VisualWidth measures the displayed width of a text line, ignoring
// underscore emphasis markers and counting wide runes properly.
func VisualWidth(s string) int {
	return ansi.PrintableRuneWidth(emphasisMarkers.ReplaceAllString(s, "$1"))
}
