package render

import (
	"github.com/beevik/etree"

	"ppx/tei"
)

// Traverser walks a TEI document tree and delegates all rendering to a
// format-specific Renderer. It knows document structure, never output
// syntax.
type Traverser struct {
	r Renderer
}

// NewTraverser returns a traverser bound to the given renderer.
func NewTraverser(r Renderer) *Traverser {
	return &Traverser{r: r}
}

// TraverseDocument renders a whole document: preamble, front matter,
// body, back matter and closing, in that order. The base context supplies
// layout parameters, its parent tag is reset for each section.
func (t *Traverser) TraverseDocument(doc *tei.Document, base Context) Result {
	parts := []Result{t.r.RenderDocumentStart(doc)}

	root := base.WithParent(tei.TagTEI, "")
	if doc.Front != nil {
		parts = append(parts, t.TraverseSection(doc.Front, root.WithParent(tei.TagFront, "")))
	}
	if doc.Body != nil {
		parts = append(parts, t.TraverseSection(doc.Body, root.WithParent(tei.TagBody, "")))
	}
	if doc.Back != nil {
		parts = append(parts, t.TraverseSection(doc.Back, root.WithParent(tei.TagBack, "")))
	}

	parts = append(parts, t.r.RenderDocumentEnd())
	return Combine(parts)
}

// TraverseSection renders the children of a structural section. The
// section context is handed to each child unchanged, container handlers
// establish their own child contexts so heading rules can still see
// whether they sit directly under front, body or back matter.
func (t *Traverser) TraverseSection(section *etree.Element, ctx Context) Result {
	var parts []Result
	for _, child := range section.ChildElements() {
		if res := t.TraverseElement(child, ctx); !res.IsEmpty() {
			parts = append(parts, res)
		}
	}
	return Combine(parts)
}

// TraverseElement renders a single element, dispatching on its tag.
// Handlers call back into this method for nested block content.
func (t *Traverser) TraverseElement(el *etree.Element, ctx Context) Result {
	return t.r.RenderElement(el, tei.TagOf(el), ctx, t)
}
