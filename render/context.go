// Package render turns parsed TEI into output formats. A single generic
// traverser walks the element tree and delegates every element to a
// format-specific Renderer, threading an immutable Context through the
// recursion so that nesting state never leaks between siblings.
package render

import (
	"strings"

	"ppx/tei"
)

// Default layout parameters, overridable through configuration.
const (
	DefaultLineWidth    = 72
	DefaultIndentString = "    "
)

// Context carries rendering state down the element tree. It is a value
// type and every With* method returns a modified copy, the receiver is
// never changed. Two sibling subtrees therefore always see identical
// state no matter in which order they are rendered.
type Context struct {
	ParentTag    tei.Tag
	ParentRend   string
	QuoteDepth   int
	BlockDepth   int
	IndentLevel  int
	IndentString string
	LineWidth    int
	Strict       bool
	IDMap        map[string]string
}

// NewContext returns a root context with default layout parameters.
func NewContext() Context {
	return Context{
		IndentString: DefaultIndentString,
		LineWidth:    DefaultLineWidth,
	}
}

// WithParent returns a copy with parent tag and its style hint replaced.
func (c Context) WithParent(tag tei.Tag, rend string) Context {
	c.ParentTag = tag
	c.ParentRend = rend
	return c
}

// WithDeeperQuote returns a copy with quotation nesting one level deeper.
func (c Context) WithDeeperQuote() Context {
	c.QuoteDepth++
	return c
}

// WithDeeperBlock returns a copy with block quotation nesting one level
// deeper. Kept separate from WithParent so that a renderer can enter a
// quote body without affecting unrelated children.
func (c Context) WithDeeperBlock() Context {
	c.BlockDepth++
	return c
}

// WithIndent returns a copy indented by the given number of levels.
func (c Context) WithIndent(levels int) Context {
	c.IndentLevel += levels
	return c
}

// WithStrict returns a copy with strict XML serialization toggled. Strict
// output self-closes void elements and escapes all character data, as
// required inside EPUB containers.
func (c Context) WithStrict(strict bool) Context {
	c.Strict = strict
	return c
}

// WithIDMap returns a copy carrying the identifier-to-file mapping used
// to resolve cross references in multi-file output.
func (c Context) WithIDMap(idMap map[string]string) Context {
	c.IDMap = idMap
	return c
}

// CurrentIndent is the leading whitespace for the current nesting level.
func (c Context) CurrentIndent() string {
	if c.IndentLevel <= 0 {
		return ""
	}
	return strings.Repeat(c.IndentString, c.IndentLevel)
}

// IsInlineParent reports whether the parent element carries running text,
// which makes a nested quote an inline quotation rather than a block.
func (c Context) IsInlineParent() bool {
	switch c.ParentTag {
	case tei.TagP, tei.TagItem, tei.TagCell, tei.TagNote, tei.TagHead, tei.TagL:
		return true
	}
	return false
}

// IsBlockParent reports whether the parent element is a block container.
func (c Context) IsBlockParent() bool {
	switch c.ParentTag {
	case tei.TagDiv, tei.TagBody, tei.TagFront, tei.TagBack, tei.TagQuote, tei.TagFigure:
		return true
	}
	return false
}
