// Package tei implements document model for a practical subset of TEI markup.
package tei

import (
	"strings"

	"github.com/beevik/etree"
)

// Tag enumerates elements of the supported TEI subset.
type Tag int

const (
	TagUnknown Tag = iota
	TagTEI
	TagTeiHeader
	TagText
	TagFront
	TagBody
	TagBack
	TagDiv
	TagHead
	TagP
	TagHi
	TagEmph
	TagForeign
	TagQuote
	TagQ
	TagL
	TagLg
	TagList
	TagItem
	TagLabel
	TagTable
	TagRow
	TagCell
	TagFigure
	TagGraphic
	TagFigDesc
	TagNote
	TagRef
	TagLb
	TagPb
	TagMilestone
	TagSigned
	TagTitle
	TagAuthor
)

var tagByName = map[string]Tag{
	"TEI":       TagTEI,
	"teiHeader": TagTeiHeader,
	"text":      TagText,
	"front":     TagFront,
	"body":      TagBody,
	"back":      TagBack,
	"div":       TagDiv,
	"head":      TagHead,
	"p":         TagP,
	"hi":        TagHi,
	"emph":      TagEmph,
	"foreign":   TagForeign,
	"quote":     TagQuote,
	"q":         TagQ,
	"l":         TagL,
	"lg":        TagLg,
	"list":      TagList,
	"item":      TagItem,
	"label":     TagLabel,
	"table":     TagTable,
	"row":       TagRow,
	"cell":      TagCell,
	"figure":    TagFigure,
	"graphic":   TagGraphic,
	"figDesc":   TagFigDesc,
	"note":      TagNote,
	"ref":       TagRef,
	"lb":        TagLb,
	"pb":        TagPb,
	"milestone": TagMilestone,
	"signed":    TagSigned,
	"title":     TagTitle,
	"author":    TagAuthor,
}

var tagNames = func() map[Tag]string {
	m := make(map[Tag]string, len(tagByName))
	for n, t := range tagByName {
		m[t] = n
	}
	return m
}()

func (t Tag) String() string {
	if n, ok := tagNames[t]; ok {
		return n
	}
	return "unknown"
}

// ParseTag maps element name to a Tag, stripping any namespace qualifier.
func ParseTag(name string) Tag {
	if i := strings.LastIndexByte(name, ':'); i >= 0 {
		name = name[i+1:]
	}
	if t, ok := tagByName[name]; ok {
		return t
	}
	return TagUnknown
}

// Local returns element name without namespace qualifier. Etree already
// splits the prefix into Space, the extra cut protects against parsers that
// leave it in place.
func Local(el *etree.Element) string {
	name := el.Tag
	if i := strings.LastIndexByte(name, ':'); i >= 0 {
		name = name[i+1:]
	}
	return name
}

// TagOf returns the Tag of an element.
func TagOf(el *etree.Element) Tag {
	return ParseTag(el.Tag)
}
