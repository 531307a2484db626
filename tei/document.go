package tei

import (
	"fmt"
	"io"
	"strings"

	"github.com/beevik/etree"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/language"
)

// Metadata is what we care about from teiHeader.
type Metadata struct {
	Title     string
	Authors   []string
	Lang      language.Tag
	Date      string
	Publisher string
	Source    string
	ID        string
}

// Document is a parsed TEI source with its sections located and header
// metadata extracted. Sections may be nil when absent.
type Document struct {
	Doc   *etree.Document
	Front *etree.Element
	Body  *etree.Element
	Back  *etree.Element
	Meta  Metadata
}

// Respect common HTML named character references - real world sources often
// do not properly follow XML standard.
var namedEntities = map[string]string{
	"nbsp":   " ",
	"shy":    "­",
	"mdash":  "—",
	"ndash":  "–",
	"ldquo":  "“",
	"rdquo":  "”",
	"lsquo":  "‘",
	"rsquo":  "’",
	"laquo":  "«",
	"raquo":  "»",
	"hellip": "…",
	"ensp":   " ",
	"emsp":   " ",
	"thinsp": " ",
	"sect":   "§",
	"copy":   "©",
	"deg":    "°",
	"dagger": "†",
	"Dagger": "‡",
}

// Parse reads TEI XML and locates its structural parts.
func Parse(r io.Reader, log *zap.Logger) (*Document, error) {
	doc := etree.NewDocument()
	doc.WriteSettings = etree.WriteSettings{
		CanonicalText:    true,
		CanonicalAttrVal: true,
	}
	doc.ReadSettings = etree.ReadSettings{
		CharsetReader: charset.NewReaderLabel,
		Entity:        namedEntities,
		ValidateInput: false,
		Permissive:    true,
	}

	if _, err := doc.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("unable to read TEI document: %w", err)
	}

	root := doc.Root()
	if root == nil || TagOf(root) != TagTEI {
		return nil, fmt.Errorf("document root is not TEI")
	}

	d := &Document{Doc: doc, Meta: Metadata{Lang: language.English}}

	var text *etree.Element
	for _, child := range root.ChildElements() {
		switch Local(child) {
		case "teiHeader":
			d.parseHeader(child, log)
		case "text":
			text = child
		default:
			log.Warn("Unexpected tag in TEI, ignoring", zap.String("tag", child.Tag))
		}
	}
	if text == nil {
		return nil, fmt.Errorf("TEI document has no text element")
	}

	for _, child := range text.ChildElements() {
		switch Local(child) {
		case "front":
			d.Front = child
		case "body":
			d.Body = child
		case "back":
			d.Back = child
		default:
			log.Warn("Unexpected tag in text, ignoring", zap.String("tag", child.Tag))
		}
	}
	if d.Body == nil {
		return nil, fmt.Errorf("TEI document has no body")
	}
	return d, nil
}

func (d *Document) parseHeader(el *etree.Element, log *zap.Logger) {
	for _, child := range el.ChildElements() {
		switch Local(child) {
		case "fileDesc":
			d.parseFileDesc(child, log)
		case "profileDesc":
			d.parseProfileDesc(child, log)
		case "encodingDesc", "revisionDesc":
			// not relevant for conversion
		default:
			log.Warn("Unexpected tag in teiHeader, ignoring", zap.String("tag", child.Tag))
		}
	}
}

func (d *Document) parseFileDesc(el *etree.Element, log *zap.Logger) {
	for _, child := range el.ChildElements() {
		switch Local(child) {
		case "titleStmt":
			for _, c := range child.ChildElements() {
				switch Local(c) {
				case "title":
					if len(d.Meta.Title) == 0 {
						d.Meta.Title = normalizeSpace(c.Text())
					}
				case "author":
					if name := normalizeSpace(flattenText(c)); len(name) > 0 {
						d.Meta.Authors = append(d.Meta.Authors, name)
					}
				}
			}
		case "publicationStmt":
			for _, c := range child.ChildElements() {
				switch Local(c) {
				case "publisher":
					d.Meta.Publisher = normalizeSpace(c.Text())
				case "date":
					d.Meta.Date = normalizeSpace(c.Text())
				case "idno":
					d.Meta.ID = normalizeSpace(c.Text())
				}
			}
		case "sourceDesc":
			d.Meta.Source = normalizeSpace(flattenText(child))
		default:
			log.Warn("Unexpected tag in fileDesc, ignoring", zap.String("tag", child.Tag))
		}
	}
}

func (d *Document) parseProfileDesc(el *etree.Element, log *zap.Logger) {
	for _, child := range el.ChildElements() {
		if Local(child) != "langUsage" {
			continue
		}
		for _, c := range child.ChildElements() {
			if Local(c) != "language" {
				continue
			}
			ident := c.SelectAttrValue("ident", "")
			if len(ident) == 0 {
				continue
			}
			tag, err := language.Parse(ident)
			if err != nil {
				log.Warn("Unable to parse document language, using English", zap.String("ident", ident), zap.Error(err))
				continue
			}
			d.Meta.Lang = tag
		}
	}
}

// Sections returns present sections in traversal order along with their tags.
func (d *Document) Sections() []*etree.Element {
	var out []*etree.Element
	for _, s := range []*etree.Element{d.Front, d.Body, d.Back} {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

// Text returns all character data below an element with surrounding
// whitespace trimmed, markup ignored.
func Text(el *etree.Element) string {
	return strings.TrimSpace(flattenText(el))
}

// flattenText concatenates all character data below an element.
func flattenText(el *etree.Element) string {
	var sb strings.Builder
	for _, tok := range el.Child {
		switch t := tok.(type) {
		case *etree.CharData:
			sb.WriteString(t.Data)
		case *etree.Element:
			sb.WriteString(flattenText(t))
		}
	}
	return sb.String()
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
