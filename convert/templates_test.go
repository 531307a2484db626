package convert

import (
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"ppx/config"
	"ppx/tei"
)

const testTEI = `<?xml version="1.0" encoding="UTF-8"?>
<TEI xmlns="http://www.tei-c.org/ns/1.0">
  <teiHeader>
    <fileDesc>
      <titleStmt>
        <title>A Test of Time</title>
        <author>Jane Roe</author>
        <author>John Doe</author>
      </titleStmt>
      <publicationStmt>
        <publisher>Example Press</publisher>
        <date>1921</date>
        <idno>test-book-001</idno>
      </publicationStmt>
    </fileDesc>
    <profileDesc>
      <langUsage><language ident="en"/></langUsage>
    </profileDesc>
  </teiHeader>
  <text>
    <body>
      <div><head>Chapter One</head><p>Hello world.</p></div>
    </body>
  </text>
</TEI>`

func testLogger(t *testing.T) *zap.Logger {
	return zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))
}

func parseTestDoc(t *testing.T) *tei.Document {
	t.Helper()
	doc, err := tei.Parse(strings.NewReader(testTEI), testLogger(t))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return doc
}

func TestExpandTemplate(t *testing.T) {
	doc := parseTestDoc(t)

	tests := []struct {
		name     string
		template string
		want     string
	}{
		{
			name:     "title and format",
			template: "{{.Title}}.{{.Format}}",
			want:     "A Test of Time.epub",
		},
		{
			name:     "authors",
			template: `{{index .Authors 0}} - {{.Title}}`,
			want:     "Jane Roe - A Test of Time",
		},
		{
			name:     "sprig functions",
			template: `{{.Title | upper}}`,
			want:     "A TEST OF TIME",
		},
		{
			name:     "metadata fields",
			template: "{{.BookID}}/{{.Language}}/{{.Date}}/{{.Publisher}}",
			want:     "test-book-001/en/1921/Example Press",
		},
		{
			name:     "source file without extension",
			template: "{{.SourceFile}}",
			want:     "book",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := expandTemplate(doc, config.OutputNameTemplateFieldName, tt.template, "books/book.xml", config.OutputFmtEpub)
			if err != nil {
				t.Fatalf("expandTemplate() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("expandTemplate() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExpandTemplateErrors(t *testing.T) {
	doc := parseTestDoc(t)

	if _, err := expandTemplate(doc, config.OutputNameTemplateFieldName, "{{.Title", "book.xml", config.OutputFmtText); err == nil {
		t.Error("Expected error for malformed template")
	}
	if _, err := expandTemplate(doc, config.OutputNameTemplateFieldName, "{{.NoSuchField}}", "book.xml", config.OutputFmtText); err == nil {
		t.Error("Expected error for unknown field")
	}
}
