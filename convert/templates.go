package convert

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"text/template"

	sprig "github.com/go-task/slim-sprig/v3"

	"ppx/config"
	"ppx/tei"
)

// Values is a struct that holds variables we make available for template expansion
type Values struct {
	Context    string
	Title      string
	Language   string
	Date       string
	Authors    []string
	Publisher  string
	Format     string
	SourceFile string
	BookID     string
}

func expandTemplate(doc *tei.Document, name config.TemplateFieldName, field, srcName string, format config.OutputFmt) (string, error) {
	funcMap := sprig.FuncMap()

	tmpl, err := template.New(string(name)).Funcs(funcMap).Parse(field)
	if err != nil {
		return "", fmt.Errorf("unable to parse template field %s: %w", name, err)
	}

	values := Values{
		Context:    string(name),
		Title:      doc.Meta.Title,
		Language:   doc.Meta.Lang.String(),
		Date:       doc.Meta.Date,
		Authors:    doc.Meta.Authors,
		Publisher:  doc.Meta.Publisher,
		Format:     format.String(),
		SourceFile: strings.TrimSuffix(filepath.Base(srcName), filepath.Ext(srcName)),
		BookID:     doc.Meta.ID,
	}

	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, values); err != nil {
		return "", err
	}
	return buf.String(), nil
}
