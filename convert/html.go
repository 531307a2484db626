package convert

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"ppx/render"
	"ppx/tei"
)

// generateHTML renders the document as a single styled page and writes it
// to outputPath.
func generateHTML(doc *tei.Document, outputPath, customCSS string, log *zap.Logger) error {
	log.Info("Generating HTML", zap.String("output", outputPath))

	r := render.NewHTML()
	r.CustomCSS = customCSS

	result := render.NewTraverser(r).TraverseDocument(doc, render.NewContext())

	if err := os.WriteFile(outputPath, []byte(result.String()), 0644); err != nil {
		return fmt.Errorf("unable to write output file: %w", err)
	}
	return nil
}
