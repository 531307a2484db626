package convert

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"ppx/render"
	"ppx/state"
	"ppx/tei"
)

// generateText renders the document as wrapped plain text and writes it to
// outputPath. Non-breaking spaces are not representable in the output and
// collapse to plain spaces.
func generateText(doc *tei.Document, outputPath string, env *state.LocalEnv, log *zap.Logger) error {
	log.Info("Generating text", zap.String("output", outputPath))

	ctx := render.NewContext()
	if env.Cfg.Document.LineWidth > 0 {
		ctx.LineWidth = env.Cfg.Document.LineWidth
	}
	if env.Cfg.Document.IndentString != "" {
		ctx.IndentString = env.Cfg.Document.IndentString
	}

	result := render.NewTraverser(render.NewText()).TraverseDocument(doc, ctx)

	text := strings.ReplaceAll(result.String(), " ", " ")
	if !result.IsEmpty() {
		text += "\n"
	}

	if err := os.WriteFile(outputPath, []byte(text), 0644); err != nil {
		return fmt.Errorf("unable to write output file: %w", err)
	}
	return nil
}
