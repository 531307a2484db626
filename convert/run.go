// Package convert turns parsed TEI sources into output documents.
package convert

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"ppx/config"
	"ppx/convert/epub"
	"ppx/css"
	"ppx/state"
	"ppx/tei"
)

func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("convert")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no input source has been specified")
	}
	src, err = filepath.Abs(src)
	if err != nil {
		return err
	}

	dst := cmd.Args().Get(1)
	if len(dst) == 0 {
		if dst, err = os.Getwd(); err != nil {
			return fmt.Errorf("unable to get working directory: %w", err)
		}
	}
	if dst, err = filepath.Abs(dst); err != nil {
		return err
	}
	if cmd.Args().Len() > 2 {
		log.Warn("Mailformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	format, err := config.ParseOutputFmt(cmd.String("to"))
	if err != nil {
		log.Warn("Unknown output format requested, switching to text", zap.Error(err))
		format = config.OutputFmtText
	}

	// Custom styles only apply to markup producing formats.
	var customCSS string
	if format != config.OutputFmtText {
		customCSS, err = css.NewLoader(log).LoadPath(env.Cfg.Document.StylesheetPath, format.String())
		if err != nil {
			return fmt.Errorf("unable to load stylesheet: %w", err)
		}
	}

	env.NoDirs, env.Overwrite = cmd.Bool("nodirs"), cmd.Bool("overwrite")

	log.Info("Processing starting", zap.String("source", src), zap.String("destination", dst), zap.Stringer("format", format))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	return process(ctx, src, dst, customCSS, format, log)
}

// process handles the core conversion logic independently of CLI framework.
// It determines the input type (directory or single file) and processes
// accordingly.
func process(ctx context.Context, src, dst, customCSS string, format config.OutputFmt, log *zap.Logger) error {
	fi, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("input source was not found (%s): %w", src, err)
	}

	if fi.Mode().IsDir() {
		return processDir(ctx, src, dst, customCSS, format, log)
	}
	if !fi.Mode().IsRegular() {
		return fmt.Errorf("unexpected path mode for (%s)", src)
	}
	return processBook(ctx, src, filepath.Base(src), dst, customCSS, format, log)
}

// processDir walks directory tree finding TEI files and processes them.
func processDir(ctx context.Context, dir, dst, customCSS string, format config.OutputFmt, log *zap.Logger) (err error) {
	count := 0
	defer func() {
		if err == nil && count == 0 {
			log.Debug("Nothing to process", zap.String("dir", dir))
		}
	}()

	err = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err != nil {
			log.Warn("Skipping path", zap.String("path", path), zap.Error(err))
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		if !isBookFile(path) {
			log.Debug("Skipping file, not recognized as book", zap.String("file", path))
			return nil
		}

		count++

		src := strings.TrimPrefix(strings.TrimPrefix(path, dir), string(filepath.Separator))
		if err := processBook(ctx, path, src, dst, customCSS, format, log); err != nil {
			log.Error("Unable to process file", zap.String("file", path), zap.Error(err))
		}
		return nil
	})
	return err
}

func isBookFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xml", ".tei":
		return true
	}
	return false
}

// processBook processes single TEI file. "path" is the actual location of the
// file, "src" is part of the source path (always including file name)
// relative to the original path. When actual file was specified it will be
// just base file name without a path. When looking inside directory it will
// be relative path inside the directory (including base file name). "dst" is
// the destination directory where the converted file should be written.
func processBook(ctx context.Context, path, src, dst, customCSS string, format config.OutputFmt, log *zap.Logger) (rerr error) {
	env := state.EnvFromContext(ctx)

	var refID, outputName string

	log.Info("Conversion starting", zap.String("from", src))
	defer func(start time.Time) {
		// NOTE: when multiple books are being processed we do not want a
		// single bad source to stop the run.
		if r := recover(); r != nil {
			log.Error("Conversion ended with panic",
				zap.Any("panic", r), zap.Duration("elapsed", time.Since(start)), zap.String("to", outputName), zap.ByteString("stack", debug.Stack()))
			rerr = fmt.Errorf("conversion panic: %v", r)
		} else {
			log.Info("Conversion completed", zap.Duration("elapsed", time.Since(start)), zap.String("to", outputName), zap.String("ref_id", refID))
		}
	}(time.Now())

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("unable to open source file (%s): %w", path, err)
	}
	defer file.Close()

	doc, err := tei.Parse(file, log)
	if err != nil {
		return fmt.Errorf("unable to parse TEI source (%s): %w", src, err)
	}

	refID = doc.Meta.ID

	// Determine output file name and path based on input and configuration.
	outputName = buildOutputPath(doc, src, dst, format, env)

	// Check if output file already exists
	if _, err := os.Stat(outputName); err == nil {
		if !env.Overwrite {
			return fmt.Errorf("output file already exists: %s", outputName)
		}
		log.Warn("Overwriting existing file", zap.String("file", outputName))
		if err = os.Remove(outputName); err != nil {
			return err
		}
	} else if !os.IsNotExist(err) {
		return err
	} else if err := os.MkdirAll(filepath.Dir(outputName), 0755); err != nil {
		return fmt.Errorf("unable to create output directory: %w", err)
	}

	// Generate output in the requested format
	switch format {
	case config.OutputFmtText:
		if err := generateText(doc, outputName, env, log); err != nil {
			return fmt.Errorf("unable to generate output: %w", err)
		}
	case config.OutputFmtHTML:
		if err := generateHTML(doc, outputName, customCSS, log); err != nil {
			return fmt.Errorf("unable to generate output: %w", err)
		}
	case config.OutputFmtEpub:
		var pageTitle string
		if env.Cfg.Epub.PageTitle != "" {
			pageTitle, err = expandTemplate(doc, config.EpubPageTitleFieldName, env.Cfg.Epub.PageTitle, src, format)
			if err != nil {
				log.Warn("Unable to prepare page title, using document title", zap.Error(err))
				pageTitle = ""
			}
		}
		if err := epub.Generate(ctx, doc, filepath.Dir(path), outputName, customCSS, pageTitle, log); err != nil {
			return fmt.Errorf("unable to generate output: %w", err)
		}
	}

	// Store conversion result for debugging
	if env.Rpt != nil {
		env.Rpt.Store(fmt.Sprintf("result-%s%s", refID, filepath.Ext(outputName)), outputName)
	}

	return nil
}
