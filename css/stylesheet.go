// Package css discovers and loads user stylesheets, filtering their
// content for the selected output format. Stylesheets may carry format
// directive comments so a single file can serve page and book output:
//
//	/* @html */  following rules apply to standalone pages only
//	/* @epub */  following rules apply to book chapters only
//	/* @both */  following rules apply everywhere (the default)
//
// A directive must sit alone on its line, anything else is ordinary CSS
// content.
package css

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/maruel/natural"
	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"
)

var directive = regexp.MustCompile(`(?i)^/\*\s*@(html|epub|both)\s*\*/$`)

// Loader reads stylesheet files for one conversion run.
type Loader struct {
	log *zap.Logger
}

// NewLoader creates a stylesheet loader.
func NewLoader(log *zap.Logger) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{log: log.Named("css")}
}

// LoadPath loads custom CSS for the given format from a file or, when
// path is a directory, from every stylesheet inside it. An empty path
// yields empty content.
func (l *Loader) LoadPath(path, format string) (string, error) {
	if len(path) == 0 {
		return "", nil
	}

	fi, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("unable to access stylesheet path: %w", err)
	}
	if fi.IsDir() {
		return l.loadDir(path, format)
	}
	return l.loadFile(path, format)
}

func (l *Loader) loadDir(dir, format string) (string, error) {
	paths, err := Discover(dir)
	if err != nil {
		return "", err
	}

	var parts []string
	for _, path := range paths {
		content, err := l.loadFile(path, format)
		if err != nil {
			return "", err
		}
		if len(strings.TrimSpace(content)) > 0 {
			parts = append(parts, strings.TrimRight(content, "\n"))
		}
	}
	return strings.Join(parts, "\n"), nil
}

func (l *Loader) loadFile(path, format string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("unable to read stylesheet: %w", err)
	}

	filtered := FilterForFormat(string(data), format)
	l.validate([]byte(filtered), path)

	l.log.Debug("Loaded stylesheet",
		zap.String("path", path),
		zap.String("format", format),
		zap.Int("bytes", len(filtered)))
	return filtered, nil
}

// validate runs the filtered content through a CSS parser and warns on
// syntax problems. Bad CSS is still passed on, browsers and reading
// systems skip rules they cannot parse.
func (l *Loader) validate(data []byte, source string) {
	input := parse.NewInput(bytes.NewReader(data))
	parser := css.NewParser(input, false)
	for {
		gt, _, _ := parser.Next()
		if gt == css.ErrorGrammar {
			if err := parser.Err(); err != nil && err != io.EOF {
				l.log.Warn("Stylesheet has syntax problems",
					zap.String("path", source),
					zap.Error(err))
			}
			return
		}
	}
}

// Discover returns stylesheet files in a directory, naturally sorted so
// "style2.css" comes before "style10.css".
func Discover(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("unable to read stylesheet directory: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), ".css") {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Slice(paths, func(i, j int) bool { return natural.Less(paths[i], paths[j]) })
	return paths, nil
}

// FilterForFormat keeps the stylesheet lines that apply to the given
// format. Directive lines switch the active mode and are dropped from
// the output, malformed directives are ordinary content.
func FilterForFormat(content, format string) string {
	mode := "both"

	var kept []string
	for _, line := range strings.Split(content, "\n") {
		if m := directive.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
			mode = strings.ToLower(m[1])
			continue
		}
		if mode == "both" || mode == format {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
