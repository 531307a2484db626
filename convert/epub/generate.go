// Package epub assembles rendered chapters into an EPUB3 container.
package epub

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/google/uuid"
	"github.com/h2non/filetype"
	fixzip "github.com/hidez8891/zip"
	"go.uber.org/zap"

	"ppx/render"
	"ppx/state"
	"ppx/tei"
)

const (
	mimetypeContent = "application/epub+zip"
	oebpsDir        = "OEBPS"
	imagesDir       = "images"
)

// image is a picture referenced by the source, resolved and read from disk.
type image struct {
	Filename  string
	MediaType string
	Data      []byte
}

// imageIndex maps the url attribute of a graphic element to its resolved image.
type imageIndex map[string]*image

var imgSrcRe = regexp.MustCompile(`(<img[^>]*src=")([^"]+)(")`)

// Generate creates the EPUB output file. srcDir is the directory of the
// source document, image references are resolved relative to it. pageTitle
// is used for divisions without a heading of their own, pass "" to use the
// document title.
func Generate(ctx context.Context, doc *tei.Document, srcDir, outputPath, customCSS, pageTitle string, log *zap.Logger) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	env := state.EnvFromContext(ctx)

	log.Info("Generating EPUB", zap.String("output", outputPath))

	f, err := os.CreateTemp(filepath.Dir(outputPath), "."+filepath.Base(outputPath)+".*")
	if err != nil {
		return fmt.Errorf("unable to create output file: %w", err)
	}
	tmpName := f.Name()
	defer os.Remove(tmpName)
	defer f.Close()

	zw := zip.NewWriter(f)
	defer zw.Close()

	if err := writeMimetype(zw); err != nil {
		return fmt.Errorf("unable to write mimetype: %w", err)
	}
	if err := writeContainer(zw); err != nil {
		return fmt.Errorf("unable to write container: %w", err)
	}

	images := collectImages(doc, srcDir, log)

	idMap := render.BuildIDMap(doc)
	chapters := render.NewEPUB().RenderChapters(doc, pageTitle, idMap)

	for _, chapter := range chapters {
		content := rewriteImageLinks(chapter.Content, images)
		if err := writeDataToZip(zw, path.Join(oebpsDir, chapter.File), []byte(content)); err != nil {
			return fmt.Errorf("unable to write chapter %s: %w", chapter.File, err)
		}
	}

	if err := writeImages(zw, images); err != nil {
		return fmt.Errorf("unable to write images: %w", err)
	}
	if err := writeStylesheet(zw, customCSS); err != nil {
		return fmt.Errorf("unable to write stylesheet: %w", err)
	}
	if err := writeNav(zw, doc, chapters); err != nil {
		return fmt.Errorf("unable to write NAV: %w", err)
	}
	if err := writeOPF(zw, doc, chapters, images); err != nil {
		return fmt.Errorf("unable to write OPF: %w", err)
	}

	// make sure buffers are flushed before continuing
	if err := zw.Close(); err != nil {
		return fmt.Errorf("unable to close output archive: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("unable to finalize output file: %w", err)
	}

	if env.Cfg.Epub.FixZip {
		return copyZipWithoutDataDescriptors(tmpName, outputPath)
	}
	return copyFile(tmpName, outputPath)
}

// collectImages resolves every graphic url in the document against srcDir.
// Unresolvable references are logged and kept pointing at the original url.
func collectImages(doc *tei.Document, srcDir string, log *zap.Logger) imageIndex {
	images := make(imageIndex)
	for _, section := range doc.Sections() {
		walkGraphics(section, func(url string) {
			if _, seen := images[url]; seen || url == "" {
				return
			}
			data, err := os.ReadFile(filepath.Join(srcDir, filepath.FromSlash(url)))
			if err != nil {
				log.Warn("Unable to read referenced image, keeping link as is",
					zap.String("url", url), zap.Error(err))
				return
			}
			images[url] = &image{
				Filename:  path.Base(url),
				MediaType: detectMediaType(url, data),
				Data:      data,
			}
		})
	}
	return images
}

func walkGraphics(el *etree.Element, fn func(url string)) {
	if tei.TagOf(el) == tei.TagGraphic {
		fn(el.SelectAttrValue("url", ""))
	}
	for _, child := range el.ChildElements() {
		walkGraphics(child, fn)
	}
}

func detectMediaType(url string, data []byte) string {
	if t, err := filetype.Match(data); err == nil && t != filetype.Unknown && strings.HasPrefix(t.MIME.Value, "image/") {
		return t.MIME.Value
	}
	switch strings.ToLower(path.Ext(url)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".svg":
		return "image/svg+xml"
	default:
		return "image/png"
	}
}

// rewriteImageLinks repoints img elements from source relative urls to the
// images directory inside the container.
func rewriteImageLinks(content string, images imageIndex) string {
	if len(images) == 0 {
		return content
	}
	return imgSrcRe.ReplaceAllStringFunc(content, func(m string) string {
		groups := imgSrcRe.FindStringSubmatch(m)
		if img, ok := images[groups[2]]; ok {
			return groups[1] + imagesDir + "/" + img.Filename + groups[3]
		}
		return m
	})
}

func writeMimetype(zw *zip.Writer) error {
	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:   "mimetype",
		Method: zip.Store,
	})
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, mimetypeContent)
	return err
}

func writeContainer(zw *zip.Writer) error {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	container := doc.CreateElement("container")
	container.CreateAttr("version", "1.0")
	container.CreateAttr("xmlns", "urn:oasis:names:tc:opendocument:xmlns:container")

	rootfiles := container.CreateElement("rootfiles")
	rootfile := rootfiles.CreateElement("rootfile")
	rootfile.CreateAttr("full-path", path.Join(oebpsDir, "content.opf"))
	rootfile.CreateAttr("media-type", "application/oebps-package+xml")

	return writeXMLToZip(zw, "META-INF/container.xml", doc)
}

func writeImages(zw *zip.Writer, images imageIndex) error {
	for _, img := range images {
		if err := writeDataToZip(zw, path.Join(oebpsDir, imagesDir, img.Filename), img.Data); err != nil {
			return err
		}
	}
	return nil
}

func writeStylesheet(zw *zip.Writer, customCSS string) error {
	css := render.DefaultCSS()
	if customCSS != "" {
		css += "\n\n/* Custom styles */\n" + customCSS
	}
	return writeDataToZip(zw, path.Join(oebpsDir, "styles.css"), []byte(css))
}

func writeNav(zw *zip.Writer, teiDoc *tei.Document, chapters []render.Chapter) error {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	html := doc.CreateElement("html")
	html.CreateAttr("xmlns", "http://www.w3.org/1999/xhtml")
	html.CreateAttr("xmlns:epub", "http://www.idpf.org/2007/ops")

	head := html.CreateElement("head")

	meta := head.CreateElement("meta")
	meta.CreateAttr("charset", "utf-8")

	title := head.CreateElement("title")
	title.SetText("Table of Contents")

	link := head.CreateElement("link")
	link.CreateAttr("rel", "stylesheet")
	link.CreateAttr("type", "text/css")
	link.CreateAttr("href", "styles.css")

	body := html.CreateElement("body")

	nav := body.CreateElement("nav")
	nav.CreateAttr("epub:type", "toc")
	nav.CreateAttr("id", "toc")
	nav.CreateAttr("role", "doc-toc")

	h1 := nav.CreateElement("h1")
	h1.SetText(bookTitle(teiDoc))

	ol := nav.CreateElement("ol")
	for _, chapter := range chapters {
		li := ol.CreateElement("li")
		a := li.CreateElement("a")
		a.CreateAttr("href", chapter.File)
		a.SetText(chapter.Title)
	}

	landmarksNav := body.CreateElement("nav")
	landmarksNav.CreateAttr("epub:type", "landmarks")
	landmarksNav.CreateAttr("id", "landmarks")
	landmarksNav.CreateAttr("hidden", "")

	landmarksH2 := landmarksNav.CreateElement("h2")
	landmarksH2.SetText("Landmarks")

	landmarksOL := landmarksNav.CreateElement("ol")
	for _, chapter := range chapters {
		// body matter starts with the first real chapter
		if !strings.HasPrefix(chapter.File, "chapter") {
			continue
		}
		li := landmarksOL.CreateElement("li")
		a := li.CreateElement("a")
		a.CreateAttr("epub:type", "bodymatter")
		a.CreateAttr("href", chapter.File)
		a.SetText("Start")
		break
	}

	return writeXMLToZip(zw, path.Join(oebpsDir, "nav.xhtml"), doc)
}

func writeOPF(zw *zip.Writer, teiDoc *tei.Document, chapters []render.Chapter, images imageIndex) error {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	pkg := doc.CreateElement("package")
	pkg.CreateAttr("xmlns", "http://www.idpf.org/2007/opf")
	pkg.CreateAttr("version", "3.0")
	pkg.CreateAttr("unique-identifier", "book-id")

	metadata := pkg.CreateElement("metadata")
	metadata.CreateAttr("xmlns:dc", "http://purl.org/dc/elements/1.1/")

	dcID := metadata.CreateElement("dc:identifier")
	dcID.CreateAttr("id", "book-id")
	dcID.SetText(bookID(teiDoc))

	dcTitle := metadata.CreateElement("dc:title")
	dcTitle.SetText(bookTitle(teiDoc))

	dcLang := metadata.CreateElement("dc:language")
	dcLang.SetText(teiDoc.Meta.Lang.String())

	for _, author := range teiDoc.Meta.Authors {
		dcCreator := metadata.CreateElement("dc:creator")
		dcCreator.SetText(author)
	}

	if teiDoc.Meta.Publisher != "" {
		dcPublisher := metadata.CreateElement("dc:publisher")
		dcPublisher.SetText(teiDoc.Meta.Publisher)
	}
	if teiDoc.Meta.Date != "" {
		dcDate := metadata.CreateElement("dc:date")
		dcDate.SetText(teiDoc.Meta.Date)
	}

	// EPUB3 requires dcterms:modified metadata
	modifiedMeta := metadata.CreateElement("meta")
	modifiedMeta.CreateAttr("property", "dcterms:modified")
	modifiedMeta.SetText(time.Now().UTC().Format("2006-01-02T15:04:05Z"))

	manifest := pkg.CreateElement("manifest")

	navItem := manifest.CreateElement("item")
	navItem.CreateAttr("id", "nav")
	navItem.CreateAttr("href", "nav.xhtml")
	navItem.CreateAttr("media-type", "application/xhtml+xml")
	navItem.CreateAttr("properties", "nav")

	cssItem := manifest.CreateElement("item")
	cssItem.CreateAttr("id", "css")
	cssItem.CreateAttr("href", "styles.css")
	cssItem.CreateAttr("media-type", "text/css")

	for _, chapter := range chapters {
		item := manifest.CreateElement("item")
		item.CreateAttr("id", chapterID(chapter))
		item.CreateAttr("href", chapter.File)
		item.CreateAttr("media-type", "application/xhtml+xml")
	}

	for _, img := range images {
		item := manifest.CreateElement("item")
		item.CreateAttr("id", "img-"+strings.ReplaceAll(img.Filename, ".", "-"))
		item.CreateAttr("href", imagesDir+"/"+img.Filename)
		item.CreateAttr("media-type", img.MediaType)
	}

	spine := pkg.CreateElement("spine")
	for _, chapter := range chapters {
		itemref := spine.CreateElement("itemref")
		itemref.CreateAttr("idref", chapterID(chapter))
	}

	return writeXMLToZip(zw, path.Join(oebpsDir, "content.opf"), doc)
}

func chapterID(chapter render.Chapter) string {
	return strings.TrimSuffix(chapter.File, ".xhtml")
}

func bookTitle(doc *tei.Document) string {
	if doc.Meta.Title != "" {
		return doc.Meta.Title
	}
	return "Untitled"
}

func bookID(doc *tei.Document) string {
	if doc.Meta.ID != "" {
		return doc.Meta.ID
	}
	return "urn:uuid:" + uuid.NewString()
}

func writeXMLToZip(zw *zip.Writer, name string, doc *etree.Document) error {
	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		return err
	}
	return writeDataToZip(zw, name, buf.Bytes())
}

func writeDataToZip(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func copyZipWithoutDataDescriptors(from, to string) error {

	out, err := os.Create(to)
	if err != nil {
		return fmt.Errorf("unable to create target file (%s): %w", to, err)
	}
	defer out.Close()

	r, err := fixzip.OpenReader(from)
	if err != nil {
		return fmt.Errorf("unable to read archive file (%s): %w", from, err)
	}
	defer r.Close()

	w := fixzip.NewWriter(out)
	defer w.Close()

	for _, file := range r.File {
		// unset data descriptor flag.
		file.Flags &= ^fixzip.FlagDataDescriptor

		// copy zip entry
		if err := w.CopyFile(file); err != nil {
			return fmt.Errorf("unable to write target file (%s): %w", to, err)
		}
	}
	return nil
}

func copyFile(src, dst string) error {

	sourceFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}
	defer sourceFile.Close()

	destinationFile, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create destination file: %w", err)
	}
	defer destinationFile.Close()

	if _, err = io.Copy(destinationFile, sourceFile); err != nil {
		return fmt.Errorf("failed to copy file contents: %w", err)
	}

	if err = destinationFile.Close(); err != nil {
		return fmt.Errorf("failed to close destination file: %w", err)
	}
	return nil
}
