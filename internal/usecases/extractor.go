package usecases

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"

	"project_geminibot/internal/entities"
)

var ErrUnsupportedType = errors.New("unsupported file type")

const UnsupportedFileReply = "Unsupported file type."

const maxImageBytes = 20 << 20

// ImageLabeler detects concepts in raw image bytes.
type ImageLabeler interface {
	Labels(ctx context.Context, image []byte) ([]entities.Label, error)
}

// FileKind groups supported extensions by how they are processed.
type FileKind int

const (
	KindUnsupported FileKind = iota
	KindDocument
	KindImage
)

// KindOf classifies an extension; case and a leading dot are ignored.
func KindOf(ext string) FileKind {
	switch normalizeExt(ext) {
	case "pdf", "docx", "pptx":
		return KindDocument
	case "png", "jpg", "jpeg":
		return KindImage
	default:
		return KindUnsupported
	}
}

func normalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

// Extractor turns a downloaded file into text or image labels.
type Extractor struct {
	labeler ImageLabeler
	logger  *slog.Logger
}

func NewExtractor(labeler ImageLabeler, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{labeler: labeler, logger: logger.With("component", "extractor")}
}

func (e *Extractor) Extract(ctx context.Context, filePath, ext string) (entities.Extraction, error) {
	var (
		out entities.Extraction
		err error
	)
	switch normalizeExt(ext) {
	case "pdf":
		out.Text, err = extractPDF(filePath)
	case "docx":
		out.Text, err = extractDOCX(filePath)
	case "pptx":
		out.Text, err = extractPPTX(filePath)
	case "png", "jpg", "jpeg":
		out.Labels, err = e.labelImage(ctx, filePath)
	default:
		return out, ErrUnsupportedType
	}
	if err != nil {
		e.logger.Warn("extraction failed", "ext", ext, "file", path.Base(filePath), "err", err)
		return entities.Extraction{}, err
	}
	return out, nil
}

func (e *Extractor) labelImage(ctx context.Context, filePath string) ([]entities.Label, error) {
	if e.labeler == nil {
		return nil, errors.New("image labeling is not configured")
	}
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if len(data) > maxImageBytes {
		return nil, fmt.Errorf("image larger than %d bytes", maxImageBytes)
	}
	return e.labeler.Labels(ctx, data)
}

func extractPDF(filePath string) (string, error) {
	f, r, err := pdf.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	var sb strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("read pdf page %d: %w", i, err)
		}
		sb.WriteString(text)
	}
	return sb.String(), nil
}

type docxDocument struct {
	Body struct {
		Paragraphs []docxParagraph `xml:"p"`
	} `xml:"body"`
}

type docxParagraph struct {
	Runs []struct {
		Text []string `xml:"t"`
	} `xml:"r"`
}

func extractDOCX(filePath string) (string, error) {
	zr, err := zip.OpenReader(filePath)
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}
	defer zr.Close()

	data, err := readZipEntry(&zr.Reader, "word/document.xml")
	if err != nil {
		return "", err
	}

	var doc docxDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return "", fmt.Errorf("parse docx: %w", err)
	}

	lines := make([]string, 0, len(doc.Body.Paragraphs))
	for _, p := range doc.Body.Paragraphs {
		var sb strings.Builder
		for _, r := range p.Runs {
			for _, t := range r.Text {
				sb.WriteString(t)
			}
		}
		lines = append(lines, sb.String())
	}
	return strings.Join(lines, "\n"), nil
}

func extractPPTX(filePath string) (string, error) {
	zr, err := zip.OpenReader(filePath)
	if err != nil {
		return "", fmt.Errorf("open pptx: %w", err)
	}
	defer zr.Close()

	type slide struct {
		num  int
		file *zip.File
	}
	var slides []slide
	for _, f := range zr.File {
		if path.Dir(f.Name) != "ppt/slides" {
			continue
		}
		name := path.Base(f.Name)
		if !strings.HasPrefix(name, "slide") || !strings.HasSuffix(name, ".xml") {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, "slide"), ".xml"))
		if err != nil {
			continue
		}
		slides = append(slides, slide{num: n, file: f})
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].num < slides[j].num })

	var texts []string
	for _, s := range slides {
		rc, err := s.file.Open()
		if err != nil {
			return "", fmt.Errorf("open %s: %w", s.file.Name, err)
		}
		shapes, err := slideShapeTexts(rc)
		rc.Close()
		if err != nil {
			return "", fmt.Errorf("parse %s: %w", s.file.Name, err)
		}
		texts = append(texts, shapes...)
	}
	return strings.Join(texts, "\n"), nil
}

// slideShapeTexts returns the text of every shape on a slide. Paragraphs
// inside a shape are separated by newlines.
func slideShapeTexts(r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)
	var (
		shapes    []string
		paras     []string
		current   strings.Builder
		shapeDeep int
		inText    bool
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return shapes, nil
		}
		if err != nil {
			return nil, err
		}
		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "sp":
				shapeDeep++
				if shapeDeep == 1 {
					paras = paras[:0]
				}
			case "t":
				inText = shapeDeep > 0
			}
		case xml.EndElement:
			switch el.Name.Local {
			case "t":
				inText = false
			case "p":
				if shapeDeep > 0 {
					paras = append(paras, current.String())
					current.Reset()
				}
			case "sp":
				shapeDeep--
				if shapeDeep == 0 {
					if text := strings.Join(paras, "\n"); strings.TrimSpace(text) != "" {
						shapes = append(shapes, text)
					}
				}
			}
		case xml.CharData:
			if inText {
				current.Write(el)
			}
		}
	}
}

func readZipEntry(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("%s not found in archive", name)
}
