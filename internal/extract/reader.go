// Package extract turns uploaded deeds into plain text and pulls the figures a notary
// would read first: deed type, principal amount, dates, parties, relation, location.
// Field extraction never fails; a field that cannot be read is reported as not found.
package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

var (
	ErrUnsupportedFormat = errors.New("format de fichier non pris en charge")
	ErrLegacyDoc         = errors.New("les fichiers .doc (Word 97-2003) ne sont pas pris en charge, enregistrez le document en .docx ou en PDF")
	ErrNoText            = errors.New("aucun texte exploitable n'a été trouvé dans le document")
	ErrNoOCREngine       = errors.New("aucun moteur OCR n'est configuré pour lire les images")
	ErrTooLarge          = errors.New("le fichier dépasse la taille maximale autorisée")
)

type Format string

const (
	FormatText      Format = "txt"
	FormatHTML      Format = "html"
	FormatMarkdown  Format = "md"
	FormatPDF       Format = "pdf"
	FormatDOCX      Format = "docx"
	FormatXLSX      Format = "xlsx"
	FormatImage     Format = "image"
	FormatLegacyDoc Format = "doc"
)

var formats = map[string]Format{
	".txt":      FormatText,
	".text":     FormatText,
	".csv":      FormatText,
	".html":     FormatHTML,
	".htm":      FormatHTML,
	".md":       FormatMarkdown,
	".markdown": FormatMarkdown,
	".pdf":      FormatPDF,
	".docx":     FormatDOCX,
	".xlsx":     FormatXLSX,
	".png":      FormatImage,
	".jpg":      FormatImage,
	".jpeg":     FormatImage,
	".webp":     FormatImage,
	".gif":      FormatImage,
	".doc":      FormatLegacyDoc,
}

var imageMIME = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".webp": "image/webp",
	".gif":  "image/gif",
}

// FormatOf infers the document format from its file name.
func FormatOf(name string) (Format, bool) {
	f, ok := formats[strings.ToLower(filepath.Ext(name))]
	return f, ok
}

// Progress is reported while a document is read. Progress runs from 0 to 100.
type Progress struct {
	Status   string `json:"status"`
	Progress int    `json:"progress"`
}

// OCREngine recognises the text of an image.
type OCREngine interface {
	Recognize(ctx context.Context, data []byte, mimeType string) (string, error)
}

type Option func(*Reader)

func WithProgress(fn func(Progress)) Option {
	return func(r *Reader) {
		r.progress = fn
	}
}

func WithOCR(engine OCREngine) Option {
	return func(r *Reader) {
		r.ocr = engine
	}
}

// WithMaxSize bounds the number of bytes read from a document.
func WithMaxSize(n int64) Option {
	return func(r *Reader) {
		if n > 0 {
			r.maxSize = n
		}
	}
}

type Reader struct {
	progress func(Progress)
	ocr      OCREngine
	maxSize  int64
}

const defaultMaxSize = 20 << 20

func NewReader(opts ...Option) *Reader {
	r := &Reader{maxSize: defaultMaxSize}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Reader) report(status string, pct int) {
	if r.progress != nil {
		r.progress(Progress{Status: status, Progress: pct})
	}
}

// ReadText returns the text of the document named name. The name only selects the
// decoder; the content is read from src.
func (r *Reader) ReadText(ctx context.Context, name string, src io.Reader) (string, error) {
	format, ok := FormatOf(name)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(name))
	}
	if format == FormatLegacyDoc {
		return "", ErrLegacyDoc
	}

	r.report("Lecture du fichier", 5)
	data, err := io.ReadAll(io.LimitReader(src, r.maxSize+1))
	if err != nil {
		return "", fmt.Errorf("lecture de %s: %w", name, err)
	}
	if int64(len(data)) > r.maxSize {
		return "", ErrTooLarge
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	r.report("Extraction du texte", 20)
	var text string
	switch format {
	case FormatText:
		text = decodeText(data)
	case FormatHTML:
		text, err = htmlText(data)
	case FormatMarkdown:
		text, err = markdownText(data)
	case FormatPDF:
		text, err = r.pdfText(ctx, data)
	case FormatDOCX:
		text, err = docxText(data)
	case FormatXLSX:
		text, err = xlsxText(data)
	case FormatImage:
		if r.ocr == nil {
			return "", ErrNoOCREngine
		}
		r.report("Reconnaissance optique des caractères", 40)
		text, err = r.ocr.Recognize(ctx, data, imageMIME[strings.ToLower(filepath.Ext(name))])
	}
	if err != nil {
		return "", fmt.Errorf("extraction du texte de %s: %w", name, err)
	}

	text = tidy(text)
	if text == "" {
		return "", ErrNoText
	}
	r.report("Terminé", 100)
	return text, nil
}

// tidy trims every line and collapses runs of blank lines.
func tidy(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, l := range lines {
		l = strings.Join(strings.Fields(l), " ")
		if l == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, l)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
