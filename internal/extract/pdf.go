package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// pdfText reads the text layer of every page. Scanned PDFs without a text layer give
// an empty string and end up as ErrNoText.
func (r *Reader) pdfText(ctx context.Context, data []byte) (string, error) {
	conf := model.NewDefaultConfiguration()
	pdfCtx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		return "", fmt.Errorf("lecture du PDF: %w", err)
	}

	var text strings.Builder
	for pageNr := 1; pageNr <= pdfCtx.PageCount; pageNr++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		content, err := pdfcpu.ExtractPageContent(pdfCtx, pageNr)
		if err != nil || content == nil {
			slog.Debug("pdf page without content", "page", pageNr, "error", err)
			continue
		}
		raw, err := io.ReadAll(content)
		if err != nil {
			continue
		}
		text.WriteString(contentText(raw))
		text.WriteString("\n")
		r.report(fmt.Sprintf("Page %d sur %d", pageNr, pdfCtx.PageCount), 20+70*pageNr/pdfCtx.PageCount)
	}
	return text.String(), nil
}
