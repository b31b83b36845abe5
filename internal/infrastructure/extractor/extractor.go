// Package extractor pulls plain text out of stored documents. Extraction
// is format-aware (PDF, image, plain text, binary fallback) and never
// fails a document: undecodable content yields an empty string, and
// downstream classification simply scores low.
package extractor

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"github.com/paperledger/docpipe/internal/core/domain"
)

type Extractor struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{logger: logger}
}

func (e *Extractor) Extract(ctx context.Context, doc *domain.Document, content []byte) (string, error) {
	if len(content) == 0 {
		return "", nil
	}

	switch kind(doc) {
	case "pdf":
		return e.extractPDF(ctx, doc, content), nil
	case "image":
		// Image text lives with the vision detector; nothing to extract here.
		return "", nil
	default:
		return extractPlainText(content), nil
	}
}

func kind(doc *domain.Document) string {
	mime := strings.ToLower(doc.MimeType)
	switch {
	case mime == "application/pdf":
		return "pdf"
	case strings.HasPrefix(mime, "image/"):
		return "image"
	case strings.HasPrefix(mime, "text/"):
		return "text"
	}
	switch strings.ToLower(filepath.Ext(doc.Filename)) {
	case ".pdf":
		return "pdf"
	case ".png", ".jpg", ".jpeg", ".tif", ".tiff", ".bmp", ".webp":
		return "image"
	}
	return "unknown"
}

// extractPDF recovers from parser panics: some scanned PDFs carry malformed
// xref tables that the parser cannot survive, and a hostile file must not
// take the worker down.
func (e *Extractor) extractPDF(ctx context.Context, doc *domain.Document, content []byte) (text string) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.WarnContext(ctx, "pdf_extraction_panic", "document_id", doc.ID, "panic", r)
			text = ""
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		e.logger.WarnContext(ctx, "pdf_open_failed", "document_id", doc.ID, "error", err)
		return ""
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		e.logger.WarnContext(ctx, "pdf_text_failed", "document_id", doc.ID, "error", err)
		return ""
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		e.logger.WarnContext(ctx, "pdf_read_failed", "document_id", doc.ID, "error", err)
		return ""
	}
	return strings.TrimSpace(buf.String())
}

func extractPlainText(content []byte) string {
	if !utf8.Valid(content) {
		return ""
	}
	return strings.TrimSpace(string(content))
}
