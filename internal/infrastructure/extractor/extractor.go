package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/mfandino/area-assistant/internal/core/domain"
	"github.com/mfandino/area-assistant/internal/core/ports"
)

type Extractor struct {
	ocr    ports.OCRService
	logger *slog.Logger
}

func New(ocr ports.OCRService, logger *slog.Logger) *Extractor {
	return &Extractor{ocr: ocr, logger: logger}
}

func (e *Extractor) Extract(ctx context.Context, doc *domain.SourceDocument) (string, error) {
	mime := DetectType(doc.Filename, doc.Data)
	doc.MimeType = mime

	text, err := e.extract(ctx, mime, doc)
	if err != nil {
		return "", err
	}

	text = strings.TrimSpace(text)
	e.logger.Debug("extracted document",
		"filename", doc.Filename,
		"type", mime,
		"length", len(text),
	)
	return text, nil
}

func (e *Extractor) extract(ctx context.Context, mime string, doc *domain.SourceDocument) (string, error) {
	switch mime {
	case MimePDF:
		return extractPDF(ctx, doc.Data, e.ocr, doc.Filename)
	case MimeDOCX:
		return extractDOCX(doc.Data)
	case MimeXLSX:
		return extractXLSX(doc.Data)
	case MimeCSV:
		return extractCSV(doc.Data)
	case MimeJSON:
		return extractJSON(doc.Data)
	case MimeText, MimeMD:
		return extractText(doc)
	case MimePNG, MimeJPEG, MimeWebP:
		return e.extractImage(ctx, doc)
	default:
		return "", domain.WrapError("extractor", doc.Filename, domain.ErrUnsupportedType)
	}
}

func extractText(doc *domain.SourceDocument) (string, error) {
	if !utf8.Valid(doc.Data) {
		return "", domain.WrapError("extractor", doc.Filename, domain.ErrUnsupportedType)
	}
	return string(doc.Data), nil
}

func extractJSON(data []byte) (string, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return "", domain.WrapError("json", "parse", err)
	}
	return buf.String(), nil
}

// extractImage never fails: with no OCR service, or when recognition
// errors out, the document is indexed under a placeholder instead.
func (e *Extractor) extractImage(ctx context.Context, doc *domain.SourceDocument) (string, error) {
	placeholder := fmt.Sprintf("[Image: %s, %d bytes, text recognition unavailable]", doc.Filename, len(doc.Data))
	if e.ocr == nil {
		return placeholder, nil
	}
	text, err := e.ocr.ExtractText(ctx, doc.Filename, doc.Data)
	if err != nil {
		e.logger.Warn("image text recognition failed", "filename", doc.Filename, "error", err)
		return placeholder, nil
	}
	return text, nil
}
