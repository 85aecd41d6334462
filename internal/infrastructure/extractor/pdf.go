package extractor

import (
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/mfandino/area-assistant/internal/core/domain"
	"github.com/mfandino/area-assistant/internal/core/ports"
)

// extractPDF reads the text layer first; scanned PDFs with no usable text
// fall through to OCR when a service is configured.
func extractPDF(ctx context.Context, data []byte, ocr ports.OCRService, filename string) (string, error) {
	text, err := pdfTextLayer(data)
	if err == nil && IsContentValid(text) {
		return text, nil
	}

	if ocr == nil {
		if err != nil {
			return "", domain.WrapError("pdf", "extract text layer", err)
		}
		return "", domain.WrapError("pdf", filename, domain.ErrQuality)
	}

	recognized, ocrErr := ocr.ExtractText(ctx, filename, data)
	if ocrErr != nil {
		if err != nil {
			return "", domain.WrapError("pdf", "extract", ocrErr)
		}
		// Text layer failed the gate and OCR could not recover it.
		return "", domain.WrapError("pdf", filename, domain.ErrQuality)
	}
	return strings.TrimSpace(recognized), nil
}

func pdfTextLayer(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}
	raw, err := io.ReadAll(plain)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(raw)), nil
}
