package extractor

import (
	"bytes"
	"path/filepath"
	"strings"
)

const (
	MimePDF  = "application/pdf"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	MimeCSV  = "text/csv"
	MimeText = "text/plain"
	MimeMD   = "text/markdown"
	MimeJSON = "application/json"
	MimePNG  = "image/png"
	MimeJPEG = "image/jpeg"
	MimeWebP = "image/webp"
)

var extensionTypes = map[string]string{
	".pdf":  MimePDF,
	".docx": MimeDOCX,
	".xlsx": MimeXLSX,
	".csv":  MimeCSV,
	".txt":  MimeText,
	".md":   MimeMD,
	".json": MimeJSON,
	".png":  MimePNG,
	".jpg":  MimeJPEG,
	".jpeg": MimeJPEG,
	".webp": MimeWebP,
}

// DetectType prefers magic bytes over the client-declared MIME type and the
// filename extension. Office formats share the zip magic, so "PK" alone is
// ambiguous and the extension breaks the tie. Returns "" when neither the
// magic bytes nor the extension match a supported type.
func DetectType(filename string, data []byte) string {
	switch {
	case bytes.HasPrefix(data, []byte("%PDF")):
		return MimePDF
	case bytes.HasPrefix(data, []byte("PK\x03\x04")):
		if strings.EqualFold(filepath.Ext(filename), ".xlsx") {
			return MimeXLSX
		}
		return MimeDOCX
	case bytes.HasPrefix(data, []byte("\x89PNG")):
		return MimePNG
	case bytes.HasPrefix(data, []byte("\xff\xd8\xff")):
		return MimeJPEG
	case len(data) >= 12 && bytes.Equal(data[:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")):
		return MimeWebP
	}

	return extensionTypes[strings.ToLower(filepath.Ext(filename))]
}
