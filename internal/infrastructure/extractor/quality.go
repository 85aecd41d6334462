package extractor

import (
	"strings"
	"unicode"
)

const (
	minContentLength  = 50
	minDistinctRatio  = 0.3
	minLatinRatio     = 0.6
	repetitionMinRows = 5
)

// IsContentValid filters extraction garbage: OCR noise, binary soup and
// pages that are one line repeated over and over.
func IsContentValid(text string) bool {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < minContentLength {
		return false
	}

	lines := make([]string, 0, 32)
	for _, line := range strings.Split(trimmed, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) > repetitionMinRows {
		distinct := make(map[string]struct{}, len(lines))
		for _, line := range lines {
			distinct[line] = struct{}{}
		}
		if float64(len(distinct))/float64(len(lines)) < minDistinctRatio {
			return false
		}
	}

	var letters, total int
	for _, r := range trimmed {
		total++
		if unicode.Is(unicode.Latin, r) {
			letters++
		}
	}
	return float64(letters)/float64(total) > minLatinRatio
}
