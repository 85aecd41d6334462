package embedding

import "strings"

// CleanText collapses whitespace and caps the input length before it is
// sent to the embedding model. Longer tails add latency without improving
// retrieval for chunked documents.
func CleanText(text string, maxChars int) string {
	cleaned := strings.Join(strings.Fields(text), " ")
	if maxChars <= 0 {
		return cleaned
	}
	runes := []rune(cleaned)
	if len(runes) <= maxChars {
		return cleaned
	}
	return string(runes[:maxChars]) + "..."
}
