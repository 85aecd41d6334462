package chunking

import "strings"

type Splitter struct {
	MaxSize int
	Overlap int
}

func NewSplitter(maxSize, overlap int) *Splitter {
	if maxSize <= 0 {
		maxSize = 1000
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= maxSize {
		overlap = maxSize / 5
	}
	return &Splitter{
		MaxSize: maxSize,
		Overlap: overlap,
	}
}

// Split cuts text on sentence boundaries, carrying a short word-level
// tail from each chunk into the next so retrieval context does not lose
// meaning at the seams. A sentence longer than MaxSize is emitted
// truncated rather than dropped.
func (s *Splitter) Split(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return []string{truncateRunes(text, s.MaxSize)}
	}

	var out []string
	var current strings.Builder
	for _, sentence := range sentences {
		if len(sentence) > s.MaxSize {
			if current.Len() > 0 {
				out = append(out, strings.TrimSpace(current.String()))
				current.Reset()
			}
			out = append(out, truncateRunes(sentence, s.MaxSize))
			continue
		}
		if current.Len() > 0 && current.Len()+1+len(sentence) > s.MaxSize {
			chunk := strings.TrimSpace(current.String())
			out = append(out, chunk)
			current.Reset()
			if tail := s.overlapTail(chunk); tail != "" {
				current.WriteString(tail)
			}
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(sentence)
	}
	if chunk := strings.TrimSpace(current.String()); chunk != "" {
		out = append(out, chunk)
	}

	if len(out) == 0 {
		out = append(out, truncateRunes(text, s.MaxSize))
	}
	return out
}

// overlapTail returns the last overlap/5 words of a chunk. Words average
// about five characters, so this approximates the configured character
// overlap without cutting a word in half.
func (s *Splitter) overlapTail(chunk string) string {
	wordCount := s.Overlap / 5
	if wordCount == 0 {
		return ""
	}
	words := strings.Fields(chunk)
	if len(words) <= wordCount {
		return chunk
	}
	return strings.Join(words[len(words)-wordCount:], " ")
}

func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder
	for _, r := range text {
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			if sentence := strings.TrimSpace(current.String()); sentence != "" {
				sentences = append(sentences, sentence)
			}
			current.Reset()
		}
	}
	if sentence := strings.TrimSpace(current.String()); sentence != "" {
		sentences = append(sentences, sentence)
	}
	return sentences
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(string(runes[:limit]))
}
