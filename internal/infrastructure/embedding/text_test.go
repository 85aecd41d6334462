package embedding

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanTextCollapsesWhitespace(t *testing.T) {
	assert.Equal(t, "one two three", CleanText("  one \n\t two   three ", 100))
}

func TestCleanTextCapsLength(t *testing.T) {
	in := strings.Repeat("a", 3000)
	out := CleanText(in, 2000)
	assert.Len(t, out, 2003)
	assert.True(t, strings.HasSuffix(out, "..."))
}

func TestCleanTextNoCap(t *testing.T) {
	in := strings.Repeat("b", 3000)
	assert.Equal(t, in, CleanText(in, 0))
}
