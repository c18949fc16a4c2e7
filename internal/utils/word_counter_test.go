package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCountWords_PlainText(t *testing.T) {
	assert.Equal(t, 3, CountWords("one two three"))
}

func TestCountWords_StripsCodeBlocks(t *testing.T) {
	md := "before\n```go\nfunc main() {}\n```\nafter"
	assert.Equal(t, 2, CountWords(md))
}

func TestCountWords_StripsInlineFormatting(t *testing.T) {
	assert.Equal(t, 2, CountWords("**bold** _italic_"))
}

func TestCountWords_StripsListMarkers(t *testing.T) {
	md := "- first\n- second\n1. third"
	assert.Equal(t, 3, CountWords(md))
}

func TestCountWords_EmptyStringIsZero(t *testing.T) {
	assert.Equal(t, 0, CountWords(""))
}

func TestCountWords_HeadingMarkersRemoved(t *testing.T) {
	assert.Equal(t, 2, CountWords("## Heading Text"))
}
