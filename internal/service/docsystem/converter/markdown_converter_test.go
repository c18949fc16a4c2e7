package converter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkdownConverter_ConvertIsPassthrough(t *testing.T) {
	c := NewMarkdownConverter()
	out, err := c.Convert(context.Background(), []byte("# Heading\n\nbody"))
	require.NoError(t, err)
	assert.Equal(t, "# Heading\n\nbody", out)
}

func TestMarkdownConverter_SupportedExtensions(t *testing.T) {
	c := NewMarkdownConverter()
	assert.ElementsMatch(t, []string{".md", ".markdown"}, c.SupportedExtensions())
}

func TestMarkdownConverter_Name(t *testing.T) {
	assert.Equal(t, "markdown", NewMarkdownConverter().Name())
}
