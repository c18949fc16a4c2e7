package converter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextConverter_ConvertIsPassthrough(t *testing.T) {
	c := NewTextConverter()
	out, err := c.Convert(context.Background(), []byte("plain text content"))
	require.NoError(t, err)
	assert.Equal(t, "plain text content", out)
}

func TestTextConverter_SupportedExtensions(t *testing.T) {
	c := NewTextConverter()
	assert.ElementsMatch(t, []string{".txt", ".text"}, c.SupportedExtensions())
}

func TestTextConverter_Name(t *testing.T) {
	c := NewTextConverter()
	assert.Equal(t, "plaintext", c.Name())
}
