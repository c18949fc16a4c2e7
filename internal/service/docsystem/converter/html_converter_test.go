package converter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTMLConverter_ConvertsBasicMarkup(t *testing.T) {
	c := NewHTMLConverter()
	out, err := c.Convert(context.Background(), []byte("<h1>Title</h1><p>body text</p>"))
	require.NoError(t, err)
	assert.Contains(t, out, "Title")
	assert.Contains(t, out, "body text")
}

func TestHTMLConverter_SanitizesScriptsBeforeConversion(t *testing.T) {
	c := NewHTMLConverter()
	out, err := c.Convert(context.Background(), []byte(`<p>safe</p><script>alert(1)</script>`))
	require.NoError(t, err)
	assert.NotContains(t, out, "alert(1)")
	assert.Contains(t, out, "safe")
}

func TestHTMLConverter_SupportedExtensions(t *testing.T) {
	c := NewHTMLConverter()
	assert.ElementsMatch(t, []string{".html", ".htm"}, c.SupportedExtensions())
}

func TestHTMLConverter_Name(t *testing.T) {
	assert.Equal(t, "html", NewHTMLConverter().Name())
}
