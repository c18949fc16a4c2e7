package converter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConverterRegistry_PreRegistersStandardConverters(t *testing.T) {
	r := NewConverterRegistry()
	assert.NotNil(t, r.GetConverter(".md"))
	assert.NotNil(t, r.GetConverter(".txt"))
	assert.NotNil(t, r.GetConverter(".html"))
}

func TestConverterRegistry_GetConverterIsCaseInsensitive(t *testing.T) {
	r := NewConverterRegistry()
	assert.NotNil(t, r.GetConverter(".TXT"))
}

func TestConverterRegistry_GetConverterUnknownExtensionIsNil(t *testing.T) {
	r := NewConverterRegistry()
	assert.Nil(t, r.GetConverter(".pdf"))
}

func TestConverterRegistry_ConvertRoutesByExtension(t *testing.T) {
	r := NewConverterRegistry()
	out, err := r.Convert(context.Background(), "notes.txt", []byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
}

func TestConverterRegistry_ConvertUnsupportedExtensionErrors(t *testing.T) {
	r := NewConverterRegistry()
	_, err := r.Convert(context.Background(), "notes.pdf", []byte("hello"))
	require.Error(t, err)
}

func TestConverterRegistry_ReRegisterKeepsExtensionsResolvable(t *testing.T) {
	r := NewConverterRegistry()
	r.Register(NewTextConverter())
	assert.NotNil(t, r.GetConverter(".txt"))
	assert.NotNil(t, r.GetConverter(".text"))
}

func TestConverterRegistry_SupportedExtensionsListsAll(t *testing.T) {
	r := NewConverterRegistry()
	exts := r.SupportedExtensions()
	assert.Contains(t, exts, ".md")
	assert.Contains(t, exts, ".txt")
	assert.Contains(t, exts, ".html")
}
