package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFrontmatter_ExtractsMetadataAndContent(t *testing.T) {
	content := []byte("---\npath: Characters/Aria\nname: Hero Arc\n---\n# Aria\n\nbody text")

	metadata, markdown, err := ParseFrontmatter(content)
	require.NoError(t, err)
	assert.Equal(t, "Characters/Aria", metadata["path"])
	assert.Equal(t, "Hero Arc", metadata["name"])
	assert.Equal(t, "# Aria\n\nbody text", markdown)
}

func TestParseFrontmatter_RejectsMissingOpeningDelimiter(t *testing.T) {
	_, _, err := ParseFrontmatter([]byte("# no frontmatter here"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing frontmatter")
}

func TestParseFrontmatter_RejectsMissingClosingDelimiter(t *testing.T) {
	_, _, err := ParseFrontmatter([]byte("---\npath: foo\n# no closing"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "closing")
}

func TestParseFrontmatter_RejectsInvalidYAML(t *testing.T) {
	_, _, err := ParseFrontmatter([]byte("---\npath: [unterminated\n---\nbody"))
	require.Error(t, err)
}

func TestParseFrontmatter_SupportsCRLFOpeningDelimiter(t *testing.T) {
	content := []byte("---\r\npath: foo\r\n---\r\nbody")
	metadata, markdown, err := ParseFrontmatter(content)
	require.NoError(t, err)
	assert.Equal(t, "foo", metadata["path"])
	assert.Equal(t, "body", markdown)
}

func TestValidateImportMetadata_NilMetadataReturnsEmptyResult(t *testing.T) {
	meta, err := ValidateImportMetadata(nil)
	require.NoError(t, err)
	assert.Nil(t, meta.Path)
	assert.Nil(t, meta.Name)
	assert.Nil(t, meta.Tags)
}

func TestValidateImportMetadata_ExtractsPathNameAndTags(t *testing.T) {
	meta, err := ValidateImportMetadata(map[string]interface{}{
		"path": "Characters/Aria",
		"name": "Hero Arc",
		"tags": []interface{}{"fantasy", "epic"},
	})
	require.NoError(t, err)
	require.NotNil(t, meta.Path)
	assert.Equal(t, "Characters/Aria", *meta.Path)
	require.NotNil(t, meta.Name)
	assert.Equal(t, "Hero Arc", *meta.Name)
	assert.Equal(t, []string{"fantasy", "epic"}, meta.Tags)
}

func TestValidateImportMetadata_RejectsNonStringPath(t *testing.T) {
	_, err := ValidateImportMetadata(map[string]interface{}{"path": 42})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "path")
}

func TestValidateImportMetadata_RejectsNonStringName(t *testing.T) {
	_, err := ValidateImportMetadata(map[string]interface{}{"name": 42})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name")
}

func TestValidateImportMetadata_IgnoresNonStringTags(t *testing.T) {
	meta, err := ValidateImportMetadata(map[string]interface{}{
		"tags": []interface{}{"valid", 7},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"valid"}, meta.Tags)
}
