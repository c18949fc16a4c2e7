package langmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	table, err := Load()
	require.NoError(t, err)
	require.NotNil(t, table)
}

func TestTable_NormalizeKnownLanguage(t *testing.T) {
	table, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "zh", table.Normalize("Chinese"))
	assert.Equal(t, "en", table.Normalize("English"))
}

func TestTable_NormalizeUnknownPassesThrough(t *testing.T) {
	table, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "Klingon", table.Normalize("Klingon"))
}

func TestTable_DisplayRoundTrips(t *testing.T) {
	table, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "Chinese", table.Display(table.Normalize("Chinese")))
	assert.Equal(t, "xx", table.Display("xx"), "unknown codes pass through unchanged")
}
