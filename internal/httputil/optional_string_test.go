package httputil

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type patchDoc struct {
	Name OptionalString `json:"name"`
}

func TestOptionalString_AbsentFieldStaysNotPresent(t *testing.T) {
	var d patchDoc
	require.NoError(t, json.Unmarshal([]byte(`{}`), &d))
	assert.False(t, d.Name.Present)
	assert.Nil(t, d.Name.Value)
}

func TestOptionalString_NullFieldIsPresentWithNilValue(t *testing.T) {
	var d patchDoc
	require.NoError(t, json.Unmarshal([]byte(`{"name": null}`), &d))
	assert.True(t, d.Name.Present)
	assert.Nil(t, d.Name.Value)
}

func TestOptionalString_EmptyStringIsPresentWithEmptyValue(t *testing.T) {
	var d patchDoc
	require.NoError(t, json.Unmarshal([]byte(`{"name": ""}`), &d))
	assert.True(t, d.Name.Present)
	require.NotNil(t, d.Name.Value)
	assert.Equal(t, "", *d.Name.Value)
}

func TestOptionalString_ValueIsPresentWithValue(t *testing.T) {
	var d patchDoc
	require.NoError(t, json.Unmarshal([]byte(`{"name": "hello"}`), &d))
	assert.True(t, d.Name.Present)
	require.NotNil(t, d.Name.Value)
	assert.Equal(t, "hello", *d.Name.Value)
}

func TestOptionalString_RejectsNonStringValue(t *testing.T) {
	var d patchDoc
	err := json.Unmarshal([]byte(`{"name": 42}`), &d)
	require.Error(t, err)
}
