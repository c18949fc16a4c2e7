package capabilities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistry(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)
	require.NotNil(t, r)
}

func TestRegistry_GetModelCapabilitiesKnownModel(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	caps, err := r.GetModelCapabilities("anthropic", "claude-haiku-4-5-20251001")
	require.NoError(t, err)
	assert.Equal(t, "Claude Haiku 4.5", caps.DisplayName)
	assert.True(t, caps.SupportsVision)
}

func TestRegistry_GetModelCapabilitiesUnknownModel(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	_, err = r.GetModelCapabilities("anthropic", "nonexistent")
	require.Error(t, err)
}

func TestRegistry_GetModelCapabilitiesUnknownProvider(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	_, err = r.GetModelCapabilities("nonexistent", "any-model")
	require.Error(t, err)
}

func TestRegistry_ListProviderModelsReturnsAllModels(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	models, err := r.ListProviderModels("openrouter")
	require.NoError(t, err)
	assert.Len(t, models, 2)
	assert.Contains(t, models, "openai/gpt-4o")
}

func TestRegistry_GetAllProvidersIncludesBoth(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	providers := r.GetAllProviders()
	assert.ElementsMatch(t, []string{"anthropic", "openrouter"}, providers)
}
