package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"versify/internal/domain"
)

func TestNewRenderer(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)
	require.NotNil(t, r)
}

func TestRenderer_RenderProducesSystemAndUserSections(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	out, err := r.Render("initial_translation", map[string]string{
		"source_lang":   "Chinese",
		"target_lang":   "English",
		"original_text": "床前明月光",
	})
	require.NoError(t, err)
	assert.Contains(t, out, "expert literary translator")
	assert.Contains(t, out, "床前明月光")
	assert.Contains(t, out, "Chinese")
}

func TestRenderer_RenderSystemUserKeepsSectionsSeparate(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	system, user, err := r.RenderSystemUser("initial_translation", map[string]string{
		"source_lang":   "Chinese",
		"target_lang":   "English",
		"original_text": "床前明月光",
	})
	require.NoError(t, err)
	assert.Contains(t, system, "expert literary translator")
	assert.NotContains(t, system, "床前明月光")
	assert.Contains(t, user, "床前明月光")
}

func TestRenderer_UnknownTemplateErrors(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	_, err = r.Render("nonexistent", map[string]string{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnknownTemplate)
}

func TestRenderer_MissingRequiredVariableErrors(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	_, err = r.Render("initial_translation", map[string]string{
		"source_lang": "Chinese",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMissingVariable)
}

func TestRenderer_BlankRequiredVariableCountsAsMissing(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	_, err = r.Render("initial_translation", map[string]string{
		"source_lang":   "Chinese",
		"target_lang":   "English",
		"original_text": "   ",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMissingVariable)
}

func TestRenderer_DottedVariableNamesResolveViaIndex(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	system, user, err := r.RenderSystemUser("editor_review", map[string]string{
		"source_lang":            "Chinese",
		"target_lang":            "English",
		"original_text":          "床前明月光",
		"initial_translation.text": "Moonlight before my bed",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, system)
	assert.Contains(t, user, "Moonlight before my bed")
}

func TestRenderer_EstimateTokensIsPositiveForNonEmptyPrompt(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	n := r.EstimateTokens("you are a translator", "translate this poem please")
	assert.Greater(t, n, 0)
}
