package openai

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	workflowsvc "versify/internal/domain/services/workflow"
)

func TestNewProvider_RequiresAPIKey(t *testing.T) {
	_, err := NewProvider("")
	require.Error(t, err)
}

func TestNewProvider_BuildsWithAPIKey(t *testing.T) {
	p, err := NewProvider("test-key")
	require.NoError(t, err)
	assert.Equal(t, "openai", p.Name())
}

func TestProvider_SupportsModel(t *testing.T) {
	p, err := NewProvider("test-key")
	require.NoError(t, err)

	assert.True(t, p.SupportsModel("gpt-4o"))
	assert.True(t, p.SupportsModel("o1-preview"))
	assert.False(t, p.SupportsModel("claude-haiku-4-5-20251001"))
}

func TestProvider_CompleteRejectsUnsupportedModelWithoutCallingOut(t *testing.T) {
	p, err := NewProvider("test-key")
	require.NoError(t, err)

	_, err = p.Complete(context.Background(), workflowsvc.CompletionRequest{Model: "claude-haiku-4-5-20251001", Prompt: "hi"})
	require.Error(t, err)
}
