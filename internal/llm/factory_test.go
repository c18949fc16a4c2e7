package llm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"versify/internal/domain"
	workflowsvc "versify/internal/domain/services/workflow"
)

func TestFactory_UnknownProviderNameErrors(t *testing.T) {
	f := NewFactory(Config{})
	_, err := f.Provider("nonexistent")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnknownProvider)
}

func TestFactory_AnthropicWithoutAPIKeyErrors(t *testing.T) {
	f := NewFactory(Config{})
	_, err := f.Provider("anthropic")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnknownProvider)
}

func TestFactory_OpenAIWithoutAPIKeyErrors(t *testing.T) {
	f := NewFactory(Config{})
	_, err := f.Provider("openai")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnknownProvider)
}

func TestFactory_MockDisabledByDefaultErrors(t *testing.T) {
	f := NewFactory(Config{})
	_, err := f.Provider("mock")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnknownProvider)
}

func TestFactory_MockEnabledReturnsProvider(t *testing.T) {
	f := NewFactory(Config{EnableMock: true})
	p, err := f.Provider("mock")
	require.NoError(t, err)
	assert.Equal(t, "mock", p.Name())
}

func TestFactory_ProviderIsCachedAcrossCalls(t *testing.T) {
	f := NewFactory(Config{EnableMock: true})
	p1, err := f.Provider("mock")
	require.NoError(t, err)
	p2, err := f.Provider("mock")
	require.NoError(t, err)
	assert.Same(t, p1, p2)
}

func TestFactory_RateLimitedProviderThrottlesBursts(t *testing.T) {
	f := NewFactory(Config{
		EnableMock:        true,
		RequestsPerSecond: map[string]float64{"mock": 5},
	})
	p, err := f.Provider("mock")
	require.NoError(t, err)

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := p.Complete(context.Background(), workflowsvc.CompletionRequest{Model: "mock-small", Prompt: "hi"})
		require.NoError(t, err)
	}
	assert.GreaterOrEqual(t, time.Since(start), 200*time.Millisecond, "three calls at 5rps/burst1 must take at least ~2*200ms of waiting")
}
