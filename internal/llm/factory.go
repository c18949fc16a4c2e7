// Package llm resolves provider names to domain/services/workflow.LLMProvider
// instances and rate-limits calls per provider. Grounded in the teacher's
// internal/service/llm.ProviderFactory (switch-on-name construction from
// config), extended with golang.org/x/time/rate since a single runaway
// task should not be able to exhaust a provider's real rate limit.
package llm

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/time/rate"

	"versify/internal/domain"
	workflowsvc "versify/internal/domain/services/workflow"
	"versify/internal/llm/providers/anthropic"
	"versify/internal/llm/providers/mock"
	"versify/internal/llm/providers/openai"
)

// Config supplies the provider credentials and rate limits Factory needs.
// Zero values disable the corresponding provider / leave it unlimited.
type Config struct {
	AnthropicAPIKey string
	OpenAIAPIKey    string
	EnableMock      bool

	// RequestsPerSecond, keyed by provider name, bounds outbound calls.
	// A provider absent from this map is unlimited.
	RequestsPerSecond map[string]float64
}

// Factory implements workflowsvc.LLMFactory, lazily constructing and
// caching one provider instance (and limiter) per name.
type Factory struct {
	cfg Config

	mu        sync.Mutex
	providers map[string]workflowsvc.LLMProvider
	limiters  map[string]*rate.Limiter
}

// NewFactory builds a Factory from cfg. Construction is lazy: an invalid
// or missing API key only surfaces when that provider is first requested.
func NewFactory(cfg Config) *Factory {
	return &Factory{
		cfg:       cfg,
		providers: make(map[string]workflowsvc.LLMProvider),
		limiters:  make(map[string]*rate.Limiter),
	}
}

// Provider resolves name to a provider, constructing it on first use.
func (f *Factory) Provider(name string) (workflowsvc.LLMProvider, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if p, ok := f.providers[name]; ok {
		return p, nil
	}

	var (
		p   workflowsvc.LLMProvider
		err error
	)
	switch name {
	case "anthropic":
		p, err = f.buildAnthropic()
	case "openai":
		p, err = f.buildOpenAI()
	case "mock":
		p, err = f.buildMock()
	default:
		return nil, fmt.Errorf("%s: %w", name, domain.ErrUnknownProvider)
	}
	if err != nil {
		return nil, err
	}

	if rps, ok := f.cfg.RequestsPerSecond[name]; ok && rps > 0 {
		f.limiters[name] = rate.NewLimiter(rate.Limit(rps), 1)
		p = &limitedProvider{LLMProvider: p, limiter: f.limiters[name]}
	}

	f.providers[name] = p
	return p, nil
}

func (f *Factory) buildAnthropic() (workflowsvc.LLMProvider, error) {
	if f.cfg.AnthropicAPIKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY not set: %w", domain.ErrUnknownProvider)
	}
	return anthropic.NewProvider(f.cfg.AnthropicAPIKey)
}

func (f *Factory) buildOpenAI() (workflowsvc.LLMProvider, error) {
	if f.cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY not set: %w", domain.ErrUnknownProvider)
	}
	return openai.NewProvider(f.cfg.OpenAIAPIKey)
}

func (f *Factory) buildMock() (workflowsvc.LLMProvider, error) {
	if !f.cfg.EnableMock {
		return nil, fmt.Errorf("mock provider disabled: %w", domain.ErrUnknownProvider)
	}
	return mock.NewProvider(), nil
}

// limitedProvider wraps a provider with a token-bucket limiter so bursts
// from a single task never exceed the configured rate.
type limitedProvider struct {
	workflowsvc.LLMProvider
	limiter *rate.Limiter
}

func (l *limitedProvider) Complete(ctx context.Context, req workflowsvc.CompletionRequest) (workflowsvc.CompletionResult, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return workflowsvc.CompletionResult{}, fmt.Errorf("rate limit wait: %w", err)
	}
	return l.LLMProvider.Complete(ctx, req)
}
