// Package mock is a deterministic stand-in LLM provider used by tests
// and local development without API keys, grounded in the teacher's
// lorem provider (internal/service/llm/providers/lorem) but emitting
// well-formed tagged output instead of lorem ipsum, since OutputParser
// expects XML-style tags rather than prose.
package mock

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"

	workflowsvc "versify/internal/domain/services/workflow"
)

// Provider is a no-network LLMProvider. Responses are derived
// deterministically from the prompt so repeated test runs are stable.
type Provider struct {
	// Delay, if set, simulates provider latency; left at zero in tests.
	Delay func(ctx context.Context) error
}

// NewProvider builds a mock provider.
func NewProvider() *Provider { return &Provider{} }

func (p *Provider) Name() string { return "mock" }

// SupportsModel accepts any model prefixed "mock-".
func (p *Provider) SupportsModel(model string) bool {
	return strings.HasPrefix(model, "mock-")
}

// Complete returns a response shaped like the workflow's expected tagged
// output: a <translation> tag always, plus a <notes> tag when the prompt
// looks like an editor-review step.
func (p *Provider) Complete(ctx context.Context, req workflowsvc.CompletionRequest) (workflowsvc.CompletionResult, error) {
	if !p.SupportsModel(req.Model) {
		return workflowsvc.CompletionResult{}, fmt.Errorf("model %q is not supported by the mock provider", req.Model)
	}
	if p.Delay != nil {
		if err := p.Delay(ctx); err != nil {
			return workflowsvc.CompletionResult{}, err
		}
	}

	seed := fnvSeed(req.Prompt)
	var sb strings.Builder
	fmt.Fprintf(&sb, "<translation>mock translation %d of: %s</translation>\n", seed%1000, truncate(req.Prompt, 40))
	if strings.Contains(strings.ToLower(req.Prompt), "review") || strings.Contains(strings.ToLower(req.Prompt), "edit") {
		fmt.Fprintf(&sb, "<notes>mock editorial note %d</notes>\n", (seed/7)%1000)
	}

	text := sb.String()
	return workflowsvc.CompletionResult{
		Text:             text,
		TokensPrompt:     len(strings.Fields(req.Prompt)),
		TokensCompletion: len(strings.Fields(text)),
		ModelUsed:        req.Model,
	}, nil
}

func fnvSeed(s string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(s))
	return h.Sum32()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
