// Package anthropic adapts the Anthropic Messages API to
// domain/services/workflow.LLMProvider. Grounded in the teacher's
// internal/service/llm/providers/anthropic client, trimmed to the
// single blocking call a workflow step needs (no streaming, no tool use).
package anthropic

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	workflowsvc "versify/internal/domain/services/workflow"
)

// Provider implements workflowsvc.LLMProvider for Claude models.
type Provider struct {
	client *anthropic.Client
}

// NewProvider builds an Anthropic provider. apiKey must be non-empty.
func NewProvider(apiKey string) (*Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &Provider{client: &client}, nil
}

func (p *Provider) Name() string { return "anthropic" }

// SupportsModel reports whether model is a Claude model.
func (p *Provider) SupportsModel(model string) bool {
	return strings.HasPrefix(model, "claude-")
}

// Complete issues one non-streaming Messages.New call.
func (p *Provider) Complete(ctx context.Context, req workflowsvc.CompletionRequest) (workflowsvc.CompletionResult, error) {
	if !p.SupportsModel(req.Model) {
		return workflowsvc.CompletionResult{}, fmt.Errorf("model %q is not supported by the anthropic provider", req.Model)
	}

	maxTokens := int64(req.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if req.Temperature > 0 {
		params.Temperature = anthropic.Float(req.Temperature)
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Type: "text", Text: req.System}}
	}

	message, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return workflowsvc.CompletionResult{}, fmt.Errorf("anthropic call failed: %w", err)
	}

	var sb strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}

	return workflowsvc.CompletionResult{
		Text:             sb.String(),
		TokensPrompt:     int(message.Usage.InputTokens),
		TokensCompletion: int(message.Usage.OutputTokens),
		ModelUsed:        string(message.Model),
	}, nil
}
