// Package openai adapts the OpenAI chat-completions API to
// domain/services/workflow.LLMProvider, in the same shape as the
// anthropic provider. Not present in the teacher repo; wired in because
// the spec treats "provider" as a pluggable name, and the rest of the
// example corpus (cklxx-elephant.ai) reaches for sashabaranov/go-openai
// for exactly this.
package openai

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	workflowsvc "versify/internal/domain/services/workflow"
)

// Provider implements workflowsvc.LLMProvider for GPT models.
type Provider struct {
	client *openai.Client
}

// NewProvider builds an OpenAI provider. apiKey must be non-empty.
func NewProvider(apiKey string) (*Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}
	return &Provider{client: openai.NewClient(apiKey)}, nil
}

func (p *Provider) Name() string { return "openai" }

// SupportsModel reports whether model looks like a GPT/o-series model.
func (p *Provider) SupportsModel(model string) bool {
	return strings.HasPrefix(model, "gpt-") || strings.HasPrefix(model, "o1") || strings.HasPrefix(model, "o3")
}

// Complete issues one non-streaming chat completion call.
func (p *Provider) Complete(ctx context.Context, req workflowsvc.CompletionRequest) (workflowsvc.CompletionResult, error) {
	if !p.SupportsModel(req.Model) {
		return workflowsvc.CompletionResult{}, fmt.Errorf("model %q is not supported by the openai provider", req.Model)
	}

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	apiReq := openai.ChatCompletionRequest{
		Model:    req.Model,
		Messages: messages,
	}
	if req.MaxTokens > 0 {
		apiReq.MaxTokens = req.MaxTokens
	}
	if req.Temperature > 0 {
		apiReq.Temperature = float32(req.Temperature)
	}

	resp, err := p.client.CreateChatCompletion(ctx, apiReq)
	if err != nil {
		return workflowsvc.CompletionResult{}, fmt.Errorf("openai call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return workflowsvc.CompletionResult{}, fmt.Errorf("openai call returned no choices")
	}

	return workflowsvc.CompletionResult{
		Text:             resp.Choices[0].Message.Content,
		TokensPrompt:     resp.Usage.PromptTokens,
		TokensCompletion: resp.Usage.CompletionTokens,
		ModelUsed:        resp.Model,
	}, nil
}
