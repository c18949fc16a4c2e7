// Package workflow declares the interfaces WorkflowOrchestrator depends
// on. Mirrors the teacher's domain/services/llm split: the core imports
// only these, never a concrete provider or repository package, so
// internal/llm and internal/repository stay swappable.
package workflow

import (
	"context"
	"time"

	workflowmodels "versify/internal/domain/models/workflow"
)

// LLMProvider is one backend capable of producing a completion for a
// single workflow step. Grounded in the teacher's llm.LLMProvider, cut
// down to the blocking call the orchestrator actually issues per step
// (no streaming: steps are scored as a whole, not incrementally).
type LLMProvider interface {
	// Complete runs one generation call and returns the raw text plus
	// token accounting. Must respect ctx cancellation/deadline.
	Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error)

	// Name identifies the provider ("anthropic", "openai", "mock").
	Name() string

	// SupportsModel reports whether model is servable by this provider.
	SupportsModel(model string) bool
}

// CompletionRequest is the provider-agnostic request built by
// PromptRenderer and handed to an LLMProvider by the orchestrator.
type CompletionRequest struct {
	Model       string
	Prompt      string
	System      string
	Temperature float64
	MaxTokens   int
}

// CompletionResult is what every provider returns, regardless of wire
// format: raw text plus usage. OutputParser turns Text into a
// ParsedOutput.
type CompletionResult struct {
	Text             string
	TokensPrompt     int
	TokensCompletion int
	ModelUsed        string
}

// LLMFactory resolves a provider by name, the way the teacher's
// ResponseGenerator resolves providers from a registry keyed by name.
type LLMFactory interface {
	// Provider returns the named provider, or an error wrapping
	// domain.ErrUnknownProvider if name is not registered.
	Provider(name string) (LLMProvider, error)
}

// PromptRenderer fills a named template with the variables a step needs.
type PromptRenderer interface {
	// Render resolves templateName and substitutes vars. Returns an
	// error wrapping domain.ErrUnknownTemplate or
	// domain.ErrMissingVariable.
	Render(templateName string, vars map[string]string) (string, error)
}

// OutputParser extracts the structured fields a step declares as
// required from a provider's raw text response.
type OutputParser interface {
	// Parse extracts requiredFields from raw. A field present but empty
	// still counts as present; a wholly absent field downgrades
	// ResultType to ParsedPartial (or ParsedFailed if all are missing).
	Parse(raw string, requiredFields []string) workflowmodels.ParsedOutput
}

// PersistenceSink writes one task's finished WorkflowResult in a single
// transaction (Translation + AiLog + every WorkflowStepRow), per spec
// invariant 6.
type PersistenceSink interface {
	Persist(ctx context.Context, result *workflowmodels.WorkflowResult) (*workflowmodels.TranslationArtifact, error)
}

// FileArchiver writes a denormalized JSON snapshot of a finished task to
// durable storage, independent of (and best-effort relative to)
// PersistenceSink.
type FileArchiver interface {
	Archive(ctx context.Context, result *workflowmodels.WorkflowResult) (path string, err error)
}

// ProgressPublisher is the narrow slice of ProgressBus the orchestrator
// writes to; kept separate from the subscriber-facing surface so the
// orchestrator can't accidentally subscribe to its own task.
type ProgressPublisher interface {
	Publish(taskID string, event workflowmodels.ProgressEvent)
}

// TaskUpdater is the narrow slice of TaskRegistry the orchestrator
// mutates through; separated from the read/subscribe surface handlers use.
type TaskUpdater interface {
	UpdateStatus(taskID string, status workflowmodels.TaskStatus)
	UpdateStep(taskID string, stepName string, status workflowmodels.StepStatus)
	UpdateProgress(taskID string, percent int, currentStep string)
	AppendWarning(taskID string, warning string)
	Finish(taskID string, result *workflowmodels.WorkflowResult, taskErr *workflowmodels.TaskError, finalStatus workflowmodels.TaskStatus)
	IsCancelRequested(taskID string) bool
}

// Clock is injected so RetryPolicy and orchestrator timing are testable
// without real sleeps.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}
