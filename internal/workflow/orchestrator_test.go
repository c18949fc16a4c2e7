package workflow

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"versify/internal/domain"
	workflowmodels "versify/internal/domain/models/workflow"
	workflowsvc "versify/internal/domain/services/workflow"
	"versify/internal/workflow/modes"
	"versify/internal/workflow/progress"
	"versify/internal/workflow/registry"
)

func progressBusForTest() *progress.Bus {
	return progress.New(progress.Options{})
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakePoemRepo satisfies the narrow workflowrepo.Repository surface the
// orchestrator needs for poem lookups; Create* are no-ops since these
// tests exercise Start/run, not PersistenceSink.
type fakePoemRepo struct {
	poem *workflowmodels.Poem
}

func (f *fakePoemRepo) GetPoem(ctx context.Context, poemID string) (*workflowmodels.Poem, error) {
	if f.poem == nil || f.poem.ID != poemID {
		return nil, domain.ErrNotFound
	}
	return f.poem, nil
}
func (f *fakePoemRepo) CreateTranslation(ctx context.Context, t *workflowmodels.TranslationArtifact) error {
	return nil
}
func (f *fakePoemRepo) CreateAiLog(ctx context.Context, log *workflowmodels.AiLogRow) error { return nil }
func (f *fakePoemRepo) CreateWorkflowStep(ctx context.Context, step *workflowmodels.WorkflowStepRow) error {
	return nil
}

type fakeFactory struct {
	provider workflowsvc.LLMProvider
}

func (f *fakeFactory) Provider(name string) (workflowsvc.LLMProvider, error) {
	if f.provider == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownProvider, name)
	}
	return f.provider, nil
}

type fakeProvider struct {
	name string
	fn   func(req workflowsvc.CompletionRequest) (workflowsvc.CompletionResult, error)
}

func (p *fakeProvider) Name() string                    { return p.name }
func (p *fakeProvider) SupportsModel(model string) bool { return true }
func (p *fakeProvider) Complete(ctx context.Context, req workflowsvc.CompletionRequest) (workflowsvc.CompletionResult, error) {
	return p.fn(req)
}

type fakeRenderer struct{}

func (fakeRenderer) Render(templateName string, vars map[string]string) (string, error) {
	return "rendered:" + templateName, nil
}

type fakeParser struct {
	result workflowmodels.ParsedOutput
}

func (p fakeParser) Parse(raw string, requiredFields []string) workflowmodels.ParsedOutput {
	return p.result
}

type fakeSink struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (s *fakeSink) Persist(ctx context.Context, result *workflowmodels.WorkflowResult) (*workflowmodels.TranslationArtifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &workflowmodels.TranslationArtifact{ID: "artifact-1"}, nil
}

type fakeArchiver struct{}

func (fakeArchiver) Archive(ctx context.Context, result *workflowmodels.WorkflowResult) (string, error) {
	return "/tmp/archive.json", nil
}

func newTestOrchestrator(t *testing.T, provider workflowsvc.LLMProvider, sink *fakeSink) (*Orchestrator, *registry.Registry, *fakePoemRepo) {
	t.Helper()

	reg := registry.New(time.Hour)
	bus := progressBusForTest()
	modesReg, err := modes.NewRegistry()
	require.NoError(t, err)

	poemRepo := &fakePoemRepo{poem: &workflowmodels.Poem{ID: "poem-1", OriginalText: "原文", Title: "Title", PoetName: "Poet"}}

	o := New(
		reg,
		bus,
		modesReg,
		&fakeFactory{provider: provider},
		fakeRenderer{},
		fakeParser{result: workflowmodels.ParsedOutput{
			ResultType: workflowmodels.ParsedOK,
			Fields: map[string]string{
				"initial_translation": "a fine translation",
				"editor_suggestions":  "looks good",
				"revised_translation": "a finer translation",
			},
		}},
		sink,
		fakeArchiver{},
		poemRepo,
		discardLogger(),
		nil,
		Config{MaxConcurrentTasks: 2},
	)
	return o, reg, poemRepo
}

func TestOrchestrator_StartRejectsSameSourceAndTargetLanguage(t *testing.T) {
	o, _, _ := newTestOrchestrator(t, &fakeProvider{name: "mock"}, &fakeSink{})

	_, err := o.Start(context.Background(), workflowmodels.TranslationJobInput{
		PoemID: "poem-1", SourceLang: "Chinese", TargetLang: "Chinese", Mode: workflowmodels.ModeNonReasoning,
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestOrchestrator_StartRejectsUnknownPoem(t *testing.T) {
	o, _, _ := newTestOrchestrator(t, &fakeProvider{name: "mock"}, &fakeSink{})

	_, err := o.Start(context.Background(), workflowmodels.TranslationJobInput{
		PoemID: "missing", SourceLang: "Chinese", TargetLang: "English", Mode: workflowmodels.ModeNonReasoning,
	})

	require.Error(t, err)
}

func TestOrchestrator_RunCompletesSuccessfully(t *testing.T) {
	provider := &fakeProvider{name: "anthropic", fn: func(req workflowsvc.CompletionRequest) (workflowsvc.CompletionResult, error) {
		return workflowsvc.CompletionResult{Text: "<translation>a finer translation</translation>", TokensPrompt: 10, TokensCompletion: 20, ModelUsed: "claude-haiku-4-5-20251001"}, nil
	}}
	sink := &fakeSink{}
	o, reg, _ := newTestOrchestrator(t, provider, sink)

	taskID, err := o.Start(context.Background(), workflowmodels.TranslationJobInput{
		PoemID: "poem-1", SourceLang: "Chinese", TargetLang: "English", Mode: workflowmodels.ModeNonReasoning,
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		rec := reg.Get(taskID)
		return rec != nil && rec.Status.IsTerminal()
	}, 2*time.Second, 5*time.Millisecond)

	rec := reg.Get(taskID)
	assert.Equal(t, workflowmodels.TaskCompleted, rec.Status)
	assert.Equal(t, 1, sink.calls)
}

func TestOrchestrator_PersistenceFailureMarksTaskFailed(t *testing.T) {
	provider := &fakeProvider{name: "anthropic", fn: func(req workflowsvc.CompletionRequest) (workflowsvc.CompletionResult, error) {
		return workflowsvc.CompletionResult{Text: "<translation>a finer translation</translation>", ModelUsed: "m"}, nil
	}}
	sink := &fakeSink{err: domain.ErrPersistence}
	o, reg, _ := newTestOrchestrator(t, provider, sink)

	taskID, err := o.Start(context.Background(), workflowmodels.TranslationJobInput{
		PoemID: "poem-1", SourceLang: "Chinese", TargetLang: "English", Mode: workflowmodels.ModeNonReasoning,
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		rec := reg.Get(taskID)
		return rec != nil && rec.Status.IsTerminal()
	}, 2*time.Second, 5*time.Millisecond)

	rec := reg.Get(taskID)
	assert.Equal(t, workflowmodels.TaskFailed, rec.Status)
}

func TestOrchestrator_CancelBeforeRunMarksCancelled(t *testing.T) {
	provider := &fakeProvider{name: "anthropic", fn: func(req workflowsvc.CompletionRequest) (workflowsvc.CompletionResult, error) {
		time.Sleep(50 * time.Millisecond)
		return workflowsvc.CompletionResult{Text: "<translation>x</translation>", ModelUsed: "m"}, nil
	}}
	o, reg, _ := newTestOrchestrator(t, provider, &fakeSink{})

	taskID, err := o.Start(context.Background(), workflowmodels.TranslationJobInput{
		PoemID: "poem-1", SourceLang: "Chinese", TargetLang: "English", Mode: workflowmodels.ModeNonReasoning,
	})
	require.NoError(t, err)

	ok := o.Cancel(taskID)
	assert.True(t, ok)

	require.Eventually(t, func() bool {
		rec := reg.Get(taskID)
		return rec != nil && rec.Status.IsTerminal()
	}, 2*time.Second, 5*time.Millisecond)

	assert.Equal(t, workflowmodels.TaskCancelled, reg.Get(taskID).Status)
}

// TestOrchestrator_StepFailureWithFatalStopsWorkflow exercises the real
// non_reasoning modes.yaml, where initial_translation is the one fatal
// step. A retriable provider error on that step exhausts its 3 attempts
// (1s + 2s backoff, ~3s) before the orchestrator aborts the run instead
// of continuing into editor_review/revised_translation.
func TestOrchestrator_StepFailureWithFatalStopsWorkflow(t *testing.T) {
	provider := &fakeProvider{name: "anthropic", fn: func(req workflowsvc.CompletionRequest) (workflowsvc.CompletionResult, error) {
		return workflowsvc.CompletionResult{}, domain.ErrProviderTransport
	}}
	o, reg, _ := newTestOrchestrator(t, provider, &fakeSink{})

	taskID, err := o.Start(context.Background(), workflowmodels.TranslationJobInput{
		PoemID: "poem-1", SourceLang: "Chinese", TargetLang: "English", Mode: workflowmodels.ModeNonReasoning,
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		rec := reg.Get(taskID)
		return rec != nil && rec.Status.IsTerminal()
	}, 8*time.Second, 10*time.Millisecond)

	rec := reg.Get(taskID)
	assert.Equal(t, workflowmodels.TaskFailed, rec.Status)
	require.NotNil(t, rec.Error)
	assert.Equal(t, workflowmodels.StepPending, rec.StepStates["editor_review"], "a fatal step aborts before later steps ever run")
}

// TestOrchestrator_NonFatalStepFailureStillMarksTaskFailed covers the
// other half of spec section 4.1's status invariant: a non-fatal step
// failure (editor_review, revised_translation) does not abort the run,
// but the task's final status is still failed, not completed.
func TestOrchestrator_NonFatalStepFailureStillMarksTaskFailed(t *testing.T) {
	calls := 0
	provider := &fakeProvider{name: "anthropic", fn: func(req workflowsvc.CompletionRequest) (workflowsvc.CompletionResult, error) {
		calls++
		if calls == 2 {
			return workflowsvc.CompletionResult{}, fmt.Errorf("editor provider rejected request")
		}
		return workflowsvc.CompletionResult{Text: "<translation>a finer translation</translation>", ModelUsed: "m"}, nil
	}}
	o, reg, _ := newTestOrchestrator(t, provider, &fakeSink{})

	taskID, err := o.Start(context.Background(), workflowmodels.TranslationJobInput{
		PoemID: "poem-1", SourceLang: "Chinese", TargetLang: "English", Mode: workflowmodels.ModeNonReasoning,
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		rec := reg.Get(taskID)
		return rec != nil && rec.Status.IsTerminal()
	}, 2*time.Second, 5*time.Millisecond)

	rec := reg.Get(taskID)
	assert.Equal(t, workflowmodels.TaskFailed, rec.Status)
	require.NotNil(t, rec.Error)
	assert.Equal(t, workflowmodels.StepCompleted, rec.StepStates["initial_translation"])
	assert.Equal(t, workflowmodels.StepFailed, rec.StepStates["editor_review"])
	assert.Equal(t, workflowmodels.StepCompleted, rec.StepStates["revised_translation"], "non-fatal failure lets later steps still run")
}
