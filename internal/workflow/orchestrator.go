// Package workflow implements WorkflowOrchestrator: given a
// WorkflowConfig and a TranslationJobInput, it drives every step in
// order, threads outputs into later steps' variables, emits progress,
// and hands the finished result to PersistenceSink and FileArchiver.
// Grounded in the teacher's TurnExecutor (internal/service/llm/turn_executor.go):
// same per-task goroutine-plus-status-machine shape, generalized from
// one streaming LLM call to an ordered sequence of retryable calls.
package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"versify/internal/domain"
	workflowmodels "versify/internal/domain/models/workflow"
	workflowrepo "versify/internal/domain/repositories/workflow"
	workflowsvc "versify/internal/domain/services/workflow"
	"versify/internal/workflow/difftext"
	"versify/internal/workflow/metrics"
	"versify/internal/workflow/modes"
	"versify/internal/workflow/registry"
	"versify/internal/workflow/retry"
)

// maxConcurrentTasksDefault mirrors spec section 6's configuration surface.
const maxConcurrentTasksDefault = 3

// Orchestrator is the WorkflowOrchestrator. It owns no state of its own
// beyond its collaborators: TaskRecord state lives in Registry,
// progress lives in the Bus, and results are handed off to the sink and
// archiver as soon as a run finishes.
type Orchestrator struct {
	registry   *registry.Registry
	bus        workflowsvc.ProgressPublisher
	modes      *modes.Registry
	factory    workflowsvc.LLMFactory
	renderer   workflowsvc.PromptRenderer
	parser     workflowsvc.OutputParser
	sink       workflowsvc.PersistenceSink
	archiver   workflowsvc.FileArchiver
	poemReader workflowrepo.Repository
	logger     *slog.Logger
	metrics    *metrics.Collectors

	sem *semaphore.Weighted
}

// Config bounds the orchestrator's own runtime behavior.
type Config struct {
	MaxConcurrentTasks int
}

// New builds an Orchestrator from its collaborators.
func New(
	reg *registry.Registry,
	bus workflowsvc.ProgressPublisher,
	modesRegistry *modes.Registry,
	factory workflowsvc.LLMFactory,
	renderer workflowsvc.PromptRenderer,
	parser workflowsvc.OutputParser,
	sink workflowsvc.PersistenceSink,
	archiver workflowsvc.FileArchiver,
	poemReader workflowrepo.Repository,
	logger *slog.Logger,
	collectors *metrics.Collectors,
	cfg Config,
) *Orchestrator {
	max := cfg.MaxConcurrentTasks
	if max <= 0 {
		max = maxConcurrentTasksDefault
	}
	return &Orchestrator{
		registry:   reg,
		bus:        bus,
		modes:      modesRegistry,
		factory:    factory,
		renderer:   renderer,
		parser:     parser,
		sink:       sink,
		archiver:   archiver,
		poemReader: poemReader,
		logger:     logger,
		metrics:    collectors,
		sem:        semaphore.NewWeighted(int64(max)),
	}
}

// Start validates input, creates a pending TaskRecord and schedules the
// async run. Returns InvalidInput synchronously without creating a task
// if validation fails (spec section 4.1).
func (o *Orchestrator) Start(ctx context.Context, input workflowmodels.TranslationJobInput) (string, error) {
	if err := validateTranslationJobInput(input); err != nil {
		return "", fmt.Errorf("%w: %s", domain.ErrInvalidInput, err.Error())
	}

	cfg, err := o.modes.Resolve(input.Mode)
	if err != nil {
		return "", err
	}

	if _, err := o.poemReader.GetPoem(ctx, input.PoemID); err != nil {
		return "", fmt.Errorf("resolving poem %s: %w", input.PoemID, err)
	}

	taskID := uuid.New().String()
	stepStates := make(map[string]workflowmodels.StepStatus, len(cfg.Steps))
	for _, s := range cfg.Steps {
		stepStates[s.Name] = workflowmodels.StepPending
	}

	record := &workflowmodels.TaskRecord{
		TaskID:     taskID,
		Input:      input,
		Status:     workflowmodels.TaskPending,
		StepStates: stepStates,
		StartedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	if !o.registry.Create(record) {
		return "", fmt.Errorf("task id collision for %s", taskID)
	}

	go o.run(taskID, cfg)

	return taskID, nil
}

// validateTranslationJobInput checks field-level invariants ahead of
// Resolve/GetPoem, matching the docsystem services' use of ozzo-validation
// for request validation (internal/service/docsystem/document.go).
func validateTranslationJobInput(input workflowmodels.TranslationJobInput) error {
	if err := validation.ValidateStruct(&input,
		validation.Field(&input.PoemID, validation.Required),
		validation.Field(&input.SourceLang, validation.Required, validation.Length(2, 32)),
		validation.Field(&input.TargetLang, validation.Required, validation.Length(2, 32)),
		validation.Field(&input.Mode, validation.Required),
	); err != nil {
		return err
	}
	if input.SourceLang == input.TargetLang {
		return fmt.Errorf("source and target language must differ")
	}
	return nil
}

// GetStatus returns the current TaskRecord snapshot, or nil if unknown.
func (o *Orchestrator) GetStatus(taskID string) *workflowmodels.TaskRecord {
	return o.registry.Get(taskID)
}

// Cancel requests cooperative cancellation. Returns true if the task was
// running or pending (and thus could still be cancelled).
func (o *Orchestrator) Cancel(taskID string) bool {
	rec := o.registry.Get(taskID)
	if rec == nil || rec.Status.IsTerminal() {
		return false
	}
	return o.registry.SetCancelRequested(taskID)
}

// ListTasks returns snapshots matching filter.
func (o *Orchestrator) ListTasks(filter registry.Filter) []*workflowmodels.TaskRecord {
	return o.registry.List(filter)
}

// run executes cfg's steps for taskID. Always runs in its own goroutine;
// o.sem bounds how many run concurrently across the whole orchestrator.
func (o *Orchestrator) run(taskID string, cfg workflowmodels.WorkflowConfig) {
	ctx := context.Background()

	if err := o.sem.Acquire(ctx, 1); err != nil {
		o.finishFatal(taskID, "Internal", err.Error())
		return
	}
	defer o.sem.Release(1)

	if o.registry.IsCancelRequested(taskID) {
		o.finishCancelled(taskID)
		return
	}

	o.registry.UpdateStatus(taskID, workflowmodels.TaskRunning)
	o.bus.Publish(taskID, workflowmodels.ProgressEvent{Kind: workflowmodels.EventTaskStarted})
	if o.metrics != nil {
		o.metrics.TasksStarted.WithLabelValues(string(cfg.Mode)).Inc()
	}

	rec := o.registry.Get(taskID)
	vars := baseVars(rec.Input)
	poem, err := o.poemReader.GetPoem(ctx, rec.Input.PoemID)
	if err != nil {
		o.finishFatal(taskID, "InvalidInput", err.Error())
		return
	}
	vars["original_text"] = poem.OriginalText
	vars["poem_title"] = poem.Title
	vars["poet_name"] = poem.PoetName

	n := len(cfg.Steps)
	results := make([]workflowmodels.StepResult, 0, n)
	var fatalErr *workflowmodels.TaskError
	var failedSteps []string

	for i, spec := range cfg.Steps {
		if o.registry.IsCancelRequested(taskID) {
			o.finishCancelled(taskID)
			return
		}

		o.registry.UpdateStep(taskID, spec.Name, workflowmodels.StepRunning)
		o.registry.UpdateProgress(taskID, percentFloor(i, n), spec.Name)
		o.bus.Publish(taskID, workflowmodels.ProgressEvent{
			Kind:            workflowmodels.EventStepStarted,
			StepName:        spec.Name,
			ProgressPercent: percentFloor(i, n),
		})

		result, stepErr := o.runStep(ctx, taskID, spec, vars)
		results = append(results, result)

		if stepErr != nil {
			o.registry.UpdateStep(taskID, spec.Name, workflowmodels.StepFailed)
			o.bus.Publish(taskID, workflowmodels.ProgressEvent{
				Kind:            workflowmodels.EventStepFailed,
				StepName:        spec.Name,
				ProgressPercent: percentFloor(i+1, n),
				Payload:         map[string]any{"error": stepErr.Error()},
			})
			failedSteps = append(failedSteps, spec.Name)
			if spec.Fatal {
				fatalErr = &workflowmodels.TaskError{Kind: "StepFailed", Message: stepErr.Error()}
				break
			}
			continue
		}

		o.registry.UpdateStep(taskID, spec.Name, workflowmodels.StepCompleted)
		o.registry.UpdateProgress(taskID, percentFloor(i+1, n), spec.Name)
		o.bus.Publish(taskID, workflowmodels.ProgressEvent{
			Kind:            workflowmodels.EventStepCompleted,
			StepName:        spec.Name,
			ProgressPercent: percentFloor(i+1, n),
		})

		mergeOutputs(vars, spec.Name, result)
	}

	if fatalErr != nil {
		o.registry.Finish(taskID, nil, fatalErr, workflowmodels.TaskFailed)
		o.bus.Publish(taskID, workflowmodels.ProgressEvent{Kind: workflowmodels.EventTaskFailed})
		return
	}

	result := buildWorkflowResult(taskID, rec.Input, cfg.Mode, results)
	o.finishRun(ctx, taskID, result, failedSteps)
}

// runStep renders the prompt, resolves the provider, runs it under
// RetryPolicy, and parses the response. Always returns a StepResult
// (even on failure) so the caller can record it regardless of outcome.
func (o *Orchestrator) runStep(ctx context.Context, taskID string, spec workflowmodels.StepSpec, vars map[string]string) (workflowmodels.StepResult, error) {
	start := time.Now()

	result := workflowmodels.StepResult{
		Name: spec.Name,
		Kind: spec.Kind,
	}

	system, user, err := renderPrompt(o.renderer, spec, vars)
	if err != nil {
		result.Status = workflowmodels.StepFailed
		result.Error = err.Error()
		return result, err
	}

	if estimator, ok := o.renderer.(interface{ EstimateTokens(string, string) int }); ok && spec.MaxTokens > 0 {
		if estimated := estimator.EstimateTokens(system, user); estimated > spec.MaxTokens {
			o.logger.Warn("rendered prompt exceeds step token budget",
				"task_id", taskID, "step", spec.Name, "estimated_tokens", estimated, "max_tokens", spec.MaxTokens)
		}
	}

	provider, err := o.factory.Provider(spec.ProviderName)
	if err != nil {
		result.Status = workflowmodels.StepFailed
		result.Error = err.Error()
		return result, err
	}

	stepCtx, cancel := context.WithTimeout(ctx, spec.Timeout)
	defer cancel()

	policy := retry.DefaultPolicy(spec.MaxAttempts, spec.Timeout)
	completion, attempts, err := retry.Execute(stepCtx, policy, retry.DefaultClassifier, func(attemptCtx context.Context) (workflowsvc.CompletionResult, error) {
		attemptCtx, attemptCancel := context.WithTimeout(attemptCtx, spec.Timeout)
		defer attemptCancel()
		return provider.Complete(attemptCtx, workflowsvc.CompletionRequest{
			Model:       spec.ModelName,
			Prompt:      user,
			System:      system,
			Temperature: spec.Temperature,
			MaxTokens:   spec.MaxTokens,
		})
	})

	result.DurationMS = time.Since(start).Milliseconds()
	if o.metrics != nil {
		o.metrics.StepDuration.WithLabelValues(spec.Name, spec.ProviderName).Observe(time.Since(start).Seconds())
		if attempts > 1 {
			o.metrics.RetryAttempts.WithLabelValues(spec.Name).Add(float64(attempts - 1))
		}
	}
	if err != nil {
		result.Status = workflowmodels.StepFailed
		result.Error = err.Error()
		if o.metrics != nil {
			o.metrics.StepFailures.WithLabelValues(spec.Name).Inc()
		}
		return result, err
	}

	result.RawResponse = completion.Text
	result.ModelInfo = workflowmodels.ModelInfo{Provider: provider.Name(), Model: completion.ModelUsed}
	promptTokens, completionTokens := completion.TokensPrompt, completion.TokensCompletion
	result.TokensPrompt = &promptTokens
	result.TokensCompletion = &completionTokens
	result.TokensTotal = promptTokens + completionTokens

	parsed := o.parser.Parse(completion.Text, spec.RequiredOutputFields)
	result.Content = parsed.Fields
	if spec.Kind == workflowmodels.StepRevisedTranslation {
		if draft, ok := vars["initial_translation.text"]; ok {
			if revised, ok2 := parsed.Fields[spec.RequiredOutputFields[0]]; ok2 {
				result.Notes = difftext.Summarize(draft, revised)
			}
		}
	}

	if parsed.ResultType == workflowmodels.ParsedFailed {
		result.Status = workflowmodels.StepFailed
		result.Error = fmt.Sprintf("%s: %s", domain.ErrParsing, strings.Join(parsed.Errors, "; "))
		if o.metrics != nil {
			o.metrics.StepFailures.WithLabelValues(spec.Name).Inc()
		}
		return result, fmt.Errorf("%w: %s", domain.ErrParsing, strings.Join(parsed.Errors, "; "))
	}

	result.Status = workflowmodels.StepCompleted
	return result, nil
}

func renderPrompt(renderer workflowsvc.PromptRenderer, spec workflowmodels.StepSpec, vars map[string]string) (system, user string, err error) {
	type systemUserRenderer interface {
		RenderSystemUser(templateName string, vars map[string]string) (string, string, error)
	}
	if su, ok := renderer.(systemUserRenderer); ok {
		return su.RenderSystemUser(spec.PromptTemplateName, vars)
	}
	rendered, err := renderer.Render(spec.PromptTemplateName, vars)
	if err != nil {
		return "", "", err
	}
	return "", rendered, nil
}

// mergeOutputs namespaces step into the variable bag under
// "<stepName>.<field>", last-writer-wins on collision, per spec section
// 4.1's "variable bag" rule. It also sets a "<stepName>.text" alias to
// whichever required field looks like the primary output, so later
// templates can refer to it without knowing the exact tag name.
func mergeOutputs(vars map[string]string, stepName string, result workflowmodels.StepResult) {
	for field, value := range result.Content {
		vars[stepName+"."+field] = value
	}
	if primary, ok := primaryField(result); ok {
		vars[stepName+".text"] = primary
	}
}

func primaryField(result workflowmodels.StepResult) (string, bool) {
	switch result.Kind {
	case workflowmodels.StepInitialTranslation:
		v, ok := result.Content["initial_translation"]
		return v, ok
	case workflowmodels.StepEditorReview:
		v, ok := result.Content["editor_suggestions"]
		return v, ok
	case workflowmodels.StepRevisedTranslation:
		v, ok := result.Content["revised_translation"]
		return v, ok
	default:
		return "", false
	}
}

func baseVars(input workflowmodels.TranslationJobInput) map[string]string {
	vars := map[string]string{
		"source_lang": input.SourceLang,
		"target_lang": input.TargetLang,
	}
	for k, v := range input.Metadata {
		vars[k] = v
	}
	return vars
}

// percentFloor implements spec section 4.1's progress formula exactly:
// floor(i*100/N) on start, floor((i+1)*100/N) on completion.
func percentFloor(numerator, n int) int {
	if n == 0 {
		return 0
	}
	return numerator * 100 / n
}

func buildWorkflowResult(taskID string, input workflowmodels.TranslationJobInput, mode workflowmodels.Mode, steps []workflowmodels.StepResult) *workflowmodels.WorkflowResult {
	result := &workflowmodels.WorkflowResult{
		TaskID: taskID,
		Input:  input,
		Mode:   mode,
		Steps:  steps,
	}

	var finalText, finalTitle, finalPoet string
	for _, s := range steps {
		if s.Status != workflowmodels.StepCompleted {
			continue
		}
		switch s.Kind {
		case workflowmodels.StepRevisedTranslation:
			if v, ok := s.Content["revised_translation"]; ok {
				finalText = v
			}
		case workflowmodels.StepInitialTranslation:
			if finalText == "" {
				if v, ok := s.Content["initial_translation"]; ok {
					finalText = v
				}
			}
		}
		if s.TokensPrompt != nil {
			result.TotalTokensPrompt += *s.TokensPrompt
		}
		if s.TokensCompletion != nil {
			result.TotalTokensComplete += *s.TokensCompletion
		}
		result.TotalCost += s.CostUnits
		result.TotalDurationMS += s.DurationMS
	}

	result.FinalText = finalText
	result.FinalTitle = finalTitle
	result.FinalPoetName = finalPoet
	return result
}

func (o *Orchestrator) finishCancelled(taskID string) {
	o.registry.Finish(taskID, nil, &workflowmodels.TaskError{Kind: "Cancelled", Message: "task cancelled"}, workflowmodels.TaskCancelled)
	o.bus.Publish(taskID, workflowmodels.ProgressEvent{Kind: workflowmodels.EventTaskCancelled})
	o.recordFinished(taskID, workflowmodels.TaskCancelled)
}

func (o *Orchestrator) finishFatal(taskID, kind, message string) {
	o.registry.Finish(taskID, nil, &workflowmodels.TaskError{Kind: kind, Message: message}, workflowmodels.TaskFailed)
	o.bus.Publish(taskID, workflowmodels.ProgressEvent{Kind: workflowmodels.EventTaskFailed})
	o.recordFinished(taskID, workflowmodels.TaskFailed)
}

// finishRun persists and archives a completed run, then settles the
// task's terminal status. Per spec section 4.1 the final status is
// completed only if every step completed; a non-fatal step failure still
// persists and archives whatever final text survived (there may be
// nothing better to keep), but the task is reported failed so callers
// can see which step(s) never completed.
func (o *Orchestrator) finishRun(ctx context.Context, taskID string, result *workflowmodels.WorkflowResult, failedSteps []string) {
	if len(strings.TrimSpace(result.FinalText)) < 10 {
		o.registry.AppendWarning(taskID, "empty_translation")
		o.finishTerminal(taskID, result, failedSteps, nil)
		return
	}

	var persistErr, archiveErr error
	g := new(errgroup.Group)
	g.Go(func() error {
		_, err := o.sink.Persist(ctx, result)
		persistErr = err
		return nil
	})
	g.Go(func() error {
		_, err := o.archiver.Archive(ctx, result)
		archiveErr = err
		return nil
	})
	_ = g.Wait()

	if archiveErr != nil {
		o.logger.Warn("archive failed", "task_id", taskID, "error", archiveErr)
		if o.metrics != nil {
			o.metrics.ArchiveErrors.Inc()
		}
		o.registry.AppendWarning(taskID, "archive_failed")
	}

	if persistErr != nil {
		o.logger.Error("persistence failed", "task_id", taskID, "error", persistErr)
		if o.metrics != nil {
			o.metrics.PersistErrors.Inc()
		}
		o.finishTerminal(taskID, result, failedSteps, &workflowmodels.TaskError{Kind: "PersistenceError", Message: persistErr.Error()})
		return
	}

	o.finishTerminal(taskID, result, failedSteps, nil)
}

// finishTerminal picks the task's final status: a persistence error always
// wins (the in-memory result is still returned to the caller, but no DB
// artifact exists); otherwise any non-fatal step failure marks the task
// failed with a StepFailed error joining every failed step's name via
// multierr, so the message lists all of them rather than just the last.
func (o *Orchestrator) finishTerminal(taskID string, result *workflowmodels.WorkflowResult, failedSteps []string, persistErr *workflowmodels.TaskError) {
	if persistErr != nil {
		o.registry.Finish(taskID, result, persistErr, workflowmodels.TaskFailed)
		o.bus.Publish(taskID, workflowmodels.ProgressEvent{Kind: workflowmodels.EventTaskFailed})
		o.recordFinished(taskID, workflowmodels.TaskFailed)
		return
	}

	if len(failedSteps) > 0 {
		var stepErrs error
		for _, name := range failedSteps {
			stepErrs = multierr.Append(stepErrs, fmt.Errorf("step %q failed", name))
		}
		o.registry.Finish(taskID, result, &workflowmodels.TaskError{Kind: "StepFailed", Message: stepErrs.Error()}, workflowmodels.TaskFailed)
		o.bus.Publish(taskID, workflowmodels.ProgressEvent{Kind: workflowmodels.EventTaskFailed})
		o.recordFinished(taskID, workflowmodels.TaskFailed)
		return
	}

	o.registry.Finish(taskID, result, nil, workflowmodels.TaskCompleted)
	o.bus.Publish(taskID, workflowmodels.ProgressEvent{Kind: workflowmodels.EventTaskCompleted})
	o.recordFinished(taskID, workflowmodels.TaskCompleted)
}

// recordFinished increments TasksFinished using the task's recorded mode,
// looked up from the registry so callers never need to thread it through.
func (o *Orchestrator) recordFinished(taskID string, status workflowmodels.TaskStatus) {
	if o.metrics == nil {
		return
	}
	mode := ""
	if rec := o.registry.Get(taskID); rec != nil {
		mode = string(rec.Input.Mode)
	}
	o.metrics.TasksFinished.WithLabelValues(mode, string(status)).Inc()
}
