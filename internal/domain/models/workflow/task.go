// Package workflow holds the data model shared by the orchestrator, the
// task registry, the progress bus and the persistence sink. These are
// plain value types; the components that mutate them live in
// internal/workflow.
package workflow

import "time"

// StepStatus is the lifecycle of a single executed step.
type StepStatus string

const (
	StepPending   StepStatus = "pending"
	StepRunning   StepStatus = "running"
	StepCompleted StepStatus = "completed"
	StepFailed    StepStatus = "failed"
	StepSkipped   StepStatus = "skipped"
)

// TaskStatus is the lifecycle of a TaskRecord.
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskRunning   TaskStatus = "running"
	TaskCompleted TaskStatus = "completed"
	TaskFailed    TaskStatus = "failed"
	TaskCancelled TaskStatus = "cancelled"
)

// IsTerminal reports whether status is absorbing (spec invariant 3).
func (s TaskStatus) IsTerminal() bool {
	switch s {
	case TaskCompleted, TaskFailed, TaskCancelled:
		return true
	default:
		return false
	}
}

// Mode selects the per-step provider/model/template bindings.
type Mode string

const (
	ModeReasoning    Mode = "reasoning"
	ModeNonReasoning Mode = "non_reasoning"
	ModeHybrid       Mode = "hybrid"
)

// StepKind is the canonical vocabulary for translation_workflow_steps.step_type.
// Fixed once here so the casing/naming drift the source exhibited never
// leaks past this package.
type StepKind string

const (
	StepInitialTranslation StepKind = "initial_translation"
	StepEditorReview       StepKind = "editor_review"
	StepRevisedTranslation StepKind = "revised_translation"
)

// Poem is read-only to the core; the orchestrator only needs enough of it
// to render prompts and to validate a TranslationJobInput.
type Poem struct {
	ID             string
	OriginalText   string
	SourceLanguage string
	Title          string
	PoetName       string
}

// TranslationJobInput is immutable once a task is created.
type TranslationJobInput struct {
	PoemID     string            `json:"poem_id"`
	SourceLang string            `json:"source_lang"`
	TargetLang string            `json:"target_lang"`
	Mode       Mode              `json:"mode"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// StepSpec binds one stage of a WorkflowConfig to a provider, model,
// prompt template and retry/timeout envelope.
type StepSpec struct {
	Name                  string
	Kind                  StepKind
	ProviderName           string
	ModelName              string
	PromptTemplateName     string
	Temperature            float64
	MaxTokens              int
	Timeout                time.Duration
	MaxAttempts            int
	RequiredOutputFields   []string
	Fatal                  bool
}

// WorkflowConfig is the ordered list of steps a task executes, derived
// from configuration (internal/workflow/modes) at task start.
type WorkflowConfig struct {
	Name  string
	Mode  Mode
	Steps []StepSpec
}

// ParsedOutput is OutputParser's result, spec section 4.6.
type ParsedResultType string

const (
	ParsedOK      ParsedResultType = "ok"
	ParsedPartial ParsedResultType = "partial"
	ParsedFailed  ParsedResultType = "failed"
)

type ParsedOutput struct {
	ResultType ParsedResultType
	Fields     map[string]string
	Errors     []string
}

// ModelInfo records which model/provider actually produced a StepResult.
type ModelInfo struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

// StepResult is the durable record of one executed step.
type StepResult struct {
	Name             string            `json:"name"`
	Kind             StepKind          `json:"kind"`
	Status           StepStatus        `json:"status"`
	Content          map[string]string `json:"content,omitempty"`
	RawResponse      string            `json:"raw_response,omitempty"`
	TokensPrompt     *int              `json:"tokens_prompt,omitempty"`
	TokensCompletion *int              `json:"tokens_completion,omitempty"`
	TokensTotal      int               `json:"tokens_total"`
	DurationMS       int64             `json:"duration_ms"`
	CostUnits        float64           `json:"cost_units"`
	ModelInfo        ModelInfo         `json:"model_info"`
	Notes            string            `json:"notes,omitempty"`
	Error            string            `json:"error,omitempty"`
}

// ProgressEventKind enumerates the events ProgressBus fans out.
type ProgressEventKind string

const (
	EventTaskStarted     ProgressEventKind = "task_started"
	EventStepStarted     ProgressEventKind = "step_started"
	EventStepProgress    ProgressEventKind = "step_progress"
	EventStepCompleted   ProgressEventKind = "step_completed"
	EventStepFailed      ProgressEventKind = "step_failed"
	EventTaskCompleted   ProgressEventKind = "task_completed"
	EventTaskFailed      ProgressEventKind = "task_failed"
	EventTaskCancelled   ProgressEventKind = "task_cancelled"
	EventHeartbeat       ProgressEventKind = "heartbeat"
)

// IsTerminal reports whether this event kind is the last one ever
// emitted for a task (spec invariant 4).
func (k ProgressEventKind) IsTerminal() bool {
	switch k {
	case EventTaskCompleted, EventTaskFailed, EventTaskCancelled:
		return true
	default:
		return false
	}
}

// ProgressEvent is append-only; Seq is assigned at publish time under
// the per-task write lock and is strictly increasing per task.
type ProgressEvent struct {
	TaskID          string            `json:"task_id"`
	Seq             uint64            `json:"seq"`
	Kind            ProgressEventKind `json:"kind"`
	StepName        string            `json:"step_name,omitempty"`
	ProgressPercent int               `json:"progress_percent"`
	Payload         map[string]any    `json:"payload,omitempty"`
	Dropped         int               `json:"dropped,omitempty"` // count of events dropped before this one on ring overflow
	At              time.Time         `json:"at"`
}

// TaskRecord is mutated only by the orchestrator; everyone else holds a
// read-only snapshot.
type TaskRecord struct {
	TaskID          string
	Input           TranslationJobInput
	Status          TaskStatus
	ProgressPercent int
	CurrentStepName string
	StepStates      map[string]StepStatus
	Warnings        []string
	StartedAt       time.Time
	UpdatedAt       time.Time
	FinishedAt      *time.Time
	Result          *WorkflowResult
	Error           *TaskError
	cancelRequested bool
}

// CancelRequested reports whether Cancel has been called for this task.
// Safe to read from a snapshot; the authoritative flag lives on the
// registry's internal copy and is consulted by the orchestrator between
// suspension points.
func (t *TaskRecord) CancelRequested() bool { return t.cancelRequested }

// SetCancelRequested is only ever called by the registry under its
// per-task lock.
func (t *TaskRecord) SetCancelRequested(v bool) { t.cancelRequested = v }

// TaskError is the structured terminal error attached to a failed task.
type TaskError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func (e *TaskError) Error() string { return e.Kind + ": " + e.Message }

// Clone returns a deep-enough copy for safe concurrent reads: StepStates,
// Warnings and Result are copied so a reader snapshot never aliases the
// registry's mutable state.
func (t *TaskRecord) Clone() *TaskRecord {
	if t == nil {
		return nil
	}
	cp := *t
	cp.StepStates = make(map[string]StepStatus, len(t.StepStates))
	for k, v := range t.StepStates {
		cp.StepStates[k] = v
	}
	if t.Warnings != nil {
		cp.Warnings = append([]string(nil), t.Warnings...)
	}
	if t.FinishedAt != nil {
		fa := *t.FinishedAt
		cp.FinishedAt = &fa
	}
	if t.Result != nil {
		r := *t.Result
		cp.Result = &r
	}
	if t.Error != nil {
		e := *t.Error
		cp.Error = &e
	}
	return &cp
}

// WorkflowResult aggregates everything the orchestrator produced for one
// task: every executed step plus totals used by PersistenceSink and
// FileArchiver.
type WorkflowResult struct {
	TaskID              string              `json:"task_id"`
	Input               TranslationJobInput `json:"input"`
	Mode                Mode                `json:"mode"`
	Steps               []StepResult        `json:"steps"`
	FinalText           string              `json:"final_text"`
	FinalTitle          string              `json:"final_title,omitempty"`
	FinalPoetName       string              `json:"final_poet_name,omitempty"`
	TotalTokensPrompt   int                 `json:"total_tokens_prompt"`
	TotalTokensComplete int                 `json:"total_tokens_completion"`
	TotalCost           float64             `json:"total_cost_units"`
	TotalDurationMS     int64               `json:"total_duration_ms"`
	Warnings            []string            `json:"warnings,omitempty"`
}

// TranslationArtifact is the row PersistenceSink writes to translations.
type TranslationArtifact struct {
	ID                 string
	PoemID             string
	SourceLang         string
	TargetLang         string
	TranslatorType     string
	TranslatorInfo     string
	FinalText          string
	TranslatedTitle    string
	TranslatedPoetName string
	CreatedAt          time.Time
}

// AiLogRow is the aggregate-metrics row keyed to a TranslationArtifact.
type AiLogRow struct {
	ID              string
	TranslationID   string
	ModelName       string
	Mode            Mode
	TokenUsageJSON  string
	CostInfoJSON    string
	RuntimeSeconds  float64
	Notes           string
}

// WorkflowStepRow is one per executed step, step_order starting at 1.
type WorkflowStepRow struct {
	ID                 string
	TranslationID      string
	AiLogID            string
	StepOrder          int
	StepType           StepKind
	Content            string
	Notes              string
	ModelInfoJSON      string
	TokensUsed         int
	PromptTokens       *int
	CompletionTokens   *int
	DurationSeconds    float64
	Cost               float64
	TranslatedTitle    string
	TranslatedPoetName string
	Timestamp          time.Time
}
