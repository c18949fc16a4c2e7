package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"versify/internal/domain"
	workflowmodels "versify/internal/domain/models/workflow"
	"versify/internal/handler/sse"
	"versify/internal/httputil"
	"versify/internal/workflow"
	"versify/internal/workflow/progress"
	"versify/internal/workflow/registry"
)

// WorkflowHandler exposes the translation WorkflowOrchestrator over HTTP,
// matching the teacher's handler package conventions: plain net/http
// signatures, httputil.Respond* helpers, RFC 7807 error bodies.
type WorkflowHandler struct {
	orchestrator *workflow.Orchestrator
	bus          *progress.Bus
	logger       *slog.Logger
}

// NewWorkflowHandler builds a WorkflowHandler.
func NewWorkflowHandler(orchestrator *workflow.Orchestrator, bus *progress.Bus, logger *slog.Logger) *WorkflowHandler {
	return &WorkflowHandler{orchestrator: orchestrator, bus: bus, logger: logger}
}

type translateRequest struct {
	PoemID     string            `json:"poem_id"`
	SourceLang string            `json:"source_lang"`
	TargetLang string            `json:"target_lang"`
	Mode       string            `json:"mode"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

type translateResponse struct {
	TaskID string `json:"task_id"`
}

// StartTranslation starts a new translation workflow task.
// POST /api/workflows/translate
func (h *WorkflowHandler) StartTranslation(w http.ResponseWriter, r *http.Request) {
	var req translateRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.PoemID == "" || req.SourceLang == "" || req.TargetLang == "" || req.Mode == "" {
		httputil.RespondError(w, http.StatusBadRequest, "poem_id, source_lang, target_lang and mode are required")
		return
	}

	input := workflowmodels.TranslationJobInput{
		PoemID:     req.PoemID,
		SourceLang: req.SourceLang,
		TargetLang: req.TargetLang,
		Mode:       workflowmodels.Mode(req.Mode),
		Metadata:   req.Metadata,
	}

	taskID, err := h.orchestrator.Start(r.Context(), input)
	if err != nil {
		h.respondStartError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusAccepted, translateResponse{TaskID: taskID})
}

func (h *WorkflowHandler) respondStartError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		httputil.RespondError(w, http.StatusNotFound, err.Error())
	default:
		h.logger.Error("failed to start translation task", "error", err)
		httputil.RespondError(w, http.StatusInternalServerError, "failed to start translation task")
	}
}

// taskStatusResponse is the wire shape for GET /api/workflows/{task_id}.
type taskStatusResponse struct {
	TaskID          string                                `json:"task_id"`
	Status          workflowmodels.TaskStatus             `json:"status"`
	ProgressPercent int                                   `json:"progress_percent"`
	CurrentStep     string                                `json:"current_step,omitempty"`
	StepStates      map[string]workflowmodels.StepStatus  `json:"step_states"`
	Warnings        []string                              `json:"warnings,omitempty"`
	Result          *workflowmodels.WorkflowResult        `json:"result,omitempty"`
	Error           *workflowmodels.TaskError              `json:"error,omitempty"`
	StartedAt       time.Time                              `json:"started_at"`
	FinishedAt      *time.Time                             `json:"finished_at,omitempty"`
}

// GetStatus returns a task's current snapshot.
// GET /api/workflows/{task_id}
func (h *WorkflowHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	taskID, ok := PathParam(w, r, "task_id", "task_id")
	if !ok {
		return
	}

	record := h.orchestrator.GetStatus(taskID)
	if record == nil {
		httputil.RespondError(w, http.StatusNotFound, "task not found")
		return
	}

	httputil.RespondJSON(w, http.StatusOK, taskToResponse(record))
}

// CancelTask requests cooperative cancellation of a running task.
// POST /api/workflows/{task_id}/cancel
func (h *WorkflowHandler) CancelTask(w http.ResponseWriter, r *http.Request) {
	taskID, ok := PathParam(w, r, "task_id", "task_id")
	if !ok {
		return
	}

	if h.orchestrator.GetStatus(taskID) == nil {
		httputil.RespondError(w, http.StatusNotFound, "task not found")
		return
	}

	accepted := h.orchestrator.Cancel(taskID)
	httputil.RespondJSON(w, http.StatusOK, map[string]any{
		"task_id":          taskID,
		"cancel_requested": accepted,
	})
}

// ListTasks lists tracked tasks, optionally filtered by status.
// GET /api/workflows?status=running
func (h *WorkflowHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	var filter registry.Filter
	if status := r.URL.Query().Get("status"); status != "" {
		s := workflowmodels.TaskStatus(status)
		filter.Status = &s
	}

	records := h.orchestrator.ListTasks(filter)
	resp := make([]taskStatusResponse, 0, len(records))
	for _, rec := range records {
		resp = append(resp, taskToResponse(rec))
	}

	httputil.RespondJSON(w, http.StatusOK, resp)
}

// StreamEvents streams a task's progress events as Server-Sent Events.
// GET /api/workflows/{task_id}/events
// Supports resumption via the Last-Event-ID header or a ?last_seq= query
// parameter, replaying any events the client missed before switching to
// live delivery (spec section 5: catch-up-then-live).
func (h *WorkflowHandler) StreamEvents(w http.ResponseWriter, r *http.Request) {
	taskID, ok := PathParam(w, r, "task_id", "task_id")
	if !ok {
		return
	}

	if h.orchestrator.GetStatus(taskID) == nil {
		httputil.RespondError(w, http.StatusNotFound, "task not found")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		httputil.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	lastSeq := parseLastSeq(r)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	sub := h.bus.Subscribe(taskID, lastSeq)
	defer sub.Close()

	keepAlive := sse.NewTickerKeepAlive(h.bus.HeartbeatInterval())
	writer := sse.NewSSEKeepAliveWriter(w, flusher, taskID, "")
	stopped := keepAlive.Start(writer, h.logger)
	defer keepAlive.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-stopped:
			return
		case event, ok := <-sub.Events:
			if !ok {
				return
			}
			if err := writeSSEEvent(w, event); err != nil {
				return
			}
			flusher.Flush()
			if event.Kind.IsTerminal() {
				return
			}
		}
	}
}

func writeSSEEvent(w http.ResponseWriter, event workflowmodels.ProgressEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", event.Seq, event.Kind, payload)
	return err
}

func parseLastSeq(r *http.Request) uint64 {
	if v := r.Header.Get("Last-Event-ID"); v != "" {
		if parsed, err := strconv.ParseUint(v, 10, 64); err == nil {
			return parsed
		}
	}
	if v := r.URL.Query().Get("last_seq"); v != "" {
		if parsed, err := strconv.ParseUint(v, 10, 64); err == nil {
			return parsed
		}
	}
	return 0
}

func taskToResponse(rec *workflowmodels.TaskRecord) taskStatusResponse {
	return taskStatusResponse{
		TaskID:          rec.TaskID,
		Status:          rec.Status,
		ProgressPercent: rec.ProgressPercent,
		CurrentStep:     rec.CurrentStepName,
		StepStates:      rec.StepStates,
		Warnings:        rec.Warnings,
		Result:          rec.Result,
		Error:           rec.Error,
		StartedAt:       rec.StartedAt,
		FinishedAt:      rec.FinishedAt,
	}
}
