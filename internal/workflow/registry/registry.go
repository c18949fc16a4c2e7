// Package registry is the process-local, concurrent-safe store of
// in-flight and recently-finished workflow tasks. Grounded in the
// teacher's TurnExecutorRegistry (internal/service/llm/executor_registry.go):
// same RWMutex-guarded-index-plus-background-cleanup-by-age pattern,
// generalized from one-executor-per-turn to one-TaskRecord-per-task with
// per-task single-writer discipline instead of a single struct pointer.
// The index itself is an LRU (github.com/hashicorp/golang-lru/v2, the same
// cache used by the teacher's LLM response cache in internal/infra/llm)
// rather than a bare map, so it self-bounds under capacity pressure
// instead of relying solely on GC's age-based sweep.
package registry

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	workflowmodels "versify/internal/domain/models/workflow"
)

// defaultCapacity bounds the registry's LRU index independent of the
// age-based GC, so a burst of tasks can never grow memory unbounded even
// if StartCleanup's ticker falls behind.
const defaultCapacity = 10000

// entry pairs a task's mutable record with its own lock, so writes to
// task A never contend with writes to task B (spec section 5: "per-task
// write serialization").
type entry struct {
	mu     sync.Mutex
	record *workflowmodels.TaskRecord
}

// Filter narrows List results. Zero value matches everything.
type Filter struct {
	Status *workflowmodels.TaskStatus
}

// Registry is the TaskRegistry: create/get/update/list/gc over
// TaskRecords, safe for concurrent use by many orchestrator goroutines
// and HTTP handlers.
type Registry struct {
	mu      sync.RWMutex
	entries *lru.Cache[string, *entry]
	logger  *slog.Logger

	ttl time.Duration
}

// New builds a Registry that garbage-collects tasks older than ttl
// (measured from FinishedAt for terminal tasks), backed by an LRU index
// capped at defaultCapacity entries. Use NewWithCapacity to override the
// cap (tests use a small one to exercise eviction).
func New(ttl time.Duration) *Registry {
	return NewWithCapacity(ttl, defaultCapacity, nil)
}

// NewWithCapacity is New with an explicit LRU capacity and logger. A task
// evicted by capacity pressure (rather than by GC's age check) is logged
// at Warn, since it means StartCleanup isn't keeping up with task volume.
func NewWithCapacity(ttl time.Duration, capacity int, logger *slog.Logger) *Registry {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{ttl: ttl, logger: logger}
	cache, err := lru.NewWithEvict[string, *entry](capacity, func(taskID string, _ *entry) {
		r.logger.Warn("task registry evicted entry under capacity pressure", "task_id", taskID)
	})
	if err != nil {
		// capacity is always > 0 here, so NewWithEvict cannot fail; keep a
		// safety net rather than letting a nil cache panic on first use.
		cache, _ = lru.NewWithEvict[string, *entry](defaultCapacity, nil)
	}
	r.entries = cache
	return r
}

// Create registers a brand-new task. Returns false if taskID is already
// registered (callers should generate fresh ids, so this indicates a bug
// rather than a normal race).
func (r *Registry) Create(record *workflowmodels.TaskRecord) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.entries.Contains(record.TaskID) {
		return false
	}
	r.entries.Add(record.TaskID, &entry{record: record})
	return true
}

// Get returns a read-only snapshot of the task, or nil if unknown.
func (r *Registry) Get(taskID string) *workflowmodels.TaskRecord {
	r.mu.RLock()
	e, ok := r.entries.Get(taskID)
	r.mu.RUnlock()
	if !ok {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.record.Clone()
}

// withTask runs fn under the task's own lock, no-op if the task is
// unknown or already terminal (terminal states are absorbing per
// invariant 3).
func (r *Registry) withTask(taskID string, fn func(rec *workflowmodels.TaskRecord)) {
	r.mu.RLock()
	e, ok := r.entries.Get(taskID)
	r.mu.RUnlock()
	if !ok {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.record.Status.IsTerminal() {
		return
	}
	fn(e.record)
	e.record.UpdatedAt = time.Now()
}

// UpdateStatus transitions status, ignored once the task is terminal.
func (r *Registry) UpdateStatus(taskID string, status workflowmodels.TaskStatus) {
	r.withTask(taskID, func(rec *workflowmodels.TaskRecord) {
		rec.Status = status
	})
}

// UpdateStep sets one step's status, preserving every other key of
// StepStates — this is exactly the "class of bug" spec section 4.2
// warns against: UpdateProgress/UpdateStep must never replace the whole
// map, only mutate the one key they own.
func (r *Registry) UpdateStep(taskID string, stepName string, status workflowmodels.StepStatus) {
	r.withTask(taskID, func(rec *workflowmodels.TaskRecord) {
		if rec.StepStates == nil {
			rec.StepStates = make(map[string]workflowmodels.StepStatus)
		}
		rec.StepStates[stepName] = status
	})
}

// UpdateProgress sets ProgressPercent and CurrentStepName without
// touching StepStates, Warnings, or any other field.
func (r *Registry) UpdateProgress(taskID string, percent int, currentStep string) {
	r.withTask(taskID, func(rec *workflowmodels.TaskRecord) {
		if percent > rec.ProgressPercent {
			rec.ProgressPercent = percent
		}
		rec.CurrentStepName = currentStep
	})
}

// AppendWarning appends to Warnings without disturbing any other field.
func (r *Registry) AppendWarning(taskID string, warning string) {
	r.withTask(taskID, func(rec *workflowmodels.TaskRecord) {
		rec.Warnings = append(rec.Warnings, warning)
	})
}

// SetCancelRequested flags the task for cooperative cancellation.
// Callable even on a pending task; a no-op once terminal.
func (r *Registry) SetCancelRequested(taskID string) bool {
	r.mu.RLock()
	e, ok := r.entries.Get(taskID)
	r.mu.RUnlock()
	if !ok {
		return false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.record.Status.IsTerminal() {
		return false
	}
	e.record.SetCancelRequested(true)
	return true
}

// IsCancelRequested reports the task's cancel flag; false for unknown tasks.
func (r *Registry) IsCancelRequested(taskID string) bool {
	r.mu.RLock()
	e, ok := r.entries.Get(taskID)
	r.mu.RUnlock()
	if !ok {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.record.CancelRequested()
}

// Finish transitions a task to its terminal state, attaching result
// and/or error. Idempotent: calling it twice only the first call takes
// effect, matching invariant 3 (terminal states never mutate again).
func (r *Registry) Finish(taskID string, result *workflowmodels.WorkflowResult, taskErr *workflowmodels.TaskError, finalStatus workflowmodels.TaskStatus) {
	r.withTask(taskID, func(rec *workflowmodels.TaskRecord) {
		rec.Status = finalStatus
		rec.Result = result
		rec.Error = taskErr
		now := time.Now()
		rec.FinishedAt = &now
	})
}

// List returns snapshots matching filter, newest-started first.
func (r *Registry) List(filter Filter) []*workflowmodels.TaskRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := r.entries.Keys()
	out := make([]*workflowmodels.TaskRecord, 0, len(keys))
	for _, id := range keys {
		e, ok := r.entries.Peek(id)
		if !ok {
			continue
		}
		e.mu.Lock()
		rec := e.record
		if filter.Status != nil && rec.Status != *filter.Status {
			e.mu.Unlock()
			continue
		}
		snap := rec.Clone()
		e.mu.Unlock()
		out = append(out, snap)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	return out
}

// GC removes terminal tasks whose FinishedAt is older than the
// registry's configured TTL. Intended to run on a ticker from
// StartCleanup. This is the registry's primary eviction path; the LRU
// capacity cap in NewWithCapacity only guards against GC falling behind.
func (r *Registry) GC(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for _, id := range r.entries.Keys() {
		e, ok := r.entries.Peek(id)
		if !ok {
			continue
		}
		e.mu.Lock()
		stale := e.record.Status.IsTerminal() && e.record.FinishedAt != nil && now.Sub(*e.record.FinishedAt) > r.ttl
		e.mu.Unlock()
		if stale {
			r.entries.Remove(id)
			removed++
		}
	}
	return removed
}

// StartCleanup runs GC on interval until ctx is cancelled, mirroring the
// teacher's TurnExecutorRegistry.StartCleanup background loop.
func (r *Registry) StartCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			r.GC(now)
		}
	}
}

// Count returns the number of tracked tasks (including terminal, not yet
// GC'd ones).
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entries.Len()
}
