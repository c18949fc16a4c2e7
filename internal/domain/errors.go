package domain

import (
	"errors"
	"fmt"
)

// Domain errors - use with errors.Is()
var (
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a unique constraint violation
	ErrConflict = errors.New("already exists")

	// ErrValidation indicates invalid input
	ErrValidation = errors.New("validation failed")

	// ErrUnauthorized indicates authentication failure
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates authorization failure
	ErrForbidden = errors.New("forbidden")
)

// Workflow error kinds (error taxonomy). Orchestrator, retry and
// persistence code wrap one of these with errors.Is-compatible %w so
// callers can classify a failure without string matching.
var (
	// ErrInvalidInput covers unknown poem id, equal source/target language,
	// unknown mode, or missing required configuration. Surfaced
	// synchronously from Orchestrator.Start, never after a task exists.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnknownProvider means LLMFactory has no provider registered
	// under the requested name. Fatal to the task.
	ErrUnknownProvider = errors.New("unknown provider")

	// ErrUnknownTemplate means PromptRenderer has no template registered
	// under the requested name. Fatal to the task.
	ErrUnknownTemplate = errors.New("unknown template")

	// ErrMissingVariable means a template referenced a variable that was
	// not present in the accumulated variable bag.
	ErrMissingVariable = errors.New("missing template variable")

	// ErrProviderTransport covers network failures, 5xx responses, and
	// rate-limit signals from a provider. Retriable.
	ErrProviderTransport = errors.New("provider transport error")

	// ErrProviderTimeout is a per-attempt timeout. Retriable.
	ErrProviderTimeout = errors.New("provider timeout")

	// ErrParsing means OutputParser could not extract the required
	// fields from a model response. Not retriable.
	ErrParsing = errors.New("output parsing failed")

	// ErrPersistence means the transactional DB write failed. The task
	// finishes as failed with no DB artifact.
	ErrPersistence = errors.New("persistence failed")

	// ErrArchive means the JSON artifact write failed. Recorded as a
	// task warning; never changes task status.
	ErrArchive = errors.New("archive failed")

	// ErrCancelled means the task was cancelled cooperatively.
	ErrCancelled = errors.New("cancelled")
)

// HTTPError is implemented by errors that know their own HTTP status.
// handler code type-asserts for this before falling back to sentinel
// matching, so new error kinds don't require touching the HTTP layer.
type HTTPError interface {
	error
	StatusCode() int
}

// ConflictError carries the identity of the resource that already exists,
// so callers can return it instead of a bare 409.
type ConflictError struct {
	Message      string
	ResourceType string
	ResourceID   string
}

func (e *ConflictError) Error() string { return e.Message }

func (e *ConflictError) Unwrap() error { return ErrConflict }

func (e *ConflictError) StatusCode() int { return 409 }

// ValidationError reports one or more field-level validation failures,
// usually produced by ozzo-validation at a service boundary.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Fields)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func (e *ValidationError) StatusCode() int { return 400 }
