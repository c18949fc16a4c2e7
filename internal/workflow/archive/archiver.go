// Package archive writes a denormalized JSON snapshot of a finished
// WorkflowResult to a poet-scoped directory, independent of (and
// best-effort relative to) database persistence. Uses encoding/json
// directly: marshal-to-file is not a concern any example repo reaches
// for a third-party library to handle, so the standard library is the
// idiomatic choice here.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	workflowmodels "versify/internal/domain/models/workflow"
)

// Archiver implements domain/services/workflow.FileArchiver.
type Archiver struct {
	baseDir string
	now     func() time.Time
}

// NewArchiver builds an Archiver rooted at baseDir. now defaults to
// time.Now; tests may override it for deterministic filenames.
func NewArchiver(baseDir string, now func() time.Time) *Archiver {
	if now == nil {
		now = time.Now
	}
	return &Archiver{baseDir: baseDir, now: now}
}

type document struct {
	Input      workflowmodels.TranslationJobInput `json:"input"`
	Mode       workflowmodels.Mode                 `json:"mode"`
	Steps      []workflowmodels.StepResult         `json:"steps"`
	FinalText  string                              `json:"translated_text"`
	FinalTitle string                              `json:"translated_poem_title"`
	FinalPoet  string                              `json:"translated_poet_name"`
	Totals     totals                              `json:"totals"`
}

type totals struct {
	TokensPrompt   int     `json:"tokens_prompt"`
	TokensComplete int     `json:"tokens_completion"`
	Cost           float64 `json:"cost_units"`
	DurationMS     int64   `json:"duration_ms"`
}

// Archive writes result as pretty-printed JSON under
// baseDir/<poet_name>/<timestamp>_<mode>.json. Idempotent: writing
// byte-identical content twice leaves the file unchanged and does not
// create a second file, matching spec section 4.9 and the testable
// property in section 8.7.
func (a *Archiver) Archive(ctx context.Context, result *workflowmodels.WorkflowResult) (string, error) {
	poetDir := filepath.Join(a.baseDir, sanitize(result.FinalPoetName))
	if err := os.MkdirAll(poetDir, 0o755); err != nil {
		return "", fmt.Errorf("create poet dir: %w", err)
	}

	doc := document{
		Input:      result.Input,
		Mode:       result.Mode,
		Steps:      result.Steps,
		FinalText:  result.FinalText,
		FinalTitle: result.FinalTitle,
		FinalPoet:  result.FinalPoetName,
		Totals: totals{
			TokensPrompt:   result.TotalTokensPrompt,
			TokensComplete: result.TotalTokensComplete,
			Cost:           result.TotalCost,
			DurationMS:     result.TotalDurationMS,
		},
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal archive document: %w", err)
	}

	filename := fmt.Sprintf("%s_%s.json", a.now().UTC().Format("20060102T150405Z"), result.Mode)
	path := filepath.Join(poetDir, filename)

	suffix := "_" + string(result.Mode) + ".json"
	if entries, err := os.ReadDir(poetDir); err == nil {
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), suffix) {
				continue
			}
			existingPath := filepath.Join(poetDir, e.Name())
			if existing, err := os.ReadFile(existingPath); err == nil && bytes.Equal(existing, data) {
				return existingPath, nil
			}
		}
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write archive file: %w", err)
	}

	return path, nil
}

var unsafePathChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

func sanitize(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "unknown"
	}
	return unsafePathChars.ReplaceAllString(name, "_")
}
