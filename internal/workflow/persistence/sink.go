// Package persistence writes a finished WorkflowResult durably in one
// transaction (Translation + AiLog + WorkflowStepRows), per spec
// invariant 6. Grounded in the teacher's transaction-manager pattern
// (internal/repository/postgres/workflow): PersistenceSink itself is
// storage-agnostic, taking only the narrow Repository/TransactionManager
// interfaces so postgres and sqlite backends are interchangeable.
package persistence

import (
	"context"
	"fmt"

	"github.com/tidwall/sjson"

	"versify/internal/domain"
	workflowmodels "versify/internal/domain/models/workflow"
	workflowrepo "versify/internal/domain/repositories/workflow"
	"versify/internal/workflow/langmap"
)

// minFinalTextLength is the empty-translation guard threshold (spec
// section 4.1: "< 10 characters after trim").
const minFinalTextLength = 10

// Sink implements domain/services/workflow.PersistenceSink.
type Sink struct {
	repo   workflowrepo.Repository
	txMgr  workflowrepo.TransactionManager
	langs  *langmap.Table
}

// NewSink builds a Sink over repo/txMgr, normalizing language names
// through langs before writing.
func NewSink(repo workflowrepo.Repository, txMgr workflowrepo.TransactionManager, langs *langmap.Table) *Sink {
	return &Sink{repo: repo, txMgr: txMgr, langs: langs}
}

// Persist writes result's final translation, ai_log and workflow steps
// in one transaction. Returns nil, nil (no error, no artifact) if the
// final text fails the empty-translation guard, per spec section 4.1 —
// callers must check for a nil artifact before treating this as success.
func (s *Sink) Persist(ctx context.Context, result *workflowmodels.WorkflowResult) (*workflowmodels.TranslationArtifact, error) {
	if len([]rune(trimSpace(result.FinalText))) < minFinalTextLength {
		return nil, nil
	}

	var artifact *workflowmodels.TranslationArtifact

	err := s.txMgr.ExecTx(ctx, func(ctx context.Context) error {
		art := &workflowmodels.TranslationArtifact{
			PoemID:             result.Input.PoemID,
			SourceLang:         s.langs.Normalize(result.Input.SourceLang),
			TargetLang:         s.langs.Normalize(result.Input.TargetLang),
			TranslatorType:      "ai",
			TranslatorInfo:      finalModelInfo(result),
			FinalText:          result.FinalText,
			TranslatedTitle:    result.FinalTitle,
			TranslatedPoetName: result.FinalPoetName,
		}
		if err := s.repo.CreateTranslation(ctx, art); err != nil {
			return fmt.Errorf("create translation: %w", err)
		}

		logRow, err := buildAiLogRow(art.ID, result)
		if err != nil {
			return fmt.Errorf("build ai log: %w", err)
		}
		if err := s.repo.CreateAiLog(ctx, logRow); err != nil {
			return fmt.Errorf("create ai log: %w", err)
		}

		for i, step := range result.Steps {
			row, err := buildStepRow(art.ID, logRow.ID, i+1, step)
			if err != nil {
				return fmt.Errorf("build workflow step row for %s: %w", step.Name, err)
			}
			if err := s.repo.CreateWorkflowStep(ctx, row); err != nil {
				return fmt.Errorf("create workflow step %s: %w", step.Name, err)
			}
		}

		artifact = art
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}

	return artifact, nil
}

// finalModelInfo reports the model used by the last executed step,
// since that is the model whose output the translation actually reflects.
func finalModelInfo(result *workflowmodels.WorkflowResult) string {
	if len(result.Steps) == 0 {
		return ""
	}
	last := result.Steps[len(result.Steps)-1]
	return last.ModelInfo.Provider + "/" + last.ModelInfo.Model
}

func buildAiLogRow(translationID string, result *workflowmodels.WorkflowResult) (*workflowmodels.AiLogRow, error) {
	var modelName string
	if len(result.Steps) > 0 {
		modelName = result.Steps[0].ModelInfo.Model
	}

	tokenUsageJSON, err := sjson.Set(`{}`, "prompt", result.TotalTokensPrompt)
	if err != nil {
		return nil, err
	}
	tokenUsageJSON, err = sjson.Set(tokenUsageJSON, "completion", result.TotalTokensComplete)
	if err != nil {
		return nil, err
	}

	costInfoJSON, err := sjson.Set(`{}`, "total_cost_units", result.TotalCost)
	if err != nil {
		return nil, err
	}

	return &workflowmodels.AiLogRow{
		TranslationID:  translationID,
		ModelName:      modelName,
		Mode:           result.Mode,
		TokenUsageJSON: tokenUsageJSON,
		CostInfoJSON:   costInfoJSON,
		RuntimeSeconds: float64(result.TotalDurationMS) / 1000.0,
	}, nil
}

func buildStepRow(translationID, aiLogID string, order int, step workflowmodels.StepResult) (*workflowmodels.WorkflowStepRow, error) {
	modelInfoJSON, err := sjson.Set(`{}`, "provider", step.ModelInfo.Provider)
	if err != nil {
		return nil, err
	}
	modelInfoJSON, err = sjson.Set(modelInfoJSON, "model", step.ModelInfo.Model)
	if err != nil {
		return nil, err
	}

	return &workflowmodels.WorkflowStepRow{
		TranslationID:    translationID,
		AiLogID:          aiLogID,
		StepOrder:        order,
		StepType:         step.Kind,
		Content:          step.RawResponse,
		Notes:            step.Notes,
		ModelInfoJSON:    modelInfoJSON,
		TokensUsed:       step.TokensTotal,
		PromptTokens:     step.TokensPrompt,
		CompletionTokens: step.TokensCompletion,
		DurationSeconds:  float64(step.DurationMS) / 1000.0,
		Cost:             step.CostUnits,
	}, nil
}

func trimSpace(s string) string {
	start, end := 0, len(s)
	for start < end && isSpace(s[start]) {
		start++
	}
	for end > start && isSpace(s[end-1]) {
		end--
	}
	return s[start:end]
}

func isSpace(b byte) bool { return b == ' ' || b == '\t' || b == '\n' || b == '\r' }
