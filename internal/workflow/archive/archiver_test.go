package archive

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	workflowmodels "versify/internal/domain/models/workflow"
)

func fixedNow() time.Time {
	return time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)
}

func sampleResult(poet string) *workflowmodels.WorkflowResult {
	return &workflowmodels.WorkflowResult{
		TaskID:        "task-1",
		Mode:          workflowmodels.ModeNonReasoning,
		FinalText:     "a translated poem",
		FinalPoetName: poet,
		Input:         workflowmodels.TranslationJobInput{PoemID: "poem-1", SourceLang: "Chinese", TargetLang: "English"},
	}
}

func TestArchiver_ArchiveWritesFileUnderPoetDirectory(t *testing.T) {
	dir := t.TempDir()
	a := NewArchiver(dir, fixedNow)

	path, err := a.Archive(context.Background(), sampleResult("Li Bai"))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "Li_Bai", "20260102T150405Z_non_reasoning.json"), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "a translated poem")
}

func TestArchiver_SanitizesUnsafePoetNameForDirectory(t *testing.T) {
	dir := t.TempDir()
	a := NewArchiver(dir, fixedNow)

	path, err := a.Archive(context.Background(), sampleResult("Li/Bai?*"))
	require.NoError(t, err)

	assert.Equal(t, "Li_Bai_", filepath.Base(filepath.Dir(path)))
}

func TestArchiver_EmptyPoetNameFallsBackToUnknown(t *testing.T) {
	dir := t.TempDir()
	a := NewArchiver(dir, fixedNow)

	path, err := a.Archive(context.Background(), sampleResult(""))
	require.NoError(t, err)

	assert.Equal(t, "unknown", filepath.Base(filepath.Dir(path)))
}

func TestArchiver_WritingSameContentTwiceIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	a := NewArchiver(dir, fixedNow)
	result := sampleResult("Du Fu")

	path1, err := a.Archive(context.Background(), result)
	require.NoError(t, err)
	info1, err := os.Stat(path1)
	require.NoError(t, err)

	path2, err := a.Archive(context.Background(), result)
	require.NoError(t, err)
	info2, err := os.Stat(path2)
	require.NoError(t, err)

	assert.Equal(t, path1, path2)
	assert.Equal(t, info1.ModTime(), info2.ModTime(), "unchanged content must not rewrite the file")
}

func TestArchiver_ChangedContentOverwritesFile(t *testing.T) {
	dir := t.TempDir()
	a := NewArchiver(dir, fixedNow)

	result := sampleResult("Du Fu")
	path, err := a.Archive(context.Background(), result)
	require.NoError(t, err)

	result.FinalText = "a different translated poem"
	_, err = a.Archive(context.Background(), result)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "a different translated poem")
}
