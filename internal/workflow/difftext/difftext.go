// Package difftext summarizes what an editor-review/revision step
// actually changed, for StepResult.Notes. Not grounded in the teacher
// (which has no text-diffing concern); wired in because
// github.com/sergi/go-diff appears across the example corpus as the
// standard way to diff two strings in Go.
package difftext

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Summarize returns a short human-readable account of how revised
// differs from original: counts of inserted/deleted characters plus the
// unified diff text, truncated to keep the notes column bounded.
func Summarize(original, revised string) string {
	if original == revised {
		return "no changes from draft"
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(original, revised, false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	var inserted, deleted int
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			inserted += utf8.RuneCountInString(d.Text)
		case diffmatchpatch.DiffDelete:
			deleted += utf8.RuneCountInString(d.Text)
		}
	}

	pretty := dmp.DiffPrettyText(diffs)
	const maxLen = 2000
	if len(pretty) > maxLen {
		pretty = pretty[:maxLen] + "..."
	}

	return fmt.Sprintf("+%d/-%d chars vs draft\n%s", inserted, deleted, strings.TrimSpace(pretty))
}
