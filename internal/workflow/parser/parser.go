// Package parser extracts XML-tag-delimited fields from a provider's raw
// text response. Not grounded in any single teacher file (the teacher
// repo parses structured tool-call JSON, not tagged prose) but follows
// the same "explicit required-field contract, never silently default"
// posture as the teacher's validation package (internal/service/llm/validation.go).
package parser

import (
	"regexp"
	"strings"

	workflowmodels "versify/internal/domain/models/workflow"
)

// Parser implements domain/services/workflow.OutputParser.
type Parser struct{}

// NewParser builds a Parser. Stateless; safe for concurrent use.
func NewParser() *Parser { return &Parser{} }

var tagPattern = regexp.MustCompile(`(?s)<([a-zA-Z_][a-zA-Z0-9_]*)>(.*?)</([a-zA-Z_][a-zA-Z0-9_]*)>`)

// Parse extracts every <tag>...</tag> pair from raw into a flat field
// map, then classifies the result against requiredFields per spec
// section 4.6: ok iff every required field is present and non-empty;
// partial iff some but not all required fields are present; failed iff
// none of the required fields could be extracted.
func (p *Parser) Parse(raw string, requiredFields []string) workflowmodels.ParsedOutput {
	fields := make(map[string]string)
	for _, m := range tagPattern.FindAllStringSubmatch(raw, -1) {
		tag, open, close := m[1], m[1], m[3]
		if open != close {
			continue
		}
		fields[tag] = strings.TrimSpace(m[2])
	}

	if len(requiredFields) == 0 {
		if len(fields) == 0 {
			return workflowmodels.ParsedOutput{
				ResultType: workflowmodels.ParsedFailed,
				Fields:     fields,
				Errors:     []string{"no tagged fields found in response"},
			}
		}
		return workflowmodels.ParsedOutput{ResultType: workflowmodels.ParsedOK, Fields: fields}
	}

	var missing []string
	present := 0
	for _, name := range requiredFields {
		v, ok := fields[name]
		if !ok || v == "" {
			missing = append(missing, name)
			continue
		}
		present++
	}

	switch {
	case len(missing) == 0:
		return workflowmodels.ParsedOutput{ResultType: workflowmodels.ParsedOK, Fields: fields}
	case present == 0:
		return workflowmodels.ParsedOutput{
			ResultType: workflowmodels.ParsedFailed,
			Fields:     fields,
			Errors:     errorsFor(missing),
		}
	default:
		return workflowmodels.ParsedOutput{
			ResultType: workflowmodels.ParsedPartial,
			Fields:     fields,
			Errors:     errorsFor(missing),
		}
	}
}

func errorsFor(missing []string) []string {
	errs := make([]string, len(missing))
	for i, name := range missing {
		errs[i] = "missing required field: " + name
	}
	return errs
}
