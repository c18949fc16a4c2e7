// Package modes resolves a workflow Mode to its ordered WorkflowConfig,
// loaded once from embedded YAML the same way internal/capabilities
// loads provider capability files.
package modes

import (
	"embed"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"versify/internal/domain"
	workflowmodels "versify/internal/domain/models/workflow"
)

//go:embed modes.yaml
var modesFile embed.FS

type stepYAML struct {
	Name           string   `yaml:"name"`
	Kind           string   `yaml:"kind"`
	Provider       string   `yaml:"provider"`
	Model          string   `yaml:"model"`
	Template       string   `yaml:"template"`
	Temperature    float64  `yaml:"temperature"`
	MaxTokens      int      `yaml:"max_tokens"`
	TimeoutSeconds int      `yaml:"timeout_seconds"`
	MaxAttempts    int      `yaml:"max_attempts"`
	RequiredFields []string `yaml:"required_fields"`
	Fatal          bool     `yaml:"fatal"`
}

type modeYAML struct {
	Steps []stepYAML `yaml:"steps"`
}

// Registry resolves a Mode name to a WorkflowConfig.
type Registry struct {
	configs map[workflowmodels.Mode]workflowmodels.WorkflowConfig
}

// NewRegistry loads the embedded mode bindings.
func NewRegistry() (*Registry, error) {
	data, err := modesFile.ReadFile("modes.yaml")
	if err != nil {
		return nil, fmt.Errorf("read modes.yaml: %w", err)
	}

	var raw map[string]modeYAML
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse modes.yaml: %w", err)
	}

	r := &Registry{configs: make(map[workflowmodels.Mode]workflowmodels.WorkflowConfig, len(raw))}
	for name, m := range raw {
		mode := workflowmodels.Mode(name)
		steps := make([]workflowmodels.StepSpec, 0, len(m.Steps))
		for _, s := range m.Steps {
			steps = append(steps, workflowmodels.StepSpec{
				Name:                 s.Name,
				Kind:                 workflowmodels.StepKind(s.Kind),
				ProviderName:         s.Provider,
				ModelName:            s.Model,
				PromptTemplateName:   s.Template,
				Temperature:          s.Temperature,
				MaxTokens:            s.MaxTokens,
				Timeout:              time.Duration(s.TimeoutSeconds) * time.Second,
				MaxAttempts:          s.MaxAttempts,
				RequiredOutputFields: s.RequiredFields,
				Fatal:                s.Fatal,
			})
		}
		r.configs[mode] = workflowmodels.WorkflowConfig{Name: name, Mode: mode, Steps: steps}
	}

	return r, nil
}

// Resolve returns the WorkflowConfig for mode, or an error wrapping
// domain.ErrInvalidInput if mode is unrecognized.
func (r *Registry) Resolve(mode workflowmodels.Mode) (workflowmodels.WorkflowConfig, error) {
	cfg, ok := r.configs[mode]
	if !ok {
		return workflowmodels.WorkflowConfig{}, fmt.Errorf("unknown mode %q: %w", mode, domain.ErrInvalidInput)
	}
	return cfg, nil
}
