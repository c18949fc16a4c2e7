// Package prompt materializes a step's system+user prompts from a named
// template and the accumulated variable bag. Grounded in the teacher's
// capabilities.Registry (internal/capabilities/registry.go): embedded
// YAML definitions loaded once at construction, looked up by name under
// a read lock.
package prompt

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"sync"
	"text/template"

	"gopkg.in/yaml.v3"

	"versify/internal/domain"
	"versify/internal/llm/tokencount"
)

//go:embed templates/*.yaml
var templateFiles embed.FS

// definition is one template's on-disk shape.
type definition struct {
	Name         string   `yaml:"name"`
	System       string   `yaml:"system"`
	User         string   `yaml:"user"`
	RequiredVars []string `yaml:"required_vars"`
}

type compiled struct {
	def    definition
	system *template.Template
	user   *template.Template
}

// Renderer implements domain/services/workflow.PromptRenderer.
type Renderer struct {
	mu        sync.RWMutex
	templates map[string]*compiled
	estimator *tokencount.Estimator
}

// NewRenderer loads every embedded template. Fails at construction
// rather than at render time if any template is malformed, since a bad
// template is a deploy-time bug, not a runtime one.
func NewRenderer() (*Renderer, error) {
	entries, err := templateFiles.ReadDir("templates")
	if err != nil {
		return nil, fmt.Errorf("read templates dir: %w", err)
	}

	r := &Renderer{
		templates: make(map[string]*compiled, len(entries)),
		estimator: tokencount.NewEstimator("cl100k_base"),
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		data, err := templateFiles.ReadFile("templates/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", entry.Name(), err)
		}

		var def definition
		if err := yaml.Unmarshal(data, &def); err != nil {
			return nil, fmt.Errorf("parse %s: %w", entry.Name(), err)
		}

		sysTmpl, err := template.New(def.Name + ".system").Option("missingkey=zero").Parse(def.System)
		if err != nil {
			return nil, fmt.Errorf("compile system template %s: %w", def.Name, err)
		}
		userTmpl, err := template.New(def.Name + ".user").Option("missingkey=zero").Parse(def.User)
		if err != nil {
			return nil, fmt.Errorf("compile user template %s: %w", def.Name, err)
		}

		r.templates[def.Name] = &compiled{def: def, system: sysTmpl, user: userTmpl}
	}

	return r, nil
}

// Render fills templateName with vars, failing fast on an unknown
// template or a missing required variable rather than silently emitting
// an empty section.
func (r *Renderer) Render(templateName string, vars map[string]string) (string, error) {
	r.mu.RLock()
	c, ok := r.templates[templateName]
	r.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%s: %w", templateName, domain.ErrUnknownTemplate)
	}

	for _, required := range c.def.RequiredVars {
		if v, present := vars[required]; !present || strings.TrimSpace(v) == "" {
			return "", fmt.Errorf("%s: %w: %s", templateName, domain.ErrMissingVariable, required)
		}
	}

	data := toTemplateData(vars)

	var sys, user bytes.Buffer
	if err := c.system.Execute(&sys, data); err != nil {
		return "", fmt.Errorf("render system %s: %w", templateName, err)
	}
	if err := c.user.Execute(&user, data); err != nil {
		return "", fmt.Errorf("render user %s: %w", templateName, err)
	}

	if sys.Len() == 0 {
		return user.String(), nil
	}
	return sys.String() + "\n\n" + user.String(), nil
}

// RenderSystemUser is the same as Render but keeps system and user
// prompts separate, for providers that take them as distinct fields.
func (r *Renderer) RenderSystemUser(templateName string, vars map[string]string) (system, user string, err error) {
	r.mu.RLock()
	c, ok := r.templates[templateName]
	r.mu.RUnlock()
	if !ok {
		return "", "", fmt.Errorf("%s: %w", templateName, domain.ErrUnknownTemplate)
	}

	for _, required := range c.def.RequiredVars {
		if v, present := vars[required]; !present || strings.TrimSpace(v) == "" {
			return "", "", fmt.Errorf("%s: %w: %s", templateName, domain.ErrMissingVariable, required)
		}
	}

	data := toTemplateData(vars)

	var sys, usr bytes.Buffer
	if err := c.system.Execute(&sys, data); err != nil {
		return "", "", fmt.Errorf("render system %s: %w", templateName, err)
	}
	if err := c.user.Execute(&usr, data); err != nil {
		return "", "", fmt.Errorf("render user %s: %w", templateName, err)
	}
	return sys.String(), usr.String(), nil
}

// EstimateTokens returns a best-effort token count for a rendered
// system+user prompt pair, so callers can warn before a call goes out
// that is likely to exceed a step's token budget.
func (r *Renderer) EstimateTokens(system, user string) int {
	return r.estimator.Count(system) + r.estimator.Count(user)
}

// toTemplateData exposes vars as a flat map keyed by variable name. A
// dotted name such as "a.b" is one key, reached with {{index . "a.b"}};
// it is not split into nested maps, so {{.a.b}} does not resolve it.
func toTemplateData(vars map[string]string) map[string]any {
	data := make(map[string]any, len(vars))
	for k, v := range vars {
		data[k] = v
	}
	return data
}
