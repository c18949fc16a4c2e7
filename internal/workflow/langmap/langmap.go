// Package langmap normalizes the human-readable language names used
// internally (e.g. "Chinese") to the repository's canonical codes (e.g.
// "zh") before PersistenceSink writes a row, per spec section 4.8.
// Embedded-YAML-table loading follows the same pattern as
// internal/capabilities/registry.go; the table itself is supplemented
// from the original implementation's language list, which the
// distilled spec only described abstractly.
package langmap

import (
	"embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed languages.yaml
var languagesFile embed.FS

// Table maps human-readable language names to canonical codes and back.
type Table struct {
	toCode    map[string]string
	toDisplay map[string]string
}

// Load reads the embedded normalization table.
func Load() (*Table, error) {
	data, err := languagesFile.ReadFile("languages.yaml")
	if err != nil {
		return nil, fmt.Errorf("read languages.yaml: %w", err)
	}

	var names map[string]string
	if err := yaml.Unmarshal(data, &names); err != nil {
		return nil, fmt.Errorf("parse languages.yaml: %w", err)
	}

	t := &Table{
		toCode:    make(map[string]string, len(names)),
		toDisplay: make(map[string]string, len(names)),
	}
	for display, code := range names {
		t.toCode[display] = code
		t.toDisplay[code] = display
	}
	return t, nil
}

// Normalize returns name's canonical code, or name itself unchanged if
// it isn't in the table (spec: "unknown names pass through unchanged").
func (t *Table) Normalize(name string) string {
	if code, ok := t.toCode[name]; ok {
		return code
	}
	return name
}

// Display returns code's human-readable name, or code itself unchanged
// if it isn't a known canonical code (the round-trip counterpart of
// Normalize, used by the testable property in spec section 8.8).
func (t *Table) Display(code string) string {
	if name, ok := t.toDisplay[code]; ok {
		return name
	}
	return code
}
