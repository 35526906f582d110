package output

import (
	"encoding/json"
	"io"

	"github.com/gantryci/gantry/internal/pipeline"
	"github.com/gantryci/gantry/internal/report"
)

// JSONRenderer emits structured execution data.
type JSONRenderer struct {
	out io.Writer
}

// NewJSON creates a JSON renderer writing to out.
func NewJSON(out io.Writer) *JSONRenderer {
	return &JSONRenderer{out: out}
}

// Report captures the JSON output schema shared by list and run modes.
type Report struct {
	Pipeline string            `json:"pipeline"`
	Path     string            `json:"path"`
	Triggers []string          `json:"triggers,omitempty"`
	Jobs     []pipeline.Job    `json:"jobs,omitempty"`
	Result   *report.RunResult `json:"result,omitempty"`
	Warnings []string          `json:"warnings,omitempty"`
}

// Render encodes the report as indented JSON.
func (j *JSONRenderer) Render(rep Report) error {
	enc := json.NewEncoder(j.out)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}
