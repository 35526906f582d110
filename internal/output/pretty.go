package output

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gantryci/gantry/internal/pipeline"
	"github.com/gantryci/gantry/internal/report"
)

// PrettyRenderer renders execution results in a human-friendly format.
type PrettyRenderer struct {
	out io.Writer
}

// NewPretty creates a PrettyRenderer writing to the provided writer.
func NewPretty(out io.Writer) *PrettyRenderer {
	return &PrettyRenderer{out: out}
}

// RenderList renders the pipeline's triggers, jobs and steps.
func (p *PrettyRenderer) RenderList(pipe pipeline.Pipeline) error {
	if _, err := fmt.Fprintf(p.out, "Pipeline %s\n", decorateName(pipe.Name, pipe.Path)); err != nil {
		return err
	}
	for _, line := range pipe.Triggers.Describe() {
		if _, err := fmt.Fprintf(p.out, "  on %s\n", line); err != nil {
			return err
		}
	}
	for _, job := range pipe.Jobs {
		label := job.Name
		if job.Environment != "" {
			label = fmt.Sprintf("%s [%s]", job.Name, job.Environment)
		}
		if _, err := fmt.Fprintf(p.out, "  Job %s\n", label); err != nil {
			return err
		}
		for _, step := range job.Steps {
			if _, err := fmt.Fprintf(p.out, "    • %s\n", step.Label()); err != nil {
				return err
			}
		}
	}
	return nil
}

// RenderResult shows the outcome of one run with a closing status line.
func (p *PrettyRenderer) RenderResult(res report.RunResult) error {
	if res.Status == report.StatusSkipped {
		_, err := fmt.Fprintf(p.out, "Pipeline %s\nSKIPPED: no trigger rule matched %s\n", res.Pipeline, describeEvent(res))
		return err
	}

	var buffer bytes.Buffer
	fmt.Fprintf(&buffer, "Pipeline %s\n", res.Pipeline)
	fmt.Fprintf(&buffer, "  Job %s\n", res.Job)

	for _, step := range res.Steps {
		fmt.Fprintf(&buffer, "    %s %s (%s)\n", statusGlyph(step.Status), step.Name, formatDuration(step.Duration))
		if step.Note != "" {
			fmt.Fprintf(&buffer, "      note: %s\n", step.Note)
		}
		if step.Status == report.StepFailed {
			if step.Command != "" {
				fmt.Fprintf(&buffer, "      command: %s\n", step.Command)
			}
			if step.Stderr != "" {
				fmt.Fprintf(&buffer, "      stderr:\n%s\n", indent(step.Stderr, "        "))
			}
		}
		if step.Status == report.StepSkipped && step.Command != "" {
			fmt.Fprintf(&buffer, "      command: %s\n", step.Command)
		}
	}

	switch res.Status {
	case report.StatusFailed:
		fmt.Fprintf(&buffer, "RESULT: failed at step %d (%s)\n", res.FailedStep, formatDuration(res.Duration))
	case report.StatusCancelled:
		fmt.Fprintf(&buffer, "RESULT: cancelled (%s)\n", formatDuration(res.Duration))
	default:
		fmt.Fprintf(&buffer, "RESULT: %s (%s)\n", res.Status, formatDuration(res.Duration))
	}

	_, err := buffer.WriteTo(p.out)
	return err
}

func describeEvent(res report.RunResult) string {
	if res.Branch != "" {
		return fmt.Sprintf("%s event on branch %q", res.Event, res.Branch)
	}
	return fmt.Sprintf("%s event", res.Event)
}

func decorateName(name, path string) string {
	if name == "" || name == path {
		return path
	}
	return fmt.Sprintf("%s (%s)", name, path)
}

func statusGlyph(status string) string {
	switch status {
	case report.StepPassed:
		return "✓"
	case report.StepFailed:
		return "✗"
	case report.StepSkipped:
		return "-"
	default:
		return "?"
	}
}

func indent(s, pad string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = pad + lines[i]
	}
	return strings.Join(lines, "\n")
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "0s"
	}
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Truncate(time.Millisecond).String()
}
