package report

import "time"

// Run statuses.
const (
	StatusSuccess   = "success"
	StatusFailed    = "failed"
	StatusSkipped   = "skipped"
	StatusCancelled = "cancelled"
)

// Step statuses.
const (
	StepPassed  = "passed"
	StepFailed  = "failed"
	StepSkipped = "skipped"
)

// StepOutcome captures the result of a single executed step.
type StepOutcome struct {
	Index      int           `json:"index"`
	Name       string        `json:"name"`
	Action     string        `json:"action"`
	Command    string        `json:"command,omitempty"`
	Status     string        `json:"status"`
	ExitCode   int           `json:"exit_code"`
	Stdout     string        `json:"stdout,omitempty"`
	Stderr     string        `json:"stderr,omitempty"`
	Note       string        `json:"note,omitempty"`
	Duration   time.Duration `json:"-"`
	DurationMS int64         `json:"duration_ms"`
}

// RunResult aggregates one job execution. Steps holds one outcome per step
// that was started, in declared order; steps after the first failure are
// never started and have no entry.
type RunResult struct {
	Pipeline   string        `json:"pipeline"`
	Job        string        `json:"job"`
	Event      string        `json:"event,omitempty"`
	Branch     string        `json:"branch,omitempty"`
	Status     string        `json:"status"`
	FailedStep int           `json:"failed_step,omitempty"`
	Steps      []StepOutcome `json:"steps,omitempty"`
	Duration   time.Duration `json:"-"`
	DurationMS int64         `json:"duration_ms"`
	ExitCode   int           `json:"exit_code"`
}

// Skipped builds the result recorded when no trigger rule matches the event,
// before any job is instantiated.
func Skipped(pipeline, event, branch string) RunResult {
	return RunResult{
		Pipeline: pipeline,
		Event:    event,
		Branch:   branch,
		Status:   StatusSkipped,
	}
}
