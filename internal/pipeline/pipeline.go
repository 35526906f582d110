package pipeline

import (
	"fmt"

	"github.com/gantryci/gantry/internal/trigger"
)

// Pipeline is a parsed pipeline definition: trigger rules plus jobs.
type Pipeline struct {
	Path     string            `json:"path"`
	Name     string            `json:"name"`
	Env      map[string]string `json:"env,omitempty"`
	Triggers trigger.Rules     `json:"-"`
	Jobs     []Job             `json:"jobs"`
	Warnings []Warning         `json:"warnings,omitempty"`
}

// Warning captures non-fatal issues encountered while loading a pipeline.
type Warning struct {
	Pipeline string `json:"pipeline"`
	Job      string `json:"job,omitempty"`
	Message  string `json:"message"`
}

// Defaults capture shared configuration for a job's command steps.
type Defaults struct {
	Shell            string `json:"shell,omitempty"`
	WorkingDirectory string `json:"working_directory,omitempty"`
}

// Job is a named unit of work bound to an execution environment. A job
// instance lives for exactly one run.
type Job struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Environment string            `json:"environment,omitempty"`
	Env         map[string]string `json:"env,omitempty"`
	Defaults    Defaults          `json:"defaults"`
	Steps       []Step            `json:"steps"`
}

// StepKind discriminates the step variants.
type StepKind string

const (
	KindToolchain StepKind = "setup-toolchain"
	KindCache     StepKind = "restore-cache"
	KindCommand   StepKind = "run"
)

// Step is one executable action within a job. The concrete types are
// ToolchainStep, CacheStep and CommandStep; the runner dispatches on them
// exhaustively.
type Step interface {
	Kind() StepKind
	Label() string
}

// ToolchainStep provisions a toolchain before later steps run.
type ToolchainStep struct {
	Name       string   `json:"name"`
	Toolchain  string   `json:"toolchain"`
	Version    string   `json:"version,omitempty"`
	Components []string `json:"components,omitempty"`
}

func (s ToolchainStep) Kind() StepKind { return KindToolchain }

func (s ToolchainStep) Label() string {
	if s.Name != "" {
		return s.Name
	}
	if s.Version != "" {
		return fmt.Sprintf("setup %s %s", s.Toolchain, s.Version)
	}
	return fmt.Sprintf("setup %s", s.Toolchain)
}

// CacheStep restores a keyed dependency cache. The key is a content
// fingerprint of the manifest files; Paths lists what gets archived when the
// cache is saved after a successful run.
type CacheStep struct {
	Name      string   `json:"name"`
	Manifests []string `json:"manifests"`
	Paths     []string `json:"paths,omitempty"`
}

func (s CacheStep) Kind() StepKind { return KindCache }

func (s CacheStep) Label() string {
	if s.Name != "" {
		return s.Name
	}
	return "restore cache"
}

// CommandStep invokes an external command through a shell.
type CommandStep struct {
	Name             string            `json:"name"`
	Command          string            `json:"command"`
	Shell            string            `json:"shell,omitempty"`
	WorkingDirectory string            `json:"working_directory,omitempty"`
	Env              map[string]string `json:"env,omitempty"`
}

func (s CommandStep) Kind() StepKind { return KindCommand }

func (s CommandStep) Label() string {
	if s.Name != "" {
		return s.Name
	}
	return s.Command
}

// Job lookup by ID or name. The second return is false when no job matches.
func (p Pipeline) Job(idOrName string) (Job, bool) {
	for _, job := range p.Jobs {
		if job.ID == idOrName || job.Name == idOrName {
			return job, true
		}
	}
	return Job{}, false
}
