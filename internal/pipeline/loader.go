package pipeline

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/gantryci/gantry/internal/trigger"
	"gopkg.in/yaml.v3"
)

// Load reads and parses the pipeline file at path. displayPath is used in
// messages and defaults to path.
func Load(path string) (Pipeline, error) {
	f, err := os.Open(path)
	if err != nil {
		return Pipeline{}, fmt.Errorf("open pipeline %q: %w", path, err)
	}
	defer f.Close()
	return Decode(f, path)
}

// Decode parses a pipeline definition from r. displayPath appears in errors
// and warnings.
func Decode(r io.Reader, displayPath string) (Pipeline, error) {
	var doc pipelineDocument
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return Pipeline{}, fmt.Errorf("parse pipeline %q: %w", displayPath, err)
	}

	p := Pipeline{
		Path: displayPath,
		Name: doc.Name,
		Env:  convertEnv(doc.Env),
	}
	if p.Name == "" {
		p.Name = filepath.Base(displayPath)
	}

	rules, warnings, err := convertTriggers(doc.On, displayPath)
	if err != nil {
		return Pipeline{}, err
	}
	p.Triggers = rules
	p.Warnings = warnings

	if len(doc.Jobs) == 0 {
		return Pipeline{}, fmt.Errorf("pipeline %q defines no jobs", displayPath)
	}

	jobIDs := make([]string, 0, len(doc.Jobs))
	for id := range doc.Jobs {
		jobIDs = append(jobIDs, id)
	}
	sort.Strings(jobIDs)

	p.Jobs = make([]Job, 0, len(jobIDs))
	for _, jobID := range jobIDs {
		jobDoc := doc.Jobs[jobID]
		job := Job{
			ID:          jobID,
			Name:        jobDoc.Name,
			Environment: jobDoc.RunsOn,
			Env:         convertEnv(jobDoc.Env),
			Defaults: Defaults{
				Shell:            jobDoc.Defaults.Run.Shell,
				WorkingDirectory: jobDoc.Defaults.Run.WorkingDirectory,
			},
		}
		if job.Name == "" {
			job.Name = jobID
		}

		if len(jobDoc.Needs) > 0 {
			p.Warnings = append(p.Warnings, Warning{
				Pipeline: displayPath,
				Job:      jobID,
				Message:  "job dependencies (needs) are not supported; jobs run independently",
			})
		}

		if len(jobDoc.Steps) == 0 {
			return Pipeline{}, fmt.Errorf("pipeline %q: job %q has no steps", displayPath, jobID)
		}

		job.Steps = make([]Step, 0, len(jobDoc.Steps))
		for idx, stepDoc := range jobDoc.Steps {
			step, stepWarnings, err := convertStep(stepDoc, displayPath, jobID, idx)
			if err != nil {
				return Pipeline{}, err
			}
			p.Warnings = append(p.Warnings, stepWarnings...)
			job.Steps = append(job.Steps, step)
		}

		p.Jobs = append(p.Jobs, job)
	}

	return p, nil
}

func convertTriggers(doc onDocument, displayPath string) (trigger.Rules, []Warning, error) {
	var rules trigger.Rules
	warnings := make([]Warning, 0)

	if doc.Push != nil {
		patterns, err := trigger.CompilePatterns(doc.Push.Branches)
		if err != nil {
			return trigger.Rules{}, nil, fmt.Errorf("pipeline %q: %w", displayPath, err)
		}
		rules.Push = &trigger.PushRule{Branches: patterns}
	}
	if doc.PullRequest != nil {
		if len(doc.PullRequest.Branches) > 0 {
			warnings = append(warnings, Warning{
				Pipeline: displayPath,
				Message:  "pull_request branch filters are ignored; pull requests always match",
			})
		}
		rules.PullRequest = &trigger.PullRequestRule{}
	}

	return rules, warnings, nil
}

func convertStep(doc stepDocument, displayPath, jobID string, idx int) (Step, []Warning, error) {
	where := func(format string, args ...interface{}) error {
		detail := fmt.Sprintf(format, args...)
		return fmt.Errorf("pipeline %q: job %q step %d: %s", displayPath, jobID, idx+1, detail)
	}

	var warnings []Warning
	if doc.If != "" {
		warnings = append(warnings, Warning{
			Pipeline: displayPath,
			Job:      jobID,
			Message:  fmt.Sprintf("step %d has an unsupported if condition; it always runs", idx+1),
		})
	}

	// Shorthand `run:` without an action block.
	if doc.Run != "" {
		if doc.Action != "" && doc.Action != string(KindCommand) {
			return nil, nil, where("cannot combine run with action %q", doc.Action)
		}
		return CommandStep{
			Name:             doc.Name,
			Command:          doc.Run,
			Shell:            doc.Shell,
			WorkingDirectory: doc.WorkingDirectory,
			Env:              convertEnv(doc.Env),
		}, warnings, nil
	}

	switch StepKind(doc.Action) {
	case KindToolchain:
		var params toolchainParams
		if err := decodeWith(doc.With, &params); err != nil {
			return nil, nil, where("invalid with block: %v", err)
		}
		if params.Toolchain == "" {
			return nil, nil, where("setup-toolchain requires with.toolchain")
		}
		return ToolchainStep{
			Name:       doc.Name,
			Toolchain:  params.Toolchain,
			Version:    params.Version,
			Components: params.Components,
		}, warnings, nil

	case KindCache:
		var params cacheParams
		if err := decodeWith(doc.With, &params); err != nil {
			return nil, nil, where("invalid with block: %v", err)
		}
		if len(params.Manifest.values) == 0 {
			return nil, nil, where("restore-cache requires with.manifest")
		}
		return CacheStep{
			Name:      doc.Name,
			Manifests: params.Manifest.values,
			Paths:     params.Paths,
		}, warnings, nil

	case KindCommand:
		var params commandParams
		if err := decodeWith(doc.With, &params); err != nil {
			return nil, nil, where("invalid with block: %v", err)
		}
		if params.Command == "" {
			return nil, nil, where("run requires with.command")
		}
		return CommandStep{
			Name:             doc.Name,
			Command:          params.Command,
			Shell:            doc.Shell,
			WorkingDirectory: doc.WorkingDirectory,
			Env:              convertEnv(doc.Env),
		}, warnings, nil

	case "":
		return nil, nil, where("step declares neither run nor action")
	default:
		return nil, nil, where("unsupported action %q", doc.Action)
	}
}

func decodeWith(node yaml.Node, out interface{}) error {
	if node.Kind == 0 {
		return nil
	}
	return node.Decode(out)
}

type pipelineDocument struct {
	Name string                 `yaml:"name"`
	On   onDocument             `yaml:"on"`
	Env  map[string]interface{} `yaml:"env"`
	Jobs map[string]jobDocument `yaml:"jobs"`
}

// onDocument accepts both the mapping form (`on: {push: {branches: [main]}}`)
// and the shorthand sequence/scalar forms (`on: [push, pull_request]`).
type onDocument struct {
	Push        *pushDocument        `yaml:"push"`
	PullRequest *pullRequestDocument `yaml:"pull_request"`
}

func (o *onDocument) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.MappingNode:
		// Decoded by hand so that a bare `push:` or `pull_request:` key with
		// a null value still registers the rule.
		for i := 0; i+1 < len(node.Content); i += 2 {
			keyNode, valNode := node.Content[i], node.Content[i+1]
			var key string
			if err := keyNode.Decode(&key); err != nil {
				return err
			}
			switch key {
			case string(trigger.Push):
				doc := &pushDocument{}
				if valNode.Tag != "!!null" {
					if err := valNode.Decode(doc); err != nil {
						return err
					}
				}
				o.Push = doc
			case string(trigger.PullRequest):
				doc := &pullRequestDocument{}
				if valNode.Tag != "!!null" {
					if err := valNode.Decode(doc); err != nil {
						return err
					}
				}
				o.PullRequest = doc
			default:
				return fmt.Errorf("on: unsupported event kind %q", key)
			}
		}
		return nil
	case yaml.ScalarNode:
		var kind string
		if err := node.Decode(&kind); err != nil {
			return err
		}
		return o.addKind(kind)
	case yaml.SequenceNode:
		var kinds []string
		if err := node.Decode(&kinds); err != nil {
			return err
		}
		for _, kind := range kinds {
			if err := o.addKind(kind); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("on: unexpected YAML node kind %d", node.Kind)
	}
}

func (o *onDocument) addKind(kind string) error {
	switch kind {
	case string(trigger.Push):
		o.Push = &pushDocument{}
	case string(trigger.PullRequest):
		o.PullRequest = &pullRequestDocument{}
	default:
		return fmt.Errorf("on: unsupported event kind %q", kind)
	}
	return nil
}

type pushDocument struct {
	Branches []string `yaml:"branches"`
}

type pullRequestDocument struct {
	Branches []string `yaml:"branches"`
}

type jobDocument struct {
	Name     string                 `yaml:"name"`
	RunsOn   string                 `yaml:"runs-on"`
	Env      map[string]interface{} `yaml:"env"`
	Defaults defaultsDocument       `yaml:"defaults"`
	Needs    []string               `yaml:"needs"`
	Steps    []stepDocument         `yaml:"steps"`
}

type defaultsDocument struct {
	Run runDefaults `yaml:"run"`
}

type runDefaults struct {
	Shell            string `yaml:"shell"`
	WorkingDirectory string `yaml:"working-directory"`
}

type stepDocument struct {
	Name             string                 `yaml:"name"`
	Action           string                 `yaml:"action"`
	Run              string                 `yaml:"run"`
	With             yaml.Node              `yaml:"with"`
	Env              map[string]interface{} `yaml:"env"`
	Shell            string                 `yaml:"shell"`
	WorkingDirectory string                 `yaml:"working-directory"`
	If               string                 `yaml:"if"`
}

type toolchainParams struct {
	Toolchain  string   `yaml:"toolchain"`
	Version    string   `yaml:"version"`
	Components []string `yaml:"components"`
}

type cacheParams struct {
	Manifest stringList `yaml:"manifest"`
	Paths    []string   `yaml:"paths"`
}

type commandParams struct {
	Command string `yaml:"command"`
}

// stringList accepts either a scalar or a sequence of strings.
type stringList struct {
	values []string
}

func (l *stringList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var v string
		if err := node.Decode(&v); err != nil {
			return err
		}
		l.values = []string{v}
		return nil
	case yaml.SequenceNode:
		return node.Decode(&l.values)
	default:
		return fmt.Errorf("expected string or list of strings")
	}
}

func convertEnv(input map[string]interface{}) map[string]string {
	if len(input) == 0 {
		return nil
	}
	out := make(map[string]string, len(input))
	for k, v := range input {
		out[k] = fmt.Sprint(v)
	}
	return out
}
