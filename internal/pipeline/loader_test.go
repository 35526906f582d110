package pipeline

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/gantryci/gantry/internal/trigger"
)

func TestLoadBasicPipeline(t *testing.T) {
	p, err := Load(filepath.Join("testdata", "ci.yml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if p.Name != "CI" {
		t.Fatalf("expected pipeline name CI, got %q", p.Name)
	}
	if p.Env["CARGO_TERM_COLOR"] != "always" {
		t.Fatalf("unexpected pipeline env: %v", p.Env)
	}

	if p.Triggers.Push == nil || p.Triggers.PullRequest == nil {
		t.Fatalf("expected push and pull_request rules, got %+v", p.Triggers)
	}
	if !p.Triggers.Matches(trigger.Event{Kind: trigger.Push, Branch: "main"}) {
		t.Fatalf("expected push to main to match")
	}
	if p.Triggers.Matches(trigger.Event{Kind: trigger.Push, Branch: "feature/x"}) {
		t.Fatalf("expected push to feature/x not to match")
	}

	if len(p.Jobs) != 1 {
		t.Fatalf("expected 1 job, got %d", len(p.Jobs))
	}
	job := p.Jobs[0]
	if job.ID != "check" || job.Name != "check" {
		t.Fatalf("unexpected job identity: %+v", job)
	}
	if job.Environment != "ubuntu-latest" {
		t.Fatalf("expected environment ubuntu-latest, got %q", job.Environment)
	}
	if len(job.Steps) != 5 {
		t.Fatalf("expected 5 steps, got %d", len(job.Steps))
	}

	tc, ok := job.Steps[0].(ToolchainStep)
	if !ok {
		t.Fatalf("expected step 1 to be a toolchain step, got %T", job.Steps[0])
	}
	if tc.Toolchain != "rust" || tc.Version != "stable" {
		t.Fatalf("unexpected toolchain step: %+v", tc)
	}
	if len(tc.Components) != 2 || tc.Components[0] != "rustfmt" || tc.Components[1] != "clippy" {
		t.Fatalf("unexpected components: %v", tc.Components)
	}

	cs, ok := job.Steps[1].(CacheStep)
	if !ok {
		t.Fatalf("expected step 2 to be a cache step, got %T", job.Steps[1])
	}
	if len(cs.Manifests) != 1 || cs.Manifests[0] != "Cargo.lock" {
		t.Fatalf("unexpected manifests: %v", cs.Manifests)
	}
	if len(cs.Paths) != 1 || cs.Paths[0] != "target" {
		t.Fatalf("unexpected cache paths: %v", cs.Paths)
	}

	cmdStep, ok := job.Steps[2].(CommandStep)
	if !ok {
		t.Fatalf("expected step 3 to be a command step, got %T", job.Steps[2])
	}
	if cmdStep.Command != "cargo fmt --all -- --check" {
		t.Fatalf("unexpected command: %q", cmdStep.Command)
	}
	if cmdStep.Label() != "Check formatting" {
		t.Fatalf("unexpected label: %q", cmdStep.Label())
	}
}

func TestDecodeTriggerShorthand(t *testing.T) {
	doc := `
on: [push, pull_request]
jobs:
  build:
    steps:
      - run: make test
`
	p, err := Decode(strings.NewReader(doc), "inline.yml")
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if p.Triggers.Push == nil || p.Triggers.PullRequest == nil {
		t.Fatalf("expected both rules from shorthand, got %+v", p.Triggers)
	}
	if !p.Triggers.Matches(trigger.Event{Kind: trigger.Push, Branch: "anything"}) {
		t.Fatalf("shorthand push rule should match any branch")
	}
	if p.Name != "inline.yml" {
		t.Fatalf("expected name fallback to path base, got %q", p.Name)
	}
}

func TestDecodeScalarTrigger(t *testing.T) {
	doc := `
on: pull_request
jobs:
  build:
    steps:
      - run: make test
`
	p, err := Decode(strings.NewReader(doc), "inline.yml")
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if p.Triggers.Push != nil || p.Triggers.PullRequest == nil {
		t.Fatalf("expected only a pull_request rule, got %+v", p.Triggers)
	}
}

func TestDecodeRejectsUnknownAction(t *testing.T) {
	doc := `
on: push
jobs:
  build:
    steps:
      - action: upload-artifact
        with:
          path: dist
`
	_, err := Decode(strings.NewReader(doc), "inline.yml")
	if err == nil || !strings.Contains(err.Error(), "unsupported action") {
		t.Fatalf("expected unsupported action error, got %v", err)
	}
}

func TestDecodeRejectsMissingParameters(t *testing.T) {
	cases := []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "toolchain without name",
			doc: `
on: push
jobs:
  build:
    steps:
      - action: setup-toolchain
        with:
          version: stable
`,
			want: "requires with.toolchain",
		},
		{
			name: "cache without manifest",
			doc: `
on: push
jobs:
  build:
    steps:
      - action: restore-cache
        with:
          paths: [target]
`,
			want: "requires with.manifest",
		},
		{
			name: "bare step",
			doc: `
on: push
jobs:
  build:
    steps:
      - name: nothing here
`,
			want: "neither run nor action",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tc.doc), "inline.yml")
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestDecodeRejectsUnknownEventKind(t *testing.T) {
	doc := `
on:
  schedule:
    - cron: "0 0 * * *"
jobs:
  build:
    steps:
      - run: make test
`
	_, err := Decode(strings.NewReader(doc), "inline.yml")
	if err == nil || !strings.Contains(err.Error(), "unsupported event kind") {
		t.Fatalf("expected unsupported event kind error, got %v", err)
	}
}

func TestDecodeWarnsOnUnsupportedFeatures(t *testing.T) {
	doc := `
on:
  pull_request:
    branches: [main]
jobs:
  build:
    needs: [lint]
    steps:
      - run: make test
        if: success()
`
	p, err := Decode(strings.NewReader(doc), "inline.yml")
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if len(p.Warnings) != 3 {
		t.Fatalf("expected 3 warnings, got %d: %v", len(p.Warnings), p.Warnings)
	}
}

func TestDecodeJobOrderingIsStable(t *testing.T) {
	doc := `
on: push
jobs:
  zeta:
    steps:
      - run: echo z
  alpha:
    steps:
      - run: echo a
`
	p, err := Decode(strings.NewReader(doc), "inline.yml")
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if len(p.Jobs) != 2 || p.Jobs[0].ID != "alpha" || p.Jobs[1].ID != "zeta" {
		t.Fatalf("expected jobs sorted by id, got %+v", p.Jobs)
	}
}

func TestJobLookup(t *testing.T) {
	p := Pipeline{Jobs: []Job{{ID: "check", Name: "Quality checks"}}}

	if _, ok := p.Job("check"); !ok {
		t.Fatalf("expected lookup by id to succeed")
	}
	if _, ok := p.Job("Quality checks"); !ok {
		t.Fatalf("expected lookup by name to succeed")
	}
	if _, ok := p.Job("missing"); ok {
		t.Fatalf("expected lookup of unknown job to fail")
	}
}
